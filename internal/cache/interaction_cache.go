package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"liveroom/internal/model"
)

// InteractionCache keeps the bounded recent-buzz window per room so
// join snapshots do not have to scan the unbounded log in the document
// store. Newest entry first.
type InteractionCache interface {
	Push(ctx context.Context, roomID string, in model.BuzzerInteraction) error
	Recent(ctx context.Context, roomID string) ([]model.BuzzerInteraction, error)
	Clear(ctx context.Context, roomID string) error
}

type interactionCache struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

// NewInteractionCache creates an interaction cache holding the most
// recent window entries per room.
func NewInteractionCache(client *redis.Client, window int) InteractionCache {
	return &interactionCache{
		client: client,
		window: window,
		ttl:    24 * time.Hour,
	}
}

func (c *interactionCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:buzzes", roomID)
}

func (c *interactionCache) Push(ctx context.Context, roomID string, in model.BuzzerInteraction) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	key := c.key(roomID)
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(c.window-1))
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *interactionCache) Recent(ctx context.Context, roomID string) ([]model.BuzzerInteraction, error) {
	items, err := c.client.LRange(ctx, c.key(roomID), 0, int64(c.window-1)).Result()
	if err != nil {
		return nil, err
	}

	interactions := make([]model.BuzzerInteraction, 0, len(items))
	for _, item := range items {
		var in model.BuzzerInteraction
		if err := json.Unmarshal([]byte(item), &in); err != nil {
			return nil, err
		}
		interactions = append(interactions, in)
	}
	return interactions, nil
}

func (c *interactionCache) Clear(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}
