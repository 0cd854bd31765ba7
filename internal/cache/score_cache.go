package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ScoreCache handles Redis ZSET operations for per-room team standings.
type ScoreCache interface {
	SetScore(ctx context.Context, roomID, teamID string, points int) error
	RemoveTeam(ctx context.Context, roomID, teamID string) error
	Standings(ctx context.Context, roomID string) ([]StandingEntry, error)
	Delete(ctx context.Context, roomID string) error
}

// StandingEntry is a single ranked row of a room's standings.
type StandingEntry struct {
	TeamID string `json:"teamId"`
	Points int    `json:"points"`
	Rank   int    `json:"rank"`
}

type scoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScoreCache creates a new score cache.
func NewScoreCache(client *redis.Client) ScoreCache {
	return &scoreCache{
		client: client,
		ttl:    24 * time.Hour, // Room state expires after 24h
	}
}

func (c *scoreCache) key(roomID string) string {
	return fmt.Sprintf("room:%s:scores", roomID)
}

func (c *scoreCache) SetScore(ctx context.Context, roomID, teamID string, points int) error {
	key := c.key(roomID)
	if err := c.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(points),
		Member: teamID,
	}).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, key, c.ttl).Err()
}

func (c *scoreCache) RemoveTeam(ctx context.Context, roomID, teamID string) error {
	return c.client.ZRem(ctx, c.key(roomID), teamID).Err()
}

func (c *scoreCache) Standings(ctx context.Context, roomID string) ([]StandingEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(roomID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]StandingEntry, len(results))
	for i, z := range results {
		entries[i] = StandingEntry{
			TeamID: z.Member.(string),
			Points: int(z.Score),
			Rank:   i + 1,
		}
	}
	return entries, nil
}

func (c *scoreCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, c.key(roomID)).Err()
}
