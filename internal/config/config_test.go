package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"liveroom/internal/model"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("MONGO_DB", "quiz")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("PORT", "9999")
	t.Setenv("BUZZ_POLICY", "first")
	t.Setenv("RECENT_INTERACTIONS", "10")
	t.Setenv("JOIN_TIMEOUT", "2s")

	cfg := Load()
	assert.Equal(t, "mongodb://db:27017", cfg.MongoURI)
	assert.Equal(t, "quiz", cfg.MongoDB)
	assert.Equal(t, "cache:6379", cfg.RedisAddr, "redis:// scheme should be stripped")
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, model.BuzzPolicyFirst, cfg.BuzzPolicy)
	assert.Equal(t, 10, cfg.RecentInteractions)
	assert.Equal(t, 2*time.Second, cfg.JoinTimeout)
}

func TestLoadFallsBackOnBadValues(t *testing.T) {
	t.Setenv("BUZZ_POLICY", "sometimes")
	t.Setenv("RECENT_INTERACTIONS", "-2")
	t.Setenv("JOIN_TIMEOUT", "soon")

	cfg := Load()
	assert.Equal(t, model.BuzzPolicyQueue, cfg.BuzzPolicy)
	assert.Equal(t, 5, cfg.RecentInteractions)
	assert.Equal(t, 5*time.Second, cfg.JoinTimeout)
}
