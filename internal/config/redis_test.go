package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadRedisConfigDefaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_HOST", "")
	t.Setenv("REDIS_PORT", "")

	rc := LoadRedisConfig()

	assert.Equal(t, "localhost:6379", rc.Addr)
	assert.Empty(t, rc.Password)
	assert.Equal(t, 0, rc.DB)
	assert.False(t, rc.TLS)
}

func TestLoadRedisConfigHostPortWinsOverAddr(t *testing.T) {
	t.Setenv("REDIS_ADDR", "shorthand:1111")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TLS", "TRUE")

	rc := LoadRedisConfig()

	assert.Equal(t, "cache.internal:6380", rc.Addr)
	assert.Equal(t, 3, rc.DB)
	assert.True(t, rc.TLS)
}

func TestLoadRedisConfigIgnoresBadDB(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REDIS_DB", "three")
	t.Setenv("REDIS_TLS", "1")

	rc := LoadRedisConfig()

	assert.Equal(t, 0, rc.DB)
	assert.True(t, rc.TLS)
}
