package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	t.Setenv("CACHE_HOST", "")
	assert.False(t, Enabled())

	t.Setenv("CACHE_HOST", "dragonfly")
	assert.True(t, Enabled())
}

func TestAddrDefaults(t *testing.T) {
	t.Setenv("CACHE_HOST", "")
	t.Setenv("CACHE_PORT", "")
	assert.Equal(t, "localhost:6379", addr())

	t.Setenv("CACHE_HOST", "cache")
	t.Setenv("CACHE_PORT", "6380")
	assert.Equal(t, "cache:6380", addr())
}
