package redis

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserWindowKey(t *testing.T) {
	userID := uuid.MustParse("3f1e9c7a-8b2d-4a5e-9c0f-1d2e3a4b5c6d")
	window := time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)

	key := userWindowKey(userID, window)
	assert.Equal(t, "rl:user:3f1e9c7a-8b2d-4a5e-9c0f-1d2e3a4b5c6d:1788084900", key)

	// Every instant inside a minute maps to the same counter.
	later := window.Add(42 * time.Second).Truncate(time.Minute)
	assert.Equal(t, key, userWindowKey(userID, later))

	next := window.Add(time.Minute)
	assert.NotEqual(t, key, userWindowKey(userID, next))
}
