package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlotKeyBuckets(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	c := New("127.0.0.1:0", "", 0)
	defer c.Close()
	c.now = func() time.Time { return now }

	k1 := c.slotKey("10.0.0.1", time.Second)
	now = base.Add(999 * time.Millisecond)
	assert.Equal(t, k1, c.slotKey("10.0.0.1", time.Second))
	now = base.Add(time.Second)
	assert.NotEqual(t, k1, c.slotKey("10.0.0.1", time.Second))
	assert.Contains(t, k1, "shop:rl:10.0.0.1:")
	assert.NotEqual(t, k1, c.slotKey("10.0.0.2", time.Second))
}

func TestHitUnreachableReturnsError(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := c.Hit(ctx, "10.0.0.1", time.Second)
	assert.Error(t, err)
}
