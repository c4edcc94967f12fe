package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChatLimiter(t *testing.T) {
	t.Run("allows up to the limit", func(t *testing.T) {
		rl := NewChatLimiter(3, time.Minute)
		assert.True(t, rl.Allow("alice"))
		assert.True(t, rl.Allow("alice"))
		assert.True(t, rl.Allow("alice"))
		assert.False(t, rl.Allow("alice"))
	})

	t.Run("users do not share a window", func(t *testing.T) {
		rl := NewChatLimiter(1, time.Minute)
		assert.True(t, rl.Allow("alice"))
		assert.True(t, rl.Allow("bob"))
		assert.False(t, rl.Allow("alice"))
	})

	t.Run("window slides", func(t *testing.T) {
		rl := NewChatLimiter(1, 20*time.Millisecond)
		assert.True(t, rl.Allow("alice"))
		assert.False(t, rl.Allow("alice"))
		time.Sleep(30 * time.Millisecond)
		assert.True(t, rl.Allow("alice"))
	})

	t.Run("zero limit disables limiting", func(t *testing.T) {
		rl := NewChatLimiter(0, time.Minute)
		assert.True(t, rl.Allow("alice"))
		assert.True(t, rl.Allow("alice"))
	})
}
