package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Run("default sequence", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Jitter: -1})

		want := []time.Duration{
			250 * time.Millisecond,
			500 * time.Millisecond,
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			10 * time.Second,
			10 * time.Second,
		}
		for i, w := range want {
			assert.Equal(t, w, b.Next(), "attempt %d", i)
		}
		assert.Equal(t, len(want), b.Attempts())
	})

	t.Run("jitter stays within bound", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Second})
		for range 20 {
			d := b.Next()
			assert.GreaterOrEqual(t, d, time.Second)
			assert.LessOrEqual(t, d, 1250*time.Millisecond)
		}
	})

	t.Run("reset", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Jitter: -1})
		b.Next()
		b.Next()
		assert.Equal(t, time.Second, b.Base())

		b.Reset()
		assert.Equal(t, InitialBackoff, b.Base())
		assert.Zero(t, b.Attempts())
	})

	t.Run("config defaults", func(t *testing.T) {
		cfg := BackoffConfig{Max: time.Millisecond, Multiplier: 0.5}.withDefaults()
		assert.Equal(t, InitialBackoff, cfg.Initial)
		assert.Equal(t, InitialBackoff, cfg.Max, "max never below initial")
		assert.Equal(t, BackoffMultiplier, cfg.Multiplier)
		assert.Equal(t, JitterFactor, cfg.Jitter)
	})
}
