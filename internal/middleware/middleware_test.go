package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Check(1))
	rl.Record(1)
	assert.True(t, rl.Check(1))
	rl.Record(1)
	assert.False(t, rl.Check(1))
	assert.True(t, rl.Check(2), "limit is per author")

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Check(1))
}

func TestRateLimiter_CheckDoesNotSpend(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	for i := 0; i < 5; i++ {
		require.True(t, rl.Check(7))
	}
	rl.Record(7)
	assert.False(t, rl.Check(7))
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		rl.Record(1)
		require.True(t, rl.Check(1))
	}
}

func TestRecoverToError(t *testing.T) {
	run := func() (err error) {
		defer RecoverToError("test", &err)
		panic("boom")
	}
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	clean := func() (err error) {
		defer RecoverToError("test", &err)
		return errors.New("plain")
	}
	assert.EqualError(t, clean(), "plain")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "пр...", Truncate("привет", 2))
}
