package middleware

import (
	"sync"
	"time"
)

// RateLimiter ограничивает количество публикаций на автора.
// Использует алгоритм скользящего окна.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter: limit <= 0 отключает ограничение.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Close останавливает фоновую горутину очистки.
// Его надо вызывать на shutdown (иначе cleanup будет жить вечно).
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Check сообщает, уложится ли ещё одна публикация автора в лимит. Ничего не учитывает.
func (rl *RateLimiter) Check(userID int64) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.fits(userID, rl.now())
}

// Record учитывает принятую публикацию автора.
func (rl *RateLimiter) Record(userID int64) {
	if rl.limit <= 0 {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.requests[userID] = append(rl.recent(userID, now.Add(-rl.window)), now)
}

// fits обрезает старые отметки и сравнивает с лимитом. Вызывать под mu.
func (rl *RateLimiter) fits(userID int64, now time.Time) bool {
	recent := rl.recent(userID, now.Add(-rl.window))
	rl.requests[userID] = recent
	return len(recent) < rl.limit
}

// recent отбрасывает отметки старше cutoff. Вызывать под mu.
func (rl *RateLimiter) recent(userID int64, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range rl.requests[userID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-rl.window)
			for userID := range rl.requests {
				if recent := rl.recent(userID, cutoff); len(recent) == 0 {
					delete(rl.requests, userID)
				} else {
					rl.requests[userID] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}
