package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Rule names a route class and its fixed-window budget.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Limiter decides whether a client may proceed under a rule. Counters are
// independent per rule, so hitting the login budget never affects ticket
// submission.
type Limiter interface {
	Allow(ctx context.Context, clientKey string, rule Rule) (bool, error)
}

type window struct {
	count   int
	resetAt time.Time
}

const memoryJanitorInterval = time.Minute

// MemoryLimiter is a process-local fixed-window limiter. A janitor evicts
// windows that have lapsed so idle clients do not leak counters.
type MemoryLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryLimiter initializes the limiter and starts its janitor.
func NewMemoryLimiter() *MemoryLimiter {
	l := &MemoryLimiter{
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, clientKey string, rule Rule) (bool, error) {
	key := rule.Name + "|" + clientKey
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.windows[key]
	if !ok || now.After(win.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(rule.Window)}
		return rule.Limit >= 1, nil
	}
	win.count++
	return win.count <= rule.Limit, nil
}

// Close stops the janitor.
func (l *MemoryLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *MemoryLimiter) janitor() {
	ticker := time.NewTicker(memoryJanitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for key, win := range l.windows {
				if now.After(win.resetAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
