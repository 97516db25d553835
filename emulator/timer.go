package emulator

import (
	"context"
	"sync"
	"time"
)

// TimerFrequency is the fixed rate the delay and sound timers count down at.
const TimerFrequency = 60

// Timer is an 8-bit countdown register. It is shared between the executor
// and the timer clock, and guarded by its own lock.
type Timer struct {
	mu    sync.Mutex
	value uint8
}

func (t *Timer) Get() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

func (t *Timer) Set(v uint8) {
	t.mu.Lock()
	t.value = v
	t.mu.Unlock()
}

// Active reports whether the timer is still counting.
func (t *Timer) Active() bool {
	return t.Get() > 0
}

// Tick decrements the timer once, stopping at zero.
func (t *Timer) Tick() {
	t.mu.Lock()
	if t.value > 0 {
		t.value--
	}
	t.mu.Unlock()
}

// TimerClock decrements a set of timers at TimerFrequency on one persistent
// ticker. Timers do not count down until Run is called.
type TimerClock struct {
	timers []*Timer
}

func NewTimerClock(timers ...*Timer) *TimerClock {
	return &TimerClock{timers: timers}
}

// Run ticks the timers until ctx is done.
func (tc *TimerClock) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / TimerFrequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, t := range tc.timers {
				t.Tick()
			}
		}
	}
}
