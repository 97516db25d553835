package emulator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultSpeed = 700
	MinSpeed     = 1
	MaxSpeed     = 1000
)

// Clock drives the instruction loop at a rate in Hz that can be changed
// while it runs.
type Clock struct {
	mu      sync.Mutex
	hz      int
	changed chan struct{}
}

func NewClock(hz int) (*Clock, error) {
	if err := validateSpeed(hz); err != nil {
		return nil, err
	}
	return &Clock{hz: hz, changed: make(chan struct{}, 1)}, nil
}

func validateSpeed(hz int) error {
	if hz < MinSpeed || hz > MaxSpeed {
		return fmt.Errorf("%w: %d Hz, want %d-%d", ErrInvalidSpeed, hz, MinSpeed, MaxSpeed)
	}
	return nil
}

func (c *Clock) Speed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hz
}

// SetSpeed changes the tick rate. A running clock picks up the new rate on
// its next iteration.
func (c *Clock) SetSpeed(hz int) error {
	if err := validateSpeed(hz); err != nil {
		return err
	}
	c.mu.Lock()
	c.hz = hz
	c.mu.Unlock()

	select {
	case c.changed <- struct{}{}:
	default:
	}
	return nil
}

func (c *Clock) interval() time.Duration {
	return time.Second / time.Duration(c.Speed())
}

// Run calls tick once per clock period until ctx is done or tick returns an
// error, which is passed back to the caller.
func (c *Clock) Run(ctx context.Context, tick func() error) error {
	ticker := time.NewTicker(c.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.changed:
			ticker.Reset(c.interval())
		case <-ticker.C:
			if err := tick(); err != nil {
				return err
			}
		}
	}
}
