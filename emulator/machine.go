package emulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/errgroup"
)

var errHalted = errors.New("halted")

// Machine ties the CPU to its clocks. The instruction clock and the timer
// clock run on their own goroutines; the display and keypad belong to the
// host and survive a reboot.
type Machine struct {
	cfg     Config
	log     *slog.Logger
	display *Framebuffer
	keys    *Keypad
	clock   *Clock
	delay   Timer
	sound   Timer
	timers  *TimerClock

	// mu guards everything the instruction clock touches.
	mu     sync.Mutex
	cpu    *CPU
	rom    []byte
	fault  error
	paused bool

	// run serialises Start, Stop and Reboot.
	run    sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewMachine creates a machine. A nil display or keypad is replaced by a
// fresh one.
func NewMachine(cfg Config, display *Framebuffer, keys *Keypad) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if display == nil {
		display = NewFramebuffer()
	}
	if keys == nil {
		keys = NewKeypad()
	}

	clock, err := NewClock(cfg.Speed)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	m := &Machine{
		cfg:     cfg,
		log:     cfg.logger(),
		display: display,
		keys:    keys,
		clock:   clock,
	}
	m.timers = NewTimerClock(&m.delay, &m.sound)
	m.cpu = newCPU(display, keys, &m.delay, &m.sound, cfg.Quirks, rand.New(rand.NewPCG(seed, seed>>1|1)), m.log)
	return m, nil
}

func (m *Machine) Display() *Framebuffer { return m.display }

func (m *Machine) Keypad() *Keypad { return m.keys }

// Load boots the machine with rom. It may be called while running; the
// new rom takes effect immediately.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rom = append([]byte(nil), rom...)
	return m.boot()
}

// boot resets all per-boot state. m.mu must be held.
func (m *Machine) boot() error {
	m.delay.Set(0)
	m.sound.Set(0)
	m.display.Clear()
	m.fault = nil
	return m.cpu.boot(m.rom)
}

// Start runs the instruction and timer clocks until ctx is done or Stop is
// called.
func (m *Machine) Start(ctx context.Context) error {
	m.run.Lock()
	defer m.run.Unlock()

	if m.cancel != nil {
		return ErrRunning
	}
	m.mu.Lock()
	loaded := m.rom != nil
	m.mu.Unlock()
	if !loaded {
		return ErrNotLoaded
	}

	m.start(ctx)
	m.log.Info("machine started", "speed", m.clock.Speed())
	return nil
}

func (m *Machine) start(ctx context.Context) {
	m.parent = ctx
	ctx, m.cancel = context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.timers.Run(gctx)
	})
	g.Go(func() error {
		err := m.clock.Run(gctx, m.tick)
		if errors.Is(err, errHalted) {
			return nil
		}
		return err
	})
	m.group = g
}

// Stop halts both clocks and waits for the in-flight instruction to finish.
func (m *Machine) Stop() error {
	m.run.Lock()
	defer m.run.Unlock()
	return m.stop()
}

func (m *Machine) stop() error {
	if m.cancel == nil {
		return nil
	}
	m.cancel()
	err := m.group.Wait()
	m.cancel = nil
	m.group = nil
	return err
}

// Running reports whether the clocks are running.
func (m *Machine) Running() bool {
	m.run.Lock()
	defer m.run.Unlock()
	return m.cancel != nil
}

// Reboot stops the clocks, reinitialises the machine with the loaded rom
// and restarts the clocks if they were running.
func (m *Machine) Reboot() error {
	m.run.Lock()
	defer m.run.Unlock()

	wasRunning := m.cancel != nil
	parent := m.parent
	if err := m.stop(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.rom == nil {
		m.mu.Unlock()
		return ErrNotLoaded
	}
	err := m.boot()
	m.mu.Unlock()
	if err != nil {
		return err
	}

	m.log.Info("machine rebooted")
	if wasRunning {
		m.start(parent)
	}
	return nil
}

// tick is the instruction clock callback.
func (m *Machine) tick() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused || m.rom == nil {
		return nil
	}

	err := m.cpu.step()
	if err == nil {
		return nil
	}
	m.logFault(err)

	switch m.cfg.OnFault {
	case SkipOnFault:
		return nil
	case RebootOnFault:
		// no instruction is in flight here, so the reboot can happen in place
		if err := m.boot(); err != nil {
			m.fault = err
			return errHalted
		}
		return nil
	default:
		m.fault = err
		return errHalted
	}
}

func (m *Machine) logFault(err error) {
	attrs := []any{"err", err, "policy", m.cfg.OnFault.String()}
	var f *Fault
	if errors.As(err, &f) {
		attrs = append(attrs,
			"pc", fmt.Sprintf("%03X", f.PC),
			"opcode", fmt.Sprintf("%04X", f.Opcode),
		)
	}
	m.log.Error("instruction fault", attrs...)
}

// Step executes one instruction regardless of the pause state. It returns
// the executor error directly and does not apply the fault policy.
func (m *Machine) Step() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rom == nil {
		return ErrNotLoaded
	}
	return m.cpu.step()
}

// Pause stops instruction execution without stopping the timers.
func (m *Machine) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
}

func (m *Machine) Resume() {
	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
}

func (m *Machine) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Machine) Speed() int { return m.clock.Speed() }

// SetSpeed changes the instruction clock rate in Hz.
func (m *Machine) SetSpeed(hz int) error {
	if err := m.clock.SetSpeed(hz); err != nil {
		return err
	}
	m.log.Debug("speed changed", "speed", hz)
	return nil
}

// Fault returns the error that halted the instruction clock, if any.
func (m *Machine) Fault() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fault
}

// SoundActive reports whether the sound timer is counting down.
func (m *Machine) SoundActive() bool {
	return m.sound.Active()
}

// ReadMemory returns a copy of n bytes of the address space starting at
// addr.
func (m *Machine) ReadMemory(addr uint16, n int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.mem.Read(addr, n)
}

// State returns a consistent snapshot of the CPU.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpu.state()
}
