package emulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

const (
	FontOffset      = 0x050
	FontSpriteBytes = 5
	ProgramOffset   = 0x200
	MaxROMSize      = MemorySize - ProgramOffset
	StackDepth      = 16
	HistoryLength   = 16
)

var fontSprites = []uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Trace is one entry of the executed instruction history.
type Trace struct {
	PC          uint16
	Instruction Instruction
}

func (t Trace) String() string {
	return fmt.Sprintf("%03X-%04X %s", t.PC, t.Instruction.Raw, t.Instruction)
}

// CPU is the interpreter state for one boot of the machine. Only the
// goroutine driving Step may touch it; the timers are the one piece of
// state it shares.
type CPU struct {
	mem   Memory
	pc    uint16
	v     [16]uint8
	i     uint16
	sp    int
	stack [StackDepth]uint16

	delay *Timer
	sound *Timer
	disp  *Framebuffer
	keys  *Keypad

	quirks Quirks
	rand   *rand.Rand
	log    *slog.Logger

	// set while FX0A waits for a key release
	waiting bool
	waitReg uint8

	history      [HistoryLength]Trace
	historyIndex int
	historyCount int
}

func newCPU(disp *Framebuffer, keys *Keypad, delay, sound *Timer, quirks Quirks, rnd *rand.Rand, log *slog.Logger) *CPU {
	return &CPU{
		delay:  delay,
		sound:  sound,
		disp:   disp,
		keys:   keys,
		quirks: quirks,
		rand:   rnd,
		log:    log,
	}
}

// boot clears all CPU state and loads the font and rom.
func (c *CPU) boot(rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrROMTooLarge, len(rom), MaxROMSize)
	}

	c.mem.reset()
	c.v = [16]uint8{}
	c.i = 0
	c.sp = 0
	c.stack = [StackDepth]uint16{}
	c.waiting = false
	c.waitReg = 0
	c.history = [HistoryLength]Trace{}
	c.historyIndex = 0
	c.historyCount = 0

	if err := c.mem.Write(FontOffset, fontSprites); err != nil {
		return err
	}
	if err := c.mem.Write(ProgramOffset, rom); err != nil {
		return err
	}
	c.pc = ProgramOffset
	return nil
}

// step runs one fetch-decode-execute cycle. While an FX0A wait is pending it
// only checks for a key release. Any failure is returned as a *Fault.
func (c *CPU) step() error {
	if c.waiting {
		c.pollKey()
		return nil
	}

	pc := c.pc
	op, err := c.fetchOpcode()
	if err != nil {
		return &Fault{PC: pc, Err: err}
	}

	in, err := Decode(op)
	if err != nil {
		return &Fault{PC: pc, Opcode: op, Err: err}
	}

	if c.log.Enabled(context.Background(), slog.LevelDebug) {
		c.log.Debug("exec",
			"pc", fmt.Sprintf("%03X", pc),
			"opcode", fmt.Sprintf("%04X", op),
			"instr", in.String(),
		)
	}

	if err := c.execute(in); err != nil {
		return &Fault{PC: pc, Opcode: op, Err: err}
	}
	c.record(pc, in)
	return nil
}

// fetchOpcode reads the big endian instruction at pc and advances past it,
// even when the read fails, so a skipped fault makes progress.
func (c *CPU) fetchOpcode() (uint16, error) {
	b, err := c.mem.Read(c.pc, 2)
	c.pc += 2
	if err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}

func (c *CPU) record(pc uint16, in Instruction) {
	c.history[c.historyIndex] = Trace{PC: pc, Instruction: in}
	c.historyIndex = (c.historyIndex + 1) % HistoryLength
	if c.historyCount < HistoryLength {
		c.historyCount++
	}
}

func (c *CPU) updateCarryFlag(b bool) {
	if b {
		c.v[0xf] = 1
	} else {
		c.v[0xf] = 0
	}
}

func (c *CPU) pushStack(v uint16) error {
	if c.sp == StackDepth {
		return fmt.Errorf("%w: depth %d", ErrStackOverflow, StackDepth)
	}
	c.stack[c.sp] = v
	c.sp++
	return nil
}

func (c *CPU) popStack() (uint16, error) {
	if c.sp == 0 {
		return 0, ErrStackUnderflow
	}
	c.sp--
	return c.stack[c.sp], nil
}

// waitKey suspends execution at the current FX0A until a key is released.
// Releases that happened before the wait started do not count.
func (c *CPU) waitKey(x uint8) {
	c.keys.drainReleased()
	c.waiting = true
	c.waitReg = x
	// pc decrement for blocking
	c.pc -= 2
}

func (c *CPU) pollKey() {
	select {
	case key := <-c.keys.Released():
		c.v[c.waitReg] = key
		c.waiting = false
		c.pc += 2
	default:
	}
}
