package emulator

// State is a read-only snapshot of the CPU for debug tooling.
type State struct {
	PC    uint16
	I     uint16
	V     [16]uint8
	Stack []uint16

	// Instruction holds the raw bytes at PC.
	Instruction [2]byte

	Delay   uint8
	Sound   uint8
	Waiting bool

	// History lists the most recently executed instructions, oldest first.
	History []Trace
}

func (c *CPU) state() State {
	s := State{
		PC:      c.pc,
		I:       c.i,
		V:       c.v,
		Stack:   append([]uint16(nil), c.stack[:c.sp]...),
		Delay:   c.delay.Get(),
		Sound:   c.sound.Get(),
		Waiting: c.waiting,
	}
	if b, err := c.mem.Read(c.pc, 2); err == nil {
		s.Instruction = [2]byte{b[0], b[1]}
	}

	start := (c.historyIndex - c.historyCount + HistoryLength) % HistoryLength
	for n := 0; n < c.historyCount; n++ {
		s.History = append(s.History, c.history[(start+n)%HistoryLength])
	}
	return s
}
