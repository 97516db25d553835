package emulator

const MemorySize = 4096

// Memory is the flat 4K address space. Every access is bounds checked and
// an out of range access yields an *AddressingError.
type Memory struct {
	buf [MemorySize]uint8
}

func checkRange(addr, n int) error {
	if addr < 0 || n < 0 || addr+n > MemorySize {
		return &AddressingError{Address: addr, Length: n}
	}
	return nil
}

// Get returns the byte at addr.
func (m *Memory) Get(addr uint16) (uint8, error) {
	if err := checkRange(int(addr), 1); err != nil {
		return 0, err
	}
	return m.buf[addr], nil
}

// Set stores b at addr.
func (m *Memory) Set(addr uint16, b uint8) error {
	if err := checkRange(int(addr), 1); err != nil {
		return err
	}
	m.buf[addr] = b
	return nil
}

// Read returns a copy of n bytes starting at addr.
func (m *Memory) Read(addr uint16, n int) ([]byte, error) {
	if err := checkRange(int(addr), n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, m.buf[addr:])
	return out, nil
}

// Write stores p starting at addr. A write that does not fit is rejected
// as a whole and leaves memory untouched.
func (m *Memory) Write(addr uint16, p []byte) error {
	if err := checkRange(int(addr), len(p)); err != nil {
		return err
	}
	copy(m.buf[addr:], p)
	return nil
}

// Bytes returns a copy of the whole address space.
func (m *Memory) Bytes() []byte {
	out := make([]byte, MemorySize)
	copy(out, m.buf[:])
	return out
}

func (m *Memory) reset() {
	m.buf = [MemorySize]uint8{}
}
