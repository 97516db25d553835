// Package termhost runs a machine inside an ANSI terminal. Terminals report
// key presses only, so every press is followed by a synthesized release
// after HoldTime.
package termhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tuboc/chip8vm/emulator"
	"golang.org/x/term"
)

const (
	RefreshFrequency = 30
	HoldTime         = 100 * time.Millisecond
)

var errNotTerminal = errors.New("stdin is not a terminal")

var keyMap = map[byte]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
	'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
}

// Host reads raw stdin and draws the display with half block characters,
// two pixel rows per text line.
type Host struct {
	m   *emulator.Machine
	log *slog.Logger
	in  *os.File
	out io.Writer

	held map[uint8]time.Time
}

func New(m *emulator.Machine, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{
		m:    m,
		log:  log,
		in:   os.Stdin,
		out:  os.Stdout,
		held: make(map[uint8]time.Time),
	}
}

// Run puts the terminal in raw mode and serves input and output until ESC,
// ctrl-c or ctx is done.
func (h *Host) Run(ctx context.Context) error {
	fd := int(h.in.Fd())
	if !term.IsTerminal(fd) {
		return errNotTerminal
	}
	if w, rows, err := term.GetSize(fd); err == nil && (w < emulator.DisplayWidth || rows < emulator.DisplayHeight/2+1) {
		h.log.Warn("terminal too small", "cols", w, "rows", rows)
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(h.out, "\x1b[?25h\r\n")
	}()

	// the reader goroutine blocks in Read and ends with the process
	input := make(chan byte, 16)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := h.in.Read(buf)
			if err != nil {
				close(input)
				return
			}
			if n > 0 {
				input <- buf[0]
			}
		}
	}()

	fmt.Fprint(h.out, "\x1b[2J\x1b[?25l")
	refresh := time.NewTicker(time.Second / RefreshFrequency)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case b, ok := <-input:
			if !ok || !h.handle(b) {
				return nil
			}
		case now := <-refresh.C:
			h.releaseExpired(now)
			fmt.Fprint(h.out, Render(h.m.Display().Snapshot(), h.status()))
		}
	}
}

// handle processes one input byte and reports whether to keep running.
func (h *Host) handle(b byte) bool {
	switch b {
	case 0x1b, 0x03:
		return false
	case 0x7f, 0x08:
		if err := h.m.Reboot(); err != nil {
			h.log.Error("reboot", "err", err)
		}
		return true
	case ' ':
		if h.m.Paused() {
			h.m.Resume()
		} else {
			h.m.Pause()
		}
		return true
	}

	if k, ok := keyMap[toLower(b)]; ok {
		h.m.Keypad().Press(k)
		h.held[k] = time.Now()
	}
	return true
}

func (h *Host) releaseExpired(now time.Time) {
	for k, t := range h.held {
		if now.Sub(t) >= HoldTime {
			h.m.Keypad().Release(k)
			delete(h.held, k)
		}
	}
}

func (h *Host) status() string {
	s := h.m.State()
	line := fmt.Sprintf("PC=%03X I=%03X DT=%02X ST=%02X %dHz", s.PC, s.I, s.Delay, s.Sound, h.m.Speed())
	if err := h.m.Fault(); err != nil {
		line += " HALTED: " + err.Error()
	} else if h.m.Paused() {
		line += " PAUSED"
	}
	return line
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// Render draws a frame as text starting at the home position, followed by
// a status line.
func Render(px [emulator.DisplayWidth * emulator.DisplayHeight]bool, status string) string {
	var sb strings.Builder
	sb.WriteString("\x1b[H")
	for y := 0; y < emulator.DisplayHeight; y += 2 {
		for x := 0; x < emulator.DisplayWidth; x++ {
			top := px[y*emulator.DisplayWidth+x]
			bottom := px[(y+1)*emulator.DisplayWidth+x]
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}
	sb.WriteString("\x1b[K")
	sb.WriteString(status)
	return sb.String()
}
