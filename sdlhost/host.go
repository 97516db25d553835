// Package sdlhost renders a machine's framebuffer in an SDL window and feeds
// keyboard events into its keypad.
package sdlhost

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tuboc/chip8vm/emulator"
	"github.com/veandco/go-sdl2/sdl"
)

const (
	RefreshFrequency = 60
	DisplayScale     = 10
	WindowW          = emulator.DisplayWidth * DisplayScale
	WindowH          = emulator.DisplayHeight * DisplayScale
	SpeedStep        = 50
)

var scanCode2Key = map[sdl.Scancode]uint8{
	sdl.SCANCODE_1: 0x1,
	sdl.SCANCODE_2: 0x2,
	sdl.SCANCODE_3: 0x3,
	sdl.SCANCODE_4: 0xc,
	sdl.SCANCODE_Q: 0x4,
	sdl.SCANCODE_W: 0x5,
	sdl.SCANCODE_E: 0x6,
	sdl.SCANCODE_R: 0xd,
	sdl.SCANCODE_A: 0x7,
	sdl.SCANCODE_S: 0x8,
	sdl.SCANCODE_D: 0x9,
	sdl.SCANCODE_F: 0xe,
	sdl.SCANCODE_Z: 0xa,
	sdl.SCANCODE_X: 0x0,
	sdl.SCANCODE_C: 0xb,
	sdl.SCANCODE_V: 0xf,
}

// Host owns the SDL window. It must be created and run on the main OS
// thread.
type Host struct {
	m        *emulator.Machine
	log      *slog.Logger
	window   *sdl.Window
	renderer *sdl.Renderer

	running     bool
	focusPaused bool
}

func New(m *emulator.Machine, log *slog.Logger) (*Host, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, WindowW, WindowH, sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	return &Host{m: m, log: log, window: window, renderer: renderer}, nil
}

// Close releases the window and shuts SDL down.
func (h *Host) Close() {
	h.renderer.Destroy()
	h.window.Destroy()
	sdl.Quit()
}

// Run pumps events and redraws the display until the window is closed or
// ctx is done.
func (h *Host) Run(ctx context.Context) error {
	refresh := time.NewTicker(time.Second / RefreshFrequency)
	defer refresh.Stop()

	h.running = true
	h.draw()
	for h.running {
		select {
		case <-ctx.Done():
			return nil
		case <-refresh.C:
		}

		h.pollEvents()
		if h.m.Display().TakeDirty() {
			h.draw()
		}
		h.updateTitle()
	}
	return nil
}

func (h *Host) draw() {
	px := h.m.Display().Snapshot()

	h.renderer.SetDrawColor(0, 0, 0, 255)
	h.renderer.Clear()

	h.renderer.SetDrawColor(0, 255, 0, 255)
	for y := int32(0); y < emulator.DisplayHeight; y++ {
		for x := int32(0); x < emulator.DisplayWidth; x++ {
			if px[y*emulator.DisplayWidth+x] {
				h.renderer.FillRect(&sdl.Rect{X: x * DisplayScale, Y: y * DisplayScale, W: DisplayScale, H: DisplayScale})
			}
		}
	}

	h.renderer.Present()
}

func (h *Host) updateTitle() {
	s := h.m.State()
	title := fmt.Sprintf("CHIP-8  PC=%03X I=%03X  %d Hz", s.PC, s.I, h.m.Speed())
	switch {
	case h.m.Fault() != nil:
		title += "  HALTED"
	case h.m.Paused():
		title += "  PAUSED"
	case s.Waiting:
		title += "  KEY?"
	}
	if h.m.SoundActive() {
		title += "  BEEP"
	}
	h.window.SetTitle(title)
}

func (h *Host) pollEvents() {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			h.running = false
		case *sdl.KeyboardEvent:
			if ev.Repeat != 0 {
				continue
			}
			switch ev.Type {
			case sdl.KEYDOWN:
				if k, ok := scanCode2Key[ev.Keysym.Scancode]; ok {
					h.m.Keypad().Press(k)
				} else {
					h.hotkey(ev.Keysym.Scancode)
				}
			case sdl.KEYUP:
				if k, ok := scanCode2Key[ev.Keysym.Scancode]; ok {
					h.m.Keypad().Release(k)
				}
			}
		case *sdl.WindowEvent:
			switch ev.Event {
			case sdl.WINDOWEVENT_FOCUS_LOST:
				if !h.m.Paused() {
					h.m.Pause()
					h.focusPaused = true
				}
			case sdl.WINDOWEVENT_FOCUS_GAINED:
				if h.focusPaused {
					h.m.Resume()
					h.focusPaused = false
				}
			}
		}
	}
}

func (h *Host) hotkey(sc sdl.Scancode) {
	switch sc {
	case sdl.SCANCODE_ESCAPE:
		h.running = false
	case sdl.SCANCODE_SPACE:
		if !h.m.Paused() {
			h.m.Pause()
			return
		}
		if err := h.m.Step(); err != nil {
			h.log.Error("step", "err", err)
		}
	case sdl.SCANCODE_RETURN:
		h.m.Resume()
	case sdl.SCANCODE_BACKSPACE:
		if err := h.m.Reboot(); err != nil {
			h.log.Error("reboot", "err", err)
		}
	case sdl.SCANCODE_LEFTBRACKET:
		h.changeSpeed(-SpeedStep)
	case sdl.SCANCODE_RIGHTBRACKET:
		h.changeSpeed(SpeedStep)
	}
}

func (h *Host) changeSpeed(delta int) {
	hz := h.m.Speed() + delta
	if hz < emulator.MinSpeed {
		hz = emulator.MinSpeed
	}
	if hz > emulator.MaxSpeed {
		hz = emulator.MaxSpeed
	}
	if err := h.m.SetSpeed(hz); err != nil {
		h.log.Error("set speed", "err", err)
	}
}
