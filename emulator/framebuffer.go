package emulator

import "sync"

const (
	DisplayWidth  = 64
	DisplayHeight = 32
)

// Framebuffer is the 64x32 monochrome display. The executor writes it and a
// renderer may read it from another goroutine, so all access is locked.
type Framebuffer struct {
	mu    sync.RWMutex
	px    [DisplayWidth * DisplayHeight]bool
	dirty bool
}

// NewFramebuffer returns a cleared framebuffer marked dirty so the first
// frame gets drawn.
func NewFramebuffer() *Framebuffer {
	return &Framebuffer{dirty: true}
}

func inBounds(x, y int) bool {
	return x >= 0 && x < DisplayWidth && y >= 0 && y < DisplayHeight
}

// Pixel reports whether the pixel at x, y is on. Coordinates outside the
// display are always off.
func (f *Framebuffer) Pixel(x, y int) bool {
	if !inBounds(x, y) {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.px[y*DisplayWidth+x]
}

// SetPixel sets the pixel at x, y. Coordinates outside the display are
// ignored.
func (f *Framebuffer) SetPixel(x, y int, on bool) {
	if !inBounds(x, y) {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.px[y*DisplayWidth+x] = on
	f.dirty = true
}

// Clear turns every pixel off.
func (f *Framebuffer) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.px = [DisplayWidth * DisplayHeight]bool{}
	f.dirty = true
}

// Dirty reports whether the framebuffer changed since the last TakeDirty.
func (f *Framebuffer) Dirty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dirty
}

// TakeDirty returns the dirty flag and resets it.
func (f *Framebuffer) TakeDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	d := f.dirty
	f.dirty = false
	return d
}

// Snapshot returns a copy of the display, row major.
func (f *Framebuffer) Snapshot() [DisplayWidth * DisplayHeight]bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.px
}

// DrawSprite XORs an 8 pixel wide sprite, one byte per row, onto the
// display with its top left corner at x, y. The origin always wraps; the
// pixels themselves are clipped at the edges unless wrap is set. It reports
// whether any lit pixel was turned off.
func (f *Framebuffer) DrawSprite(x, y int, rows []byte, wrap bool) bool {
	x %= DisplayWidth
	y %= DisplayHeight

	f.mu.Lock()
	defer f.mu.Unlock()

	collided := false
	for iy, row := range rows {
		for ix := 0; ix < 8; ix++ {
			if (row>>(7-ix))&0x01 == 0 {
				continue
			}
			tx, ty := x+ix, y+iy
			if wrap {
				tx %= DisplayWidth
				ty %= DisplayHeight
			} else if tx >= DisplayWidth || ty >= DisplayHeight {
				continue
			}

			p := &f.px[ty*DisplayWidth+tx]
			if *p {
				collided = true
			}
			*p = !*p
		}
	}
	f.dirty = true
	return collided
}
