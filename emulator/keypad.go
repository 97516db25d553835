package emulator

import "sync"

const KeyCount = 16

// Keypad holds the state of the 16 logical keys. The host input layer
// writes it from its own goroutine; the executor reads it while decoding
// key dependent instructions.
type Keypad struct {
	mu      sync.Mutex
	keys    [KeyCount]bool
	release chan uint8
}

func NewKeypad() *Keypad {
	return &Keypad{release: make(chan uint8, 1)}
}

// Press marks key as held. Keys above 0xF are ignored.
func (k *Keypad) Press(key uint8) {
	if key >= KeyCount {
		return
	}
	k.mu.Lock()
	k.keys[key] = true
	k.mu.Unlock()
}

// Release marks key as up. A release of a held key is also published as a
// key event; only the most recent unconsumed event is kept.
func (k *Keypad) Release(key uint8) {
	if key >= KeyCount {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.keys[key] {
		return
	}
	k.keys[key] = false

	select {
	case <-k.release:
	default:
	}
	k.release <- key
}

func (k *Keypad) IsPressed(key uint8) bool {
	if key >= KeyCount {
		return false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.keys[key]
}

// FirstPressed returns the lowest held key.
func (k *Keypad) FirstPressed() (uint8, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, v := range k.keys {
		if v {
			return uint8(i), true
		}
	}
	return 0, false
}

func (k *Keypad) AnyPressed() bool {
	_, ok := k.FirstPressed()
	return ok
}

// Released returns the channel key release events are delivered on.
func (k *Keypad) Released() <-chan uint8 {
	return k.release
}

// drainReleased discards a pending release event.
func (k *Keypad) drainReleased() {
	select {
	case <-k.release:
	default:
	}
}

// Reset releases every key without publishing events.
func (k *Keypad) Reset() {
	k.mu.Lock()
	k.keys = [KeyCount]bool{}
	k.mu.Unlock()
	k.drainReleased()
}
