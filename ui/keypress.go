package ui

import (
	"sync"

	"github.com/eiannone/keyboard"
)

// KeyEsc is what StartKeyEvents emits for Escape and Ctrl+C.
const KeyEsc rune = 27

var (
	keyCh     chan rune
	startOnce sync.Once
	opened    bool
)

// StartKeyEvents returns a channel that emits single-key runes read without Enter.
// The channel is closed when the keyboard goes away.
func StartKeyEvents() chan rune {
	startOnce.Do(func() {
		keyCh = make(chan rune, 64)
		if err := keyboard.Open(); err != nil {
			// Keyboard not available; keep a buffered channel that will never emit.
			return
		}
		opened = true
		go func() {
			for {
				char, key, err := keyboard.GetKey()
				if err != nil {
					close(keyCh)
					return
				}
				r, ok := keyRune(char, key)
				if !ok {
					continue
				}
				select {
				case keyCh <- r:
				default:
				}
			}
		}()
	})
	return keyCh
}

// StopKeyEvents restores the terminal. Safe to call when StartKeyEvents never ran.
func StopKeyEvents() {
	if opened {
		_ = keyboard.Close()
	}
}

func keyRune(char rune, key keyboard.Key) (rune, bool) {
	switch {
	case key == 0:
		return char, true
	case key == keyboard.KeyEsc, key == keyboard.KeyCtrlC:
		return KeyEsc, true
	case key == keyboard.KeyEnter:
		return '\n', true
	case key == keyboard.KeySpace:
		return ' ', true
	}
	return 0, false
}

// DrainKeys consumes any immediately available keys to avoid accidental triggers.
func DrainKeys() {
	ch := StartKeyEvents()
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
