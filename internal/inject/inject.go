// Package inject delivers transcripts into the active application
// using robotgo for keystroke simulation or clipboard paste.
package inject

import (
	"fmt"
	"runtime"
	"sync"
	"unicode/utf8"

	"github.com/go-vgo/robotgo"
)

// Injector handles typing or pasting transcripts into the active
// application. With replacePrev set, each injection first selects the
// previously injected text so the new transcript replaces it.
type Injector struct {
	method      string // "type", "paste" or "none"
	replacePrev bool

	mu      sync.Mutex
	prevLen int // runes injected by the last call
}

// NewInjector creates an Injector with the given method.
// method must be "type" (keystroke simulation), "paste" (clipboard)
// or "none" (injection disabled).
func NewInjector(method string, replacePrev bool) *Injector {
	return &Injector{method: method, replacePrev: replacePrev}
}

// Reset forgets the previously injected text. Call it when the focus
// context changes, such as at the start of a new capture session.
func (inj *Injector) Reset() {
	inj.mu.Lock()
	inj.prevLen = 0
	inj.mu.Unlock()
}

// Inject sends text to the active application using the configured method.
func (inj *Injector) Inject(text string) error {
	if text == "" || inj.method == "none" {
		return nil
	}

	inj.mu.Lock()
	prevLen := inj.prevLen
	inj.prevLen = utf8.RuneCountInString(text)
	inj.mu.Unlock()

	if inj.replacePrev && prevLen > 0 {
		if err := selectBack(prevLen); err != nil {
			return err
		}
	}

	switch inj.method {
	case "paste":
		return inj.paste(text)
	default: // "type"
		return inj.typeText(text)
	}
}

// selectBack extends the selection leftward over the previous injection
// so the next keystroke or paste replaces it.
func selectBack(runes int) error {
	for i := 0; i < runes; i++ {
		if err := robotgo.KeyTap("left", "shift"); err != nil {
			return fmt.Errorf("inject: select previous text: %w", err)
		}
	}
	return nil
}

// typeText simulates individual keystrokes. Preserves clipboard contents
// but is slower for long text.
func (inj *Injector) typeText(text string) error {
	robotgo.Type(text)
	return nil
}

// paste copies text to the clipboard and pastes it with the platform
// paste chord. Faster for long text but overwrites the clipboard.
func (inj *Injector) paste(text string) error {
	// Save current clipboard
	prev, _ := robotgo.ReadAll()

	// Write text to clipboard
	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	if err := robotgo.KeyTap("v", pasteModifier()); err != nil {
		return fmt.Errorf("inject: key tap paste: %w", err)
	}

	// Restore previous clipboard (best effort)
	_ = robotgo.WriteAll(prev)

	return nil
}

// pasteModifier returns the modifier key of the platform paste chord.
func pasteModifier() string {
	if runtime.GOOS == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
