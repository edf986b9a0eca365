package surface

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoDisplay is wrapped by every error that means no display or
// compositor connection could be made. It is never retried.
var ErrNoDisplay = errors.New("no display connection available")

// Keysym is an X keysym. GTK keyvals use the same numbering.
type Keysym uint32

// Accept keys. Anything else dismisses the overlay.
const (
	KeyReturn   Keysym = 0xff0d
	KeyKPEnter  Keysym = 0xff8d
	KeyISOEnter Keysym = 0xfe34
	KeyEscape   Keysym = 0xff1b
)

// IsAccept reports whether k confirms the overlay
func (k Keysym) IsAccept() bool {
	switch k {
	case KeyReturn, KeyKPEnter, KeyISOEnter:
		return true
	}
	return false
}

func (k Keysym) String() string {
	switch k {
	case KeyReturn:
		return "Return"
	case KeyKPEnter:
		return "KP_Enter"
	case KeyISOEnter:
		return "ISO_Enter"
	case KeyEscape:
		return "Escape"
	}
	return fmt.Sprintf("0x%04x", uint32(k))
}

// EventKind identifies what the user did on the overlay
type EventKind int

const (
	KeyPress EventKind = iota + 1
	ButtonPress
)

func (k EventKind) String() string {
	switch k {
	case KeyPress:
		return "key-press"
	case ButtonPress:
		return "button-press"
	}
	return "unknown"
}

// Event is a single input event delivered by a backend
type Event struct {
	Kind   EventKind
	Keysym Keysym // set for KeyPress
	Button uint32 // set for ButtonPress, 0 when the backend cannot tell
}

// Key returns a key press event for k
func Key(k Keysym) Event {
	return Event{Kind: KeyPress, Keysym: k}
}

// Click returns a pointer press event for button
func Click(button uint32) Event {
	return Event{Kind: ButtonPress, Button: button}
}

// Sink receives input events from a Surface. It is called on the UI thread only.
type Sink interface {
	HandleEvent(ev Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ev Event)

func (f SinkFunc) HandleEvent(ev Event) { f(ev) }

// Layer is the stacking layer requested from a layer-shell compositor
type Layer string

const (
	LayerTop     Layer = "top"
	LayerOverlay Layer = "overlay"
)

// Palette holds 0xRRGGBB colours for backends without a CSS engine
type Palette struct {
	Background uint32
	Foreground uint32
}

// Options configures the overlay a backend presents
type Options struct {
	Text       string  // label text, may contain newlines
	Stylesheet string  // CSS handed to toolkits that support it
	Palette    Palette // colours for backends that do not
	Layer      Layer
}

// Surface is the interface that every overlay backend must satisfy
type Surface interface {
	// Run shows the overlay and dispatches input to sink until Close is called.
	// All positioning, anchoring and keyboard settings are applied before the
	// overlay becomes visible.
	Run(sink Sink) error

	// Close hides and releases the overlay. It must be called exactly once.
	Close() error

	// DisplayServer returns the display server type ("x11" or "wayland")
	DisplayServer() string
}
