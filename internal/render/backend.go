package render

import "github.com/dshills/tickterm/internal/term"

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventResize
	EventPaste
	// EventClosed is returned by PollEvent once the backend is shut down.
	EventClosed
)

// Event represents a terminal event.
type Event struct {
	Type EventType

	// Key event fields
	Key  Key
	Rune rune
	Mod  ModMask

	// Resize event fields
	Width, Height int
}

// Key represents a keyboard key.
type Key int

// Keys the input line understands.
const (
	KeyNone Key = iota
	KeyRune     // Regular character (use Rune field)
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyCtrlA
	KeyCtrlC
	KeyCtrlD
	KeyCtrlE
	KeyCtrlL
	KeyCtrlU
	KeyCtrlW
)

// ModMask represents modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
	ModMeta
)

// Has returns true if the mask contains the given modifier.
func (m ModMask) Has(mod ModMask) bool {
	return m&mod != 0
}

// Style is the drawing style of one backend cell.
type Style struct {
	Foreground term.Color
	Background term.Color
	Reverse    bool
}

// DefaultStyle matches a blank screen cell.
func DefaultStyle() Style {
	return Style{Foreground: term.DefaultForeground, Background: term.DefaultBackground}
}

// Backend is a display surface with keyboard input.
type Backend interface {
	// Init prepares the display. Must be called before any other method.
	Init() error

	// Shutdown restores the terminal. PollEvent returns EventClosed afterwards.
	Shutdown()

	// Size returns the display dimensions.
	Size() (width, height int)

	// SetCell sets a single cell. Positions outside the display are ignored.
	SetCell(x, y int, r rune, style Style)

	// Clear blanks the whole display.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	ShowCursor(x, y int)
	HideCursor()

	// PollEvent blocks until the next event.
	PollEvent() Event

	// PostEvent queues a synthetic event.
	PostEvent(event Event)

	// Beep produces an audible or visual bell.
	Beep()
}
