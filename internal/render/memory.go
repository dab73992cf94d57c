package render

import (
	"strings"
	"sync"
)

// MemoryBackend keeps the display in memory. It is used by headless tests.
type MemoryBackend struct {
	mu            sync.Mutex
	width, height int
	chars         [][]rune
	styles        [][]Style
	cursorX       int
	cursorY       int
	cursorVisible bool
	shows         int
	beeps         int
	closed        bool
	events        chan Event
}

// NewMemoryBackend creates a memory backend with the given dimensions.
func NewMemoryBackend(width, height int) *MemoryBackend {
	return &MemoryBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
	}
}

func (b *MemoryBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocate()
	return nil
}

func (b *MemoryBackend) allocate() {
	b.chars = make([][]rune, b.height)
	b.styles = make([][]Style, b.height)
	for y := range b.chars {
		b.chars[y] = []rune(strings.Repeat(" ", b.width))
		b.styles[y] = make([]Style, b.width)
		for x := range b.styles[y] {
			b.styles[y][x] = DefaultStyle()
		}
	}
}

func (b *MemoryBackend) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.events)
}

func (b *MemoryBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *MemoryBackend) SetCell(x, y int, r rune, style Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.chars[y][x] = r
		b.styles[y][x] = style
	}
}

func (b *MemoryBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allocate()
}

func (b *MemoryBackend) Show() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shows++
}

func (b *MemoryBackend) ShowCursor(x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorX, b.cursorY, b.cursorVisible = x, y, true
}

func (b *MemoryBackend) HideCursor() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursorVisible = false
}

func (b *MemoryBackend) PollEvent() Event {
	ev, ok := <-b.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

func (b *MemoryBackend) PostEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	select {
	case b.events <- event:
	default:
		// Event dropped if queue is full (non-blocking for testing)
	}
}

func (b *MemoryBackend) Beep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beeps++
}

// Line returns row y with trailing spaces removed.
func (b *MemoryBackend) Line(y int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if y < 0 || y >= len(b.chars) {
		return ""
	}
	return strings.TrimRight(string(b.chars[y]), " ")
}

// StyleAt returns the style of one cell.
func (b *MemoryBackend) StyleAt(x, y int) Style {
	b.mu.Lock()
	defer b.mu.Unlock()
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.styles[y][x]
	}
	return DefaultStyle()
}

// CursorPosition returns the current cursor position for testing.
func (b *MemoryBackend) CursorPosition() (x, y int, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursorX, b.cursorY, b.cursorVisible
}

// Shows returns how many times Show was called.
func (b *MemoryBackend) Shows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shows
}

// Resize simulates a terminal resize and queues the resize event.
func (b *MemoryBackend) Resize(width, height int) {
	b.mu.Lock()
	b.width = width
	b.height = height
	b.allocate()
	b.mu.Unlock()
	b.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}
