package term

import (
	"sync"
	"sync/atomic"
)

// Grid bounds. Sizes outside these ranges are clamped.
const (
	MinCols = 20
	MaxCols = 400
	MinRows = 10
	MaxRows = 200

	tabWidth = 8
)

// EraseMode selects the extent of an erase operation.
type EraseMode int

const (
	// EraseToEnd erases from the cursor to the end (inclusive).
	EraseToEnd EraseMode = iota
	// EraseToCursor erases from the start to the cursor (inclusive).
	EraseToCursor
	// EraseAll erases everything.
	EraseAll
)

// Screen is a fixed-size character grid with a cursor, a scroll region and
// the attributes applied to newly written cells.
//
// Every method takes the screen lock, so a Screen may be written by the read
// loop while a renderer reads it from another goroutine.
type Screen struct {
	mu sync.RWMutex

	cols  int
	rows  int
	lines [][]Cell

	// Cursor position (0-indexed)
	cursorX int
	cursorY int

	// Scroll region, inclusive
	scrollTop    int
	scrollBottom int

	// Current attributes for new characters
	fg          Color
	bg          Color
	lineDrawing bool

	generation atomic.Uint64
}

// NewScreen creates a blank screen with the given dimensions.
func NewScreen(cols, rows int) *Screen {
	cols, rows = clampSize(cols, rows)
	s := &Screen{
		cols:         cols,
		rows:         rows,
		lines:        make([][]Cell, rows),
		scrollBottom: rows - 1,
		fg:           DefaultForeground,
		bg:           DefaultBackground,
	}
	for i := range s.lines {
		s.lines[i] = newLine(cols)
	}
	return s
}

func clampSize(cols, rows int) (int, int) {
	return clamp(cols, MinCols, MaxCols), clamp(rows, MinRows, MaxRows)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Size returns the grid dimensions.
func (s *Screen) Size() (cols, rows int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// CursorPos returns the cursor position.
func (s *Screen) CursorPos() (x, y int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursorX, s.cursorY
}

// ScrollRegion returns the inclusive scroll region rows.
func (s *Screen) ScrollRegion() (top, bottom int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scrollTop, s.scrollBottom
}

// Attributes returns the attributes applied to newly written cells.
func (s *Screen) Attributes() (fg, bg Color, lineDrawing bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fg, s.bg, s.lineDrawing
}

// Cell returns the cell at the given position.
// Returns a blank cell if out of bounds.
func (s *Screen) Cell(x, y int) Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if x < 0 || x >= s.cols || y < 0 || y >= s.rows {
		return BlankCell()
	}
	return s.lines[y][x]
}

// Generation returns a counter that changes whenever the screen is mutated.
func (s *Screen) Generation() uint64 {
	return s.generation.Load()
}

func (s *Screen) touch() {
	s.generation.Add(1)
}

// PutChar writes r at the cursor with the current attributes and advances the
// cursor. Reaching the right margin wraps to the next line immediately.
func (s *Screen) PutChar(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lineDrawing {
		r = TranslateLineDrawing(r)
	}
	s.lines[s.cursorY][s.cursorX] = Cell{Char: r, Foreground: s.fg, Background: s.bg}
	s.cursorX++
	if s.cursorX >= s.cols {
		s.cursorX = 0
		s.indexLocked()
	}
	s.touch()
}

// MoveCursor moves the cursor to the given position, clamped to the grid.
func (s *Screen) MoveCursor(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveCursorLocked(x, y)
}

func (s *Screen) moveCursorLocked(x, y int) {
	s.cursorX = clamp(x, 0, s.cols-1)
	s.cursorY = clamp(y, 0, s.rows-1)
	s.touch()
}

// MoveCursorRelative moves the cursor by the given delta, clamped to the grid.
func (s *Screen) MoveCursorRelative(dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveCursorLocked(s.cursorX+dx, s.cursorY+dy)
}

// SetColumn moves the cursor to column x on the current row.
func (s *Screen) SetColumn(x int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveCursorLocked(x, s.cursorY)
}

// SetRow moves the cursor to row y keeping the current column.
func (s *Screen) SetRow(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveCursorLocked(s.cursorX, y)
}

// CarriageReturn moves cursor to beginning of current line.
func (s *Screen) CarriageReturn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorX = 0
	s.touch()
}

// Backspace moves the cursor one column left without erasing.
func (s *Screen) Backspace() {
	s.MoveCursorRelative(-1, 0)
}

// Tab advances the cursor to the next multiple-of-8 column.
func (s *Screen) Tab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := (s.cursorX/tabWidth + 1) * tabWidth
	s.moveCursorLocked(next, s.cursorY)
}

// Index moves the cursor down one row, scrolling the region up when the
// cursor is on its bottom row.
func (s *Screen) Index() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexLocked()
}

func (s *Screen) indexLocked() {
	switch {
	case s.cursorY == s.scrollBottom:
		s.scrollUpLocked(1)
	case s.cursorY < s.rows-1:
		s.cursorY++
	}
	s.touch()
}

// ReverseIndex moves the cursor up one row, scrolling the region down when
// the cursor is on its top row.
func (s *Screen) ReverseIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.cursorY == s.scrollTop:
		s.scrollDownLocked(1)
	case s.cursorY > 0:
		s.cursorY--
	}
	s.touch()
}

// NextLine moves to column 0 and then performs Index.
func (s *Screen) NextLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursorX = 0
	s.indexLocked()
}

// ScrollUp scrolls the scroll region up by n lines.
func (s *Screen) ScrollUp(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollUpLocked(n)
}

func (s *Screen) scrollUpLocked(n int) {
	s.shiftUp(s.scrollTop, s.scrollBottom, n)
}

// ScrollDown scrolls the scroll region down by n lines.
func (s *Screen) ScrollDown(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollDownLocked(n)
}

func (s *Screen) scrollDownLocked(n int) {
	s.shiftDown(s.scrollTop, s.scrollBottom, n)
}

// shiftUp moves rows [top+n, bottom] to [top, bottom-n] and blanks the rows
// exposed at the bottom.
func (s *Screen) shiftUp(top, bottom, n int) {
	if n <= 0 || top > bottom {
		return
	}
	if region := bottom - top + 1; n > region {
		n = region
	}

	for y := top; y <= bottom-n; y++ {
		s.lines[y] = s.lines[y+n]
	}
	for y := bottom - n + 1; y <= bottom; y++ {
		s.lines[y] = newLine(s.cols)
	}
	s.touch()
}

// shiftDown moves rows [top, bottom-n] to [top+n, bottom] and blanks the rows
// exposed at the top.
func (s *Screen) shiftDown(top, bottom, n int) {
	if n <= 0 || top > bottom {
		return
	}
	if region := bottom - top + 1; n > region {
		n = region
	}

	for y := bottom; y >= top+n; y-- {
		s.lines[y] = s.lines[y-n]
	}
	for y := top; y < top+n; y++ {
		s.lines[y] = newLine(s.cols)
	}
	s.touch()
}

// SetScrollRegion sets the inclusive scroll region and homes the cursor.
// A region that does not span at least two rows resets to the full screen.
func (s *Screen) SetScrollRegion(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	top = clamp(top, 0, s.rows-1)
	bottom = clamp(bottom, 0, s.rows-1)
	if top >= bottom {
		top, bottom = 0, s.rows-1
	}
	s.scrollTop = top
	s.scrollBottom = bottom
	s.cursorX = 0
	s.cursorY = 0
	s.touch()
}

// InsertLines inserts n blank lines at the cursor row, pushing lines below it
// down within the scroll region. No-op when the cursor is outside the region.
func (s *Screen) InsertLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}
	s.shiftDown(s.cursorY, s.scrollBottom, n)
}

// DeleteLines deletes n lines at the cursor row, pulling lines below it up
// within the scroll region. No-op when the cursor is outside the region.
func (s *Screen) DeleteLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursorY < s.scrollTop || s.cursorY > s.scrollBottom {
		return
	}
	s.shiftUp(s.cursorY, s.scrollBottom, n)
}

// InsertChars inserts n blank characters at cursor.
func (s *Screen) InsertChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return
	}
	line := s.lines[s.cursorY]

	// Clamp n to available space
	if maxInsert := s.cols - s.cursorX; n > maxInsert {
		n = maxInsert
	}

	// Shift characters right
	for x := s.cols - 1; x >= s.cursorX+n; x-- {
		line[x] = line[x-n]
	}
	clearCells(line[s.cursorX : s.cursorX+n])
	s.touch()
}

// DeleteChars deletes n characters at cursor, shifting left.
func (s *Screen) DeleteChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n <= 0 {
		return
	}
	line := s.lines[s.cursorY]

	if maxDelete := s.cols - s.cursorX; n > maxDelete {
		n = maxDelete
	}

	// Shift characters left
	for x := s.cursorX; x < s.cols-n; x++ {
		line[x] = line[x+n]
	}
	clearCells(line[s.cols-n:])
	s.touch()
}

// EraseDisplay erases part or all of the screen. The cursor does not move.
func (s *Screen) EraseDisplay(mode EraseMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case EraseToEnd:
		clearCells(s.lines[s.cursorY][s.cursorX:])
		for y := s.cursorY + 1; y < s.rows; y++ {
			clearCells(s.lines[y])
		}
	case EraseToCursor:
		for y := 0; y < s.cursorY; y++ {
			clearCells(s.lines[y])
		}
		clearCells(s.lines[s.cursorY][:s.cursorX+1])
	case EraseAll:
		for y := 0; y < s.rows; y++ {
			clearCells(s.lines[y])
		}
	default:
		return
	}
	s.touch()
}

// EraseLine erases part or all of the cursor row. The cursor does not move.
func (s *Screen) EraseLine(mode EraseMode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.lines[s.cursorY]
	switch mode {
	case EraseToEnd:
		clearCells(line[s.cursorX:])
	case EraseToCursor:
		clearCells(line[:s.cursorX+1])
	case EraseAll:
		clearCells(line)
	default:
		return
	}
	s.touch()
}

// SetForeground sets the current foreground color.
func (s *Screen) SetForeground(fg Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fg = fg
}

// SetBackground sets the current background color.
func (s *Screen) SetBackground(bg Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bg = bg
}

// SwapColors exchanges the current foreground and background.
func (s *Screen) SwapColors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fg, s.bg = s.bg, s.fg
}

// ResetColors restores the default foreground and background.
func (s *Screen) ResetColors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fg = DefaultForeground
	s.bg = DefaultBackground
}

// SetLineDrawing toggles DEC line drawing translation for PutChar.
func (s *Screen) SetLineDrawing(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lineDrawing = enabled
}

// Resize changes the grid dimensions (clamped), keeping the overlapping
// top-left rectangle of content. The scroll region resets to the full screen.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows = clampSize(cols, rows)
	if cols == s.cols && rows == s.rows {
		return
	}

	newLines := make([][]Cell, rows)
	for y := range newLines {
		newLines[y] = newLine(cols)
		if y < s.rows {
			copy(newLines[y], s.lines[y])
		}
	}

	s.lines = newLines
	s.cols = cols
	s.rows = rows
	s.scrollTop = 0
	s.scrollBottom = rows - 1
	s.cursorX = clamp(s.cursorX, 0, cols-1)
	s.cursorY = clamp(s.cursorY, 0, rows-1)
	s.touch()
}

// Reset clears the screen, homes the cursor, restores default attributes,
// disables line drawing and resets the scroll region.
func (s *Screen) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for y := 0; y < s.rows; y++ {
		clearCells(s.lines[y])
	}
	s.cursorX = 0
	s.cursorY = 0
	s.scrollTop = 0
	s.scrollBottom = s.rows - 1
	s.fg = DefaultForeground
	s.bg = DefaultBackground
	s.lineDrawing = false
	s.touch()
}
