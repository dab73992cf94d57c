package render

// DefaultHistorySize bounds the command history.
const DefaultHistorySize = 100

// LineEditor is the single-line command input with history.
type LineEditor struct {
	buf    []rune
	cursor int

	history []string
	maxHist int
	// histPos indexes history while browsing; len(history) means the live line.
	histPos int
	pending []rune
}

// NewLineEditor creates an editor keeping up to maxHistory entries.
func NewLineEditor(maxHistory int) *LineEditor {
	if maxHistory <= 0 {
		maxHistory = DefaultHistorySize
	}
	return &LineEditor{maxHist: maxHistory}
}

// Text returns the current line.
func (e *LineEditor) Text() string {
	return string(e.buf)
}

// Cursor returns the cursor offset in runes.
func (e *LineEditor) Cursor() int {
	return e.cursor
}

// Insert types r at the cursor.
func (e *LineEditor) Insert(r rune) {
	e.buf = append(e.buf, 0)
	copy(e.buf[e.cursor+1:], e.buf[e.cursor:])
	e.buf[e.cursor] = r
	e.cursor++
}

// Backspace deletes the rune before the cursor.
func (e *LineEditor) Backspace() {
	if e.cursor == 0 {
		return
	}
	e.buf = append(e.buf[:e.cursor-1], e.buf[e.cursor:]...)
	e.cursor--
}

// Delete deletes the rune under the cursor.
func (e *LineEditor) Delete() {
	if e.cursor >= len(e.buf) {
		return
	}
	e.buf = append(e.buf[:e.cursor], e.buf[e.cursor+1:]...)
}

// DeleteWord deletes the word before the cursor.
func (e *LineEditor) DeleteWord() {
	start := e.cursor
	for start > 0 && e.buf[start-1] == ' ' {
		start--
	}
	for start > 0 && e.buf[start-1] != ' ' {
		start--
	}
	e.buf = append(e.buf[:start], e.buf[e.cursor:]...)
	e.cursor = start
}

// Left moves the cursor one rune left.
func (e *LineEditor) Left() {
	if e.cursor > 0 {
		e.cursor--
	}
}

// Right moves the cursor one rune right.
func (e *LineEditor) Right() {
	if e.cursor < len(e.buf) {
		e.cursor++
	}
}

func (e *LineEditor) Home() { e.cursor = 0 }
func (e *LineEditor) End()  { e.cursor = len(e.buf) }

// Clear empties the line.
func (e *LineEditor) Clear() {
	e.buf = e.buf[:0]
	e.cursor = 0
	e.histPos = len(e.history)
}

// Submit returns the line, records it in history and clears the editor.
// Empty lines are returned but not recorded.
func (e *LineEditor) Submit() string {
	line := string(e.buf)
	if line != "" && (len(e.history) == 0 || e.history[len(e.history)-1] != line) {
		e.history = append(e.history, line)
		if len(e.history) > e.maxHist {
			e.history = e.history[len(e.history)-e.maxHist:]
		}
	}
	e.buf = nil
	e.cursor = 0
	e.pending = nil
	e.histPos = len(e.history)
	return line
}

// Prev recalls the previous history entry.
func (e *LineEditor) Prev() {
	if e.histPos == 0 {
		return
	}
	if e.histPos == len(e.history) {
		e.pending = append([]rune(nil), e.buf...)
	}
	e.histPos--
	e.set([]rune(e.history[e.histPos]))
}

// Next moves forward in history, back to the line being typed.
func (e *LineEditor) Next() {
	if e.histPos >= len(e.history) {
		return
	}
	e.histPos++
	if e.histPos == len(e.history) {
		e.set(e.pending)
		e.pending = nil
		return
	}
	e.set([]rune(e.history[e.histPos]))
}

func (e *LineEditor) set(r []rune) {
	e.buf = append(e.buf[:0], r...)
	e.cursor = len(e.buf)
}
