package term

import "strings"

// Snapshot is a read-only copy of the screen taken under the screen lock.
type Snapshot struct {
	Cols       int
	Rows       int
	CursorX    int
	CursorY    int
	Generation uint64
	Cells      [][]Cell
}

// Run is a maximal span of cells on one row sharing foreground and background.
type Run struct {
	X          int
	Text       string
	Foreground Color
	Background Color
}

// Snapshot returns a deep copy of the grid and cursor.
func (s *Screen) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cells := make([][]Cell, s.rows)
	for y, line := range s.lines {
		cells[y] = make([]Cell, len(line))
		copy(cells[y], line)
	}
	return Snapshot{
		Cols:       s.cols,
		Rows:       s.rows,
		CursorX:    s.cursorX,
		CursorY:    s.cursorY,
		Generation: s.generation.Load(),
		Cells:      cells,
	}
}

// Cell returns the cell at the given position, or a blank cell if out of bounds.
func (snap Snapshot) Cell(x, y int) Cell {
	if y < 0 || y >= len(snap.Cells) || x < 0 || x >= len(snap.Cells[y]) {
		return BlankCell()
	}
	return snap.Cells[y][x]
}

// Runs splits row y into color runs, left to right.
func (snap Snapshot) Runs(y int) []Run {
	if y < 0 || y >= len(snap.Cells) {
		return nil
	}

	var runs []Run
	var text strings.Builder
	row := snap.Cells[y]
	start := 0
	for x, c := range row {
		if x > start && (c.Foreground != row[start].Foreground || c.Background != row[start].Background) {
			runs = append(runs, Run{X: start, Text: text.String(), Foreground: row[start].Foreground, Background: row[start].Background})
			text.Reset()
			start = x
		}
		text.WriteRune(c.Char)
	}
	if len(row) > 0 {
		runs = append(runs, Run{X: start, Text: text.String(), Foreground: row[start].Foreground, Background: row[start].Background})
	}
	return runs
}

// Line returns the characters of row y with trailing spaces removed.
func (snap Snapshot) Line(y int) string {
	if y < 0 || y >= len(snap.Cells) {
		return ""
	}
	runes := make([]rune, len(snap.Cells[y]))
	for x, c := range snap.Cells[y] {
		runes[x] = c.Char
	}
	return strings.TrimRight(string(runes), " ")
}

// Text returns the screen content as newline separated rows with trailing
// spaces removed from each row.
func (snap Snapshot) Text() string {
	lines := make([]string, snap.Rows)
	for y := range lines {
		lines[y] = snap.Line(y)
	}
	return strings.Join(lines, "\n")
}
