package term

// Color is one of the 16 named ANSI colors.
type Color uint8

// The eight base colors followed by their bright variants.
const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
	BrightBlack
	BrightRed
	BrightGreen
	BrightYellow
	BrightBlue
	BrightMagenta
	BrightCyan
	BrightWhite
)

// Default colors applied to blank cells and after an SGR reset.
const (
	DefaultForeground = White
	DefaultBackground = Black
)

var colorNames = [...]string{
	"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white",
	"bright-black", "bright-red", "bright-green", "bright-yellow",
	"bright-blue", "bright-magenta", "bright-cyan", "bright-white",
}

// String returns the color name.
func (c Color) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "unknown"
}

// Bright returns the bright variant of a base color.
// Bright colors are returned unchanged.
func (c Color) Bright() Color {
	if c < BrightBlack {
		return c + BrightBlack
	}
	return c
}

// IsBright reports whether c is one of the bright variants.
func (c Color) IsBright() bool {
	return c >= BrightBlack && c <= BrightWhite
}

// Cell is a single character cell. Cells are plain values and are copied
// into and out of the grid.
type Cell struct {
	Char       rune
	Foreground Color
	Background Color
}

// BlankCell returns the cell used for erased and newly exposed positions.
func BlankCell() Cell {
	return Cell{
		Char:       ' ',
		Foreground: DefaultForeground,
		Background: DefaultBackground,
	}
}

// IsBlank reports whether the cell equals BlankCell.
func (c Cell) IsBlank() bool {
	return c == BlankCell()
}

// lineDrawing maps DEC special graphics bytes to box-drawing glyphs.
var lineDrawing = map[rune]rune{
	'j': '┘',
	'k': '┐',
	'l': '┌',
	'm': '└',
	'n': '┼',
	'q': '─',
	't': '├',
	'u': '┤',
	'v': '┴',
	'w': '┬',
	'x': '│',
}

// TranslateLineDrawing returns the box-drawing glyph for r, or r itself when
// r is outside the DEC line drawing set.
func TranslateLineDrawing(r rune) rune {
	if g, ok := lineDrawing[r]; ok {
		return g
	}
	return r
}

func newLine(cols int) []Cell {
	cells := make([]Cell, cols)
	clearCells(cells)
	return cells
}

func clearCells(cells []Cell) {
	blank := BlankCell()
	for i := range cells {
		cells[i] = blank
	}
}
