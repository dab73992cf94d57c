package term

import (
	"strings"
	"testing"
)

func newTestParser() (*Screen, *Parser) {
	s := NewScreen(80, 24)
	return s, NewParser(s, nil)
}

func TestParserPlainText(t *testing.T) {
	s, p := newTestParser()

	text := p.Feed([]byte("Hello"))

	if text != "Hello" {
		t.Errorf("expected text 'Hello', got %q", text)
	}
	if got := s.Snapshot().Line(0); got != "Hello" {
		t.Errorf("expected row 'Hello', got %q", got)
	}
	if x, _ := s.CursorPos(); x != 5 {
		t.Errorf("expected cursor x=5, got %d", x)
	}
}

func TestParserNewlines(t *testing.T) {
	s, p := newTestParser()

	text := p.Feed([]byte("one\r\ntwo\nthree"))

	if text != "one\ntwo\nthree" {
		t.Errorf("expected CR dropped from text, got %q", text)
	}
	snap := s.Snapshot()
	for y, want := range []string{"one", "two", "three"} {
		if got := snap.Line(y); got != want {
			t.Errorf("row %d: expected %q, got %q", y, want, got)
		}
	}
}

func TestParserCarriageReturnOverwrites(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("abc\rX"))

	if got := s.Snapshot().Line(0); got != "Xbc" {
		t.Errorf("expected 'Xbc', got %q", got)
	}
}

func TestParserBackspaceAndBell(t *testing.T) {
	s, p := newTestParser()

	text := p.Feed([]byte("ab\bc\x07"))

	if got := s.Snapshot().Line(0); got != "ac" {
		t.Errorf("expected 'ac', got %q", got)
	}
	if text != "abc" {
		t.Errorf("expected text 'abc', got %q", text)
	}
}

func TestParserIgnoresOtherControls(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("a\x00\x01\x0e\x7fb"))

	if got := s.Snapshot().Line(0); got != "ab" {
		t.Errorf("expected 'ab', got %q", got)
	}
}

func TestParserCursorPosition(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[5;10H"))
	if x, y := s.CursorPos(); x != 9 || y != 4 {
		t.Errorf("expected cursor at (9,4), got (%d,%d)", x, y)
	}

	p.Feed([]byte("\x1b[H"))
	if x, y := s.CursorPos(); x != 0 || y != 0 {
		t.Errorf("expected cursor at (0,0), got (%d,%d)", x, y)
	}

	p.Feed([]byte("\x1b[0;0f"))
	if x, y := s.CursorPos(); x != 0 || y != 0 {
		t.Errorf("expected zero params to default to 1, got (%d,%d)", x, y)
	}

	p.Feed([]byte("\x1b[999;999H"))
	if x, y := s.CursorPos(); x != 79 || y != 23 {
		t.Errorf("expected cursor clamped to (79,23), got (%d,%d)", x, y)
	}
}

func TestParserCursorMovement(t *testing.T) {
	tests := []struct {
		name  string
		input string
		wantX int
		wantY int
	}{
		{"up", "\x1b[10;10H\x1b[3A", 9, 6},
		{"down", "\x1b[10;10H\x1b[2B", 9, 11},
		{"forward", "\x1b[10;10H\x1b[5C", 14, 9},
		{"back", "\x1b[10;10H\x1b[4D", 5, 9},
		{"bare escape ignored", "\x1b[10;10H\x1bA", 9, 9},
		{"up default", "\x1b[10;10H\x1b[A", 9, 8},
		{"next line", "\x1b[10;10H\x1b[2E", 0, 11},
		{"previous line", "\x1b[10;10H\x1b[2F", 0, 7},
		{"column absolute", "\x1b[10;10H\x1b[30G", 29, 9},
		{"row absolute", "\x1b[10;10H\x1b[3d", 9, 2},
		{"back past margin", "\x1b[1;3H\x1b[50D", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser()
			p.Feed([]byte(tt.input))
			if x, y := s.CursorPos(); x != tt.wantX || y != tt.wantY {
				t.Errorf("expected (%d,%d), got (%d,%d)", tt.wantX, tt.wantY, x, y)
			}
		})
	}
}

func TestParserEraseDisplayKeepsCursor(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("first line\r\nsecond line\x1b[2;4H"))

	p.Feed([]byte("\x1b[2J"))

	snap := s.Snapshot()
	for y := 0; y < snap.Rows; y++ {
		for x := 0; x < snap.Cols; x++ {
			if !snap.Cell(x, y).IsBlank() {
				t.Fatalf("expected blank at (%d,%d), got %+v", x, y, snap.Cell(x, y))
			}
		}
	}
	if snap.CursorX != 3 || snap.CursorY != 1 {
		t.Errorf("expected cursor unchanged at (3,1), got (%d,%d)", snap.CursorX, snap.CursorY)
	}
}

func TestParserEraseLine(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("0123456789\x1b[1;5H\x1b[K"))

	if got := s.Snapshot().Line(0); got != "0123" {
		t.Errorf("expected '0123', got %q", got)
	}

	p.Feed([]byte("\x1b[2K"))
	if got := s.Snapshot().Line(0); got != "" {
		t.Errorf("expected empty row, got %q", got)
	}
}

func TestParserEraseUnknownModeIgnored(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("keep\x1b[5J\x1b[7K"))

	if got := s.Snapshot().Line(0); got != "keep" {
		t.Errorf("expected 'keep', got %q", got)
	}
}

func TestParserBoldRedThenReset(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[1;31mA\x1b[0mB"))

	a := s.Cell(0, 0)
	if a.Char != 'A' || a.Foreground != BrightRed || a.Background != DefaultBackground {
		t.Errorf("expected bright red 'A', got %+v", a)
	}
	b := s.Cell(1, 0)
	if b.Char != 'B' || b.Foreground != DefaultForeground || b.Background != DefaultBackground {
		t.Errorf("expected default 'B', got %+v", b)
	}
}

func TestParserBoldIsNotRetroactive(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[31;1mA"))
	if got := s.Cell(0, 0).Foreground; got != Red {
		t.Errorf("expected plain red when bold follows the color, got %v", got)
	}

	p.Feed([]byte("\x1b[32mB\x1b[22;33mC"))
	if got := s.Cell(1, 0).Foreground; got != BrightGreen {
		t.Errorf("expected bright green while bold, got %v", got)
	}
	if got := s.Cell(2, 0).Foreground; got != Yellow {
		t.Errorf("expected plain yellow after SGR 22, got %v", got)
	}
}

func TestParserSGRColors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantFg Color
		wantBg Color
	}{
		{"background", "\x1b[44m", DefaultForeground, Blue},
		{"bright foreground", "\x1b[92m", BrightGreen, DefaultBackground},
		{"bright background", "\x1b[105m", DefaultForeground, BrightMagenta},
		{"default foreground", "\x1b[31;39m", DefaultForeground, DefaultBackground},
		{"default background", "\x1b[41;49m", DefaultForeground, DefaultBackground},
		{"empty is reset", "\x1b[31;41m\x1b[m", DefaultForeground, DefaultBackground},
		{"unsupported ignored", "\x1b[36;4;5;38m", Cyan, DefaultBackground},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, p := newTestParser()
			p.Feed([]byte(tt.input + "x"))
			c := s.Cell(0, 0)
			if c.Foreground != tt.wantFg || c.Background != tt.wantBg {
				t.Errorf("expected fg=%v bg=%v, got fg=%v bg=%v", tt.wantFg, tt.wantBg, c.Foreground, c.Background)
			}
		})
	}
}

func TestParserReverseToggles(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[31m\x1b[7mA\x1b[7mB\x1b[27mC"))

	if c := s.Cell(0, 0); c.Foreground != DefaultBackground || c.Background != Red {
		t.Errorf("expected swapped colors on 'A', got %+v", c)
	}
	if c := s.Cell(1, 0); c.Foreground != Red || c.Background != DefaultBackground {
		t.Errorf("expected second SGR 7 to swap back on 'B', got %+v", c)
	}
	if c := s.Cell(2, 0); c.Foreground != DefaultBackground || c.Background != Red {
		t.Errorf("expected SGR 27 to swap again on 'C', got %+v", c)
	}
}

func TestParserLineDrawing(t *testing.T) {
	s, p := newTestParser()

	text := p.Feed([]byte("\x1b(0lqqk\x1b(Bq"))

	if got := s.Snapshot().Line(0); got != "┌──┐q" {
		t.Errorf("expected '┌──┐q', got %q", got)
	}
	if text != "lqqkq" {
		t.Errorf("expected untranslated text, got %q", text)
	}
}

func TestParserG1CharsetSelect(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b)0x\x1b)Bx"))

	if got := s.Snapshot().Line(0); got != "│x" {
		t.Errorf("expected '│x', got %q", got)
	}
}

func TestParserScrollRegion(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[5;10r"))
	if top, bottom := s.ScrollRegion(); top != 4 || bottom != 9 {
		t.Errorf("expected region [4,9], got [%d,%d]", top, bottom)
	}

	p.Feed([]byte("\x1b[r"))
	if top, bottom := s.ScrollRegion(); top != 0 || bottom != 23 {
		t.Errorf("expected full region, got [%d,%d]", top, bottom)
	}

	p.Feed([]byte("\x1b[10;5r"))
	if top, bottom := s.ScrollRegion(); top != 0 || bottom != 23 {
		t.Errorf("expected invalid region to reset, got [%d,%d]", top, bottom)
	}
}

func TestParserScrollRegionNewlines(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("\x1b[24;1Hstatus"))
	p.Feed([]byte("\x1b[1;23r\x1b[23;1H"))

	p.Feed([]byte("a\nb\nc"))

	snap := s.Snapshot()
	if got := snap.Line(23); got != "status" {
		t.Errorf("expected status row untouched, got %q", got)
	}
	if got := snap.Line(22); got != "c" {
		t.Errorf("expected 'c' on region bottom, got %q", got)
	}
	if got := snap.Line(20); got != "a" {
		t.Errorf("expected 'a' scrolled to row 20, got %q", got)
	}
}

func TestParserInsertDelete(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("ABCDEF\x1b[1;2H\x1b[2@"))

	if got := s.Snapshot().Line(0); got != "A  BCDEF" {
		t.Errorf("expected 'A  BCDEF', got %q", got)
	}

	p.Feed([]byte("\x1b[3P"))
	if got := s.Snapshot().Line(0); got != "ACDEF" {
		t.Errorf("expected 'ACDEF', got %q", got)
	}

	p.Feed([]byte("\x1b[2;1Hrow2\x1b[1;1H\x1b[L"))
	snap := s.Snapshot()
	if snap.Line(0) != "" || snap.Line(1) != "ACDEF" || snap.Line(2) != "row2" {
		t.Errorf("unexpected rows after insert line: %q %q %q", snap.Line(0), snap.Line(1), snap.Line(2))
	}

	p.Feed([]byte("\x1b[M"))
	snap = s.Snapshot()
	if snap.Line(0) != "ACDEF" || snap.Line(1) != "row2" {
		t.Errorf("unexpected rows after delete line: %q %q", snap.Line(0), snap.Line(1))
	}
}

func TestParserScrollUpDown(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("top\x1b[2;1Hnext"))

	p.Feed([]byte("\x1b[S"))
	if got := s.Snapshot().Line(0); got != "next" {
		t.Errorf("expected 'next' after scroll up, got %q", got)
	}

	p.Feed([]byte("\x1b[2T"))
	if got := s.Snapshot().Line(2); got != "next" {
		t.Errorf("expected 'next' at row 2 after scroll down, got %q", got)
	}
}

func TestParserEscapeIndexes(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[5;5H\x1bD"))
	if x, y := s.CursorPos(); x != 4 || y != 5 {
		t.Errorf("ESC D: expected (4,5), got (%d,%d)", x, y)
	}

	p.Feed([]byte("\x1bM"))
	if x, y := s.CursorPos(); x != 4 || y != 4 {
		t.Errorf("ESC M: expected (4,4), got (%d,%d)", x, y)
	}

	p.Feed([]byte("\x1bE"))
	if x, y := s.CursorPos(); x != 0 || y != 5 {
		t.Errorf("ESC E: expected (0,5), got (%d,%d)", x, y)
	}
}

func TestParserFullReset(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("\x1b[1;31mjunk\x1b(0\x1b[5;10r"))

	p.Feed([]byte("\x1bcq"))

	c := s.Cell(0, 0)
	if c.Char != 'q' || c.Foreground != DefaultForeground {
		t.Errorf("expected plain 'q' after reset, got %+v", c)
	}
	if top, bottom := s.ScrollRegion(); top != 0 || bottom != 23 {
		t.Errorf("expected full region after reset, got [%d,%d]", top, bottom)
	}

	p.Feed([]byte("\x1b[32mg"))
	if got := s.Cell(1, 0).Foreground; got != Green {
		t.Errorf("expected bold cleared by reset, got %v", got)
	}
}

func TestParserPrivateModesConsumed(t *testing.T) {
	s, p := newTestParser()
	var unknown []string
	p.SetUnknownCallback(func(seq string) { unknown = append(unknown, seq) })

	p.Feed([]byte("\x1b[?25l\x1b[?1049hok\x1b[?5J"))

	if got := s.Snapshot().Line(0); got != "ok" {
		t.Errorf("expected 'ok', got %q", got)
	}
	if len(unknown) != 1 {
		t.Errorf("expected only the private erase to be reported, got %v", unknown)
	}
}

func TestParserUnknownSequences(t *testing.T) {
	s, p := newTestParser()
	var unknown []string
	p.SetUnknownCallback(func(seq string) { unknown = append(unknown, seq) })

	text := p.Feed([]byte("a\x1b[1;2zb\x1b7c\x1b(Ud"))

	if got := s.Snapshot().Line(0); got != "abcd" {
		t.Errorf("expected unknown sequences consumed, got %q", got)
	}
	if text != "abcd" {
		t.Errorf("expected text 'abcd', got %q", text)
	}
	want := []string{"CSI 1;2z", "ESC 7", "ESC (U"}
	if strings.Join(unknown, ",") != strings.Join(want, ",") {
		t.Errorf("expected unknown %v, got %v", want, unknown)
	}
}

func TestParserEscapeInsideCSIRestarts(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[12\x1b[3;4Hx"))

	if s.Cell(3, 2).Char != 'x' {
		t.Errorf("expected 'x' at (3,2) after abandoned CSI")
	}
}

func TestParserHugeParameterClamped(t *testing.T) {
	s, p := newTestParser()

	p.Feed([]byte("\x1b[99999999999999999999;99999999999999999999H"))

	if x, y := s.CursorPos(); x != 79 || y != 23 {
		t.Errorf("expected cursor clamped to (79,23), got (%d,%d)", x, y)
	}
}

func TestParserChunkingInvariance(t *testing.T) {
	input := []byte("\x1b[2J\x1b[H\x1b[1;33mWelcome\x1b[0m\r\n" +
		"\x1b(0lqqqk\x1b(B\r\n" +
		"\x1b[3;20r\x1b[3;1H" + strings.Repeat("line of text that wraps around the edge ", 12) +
		"\x1b[44;97mstatus\x1b[m\x1b[5;5H\x1b[2@\x1b[1M\x1b[K\x1b[7mrev\x1b[27m\x1bM\x1b[?25h")

	whole, wp := newTestParser()
	wholeText := wp.Feed(input)

	split, sp := newTestParser()
	var splitText strings.Builder
	for i := range input {
		splitText.WriteString(sp.Feed(input[i : i+1]))
	}

	a, b := whole.Snapshot(), split.Snapshot()
	if a.CursorX != b.CursorX || a.CursorY != b.CursorY {
		t.Errorf("cursor differs: (%d,%d) vs (%d,%d)", a.CursorX, a.CursorY, b.CursorX, b.CursorY)
	}
	for y := 0; y < a.Rows; y++ {
		for x := 0; x < a.Cols; x++ {
			if a.Cell(x, y) != b.Cell(x, y) {
				t.Fatalf("cell (%d,%d) differs: %+v vs %+v", x, y, a.Cell(x, y), b.Cell(x, y))
			}
		}
	}
	if wholeText != splitText.String() {
		t.Errorf("text differs:\n%q\n%q", wholeText, splitText.String())
	}
}

func TestParserDecoder(t *testing.T) {
	s := NewScreen(80, 24)
	p := NewParser(s, upperDecoder{})

	p.Feed([]byte("abc"))

	if got := s.Snapshot().Line(0); got != "ABC" {
		t.Errorf("expected decoder applied, got %q", got)
	}
}

type upperDecoder struct{}

func (upperDecoder) DecodeByte(b byte) rune {
	if b >= 'a' && b <= 'z' {
		return rune(b - 32)
	}
	return rune(b)
}

func TestParserReset(t *testing.T) {
	s, p := newTestParser()
	p.Feed([]byte("\x1b[1m\x1b[3"))

	p.Reset()
	p.Feed([]byte("1mA"))

	if got := s.Snapshot().Line(0); got != "1mA" {
		t.Errorf("expected pending sequence discarded, got %q", got)
	}
}

func TestParserStateString(t *testing.T) {
	if stateCSI.String() != "csi" {
		t.Errorf("expected 'csi', got %q", stateCSI.String())
	}
	if parserState(42).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", parserState(42).String())
	}
}
