package term

import (
	"strings"
	"testing"
)

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewScreen(80, 24)
	s.PutChar('a')

	snap := s.Snapshot()
	s.MoveCursor(0, 0)
	s.PutChar('b')

	if snap.Cell(0, 0).Char != 'a' {
		t.Errorf("snapshot changed after screen write: %c", snap.Cell(0, 0).Char)
	}
	if snap.Generation == s.Generation() {
		t.Error("expected generation to advance past the snapshot")
	}
}

func TestSnapshotRuns(t *testing.T) {
	s := NewScreen(20, 10)
	p := NewParser(s, nil)
	p.Feed([]byte("ab\x1b[31mcd\x1b[44mef\x1b[0m"))

	runs := s.Snapshot().Runs(0)

	if len(runs) != 4 {
		t.Fatalf("expected 4 runs, got %d: %+v", len(runs), runs)
	}
	if runs[0].X != 0 || runs[0].Text != "ab" || runs[0].Foreground != DefaultForeground {
		t.Errorf("unexpected first run %+v", runs[0])
	}
	if runs[1].X != 2 || runs[1].Text != "cd" || runs[1].Foreground != Red || runs[1].Background != DefaultBackground {
		t.Errorf("unexpected second run %+v", runs[1])
	}
	if runs[2].X != 4 || runs[2].Text != "ef" || runs[2].Background != Blue {
		t.Errorf("unexpected third run %+v", runs[2])
	}
	if runs[3].X != 6 || runs[3].Text != strings.Repeat(" ", 14) {
		t.Errorf("unexpected trailing run %+v", runs[3])
	}

	total := 0
	for _, r := range runs {
		total += len([]rune(r.Text))
	}
	if total != 20 {
		t.Errorf("expected runs to cover 20 columns, got %d", total)
	}
}

func TestSnapshotRunsOutOfRange(t *testing.T) {
	snap := NewScreen(20, 10).Snapshot()
	if runs := snap.Runs(10); runs != nil {
		t.Errorf("expected nil runs, got %+v", runs)
	}
	if line := snap.Line(-1); line != "" {
		t.Errorf("expected empty line, got %q", line)
	}
}

func TestSnapshotText(t *testing.T) {
	s := NewScreen(20, 10)
	p := NewParser(s, nil)
	p.Feed([]byte("one  \r\n\r\nthree"))

	text := s.Snapshot().Text()

	lines := strings.Split(text, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d", len(lines))
	}
	if lines[0] != "one" || lines[1] != "" || lines[2] != "three" {
		t.Errorf("unexpected text %q", text)
	}
}

func TestColorBright(t *testing.T) {
	if Red.Bright() != BrightRed {
		t.Errorf("expected bright-red, got %v", Red.Bright())
	}
	if BrightRed.Bright() != BrightRed {
		t.Errorf("expected bright-red unchanged, got %v", BrightRed.Bright())
	}
	if Red.IsBright() || !BrightCyan.IsBright() {
		t.Error("IsBright mismatch")
	}
	if Color(99).String() != "unknown" {
		t.Errorf("expected 'unknown', got %q", Color(99).String())
	}
}

func TestTranslateLineDrawing(t *testing.T) {
	tests := map[rune]rune{
		'j': '┘', 'k': '┐', 'l': '┌', 'm': '└', 'n': '┼',
		'q': '─', 't': '├', 'u': '┤', 'v': '┴', 'w': '┬', 'x': '│',
		'a': 'a', 'Z': 'Z',
	}
	for in, want := range tests {
		if got := TranslateLineDrawing(in); got != want {
			t.Errorf("TranslateLineDrawing(%q): expected %q, got %q", in, want, got)
		}
	}
}
