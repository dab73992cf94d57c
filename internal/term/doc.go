// Package term holds the virtual screen and the escape-sequence interpreter
// that drives it.
//
// A Screen is a fixed-size grid of Cells with a cursor, a scroll region and
// the attributes applied to the next written character. Every Screen method
// is safe for concurrent use; a renderer takes a Snapshot while the session
// read loop keeps writing.
//
// A Parser consumes decoded bytes from the remote host, one at a time, and
// translates text, control characters and the supported VT/ANSI subset into
// Screen operations. Its state survives across Feed calls, so sequences split
// across network reads are interpreted exactly as if they had arrived in one
// chunk.
//
// Basic usage:
//
//	screen := term.NewScreen(80, 24)
//	parser := term.NewParser(screen, nil)
//	text := parser.Feed(data)
//	snap := screen.Snapshot()
package term
