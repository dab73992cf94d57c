package term

import (
	"strconv"
	"strings"
)

// Decoder maps a byte of the remote code page to a rune.
type Decoder interface {
	DecodeByte(b byte) rune
}

// latin1 is used when no decoder is configured.
type latin1 struct{}

func (latin1) DecodeByte(b byte) rune { return rune(b) }

// Largest value a single CSI parameter accumulates to.
const maxParam = 9999

// Parser interprets escape sequences and updates the screen.
// A Parser is owned by a single read loop and is not safe for concurrent use.
type Parser struct {
	screen  *Screen
	decoder Decoder

	// Parser state
	state   parserState
	params  []int
	cur     int
	curSet  bool
	private bool
	slot    byte // charset slot pending in stateCharset
	bold    bool

	text strings.Builder

	// Callbacks
	onUnknown func(seq string)
}

type parserState int

const (
	stateText parserState = iota
	stateEscape
	stateCSI
	stateCharset
)

// String returns the state name.
func (s parserState) String() string {
	switch s {
	case stateText:
		return "text"
	case stateEscape:
		return "escape"
	case stateCSI:
		return "csi"
	case stateCharset:
		return "charset"
	default:
		return "unknown"
	}
}

// csiOp is the operation selected by a CSI final byte.
type csiOp int

const (
	opCursorPosition csiOp = iota + 1
	opCursorUp
	opCursorDown
	opCursorForward
	opCursorBack
	opNextLine
	opPrevLine
	opColumnAbsolute
	opRowAbsolute
	opEraseDisplay
	opEraseLine
	opScrollRegion
	opInsertLines
	opDeleteLines
	opInsertChars
	opDeleteChars
	opScrollUp
	opScrollDown
	opGraphics
	opNoop
)

var csiOps = map[rune]csiOp{
	'H': opCursorPosition,
	'f': opCursorPosition,
	'A': opCursorUp,
	'B': opCursorDown,
	'C': opCursorForward,
	'D': opCursorBack,
	'E': opNextLine,
	'F': opPrevLine,
	'G': opColumnAbsolute,
	'd': opRowAbsolute,
	'J': opEraseDisplay,
	'K': opEraseLine,
	'r': opScrollRegion,
	'L': opInsertLines,
	'M': opDeleteLines,
	'@': opInsertChars,
	'P': opDeleteChars,
	'S': opScrollUp,
	'T': opScrollDown,
	'm': opGraphics,
	'h': opNoop, // set mode
	'l': opNoop, // reset mode
	'n': opNoop, // device status report
	's': opNoop, // save cursor
	'u': opNoop, // restore cursor
}

// NewParser creates a parser that writes to screen. A nil decoder decodes
// bytes as ISO-8859-1.
func NewParser(screen *Screen, decoder Decoder) *Parser {
	if decoder == nil {
		decoder = latin1{}
	}
	return &Parser{
		screen:  screen,
		decoder: decoder,
		state:   stateText,
		params:  make([]int, 0, 16),
	}
}

// Screen returns the screen the parser writes to.
func (p *Parser) Screen() *Screen {
	return p.screen
}

// SetUnknownCallback sets the callback for sequences that are consumed
// without effect.
func (p *Parser) SetUnknownCallback(fn func(seq string)) {
	p.onUnknown = fn
}

// Feed decodes data, applies it to the screen and returns the printable text
// of the chunk with escape sequences removed. Line feeds are kept as '\n' and
// carriage returns are dropped.
func (p *Parser) Feed(data []byte) string {
	p.text.Reset()
	for _, b := range data {
		p.process(p.decoder.DecodeByte(b))
	}
	return p.text.String()
}

// Reset returns the parser to the text state and clears bold.
func (p *Parser) Reset() {
	p.state = stateText
	p.clearParams()
	p.bold = false
	p.text.Reset()
}

func (p *Parser) process(r rune) {
	switch p.state {
	case stateText:
		p.processText(r)
	case stateEscape:
		p.processEscape(r)
	case stateCSI:
		p.processCSI(r)
	case stateCharset:
		p.processCharset(r)
	}
}

func (p *Parser) processText(r rune) {
	switch {
	case r == 0x1B: // ESC
		p.state = stateEscape
	case r == 0x07: // BEL
	case r == '\b':
		p.screen.Backspace()
	case r == '\t':
		p.screen.Tab()
		p.text.WriteByte('\t')
	case r == '\n':
		p.screen.NextLine()
		p.text.WriteByte('\n')
	case r == '\r':
		p.screen.CarriageReturn()
	case r < 0x20 || r == 0x7F:
		// Other control characters are ignored
	default:
		p.screen.PutChar(r)
		p.text.WriteRune(r)
	}
}

func (p *Parser) processEscape(r rune) {
	p.state = stateText
	switch r {
	case '[':
		p.clearParams()
		p.state = stateCSI
	case '(', ')':
		p.slot = byte(r)
		p.state = stateCharset
	case 'M': // RI - Reverse index
		p.screen.ReverseIndex()
	case 'D': // IND - Index
		p.screen.Index()
	case 'E': // NEL - Next line
		p.screen.NextLine()
	case 'c': // RIS - Reset
		p.screen.Reset()
		p.bold = false
	case 0x1B:
		p.state = stateEscape
	default:
		p.unknown("ESC " + string(r))
	}
}

func (p *Parser) processCharset(r rune) {
	p.state = stateText
	switch r {
	case '0':
		p.screen.SetLineDrawing(true)
	case 'B':
		p.screen.SetLineDrawing(false)
	default:
		p.unknown("ESC " + string(rune(p.slot)) + string(r))
	}
}

func (p *Parser) processCSI(r rune) {
	switch {
	case r >= '0' && r <= '9':
		if p.cur < maxParam {
			p.cur = p.cur*10 + int(r-'0')
		}
		p.curSet = true
	case r == ';':
		p.flushParam()
	case r >= '<' && r <= '?' && len(p.params) == 0 && !p.curSet:
		// Private marker, e.g. CSI ? 25 h
		p.private = true
	case r == 0x1B:
		// Abandon the sequence and start a new one
		p.state = stateEscape
	default:
		p.flushParam()
		p.state = stateText
		p.dispatchCSI(r)
	}
}

func (p *Parser) flushParam() {
	p.params = append(p.params, p.cur)
	p.cur = 0
	p.curSet = false
}

func (p *Parser) clearParams() {
	p.params = p.params[:0]
	p.cur = 0
	p.curSet = false
	p.private = false
}

func (p *Parser) dispatchCSI(final rune) {
	op, ok := csiOps[final]
	if !ok || (p.private && op != opNoop) {
		p.unknown("CSI " + formatParams(p.params) + string(final))
		return
	}

	switch op {
	case opCursorPosition:
		p.screen.MoveCursor(p.param(1, 1)-1, p.param(0, 1)-1)

	case opCursorUp:
		p.screen.MoveCursorRelative(0, -p.param(0, 1))

	case opCursorDown:
		p.screen.MoveCursorRelative(0, p.param(0, 1))

	case opCursorForward:
		p.screen.MoveCursorRelative(p.param(0, 1), 0)

	case opCursorBack:
		p.screen.MoveCursorRelative(-p.param(0, 1), 0)

	case opNextLine:
		p.screen.CarriageReturn()
		p.screen.MoveCursorRelative(0, p.param(0, 1))

	case opPrevLine:
		p.screen.CarriageReturn()
		p.screen.MoveCursorRelative(0, -p.param(0, 1))

	case opColumnAbsolute:
		p.screen.SetColumn(p.param(0, 1) - 1)

	case opRowAbsolute:
		p.screen.SetRow(p.param(0, 1) - 1)

	case opEraseDisplay:
		if mode, ok := eraseMode(p.rawParam(0)); ok {
			p.screen.EraseDisplay(mode)
		}

	case opEraseLine:
		if mode, ok := eraseMode(p.rawParam(0)); ok {
			p.screen.EraseLine(mode)
		}

	case opScrollRegion:
		_, rows := p.screen.Size()
		p.screen.SetScrollRegion(p.param(0, 1)-1, p.param(1, rows)-1)

	case opInsertLines:
		p.screen.InsertLines(p.param(0, 1))

	case opDeleteLines:
		p.screen.DeleteLines(p.param(0, 1))

	case opInsertChars:
		p.screen.InsertChars(p.param(0, 1))

	case opDeleteChars:
		p.screen.DeleteChars(p.param(0, 1))

	case opScrollUp:
		p.screen.ScrollUp(p.param(0, 1))

	case opScrollDown:
		p.screen.ScrollDown(p.param(0, 1))

	case opGraphics:
		p.handleSGR()

	case opNoop:
	}
}

func eraseMode(n int) (EraseMode, bool) {
	switch n {
	case 0:
		return EraseToEnd, true
	case 1:
		return EraseToCursor, true
	case 2:
		return EraseAll, true
	default:
		return 0, false
	}
}

func (p *Parser) handleSGR() {
	for _, code := range p.params {
		switch {
		case code == 0: // Reset
			p.screen.ResetColors()
			p.bold = false
		case code == 1: // Bold
			p.bold = true
		case code == 22: // Normal intensity
			p.bold = false
		case code == 7, code == 27: // Reverse toggles
			p.screen.SwapColors()
		case code >= 30 && code <= 37:
			fg := Color(code - 30)
			if p.bold {
				fg = fg.Bright()
			}
			p.screen.SetForeground(fg)
		case code == 39:
			p.screen.SetForeground(DefaultForeground)
		case code >= 40 && code <= 47:
			p.screen.SetBackground(Color(code - 40))
		case code == 49:
			p.screen.SetBackground(DefaultBackground)
		case code >= 90 && code <= 97:
			p.screen.SetForeground(Color(code - 90).Bright())
		case code >= 100 && code <= 107:
			p.screen.SetBackground(Color(code - 100).Bright())
		}
	}
}

// param returns parameter index, or defaultValue when it is missing or zero.
func (p *Parser) param(index, defaultValue int) int {
	if index < len(p.params) && p.params[index] > 0 {
		return p.params[index]
	}
	return defaultValue
}

func (p *Parser) rawParam(index int) int {
	if index < len(p.params) {
		return p.params[index]
	}
	return 0
}

func (p *Parser) unknown(seq string) {
	if p.onUnknown != nil {
		p.onUnknown(seq)
	}
}

func formatParams(params []int) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, v := range params {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ";")
}
