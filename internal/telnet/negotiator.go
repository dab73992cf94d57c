// Package telnet strips and answers telnet control sequences in the inbound
// byte stream of a client connection.
package telnet

import "fmt"

// Defaults applied by NewNegotiator to zero Options fields.
const (
	DefaultTerminalType = "ANSI"
	DefaultWindowCols   = 80
	DefaultWindowRows   = 24
	DefaultMaxResidual  = 4096
)

// Options configures the fixed negotiation replies.
type Options struct {
	// TerminalType is announced in reply to TTYPE SEND.
	TerminalType string

	// WindowCols and WindowRows are announced after DO NAWS.
	WindowCols int
	WindowRows int

	// MaxResidual bounds the bytes held back while an incomplete
	// sequence waits for the next read.
	MaxResidual int
}

// Negotiator separates telnet commands from application data and builds the
// replies dictated by a fixed option policy.
//
// Sequences split across reads are held in a bounded residual buffer and
// completed by the next Process call. A subnegotiation that outgrows the
// buffer is dropped, and the bytes up to its IAC SE are skipped.
//
// A Negotiator is owned by a single read loop and is not safe for concurrent use.
type Negotiator struct {
	opts Options

	residual   []byte
	discarding bool

	onDiagnostic func(msg string)
}

// NewNegotiator creates a negotiator with the given options.
func NewNegotiator(opts Options) *Negotiator {
	if opts.TerminalType == "" {
		opts.TerminalType = DefaultTerminalType
	}
	if opts.WindowCols <= 0 {
		opts.WindowCols = DefaultWindowCols
	}
	if opts.WindowRows <= 0 {
		opts.WindowRows = DefaultWindowRows
	}
	if opts.MaxResidual <= 0 {
		opts.MaxResidual = DefaultMaxResidual
	}
	return &Negotiator{opts: opts}
}

// Options returns the effective options.
func (n *Negotiator) Options() Options {
	return n.opts
}

// SetDiagnosticCallback sets a callback for malformed or unsupported input.
func (n *Negotiator) SetDiagnosticCallback(fn func(msg string)) {
	n.onDiagnostic = fn
}

// Pending returns the number of bytes held back for the next call.
func (n *Negotiator) Pending() int {
	return len(n.residual)
}

// Reset drops any held-back bytes.
func (n *Negotiator) Reset() {
	n.residual = nil
	n.discarding = false
}

// Process consumes raw transport bytes and returns the application bytes
// together with the replies to write back, in order. Incomplete sequences at
// the end of raw produce nothing until a later call completes them.
func (n *Negotiator) Process(raw []byte) (clean []byte, replies [][]byte) {
	buf := raw
	if len(n.residual) > 0 {
		buf = make([]byte, 0, len(n.residual)+len(raw))
		buf = append(buf, n.residual...)
		buf = append(buf, raw...)
		n.residual = nil
	}

	i := 0
	if n.discarding {
		end, found, trailingIAC := findSE(buf, 0)
		if !found {
			if trailingIAC {
				n.residual = []byte{IAC}
			}
			return nil, nil
		}
		n.discarding = false
		i = end
	}

	for i < len(buf) {
		b := buf[i]
		if b != IAC {
			clean = append(clean, b)
			i++
			continue
		}

		if i+1 >= len(buf) {
			n.hold(buf[i:])
			break
		}

		cmd := buf[i+1]
		switch cmd {
		case IAC:
			clean = append(clean, IAC)
			i += 2

		case WILL, WONT, DO, DONT:
			if i+2 >= len(buf) {
				n.hold(buf[i:])
				return clean, replies
			}
			replies = append(replies, n.negotiate(cmd, buf[i+2])...)
			i += 3

		case SB:
			end, found, _ := findSE(buf, i+2)
			if !found {
				n.hold(buf[i:])
				return clean, replies
			}
			if reply := n.subnegotiate(unescape(buf[i+2 : end-2])); reply != nil {
				replies = append(replies, reply)
			}
			i = end

		case GA, NOP:
			i += 2

		default:
			n.diagnostic("skipping IAC %s", CommandName(cmd))
			i += 2
		}
	}
	return clean, replies
}

// hold keeps tail for the next call, or switches to discard mode when the
// tail exceeds the residual bound.
func (n *Negotiator) hold(tail []byte) {
	if len(tail) > n.opts.MaxResidual && len(tail) > 2 && tail[1] == SB {
		n.diagnostic("subnegotiation exceeded %d bytes, discarding", n.opts.MaxResidual)
		n.discarding = true
		if _, _, trailingIAC := findSE(tail, 2); trailingIAC {
			n.residual = []byte{IAC}
		}
		return
	}
	n.residual = append([]byte(nil), tail...)
}

// negotiate applies the option policy to one WILL/WONT/DO/DONT request.
func (n *Negotiator) negotiate(cmd, opt byte) [][]byte {
	switch cmd {
	case WILL:
		switch opt {
		case OptEcho, OptSGA:
			return [][]byte{{IAC, DO, opt}}
		}
		return [][]byte{{IAC, DONT, opt}}

	case DO:
		switch opt {
		case OptNAWS:
			return [][]byte{{IAC, WILL, opt}, n.windowSize()}
		case OptTTYPE, OptSGA:
			return [][]byte{{IAC, WILL, opt}}
		}
		return [][]byte{{IAC, WONT, opt}}

	case WONT:
		return [][]byte{{IAC, DONT, opt}}

	default: // DONT
		return [][]byte{{IAC, WONT, opt}}
	}
}

// subnegotiate handles the payload of a complete SB block, starting with the
// option byte.
func (n *Negotiator) subnegotiate(payload []byte) []byte {
	if len(payload) >= 2 && payload[0] == OptTTYPE && payload[1] == TTypeSend {
		reply := []byte{IAC, SB, OptTTYPE, TTypeIS}
		reply = append(reply, EscapeIAC([]byte(n.opts.TerminalType))...)
		return append(reply, IAC, SE)
	}
	return nil
}

// windowSize builds IAC SB NAWS <width16> <height16> IAC SE.
func (n *Negotiator) windowSize() []byte {
	size := []byte{
		byte(n.opts.WindowCols >> 8), byte(n.opts.WindowCols),
		byte(n.opts.WindowRows >> 8), byte(n.opts.WindowRows),
	}
	reply := []byte{IAC, SB, OptNAWS}
	reply = append(reply, EscapeIAC(size)...)
	return append(reply, IAC, SE)
}

func (n *Negotiator) diagnostic(format string, args ...any) {
	if n.onDiagnostic != nil {
		n.onDiagnostic(fmt.Sprintf(format, args...))
	}
}

// findSE scans buf from start for an unescaped IAC SE. It returns the index
// just past SE when found. trailingIAC reports a final unpaired IAC.
func findSE(buf []byte, start int) (end int, found, trailingIAC bool) {
	for j := start; j < len(buf); j++ {
		if buf[j] != IAC {
			continue
		}
		if j+1 >= len(buf) {
			return 0, false, true
		}
		if buf[j+1] == SE {
			return j + 2, true, false
		}
		j++
	}
	return 0, false, false
}

// unescape collapses IAC IAC pairs in a subnegotiation payload.
func unescape(payload []byte) []byte {
	out := make([]byte, 0, len(payload))
	for i := 0; i < len(payload); i++ {
		out = append(out, payload[i])
		if payload[i] == IAC && i+1 < len(payload) && payload[i+1] == IAC {
			i++
		}
	}
	return out
}
