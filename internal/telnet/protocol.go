package telnet

import "strconv"

// Telnet protocol IAC (Interpret As Command) constants.
//
//   - IAC: Introduces a telnet command sequence
//   - DO/DONT: Ask the peer to enable/disable an option
//   - WILL/WONT: Offer/refuse to enable an option locally
//   - SB ... SE: Option subnegotiation block
const (
	IAC  = 255 // Interpret As Command - starts telnet command sequence
	DONT = 254 // Request peer to disable an option
	DO   = 253 // Request peer to enable an option
	WONT = 252 // Refuse to enable an option
	WILL = 251 // Agree to enable an option
	SB   = 250 // Subnegotiation begins
	GA   = 249 // Go ahead
	NOP  = 241 // No operation
	SE   = 240 // Subnegotiation ends
)

// Option codes acted on by the negotiator.
const (
	OptEcho  = 1  // Echo
	OptSGA   = 3  // Suppress go ahead
	OptTTYPE = 24 // Terminal type
	OptNAWS  = 31 // Negotiate about window size
)

// Terminal type subnegotiation opcodes.
const (
	TTypeIS   = 0
	TTypeSend = 1
)

// CommandName returns a readable name for a telnet command byte.
func CommandName(cmd byte) string {
	switch cmd {
	case IAC:
		return "IAC"
	case DONT:
		return "DONT"
	case DO:
		return "DO"
	case WONT:
		return "WONT"
	case WILL:
		return "WILL"
	case SB:
		return "SB"
	case GA:
		return "GA"
	case NOP:
		return "NOP"
	case SE:
		return "SE"
	default:
		return strconv.Itoa(int(cmd))
	}
}

// OptionName returns a readable name for a telnet option byte.
func OptionName(opt byte) string {
	switch opt {
	case OptEcho:
		return "ECHO"
	case OptSGA:
		return "SGA"
	case OptTTYPE:
		return "TTYPE"
	case OptNAWS:
		return "NAWS"
	default:
		return strconv.Itoa(int(opt))
	}
}

// EscapeIAC doubles every 0xFF byte so data can be written to a telnet peer.
// The input is returned unchanged when it contains no IAC bytes.
func EscapeIAC(data []byte) []byte {
	n := 0
	for _, b := range data {
		if b == IAC {
			n++
		}
	}
	if n == 0 {
		return data
	}
	out := make([]byte, 0, len(data)+n)
	for _, b := range data {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	return out
}
