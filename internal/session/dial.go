package session

import (
	"context"
	"fmt"
	"net"
	"time"

	ztelnet "github.com/ziutek/telnet"
)

// Transport names.
const (
	TransportNative = "native"
	TransportZiutek = "ziutek"
)

// DialConfig selects the remote endpoint and transport.
type DialConfig struct {
	Address   string
	Transport string
	Timeout   time.Duration
}

// Dial connects to the server. The native transport returns the raw TCP
// connection; the ziutek transport wraps it in a telnet.Conn, which
// consumes IAC sequences and escapes outbound 0xFF itself.
func Dial(ctx context.Context, cfg DialConfig) (net.Conn, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Address, err)
	}

	switch cfg.Transport {
	case "", TransportNative:
		return conn, nil
	case TransportZiutek:
		tconn, err := ztelnet.NewConn(conn)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("telnet wrap %s: %w", cfg.Address, err)
		}
		return tconn, nil
	default:
		_ = conn.Close()
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

// filtersTelnet reports whether conn already strips telnet commands.
func filtersTelnet(conn net.Conn) bool {
	_, ok := conn.(*ztelnet.Conn)
	return ok
}
