package session

import (
	"context"
	"net"
	"testing"
	"time"
)

func listen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()
	return ln
}

func TestDialTransports(t *testing.T) {
	ln := listen(t)

	tests := []struct {
		transport string
		filtered  bool
	}{
		{TransportNative, false},
		{"", false},
		{TransportZiutek, true},
	}

	for _, tt := range tests {
		conn, err := Dial(context.Background(), DialConfig{Address: ln.Addr().String(), Transport: tt.transport, Timeout: time.Second})
		if err != nil {
			t.Fatalf("Dial(%q): %v", tt.transport, err)
		}
		if filtersTelnet(conn) != tt.filtered {
			t.Errorf("transport %q: expected filtered=%v", tt.transport, tt.filtered)
		}
		_ = conn.Close()
	}
}

func TestDialUnknownTransport(t *testing.T) {
	ln := listen(t)

	if _, err := Dial(context.Background(), DialConfig{Address: ln.Addr().String(), Transport: "ssh"}); err == nil {
		t.Error("expected error for unknown transport")
	}
}

func TestDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if _, err := Dial(context.Background(), DialConfig{Address: addr, Timeout: time.Second}); err == nil {
		t.Error("expected dial error")
	}
}
