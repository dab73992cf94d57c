// Package session runs one client connection: the read loop that feeds the
// negotiator, the escape-sequence parser and the tick engine, and the
// outbound command path.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dshills/tickterm/internal/codepage"
	"github.com/dshills/tickterm/internal/logging"
	"github.com/dshills/tickterm/internal/publish"
	"github.com/dshills/tickterm/internal/telnet"
	"github.com/dshills/tickterm/internal/term"
	"github.com/dshills/tickterm/internal/tick"
)

// DefaultReadSize is the read buffer size of the read loop.
const DefaultReadSize = 4096

// TextFunc receives the decoded, escape-stripped text of each chunk.
type TextFunc func(text string)

// Options wires a session to its collaborators. Parser is required; the
// rest are optional.
type Options struct {
	Parser     *term.Parser
	Negotiator *telnet.Negotiator
	Tick       *tick.Engine
	CodePage   *codepage.CodePage
	Publisher  publish.Publisher
	Logger     *logging.Logger
	OnText     TextFunc
	ReadSize   int

	// Now is used for tick observations. Defaults to time.Now.
	Now func() time.Time
}

// Stats summarizes a session's traffic.
type Stats struct {
	BytesIn   uint64
	BytesOut  uint64
	Replies   uint64
	StartedAt time.Time
	EndedAt   time.Time
}

// Session owns one connection. Run is the only writer of the screen.
type Session struct {
	id     string
	conn   net.Conn
	opts   Options
	logger *logging.Logger

	// negotiator is nil when the transport filters telnet itself.
	negotiator *telnet.Negotiator

	wmu sync.Mutex

	mu        sync.Mutex
	started   bool
	ended     bool
	closed    bool
	startedAt time.Time
	endedAt   time.Time

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
	replies  atomic.Uint64
}

// New creates a session over an established connection.
func New(conn net.Conn, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CodePage == nil {
		opts.CodePage = codepage.Default()
	}
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultReadSize
	}
	if opts.Publisher == nil {
		opts.Publisher = publish.Func(func(string, map[string]any) {})
	}

	id := uuid.NewString()
	s := &Session{
		id:     id,
		conn:   conn,
		opts:   opts,
		logger: logging.OrNop(opts.Logger).WithComponent("session").WithField("session", id[:8]),
	}

	if !filtersTelnet(conn) {
		s.negotiator = opts.Negotiator
		if s.negotiator == nil {
			s.negotiator = telnet.NewNegotiator(telnet.Options{})
		}
		s.negotiator.SetDiagnosticCallback(func(msg string) {
			s.logger.Debug("telnet: %s", msg)
		})
	}
	opts.Parser.SetUnknownCallback(func(seq string) {
		s.logger.Debug("ignored sequence %s", seq)
	})
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Connected reports whether the session can still send.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended && !s.closed
}

// Stats returns traffic counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		BytesIn:   s.bytesIn.Load(),
		BytesOut:  s.bytesOut.Load(),
		Replies:   s.replies.Load(),
		StartedAt: s.startedAt,
		EndedAt:   s.endedAt,
	}
}

// Run reads until the connection closes or ctx is done, then resets the
// screen, parser, negotiator and tick engine. It returns an error wrapping
// ErrSessionEnded and the cause. Run may be called once.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.started = true
	s.startedAt = s.opts.Now()
	s.mu.Unlock()

	s.logger.Info("connected to %s", s.RemoteAddr())
	s.opts.Publisher.Publish(publish.TypeSessionConnected, map[string]any{
		"session": s.id,
		"address": s.RemoteAddr(),
		"telnet":  s.negotiator != nil,
	})

	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	buf := make([]byte, s.opts.ReadSize)
	var cause error
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.bytesIn.Add(uint64(n))
			if werr := s.handle(buf[:n]); werr != nil && err == nil {
				err = werr
			}
		}
		if err != nil {
			cause = err
			break
		}
	}
	if ctx.Err() != nil {
		cause = ctx.Err()
	}

	s.teardown(cause)
	return fmt.Errorf("%w: %w", ErrSessionEnded, cause)
}

// handle runs one chunk through negotiation, parsing and tick inference.
func (s *Session) handle(chunk []byte) error {
	data := chunk
	if s.negotiator != nil {
		clean, replies := s.negotiator.Process(chunk)
		for _, r := range replies {
			if err := s.write(r); err != nil {
				return fmt.Errorf("negotiation reply: %w", err)
			}
			s.replies.Add(1)
		}
		data = clean
	}

	text := s.opts.Parser.Feed(data)
	if text == "" {
		return nil
	}
	if s.opts.Tick != nil {
		s.opts.Tick.ObserveText(text, s.opts.Now())
	}
	if s.opts.OnText != nil {
		s.opts.OnText(text)
	}
	return nil
}

func (s *Session) teardown(cause error) {
	_ = s.conn.Close()

	s.mu.Lock()
	s.ended = true
	s.endedAt = s.opts.Now()
	elapsed := s.endedAt.Sub(s.startedAt)
	s.mu.Unlock()

	s.opts.Parser.Reset()
	s.opts.Parser.Screen().Reset()
	if s.negotiator != nil {
		s.negotiator.Reset()
	}
	if s.opts.Tick != nil {
		s.opts.Tick.Reset()
	}

	reason := describe(cause)
	s.logger.Info("disconnected after %s (%s): received %s, sent %s",
		elapsed.Round(time.Second),
		reason,
		humanize.Bytes(s.bytesIn.Load()),
		humanize.Bytes(s.bytesOut.Load()))
	s.opts.Publisher.Publish(publish.TypeSessionEnded, map[string]any{
		"session":   s.id,
		"reason":    reason,
		"duration":  elapsed,
		"bytes_in":  s.bytesIn.Load(),
		"bytes_out": s.bytesOut.Load(),
	})
}

// SendLine encodes line with the session code page and sends it followed
// by CR LF.
func (s *Session) SendLine(line string) error {
	if !s.Connected() {
		return ErrNotConnected
	}
	line = strings.TrimRight(line, "\r\n")
	payload := s.opts.CodePage.Encode(line)
	if s.negotiator != nil {
		payload = telnet.EscapeIAC(payload)
	}
	payload = append(payload, '\r', '\n')
	if err := s.write(payload); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (s *Session) write(p []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	n, err := s.conn.Write(p)
	s.bytesOut.Add(uint64(n))
	return err
}

// Close closes the connection, ending Run. A second call returns ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func describe(cause error) string {
	switch {
	case cause == nil:
		return "closed"
	case errors.Is(cause, context.Canceled), errors.Is(cause, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(cause, net.ErrClosed), errors.Is(cause, io.ErrClosedPipe):
		return "closed"
	case errors.Is(cause, io.EOF):
		return "closed by server"
	default:
		return cause.Error()
	}
}
