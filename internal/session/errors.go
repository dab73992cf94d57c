package session

import "errors"

var (
	// ErrSessionEnded wraps the cause returned by Run once the connection
	// is gone, whether it was closed by the peer, by Close or by ctx.
	ErrSessionEnded = errors.New("session ended")

	// ErrNotConnected is returned by SendLine after the session ended.
	ErrNotConnected = errors.New("not connected")

	// ErrClosed is returned when Run or Close is called on a session
	// that has already been run or closed.
	ErrClosed = errors.New("session closed")
)
