package script

import "errors"

var (
	// ErrScriptClosed is returned when operating on a closed host.
	ErrScriptClosed = errors.New("script host is closed")

	// ErrNoSender is returned by send() when no outbound line sink is set.
	ErrNoSender = errors.New("no line sender configured")
)
