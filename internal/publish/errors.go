package publish

import "errors"

// ErrPublisherClosed is returned when closing a publisher twice.
var ErrPublisherClosed = errors.New("publisher closed")
