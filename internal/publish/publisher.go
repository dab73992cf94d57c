// Package publish fans client events out to the log, scripts and an
// optional MQTT broker.
package publish

import (
	"sync"
	"time"

	"github.com/dshills/tickterm/internal/logging"
)

// Event types.
const (
	TypeSessionConnected = "session.connected"
	TypeSessionEnded     = "session.ended"
	TypeTickObserved     = "tick.observed"
)

// Publisher receives events. Implementations must not block for long; the
// fan-out delivers from a single goroutine.
type Publisher interface {
	Publish(eventType string, data map[string]any)
}

// Func adapts a function to Publisher.
type Func func(eventType string, data map[string]any)

// Publish calls f.
func (f Func) Publish(eventType string, data map[string]any) {
	f(eventType, data)
}

type event struct {
	eventType string
	data      map[string]any
}

// DefaultQueueSize is the fan-out queue length used when none is given.
const DefaultQueueSize = 256

// Fanout queues events and delivers them in order to every subscriber on a
// background goroutine, so publishing never waits on a slow sink.
type Fanout struct {
	mu     sync.RWMutex
	subs   []Publisher
	closed bool

	queue  chan event
	done   chan struct{}
	logger *logging.Logger
	now    func() time.Time
}

// NewFanout creates a fan-out with the given queue size. Events published
// while the queue is full are dropped and logged.
func NewFanout(queueSize int, logger *logging.Logger) *Fanout {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	f := &Fanout{
		queue:  make(chan event, queueSize),
		done:   make(chan struct{}),
		logger: logging.OrNop(logger).WithComponent("publish"),
		now:    time.Now,
	}
	go f.run()
	return f
}

// Add registers a subscriber.
func (f *Fanout) Add(p Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, p)
}

// Publish queues an event. A timestamp is added to data when absent.
func (f *Fanout) Publish(eventType string, data map[string]any) {
	payload := make(map[string]any, len(data)+1)
	for k, v := range data {
		payload[k] = v
	}
	if _, ok := payload["timestamp"]; !ok {
		payload["timestamp"] = f.now()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return
	}
	select {
	case f.queue <- event{eventType: eventType, data: payload}:
	default:
		f.logger.Warn("queue full, dropping %s", eventType)
	}
}

func (f *Fanout) run() {
	defer close(f.done)
	for ev := range f.queue {
		f.mu.RLock()
		subs := f.subs
		f.mu.RUnlock()
		for _, s := range subs {
			s.Publish(ev.eventType, ev.data)
		}
	}
}

// Close stops accepting events and waits until queued events are delivered.
func (f *Fanout) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrPublisherClosed
	}
	f.closed = true
	close(f.queue)
	f.mu.Unlock()

	<-f.done
	return nil
}

// LogSink writes events to a logger at debug level, or info for session
// lifecycle events.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink creates a sink logging through logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	return &LogSink{logger: logging.OrNop(logger).WithComponent("events")}
}

// Publish implements Publisher.
func (s *LogSink) Publish(eventType string, data map[string]any) {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k == "timestamp" {
			continue
		}
		fields[k] = v
	}
	l := s.logger.WithFields(fields)
	if eventType == TypeTickObserved {
		l.Debug("%s", eventType)
		return
	}
	l.Info("%s", eventType)
}
