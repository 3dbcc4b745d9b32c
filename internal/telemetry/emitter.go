// Package telemetry provides fire-and-forget structured event logging.
// Events are buffered and written asynchronously so emitters never block
// on the sink; a full buffer drops events rather than stalling the UI.
package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Banner event names.
const (
	EventWelcomeShown   = "banner_welcome_shown"
	EventWelcomeClick   = "banner_welcome_click"
	EventWelcomeDismiss = "banner_welcome_dismiss"
	EventActionClick    = "banner_action_click"
)

// Event is a single structured telemetry record.
type Event struct {
	Name   string
	Time   time.Time
	Fields map[string]string
}

// Emitter accepts events for asynchronous delivery.
type Emitter interface {
	Emit(Event)
}

// Nop discards every event. Used when telemetry is disabled and in tests.
type Nop struct{}

func (Nop) Emit(Event) {}

// Bus is the default Emitter: a buffered channel drained by a single
// worker that writes each event to a zap sink.
type Bus struct {
	logger  *zap.Logger
	events  chan Event
	enabled atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
	stopped   chan struct{}
}

// NewBus creates and starts an event bus writing to the given logger.
func NewBus(logger *zap.Logger) *Bus {
	b := &Bus{
		logger: logger,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	b.enabled.Store(true)
	go b.drain()
	return b
}

// SetEnabled toggles event acceptance.
func (b *Bus) SetEnabled(v bool) {
	b.enabled.Store(v)
}

// Emit queues an event without blocking. Events are dropped when the bus
// is disabled, closed, or the buffer is full.
func (b *Bus) Emit(e Event) {
	if !b.enabled.Load() {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	select {
	case b.events <- e:
	default:
		// Buffer full; telemetry is best-effort.
	}
}

func (b *Bus) drain() {
	defer close(b.stopped)
	for {
		select {
		case e := <-b.events:
			b.write(e)
		case <-b.done:
			// Flush whatever is still queued, then exit.
			for {
				select {
				case e := <-b.events:
					b.write(e)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) write(e Event) {
	fields := make([]zap.Field, 0, len(e.Fields)+1)
	fields = append(fields, zap.Time("at", e.Time))
	for k, v := range e.Fields {
		fields = append(fields, zap.String(k, v))
	}
	b.logger.Info(e.Name, fields...)
}

// Close stops accepting events and flushes the queue.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.enabled.Store(false)
		close(b.done)
		<-b.stopped
		_ = b.logger.Sync()
	})
}
