// Package command routes named UI actions to their handlers.
package command

import (
	"context"
	"fmt"
	"sync"

	"inkwell/internal/logging"
)

// Command identifiers dispatched from the UI.
const (
	SignIn  = "auth.signin"
	Upgrade = "account.upgrade"
)

// HandlerFunc executes a command.
type HandlerFunc func(ctx context.Context) error

// Dispatcher holds the command registry.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a command id, replacing any previous binding.
func (d *Dispatcher) Register(id string, fn HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[id] = fn
}

// Dispatch runs the handler registered for id.
func (d *Dispatcher) Dispatch(ctx context.Context, id string) error {
	d.mu.RLock()
	fn, ok := d.handlers[id]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("unknown command: %s", id)
	}

	logging.Get(logging.CategoryUI).Debugf("dispatching command %s", id)
	if err := fn(ctx); err != nil {
		return fmt.Errorf("command %s failed: %w", id, err)
	}
	return nil
}
