// Package notify is the process-wide transient-notification hook. A UI
// collaborator registers a handler once at startup; code anywhere may
// then surface a short notice to the player. Unset handlers make every
// notification a no-op.
package notify

import (
	"sync"
)

// Notification levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Handler receives a notification level and message
type Handler func(level, message string)

var (
	mu      sync.RWMutex
	handler Handler
)

// SetHandler registers the process-wide handler. Passing nil clears it.
func SetHandler(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handler = h
}

// Notify invokes the registered handler, if any
func Notify(level, message string) {
	mu.RLock()
	h := handler
	mu.RUnlock()
	if h != nil {
		h(level, message)
	}
}
