// Package api defines the response envelope convention the backend
// wraps every payload in. The state store itself issues no network
// calls; callers unwrap an envelope here and feed the data through the
// store's actions.
package api

import (
	"encoding/json"
	"fmt"
	"io"
)

// ErrorInfo is the structured error half of an envelope
type ErrorInfo struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ErrorInfo) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Envelope is the normalized backend response: exactly one of Data and
// Error is set, signalled by Success.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data"`
	Error   *ErrorInfo `json:"error"`
}

// Decode reads an envelope and returns the unwrapped data, or the
// envelope's error when the backend reported failure.
func Decode[T any](r io.Reader) (*T, error) {
	var env Envelope[T]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response envelope: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return nil, env.Error
		}
		return nil, fmt.Errorf("request failed without error detail")
	}
	if env.Data == nil {
		return nil, fmt.Errorf("successful response carried no data")
	}
	return env.Data, nil
}
