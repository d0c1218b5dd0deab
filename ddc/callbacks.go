package ddc

import "fmt"

// State is the phase an engine operation is in.
type State int

const (
	// StateIdle is reported when an operation starts
	StateIdle State = iota

	// StateProbing is reported for each probe attempt on a bus
	StateProbing

	// StateTransacting is reported for each attempt of the real request
	StateTransacting

	// StateDone is reported when the operation succeeded
	StateDone

	// StateFailed is reported when the operation returns an error
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProbing:
		return "probing"
	case StateTransacting:
		return "transacting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state %d", int(s))
	}
}

// Event describes a state transition. Passed to EventCallback.
type Event struct {
	State State

	// Path is the bus being probed or used, empty for StateIdle
	Path string

	// Attempt counts from 1 within one probe or transaction
	Attempt int

	// Err is set for StateFailed
	Err error
}

// EventCallback is called synchronously on every state transition.
// Implementations should return quickly; the bus is held while they run.
type EventCallback func(Event)

// Logger is an optional logging interface that can be provided to the engine.
// This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	eng := ddc.New(ddc.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
