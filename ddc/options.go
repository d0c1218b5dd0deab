package ddc

import (
	"time"

	"github.com/spf13/afero"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
)

// Config holds the engine configuration.
type Config struct {
	// Opener opens I2C buses by device path
	Opener channel.Opener

	// Enumerator lists candidate buses when no explicit path is given
	Enumerator Enumerator

	// Logger is used for logging operations (optional)
	Logger Logger

	// EventCallback is called on every state transition (optional)
	EventCallback EventCallback

	// SettleDelay is the wait between a request and reading its reply
	SettleDelay time.Duration

	// CommandDelay is the gap between consecutive messages on one bus
	CommandDelay time.Duration

	// Retries is the number of additional attempts for a failed transaction
	Retries int

	// ProbeRetries is the number of additional attempts when probing a bus
	ProbeRetries int

	// BackoffBase is the wait before the first retry; it doubles per retry
	BackoffBase time.Duration

	// BackoffMax caps the retry wait
	BackoffMax time.Duration

	// Sleep replaces time.Sleep for every delay the engine applies
	Sleep func(time.Duration)

	// customSleep is set by WithSleep
	customSleep bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Opener:       channel.DevfsOpener{},
		Enumerator:   bus.NewEnumerator(afero.NewOsFs()),
		SettleDelay:  channel.DefaultSettleDelay,
		CommandDelay: channel.DefaultCommandDelay,
		Retries:      2,
		ProbeRetries: 1,
		BackoffBase:  25 * time.Millisecond,
		BackoffMax:   100 * time.Millisecond,
		Sleep:        time.Sleep,
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithOpener sets how device paths are opened.
//
// Example:
//
//	sim := ddctest.NewOpener().Attach("/dev/i2c-3", ddctest.NewDisplay(40, 100))
//	eng := ddc.New(ddc.WithOpener(sim))
func WithOpener(opener channel.Opener) Option {
	return func(c *Config) {
		if opener != nil {
			c.Opener = opener
		}
	}
}

// WithEnumerator sets the source of candidate buses.
func WithEnumerator(enumerator Enumerator) Option {
	return func(c *Config) {
		if enumerator != nil {
			c.Enumerator = enumerator
		}
	}
}

// WithLogger sets a logger for engine operations.
//
// Example:
//
//	eng := ddc.New(ddc.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithEventCallback sets a callback for state transitions.
//
// Example:
//
//	eng := ddc.New(ddc.WithEventCallback(func(e ddc.Event) {
//	    fmt.Printf("%s %s attempt %d\n", e.State, e.Path, e.Attempt)
//	}))
func WithEventCallback(callback EventCallback) Option {
	return func(c *Config) {
		c.EventCallback = callback
	}
}

// WithSettleDelay sets the wait between writing a request and reading
// its reply. DDC/CI requires at least 40ms; shorter delays are raised to
// that unless WithSleep is also given.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}

// WithCommandDelay sets the gap between consecutive messages on one bus.
func WithCommandDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.CommandDelay = d
		}
	}
}

// WithRetries sets the number of additional attempts for a failed
// transaction. Default is 2, for three attempts in total.
//
// Example:
//
//	eng := ddc.New(ddc.WithRetries(4))
func WithRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.Retries = retries
		}
	}
}

// WithProbeRetries sets the number of additional attempts when probing
// a bus for a display. Default is 1.
func WithProbeRetries(retries int) Option {
	return func(c *Config) {
		if retries >= 0 {
			c.ProbeRetries = retries
		}
	}
}

// WithBackoff sets the wait before the first retry and its cap.
// Each further retry doubles the wait.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Config) {
		if base >= 0 && max >= base {
			c.BackoffBase = base
			c.BackoffMax = max
		}
	}
}

// WithSleep replaces time.Sleep for every delay the engine applies,
// including the bus settle and command delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
			c.customSleep = true
		}
	}
}
