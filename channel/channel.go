package channel

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/brightctl/go-ddcci/protocol"
)

// Timing defaults per DDC/CI 1.1 section 4.
const (
	// DefaultSettleDelay is the wait between a request and reading its reply
	DefaultSettleDelay = 40 * time.Millisecond

	// DefaultCommandDelay is the gap the host leaves between two messages
	DefaultCommandDelay = 50 * time.Millisecond
)

// Channel is one DDC/CI session on an opened I2C bus.
//
// Channel is not safe for concurrent use. It is owned by a single
// transaction sequence and must be closed when that sequence ends.
type Channel struct {
	bus  i2c.BusCloser
	dev  *i2c.Dev
	path string

	settleDelay  time.Duration
	commandDelay time.Duration
	sleep        func(time.Duration)
	customSleep  bool

	// pending is set between a successful Write and the Read that consumes it
	pending bool
	used    bool
	closed  bool
}

// Option configures a Channel.
type Option func(*Channel)

// WithSettleDelay sets the wait applied before every Read. Values below
// DefaultSettleDelay are raised to it unless WithSleep is also given.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

// WithCommandDelay sets the wait applied before a Write that follows
// an earlier transfer on the same channel.
func WithCommandDelay(d time.Duration) Option {
	return func(c *Channel) {
		if d >= 0 {
			c.commandDelay = d
		}
	}
}

// WithSleep replaces time.Sleep for the channel's delays.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Channel) {
		if sleep != nil {
			c.sleep = sleep
			c.customSleep = true
		}
	}
}

// Open opens path through opener and returns a channel addressed to the
// DDC/CI slave. Open failures are returned as *DeviceError for permission,
// absence and exclusivity problems and as *IOError otherwise.
func Open(opener Opener, path string, opts ...Option) (*Channel, error) {
	bus, err := opener.Open(path)
	if err != nil {
		return nil, classify("open", path, err)
	}

	c := &Channel{
		bus:          bus,
		dev:          &i2c.Dev{Bus: bus, Addr: protocol.SlaveAddress},
		path:         path,
		settleDelay:  DefaultSettleDelay,
		commandDelay: DefaultCommandDelay,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.customSleep && c.settleDelay < DefaultSettleDelay {
		c.settleDelay = DefaultSettleDelay
	}

	return c, nil
}

// Path returns the device path the channel was opened on.
func (c *Channel) Path() string {
	return c.path
}

func (c *Channel) String() string {
	return fmt.Sprintf("%s@0x%02X", c.path, protocol.SlaveAddress)
}

// Write sends frame to the display in a single addressed write.
func (c *Channel) Write(frame []byte) error {
	if c.closed {
		return ErrClosed
	}

	if c.used && c.commandDelay > 0 {
		c.sleep(c.commandDelay)
	}
	c.used = true
	c.pending = false

	if err := c.dev.Tx(frame, nil); err != nil {
		return classify("write", c.path, err)
	}

	c.pending = true
	return nil
}

// Read waits the settle delay and then reads n bytes in a single addressed
// read. Read must follow a successful Write; a reply read without a request
// in flight is stale or zero-filled and is refused.
func (c *Channel) Read(n int) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}
	if !c.pending {
		return nil, ErrReadBeforeWrite
	}
	c.pending = false

	c.sleep(c.settleDelay)

	buf := make([]byte, n)
	if err := c.dev.Tx(nil, buf); err != nil {
		return nil, classify("read", c.path, err)
	}

	return buf, nil
}

// Close releases the bus. It is safe to call more than once.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.pending = false
	return c.bus.Close()
}
