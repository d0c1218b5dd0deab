package channel

import "periph.io/x/conn/v3/i2c"

// Opener opens the I2C bus behind a device path.
//
// The returned bus performs addressed transfers: Tx(addr, w, nil) writes,
// Tx(addr, nil, r) reads. Implementations other than DevfsOpener exist for
// tests; see package ddctest.
type Opener interface {
	Open(path string) (i2c.BusCloser, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (i2c.BusCloser, error)

// Open calls f(path).
func (f OpenerFunc) Open(path string) (i2c.BusCloser, error) {
	return f(path)
}

// DevfsOpener opens Linux I2C character devices such as /dev/i2c-5.
type DevfsOpener struct{}
