//go:build !linux

package channel

import "periph.io/x/conn/v3/i2c"

// Open always fails outside linux.
func (DevfsOpener) Open(path string) (i2c.BusCloser, error) {
	return nil, ErrUnsupportedPlatform
}
