//go:build linux

package channel

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Request codes from linux/i2c-dev.h and linux/i2c.h.
const (
	i2cRdwr = 0x0707
	i2cMRd  = 0x0001
)

// i2cMsg mirrors struct i2c_msg from linux/i2c.h.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   unsafe.Pointer
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  unsafe.Pointer
	nmsgs uint32
}

// Open opens path read/write. Every transfer on the returned bus uses the
// I2C_RDWR ioctl so the slave address travels with each message.
func (DevfsOpener) Open(path string) (i2c.BusCloser, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &devfsBus{f: f, path: path}, nil
}

// devfsBus is an opened /dev/i2c-N node.
type devfsBus struct {
	f    *os.File
	path string
}

func (b *devfsBus) String() string {
	return b.path
}

func (b *devfsBus) Close() error {
	if b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

// SetSpeed is not supported; the adapter driver owns the bus clock.
func (b *devfsBus) SetSpeed(physic.Frequency) error {
	return errors.New("i2c-dev: setting bus speed is not supported")
}

// Tx performs one I2C_RDWR transaction at addr: a write message for w
// and a read message for r, each only when non-empty.
func (b *devfsBus) Tx(addr uint16, w, r []byte) error {
	if b.f == nil {
		return os.ErrClosed
	}

	msgs := make([]i2cMsg, 0, 2)
	if len(w) > 0 {
		msgs = append(msgs, i2cMsg{addr: addr, len: uint16(len(w)), buf: unsafe.Pointer(&w[0])})
	}
	if len(r) > 0 {
		msgs = append(msgs, i2cMsg{addr: addr, flags: i2cMRd, len: uint16(len(r)), buf: unsafe.Pointer(&r[0])})
	}
	if len(msgs) == 0 {
		return nil
	}

	data := i2cRdwrData{msgs: unsafe.Pointer(&msgs[0]), nmsgs: uint32(len(msgs))}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, b.f.Fd(), i2cRdwr, uintptr(unsafe.Pointer(&data)))
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	runtime.KeepAlive(msgs)
	if errno != 0 {
		return errno
	}
	return nil
}
