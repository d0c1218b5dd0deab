package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrPermissionDenied means the device node exists but cannot be opened read/write
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound means the device node or its adapter does not exist
	ErrNotFound = errors.New("device not found")

	// ErrBusy means another process holds the device
	ErrBusy = errors.New("device busy")

	// ErrReadBeforeWrite means Read was called without a preceding Write
	ErrReadBeforeWrite = errors.New("read without a preceding write")

	// ErrClosed means the channel was used after Close
	ErrClosed = errors.New("channel closed")

	// ErrUnsupportedPlatform means I2C character devices are not available
	ErrUnsupportedPlatform = errors.New("i2c character devices require linux")
)

// DeviceError is a non-transient failure to use a device: permission,
// absence or exclusivity. It matches both its Kind sentinel and the
// underlying OS error with errors.Is.
type DeviceError struct {
	Op   string
	Path string

	// Kind is ErrPermissionDenied, ErrNotFound or ErrBusy
	Kind error

	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IOError is a transport-level failure of a single transfer. DDC/CI links
// NAK intermittently, so an IOError is worth retrying.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IsIOError returns true if err is or wraps an IOError.
func IsIOError(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe)
}

// IsNoDevice reports whether err is a write that nothing on the bus
// acknowledged: there is no device at the DDC/CI address.
func IsNoDevice(err error) bool {
	var ioe *IOError
	return errors.As(err, &ioe) && ioe.Op == "write" && errors.Is(ioe.Err, syscall.ENXIO)
}

// classify maps an OS error from op on path to DeviceError or IOError.
func classify(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return &DeviceError{Op: op, Path: path, Kind: ErrPermissionDenied, Err: err}
	case errors.Is(err, syscall.EBUSY):
		return &DeviceError{Op: op, Path: path, Kind: ErrBusy, Err: err}
	case op == "open" && (errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENODEV) || errors.Is(err, syscall.ENXIO)):
		return &DeviceError{Op: op, Path: path, Kind: ErrNotFound, Err: err}
	default:
		return &IOError{Op: op, Path: path, Err: err}
	}
}
