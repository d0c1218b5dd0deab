package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
	"github.com/brightctl/go-ddcci/ddc"
	"github.com/brightctl/go-ddcci/protocol"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitNoDisplay  = 3
	exitPermission = 4
	exitBusy       = 5
	exitProtocol   = 6
	exitTransport  = 7
)

// errUsage marks command line mistakes.
var errUsage = errors.New("usage")

type usageError struct {
	msg string
}

func (e *usageError) Error() string   { return e.msg }
func (e *usageError) Is(t error) bool { return t == errUsage }

func usageErrorf(format string, args ...interface{}) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps an error to the process exit code. Permission problems win
// over "no display" because they are the usual reason nothing answered.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage), errors.Is(err, ddc.ErrInvalidAdjustment):
		return exitUsage
	case errors.Is(err, ddc.ErrPermissionDenied):
		return exitPermission
	case errors.Is(err, ddc.ErrDeviceBusy):
		return exitBusy
	case errors.Is(err, ddc.ErrNoCandidatesFound),
		errors.Is(err, ddc.ErrNoDisplayFound),
		errors.Is(err, channel.ErrNotFound),
		errors.Is(err, bus.ErrConnectorNotFound),
		errors.Is(err, bus.ErrEmbeddedPanel),
		errors.Is(err, bus.ErrNoDDCChannel):
		return exitNoDisplay
	case protocol.IsProtocolError(err):
		return exitProtocol
	case protocol.IsDecodeError(err), channel.IsIOError(err):
		return exitTransport
	default:
		return exitFailure
	}
}

// hintFor suggests a fix for errors users can resolve themselves.
func hintFor(err error) string {
	switch {
	case errors.Is(err, ddc.ErrPermissionDenied):
		return "add your user to the i2c group or install a udev rule granting access to /dev/i2c-*"
	case errors.Is(err, ddc.ErrNoCandidatesFound):
		return "load the i2c-dev kernel module: modprobe i2c-dev"
	case errors.Is(err, bus.ErrEmbeddedPanel):
		return "built-in panels are controlled through the backlight class, not DDC/CI"
	case errors.Is(err, ddc.ErrNoDisplayFound):
		return "enable DDC/CI in the monitor's on-screen menu, or pass --i2c-path"
	}
	return ""
}
