package ddc

import (
	"errors"
	"fmt"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
)

var (
	// ErrNoDisplayFound means every candidate bus was probed and none answered
	ErrNoDisplayFound = errors.New("no DDC/CI display found")

	// ErrNoCandidatesFound means the system has no I2C buses at all
	ErrNoCandidatesFound = bus.ErrNoCandidatesFound

	// ErrPermissionDenied means a bus could not be opened read/write
	ErrPermissionDenied = channel.ErrPermissionDenied

	// ErrDeviceBusy means another process holds a bus
	ErrDeviceBusy = channel.ErrBusy

	// ErrInvalidAdjustment means a brightness value could not be parsed
	ErrInvalidAdjustment = errors.New("invalid brightness value")
)

// NoDisplayError is returned when probing found no working display.
// It matches ErrNoDisplayFound with errors.Is, as well as the failure
// of every bus that was probed.
type NoDisplayError struct {
	Probed []ProbeResult
}

func (e *NoDisplayError) Error() string {
	if len(e.Probed) == 1 {
		return fmt.Sprintf("%v: %s: %s", ErrNoDisplayFound, e.Probed[0].Path, e.Probed[0].Status)
	}
	return fmt.Sprintf("%v (probed %d buses)", ErrNoDisplayFound, len(e.Probed))
}

func (e *NoDisplayError) Is(target error) bool {
	return target == ErrNoDisplayFound
}

func (e *NoDisplayError) Unwrap() []error {
	var errs []error
	for _, r := range e.Probed {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// AttemptsExhaustedError is returned when every attempt of a transaction
// failed with a transient error. Err is the last of those errors.
type AttemptsExhaustedError struct {
	Operation string
	Path      string
	Attempts  int
	Err       error
}

func (e *AttemptsExhaustedError) Error() string {
	return fmt.Sprintf("%s on %s failed after %d attempts: %v", e.Operation, e.Path, e.Attempts, e.Err)
}

func (e *AttemptsExhaustedError) Unwrap() error {
	return e.Err
}
