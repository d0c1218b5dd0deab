package ddc

import (
	"context"
	"errors"
	"fmt"

	"github.com/brightctl/go-ddcci/channel"
	"github.com/brightctl/go-ddcci/protocol"
)

// ProbeStatus is the outcome of probing one bus.
type ProbeStatus int

const (
	// StatusNoResponse means the bus opened but nothing answered DDC/CI
	StatusNoResponse ProbeStatus = iota

	// StatusWorking means a display returned a well-formed reply
	StatusWorking

	// StatusPermissionDenied means the device node could not be opened read/write
	StatusPermissionDenied

	// StatusBusy means another process holds the bus
	StatusBusy

	// StatusNotFound means the device node does not exist
	StatusNotFound
)

func (s ProbeStatus) String() string {
	switch s {
	case StatusNoResponse:
		return "no response"
	case StatusWorking:
		return "working"
	case StatusPermissionDenied:
		return "permission denied"
	case StatusBusy:
		return "busy"
	case StatusNotFound:
		return "not found"
	default:
		return fmt.Sprintf("status %d", int(s))
	}
}

// ProbeResult is the outcome of probing one bus.
type ProbeResult struct {
	Path string

	// Adapter and Connector are filled in by Scan from the enumerator
	Adapter   string
	Connector string

	Status ProbeStatus

	// Err is the failure behind any status other than StatusWorking
	Err error
}

// Probe reports whether a DDC/CI display answers on path. The bus is
// released before Probe returns.
func (e *Engine) Probe(ctx context.Context, path string) ProbeResult {
	ch, res := e.probe(ctx, path)
	if ch != nil {
		ch.Close()
	}
	return res
}

// probe sends a brightness Get to path and returns the still open channel
// when a display answered. Any checksum-valid reply counts, whatever its
// result code: the bus carries a display even if it rejects the feature.
func (e *Engine) probe(ctx context.Context, path string) (*channel.Channel, ProbeResult) {
	res := ProbeResult{Path: path}

	ch, err := channel.Open(e.config.Opener, path, e.channelOptions()...)
	if err != nil {
		res.Status = openStatus(err)
		res.Err = err
		e.logDebug("probe open failed", "path", path, "status", res.Status, "error", err)
		return nil, res
	}

	attempts := 1 + e.config.ProbeRetries
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			e.config.Sleep(e.backoff(attempt - 1))
		}
		if err := ctx.Err(); err != nil {
			res.Err = err
			break
		}

		e.report(Event{State: StateProbing, Path: path, Attempt: attempt})

		_, err := e.exchange(ch, protocol.NewGetRequest(protocol.VCPBrightness))
		if err == nil || protocol.IsProtocolError(err) {
			res.Status = StatusWorking
			res.Err = nil
			e.logDebug("display found", "path", path, "attempt", attempt)
			return ch, res
		}

		res.Err = err
		e.logDebug("probe failed", "path", path, "attempt", attempt, "error", err)
		if !transient(err) || channel.IsNoDevice(err) {
			break
		}
	}

	if errors.Is(res.Err, channel.ErrBusy) {
		res.Status = StatusBusy
	} else {
		res.Status = StatusNoResponse
	}
	ch.Close()
	return nil, res
}

// openStatus maps a channel.Open failure to a probe status.
func openStatus(err error) ProbeStatus {
	switch {
	case errors.Is(err, channel.ErrPermissionDenied):
		return StatusPermissionDenied
	case errors.Is(err, channel.ErrBusy):
		return StatusBusy
	case errors.Is(err, channel.ErrNotFound):
		return StatusNotFound
	default:
		return StatusNoResponse
	}
}
