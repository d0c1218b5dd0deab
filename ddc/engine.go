package ddc

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
	"github.com/brightctl/go-ddcci/protocol"
)

// Enumerator lists the buses worth probing, most likely first.
// *bus.Enumerator implements it.
type Enumerator interface {
	Candidates() (iter.Seq[bus.Candidate], error)
}

// Selector tells the engine where to look for the display.
type Selector struct {
	// ExplicitPath, when set, is the only bus tried
	ExplicitPath string

	// CachedPath is a bus that worked before; it is tried first and
	// enumeration takes over if it no longer answers
	CachedPath string
}

// Reading is a brightness level together with the raw VCP values behind it.
type Reading struct {
	// Level is the brightness in percent, 0..100
	Level int

	// Current and Max are the raw VCP values
	Current uint16
	Max     uint16

	// Path is the bus the display answered on, suitable for Selector.CachedPath
	Path string
}

// Engine reads and writes monitor brightness over DDC/CI.
//
// An Engine keeps no per-call state and may be shared. Calls that reach the
// same bus concurrently are serialized by the OS; the loser gets ErrDeviceBusy.
//
// With default timing one call on a single bus finishes well within a
// second. When scanning, every bus adds its own probe time. A bus where
// nothing acknowledges the DDC/CI address is left after one write with no
// delay; one that acknowledges but never answers costs about 155ms.
type Engine struct {
	config Config
}

// New creates a new Engine with the given options.
//
// Example:
//
//	eng := ddc.New(
//	    ddc.WithLogger(myLogger),
//	    ddc.WithRetries(3),
//	)
//	r, err := eng.GetBrightness(ctx, ddc.Selector{})
func New(opts ...Option) *Engine {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.customSleep && cfg.SettleDelay < channel.DefaultSettleDelay {
		cfg.SettleDelay = channel.DefaultSettleDelay
	}

	return &Engine{config: cfg}
}

// GetBrightness locates the display and reads its brightness.
func (e *Engine) GetBrightness(ctx context.Context, sel Selector) (Reading, error) {
	e.report(Event{State: StateIdle})

	ch, err := e.locate(ctx, sel)
	if err != nil {
		return Reading{}, e.fail("", err)
	}
	defer ch.Close()

	r, err := e.read(ctx, ch)
	if err != nil {
		return Reading{}, e.fail(ch.Path(), err)
	}

	e.logInfo("brightness read", "path", r.Path, "level", r.Level, "current", r.Current, "max", r.Max)
	e.report(Event{State: StateDone, Path: r.Path})
	return r, nil
}

// SetBrightness locates the display, reads its current brightness and
// maximum, and writes the adjusted level. The returned Reading holds the
// level that was written. Success means the display acknowledged the
// write; DDC/CI gives no confirmation that it applied the value.
func (e *Engine) SetBrightness(ctx context.Context, sel Selector, adj Adjustment) (Reading, error) {
	e.report(Event{State: StateIdle})

	ch, err := e.locate(ctx, sel)
	if err != nil {
		return Reading{}, e.fail("", err)
	}
	defer ch.Close()

	cur, err := e.read(ctx, ch)
	if err != nil {
		return Reading{}, e.fail(ch.Path(), err)
	}

	level := adj.Apply(cur.Level)
	value := toRaw(level, cur.Max)

	if _, err := e.transact(ctx, ch, protocol.NewSetRequest(protocol.VCPBrightness, value)); err != nil {
		return Reading{}, e.fail(ch.Path(), err)
	}

	e.logInfo("brightness set",
		"path", ch.Path(),
		"adjustment", adj,
		"from", cur.Level,
		"to", level,
		"value", value,
		"max", cur.Max,
	)
	e.report(Event{State: StateDone, Path: ch.Path()})

	return Reading{Level: level, Current: value, Max: cur.Max, Path: ch.Path()}, nil
}

// Scan probes every candidate bus and reports what answered. Unlike
// GetBrightness it does not stop at the first working display.
func (e *Engine) Scan(ctx context.Context) ([]ProbeResult, error) {
	seq, err := e.config.Enumerator.Candidates()
	if err != nil {
		return nil, err
	}

	var results []ProbeResult
	for c := range seq {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := e.Probe(ctx, c.Path)
		res.Adapter = c.Adapter
		res.Connector = c.Connector
		results = append(results, res)
	}

	return results, nil
}

// locate returns an open channel to a bus with a working display.
func (e *Engine) locate(ctx context.Context, sel Selector) (*channel.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if sel.ExplicitPath != "" {
		ch, res := e.probe(ctx, sel.ExplicitPath)
		if ch != nil {
			return ch, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Status != StatusNoResponse {
			return nil, res.Err
		}
		return nil, &NoDisplayError{Probed: []ProbeResult{res}}
	}

	var probed []ProbeResult

	if sel.CachedPath != "" {
		ch, res := e.probe(ctx, sel.CachedPath)
		if ch != nil {
			return ch, nil
		}
		e.logInfo("cached bus did not answer, scanning", "path", sel.CachedPath, "status", res.Status)
		probed = append(probed, res)
	}

	seq, err := e.config.Enumerator.Candidates()
	if err != nil {
		return nil, err
	}

	for c := range seq {
		if c.Path == sel.CachedPath {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ch, res := e.probe(ctx, c.Path)
		if ch != nil {
			return ch, nil
		}
		probed = append(probed, res)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, &NoDisplayError{Probed: probed}
}

// read performs a brightness Get and converts it to a Reading.
func (e *Engine) read(ctx context.Context, ch *channel.Channel) (Reading, error) {
	reply, err := e.transact(ctx, ch, protocol.NewGetRequest(protocol.VCPBrightness))
	if err != nil {
		return Reading{}, err
	}

	if reply.Max == 0 || reply.Current > reply.Max {
		return Reading{}, &protocol.ProtocolError{
			Operation:  "get",
			Kind:       protocol.MaxRangeMismatch,
			VCPCode:    reply.VCPCode,
			ResultCode: reply.ResultCode,
			Current:    reply.Current,
			Max:        reply.Max,
		}
	}

	return Reading{
		Level:   toPercent(reply.Current, reply.Max),
		Current: reply.Current,
		Max:     reply.Max,
		Path:    ch.Path(),
	}, nil
}

// transact runs req with retries. Transient failures are retried with
// backoff; anything else is returned at once.
func (e *Engine) transact(ctx context.Context, ch *channel.Channel, req protocol.Request) (*protocol.Reply, error) {
	attempts := 1 + e.config.Retries

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			e.config.Sleep(e.backoff(attempt - 1))
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.report(Event{State: StateTransacting, Path: ch.Path(), Attempt: attempt})

		reply, err := e.exchange(ch, req)
		if err == nil {
			return reply, nil
		}
		if !transient(err) {
			return nil, err
		}

		last = err
		e.logDebug("transaction failed",
			"path", ch.Path(),
			"command", req.Command,
			"attempt", attempt,
			"error", err,
		)
	}

	e.logError("transaction failed, giving up", "path", ch.Path(), "command", req.Command, "attempts", attempts)
	return nil, &AttemptsExhaustedError{
		Operation: req.Command.String(),
		Path:      ch.Path(),
		Attempts:  attempts,
		Err:       last,
	}
}

// exchange writes req and, for a Get, reads and validates the reply.
// A Set has no reply; a nil reply with a nil error means it was written.
func (e *Engine) exchange(ch *channel.Channel, req protocol.Request) (*protocol.Reply, error) {
	frame, err := protocol.Encode(req)
	if err != nil {
		return nil, err
	}

	if err := ch.Write(frame); err != nil {
		return nil, err
	}
	if req.Command != protocol.CmdGetVCPFeature {
		return nil, nil
	}

	raw, err := ch.Read(protocol.GetVCPReplySize)
	if err != nil {
		return nil, err
	}

	reply, err := protocol.DecodeReply(raw)
	if err != nil {
		return nil, err
	}

	// A reply for another feature is left over from an earlier request
	if reply.VCPCode != req.VCPCode {
		return nil, &protocol.DecodeError{
			Kind:   protocol.UnexpectedOpcode,
			Detail: fmt.Sprintf("reply for VCP 0x%02X, requested 0x%02X", reply.VCPCode, req.VCPCode),
		}
	}

	if err := reply.Err("get"); err != nil {
		return nil, err
	}

	return reply, nil
}

// transient reports whether err may go away on a repeated attempt.
func transient(err error) bool {
	return protocol.IsDecodeError(err) || channel.IsIOError(err)
}

// backoff returns the wait before retry n, counting from 1.
func (e *Engine) backoff(n int) time.Duration {
	d := e.config.BackoffBase
	for i := 1; i < n && d < e.config.BackoffMax; i++ {
		d *= 2
	}
	return min(d, e.config.BackoffMax)
}

func (e *Engine) channelOptions() []channel.Option {
	opts := []channel.Option{
		channel.WithSettleDelay(e.config.SettleDelay),
		channel.WithCommandDelay(e.config.CommandDelay),
	}
	if e.config.customSleep {
		opts = append(opts, channel.WithSleep(e.config.Sleep))
	}
	return opts
}

// fail reports StateFailed and returns err.
func (e *Engine) fail(path string, err error) error {
	e.logError("operation failed", "path", path, "error", err)
	e.report(Event{State: StateFailed, Path: path, Err: err})
	return err
}

// report calls the event callback if one is configured.
func (e *Engine) report(ev Event) {
	if e.config.EventCallback != nil {
		e.config.EventCallback(ev)
	}
}

// logDebug logs a debug message if a logger is configured.
func (e *Engine) logDebug(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (e *Engine) logInfo(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (e *Engine) logError(msg string, keysAndValues ...interface{}) {
	if e.config.Logger != nil {
		e.config.Logger.Error(msg, keysAndValues...)
	}
}
