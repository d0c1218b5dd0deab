package ddc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightctl/go-ddcci/bus"
	"github.com/brightctl/go-ddcci/channel"
	"github.com/brightctl/go-ddcci/ddctest"
	"github.com/brightctl/go-ddcci/protocol"
)

type fakeEnumerator struct {
	paths []string
	err   error
	calls int
}

func (f *fakeEnumerator) Candidates() (iter.Seq[bus.Candidate], error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return func(yield func(bus.Candidate) bool) {
		for i, p := range f.paths {
			if !yield(bus.Candidate{Path: p, Number: i, Adapter: "test adapter"}) {
				return
			}
		}
	}, nil
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}

func (l *recordingLogger) Info(msg string, _ ...interface{}) {
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

type harness struct {
	opener *ddctest.Opener
	enum   *fakeEnumerator
	events []Event
	sleeps []time.Duration
}

func newHarness(paths ...string) *harness {
	return &harness{
		opener: ddctest.NewOpener(),
		enum:   &fakeEnumerator{paths: paths},
	}
}

func (h *harness) engine(opts ...Option) *Engine {
	base := []Option{
		WithOpener(h.opener),
		WithEnumerator(h.enum),
		WithSleep(func(d time.Duration) { h.sleeps = append(h.sleeps, d) }),
		WithEventCallback(func(ev Event) { h.events = append(h.events, ev) }),
	}
	return New(append(base, opts...)...)
}

func (h *harness) count(state State) int {
	n := 0
	for _, ev := range h.events {
		if ev.State == state {
			n++
		}
	}
	return n
}

func (h *harness) states() []State {
	var out []State
	for _, ev := range h.events {
		out = append(out, ev.State)
	}
	return out
}

func (h *harness) totalSleep() time.Duration {
	var d time.Duration
	for _, s := range h.sleeps {
		d += s
	}
	return d
}

func pathError(path string, err error) error {
	return &os.PathError{Op: "open", Path: path, Err: err}
}

func TestGetBrightness(t *testing.T) {
	h := newHarness("/dev/i2c-3")
	h.opener.Attach("/dev/i2c-3", ddctest.NewDisplay(30, 100))

	r, err := h.engine().GetBrightness(context.Background(), Selector{})
	require.NoError(t, err)

	assert.Equal(t, Reading{Level: 30, Current: 30, Max: 100, Path: "/dev/i2c-3"}, r)
	assert.Equal(t, []State{StateIdle, StateProbing, StateTransacting, StateDone}, h.states())
}

func TestGetBrightnessScalesToPercent(t *testing.T) {
	tests := []struct {
		current uint16
		max     uint16
		want    int
	}{
		{0, 255, 0},
		{128, 255, 50},
		{255, 255, 100},
		{1, 1000, 0},
		{5, 1000, 1},
		{37, 50, 74},
		{1, 1, 100},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d", tt.current, tt.max), func(t *testing.T) {
			h := newHarness()
			h.opener.Attach("/dev/i2c-1", ddctest.NewDisplay(tt.current, tt.max))

			r, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Level)
		})
	}
}

func TestSetThenGetReturnsSameLevel(t *testing.T) {
	for _, maxValue := range []uint16{100, 255, 1000, 65535} {
		t.Run(fmt.Sprintf("max %d", maxValue), func(t *testing.T) {
			h := newHarness()
			d := ddctest.NewDisplay(0, maxValue)
			h.opener.Attach("/dev/i2c-5", d)
			eng := h.engine()
			sel := Selector{ExplicitPath: "/dev/i2c-5"}

			for level := 0; level <= 100; level++ {
				set, err := eng.SetBrightness(context.Background(), sel, Absolute(level))
				require.NoError(t, err)
				require.Equal(t, level, set.Level)

				got, err := eng.GetBrightness(context.Background(), sel)
				require.NoError(t, err)
				require.Equal(t, level, got.Level, "raw value %d", d.Brightness())
			}
		})
	}
}

func TestSetBrightnessClamps(t *testing.T) {
	tests := []struct {
		name      string
		current   uint16
		max       uint16
		adj       Adjustment
		wantLevel int
		wantRaw   uint16
	}{
		{name: "relative above 100", current: 95, max: 100, adj: Relative(10), wantLevel: 100, wantRaw: 100},
		{name: "relative below 0", current: 3, max: 100, adj: Relative(-10), wantLevel: 0, wantRaw: 0},
		{name: "absolute above 100", current: 50, max: 255, adj: Absolute(150), wantLevel: 100, wantRaw: 255},
		{name: "absolute below 0", current: 50, max: 255, adj: Absolute(-20), wantLevel: 0, wantRaw: 0},
		{name: "relative in range", current: 40, max: 100, adj: Relative(15), wantLevel: 55, wantRaw: 55},
		{name: "relative on scaled max", current: 128, max: 255, adj: Relative(-10), wantLevel: 40, wantRaw: 102},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			d := ddctest.NewDisplay(tt.current, tt.max)
			h.opener.Attach("/dev/i2c-2", d)

			r, err := h.engine().SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-2"}, tt.adj)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLevel, r.Level)
			assert.Equal(t, tt.wantRaw, r.Current)
			assert.Equal(t, tt.max, r.Max)
			assert.Equal(t, tt.wantRaw, d.Brightness())

			writes := d.SetWrites()
			require.Len(t, writes, 1)
			assert.Equal(t, protocol.BuildSetVCPCmd(protocol.VCPBrightness, tt.wantRaw), writes[0])
		})
	}
}

func TestSetBrightnessReadsBeforeWriting(t *testing.T) {
	h := newHarness()
	d := ddctest.NewDisplay(20, 100)
	h.opener.Attach("/dev/i2c-2", d)

	_, err := h.engine().SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-2"}, Absolute(60))
	require.NoError(t, err)

	get := protocol.BuildGetVCPCmd(protocol.VCPBrightness)
	assert.Equal(t, [][]byte{get, get, protocol.BuildSetVCPCmd(protocol.VCPBrightness, 60)}, d.Writes())
	assert.Equal(t, []State{StateIdle, StateProbing, StateTransacting, StateTransacting, StateDone}, h.states())
}

func TestRetryBudget(t *testing.T) {
	t.Run("exhausted after three attempts", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		d.InjectFaults(ddctest.FaultNone, ddctest.FaultIO, ddctest.FaultIO, ddctest.FaultBadChecksum)
		h.opener.Attach("/dev/i2c-1", d)

		_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})

		var exhausted *AttemptsExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.Equal(t, "/dev/i2c-1", exhausted.Path)

		// The last failure is reported, not the first
		var de *protocol.DecodeError
		require.ErrorAs(t, exhausted.Err, &de)
		assert.Equal(t, protocol.BadChecksum, de.Kind)
		assert.False(t, channel.IsIOError(exhausted.Err))

		assert.Equal(t, 3, h.count(StateTransacting))
		assert.Equal(t, 4, d.Reads())
		assert.Equal(t, StateFailed, h.events[len(h.events)-1].State)
	})

	t.Run("succeeds on last attempt", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		d.InjectFaults(ddctest.FaultNone, ddctest.FaultIO, ddctest.FaultTruncated)
		h.opener.Attach("/dev/i2c-1", d)

		r, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
		require.NoError(t, err)
		assert.Equal(t, 50, r.Level)
		assert.Equal(t, 3, h.count(StateTransacting))
	})

	t.Run("custom retries", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		d.InjectFaults(ddctest.FaultNone)
		d.InjectFaults(ddctest.FaultZeros, ddctest.FaultZeros, ddctest.FaultZeros, ddctest.FaultZeros, ddctest.FaultZeros)
		h.opener.Attach("/dev/i2c-1", d)

		_, err := h.engine(WithRetries(4)).GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})

		var exhausted *AttemptsExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 5, exhausted.Attempts)
		assert.Equal(t, 5, h.count(StateTransacting))
	})

	t.Run("stale reply is retried", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(70, 100)
		d.InjectFaults(ddctest.FaultNone, ddctest.FaultStale)
		h.opener.Attach("/dev/i2c-1", d)

		r, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
		require.NoError(t, err)
		assert.Equal(t, 70, r.Level)
		assert.Equal(t, 2, h.count(StateTransacting))
	})

	t.Run("set succeeds on last attempt", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		// probe and get writes go through, the first two set writes fail
		d.InjectWriteFaults(ddctest.FaultNone, ddctest.FaultNone, ddctest.FaultIO, ddctest.FaultIO)
		h.opener.Attach("/dev/i2c-1", d)

		r, err := h.engine().SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"}, Absolute(80))
		require.NoError(t, err)
		assert.Equal(t, 80, r.Level)
		assert.Equal(t, uint16(80), d.Brightness())
		assert.Len(t, d.SetWrites(), 1)

		var attempts []int
		for _, ev := range h.events {
			if ev.State == StateTransacting {
				attempts = append(attempts, ev.Attempt)
			}
		}
		// one get, then three set attempts
		assert.Equal(t, []int{1, 1, 2, 3}, attempts)
	})

	t.Run("set exhausted after three attempts", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		d.InjectWriteFaults(ddctest.FaultNone, ddctest.FaultNone, ddctest.FaultIO, ddctest.FaultIO, ddctest.FaultIO)
		h.opener.Attach("/dev/i2c-1", d)

		_, err := h.engine().SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"}, Absolute(80))

		var exhausted *AttemptsExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 3, exhausted.Attempts)
		assert.Equal(t, protocol.CmdSetVCPFeature.String(), exhausted.Operation)

		var ioe *channel.IOError
		require.ErrorAs(t, exhausted.Err, &ioe)
		assert.Equal(t, "write", ioe.Op)
		assert.ErrorIs(t, ioe, syscall.EIO)

		assert.Equal(t, uint16(50), d.Brightness())
		assert.Empty(t, d.SetWrites())
		assert.Equal(t, 4, h.count(StateTransacting))
		assert.Equal(t, StateFailed, h.events[len(h.events)-1].State)
		assert.Equal(t, 1, d.Closes())
	})

	t.Run("probe retried once", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(70, 100)
		d.InjectFaults(ddctest.FaultIO)
		h.opener.Attach("/dev/i2c-1", d)

		_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
		require.NoError(t, err)
		assert.Equal(t, 2, h.count(StateProbing))
	})
}

func TestRetryTiming(t *testing.T) {
	h := newHarness()
	d := ddctest.NewDisplay(50, 100)
	d.InjectFaults(ddctest.FaultNone, ddctest.FaultBadChecksum, ddctest.FaultBadChecksum, ddctest.FaultBadChecksum)
	h.opener.Attach("/dev/i2c-1", d)

	_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
	require.Error(t, err)

	ms := time.Millisecond
	assert.Equal(t, []time.Duration{
		40 * ms, // probe read
		50 * ms, 40 * ms, // attempt 1
		25 * ms, 50 * ms, 40 * ms, // attempt 2
		50 * ms, 50 * ms, 40 * ms, // attempt 3
	}, h.sleeps)
}

func TestWorstCaseStaysBelowOneSecond(t *testing.T) {
	h := newHarness()
	d := ddctest.NewDisplay(50, 100)
	d.InjectFaults(ddctest.FaultIO, ddctest.FaultNone,
		ddctest.FaultBadChecksum, ddctest.FaultBadChecksum, ddctest.FaultBadChecksum)
	h.opener.Attach("/dev/i2c-1", d)

	_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
	require.Error(t, err)
	assert.Less(t, h.totalSleep(), time.Second)
}

func TestBackoff(t *testing.T) {
	ms := time.Millisecond

	e := New()
	assert.Equal(t, 25*ms, e.backoff(1))
	assert.Equal(t, 50*ms, e.backoff(2))
	assert.Equal(t, 100*ms, e.backoff(3))
	assert.Equal(t, 100*ms, e.backoff(4))

	e = New(WithBackoff(10*ms, 30*ms))
	assert.Equal(t, 10*ms, e.backoff(1))
	assert.Equal(t, 20*ms, e.backoff(2))
	assert.Equal(t, 30*ms, e.backoff(3))

	// Invalid ranges are ignored
	e = New(WithBackoff(50*ms, 10*ms))
	assert.Equal(t, 25*ms, e.backoff(1))
}

func TestEnumerationExhaustedWithoutTransactions(t *testing.T) {
	paths := []string{"/dev/i2c-0", "/dev/i2c-1", "/dev/i2c-2", "/dev/i2c-3"}
	h := newHarness(paths...)

	var silent []*ddctest.Display
	for _, p := range paths[:3] {
		d := ddctest.NewDisplay(50, 100)
		d.FailAll(ddctest.FaultNull)
		h.opener.Attach(p, d)
		silent = append(silent, d)
	}
	h.opener.Attach(paths[3], ddctest.NewAbsent())

	eng := h.engine()

	for _, op := range []string{"get", "set"} {
		t.Run(op, func(t *testing.T) {
			h.events = nil

			var err error
			if op == "get" {
				_, err = eng.GetBrightness(context.Background(), Selector{})
			} else {
				_, err = eng.SetBrightness(context.Background(), Selector{}, Absolute(80))
			}

			require.ErrorIs(t, err, ErrNoDisplayFound)

			var nd *NoDisplayError
			require.ErrorAs(t, err, &nd)
			require.Len(t, nd.Probed, 4)
			for i, r := range nd.Probed {
				assert.Equal(t, paths[i], r.Path)
				assert.Equal(t, StatusNoResponse, r.Status)
			}

			assert.Zero(t, h.count(StateTransacting))
			// two attempts per silent display, one for the bus nothing acknowledges
			assert.Equal(t, 7, h.count(StateProbing))
		})
	}

	get := protocol.BuildGetVCPCmd(protocol.VCPBrightness)
	for _, d := range silent {
		assert.Empty(t, d.SetWrites())
		for _, w := range d.Writes() {
			assert.Equal(t, get, w)
		}
		assert.Equal(t, d.Opens(), d.Closes())
	}
}

func TestProbeGivesUpOnUnacknowledgedBus(t *testing.T) {
	h := newHarness()
	h.opener.Attach("/dev/i2c-4", ddctest.NewAbsent())

	res := h.engine().Probe(context.Background(), "/dev/i2c-4")
	assert.Equal(t, StatusNoResponse, res.Status)
	assert.True(t, channel.IsNoDevice(res.Err))
	assert.Equal(t, 1, h.count(StateProbing))
	assert.Empty(t, h.sleeps)
}

func TestSettleDelayFloor(t *testing.T) {
	ms := time.Millisecond

	e := New(WithSettleDelay(0))
	assert.Equal(t, 40*ms, e.config.SettleDelay)

	e = New(WithSettleDelay(10 * ms))
	assert.Equal(t, 40*ms, e.config.SettleDelay)

	e = New(WithSettleDelay(60 * ms))
	assert.Equal(t, 60*ms, e.config.SettleDelay)

	// An injected sleep takes the delay as given
	h := newHarness()
	h.opener.Attach("/dev/i2c-1", ddctest.NewDisplay(50, 100))
	_, err := h.engine(WithSettleDelay(0)).GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0, 50 * ms, 0}, h.sleeps)
}

func TestNoCandidates(t *testing.T) {
	h := newHarness()
	h.enum.err = bus.ErrNoCandidatesFound

	_, err := h.engine().GetBrightness(context.Background(), Selector{})
	assert.ErrorIs(t, err, ErrNoCandidatesFound)
	assert.NotErrorIs(t, err, ErrNoDisplayFound)
	assert.Empty(t, h.opener.Opened())
}

func TestExplicitPath(t *testing.T) {
	t.Run("permission denied", func(t *testing.T) {
		h := newHarness("/dev/i2c-1")
		h.opener.FailOpen("/dev/i2c-4", pathError("/dev/i2c-4", syscall.EACCES))

		_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-4"})
		require.ErrorIs(t, err, ErrPermissionDenied)
		assert.ErrorIs(t, err, syscall.EACCES)

		var nd *NoDisplayError
		assert.False(t, errors.As(err, &nd))
		assert.Zero(t, h.enum.calls)
	})

	t.Run("busy", func(t *testing.T) {
		h := newHarness()
		h.opener.FailOpen("/dev/i2c-4", pathError("/dev/i2c-4", syscall.EBUSY))

		_, err := h.engine().SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-4"}, Relative(5))
		assert.ErrorIs(t, err, ErrDeviceBusy)
	})

	t.Run("missing node", func(t *testing.T) {
		h := newHarness()

		_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-42"})
		assert.ErrorIs(t, err, channel.ErrNotFound)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})

	t.Run("no response", func(t *testing.T) {
		h := newHarness("/dev/i2c-1")
		d := ddctest.NewDisplay(50, 100)
		d.FailAll(ddctest.FaultZeros)
		h.opener.Attach("/dev/i2c-6", d)

		_, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-6"})
		require.ErrorIs(t, err, ErrNoDisplayFound)
		assert.Contains(t, err.Error(), "/dev/i2c-6")
		assert.True(t, protocol.IsDecodeError(err))
		assert.Zero(t, h.enum.calls)
		assert.Equal(t, 2, d.Reads())
	})
}

func TestPermissionDeniedDuringEnumeration(t *testing.T) {
	h := newHarness("/dev/i2c-0", "/dev/i2c-1")
	h.opener.FailOpen("/dev/i2c-0", pathError("/dev/i2c-0", syscall.EACCES))
	h.opener.FailOpen("/dev/i2c-1", pathError("/dev/i2c-1", syscall.EPERM))

	_, err := h.engine().GetBrightness(context.Background(), Selector{})
	require.ErrorIs(t, err, ErrNoDisplayFound)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var nd *NoDisplayError
	require.ErrorAs(t, err, &nd)
	for _, r := range nd.Probed {
		assert.Equal(t, StatusPermissionDenied, r.Status)
	}

	// Open failures are not retried
	assert.Zero(t, h.count(StateProbing))
}

func TestEnumerationStopsAtFirstWorkingDisplay(t *testing.T) {
	h := newHarness("/dev/i2c-0", "/dev/i2c-1", "/dev/i2c-2", "/dev/i2c-3")
	h.opener.Attach("/dev/i2c-0", ddctest.NewAbsent())
	h.opener.FailOpen("/dev/i2c-1", pathError("/dev/i2c-1", syscall.EACCES))
	h.opener.Attach("/dev/i2c-2", ddctest.NewDisplay(10, 100))
	h.opener.Attach("/dev/i2c-3", ddctest.NewDisplay(90, 100))

	r, err := h.engine().GetBrightness(context.Background(), Selector{})
	require.NoError(t, err)
	assert.Equal(t, "/dev/i2c-2", r.Path)
	assert.Equal(t, 10, r.Level)
	assert.Equal(t, []string{"/dev/i2c-0", "/dev/i2c-1", "/dev/i2c-2"}, h.opener.Opened())
}

func TestCachedPath(t *testing.T) {
	t.Run("used without enumerating", func(t *testing.T) {
		h := newHarness("/dev/i2c-1", "/dev/i2c-7")
		h.opener.Attach("/dev/i2c-7", ddctest.NewDisplay(45, 100))

		r, err := h.engine().GetBrightness(context.Background(), Selector{CachedPath: "/dev/i2c-7"})
		require.NoError(t, err)
		assert.Equal(t, "/dev/i2c-7", r.Path)
		assert.Zero(t, h.enum.calls)
		assert.Equal(t, []string{"/dev/i2c-7"}, h.opener.Opened())
	})

	t.Run("stale falls back to enumeration", func(t *testing.T) {
		h := newHarness("/dev/i2c-9", "/dev/i2c-2")
		h.opener.Attach("/dev/i2c-2", ddctest.NewDisplay(45, 100))

		r, err := h.engine().GetBrightness(context.Background(), Selector{CachedPath: "/dev/i2c-9"})
		require.NoError(t, err)
		assert.Equal(t, "/dev/i2c-2", r.Path)
		assert.Equal(t, 1, h.enum.calls)
		assert.Equal(t, []string{"/dev/i2c-9", "/dev/i2c-2"}, h.opener.Opened())
	})

	t.Run("explicit path wins", func(t *testing.T) {
		h := newHarness()
		h.opener.Attach("/dev/i2c-3", ddctest.NewDisplay(45, 100))
		h.opener.Attach("/dev/i2c-7", ddctest.NewDisplay(80, 100))

		r, err := h.engine().GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-3", CachedPath: "/dev/i2c-7"})
		require.NoError(t, err)
		assert.Equal(t, "/dev/i2c-3", r.Path)
		assert.Equal(t, []string{"/dev/i2c-3"}, h.opener.Opened())
	})
}

func TestUnsupportedBrightness(t *testing.T) {
	h := newHarness()
	d := ddctest.NewDisplay(50, 100)
	d.RemoveFeature(protocol.VCPBrightness)
	h.opener.Attach("/dev/i2c-1", d)
	eng := h.engine()

	// The display answers, so the bus counts as working
	assert.Equal(t, StatusWorking, eng.Probe(context.Background(), "/dev/i2c-1").Status)

	h.events = nil
	_, err := eng.GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})

	var pe *protocol.ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, protocol.UnsupportedVCPCode, pe.Kind)
	assert.Equal(t, 1, h.count(StateTransacting))

	_, err = eng.SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"}, Absolute(10))
	assert.True(t, protocol.IsProtocolError(err))
	assert.Empty(t, d.SetWrites())
}

func TestMaxRangeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		current uint16
		max     uint16
	}{
		{name: "zero max", current: 10, max: 0},
		{name: "current above max", current: 200, max: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			d := ddctest.NewDisplay(tt.current, tt.max)
			h.opener.Attach("/dev/i2c-1", d)
			eng := h.engine()

			_, err := eng.GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
			var pe *protocol.ProtocolError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, protocol.MaxRangeMismatch, pe.Kind)
			assert.Equal(t, tt.current, pe.Current)
			assert.Equal(t, tt.max, pe.Max)

			_, err = eng.SetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"}, Absolute(50))
			require.ErrorAs(t, err, &pe)
			assert.Empty(t, d.SetWrites())
		})
	}
}

func TestContextCancellation(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		h := newHarness("/dev/i2c-1")
		h.opener.Attach("/dev/i2c-1", ddctest.NewDisplay(50, 100))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := h.engine().GetBrightness(ctx, Selector{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, h.opener.Opened())
	})

	t.Run("between attempts", func(t *testing.T) {
		h := newHarness()
		d := ddctest.NewDisplay(50, 100)
		d.InjectFaults(ddctest.FaultNone, ddctest.FaultBadChecksum)
		h.opener.Attach("/dev/i2c-1", d)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		eng := h.engine(WithEventCallback(func(ev Event) {
			h.events = append(h.events, ev)
			if ev.State == StateTransacting {
				cancel()
			}
		}))

		_, err := eng.GetBrightness(ctx, Selector{ExplicitPath: "/dev/i2c-1"})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, h.count(StateTransacting))
		assert.Equal(t, 1, d.Closes())
	})
}

func TestBusReleased(t *testing.T) {
	h := newHarness()
	d := ddctest.NewDisplay(50, 100)
	h.opener.Attach("/dev/i2c-1", d)
	eng := h.engine()
	sel := Selector{ExplicitPath: "/dev/i2c-1"}

	_, err := eng.GetBrightness(context.Background(), sel)
	require.NoError(t, err)
	_, err = eng.SetBrightness(context.Background(), sel, Relative(-20))
	require.NoError(t, err)
	eng.Probe(context.Background(), "/dev/i2c-1")

	assert.Equal(t, 3, d.Opens())
	assert.Equal(t, 3, d.Closes())
}

func TestScan(t *testing.T) {
	h := newHarness("/dev/i2c-1", "/dev/i2c-2", "/dev/i2c-3", "/dev/i2c-4", "/dev/i2c-5")
	d := ddctest.NewDisplay(50, 100)
	h.opener.Attach("/dev/i2c-1", d)
	h.opener.Attach("/dev/i2c-2", ddctest.NewAbsent())
	h.opener.FailOpen("/dev/i2c-3", pathError("/dev/i2c-3", syscall.EBUSY))
	h.opener.FailOpen("/dev/i2c-4", pathError("/dev/i2c-4", syscall.EACCES))
	h.opener.Attach("/dev/i2c-5", ddctest.NewDisplay(80, 100))

	results, err := h.engine().Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 5)

	want := []ProbeStatus{StatusWorking, StatusNoResponse, StatusBusy, StatusPermissionDenied, StatusWorking}
	for i, r := range results {
		assert.Equal(t, want[i], r.Status, r.Path)
		assert.Equal(t, "test adapter", r.Adapter)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[3].Err, ErrPermissionDenied)

	assert.Equal(t, 1, d.Closes())
	assert.Empty(t, d.SetWrites())
}

func TestScanNoCandidates(t *testing.T) {
	h := newHarness()
	h.enum.err = bus.ErrNoCandidatesFound

	_, err := h.engine().Scan(context.Background())
	assert.ErrorIs(t, err, ErrNoCandidatesFound)
}

func TestLogger(t *testing.T) {
	h := newHarness()
	h.opener.Attach("/dev/i2c-1", ddctest.NewDisplay(50, 100))
	log := &recordingLogger{}

	_, err := h.engine(WithLogger(log)).GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-1"})
	require.NoError(t, err)
	assert.Contains(t, log.infos, "brightness read")

	_, err = h.engine(WithLogger(log)).GetBrightness(context.Background(), Selector{ExplicitPath: "/dev/i2c-2"})
	require.Error(t, err)
	assert.Contains(t, log.errors, "operation failed")
}

func TestNoDisplayErrorMessage(t *testing.T) {
	err := &NoDisplayError{Probed: []ProbeResult{{Path: "/dev/i2c-3", Status: StatusNoResponse}}}
	assert.Equal(t, "no DDC/CI display found: /dev/i2c-3: no response", err.Error())

	err = &NoDisplayError{Probed: make([]ProbeResult, 3)}
	assert.Equal(t, "no DDC/CI display found (probed 3 buses)", err.Error())
}
