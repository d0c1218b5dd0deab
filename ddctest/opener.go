package ddctest

import (
	"io/fs"
	"os"
	"sort"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Opener serves simulated displays by device path. Paths with neither a
// display nor an error behave like missing device nodes.
type Opener struct {
	displays map[string]*Display
	errs     map[string]error
	opened   []string
}

// NewOpener returns an empty Opener.
func NewOpener() *Opener {
	return &Opener{
		displays: make(map[string]*Display),
		errs:     make(map[string]error),
	}
}

// Attach serves d at path.
func (o *Opener) Attach(path string, d *Display) *Opener {
	o.displays[path] = d
	return o
}

// FailOpen makes opening path fail with err, typically a *os.PathError
// around syscall.EACCES or syscall.EBUSY.
func (o *Opener) FailOpen(path string, err error) *Opener {
	o.errs[path] = err
	return o
}

// Opened returns every path passed to Open, in order.
func (o *Opener) Opened() []string {
	return o.opened
}

// Paths returns the attached and failing paths, sorted.
func (o *Opener) Paths() []string {
	var out []string
	for p := range o.displays {
		out = append(out, p)
	}
	for p := range o.errs {
		if _, ok := o.displays[p]; !ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// Open implements channel.Opener.
func (o *Opener) Open(path string) (i2c.BusCloser, error) {
	o.opened = append(o.opened, path)

	if err := o.errs[path]; err != nil {
		return nil, err
	}
	d, ok := o.displays[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}

	d.opens++
	return &handle{display: d}, nil
}

// handle is one open of a Display.
type handle struct {
	display *Display
	closed  bool
}

func (h *handle) String() string                    { return h.display.String() }
func (h *handle) SetSpeed(f physic.Frequency) error { return h.display.SetSpeed(f) }

func (h *handle) Tx(addr uint16, w, r []byte) error {
	if h.closed {
		return os.ErrClosed
	}
	return h.display.Tx(addr, w, r)
}

func (h *handle) Close() error {
	if h.closed {
		return os.ErrClosed
	}
	h.closed = true
	h.display.closes++
	return nil
}
