// Package bus finds the I2C buses that may carry a monitor's DDC channel.
package bus

import (
	"cmp"
	"iter"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Default locations of the device and sysfs trees.
const (
	DefaultDevDir    = "/dev"
	DefaultI2CSysDir = "/sys/bus/i2c/devices"
	DefaultDRMSysDir = "/sys/class/drm"
)

// Enumerator scans the system's I2C device namespace.
type Enumerator struct {
	fs        afero.Fs
	devDir    string
	i2cSysDir string
	drmSysDir string
}

// Option configures an Enumerator.
type Option func(*Enumerator)

// WithDevDir sets the directory holding i2c-N device nodes.
func WithDevDir(dir string) Option {
	return func(e *Enumerator) {
		e.devDir = dir
	}
}

// WithI2CSysDir sets the sysfs directory holding i2c-N adapter entries.
func WithI2CSysDir(dir string) Option {
	return func(e *Enumerator) {
		e.i2cSysDir = dir
	}
}

// WithDRMSysDir sets the sysfs directory holding DRM connectors.
func WithDRMSysDir(dir string) Option {
	return func(e *Enumerator) {
		e.drmSysDir = dir
	}
}

// NewEnumerator returns an Enumerator reading from fs. Pass afero.NewOsFs()
// for the real system.
func NewEnumerator(fs afero.Fs, opts ...Option) *Enumerator {
	e := &Enumerator{
		fs:        fs,
		devDir:    DefaultDevDir,
		i2cSysDir: DefaultI2CSysDir,
		drmSysDir: DefaultDRMSysDir,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Candidates returns the I2C buses in probing order: buses linked from a
// connected DRM output first, then adapters named like GPU DDC controllers,
// then every other adapter. Within a tier buses are ordered by number.
//
// The sequence opens nothing. Adapter names and DRM links are read each time
// it is iterated, so it can be ranged over again after a hotplug.
// ErrNoCandidatesFound is returned when there are no i2c-N nodes at all.
func (e *Enumerator) Candidates() (iter.Seq[Candidate], error) {
	paths, err := afero.Glob(e.fs, filepath.Join(e.devDir, "i2c-*"))
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", e.devDir)
	}

	var found []Candidate
	for _, p := range paths {
		n, ok := busNumber(filepath.Base(p))
		if !ok {
			continue
		}
		found = append(found, Candidate{Path: p, Number: n})
	}
	if len(found) == 0 {
		return nil, ErrNoCandidatesFound
	}

	return func(yield func(Candidate) bool) {
		for _, c := range e.annotate(found) {
			if !yield(c) {
				return
			}
		}
	}, nil
}

// annotate returns a sorted copy of found with adapter and connector details.
func (e *Enumerator) annotate(found []Candidate) []Candidate {
	connectors := e.connectedOutputs()

	out := make([]Candidate, len(found))
	for i, c := range found {
		c.Adapter = e.adapterName(c.Number)
		c.Vendor = VendorOf(c.Adapter)
		c.Connector = connectors[c.Number]
		out[i] = c
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if t := cmp.Compare(a.tier(), b.tier()); t != 0 {
			return t
		}
		return cmp.Compare(a.Number, b.Number)
	})
	return out
}

// adapterName reads /sys/bus/i2c/devices/i2c-N/name.
func (e *Enumerator) adapterName(n int) string {
	data, err := afero.ReadFile(e.fs, filepath.Join(e.i2cSysDir, "i2c-"+strconv.Itoa(n), "name"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
