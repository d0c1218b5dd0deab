package bus

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ResolveConnector returns the I2C device node carrying the DDC channel of
// the DRM connector name, such as "DP-1" or "HDMI-A-2".
//
// Three sysfs layouts are recognised, in this order:
//   - amdgpu: an i2c-N entry directly in the connector directory
//   - a ddc symlink pointing at the i2c-N adapter
//   - i915: ddc/i2c-dev/i2c-N below the connector directory
func (e *Enumerator) ResolveConnector(name string) (string, error) {
	if strings.HasPrefix(name, "eDP") {
		return "", errors.Wrap(ErrEmbeddedPanel, name)
	}

	matches, err := afero.Glob(e.fs, filepath.Join(e.drmSysDir, "card*-"+name))
	if err != nil {
		return "", errors.Wrapf(err, "scan %s", e.drmSysDir)
	}
	if len(matches) == 0 {
		return "", errors.Wrap(ErrConnectorNotFound, name)
	}

	dev, err := e.ddcDevice(matches[0])
	if err != nil {
		return "", errors.Wrap(err, name)
	}
	return filepath.Join(e.devDir, dev), nil
}

// ddcDevice returns the i2c-N name of the DDC bus of a connector directory.
func (e *Enumerator) ddcDevice(dir string) (string, error) {
	if entries, err := afero.ReadDir(e.fs, dir); err == nil {
		for _, entry := range entries {
			if _, ok := busNumber(entry.Name()); ok {
				return entry.Name(), nil
			}
		}
	}

	if lr, ok := e.fs.(afero.LinkReader); ok {
		if target, err := lr.ReadlinkIfPossible(filepath.Join(dir, "ddc")); err == nil {
			if _, ok := busNumber(filepath.Base(target)); ok {
				return filepath.Base(target), nil
			}
		}
	}

	if entries, err := afero.ReadDir(e.fs, filepath.Join(dir, "ddc", "i2c-dev")); err == nil {
		for _, entry := range entries {
			if _, ok := busNumber(entry.Name()); ok {
				return entry.Name(), nil
			}
		}
	}

	return "", ErrNoDDCChannel
}

// connectedOutputs maps bus numbers to the names of connected, non-eDP
// connectors whose DDC channel they carry.
func (e *Enumerator) connectedOutputs() map[int]string {
	out := make(map[int]string)

	dirs, err := afero.Glob(e.fs, filepath.Join(e.drmSysDir, "card*-*"))
	if err != nil {
		return out
	}

	for _, dir := range dirs {
		_, connector, ok := strings.Cut(filepath.Base(dir), "-")
		if !ok || strings.HasPrefix(connector, "eDP") {
			continue
		}

		status, err := afero.ReadFile(e.fs, filepath.Join(dir, "status"))
		if err != nil || strings.TrimSpace(string(status)) != "connected" {
			continue
		}

		dev, err := e.ddcDevice(dir)
		if err != nil {
			continue
		}
		n, _ := busNumber(dev)
		if _, taken := out[n]; !taken {
			out[n] = connector
		}
	}

	return out
}
