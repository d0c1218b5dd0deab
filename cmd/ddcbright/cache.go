package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// busCache records the last bus a display answered on.
type busCache struct {
	Bus        string    `yaml:"bus"`
	VerifiedAt time.Time `yaml:"verified_at"`
}

// loadCache reads the cache at path. A missing file is an empty cache.
func loadCache(fs afero.Fs, path string) (busCache, error) {
	var c busCache

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, errors.Wrap(err, "read bus cache")
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return busCache{}, errors.Wrapf(err, "parse bus cache %s", path)
	}
	return c, nil
}

// saveCache writes c to path, replacing any previous cache atomically.
func saveCache(fs afero.Fs, path string, c busCache) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode bus cache")
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write bus cache")
	}
	if err := fs.Rename(tmp, path); err != nil {
		fs.Remove(tmp)
		return errors.Wrap(err, "write bus cache")
	}
	return nil
}
