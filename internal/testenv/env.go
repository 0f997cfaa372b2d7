package testenv

import "path/filepath"

// Dirs contains isolated directories for pulseline config/cache/state in tests.
type Dirs struct {
	Base   string
	Config string
	Cache  string
	State  string
}

// PulselineDirs returns conventional test directories rooted at base.
func PulselineDirs(base string) Dirs {
	return Dirs{
		Base:   base,
		Config: filepath.Join(base, "config"),
		Cache:  filepath.Join(base, "cache"),
		State:  filepath.Join(base, "state"),
	}
}

// Apply sets PULSELINE_* env vars to isolated test directories.
func Apply(setenv func(string, string), base string) Dirs {
	dirs := PulselineDirs(base)
	setenv("PULSELINE_CONFIG_DIR", dirs.Config)
	setenv("PULSELINE_CACHE_DIR", dirs.Cache)
	setenv("PULSELINE_STATE_DIR", dirs.State)
	return dirs
}
