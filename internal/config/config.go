// Package config resolves pexboot's cache root and tunables from the
// environment, with an optional TOML file as a lower-priority override.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	// EnvCacheDir overrides the cache root directory entirely.
	EnvCacheDir = "PEXBOOT_CACHE_DIR"

	// EnvWorkerCap is read by Load into Config.WorkerCap. Nothing in pexboot
	// passes that value on: the zip layer uses its default worker count.
	EnvWorkerCap = "PEXBOOT_WORKER_CAP"

	// EnvProbeTimeout is read by ProbeTimeout. The interpreter probe
	// subprocess does not consult it and runs without a timeout.
	EnvProbeTimeout = "PEXBOOT_PROBE_TIMEOUT"

	// DefaultProbeTimeoutSeconds is used when EnvProbeTimeout is unset or invalid.
	DefaultProbeTimeoutSeconds = 30
)

// FileConfig is the shape of the optional ~/.config/pexboot/config.toml
// override file. Every field is optional; zero values mean "not set".
type FileConfig struct {
	CacheDir       string   `toml:"cache_dir"`
	WorkerCap      int      `toml:"worker_cap"`
	ExtraSearchDir []string `toml:"extra_interpreter_dirs"`
}

// Config holds the resolved configuration for a single pexboot invocation.
type Config struct {
	// CacheRoot is the top-level directory under which interpreters/ and
	// venvs/ are materialized. See pexboot's persisted state layout.
	CacheRoot string

	// WorkerCap is the worker cap from EnvWorkerCap or the TOML file; zero
	// means unset. No caller passes it to zip extraction, which always uses
	// min(work, NumCPU()) workers.
	WorkerCap int

	// ExtraSearchDirs is the extra_interpreter_dirs list from the TOML file.
	// No command searches these directories.
	ExtraSearchDirs []string
}

// Load resolves configuration from the environment, falling back to the
// TOML file at configFilePath (ignored if absent), falling back to
// built-in defaults.
func Load(configFilePath string) (*Config, error) {
	var file FileConfig
	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err == nil {
			if _, err := toml.DecodeFile(configFilePath, &file); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configFilePath, err)
			}
		}
	}

	cfg := &Config{
		CacheRoot:       file.CacheDir,
		WorkerCap:       file.WorkerCap,
		ExtraSearchDirs: file.ExtraSearchDir,
	}

	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.CacheRoot = v
	}
	if cfg.CacheRoot == "" {
		root, err := defaultCacheRoot()
		if err != nil {
			return nil, err
		}
		cfg.CacheRoot = root
	}

	if v := os.Getenv(EnvWorkerCap); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fmt.Fprintf(os.Stderr, "pexboot: warning: invalid %s value %q, ignoring\n", EnvWorkerCap, v)
		} else {
			cfg.WorkerCap = n
		}
	}

	return cfg, nil
}

// DefaultConfigFilePath returns the conventional location of the optional
// TOML override file, or "" if the home directory can't be determined.
func DefaultConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pexboot", "config.toml")
}

// defaultCacheRoot follows XDG_CACHE_HOME on POSIX and the platform's
// conventional cache directory elsewhere.
func defaultCacheRoot() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" && runtime.GOOS != "windows" {
		return filepath.Join(xdg, "pexboot"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving default cache root: %w", err)
	}
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "pexboot", "Cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "pexboot", "Cache"), nil
	}
	return filepath.Join(home, ".cache", "pexboot"), nil
}

// ProbeTimeout returns the configured interpreter-probe timeout in seconds.
func ProbeTimeout() int {
	v := os.Getenv(EnvProbeTimeout)
	if v == "" {
		return DefaultProbeTimeoutSeconds
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return DefaultProbeTimeoutSeconds
	}
	return n
}

// ScratchDir returns os.TempDir(), which honors TMPDIR (TMP/TEMP on
// Windows). CreateAtomic does not use it: its scratch directories are
// created beside the cache entry they will replace.
func ScratchDir() string {
	return os.TempDir()
}
