package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenNoFileOrEnv(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	t.Setenv(EnvWorkerCap, "")
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.CacheRoot == "" {
		t.Error("CacheRoot must default to a non-empty path")
	}
	if cfg.WorkerCap != 0 {
		t.Errorf("WorkerCap = %d, want 0 (unset)", cfg.WorkerCap)
	}
}

func TestLoadHonorsEnvCacheDir(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/custom-pexboot-cache")
	t.Setenv(EnvWorkerCap, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.CacheRoot != "/tmp/custom-pexboot-cache" {
		t.Errorf("CacheRoot = %q, want %q", cfg.CacheRoot, "/tmp/custom-pexboot-cache")
	}
}

func TestLoadHonorsEnvWorkerCap(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/custom-pexboot-cache")
	t.Setenv(EnvWorkerCap, "4")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.WorkerCap != 4 {
		t.Errorf("WorkerCap = %d, want 4", cfg.WorkerCap)
	}
}

func TestLoadIgnoresInvalidEnvWorkerCap(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/custom-pexboot-cache")
	t.Setenv(EnvWorkerCap, "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.WorkerCap != 0 {
		t.Errorf("WorkerCap = %d, want 0 (invalid value ignored)", cfg.WorkerCap)
	}
}

func TestLoadReadsTomlFile(t *testing.T) {
	t.Setenv(EnvCacheDir, "")
	t.Setenv(EnvWorkerCap, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
cache_dir = "/tmp/from-file"
worker_cap = 8
extra_interpreter_dirs = ["/opt/pythons/bin"]
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.CacheRoot != "/tmp/from-file" {
		t.Errorf("CacheRoot = %q, want %q", cfg.CacheRoot, "/tmp/from-file")
	}
	if cfg.WorkerCap != 8 {
		t.Errorf("WorkerCap = %d, want 8", cfg.WorkerCap)
	}
	if len(cfg.ExtraSearchDirs) != 1 || cfg.ExtraSearchDirs[0] != "/opt/pythons/bin" {
		t.Errorf("ExtraSearchDirs = %v, want [/opt/pythons/bin]", cfg.ExtraSearchDirs)
	}
}

func TestLoadEnvOverridesTomlFile(t *testing.T) {
	t.Setenv(EnvWorkerCap, "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`cache_dir = "/tmp/from-file"`), 0o644); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}
	t.Setenv(EnvCacheDir, "/tmp/from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.CacheRoot != "/tmp/from-env" {
		t.Errorf("CacheRoot = %q, want env value to win over file value", cfg.CacheRoot)
	}
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	t.Setenv(EnvCacheDir, "/tmp/custom-pexboot-cache")
	t.Setenv(EnvWorkerCap, "")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load() with missing file should not error, got: %v", err)
	}
	if cfg.CacheRoot != "/tmp/custom-pexboot-cache" {
		t.Errorf("CacheRoot = %q, want %q", cfg.CacheRoot, "/tmp/custom-pexboot-cache")
	}
}

func TestProbeTimeoutDefaultsAndParsesEnv(t *testing.T) {
	t.Setenv(EnvProbeTimeout, "")
	if got := ProbeTimeout(); got != DefaultProbeTimeoutSeconds {
		t.Errorf("ProbeTimeout() = %d, want default %d", got, DefaultProbeTimeoutSeconds)
	}

	t.Setenv(EnvProbeTimeout, "90")
	if got := ProbeTimeout(); got != 90 {
		t.Errorf("ProbeTimeout() = %d, want 90", got)
	}

	t.Setenv(EnvProbeTimeout, "-5")
	if got := ProbeTimeout(); got != DefaultProbeTimeoutSeconds {
		t.Errorf("ProbeTimeout() with negative value = %d, want default %d", got, DefaultProbeTimeoutSeconds)
	}
}

func TestDefaultConfigFilePathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := DefaultConfigFilePath()
	want := filepath.Join(home, ".config", "pexboot", "config.toml")
	if path != want {
		t.Errorf("DefaultConfigFilePath() = %q, want %q", path, want)
	}
}
