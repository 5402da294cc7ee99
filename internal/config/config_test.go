package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "missing")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BindHost != "127.0.0.1" {
		t.Errorf("BindHost = %q, want 127.0.0.1", cfg.BindHost)
	}
	if cfg.ChunkSize != 32768 {
		t.Errorf("ChunkSize = %d, want 32768", cfg.ChunkSize)
	}
	if cfg.DialTimeout != 10*time.Second {
		t.Errorf("DialTimeout = %v, want 10s", cfg.DialTimeout)
	}
	if cfg.StartLimit != 20 || cfg.StartWindow != time.Minute {
		t.Errorf("start limit = %d per %v, want 20 per 1m", cfg.StartLimit, cfg.StartWindow)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := chdirTemp(t)
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	yaml := "port: 9100\nusername: file-user\nwrite_timeout: 2s\nreplay_dir: /from/file\n"
	if err := os.WriteFile(filepath.Join(dir, "config", "config.test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_ENV", "test")
	t.Setenv("REPLAYRELAY_USERNAME", "env-user")

	cfg, err := Load([]string{"--replay_dir", "/from/flag"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port)
	}
	if cfg.Username != "env-user" {
		t.Errorf("Username = %q, want env-user", cfg.Username)
	}
	if cfg.WriteTimeout != 2*time.Second {
		t.Errorf("WriteTimeout = %v, want 2s", cfg.WriteTimeout)
	}
	if cfg.ReplayDir != "/from/flag" {
		t.Errorf("ReplayDir = %q, want /from/flag", cfg.ReplayDir)
	}
}

func TestLoad_RejectsNonPositiveChunkSize(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("REPLAYRELAY_CHUNK_SIZE", "0")

	if _, err := Load(nil); err == nil {
		t.Fatal("expected error for chunk_size 0")
	}
}
