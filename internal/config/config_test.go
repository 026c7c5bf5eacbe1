package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDefault(t *testing.T) {
	cfg := NewDefault()
	if cfg.Concurrent < 1 {
		t.Errorf("expected concurrent >= 1, got %d", cfg.Concurrent)
	}
	if cfg.SegmentSeconds != 60 {
		t.Errorf("expected default segment 60, got %d", cfg.SegmentSeconds)
	}
	if cfg.Album != "Split Videos" {
		t.Errorf("expected default album 'Split Videos', got %q", cfg.Album)
	}
	if cfg.Backend != BackendLocal {
		t.Errorf("expected local backend, got %q", cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Chdir(tempDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := filepath.Join(tempDir, ".local", "share", "split-video", "split-videos")
	if cfg.WorkDir != want {
		t.Errorf("expected work dir %s, got %s", want, cfg.WorkDir)
	}
}

func TestLoad_WithFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("HOME", tempDir)
	t.Chdir(tempDir)

	configDir := filepath.Join(tempDir, ".config", "split-video")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}

	yamlContent := `
segmentSeconds: 30
album: Clips
workDir: ~/work
keywords:
  - test
profiles:
  reels:
    segmentSeconds: 15
    autoSave: true
`
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(yamlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.SegmentSeconds != 30 {
		t.Errorf("expected segment 30, got %d", cfg.SegmentSeconds)
	}
	if cfg.Album != "Clips" {
		t.Errorf("expected album Clips, got %s", cfg.Album)
	}
	if cfg.WorkDir != filepath.Join(tempDir, "work") {
		t.Errorf("expected ~ expansion, got %s", cfg.WorkDir)
	}
	if len(cfg.Keywords) != 1 || cfg.Keywords[0] != "test" {
		t.Errorf("expected keywords [test], got %v", cfg.Keywords)
	}

	if !cfg.ApplyProfile("reels") {
		t.Fatal("expected profile reels to exist")
	}
	if cfg.SegmentSeconds != 15 || !cfg.AutoSave {
		t.Errorf("profile not applied: segment=%d autoSave=%v", cfg.SegmentSeconds, cfg.AutoSave)
	}
	if cfg.ApplyProfile("missing") {
		t.Error("expected missing profile to report false")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	tempDir := t.TempDir()
	t.Chdir(tempDir)
	path := filepath.Join(tempDir, "config.yaml")
	if err := os.WriteFile(path, []byte("segmentSeconds: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	t.Chdir(tempDir)
	t.Setenv("SPLIT_VIDEO_BACKEND", "s3")
	t.Setenv("SPLIT_VIDEO_S3_ENDPOINT", "localhost:9000")
	t.Setenv("SPLIT_VIDEO_S3_BUCKET", "videos")
	t.Setenv("SPLIT_VIDEO_S3_USE_SSL", "true")

	cfg, err := LoadFile(filepath.Join(tempDir, "none.yaml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Backend != BackendS3 || cfg.S3.Endpoint != "localhost:9000" || cfg.S3.Bucket != "videos" || !cfg.S3.UseSSL {
		t.Errorf("env overrides not applied: %+v", cfg.S3)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid s3 config: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero segment", func(c *Config) { c.SegmentSeconds = 0 }},
		{"empty album", func(c *Config) { c.Album = "  " }},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Backend = BackendS3; c.S3.Endpoint = "x" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefault()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := NewDefault()
	cfg.SegmentSeconds = 45
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got.SegmentSeconds != 45 {
		t.Errorf("expected 45, got %d", got.SegmentSeconds)
	}
}
