package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSegmentSeconds = 60
	DefaultAlbum          = "Split Videos"

	BackendLocal = "local"
	BackendS3    = "s3"
)

type Profile struct {
	SegmentSeconds int  `yaml:"segmentSeconds"`
	AutoSave       bool `yaml:"autoSave"`
}

type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

type Config struct {
	WatchDirs []string `yaml:"watchDirs"`

	SegmentSeconds int                `yaml:"segmentSeconds"`
	WorkDir        string             `yaml:"workDir"`
	LibraryDir     string             `yaml:"libraryDir"`
	Album          string             `yaml:"album"`
	AlbumRoot      string             `yaml:"albumRoot"`
	Backend        string             `yaml:"backend"`
	S3             S3                 `yaml:"s3"`
	AutoSave       bool               `yaml:"autoSave"`
	Extensions     []string           `yaml:"extensions"`
	Keywords       []string           `yaml:"keywords"`
	IgnoreKeywords []string           `yaml:"ignoreKeywords"`
	FFmpegBin      string             `yaml:"ffmpegBin"`
	FFprobeBin     string             `yaml:"ffprobeBin"`
	Concurrent     int                `yaml:"concurrent"`
	Notify         bool               `yaml:"notify"`
	LogFile        string             `yaml:"logFile"`
	DryRun         bool               `yaml:"dryRun"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

func NewDefault() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home, _ = os.Getwd()
	}
	defaultConcurrent := runtime.NumCPU() / 2
	if defaultConcurrent < 1 {
		defaultConcurrent = 1
	}

	return &Config{
		SegmentSeconds: DefaultSegmentSeconds,
		WorkDir:        filepath.Join(home, ".local", "share", "split-video", "split-videos"),
		LibraryDir:     filepath.Join(home, "Movies"),
		Album:          DefaultAlbum,
		AlbumRoot:      filepath.Join(home, "Movies"),
		Backend:        BackendLocal,
		S3:             S3{Region: "us-east-1"},
		Extensions:     []string{"mp4", "mov", "m4v", "avi", "mkv"},
		FFmpegBin:      "ffmpeg",
		FFprobeBin:     "ffprobe",
		Concurrent:     defaultConcurrent,
		Notify:         true,
	}
}

// Path returns the location of config.yaml under the user's home.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "split-video", "config.yaml"), nil
}

func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		cfg := NewDefault()
		applyEnv(cfg)
		return cfg, nil // ホームディレクトリが取れなくてもデフォルトで進む
	}
	return LoadFile(path)
}

// LoadFile reads path on top of the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewDefault()

	// .env is optional; it only feeds the SPLIT_VIDEO_* overrides below.
	_ = godotenv.Load()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		applyEnv(cfg)
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnv(cfg)
	cfg.expandPaths()
	return cfg, nil
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ApplyProfile copies the non-zero fields of the named profile.
func (c *Config) ApplyProfile(name string) bool {
	p, ok := c.Profiles[name]
	if !ok {
		return false
	}
	if p.SegmentSeconds > 0 {
		c.SegmentSeconds = p.SegmentSeconds
	}
	if p.AutoSave {
		c.AutoSave = true
	}
	return true
}

func (c *Config) Validate() error {
	if c.SegmentSeconds <= 0 {
		return fmt.Errorf("segmentSeconds must be positive, got %d", c.SegmentSeconds)
	}
	if strings.TrimSpace(c.Album) == "" {
		return fmt.Errorf("album must not be empty")
	}
	switch c.Backend {
	case "", BackendLocal:
	case BackendS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("s3 backend requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

func applyEnv(c *Config) {
	env := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }

	if v := env("SPLIT_VIDEO_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := env("SPLIT_VIDEO_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := env("SPLIT_VIDEO_S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := env("SPLIT_VIDEO_S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKey = v
	}
	if v := env("SPLIT_VIDEO_S3_SECRET_KEY"); v != "" {
		c.S3.SecretKey = v
	}
	if v := env("SPLIT_VIDEO_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.S3.UseSSL = b
		}
	}
	if v := env("SPLIT_VIDEO_BACKEND"); v != "" {
		c.Backend = v
	}
}

func (c *Config) expandPaths() {
	c.WorkDir = ExpandHome(c.WorkDir)
	c.LibraryDir = ExpandHome(c.LibraryDir)
	c.AlbumRoot = ExpandHome(c.AlbumRoot)
	c.LogFile = ExpandHome(c.LogFile)
	for i, d := range c.WatchDirs {
		c.WatchDirs[i] = ExpandHome(d)
	}
}

// ExpandHome resolves a leading "~" or "~/" against the home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
