// Package config holds polarviz settings: built-in defaults, an optional
// YAML file, and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	VariantClassic = "classic"
	VariantPulse   = "pulse"

	SourceMic  = "mic"
	SourceDemo = "demo"
	SourceFile = "file"

	// ClassicTopicID is the photo topic the classic variant always used.
	ClassicTopicID = "6sMVjTLSkeQ"
)

type AudioConfig struct {
	Source        string `yaml:"source"`
	Device        string `yaml:"device"`
	File          string `yaml:"file"`
	Loop          bool   `yaml:"loop"`
	SampleRate    int    `yaml:"sample_rate"`
	TransformSize int    `yaml:"fft_size"`
}

type VisualConfig struct {
	Variant       string        `yaml:"variant"`
	FPS           int           `yaml:"fps"`
	Slices        int           `yaml:"slices"`
	MaxFrequency  float64       `yaml:"max_frequency"`
	MaxJumpHeight float64       `yaml:"max_jump_height"`
	RotationStep  float64       `yaml:"rotation_step"`
	HistoryWindow time.Duration `yaml:"history_window"`
	Spring        bool          `yaml:"spring"`
	SnapshotDir   string        `yaml:"snapshot_dir"`
}

type SlideshowConfig struct {
	Enabled       bool          `yaml:"enabled"`
	APIURL        string        `yaml:"api_url"`
	Authorization string        `yaml:"authorization"`
	TopicID       string        `yaml:"topic_id"`
	TopicSlug     string        `yaml:"topic_slug"`
	BatchSize     int           `yaml:"batch_size"`
	Width         int           `yaml:"width"`
	Height        int           `yaml:"height"`
	Hold          time.Duration `yaml:"hold"`
	Hidden        time.Duration `yaml:"hidden"`
	Fade          time.Duration `yaml:"fade"`
	Dim           float64       `yaml:"dim"`
}

type Config struct {
	Audio     AudioConfig     `yaml:"audio"`
	Visual    VisualConfig    `yaml:"visual"`
	Slideshow SlideshowConfig `yaml:"slideshow"`
}

func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Source:        SourceMic,
			SampleRate:    48000,
			TransformSize: 8192,
		},
		Visual: VisualConfig{
			Variant:       VariantClassic,
			FPS:           60,
			Slices:        250,
			MaxFrequency:  2000,
			MaxJumpHeight: 100,
			RotationStep:  0.002,
			HistoryWindow: 30 * time.Second,
			SnapshotDir:   ".",
		},
		Slideshow: SlideshowConfig{
			Enabled:   true,
			APIURL:    "https://api.unsplash.com",
			TopicSlug: "wallpapers",
			BatchSize: 30,
			Width:     1920,
			Height:    1080,
			Hold:      10 * time.Second,
			Hidden:    50 * time.Second,
			Fade:      3 * time.Second,
			Dim:       0.5,
		},
	}
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// DefaultPaths lists the config file locations tried by TryLoadDefault.
func DefaultPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "polarviz", "config.yaml"),
		filepath.Join(home, ".config", "polarviz", "config.yml"),
		filepath.Join(home, ".polarviz.yaml"),
	}
}

// TryLoadDefault loads the first existing default config file. It returns
// the loaded path, or "" when none exists.
func (c *Config) TryLoadDefault() (string, error) {
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, c.LoadFile(p)
		}
	}
	return "", nil
}

// ApplyEnv applies environment overrides read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("UNSPLASH_AUTHORIZATION"); v != "" {
		c.Slideshow.Authorization = v
	}
	if v := getenv("POLARVIZ_API_URL"); v != "" {
		c.Slideshow.APIURL = v
	}
	if v := getenv("POLARVIZ_TOPIC"); v != "" {
		c.Slideshow.TopicID = v
	}
	if v := getenv("POLARVIZ_TOPIC_SLUG"); v != "" {
		c.Slideshow.TopicSlug = v
	}
	if v := getenv("POLARVIZ_VARIANT"); v != "" {
		c.Visual.Variant = strings.ToLower(strings.TrimSpace(v))
	}
	if v := getenv("POLARVIZ_FPS"); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLARVIZ_FPS: %w", err)
		}
		c.Visual.FPS = fps
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Visual.Variant {
	case VariantClassic, VariantPulse:
	default:
		errs = append(errs, fmt.Errorf("unknown variant %q (want %s or %s)", c.Visual.Variant, VariantClassic, VariantPulse))
	}
	switch c.Audio.Source {
	case SourceMic, SourceDemo:
	case SourceFile:
		if c.Audio.File == "" {
			errs = append(errs, errors.New("audio source file needs a file path"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown audio source %q", c.Audio.Source))
	}
	if c.Visual.FPS < 1 || c.Visual.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps must be between 1 and 240, got %d", c.Visual.FPS))
	}
	if n := c.Audio.TransformSize; n < 32 || n&(n-1) != 0 {
		errs = append(errs, fmt.Errorf("fft_size must be a power of two >= 32, got %d", n))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Visual.Slices < 1 {
		errs = append(errs, fmt.Errorf("slices must be positive, got %d", c.Visual.Slices))
	}
	if c.Visual.MaxFrequency <= 0 || c.Visual.MaxJumpHeight <= 0 {
		errs = append(errs, errors.New("max_frequency and max_jump_height must be positive"))
	}
	if c.Visual.HistoryWindow <= 0 {
		errs = append(errs, errors.New("history_window must be positive"))
	}
	if c.Slideshow.Enabled {
		if c.Slideshow.BatchSize < 1 || c.Slideshow.BatchSize > 30 {
			errs = append(errs, fmt.Errorf("batch_size must be between 1 and 30, got %d", c.Slideshow.BatchSize))
		}
		if c.Slideshow.Hold <= 0 || c.Slideshow.Hidden <= 0 || c.Slideshow.Fade < 0 {
			errs = append(errs, errors.New("slideshow hold and hidden must be positive"))
		}
	}
	return errors.Join(errs...)
}

// Topic picks the photo topic: an explicit ID wins, the classic variant
// falls back to its fixed topic, and the pulse variant resolves the slug.
func (c *Config) Topic() (id, slug string) {
	switch {
	case c.Slideshow.TopicID != "":
		return c.Slideshow.TopicID, ""
	case c.Visual.Variant == VariantClassic:
		return ClassicTopicID, ""
	default:
		return "", c.Slideshow.TopicSlug
	}
}
