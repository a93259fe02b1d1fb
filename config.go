// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package offscreen

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/offscreen/imagefile"
	"github.com/gogpu/offscreen/schedule"
	"github.com/gogpu/offscreen/sink"
	"github.com/gogpu/offscreen/surface"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
)

// OutputBase is the file name, without extension, of every output.
const OutputBase = "offscreen_output"

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("offscreen: invalid config")

// Strategy selects how a frame reaches the CPU.
type Strategy int

const (
	// StrategyFBO renders into a cached target owned by the pipeline.
	StrategyFBO Strategy = iota

	// StrategyGrab renders into the context's own surface and reads it
	// back. There is no target cache.
	StrategyGrab
)

func (s Strategy) String() string {
	switch s {
	case StrategyFBO:
		return "fbo"
	case StrategyGrab:
		return "grab"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "fbo":
		*s = StrategyFBO
	case "grab":
		*s = StrategyGrab
	default:
		return fmt.Errorf("offscreen: unknown strategy %q", b)
	}
	return nil
}

// Cadence is the render cadence as written in config files.
type Cadence struct {
	Mode               schedule.Mode `toml:"mode"`
	DebounceWindowMs   int           `toml:"debounce_window_ms"`
	PeriodicIntervalMs int           `toml:"periodic_interval_ms"`
	InitialDelayMs     int           `toml:"initial_delay_ms"`
}

// Schedule converts the cadence to a scheduler config.
func (c Cadence) Schedule() schedule.Config {
	return schedule.Config{
		Mode:             c.Mode,
		DebounceWindow:   time.Duration(c.DebounceWindowMs) * time.Millisecond,
		PeriodicInterval: time.Duration(c.PeriodicIntervalMs) * time.Millisecond,
		InitialDelay:     time.Duration(c.InitialDelayMs) * time.Millisecond,
	}
}

// Config is the complete renderer configuration.
type Config struct {
	// Scene is the path of the scene description.
	Scene string `toml:"scene"`

	// OutputDir receives the output files. Empty means the working
	// directory.
	OutputDir string `toml:"output_dir"`

	// PNG adds offscreen_output.png next to the BMP.
	PNG bool `toml:"png"`

	// Extra lists further formats to write on every frame.
	Extra []imagefile.Format `toml:"extra_formats"`

	// JPEGQuality applies when Extra contains jpeg.
	JPEGQuality int `toml:"jpeg_quality"`

	// Width and Height override the scene's natural size when positive.
	Width  int `toml:"width"`
	Height int `toml:"height"`

	// Backend names the surface backend, or "auto".
	Backend string `toml:"backend"`

	Strategy Strategy `toml:"strategy"`

	Cadence Cadence `toml:"cadence"`

	// Surface is fixed before the context is created.
	Surface surface.Format `toml:"surface"`

	// Watch reloads the scene when its file changes.
	Watch bool `toml:"watch"`

	// Once renders a single frame and returns.
	Once bool `toml:"once"`
}

// DefaultConfig returns the default configuration: debounced cadence
// (100ms window, 1000ms interval, 100ms initial delay), automatic backend,
// FBO strategy and a BMP written to the working directory.
func DefaultConfig() Config {
	return Config{
		Backend:  surface.Auto,
		Strategy: StrategyFBO,
		Cadence: Cadence{
			Mode:               schedule.ModeDebounced,
			DebounceWindowMs:   int(schedule.DefaultDebounceWindow / time.Millisecond),
			PeriodicIntervalMs: int(schedule.DefaultPeriodicInterval / time.Millisecond),
			InitialDelayMs:     int(schedule.DefaultInitialDelay / time.Millisecond),
		},
		Surface:     surface.DefaultFormat(),
		JPEGQuality: imagefile.DefaultJPEGQuality,
	}
}

// LoadConfig reads a TOML config file over the defaults. A relative scene
// path is resolved against the file's directory. The result is not
// validated, so flags may still complete it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	path, err := homedir.Expand(path)
	if err != nil {
		return cfg, err
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := toml.NewDecoder(bufio.NewReader(f))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	if cfg.Scene != "" && !filepath.IsAbs(cfg.Scene) && !strings.HasPrefix(cfg.Scene, "~") {
		cfg.Scene = filepath.Join(filepath.Dir(path), cfg.Scene)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Scene == "" {
		return fmt.Errorf("%w: no scene", ErrInvalidConfig)
	}
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	}
	if c.Strategy != StrategyFBO && c.Strategy != StrategyGrab {
		return fmt.Errorf("%w: strategy %v", ErrInvalidConfig, c.Strategy)
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("%w: jpeg quality %d", ErrInvalidConfig, c.JPEGQuality)
	}
	for _, f := range c.Extra {
		if f == imagefile.None {
			return fmt.Errorf("%w: empty output format", ErrInvalidConfig)
		}
	}
	if err := c.Cadence.Schedule().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Surface.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Outputs returns the files written for every frame: the BMP first, then
// the PNG when enabled, then the extra formats. Duplicates are dropped.
func (c Config) Outputs() ([]sink.Output, error) {
	dir, err := homedir.Expand(c.OutputDir)
	if err != nil {
		return nil, err
	}
	formats := []imagefile.Format{imagefile.BMP}
	if c.PNG {
		formats = append(formats, imagefile.PNG)
	}
	formats = append(formats, c.Extra...)

	seen := make(map[imagefile.Format]bool, len(formats))
	var outputs []sink.Output
	for _, f := range formats {
		if seen[f] {
			continue
		}
		seen[f] = true
		outputs = append(outputs, sink.Output{
			Path:   filepath.Join(dir, OutputBase+f.Ext()),
			Format: f,
		})
	}
	return outputs, nil
}
