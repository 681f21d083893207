// Package config loads player settings from a TOML file with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-neural/common"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Environment variables read by ApplyEnv.
const (
	EnvSelection  = "OXY_SELECTION"
	EnvKernelsDir = "OXY_KERNELS_DIR"
	EnvTarget     = "OXY_TARGET"
)

// Config is the full player configuration.
type Config struct {
	Engine  Engine  `toml:"engine"`
	Kernels Kernels `toml:"kernels"`
	Device  Device  `toml:"device"`
	Display Display `toml:"display"`
}

// Engine holds pipeline selection and pacing.
type Engine struct {
	Selection    string  `toml:"selection"`
	TargetWidth  int     `toml:"target_width"`
	TargetHeight int     `toml:"target_height"`
	FrameRate    float64 `toml:"frame_rate"`
	Profiling    bool    `toml:"profiling"`
}

// Kernels locates the convolution kernel library.
type Kernels struct {
	Dir      string `toml:"dir"`
	Validate bool   `toml:"validate"`
}

// Device selects the adapter.
type Device struct {
	ForceSoftware bool `toml:"force_software"`
	MaxTextures   int  `toml:"max_textures"`
}

// Display configures the window and the compare view.
type Display struct {
	Title      string  `toml:"title"`
	Width      int     `toml:"width"`
	Height     int     `toml:"height"`
	VSync      bool    `toml:"vsync"`
	Compare    bool    `toml:"compare"`
	SplitRatio float32 `toml:"split_ratio"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: Engine{
			Selection: "Original",
		},
		Kernels: Kernels{
			Dir:      "kernels",
			Validate: true,
		},
		Device: Device{
			MaxTextures: 16,
		},
		Display: Display{
			Title:      "neuralplay",
			Width:      1280,
			Height:     720,
			VSync:      true,
			SplitRatio: 0.5,
		},
	}
}

// Load reads path over the defaults and applies the environment. An empty path skips the file.
//
// Parameters:
//   - path: the TOML file, or ""
//
// Returns:
//   - Config: the merged configuration
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := Decode(data, &cfg); err != nil {
			return cfg, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode merges TOML data into cfg. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	return toml.Marshal(cfg)
}

// ApplyEnv overrides fields from environment variables read through getenv.
//
// Parameters:
//   - getenv: the variable lookup, normally os.Getenv
//
// Returns:
//   - error: an error if OXY_TARGET is not of the form WxH
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := envVar(getenv, EnvSelection); v != "" {
		c.Engine.Selection = v
	}
	if v := envVar(getenv, EnvKernelsDir); v != "" {
		c.Kernels.Dir = v
	}
	if v := envVar(getenv, EnvTarget); v != "" {
		d, err := ParseDimensions(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTarget, err)
		}
		c.Engine.TargetWidth, c.Engine.TargetHeight = d.Width, d.Height
	}
	return nil
}

// Target returns the configured display target, or empty Dimensions when unset.
func (c Config) Target() common.Dimensions {
	return common.Dims(c.Engine.TargetWidth, c.Engine.TargetHeight)
}

// Validate rejects values the player cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Engine.Selection == "":
		return fmt.Errorf("%w: engine.selection is empty", ErrInvalid)
	case c.Engine.TargetWidth < 0 || c.Engine.TargetHeight < 0:
		return fmt.Errorf("%w: negative target %dx%d", ErrInvalid, c.Engine.TargetWidth, c.Engine.TargetHeight)
	case (c.Engine.TargetWidth == 0) != (c.Engine.TargetHeight == 0):
		return fmt.Errorf("%w: target %dx%d sets only one dimension", ErrInvalid, c.Engine.TargetWidth, c.Engine.TargetHeight)
	case c.Engine.FrameRate < 0:
		return fmt.Errorf("%w: negative frame rate %v", ErrInvalid, c.Engine.FrameRate)
	case c.Kernels.Dir == "":
		return fmt.Errorf("%w: kernels.dir is empty", ErrInvalid)
	case c.Device.MaxTextures < 0:
		return fmt.Errorf("%w: negative device.max_textures", ErrInvalid)
	case c.Display.Width <= 0 || c.Display.Height <= 0:
		return fmt.Errorf("%w: display size %dx%d", ErrInvalid, c.Display.Width, c.Display.Height)
	case c.Display.SplitRatio < 0 || c.Display.SplitRatio > 1:
		return fmt.Errorf("%w: split_ratio %v outside [0, 1]", ErrInvalid, c.Display.SplitRatio)
	}
	return nil
}

// ParseDimensions parses "WxH" into positive dimensions.
func ParseDimensions(s string) (common.Dimensions, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return common.Dimensions{}, fmt.Errorf("%w: %q is not WxH", ErrInvalid, s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return common.Dimensions{}, fmt.Errorf("%w: width in %q: %v", ErrInvalid, s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return common.Dimensions{}, fmt.Errorf("%w: height in %q: %v", ErrInvalid, s, err)
	}
	d := common.Dims(width, height)
	if d.Empty() {
		return common.Dimensions{}, fmt.Errorf("%w: %q has a non-positive dimension", ErrInvalid, s)
	}
	return d, nil
}

func envVar(getenv func(string) string, key string) string {
	return strings.Trim(strings.TrimSpace(getenv(key)), "\"'")
}
