// Package config loads observation settings from YAML files and resolves
// them into pipeline configurations.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/robin-janssen/rubix/galaxy"
	"github.com/robin-janssen/rubix/ifu"
	"github.com/robin-janssen/rubix/telescope"
)

// ErrInvalid reports a configuration that cannot be resolved into a
// runnable observation.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the YAML observation configuration.
type Config struct {
	Observation struct {
		// ApertureWidth is the extent of the square field, in the
		// coordinate units of the particle set.
		ApertureWidth float64 `yaml:"apertureWidth"`

		// Bins is the number of spaxels per side.
		Bins int `yaml:"bins"`

		// VelocityMin and VelocityMax bound the channel axis in km/s.
		VelocityMin float64 `yaml:"velocityMin"`
		VelocityMax float64 `yaml:"velocityMax"`

		// Channels is the number of spectral channels.
		Channels int `yaml:"channels"`
	} `yaml:"observation"`

	Rotation RotationConfig `yaml:"rotation"`

	PSF struct {
		Enabled bool    `yaml:"enabled"`
		Size    int     `yaml:"size"`
		Spread  float64 `yaml:"spread"`
	} `yaml:"psf"`

	LSF struct {
		Enabled bool    `yaml:"enabled"`
		Length  int     `yaml:"length"`
		Sigma   float64 `yaml:"sigma"`
	} `yaml:"lsf"`

	Galaxy struct {
		// Particles and Seed control the mock disk.
		Particles int   `yaml:"particles"`
		Seed      int64 `yaml:"seed"`

		// Align recenters and rotates the disk face-on before observing.
		Align          bool    `yaml:"align"`
		HalfmassRadius float64 `yaml:"halfmassRadius"`

		Disk struct {
			ScaleRadius      float64 `yaml:"scaleRadius"`
			ScaleHeight      float64 `yaml:"scaleHeight"`
			CircularVelocity float64 `yaml:"circularVelocity"`
			Dispersion       float64 `yaml:"dispersion"`
		} `yaml:"disk"`
	} `yaml:"galaxy"`
}

// RotationConfig selects the galaxy orientation: a named preset or
// explicit Euler angles in degrees. When no type is given, all three
// angles are required.
type RotationConfig struct {
	Type  string   `yaml:"type,omitempty"`
	Alpha *float64 `yaml:"alpha,omitempty"`
	Beta  *float64 `yaml:"beta,omitempty"`
	Gamma *float64 `yaml:"gamma,omitempty"`
}

// Resolve turns the rotation section into angles.
func (rc RotationConfig) Resolve() (galaxy.Rotation, error) {
	switch rc.Type {
	case "face-on":
		return galaxy.FaceOn(), nil
	case "edge-on":
		return galaxy.EdgeOn(), nil
	case "":
		if rc.Alpha == nil || rc.Beta == nil || rc.Gamma == nil {
			return galaxy.Rotation{}, fmt.Errorf(
				"%w: rotation needs a type or all of alpha, beta, gamma", ErrInvalid)
		}

		return galaxy.Rotation{Alpha: *rc.Alpha, Beta: *rc.Beta, Gamma: *rc.Gamma}, nil
	default:
		return galaxy.Rotation{}, fmt.Errorf("%w: unknown rotation type %q", ErrInvalid, rc.Type)
	}
}

// Default returns the configuration of the demo observation: the MUSE
// spaxel grid, a moderate velocity axis, and both blurs enabled.
func Default() *Config {
	ins := telescope.MUSE()

	cfg := &Config{}

	cfg.Observation.ApertureWidth = 8.0
	cfg.Observation.Bins = ins.SpatialBins()
	cfg.Observation.VelocityMin = -250
	cfg.Observation.VelocityMax = 250
	cfg.Observation.Channels = 40

	cfg.Rotation.Type = "face-on"

	cfg.PSF.Enabled = true
	cfg.PSF.Size = 9
	cfg.PSF.Spread = 2.0

	cfg.LSF.Enabled = true
	cfg.LSF.Length = 9
	cfg.LSF.Sigma = ins.LSFSigmaChannels()

	cfg.Galaxy.Particles = 20000
	cfg.Galaxy.Seed = 42
	cfg.Galaxy.Align = false
	cfg.Galaxy.HalfmassRadius = 2.0
	cfg.Galaxy.Disk.ScaleRadius = 1.0
	cfg.Galaxy.Disk.ScaleHeight = 0.1
	cfg.Galaxy.Disk.CircularVelocity = 200
	cfg.Galaxy.Disk.Dispersion = 10

	return cfg
}

// Load reads a configuration file. A missing file yields the defaults;
// an unreadable or malformed file yields an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// Resolve builds the observation pipeline configuration.
func (c *Config) Resolve() (ifu.Config, error) {
	rot, err := c.Rotation.Resolve()
	if err != nil {
		return ifu.Config{}, err
	}

	obs := ifu.Config{
		ApertureWidth: c.Observation.ApertureWidth,
		Bins:          c.Observation.Bins,
		VelocityRange: [2]float64{c.Observation.VelocityMin, c.Observation.VelocityMax},
		Channels:      c.Observation.Channels,
		Rotation:      rot,
		PSF: ifu.PSFConfig{
			Enabled: c.PSF.Enabled,
			Size:    c.PSF.Size,
			Spread:  c.PSF.Spread,
		},
		LSF: ifu.LSFConfig{
			Enabled: c.LSF.Enabled,
			Length:  c.LSF.Length,
			Sigma:   c.LSF.Sigma,
		},
	}

	if err := obs.Validate(); err != nil {
		return ifu.Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Galaxy.Particles < 1 {
		return ifu.Config{}, fmt.Errorf("%w: need at least 1 particle, got %d", ErrInvalid, c.Galaxy.Particles)
	}

	if c.Galaxy.Align && c.Galaxy.HalfmassRadius <= 0 {
		return ifu.Config{}, fmt.Errorf("%w: alignment needs a half-mass radius > 0", ErrInvalid)
	}

	return obs, nil
}

// Validate checks that the configuration resolves.
func (c *Config) Validate() error {
	_, err := c.Resolve()
	return err
}
