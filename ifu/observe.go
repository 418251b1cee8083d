// Package ifu synthesizes integral-field datacubes from stellar particle
// sets: rotate, grid, histogram flux into velocity channels, and apply
// the instrument point and line spread.
package ifu

import (
	"errors"
	"fmt"
	"math"

	"github.com/robin-janssen/rubix/cube"
	"github.com/robin-janssen/rubix/galaxy"
	"github.com/robin-janssen/rubix/psf"
	"github.com/robin-janssen/rubix/telescope"
)

// ErrInvalidConfig reports an unusable observation configuration.
var ErrInvalidConfig = errors.New("ifu: invalid config")

// PSFConfig controls the spatial point-spread blur.
type PSFConfig struct {
	Enabled bool
	Size    int     // kernel extent per axis, in spaxels
	Spread  float64 // Gaussian standard deviation, in spaxels
}

// LSFConfig controls the spectral line-spread smearing.
type LSFConfig struct {
	Enabled bool
	Length  int     // kernel taps
	Sigma   float64 // Gaussian standard deviation, in channels
}

// Config describes one simulated observation. Spatial quantities are in
// the coordinate units of the particle set, spectral ones in km/s along
// the z line of sight.
type Config struct {
	ApertureWidth float64    // extent of the square field
	Bins          int        // spaxels per side
	VelocityRange [2]float64 // velocities covered by the channel axis
	Channels      int        // spectral channels
	Rotation      galaxy.Rotation
	PSF           PSFConfig
	LSF           LSFConfig
}

// Validate checks the configuration before any work happens.
func (cfg Config) Validate() error {
	if math.IsNaN(cfg.ApertureWidth) || cfg.ApertureWidth <= 0 {
		return fmt.Errorf("%w: aperture width must be > 0, got %g", ErrInvalidConfig, cfg.ApertureWidth)
	}

	if cfg.Bins < 1 {
		return fmt.Errorf("%w: need at least 1 spatial bin, got %d", ErrInvalidConfig, cfg.Bins)
	}

	if cfg.Channels < 1 {
		return fmt.Errorf("%w: need at least 1 channel, got %d", ErrInvalidConfig, cfg.Channels)
	}

	if cfg.VelocityRange[1] <= cfg.VelocityRange[0] {
		return fmt.Errorf("%w: velocity range [%g, %g] is empty",
			ErrInvalidConfig, cfg.VelocityRange[0], cfg.VelocityRange[1])
	}

	if cfg.PSF.Enabled {
		if cfg.PSF.Size < 1 || cfg.PSF.Size > cfg.Bins {
			return fmt.Errorf("%w: PSF size %d does not fit %d bins", ErrInvalidConfig, cfg.PSF.Size, cfg.Bins)
		}

		if math.IsNaN(cfg.PSF.Spread) || cfg.PSF.Spread <= 0 {
			return fmt.Errorf("%w: PSF spread must be > 0, got %g", ErrInvalidConfig, cfg.PSF.Spread)
		}
	}

	if cfg.LSF.Enabled {
		if cfg.LSF.Length < 1 || cfg.LSF.Length > cfg.Channels {
			return fmt.Errorf("%w: LSF length %d does not fit %d channels", ErrInvalidConfig, cfg.LSF.Length, cfg.Channels)
		}

		if math.IsNaN(cfg.LSF.Sigma) || cfg.LSF.Sigma <= 0 {
			return fmt.Errorf("%w: LSF sigma must be > 0, got %g", ErrInvalidConfig, cfg.LSF.Sigma)
		}
	}

	return nil
}

// Result carries the synthesized cubes of one observation.
type Result struct {
	Raw        *cube.Datacube // mass flux histogram, before any blur
	Blurred    *cube.Datacube // after line-spread and point-spread
	InAperture int            // particles inside the field of view
}

// Observe builds a datacube observation of the particle set: clone,
// rotate into the requested orientation, mask particles outside the
// aperture, assign the rest to spaxels, histogram their mass into
// velocity channels, and blur with the configured line and point spread.
// The input set is never modified. Particles whose line-of-sight velocity
// falls outside the channel range carry no flux into the cube.
func Observe(p *galaxy.ParticleSet, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	work := p.Clone()
	work.Rotate(cfg.Rotation)

	edges, err := telescope.BinEdges(cfg.ApertureWidth, cfg.Bins)
	if err != nil {
		return nil, err
	}

	mask, err := telescope.ApertureMask(work.Coords, edges)
	if err != nil {
		return nil, err
	}

	if err := work.ApplyMask(mask); err != nil {
		return nil, err
	}

	inAperture := 0
	for _, in := range mask {
		if in {
			inAperture++
		}
	}

	spaxels, err := telescope.AssignSpaxels(work.Coords, edges)
	if err != nil {
		return nil, err
	}

	raw, err := cube.New(cfg.Bins, cfg.Bins, cfg.Channels)
	if err != nil {
		return nil, err
	}

	chanWidth := (cfg.VelocityRange[1] - cfg.VelocityRange[0]) / float64(cfg.Channels)

	for i, flat := range spaxels {
		m := work.Masses[i]
		if m == 0 {
			continue
		}

		c := int(math.Floor((work.Velocities[i][2] - cfg.VelocityRange[0]) / chanWidth))
		if c < 0 || c >= cfg.Channels {
			continue
		}

		x := flat % cfg.Bins
		y := flat / cfg.Bins
		raw.Data[raw.Index(x, y, c)] += m
	}

	blurred := raw

	if cfg.LSF.Enabled {
		lsf, err := psf.LineSpread(cfg.LSF.Length, cfg.LSF.Sigma)
		if err != nil {
			return nil, err
		}

		blurred, err = psf.ApplySpectral(blurred, lsf)
		if err != nil {
			return nil, err
		}
	}

	if cfg.PSF.Enabled {
		k, err := psf.Gaussian(cfg.PSF.Size, cfg.PSF.Size, cfg.PSF.Spread)
		if err != nil {
			return nil, err
		}

		blurred, err = psf.Apply(blurred, k)
		if err != nil {
			return nil, err
		}
	}

	if blurred == raw {
		blurred = raw.Clone()
	}

	return &Result{Raw: raw, Blurred: blurred, InAperture: inAperture}, nil
}
