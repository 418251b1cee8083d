package galaxy

import (
	"fmt"
	"math"
	"math/rand"
)

// DiskOption configures MockDisk.
type DiskOption func(*diskConfig)

type diskConfig struct {
	scaleRadius float64
	scaleHeight float64
	circular    float64
	dispersion  float64
}

func defaultDiskConfig() diskConfig {
	return diskConfig{
		scaleRadius: 1.0,
		scaleHeight: 0.1,
		circular:    200.0,
		dispersion:  10.0,
	}
}

// WithScaleRadius sets the exponential scale radius of the disk.
func WithScaleRadius(r float64) DiskOption {
	return func(c *diskConfig) {
		if r > 0 {
			c.scaleRadius = r
		}
	}
}

// WithScaleHeight sets the Gaussian thickness of the disk.
func WithScaleHeight(h float64) DiskOption {
	return func(c *diskConfig) {
		if h > 0 {
			c.scaleHeight = h
		}
	}
}

// WithCircularVelocity sets the flat rotation-curve speed in km/s.
func WithCircularVelocity(v float64) DiskOption {
	return func(c *diskConfig) {
		if v > 0 {
			c.circular = v
		}
	}
}

// WithVelocityDispersion sets the isotropic random motion in km/s.
func WithVelocityDispersion(s float64) DiskOption {
	return func(c *diskConfig) {
		if s >= 0 {
			c.dispersion = s
		}
	}
}

// MockDisk builds a deterministic thin stellar disk: exponential surface
// density, Gaussian vertical profile, flat rotation curve with isotropic
// dispersion on top. Total mass is normalized to 1, ages and
// metallicities are filled with plausible values. The same n and seed
// always produce the same set.
func MockDisk(n int, seed int64, opts ...DiskOption) (*ParticleSet, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least 1 particle, got %d", ErrInvalidParticles, n)
	}

	cfg := defaultDiskConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rng := rand.New(rand.NewSource(seed))

	p := &ParticleSet{
		Coords:      make([][3]float64, n),
		Velocities:  make([][3]float64, n),
		Masses:      make([]float64, n),
		Ages:        make([]float64, n),
		Metallicity: make([]float64, n),
	}

	mass := 1.0 / float64(n)

	for i := 0; i < n; i++ {
		r := -cfg.scaleRadius * math.Log(1-rng.Float64())
		sp, cp := math.Sincos(2 * math.Pi * rng.Float64())
		z := rng.NormFloat64() * cfg.scaleHeight

		p.Coords[i] = [3]float64{r * cp, r * sp, z}
		p.Velocities[i] = [3]float64{
			-cfg.circular*sp + rng.NormFloat64()*cfg.dispersion,
			cfg.circular*cp + rng.NormFloat64()*cfg.dispersion,
			rng.NormFloat64() * cfg.dispersion,
		}
		p.Masses[i] = mass
		p.Ages[i] = 10 * rng.Float64()
		p.Metallicity[i] = 0.02 * rng.Float64()
	}

	return p, nil
}
