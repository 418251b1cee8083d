// Package galaxy holds stellar particle sets and the geometric operations
// an observation applies to them before gridding: masking, rotation, and
// disk alignment.
package galaxy

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

// ErrInvalidParticles reports a particle set whose attribute slices are
// inconsistent or unusable.
var ErrInvalidParticles = errors.New("galaxy: invalid particle set")

// ParticleSet is a column-oriented collection of stellar particles.
// Coords and Velocities are required and hold (x, y, z) per particle with
// z the line of sight. Ages and Metallicity are optional attribute
// columns. Mask records the most recent aperture mask applied, nil until
// ApplyMask runs.
type ParticleSet struct {
	Coords      [][3]float64
	Velocities  [][3]float64
	Masses      []float64
	Ages        []float64
	Metallicity []float64
	Mask        []bool
}

// Len returns the number of particles.
func (p *ParticleSet) Len() int {
	return len(p.Coords)
}

// Validate checks that all attribute columns agree in length. Optional
// columns may be nil.
func (p *ParticleSet) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil set", ErrInvalidParticles)
	}

	n := len(p.Coords)

	if len(p.Velocities) != n {
		return fmt.Errorf("%w: %d velocities for %d particles", ErrInvalidParticles, len(p.Velocities), n)
	}

	if len(p.Masses) != n {
		return fmt.Errorf("%w: %d masses for %d particles", ErrInvalidParticles, len(p.Masses), n)
	}

	if p.Ages != nil && len(p.Ages) != n {
		return fmt.Errorf("%w: %d ages for %d particles", ErrInvalidParticles, len(p.Ages), n)
	}

	if p.Metallicity != nil && len(p.Metallicity) != n {
		return fmt.Errorf("%w: %d metallicities for %d particles", ErrInvalidParticles, len(p.Metallicity), n)
	}

	if p.Mask != nil && len(p.Mask) != n {
		return fmt.Errorf("%w: %d mask entries for %d particles", ErrInvalidParticles, len(p.Mask), n)
	}

	return nil
}

// Clone returns a deep copy of the set.
func (p *ParticleSet) Clone() *ParticleSet {
	out := &ParticleSet{
		Coords:     make([][3]float64, len(p.Coords)),
		Velocities: make([][3]float64, len(p.Velocities)),
		Masses:     make([]float64, len(p.Masses)),
	}

	copy(out.Coords, p.Coords)
	copy(out.Velocities, p.Velocities)
	copy(out.Masses, p.Masses)

	if p.Ages != nil {
		out.Ages = make([]float64, len(p.Ages))
		copy(out.Ages, p.Ages)
	}

	if p.Metallicity != nil {
		out.Metallicity = make([]float64, len(p.Metallicity))
		copy(out.Metallicity, p.Metallicity)
	}

	if p.Mask != nil {
		out.Mask = make([]bool, len(p.Mask))
		copy(out.Mask, p.Mask)
	}

	return out
}

// ApplyMask zeroes the masses, ages, and metallicities of particles
// outside the mask and records the mask on the set. Coordinates and
// velocities stay untouched, so masked particles keep their geometry but
// contribute no flux.
func (p *ParticleSet) ApplyMask(mask []bool) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if len(mask) != p.Len() {
		return fmt.Errorf("%w: %d mask entries for %d particles", ErrInvalidParticles, len(mask), p.Len())
	}

	weights := make([]float64, len(mask))
	for i, keep := range mask {
		if keep {
			weights[i] = 1
		}
	}

	vecmath.MulBlockInPlace(p.Masses, weights)

	if p.Ages != nil {
		vecmath.MulBlockInPlace(p.Ages, weights)
	}

	if p.Metallicity != nil {
		vecmath.MulBlockInPlace(p.Metallicity, weights)
	}

	p.Mask = make([]bool, len(mask))
	copy(p.Mask, mask)

	return nil
}
