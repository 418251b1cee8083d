package galaxy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Rotation is an extrinsic rotation of the particle frame, given as
// angles in degrees about the x, y, and z axis. The combined matrix is
// Rz(Gamma)*Ry(Beta)*Rx(Alpha), so Alpha tilts the disk first.
type Rotation struct {
	Alpha, Beta, Gamma float64
}

// FaceOn returns the identity rotation. The disk plane stays in x-y with
// the line of sight along its normal.
func FaceOn() Rotation { return Rotation{} }

// EdgeOn returns a 90 degree tilt about x, putting the disk plane
// parallel to the line of sight.
func EdgeOn() Rotation { return Rotation{Alpha: 90} }

// IsZero reports whether the rotation is the identity.
func (r Rotation) IsZero() bool {
	return r.Alpha == 0 && r.Beta == 0 && r.Gamma == 0
}

// Matrix returns the 3x3 rotation matrix.
func (r Rotation) Matrix() *mat.Dense {
	sa, ca := math.Sincos(r.Alpha * math.Pi / 180)
	sb, cb := math.Sincos(r.Beta * math.Pi / 180)
	sg, cg := math.Sincos(r.Gamma * math.Pi / 180)

	rx := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, ca, -sa,
		0, sa, ca,
	})
	ry := mat.NewDense(3, 3, []float64{
		cb, 0, sb,
		0, 1, 0,
		-sb, 0, cb,
	})
	rz := mat.NewDense(3, 3, []float64{
		cg, -sg, 0,
		sg, cg, 0,
		0, 0, 1,
	})

	var ryx, m mat.Dense
	ryx.Mul(ry, rx)
	m.Mul(rz, &ryx)

	return &m
}

// Rotate rotates coordinates and velocities in place.
func (p *ParticleSet) Rotate(rot Rotation) {
	if rot.IsZero() {
		return
	}

	p.rotateBy(rot.Matrix())
}

func (p *ParticleSet) rotateBy(m mat.Matrix) {
	r00, r01, r02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	r10, r11, r12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	r20, r21, r22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	apply := func(vs [][3]float64) {
		for i, v := range vs {
			vs[i] = [3]float64{
				r00*v[0] + r01*v[1] + r02*v[2],
				r10*v[0] + r11*v[1] + r12*v[2],
				r20*v[0] + r21*v[1] + r22*v[2],
			}
		}
	}

	apply(p.Coords)
	apply(p.Velocities)
}

// AlignToDisk recenters the set on its mass-weighted centroid, in
// position and velocity, and rotates it face-on: the principal axis with
// the largest moment of inertia, computed from the particles within
// halfmassRadius, becomes the line of sight.
func (p *ParticleSet) AlignToDisk(halfmassRadius float64) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if math.IsNaN(halfmassRadius) || halfmassRadius <= 0 {
		return fmt.Errorf("%w: half-mass radius must be > 0, got %g", ErrInvalidParticles, halfmassRadius)
	}

	total := floats.Sum(p.Masses)
	if total <= 0 {
		return fmt.Errorf("%w: total mass must be > 0", ErrInvalidParticles)
	}

	var com, vcom [3]float64
	for i, m := range p.Masses {
		for k := 0; k < 3; k++ {
			com[k] += m * p.Coords[i][k]
			vcom[k] += m * p.Velocities[i][k]
		}
	}

	for k := 0; k < 3; k++ {
		com[k] /= total
		vcom[k] /= total
	}

	for i := range p.Coords {
		for k := 0; k < 3; k++ {
			p.Coords[i][k] -= com[k]
			p.Velocities[i][k] -= vcom[k]
		}
	}

	// Moment of inertia tensor of the inner body.
	var ixx, iyy, izz, ixy, ixz, iyz float64
	inner := 0
	r2max := halfmassRadius * halfmassRadius

	for i, m := range p.Masses {
		x, y, z := p.Coords[i][0], p.Coords[i][1], p.Coords[i][2]
		if x*x+y*y+z*z > r2max {
			continue
		}

		inner++
		ixx += m * (y*y + z*z)
		iyy += m * (x*x + z*z)
		izz += m * (x*x + y*y)
		ixy -= m * x * y
		ixz -= m * x * z
		iyz -= m * y * z
	}

	if inner == 0 {
		return fmt.Errorf("%w: no particles within half-mass radius %g", ErrInvalidParticles, halfmassRadius)
	}

	tensor := mat.NewSymDense(3, []float64{
		ixx, ixy, ixz,
		ixy, iyy, iyz,
		ixz, iyz, izz,
	})

	var eig mat.EigenSym
	if !eig.Factorize(tensor, true) {
		return fmt.Errorf("%w: inertia tensor eigendecomposition failed", ErrInvalidParticles)
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues ascend, so the last column is the largest-moment axis,
	// the disk normal for a thin disk. The principal axes become the new
	// basis with the normal along z.
	q := mat.NewDense(3, 3, nil)
	for row := 0; row < 3; row++ {
		for k := 0; k < 3; k++ {
			q.Set(row, k, vecs.At(k, row))
		}
	}

	// Keep it a proper rotation.
	if mat.Det(q) < 0 {
		for k := 0; k < 3; k++ {
			q.Set(0, k, -q.At(0, k))
		}
	}

	p.rotateBy(q)

	return nil
}
