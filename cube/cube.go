// Package cube provides the spectral datacube value type shared across the
// simulation core: a dense 3D array with two spatial axes and one spectral
// axis, stored flat with the channel axis fastest.
package cube

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by datacube operations.
var (
	ErrInvalidShape  = errors.New("cube: dimensions must be positive")
	ErrShapeMismatch = errors.New("cube: data length does not match shape")
	ErrChannelRange  = errors.New("cube: channel index out of range")
)

// Datacube is a dense 3D array with axes (X, Y, C): two spatial axes and
// one spectral channel axis. Values are stored flat in Data with the
// channel axis fastest, so the spectrum of a pixel is a contiguous slice
// and a spatial plane is a strided gather.
//
// The zero value is not usable; construct with New or FromData.
type Datacube struct {
	NX, NY, NC int
	Data       []float64
}

// New returns a zero-filled datacube with the given dimensions.
func New(nx, ny, nc int) (*Datacube, error) {
	if nx < 1 || ny < 1 || nc < 1 {
		return nil, fmt.Errorf("%w: got %dx%dx%d", ErrInvalidShape, nx, ny, nc)
	}

	return &Datacube{NX: nx, NY: ny, NC: nc, Data: make([]float64, nx*ny*nc)}, nil
}

// FromData wraps an existing flat slice as a datacube. The slice is used
// directly, not copied, and must hold exactly nx*ny*nc values in
// (X, Y, C) order with the channel axis fastest.
func FromData(nx, ny, nc int, data []float64) (*Datacube, error) {
	if nx < 1 || ny < 1 || nc < 1 {
		return nil, fmt.Errorf("%w: got %dx%dx%d", ErrInvalidShape, nx, ny, nc)
	}

	if len(data) != nx*ny*nc {
		return nil, fmt.Errorf("%w: have %d values, shape %dx%dx%d needs %d",
			ErrShapeMismatch, len(data), nx, ny, nc, nx*ny*nc)
	}

	return &Datacube{NX: nx, NY: ny, NC: nc, Data: data}, nil
}

// Validate checks that the dimensions are positive and consistent with the
// backing slice length.
func (d *Datacube) Validate() error {
	if d.NX < 1 || d.NY < 1 || d.NC < 1 {
		return fmt.Errorf("%w: got %dx%dx%d", ErrInvalidShape, d.NX, d.NY, d.NC)
	}

	if len(d.Data) != d.NX*d.NY*d.NC {
		return fmt.Errorf("%w: have %d values, shape %dx%dx%d needs %d",
			ErrShapeMismatch, len(d.Data), d.NX, d.NY, d.NC, d.NX*d.NY*d.NC)
	}

	return nil
}

// Index returns the flat offset of (x, y, c).
func (d *Datacube) Index(x, y, c int) int {
	return (x*d.NY+y)*d.NC + c
}

// At returns the value at (x, y, c).
func (d *Datacube) At(x, y, c int) float64 {
	return d.Data[d.Index(x, y, c)]
}

// Set stores v at (x, y, c).
func (d *Datacube) Set(x, y, c int, v float64) {
	d.Data[d.Index(x, y, c)] = v
}

// Shape returns the cube dimensions.
func (d *Datacube) Shape() (nx, ny, nc int) {
	return d.NX, d.NY, d.NC
}

// NumPixels returns the number of spatial pixels, NX*NY.
func (d *Datacube) NumPixels() int {
	return d.NX * d.NY
}

// SameShape reports whether o has identical dimensions.
func (d *Datacube) SameShape(o *Datacube) bool {
	return d.NX == o.NX && d.NY == o.NY && d.NC == o.NC
}

// Clone returns a deep copy of the cube.
func (d *Datacube) Clone() *Datacube {
	out := &Datacube{NX: d.NX, NY: d.NY, NC: d.NC, Data: make([]float64, len(d.Data))}
	copy(out.Data, d.Data)

	return out
}

// Plane returns the spatial plane at channel c as a new slice in row-major
// [x*NY+y] order.
func (d *Datacube) Plane(c int) ([]float64, error) {
	dst := make([]float64, d.NX*d.NY)
	if err := d.PlaneTo(dst, c); err != nil {
		return nil, err
	}

	return dst, nil
}

// PlaneTo gathers the spatial plane at channel c into dst, which must have
// length NX*NY. Together with SetPlane it carries the axis reordering
// between per-channel processing and the (X, Y, C) cube layout.
func (d *Datacube) PlaneTo(dst []float64, c int) error {
	if c < 0 || c >= d.NC {
		return fmt.Errorf("%w: channel %d of %d", ErrChannelRange, c, d.NC)
	}

	if len(dst) != d.NX*d.NY {
		return fmt.Errorf("%w: plane needs %d values, got %d", ErrShapeMismatch, d.NX*d.NY, len(dst))
	}

	for i := range dst {
		dst[i] = d.Data[i*d.NC+c]
	}

	return nil
}

// SetPlane scatters a row-major spatial plane back into channel c. src
// must have length NX*NY.
func (d *Datacube) SetPlane(c int, src []float64) error {
	if c < 0 || c >= d.NC {
		return fmt.Errorf("%w: channel %d of %d", ErrChannelRange, c, d.NC)
	}

	if len(src) != d.NX*d.NY {
		return fmt.Errorf("%w: plane needs %d values, got %d", ErrShapeMismatch, d.NX*d.NY, len(src))
	}

	for i, v := range src {
		d.Data[i*d.NC+c] = v
	}

	return nil
}

// Spectrum returns the contiguous channel slice of pixel (x, y). The slice
// aliases the cube's backing data.
func (d *Datacube) Spectrum(x, y int) []float64 {
	base := (x*d.NY + y) * d.NC

	return d.Data[base : base+d.NC]
}

// TotalFlux returns the sum of all values in the cube.
func (d *Datacube) TotalFlux() float64 {
	return floats.Sum(d.Data)
}

// ChannelFlux returns the sum of the spatial plane at channel c.
func (d *Datacube) ChannelFlux(c int) (float64, error) {
	if c < 0 || c >= d.NC {
		return 0, fmt.Errorf("%w: channel %d of %d", ErrChannelRange, c, d.NC)
	}

	sum := 0.0
	for i := 0; i < d.NX*d.NY; i++ {
		sum += d.Data[i*d.NC+c]
	}

	return sum, nil
}
