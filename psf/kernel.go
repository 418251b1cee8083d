package psf

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Errors returned by kernel construction and application.
var (
	ErrInvalidParameter = errors.New("psf: invalid parameter")
	ErrShapeMismatch    = errors.New("psf: shape mismatch")
)

// Kernel is a normalized 2D weight matrix sampled from a point-spread
// function. Weights are stored row-major with index r*Width+c and sum to
// 1, so convolution preserves total flux. A kernel is built once per
// configuration and treated as immutable afterwards.
type Kernel struct {
	Height, Width int
	Weights       []float64
}

// Gaussian returns a height x width kernel sampling an isotropic 2D
// Gaussian with standard deviation spread, in pixel units.
//
// The Gaussian is centered on the geometric midpoint of the grid,
// ((height-1)/2, (width-1)/2). For even extents this falls between
// pixels, which keeps square kernels symmetric under 180 degree rotation.
// Weights are evaluated relative to the grid point nearest the center so
// the normalizing sum stays positive even for spreads far below one
// pixel, where the kernel degenerates toward a delta function.
func Gaussian(height, width int, spread float64) (*Kernel, error) {
	if height < 1 || width < 1 {
		return nil, fmt.Errorf("%w: kernel extent must be at least 1x1, got %dx%d",
			ErrInvalidParameter, height, width)
	}

	if math.IsNaN(spread) || spread <= 0 {
		return nil, fmt.Errorf("%w: spread must be > 0, got %g", ErrInvalidParameter, spread)
	}

	centerR := float64(height-1) / 2
	centerC := float64(width-1) / 2

	// Squared distance from the center to its nearest grid point: 0 for
	// odd extents, up to 0.5 for even x even.
	nearR := centerR - math.Round(centerR)
	nearC := centerC - math.Round(centerC)
	minDist := nearR*nearR + nearC*nearC

	inv := 1 / (2 * spread * spread)

	w := make([]float64, height*width)
	for r := 0; r < height; r++ {
		dr := float64(r) - centerR
		for c := 0; c < width; c++ {
			dc := float64(c) - centerC
			w[r*width+c] = math.Exp(-(dr*dr + dc*dc - minDist) * inv)
		}
	}

	vecmath.ScaleBlock(w, w, 1/floats.Sum(w))

	return &Kernel{Height: height, Width: width, Weights: w}, nil
}

// Delta returns a kernel that is zero everywhere except a single unit
// weight at ((height-1)/2, (width-1)/2). Under the same-size alignment
// used by Apply this is the identity kernel: convolving with it returns
// the input unchanged.
func Delta(height, width int) (*Kernel, error) {
	if height < 1 || width < 1 {
		return nil, fmt.Errorf("%w: kernel extent must be at least 1x1, got %dx%d",
			ErrInvalidParameter, height, width)
	}

	w := make([]float64, height*width)
	w[(height-1)/2*width+(width-1)/2] = 1

	return &Kernel{Height: height, Width: width, Weights: w}, nil
}

// LineSpread returns a normalized 1D Gaussian of the given length with
// standard deviation spread in channel units, for smearing spectra along
// the channel axis. Centering and normalization follow the same rules as
// Gaussian.
func LineSpread(length int, spread float64) ([]float64, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: line-spread length must be at least 1, got %d",
			ErrInvalidParameter, length)
	}

	if math.IsNaN(spread) || spread <= 0 {
		return nil, fmt.Errorf("%w: spread must be > 0, got %g", ErrInvalidParameter, spread)
	}

	center := float64(length-1) / 2
	near := center - math.Round(center)
	minDist := near * near

	inv := 1 / (2 * spread * spread)

	w := make([]float64, length)
	for i := range w {
		d := float64(i) - center
		w[i] = math.Exp(-(d*d - minDist) * inv)
	}

	vecmath.ScaleBlock(w, w, 1/floats.Sum(w))

	return w, nil
}

// At returns the weight at row r, column c.
func (k *Kernel) At(r, c int) float64 {
	return k.Weights[r*k.Width+c]
}

// Sum returns the total of all weights, 1 for a normalized kernel.
func (k *Kernel) Sum() float64 {
	return floats.Sum(k.Weights)
}

func (k *Kernel) validate() error {
	if k == nil {
		return fmt.Errorf("%w: nil kernel", ErrInvalidParameter)
	}

	if k.Height < 1 || k.Width < 1 {
		return fmt.Errorf("%w: kernel extent must be at least 1x1, got %dx%d",
			ErrInvalidParameter, k.Height, k.Width)
	}

	if len(k.Weights) != k.Height*k.Width {
		return fmt.Errorf("%w: kernel has %d weights, extent %dx%d needs %d",
			ErrShapeMismatch, len(k.Weights), k.Height, k.Width, k.Height*k.Width)
	}

	return nil
}
