package psf

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Strategy selects how channel planes are convolved.
type Strategy int

const (
	// StrategyAuto picks direct or FFT convolution based on kernel size.
	StrategyAuto Strategy = iota

	// StrategyDirect forces direct accumulation, best for small kernels.
	StrategyDirect

	// StrategyFFT forces frequency-domain convolution on padded grids.
	StrategyFFT
)

// Kernels up to this many taps convolve faster directly than through the
// padded-grid FFT path.
const directThreshold = 64

// ConvolvePlane convolves a single nx x ny plane (row-major, [x*ny+y])
// with the kernel under the same-size zero-padding policy and returns a
// new plane of identical dimensions.
func ConvolvePlane(plane []float64, nx, ny int, k *Kernel) ([]float64, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}

	if nx < 1 || ny < 1 || len(plane) != nx*ny {
		return nil, fmt.Errorf("%w: plane has %d values for %dx%d",
			ErrShapeMismatch, len(plane), nx, ny)
	}

	if k.Height > nx || k.Width > ny {
		return nil, fmt.Errorf("%w: kernel %dx%d exceeds plane %dx%d",
			ErrShapeMismatch, k.Height, k.Width, nx, ny)
	}

	out := make([]float64, nx*ny)

	if k.Height*k.Width <= directThreshold {
		directSame(out, plane, nx, ny, k)
		return out, nil
	}

	fc, err := newFFTConvolver(nx, ny, k)
	if err != nil {
		return nil, err
	}

	if err := fc.convolve(out, plane); err != nil {
		return nil, err
	}

	return out, nil
}

// directSame accumulates the same-size convolution tap by tap: every
// kernel weight adds one shifted, scaled copy of each source row to the
// output. Row segments are processed as blocks so the inner loop
// vectorizes.
func directSame(dst, src []float64, nx, ny int, k *Kernel) {
	for i := range dst {
		dst[i] = 0
	}

	offR := (k.Height - 1) / 2
	offC := (k.Width - 1) / 2

	temp := make([]float64, ny)

	for r := 0; r < k.Height; r++ {
		dr := offR - r

		for c := 0; c < k.Width; c++ {
			w := k.Weights[r*k.Width+c]
			if w == 0 {
				continue
			}

			// out[x, y] += w * src[x+dr, y+dc] wherever the source index
			// is in range; outside contributions are the zero padding.
			dc := offC - c

			yLo := 0
			if dc < 0 {
				yLo = -dc
			}

			yHi := ny
			if dc > 0 {
				yHi = ny - dc
			}

			if yLo >= yHi {
				continue
			}

			for x := 0; x < nx; x++ {
				sx := x + dr
				if sx < 0 || sx >= nx {
					continue
				}

				seg := src[sx*ny+yLo+dc : sx*ny+yHi+dc]
				t := temp[:len(seg)]
				vecmath.ScaleBlock(t, seg, w)
				vecmath.AddBlockInPlace(dst[x*ny+yLo:x*ny+yHi], t)
			}
		}
	}
}

// directSame1D is the channel-axis counterpart of directSame, used for
// line-spread smearing of contiguous spectra. temp must be at least as
// long as src.
func directSame1D(dst, src, kernel, temp []float64) {
	for i := range dst {
		dst[i] = 0
	}

	n := len(src)
	off := (len(kernel) - 1) / 2

	for j, w := range kernel {
		if w == 0 {
			continue
		}

		shift := off - j

		lo := 0
		if shift < 0 {
			lo = -shift
		}

		hi := n
		if shift > 0 {
			hi = n - shift
		}

		if lo >= hi {
			continue
		}

		seg := src[lo+shift : hi+shift]
		t := temp[:len(seg)]
		vecmath.ScaleBlock(t, seg, w)
		vecmath.AddBlockInPlace(dst[lo:hi], t)
	}
}

// fftConvolver performs same-size convolution through zero-padded
// power-of-two grids. The kernel spectrum is computed once at
// construction and shared read-only across clones, so the cost of
// transforming the kernel is paid once per datacube rather than once per
// channel.
type fftConvolver struct {
	nx, ny int // plane dimensions
	px, py int // padded grid dimensions

	rowPlan *algofft.Plan[complex128]
	colPlan *algofft.Plan[complex128]

	kernelFFT  []complex128 // shared, read-only after construction
	offR, offC int

	grid []complex128 // scratch, px*py
	col  []complex128 // scratch, px
}

func newFFTConvolver(nx, ny int, k *Kernel) (*fftConvolver, error) {
	px := nextPowerOf2(nx + k.Height - 1)
	py := nextPowerOf2(ny + k.Width - 1)

	rowPlan, err := algofft.NewPlan64(py)
	if err != nil {
		return nil, fmt.Errorf("psf: failed to create row FFT plan: %w", err)
	}

	colPlan, err := algofft.NewPlan64(px)
	if err != nil {
		return nil, fmt.Errorf("psf: failed to create column FFT plan: %w", err)
	}

	fc := &fftConvolver{
		nx:        nx,
		ny:        ny,
		px:        px,
		py:        py,
		rowPlan:   rowPlan,
		colPlan:   colPlan,
		kernelFFT: make([]complex128, px*py),
		offR:      (k.Height - 1) / 2,
		offC:      (k.Width - 1) / 2,
		grid:      make([]complex128, px*py),
		col:       make([]complex128, px),
	}

	for r := 0; r < k.Height; r++ {
		for c := 0; c < k.Width; c++ {
			fc.kernelFFT[r*py+c] = complex(k.Weights[r*k.Width+c], 0)
		}
	}

	if err := fc.fft2(fc.kernelFFT, false); err != nil {
		return nil, err
	}

	return fc, nil
}

// clone returns a convolver sharing the kernel spectrum but owning fresh
// plans and scratch, so workers can convolve planes independently.
func (fc *fftConvolver) clone() (*fftConvolver, error) {
	rowPlan, err := algofft.NewPlan64(fc.py)
	if err != nil {
		return nil, fmt.Errorf("psf: failed to create row FFT plan: %w", err)
	}

	colPlan, err := algofft.NewPlan64(fc.px)
	if err != nil {
		return nil, fmt.Errorf("psf: failed to create column FFT plan: %w", err)
	}

	out := *fc
	out.rowPlan = rowPlan
	out.colPlan = colPlan
	out.grid = make([]complex128, fc.px*fc.py)
	out.col = make([]complex128, fc.px)

	return &out, nil
}

// convolve writes the same-size convolution of src into dst. Both are
// nx*ny row-major planes and must not alias.
func (fc *fftConvolver) convolve(dst, src []float64) error {
	for i := range fc.grid {
		fc.grid[i] = 0
	}

	for x := 0; x < fc.nx; x++ {
		row := src[x*fc.ny : (x+1)*fc.ny]
		for y, v := range row {
			fc.grid[x*fc.py+y] = complex(v, 0)
		}
	}

	if err := fc.fft2(fc.grid, false); err != nil {
		return err
	}

	for i := range fc.grid {
		fc.grid[i] *= fc.kernelFFT[i]
	}

	if err := fc.fft2(fc.grid, true); err != nil {
		return err
	}

	// Crop the full result back to plane size. Output element (x, y)
	// takes full-convolution element (x+offR, y+offC).
	for x := 0; x < fc.nx; x++ {
		full := fc.grid[(x+fc.offR)*fc.py+fc.offC:]
		for y := 0; y < fc.ny; y++ {
			dst[x*fc.ny+y] = real(full[y])
		}
	}

	return nil
}

// fft2 transforms the grid in place, rows first and then columns. The
// inverse transform carries the 1/N scale per axis, so a forward-inverse
// round trip restores the input.
func (fc *fftConvolver) fft2(grid []complex128, inverse bool) error {
	for r := 0; r < fc.px; r++ {
		if err := fc.transform(fc.rowPlan, grid[r*fc.py:(r+1)*fc.py], inverse); err != nil {
			return err
		}
	}

	for c := 0; c < fc.py; c++ {
		for r := 0; r < fc.px; r++ {
			fc.col[r] = grid[r*fc.py+c]
		}

		if err := fc.transform(fc.colPlan, fc.col, inverse); err != nil {
			return err
		}

		for r := 0; r < fc.px; r++ {
			grid[r*fc.py+c] = fc.col[r]
		}
	}

	return nil
}

func (fc *fftConvolver) transform(plan *algofft.Plan[complex128], buf []complex128, inverse bool) error {
	if inverse {
		if err := plan.Inverse(buf, buf); err != nil {
			return fmt.Errorf("psf: inverse FFT failed: %w", err)
		}

		return nil
	}

	if err := plan.Forward(buf, buf); err != nil {
		return fmt.Errorf("psf: forward FFT failed: %w", err)
	}

	return nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p *= 2
	}

	return p
}
