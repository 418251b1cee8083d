package psf

import (
	"errors"
	"math"
	"testing"

	"github.com/robin-janssen/rubix/internal/testutil"
)

func TestConvolvePlaneIdentity(t *testing.T) {
	plane := make([]float64, 20)
	for i := range plane {
		plane[i] = float64(i + 1)
	}

	// Odd and even delta kernels both leave the plane unchanged under the
	// same-size alignment.
	for _, size := range []int{3, 4} {
		k, err := Delta(size, size)
		if err != nil {
			t.Fatalf("Delta(%d, %d) failed: %v", size, size, err)
		}

		out, err := ConvolvePlane(plane, 4, 5, k)
		if err != nil {
			t.Fatalf("ConvolvePlane failed: %v", err)
		}

		testutil.RequireSliceNearlyEqual(t, out, plane, 1e-15)
	}
}

func TestConvolvePlaneBoxKernel(t *testing.T) {
	// A 3x3 box on a 3x3 plane of ones: interior pixels see all nine
	// taps, edges six, corners four. Zero padding supplies the rest.
	plane := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}

	k := &Kernel{Height: 3, Width: 3, Weights: make([]float64, 9)}
	for i := range k.Weights {
		k.Weights[i] = 1.0 / 9.0
	}

	out, err := ConvolvePlane(plane, 3, 3, k)
	if err != nil {
		t.Fatalf("ConvolvePlane failed: %v", err)
	}

	expected := []float64{
		4.0 / 9.0, 6.0 / 9.0, 4.0 / 9.0,
		6.0 / 9.0, 9.0 / 9.0, 6.0 / 9.0,
		4.0 / 9.0, 6.0 / 9.0, 4.0 / 9.0,
	}

	testutil.RequireSliceNearlyEqual(t, out, expected, 1e-12)
}

func TestConvolvePlaneRowKernel(t *testing.T) {
	// A 1x3 smoothing kernel on a single-row plane reduces to 1D
	// same-size convolution with zero padding at both ends.
	plane := []float64{1, 2, 3, 4, 5}
	k := &Kernel{Height: 1, Width: 3, Weights: []float64{0.25, 0.5, 0.25}}

	out, err := ConvolvePlane(plane, 1, 5, k)
	if err != nil {
		t.Fatalf("ConvolvePlane failed: %v", err)
	}

	expected := []float64{1, 2, 3, 4, 3.5}
	testutil.RequireSliceNearlyEqual(t, out, expected, 1e-12)
}

func TestConvolvePlaneImpulseResponse(t *testing.T) {
	// A centered point source images to the kernel itself.
	const nx, ny = 7, 7

	plane := testutil.Impulse(nx*ny, 3*ny+3)

	k, err := Gaussian(5, 5, 1.0)
	if err != nil {
		t.Fatalf("Gaussian failed: %v", err)
	}

	out, err := ConvolvePlane(plane, nx, ny, k)
	if err != nil {
		t.Fatalf("ConvolvePlane failed: %v", err)
	}

	expected := make([]float64, nx*ny)
	for r := 0; r < k.Height; r++ {
		for c := 0; c < k.Width; c++ {
			expected[(r+1)*ny+(c+1)] = k.At(r, c)
		}
	}

	testutil.RequireSliceNearlyEqual(t, out, expected, 1e-12)
}

func TestDirectMatchesFFT(t *testing.T) {
	const nx, ny = 24, 24

	plane := testutil.DeterministicNoise(42, 1.0, nx*ny)

	tests := []struct {
		name          string
		height, width int
		spread        float64
	}{
		{"odd small", 3, 3, 1.0},
		{"even small", 4, 4, 1.2},
		{"odd large", 9, 9, 2.0},
		{"even large", 20, 20, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Gaussian(tt.height, tt.width, tt.spread)
			if err != nil {
				t.Fatalf("Gaussian failed: %v", err)
			}

			direct := make([]float64, nx*ny)
			directSame(direct, plane, nx, ny, k)

			fc, err := newFFTConvolver(nx, ny, k)
			if err != nil {
				t.Fatalf("newFFTConvolver failed: %v", err)
			}

			viaFFT := make([]float64, nx*ny)
			if err := fc.convolve(viaFFT, plane); err != nil {
				t.Fatalf("fft convolve failed: %v", err)
			}

			maxDiff := 0.0

			for i := range direct {
				diff := math.Abs(direct[i] - viaFFT[i])
				if diff > maxDiff {
					maxDiff = diff
				}
			}

			if maxDiff > 1e-9 {
				t.Errorf("direct and FFT paths disagree, max diff %v", maxDiff)
			}
		})
	}
}

func TestConvolvePlaneErrors(t *testing.T) {
	plane := make([]float64, 12)

	k, _ := Gaussian(5, 5, 1.0)

	// Kernel taller and wider than the 3x4 plane.
	if _, err := ConvolvePlane(plane, 3, 4, k); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for oversized kernel, got %v", err)
	}

	small, _ := Gaussian(3, 3, 1.0)

	if _, err := ConvolvePlane(plane, 5, 5, small); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch for wrong plane length, got %v", err)
	}

	if _, err := ConvolvePlane(plane, 3, 4, nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for nil kernel, got %v", err)
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{24, 32},
		{64, 64},
		{69, 128},
	}

	for _, tt := range tests {
		if got := nextPowerOf2(tt.input); got != tt.expected {
			t.Errorf("nextPowerOf2(%d) = %d, expected %d", tt.input, got, tt.expected)
		}
	}
}
