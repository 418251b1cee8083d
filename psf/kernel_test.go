package psf

import (
	"errors"
	"math"
	"testing"
)

func TestGaussian(t *testing.T) {
	tests := []struct {
		name          string
		height, width int
		spread        float64
	}{
		{"square odd", 5, 5, 1.0},
		{"square even", 4, 4, 1.2},
		{"rectangular", 3, 7, 2.0},
		{"single pixel", 1, 1, 0.5},
		{"survey kernel", 20, 20, 3.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := Gaussian(tt.height, tt.width, tt.spread)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if k.Height != tt.height || k.Width != tt.width {
				t.Errorf("shape = %dx%d, expected %dx%d", k.Height, k.Width, tt.height, tt.width)
			}

			if len(k.Weights) != tt.height*tt.width {
				t.Fatalf("weights length = %d, expected %d", len(k.Weights), tt.height*tt.width)
			}

			if math.Abs(k.Sum()-1) > 1e-6 {
				t.Errorf("sum = %v, expected 1 within 1e-6", k.Sum())
			}

			for i, w := range k.Weights {
				if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
					t.Fatalf("weight %d = %v, expected finite non-negative", i, w)
				}
			}
		})
	}
}

func TestGaussianRotationSymmetry(t *testing.T) {
	// An isotropic Gaussian on a square grid is symmetric under 180
	// degree rotation. This must hold for even extents too, which is what
	// the half-pixel centering buys.
	for _, size := range []int{3, 5, 4, 20} {
		k, err := Gaussian(size, size, 3.5)
		if err != nil {
			t.Fatalf("Gaussian(%d, %d, 3.5) failed: %v", size, size, err)
		}

		for r := 0; r < size; r++ {
			for c := 0; c < size; c++ {
				a := k.At(r, c)
				b := k.At(size-1-r, size-1-c)

				if math.Abs(a-b) > 1e-15 {
					t.Errorf("size %d: weight (%d,%d)=%v differs from rotated (%d,%d)=%v",
						size, r, c, a, size-1-r, size-1-c, b)
				}
			}
		}
	}
}

func TestGaussianDecay(t *testing.T) {
	k, err := Gaussian(5, 5, 1.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Weights fall off monotonically away from the center pixel.
	if !(k.At(2, 2) > k.At(2, 3) && k.At(2, 3) > k.At(2, 4)) {
		t.Errorf("expected monotonic decay along the center row, got %v, %v, %v",
			k.At(2, 2), k.At(2, 3), k.At(2, 4))
	}

	if !(k.At(2, 2) > k.At(1, 1) && k.At(1, 1) > k.At(0, 0)) {
		t.Errorf("expected monotonic decay along the diagonal, got %v, %v, %v",
			k.At(2, 2), k.At(1, 1), k.At(0, 0))
	}
}

func TestGaussianDegenerateSpread(t *testing.T) {
	// A spread far below one pixel collapses the kernel toward a delta
	// function. That is valid and must still be normalized.
	k, err := Gaussian(5, 5, 1e-9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(k.Sum()-1) > 1e-9 {
		t.Errorf("sum = %v, expected 1", k.Sum())
	}

	if math.Abs(k.At(2, 2)-1) > 1e-9 {
		t.Errorf("center weight = %v, expected 1", k.At(2, 2))
	}

	// Even extents have no center pixel; the four grid points nearest the
	// midpoint share the weight.
	k, err = Gaussian(4, 4, 1e-9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(k.Sum()-1) > 1e-9 {
		t.Errorf("even sum = %v, expected 1", k.Sum())
	}

	for _, rc := range [][2]int{{1, 1}, {1, 2}, {2, 1}, {2, 2}} {
		if math.Abs(k.At(rc[0], rc[1])-0.25) > 1e-9 {
			t.Errorf("weight (%d,%d) = %v, expected 0.25", rc[0], rc[1], k.At(rc[0], rc[1]))
		}
	}
}

func TestGaussianErrors(t *testing.T) {
	tests := []struct {
		name          string
		height, width int
		spread        float64
	}{
		{"zero height", 0, 20, 3.5},
		{"zero width", 20, 0, 3.5},
		{"negative height", -3, 20, 3.5},
		{"zero spread", 20, 20, 0},
		{"negative spread", 20, 20, -1.5},
		{"nan spread", 20, 20, math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Gaussian(tt.height, tt.width, tt.spread)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestDelta(t *testing.T) {
	k, err := Delta(5, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if k.Sum() != 1 {
		t.Errorf("sum = %v, expected exactly 1", k.Sum())
	}

	for r := 0; r < 5; r++ {
		for c := 0; c < 3; c++ {
			expected := 0.0
			if r == 2 && c == 1 {
				expected = 1
			}

			if k.At(r, c) != expected {
				t.Errorf("weight (%d,%d) = %v, expected %v", r, c, k.At(r, c), expected)
			}
		}
	}

	if _, err := Delta(0, 3); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
}

func TestLineSpread(t *testing.T) {
	lsf, err := LineSpread(7, 1.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(lsf) != 7 {
		t.Fatalf("length = %d, expected 7", len(lsf))
	}

	sum := 0.0
	for _, v := range lsf {
		sum += v
	}

	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum = %v, expected 1", sum)
	}

	for i := 0; i < 3; i++ {
		if math.Abs(lsf[i]-lsf[6-i]) > 1e-15 {
			t.Errorf("expected mirror symmetry, lsf[%d]=%v lsf[%d]=%v", i, lsf[i], 6-i, lsf[6-i])
		}
	}

	if !(lsf[3] > lsf[2] && lsf[2] > lsf[1]) {
		t.Errorf("expected monotonic decay from center, got %v", lsf)
	}
}

func TestLineSpreadErrors(t *testing.T) {
	if _, err := LineSpread(0, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero length, got %v", err)
	}

	if _, err := LineSpread(5, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for zero spread, got %v", err)
	}
}

func TestKernelValidate(t *testing.T) {
	var k *Kernel
	if err := k.validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter for nil kernel, got %v", err)
	}

	bad := &Kernel{Height: 2, Width: 2, Weights: make([]float64, 3)}
	if err := bad.validate(); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}
