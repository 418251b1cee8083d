package psf

import (
	"fmt"
	"testing"

	"github.com/robin-janssen/rubix/cube"
	"github.com/robin-janssen/rubix/internal/testutil"
)

// Benchmark plane convolution across kernel sizes on a survey-sized field.
func BenchmarkConvolvePlane(b *testing.B) {
	const nx, ny = 50, 50

	plane := testutil.DeterministicUniform(1, nx*ny)

	for _, size := range []int{3, 5, 9, 20} {
		k, err := Gaussian(size, size, float64(size)/6)
		if err != nil {
			b.Fatalf("Gaussian failed: %v", err)
		}

		b.Run(fmt.Sprintf("kernel=%dx%d", size, size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = ConvolvePlane(plane, nx, ny, k)
			}
		})
	}
}

// Benchmark full-cube application with both strategies.
func BenchmarkApply(b *testing.B) {
	cases := []struct {
		nx, ny, nc int
		kernel     int
		spread     float64
	}{
		{25, 25, 32, 5, 1.0},
		{50, 50, 64, 9, 1.8},
		{50, 50, 300, 20, 3.5},
	}

	for _, bc := range cases {
		d, err := cube.FromData(bc.nx, bc.ny, bc.nc, testutil.DeterministicUniform(2, bc.nx*bc.ny*bc.nc))
		if err != nil {
			b.Fatalf("cube.FromData failed: %v", err)
		}

		k, err := Gaussian(bc.kernel, bc.kernel, bc.spread)
		if err != nil {
			b.Fatalf("Gaussian failed: %v", err)
		}

		b.Run(fmt.Sprintf("cube=%dx%dx%d_kernel=%d", bc.nx, bc.ny, bc.nc, bc.kernel), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Apply(d, k)
			}
		})
	}
}

// Benchmark direct against FFT on the same workload.
func BenchmarkApplyStrategies(b *testing.B) {
	d, err := cube.FromData(50, 50, 16, testutil.DeterministicUniform(3, 50*50*16))
	if err != nil {
		b.Fatalf("cube.FromData failed: %v", err)
	}

	k, err := Gaussian(9, 9, 1.8)
	if err != nil {
		b.Fatalf("Gaussian failed: %v", err)
	}

	for _, bc := range []struct {
		name     string
		strategy Strategy
	}{
		{"direct", StrategyDirect},
		{"fft", StrategyFFT},
	} {
		b.Run(bc.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = Apply(d, k, WithStrategy(bc.strategy))
			}
		})
	}
}
