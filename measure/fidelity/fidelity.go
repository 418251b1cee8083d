// Package fidelity quantifies how a processed datacube relates to its
// source: flux bookkeeping, pointwise error, correlation, and the
// per-pixel variance reduction a blur is expected to produce.
package fidelity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/robin-janssen/rubix/cube"
)

// ErrShapeMismatch reports cubes that cannot be compared.
var ErrShapeMismatch = errors.New("fidelity: shape mismatch")

// Report summarizes the comparison of an input and output cube. Ratios
// are out over in and NaN when the denominator vanishes.
type Report struct {
	TotalFluxIn  float64
	TotalFluxOut float64
	FluxRatio    float64

	RMSE       float64
	MaxAbsDiff float64

	// Correlation is the Pearson coefficient of the flattened cubes.
	Correlation float64

	// Mean over all pixels of the channel-wise sample variance. A
	// spatial blur averages independent neighbors, so the ratio drops
	// below 1.
	MeanPixelVarianceIn  float64
	MeanPixelVarianceOut float64
	VarianceRatio        float64
}

// Compare builds a fidelity report for two same-shaped cubes.
func Compare(in, out *cube.Datacube) (Report, error) {
	if in == nil || out == nil {
		return Report{}, fmt.Errorf("%w: nil cube", ErrShapeMismatch)
	}

	if err := in.Validate(); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	if err := out.Validate(); err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	if !in.SameShape(out) {
		inx, iny, inc := in.Shape()
		onx, ony, onc := out.Shape()

		return Report{}, fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d",
			ErrShapeMismatch, inx, iny, inc, onx, ony, onc)
	}

	r := Report{
		TotalFluxIn:  in.TotalFlux(),
		TotalFluxOut: out.TotalFlux(),
	}

	r.FluxRatio = ratio(r.TotalFluxOut, r.TotalFluxIn)

	var sumSq float64
	for i := range in.Data {
		d := in.Data[i] - out.Data[i]
		sumSq += d * d

		if abs := math.Abs(d); abs > r.MaxAbsDiff {
			r.MaxAbsDiff = abs
		}
	}

	r.RMSE = math.Sqrt(sumSq / float64(len(in.Data)))
	r.Correlation = stat.Correlation(in.Data, out.Data, nil)

	for x := 0; x < in.NX; x++ {
		for y := 0; y < in.NY; y++ {
			r.MeanPixelVarianceIn += stat.Variance(in.Spectrum(x, y), nil)
			r.MeanPixelVarianceOut += stat.Variance(out.Spectrum(x, y), nil)
		}
	}

	pixels := float64(in.NumPixels())
	r.MeanPixelVarianceIn /= pixels
	r.MeanPixelVarianceOut /= pixels
	r.VarianceRatio = ratio(r.MeanPixelVarianceOut, r.MeanPixelVarianceIn)

	return r, nil
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}

	return num / den
}
