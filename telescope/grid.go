// Package telescope maps particle coordinates onto the spatial grid of an
// integral-field instrument: bin edges, spaxel assignment, aperture
// masking, and instrument presets.
package telescope

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Errors returned by grid construction and assignment.
var (
	ErrInvalidGrid       = errors.New("telescope: invalid grid")
	ErrInvalidInstrument = errors.New("telescope: invalid instrument")
)

// BinEdges returns bins+1 uniform edges spanning [-width/2, +width/2].
// Width is the aperture extent in the same units as the particle
// coordinates the edges will be used against.
func BinEdges(width float64, bins int) ([]float64, error) {
	if bins < 1 {
		return nil, fmt.Errorf("%w: need at least 1 bin, got %d", ErrInvalidGrid, bins)
	}

	if math.IsNaN(width) || width <= 0 {
		return nil, fmt.Errorf("%w: width must be > 0, got %g", ErrInvalidGrid, width)
	}

	return floats.Span(make([]float64, bins+1), -width/2, width/2), nil
}

// AssignSpaxels digitizes the x and y coordinate of every particle
// against the edges and returns flat spaxel indices x + bins*y.
// Coordinates outside the edge span are clamped to the nearest edge bin,
// so every particle lands on the grid; callers that want to drop
// out-of-aperture particles mask them first.
func AssignSpaxels(coords [][3]float64, edges []float64) ([]int, error) {
	if err := validateEdges(edges); err != nil {
		return nil, err
	}

	bins := len(edges) - 1

	idx := make([]int, len(coords))
	for i, c := range coords {
		bx := digitize(c[0], edges, bins)
		by := digitize(c[1], edges, bins)
		idx[i] = bx + bins*by
	}

	return idx, nil
}

// ApertureMask reports for every particle whether its x and y coordinate
// both lie within the edge span.
func ApertureMask(coords [][3]float64, edges []float64) ([]bool, error) {
	if err := validateEdges(edges); err != nil {
		return nil, err
	}

	lo := edges[0]
	hi := edges[len(edges)-1]

	mask := make([]bool, len(coords))
	for i, c := range coords {
		mask[i] = c[0] >= lo && c[0] <= hi && c[1] >= lo && c[1] <= hi
	}

	return mask, nil
}

// digitize returns the bin index of v, clamped to [0, bins-1]. The bin of
// v is the count of edges <= v minus one, matching histogram assignment
// with the last bin closed on the right.
func digitize(v float64, edges []float64, bins int) int {
	b := sort.Search(len(edges), func(i int) bool { return v < edges[i] }) - 1
	if b < 0 {
		return 0
	}

	if b >= bins {
		return bins - 1
	}

	return b
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return fmt.Errorf("%w: need at least 2 edges, got %d", ErrInvalidGrid, len(edges))
	}

	if edges[0] >= edges[len(edges)-1] {
		return fmt.Errorf("%w: edges must ascend", ErrInvalidGrid)
	}

	return nil
}
