package psf

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/robin-janssen/rubix/cube"
)

// Option configures Apply.
type Option func(*applyConfig)

type applyConfig struct {
	workers  int
	strategy Strategy
}

func defaultApplyConfig() applyConfig {
	return applyConfig{
		workers:  runtime.GOMAXPROCS(0),
		strategy: StrategyAuto,
	}
}

// WithWorkers sets the number of concurrent plane workers.
func WithWorkers(n int) Option {
	return func(c *applyConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithStrategy forces a convolution strategy instead of automatic
// selection.
func WithStrategy(s Strategy) Option {
	return func(c *applyConfig) {
		c.strategy = s
	}
}

// Apply convolves every channel plane of d with the kernel under the
// same-size zero-padding policy and returns a new datacube of identical
// (X, Y, C) shape. The input cube is never modified.
//
// Channels are independent, so they are processed by a bounded worker
// pool. Every channel lands in its own disjoint stripe of the output
// layout, which preserves channel order without locking.
func Apply(d *cube.Datacube, k *Kernel, opts ...Option) (*cube.Datacube, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}

	if d == nil {
		return nil, fmt.Errorf("%w: nil datacube", ErrShapeMismatch)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	if k.Height > d.NX || k.Width > d.NY {
		return nil, fmt.Errorf("%w: kernel %dx%d exceeds plane %dx%d",
			ErrShapeMismatch, k.Height, k.Width, d.NX, d.NY)
	}

	cfg := defaultApplyConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	useFFT := cfg.strategy == StrategyFFT ||
		(cfg.strategy == StrategyAuto && k.Height*k.Width > directThreshold)

	workers := cfg.workers
	if workers > d.NC {
		workers = d.NC
	}

	// One convolver per worker: the kernel spectrum is shared, plans and
	// scratch are not.
	convs := make([]*fftConvolver, workers)

	if useFFT {
		shared, err := newFFTConvolver(d.NX, d.NY, k)
		if err != nil {
			return nil, err
		}

		convs[0] = shared
		for i := 1; i < workers; i++ {
			clone, err := shared.clone()
			if err != nil {
				return nil, err
			}

			convs[i] = clone
		}
	}

	out, err := cube.New(d.NX, d.NY, d.NC)
	if err != nil {
		return nil, err
	}

	work := make(chan int, d.NC)
	for c := 0; c < d.NC; c++ {
		work <- c
	}
	close(work)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)

		go func(fc *fftConvolver) {
			defer wg.Done()

			src := make([]float64, d.NumPixels())
			dst := make([]float64, d.NumPixels())

			for c := range work {
				if err := d.PlaneTo(src, c); err != nil {
					fail(err)
					return
				}

				if fc != nil {
					if err := fc.convolve(dst, src); err != nil {
						fail(err)
						return
					}
				} else {
					directSame(dst, src, d.NX, d.NY, k)
				}

				if err := out.SetPlane(c, dst); err != nil {
					fail(err)
					return
				}
			}
		}(convs[w])
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

// ApplySpectral convolves the spectrum of every pixel with a normalized
// 1D line-spread kernel under the same-size zero-padding policy and
// returns a new cube of identical shape. Spectra are contiguous in the
// cube layout, so the smearing runs directly on the backing data.
func ApplySpectral(d *cube.Datacube, lsf []float64) (*cube.Datacube, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil datacube", ErrShapeMismatch)
	}

	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	if len(lsf) == 0 {
		return nil, fmt.Errorf("%w: empty line-spread kernel", ErrInvalidParameter)
	}

	if len(lsf) > d.NC {
		return nil, fmt.Errorf("%w: line-spread kernel of %d taps exceeds %d channels",
			ErrShapeMismatch, len(lsf), d.NC)
	}

	out, err := cube.New(d.NX, d.NY, d.NC)
	if err != nil {
		return nil, err
	}

	temp := make([]float64, d.NC)

	for p := 0; p < d.NumPixels(); p++ {
		src := d.Data[p*d.NC : (p+1)*d.NC]
		dst := out.Data[p*d.NC : (p+1)*d.NC]
		directSame1D(dst, src, lsf, temp)
	}

	return out, nil
}
