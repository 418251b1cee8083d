package telescope

import (
	"fmt"
	"math"
)

// fwhmToSigma converts the full width at half maximum of a Gaussian to
// its standard deviation: FWHM = 2*sqrt(2*ln 2) * sigma.
const fwhmToSigma = 2.354820045030949

// Instrument describes the geometry of an integral-field unit. Spatial
// quantities are in arcseconds, spectral ones in angstroms.
type Instrument struct {
	Name        string
	FieldOfView float64    // aperture width
	SpatialRes  float64    // width of one spaxel
	WaveRange   [2]float64 // covered wavelength interval
	WaveRes     float64    // width of one spectral channel
	LSFFWHM     float64    // line-spread full width at half maximum
	PixelType   string     // spaxel shape, only "square" is supported
}

// MUSE returns the wide-field configuration of the VLT/MUSE instrument.
func MUSE() Instrument {
	return Instrument{
		Name:        "MUSE",
		FieldOfView: 5.0,
		SpatialRes:  0.2,
		WaveRange:   [2]float64{4700.15, 9351.4},
		WaveRes:     1.25,
		LSFFWHM:     2.51,
		PixelType:   "square",
	}
}

// Validate checks that the instrument geometry is usable.
func (ins Instrument) Validate() error {
	if ins.PixelType != "square" {
		return fmt.Errorf("%w: unsupported pixel type %q", ErrInvalidInstrument, ins.PixelType)
	}

	if ins.FieldOfView <= 0 || ins.SpatialRes <= 0 {
		return fmt.Errorf("%w: field of view and spatial resolution must be > 0",
			ErrInvalidInstrument)
	}

	if ins.WaveRange[1] <= ins.WaveRange[0] {
		return fmt.Errorf("%w: wavelength range [%g, %g] is empty",
			ErrInvalidInstrument, ins.WaveRange[0], ins.WaveRange[1])
	}

	if ins.WaveRes <= 0 || ins.LSFFWHM <= 0 {
		return fmt.Errorf("%w: spectral resolution and LSF width must be > 0",
			ErrInvalidInstrument)
	}

	return nil
}

// SpatialBins returns the number of spaxels along one side of the field.
func (ins Instrument) SpatialBins() int {
	return int(math.Round(ins.FieldOfView / ins.SpatialRes))
}

// Channels returns the number of spectral channels covering the
// wavelength range.
func (ins Instrument) Channels() int {
	return int(math.Round((ins.WaveRange[1] - ins.WaveRange[0]) / ins.WaveRes))
}

// LSFSigmaChannels returns the line-spread standard deviation in channel
// units, for building the spectral smearing kernel.
func (ins Instrument) LSFSigmaChannels() float64 {
	return ins.LSFFWHM / fwhmToSigma / ins.WaveRes
}
