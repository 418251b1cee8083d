// Package psf models the optical blurring a telescope's point-spread
// function imprints on a spectral datacube.
//
// The package has two halves:
//
//   - Kernel construction: [Gaussian] samples a normalized, isotropic 2D
//     Gaussian over an integer grid; [LineSpread] is its 1D counterpart
//     for the spectral axis; [Delta] is the identity kernel.
//   - Application: [Apply] convolves every channel plane of a datacube
//     with one kernel under the same-size zero-padding policy and returns
//     a new cube of identical (X, Y, C) shape; [ApplySpectral] smears
//     each pixel's spectrum along the channel axis.
//
// # Usage
//
// Build a kernel once per configuration and apply it to as many cubes as
// needed:
//
//	k, err := psf.Gaussian(20, 20, 3.5)
//	blurred, err := psf.Apply(d, k)
//
// Apply is pure: the input cube is never modified. Kernels sum to 1, so
// convolution preserves total flux away from the zero-padded borders.
//
// # Algorithm Selection
//
// Two strategies are available per plane:
//
//   - Direct accumulation, vectorized tap by tap; best for small kernels
//   - Row-column FFT on zero-padded power-of-two grids, with the kernel
//     spectrum computed once and shared across all channels
//
// [Apply] selects automatically by kernel size (direct up to 64 taps);
// [WithStrategy] forces one. Channels are convolved concurrently by a
// bounded worker pool, sized with [WithWorkers].
package psf
