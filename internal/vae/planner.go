package vae

import "math"

// PlanDims derives the three hidden-layer widths that taper from the input
// dimensionality toward the latent dimensionality:
//
//	d1 = ceil(1.2*originalDim) + 5
//	d2 = max(ceil(originalDim/4), latentDim+2) + 3
//	d3 = max(ceil(originalDim/10), latentDim+1)
//
// Pure and deterministic. Inputs are trusted; non-positive dimensions are
// undefined behavior.
func PlanDims(originalDim, latentDim int) (d1, d2, d3 int) {
	od := float64(originalDim)
	d1 = int(math.Ceil(od*1.2)) + 5
	d2 = max(int(math.Ceil(od/4)), latentDim+2) + 3
	d3 = max(int(math.Ceil(od/10)), latentDim+1)
	return d1, d2, d3
}
