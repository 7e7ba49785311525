// Package loss provides the reconstruction terms and the KL divergence used
// by the composite training objective.
package loss

import "math"

// Reconstruction scores a reconstructed vector against the original input and
// computes the gradient of the loss with respect to the reconstruction. Both
// variants sum over input coordinates rather than averaging, which keeps the
// reconstruction term comparable in magnitude to the KL term.
type Reconstruction interface {
	// Forward computes the loss for one sample.
	Forward(yPred, yTrue []float64) float64

	// BackwardInPlace computes dL/dyPred into grad.
	BackwardInPlace(yPred, yTrue, grad []float64)
}

// SumBCE is binary cross-entropy summed over input coordinates (the
// per-element mean scaled by the input dimension). Predictions must lie in
// (0, 1); the sigmoid output layer guarantees that here.
type SumBCE struct{}

const eps = 1e-10

// Forward computes -sum(y*log(p) + (1-y)*log(1-p)).
func (b SumBCE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("loss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		// Clip predictions to avoid log(0)
		pred := clip01(yPred[i])
		sum += yTrue[i]*math.Log(pred) + (1.0-yTrue[i])*math.Log(1.0-pred)
	}
	return -sum
}

// BackwardInPlace computes grad[i] = (p - y) / (p * (1-p)).
func (b SumBCE) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("loss: slices must have same length")
	}

	for i := 0; i < n; i++ {
		pred := clip01(yPred[i])
		grad[i] = (pred - yTrue[i]) / (pred * (1.0 - pred))
	}
}

// SumSquares is squared error summed over input coordinates.
type SumSquares struct{}

// Forward computes sum((p - y)^2).
func (m SumSquares) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("loss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yPred[i] - yTrue[i]
		sum += diff * diff
	}
	return sum
}

// BackwardInPlace computes grad[i] = 2 * (p - y).
func (m SumSquares) BackwardInPlace(yPred, yTrue, grad []float64) {
	n := len(yPred)
	if n != len(yTrue) || n != len(grad) {
		panic("loss: slices must have same length")
	}

	for i := 0; i < n; i++ {
		grad[i] = 2 * (yPred[i] - yTrue[i])
	}
}

// KL computes the divergence of N(mean, exp(logVar)) from the standard normal
// prior: -0.5 * sum(1 + logVar - mean^2 - exp(logVar)). Zero exactly when
// mean and logVar are both zero. logVar is not clipped; a very large value
// overflows exp and propagates as +Inf.
func KL(mean, logVar []float64) float64 {
	if len(mean) != len(logVar) {
		panic("loss: mean and logVar must have same length")
	}

	var sum float64
	for i := range mean {
		sum += 1 + logVar[i] - mean[i]*mean[i] - math.Exp(logVar[i])
	}
	return -0.5 * sum
}

// KLGradInPlace adds beta times the KL gradient to dMean and dLogVar:
// d/dMean = mean, d/dLogVar = 0.5*(exp(logVar) - 1).
func KLGradInPlace(mean, logVar []float64, beta float64, dMean, dLogVar []float64) {
	n := len(mean)
	if n != len(logVar) || n != len(dMean) || n != len(dLogVar) {
		panic("loss: slices must have same length")
	}

	for i := 0; i < n; i++ {
		dMean[i] += beta * mean[i]
		dLogVar[i] += beta * 0.5 * (math.Exp(logVar[i]) - 1)
	}
}

func clip01(p float64) float64 {
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
