// Package vae implements a beta variational autoencoder over fixed-length
// signature vectors: a three-layer dense encoder with linear posterior-moment
// heads, a reparameterized sampling stage, and a mirrored decoder with a
// sigmoid output layer.
package vae

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/hyperspec/specvae/internal/activations"
	"github.com/hyperspec/specvae/internal/layer"
	"github.com/hyperspec/specvae/internal/loss"
)

// VAE holds the encoder, sampler and decoder parameters for one run. A single
// run owns its parameters exclusively; nothing here is safe for concurrent
// use.
type VAE struct {
	originalDim int
	latentDim   int
	actName     string

	enc1, enc2, enc3 *layer.Dense
	meanHead         *layer.Dense
	logVarHead       *layer.Dense
	dec1, dec2, dec3 *layer.Dense
	out              *layer.Dense

	rng *rand.Rand

	// Working buffers for one forward/backward round trip.
	eps     []float64
	z       []float64
	dRecon  []float64
	dMean   []float64
	dLogVar []float64
	dHidden []float64
}

// New builds a model for the given input and latent dimensionality. Hidden
// widths come from PlanDims; the hidden activation is selected by name. All
// weight initialization draws from rng, which the model keeps for sampling.
func New(originalDim, latentDim int, activation string, rng *rand.Rand) (*VAE, error) {
	act, err := activations.ByName(activation)
	if err != nil {
		return nil, err
	}

	d1, d2, d3 := PlanDims(originalDim, latentDim)

	return &VAE{
		originalDim: originalDim,
		latentDim:   latentDim,
		actName:     activation,

		enc1: layer.NewDense(originalDim, d1, act, rng),
		enc2: layer.NewDense(d1, d2, act, rng),
		enc3: layer.NewDense(d2, d3, act, rng),

		// The posterior moments are unconstrained reals, so both heads
		// stay linear.
		meanHead:   layer.NewDense(d3, latentDim, activations.Linear{}, rng),
		logVarHead: layer.NewDense(d3, latentDim, activations.Linear{}, rng),

		dec1: layer.NewDense(latentDim, d3, act, rng),
		dec2: layer.NewDense(d3, d2, act, rng),
		dec3: layer.NewDense(d2, d1, act, rng),
		out:  layer.NewDense(d1, originalDim, activations.Sigmoid{}, rng),

		rng:     rng,
		eps:     make([]float64, latentDim),
		z:       make([]float64, latentDim),
		dRecon:  make([]float64, originalDim),
		dMean:   make([]float64, latentDim),
		dLogVar: make([]float64, latentDim),
		dHidden: make([]float64, d3),
	}, nil
}

// OriginalDim returns the input vector length.
func (v *VAE) OriginalDim() int { return v.originalDim }

// LatentDim returns the latent vector length.
func (v *VAE) LatentDim() int { return v.latentDim }

// Activation returns the configured hidden activation name.
func (v *VAE) Activation() string { return v.actName }

// Encode runs only the deterministic encoder and returns copies of the
// posterior mean and log-variance for x.
func (v *VAE) Encode(x []float64) (mean, logVar []float64) {
	h := v.enc1.Forward(x)
	h = v.enc2.Forward(h)
	h = v.enc3.Forward(h)
	m := v.meanHead.Forward(h)
	lv := v.logVarHead.Forward(h)
	return append([]float64(nil), m...), append([]float64(nil), lv...)
}

// Sample draws z = mean + exp(0.5*logVar)*eps with eps drawn elementwise from
// the standard normal, fresh on every call. The draws are local to the call;
// the eps buffer retained by Forward for the next Backward is untouched, so
// Sample may be interleaved with a pending forward/backward pair.
func (v *VAE) Sample(mean, logVar []float64) []float64 {
	z := make([]float64, v.latentDim)
	for i := range z {
		z[i] = mean[i] + math.Exp(0.5*logVar[i])*v.rng.NormFloat64()
	}
	return z
}

// Decode maps a latent vector back to data space. Every output coordinate is
// sigmoid-bounded to [0,1].
func (v *VAE) Decode(z []float64) []float64 {
	d := v.dec1.Forward(z)
	d = v.dec2.Forward(d)
	d = v.dec3.Forward(d)
	return append([]float64(nil), v.out.Forward(d)...)
}

// Project runs the encoder on x and returns only the posterior mean. This is
// the export path: no sampling is involved, so repeated calls on the same
// parameters are identical.
func (v *VAE) Project(x []float64) []float64 {
	mean, _ := v.Encode(x)
	return mean
}

// Forward performs one full stochastic pass: encode, sample, decode. The
// returned slices alias internal buffers and are valid until the next Forward
// call; Backward must be called before then to consume them.
func (v *VAE) Forward(x []float64) (recon, mean, logVar []float64) {
	h := v.enc1.Forward(x)
	h = v.enc2.Forward(h)
	h = v.enc3.Forward(h)
	mean = v.meanHead.Forward(h)
	logVar = v.logVarHead.Forward(h)

	for i := 0; i < v.latentDim; i++ {
		v.eps[i] = v.rng.NormFloat64()
		v.z[i] = mean[i] + math.Exp(0.5*logVar[i])*v.eps[i]
	}

	d := v.dec1.Forward(v.z)
	d = v.dec2.Forward(d)
	d = v.dec3.Forward(d)
	recon = v.out.Forward(d)
	return recon, mean, logVar
}

// Backward accumulates parameter gradients for one sample given the outputs
// of the immediately preceding Forward call. rec supplies the reconstruction
// gradient; the beta-weighted KL gradient is added to the moment heads, and
// the sampler is differentiated through the retained eps draw.
func (v *VAE) Backward(x, recon, mean, logVar []float64, beta float64, rec loss.Reconstruction) {
	rec.BackwardInPlace(recon, x, v.dRecon)

	g := v.out.Backward(v.dRecon)
	g = v.dec3.Backward(g)
	g = v.dec2.Backward(g)
	g = v.dec1.Backward(g) // dL/dz

	// Through z = mean + exp(0.5*logVar)*eps.
	for i := 0; i < v.latentDim; i++ {
		v.dMean[i] = g[i]
		v.dLogVar[i] = g[i] * v.eps[i] * 0.5 * math.Exp(0.5*logVar[i])
	}
	loss.KLGradInPlace(mean, logVar, beta, v.dMean, v.dLogVar)

	// Both heads read the same hidden representation; their input
	// gradients sum before flowing back through the encoder.
	gm := v.meanHead.Backward(v.dMean)
	copy(v.dHidden, gm)
	floats.Add(v.dHidden, v.logVarHead.Backward(v.dLogVar))

	h := v.enc3.Backward(v.dHidden)
	h = v.enc2.Backward(h)
	v.enc1.Backward(h)
}

// ZeroGrad resets the accumulated gradients of every layer.
func (v *VAE) ZeroGrad() {
	for _, g := range v.groups() {
		g.l.ZeroGrad()
	}
}

// ScaleGrad multiplies every accumulated gradient by s.
func (v *VAE) ScaleGrad(s float64) {
	for _, g := range v.groups() {
		g.l.ScaleGrad(s)
	}
}

// Apply performs one optimizer step over all parameter groups.
func (v *VAE) Apply(o optimizer) {
	for _, g := range v.groups() {
		params := g.l.Params()
		o.Step(g.name, params, g.l.Gradients())
		g.l.SetParams(params)
	}
}

// optimizer is the subset of opt.Optimizer the model needs; declared locally
// to keep the dependency direction model -> opt out of this file.
type optimizer interface {
	Step(group string, params, gradients []float64)
}

type paramGroup struct {
	name string
	l    *layer.Dense
}

// groups returns the layers in the fixed order used for optimizer state and
// for flattening parameters into a weights snapshot.
func (v *VAE) groups() []paramGroup {
	return []paramGroup{
		{"enc1", v.enc1},
		{"enc2", v.enc2},
		{"enc3", v.enc3},
		{"z_mean", v.meanHead},
		{"z_log_var", v.logVarHead},
		{"dec1", v.dec1},
		{"dec2", v.dec2},
		{"dec3", v.dec3},
		{"out", v.out},
	}
}

// Params returns all model parameters flattened in group order (copy).
func (v *VAE) Params() []float64 {
	var params []float64
	for _, g := range v.groups() {
		params = append(params, g.l.Params()...)
	}
	return params
}

// SetParams restores all model parameters from a flattened slice.
func (v *VAE) SetParams(params []float64) error {
	total := 0
	for _, g := range v.groups() {
		total += g.l.NumParams()
	}
	if len(params) != total {
		return fmt.Errorf("parameter count mismatch: got %d, want %d", len(params), total)
	}

	offset := 0
	for _, g := range v.groups() {
		n := g.l.NumParams()
		g.l.SetParams(params[offset : offset+n])
		offset += n
	}
	return nil
}
