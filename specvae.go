// Package specvae trains beta variational autoencoders on endmember
// spectral signatures.
package specvae

import (
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/hyperspec/specvae/internal/activations"
	"github.com/hyperspec/specvae/internal/opt"
	"github.com/hyperspec/specvae/internal/vae"
)

// Re-export common types and functions for easier access
type (
	Model       = vae.VAE
	Trainer     = vae.Trainer
	TrainConfig = vae.TrainConfig
	Optimizer   = opt.Optimizer
	Activation  = activations.Activation
)

// DefaultEpochs is the fixed epoch count of a standard run.
const DefaultEpochs = vae.DefaultEpochs

// Model creation
func New(originalDim, latentDim int, activation string, rng *rand.Rand) (*Model, error) {
	return vae.New(originalDim, latentDim, activation, rng)
}

// PlanDims derives the hidden-layer widths for a given input and latent size.
func PlanDims(originalDim, latentDim int) (int, int, int) {
	return vae.PlanDims(originalDim, latentDim)
}

// Training
func NewTrainer(model *Model, cfg TrainConfig, logger *logrus.Logger) *Trainer {
	return vae.NewTrainer(model, cfg, logger)
}

// Optimizers
func Adam(lr float64) Optimizer {
	return opt.NewAdam(lr)
}

// Activations
var (
	ReLU     = activations.ReLU{}
	Softplus = activations.Softplus{}
	Sigmoid  = activations.Sigmoid{}
	Tanh     = activations.Tanh{}
)

func ELU(alpha float64) Activation {
	return activations.NewELU(alpha)
}

// Model Persistence
func Load(filename string, rng *rand.Rand) (*Model, error) {
	return vae.Load(filename, rng)
}
