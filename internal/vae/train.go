package vae

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/hyperspec/specvae/internal/loss"
	"github.com/hyperspec/specvae/internal/opt"
)

// DefaultEpochs is the fixed epoch count of a standard run.
const DefaultEpochs = 50

// DefaultLearningRate is the Adam step size used when none is configured.
const DefaultLearningRate = 0.001

// TrainConfig carries the training hyperparameters taken from the input
// container and the command line.
type TrainConfig struct {
	BatchSize    int
	Epochs       int     // defaults to DefaultEpochs
	Beta         float64 // KL weight; 1 recovers the standard ELBO
	LearningRate float64 // defaults to DefaultLearningRate

	// UseMSE mirrors the -mse command-line switch. It is carried here but
	// not consulted: the objective below always uses cross-entropy.
	// TODO: wire UseMSE into the reconstruction term selection.
	UseMSE bool
}

// Trainer runs mini-batch gradient descent on a model. The logger may be nil,
// in which case a default logrus logger is used.
type Trainer struct {
	model  *VAE
	cfg    TrainConfig
	opt    opt.Optimizer
	recon  loss.Reconstruction
	logger *logrus.Logger
}

// NewTrainer creates a trainer with an Adam optimizer.
func NewTrainer(model *VAE, cfg TrainConfig, logger *logrus.Logger) *Trainer {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = DefaultEpochs
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultLearningRate
	}

	return &Trainer{
		model:  model,
		cfg:    cfg,
		opt:    opt.NewAdam(cfg.LearningRate),
		recon:  loss.SumBCE{},
		logger: logger,
	}
}

// Fit trains for the configured number of epochs. Batches are taken in data
// order and the trailing short batch is included, so every sample is visited
// once per epoch. Validation loss is computed and logged each epoch but never
// alters training; there is no early stopping and no mid-run checkpointing.
func (t *Trainer) Fit(train, val [][]float64) error {
	if len(train) == 0 {
		return fmt.Errorf("training set is empty")
	}

	bs := t.cfg.BatchSize
	if bs <= 0 || bs > len(train) {
		bs = len(train)
	}

	for epoch := 1; epoch <= t.cfg.Epochs; epoch++ {
		batchLosses := make([]float64, 0, (len(train)+bs-1)/bs)
		for start := 0; start < len(train); start += bs {
			end := min(start+bs, len(train))
			batchLosses = append(batchLosses, t.trainBatch(train[start:end]))
		}

		fields := logrus.Fields{
			"epoch": epoch,
			"loss":  floats.Sum(batchLosses) / float64(len(batchLosses)),
		}
		if len(val) > 0 {
			fields["val_loss"] = t.Evaluate(val)
		}
		t.logger.WithFields(fields).Info("epoch complete")
	}
	return nil
}

// trainBatch accumulates gradients over one batch, averages them and applies
// a single optimizer step. Returns the mean composite loss of the batch.
func (t *Trainer) trainBatch(batch [][]float64) float64 {
	t.model.ZeroGrad()

	var total float64
	for _, x := range batch {
		recon, mean, logVar := t.model.Forward(x)
		total += t.recon.Forward(recon, x) + t.cfg.Beta*loss.KL(mean, logVar)
		t.model.Backward(x, recon, mean, logVar, t.cfg.Beta, t.recon)
	}

	t.model.ScaleGrad(1 / float64(len(batch)))
	t.model.Apply(t.opt)
	return total / float64(len(batch))
}

// Evaluate returns the mean composite loss over data, or 0 when data is
// empty. Parameters and gradients are untouched; each sample still draws a
// fresh latent sample.
func (t *Trainer) Evaluate(data [][]float64) float64 {
	if len(data) == 0 {
		return 0
	}

	var total float64
	for _, x := range data {
		recon, mean, logVar := t.model.Forward(x)
		total += t.recon.Forward(recon, x) + t.cfg.Beta*loss.KL(mean, logVar)
	}
	return total / float64(len(data))
}
