// Command specvae trains a beta-VAE on endmember spectral signatures and
// exports the latent-mean projection of a reference signature. With -weights
// it skips training and projects using pre-trained parameters instead.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/hyperspec/specvae/internal/dataio"
	"github.com/hyperspec/specvae/internal/vae"
)

var (
	inputPath   = flag.String("input", "", "path to the json input container")
	weightsPath = flag.String("weights", "", "path to pre-trained weights; skips training")
	useMSE      = flag.Bool("mse", false, "select mean-squared-error reconstruction loss")
	seed        = flag.Int64("seed", 0, "random seed; 0 derives one from the clock")
	epochs      = flag.Int("epochs", vae.DefaultEpochs, "number of training epochs")
	outDir      = flag.String("out", ".", "directory for the weights and result files")
	valFrac     = flag.Float64("valsplit", 0.1, "fraction of samples monitored as validation loss")
)

func main() {
	flag.Parse()

	log := logrus.New()
	if *inputPath == "" {
		log.Fatal("missing required -input flag")
	}

	in, err := dataio.LoadInput(*inputPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load input container")
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	rows, cols := in.Matrix().Dims()
	lo, hi := dataRange(in.TrainingData)
	log.WithFields(logrus.Fields{
		"samples":    rows,
		"features":   cols,
		"latent_dim": in.LatentDim,
		"batch_size": in.BatchSize,
		"activation": in.ActFun,
		"beta":       in.Beta,
		"em_idx":     in.RunIndex(),
		"data_min":   lo,
		"data_max":   hi,
		"seed":       s,
	}).Info("input container loaded")

	var model *vae.VAE
	trained := false
	if *weightsPath != "" {
		model, err = vae.Load(*weightsPath, rng)
		if err != nil {
			log.WithError(err).Fatal("failed to load weights")
		}
		if model.OriginalDim() != in.OriginalDim() || model.LatentDim() != in.LatentDim {
			log.WithFields(logrus.Fields{
				"weights_dims": fmt.Sprintf("%dx%d", model.OriginalDim(), model.LatentDim()),
				"input_dims":   fmt.Sprintf("%dx%d", in.OriginalDim(), in.LatentDim),
			}).Fatal("weights file does not match input dimensions")
		}
		log.WithField("path", *weightsPath).Info("pre-trained weights loaded, skipping training")
	} else {
		model, err = vae.New(in.OriginalDim(), in.LatentDim, in.ActFun, rng)
		if err != nil {
			log.WithError(err).Fatal("failed to build model")
		}

		train, val := in.Split(*valFrac)
		trainer := vae.NewTrainer(model, vae.TrainConfig{
			BatchSize: in.BatchSize,
			Epochs:    *epochs,
			Beta:      in.Beta,
			UseMSE:    *useMSE,
		}, log)
		if err := trainer.Fit(train, val); err != nil {
			log.WithError(err).Fatal("training failed")
		}
		trained = true
	}

	zMean := model.Project(in.MIdx)
	resultPath := filepath.Join(*outDir, fmt.Sprintf("z_mean_em%d.json", in.RunIndex()))
	if err := dataio.SaveResult(resultPath, zMean); err != nil {
		log.WithError(err).Fatal("failed to write result file")
	}
	log.WithField("path", resultPath).Info("latent projection written")

	if trained {
		wPath := filepath.Join(*outDir, fmt.Sprintf("vae_weights_em%d.gob", in.RunIndex()))
		if err := model.Save(wPath); err != nil {
			log.WithError(err).Fatal("failed to save weights")
		}
		log.WithField("path", wPath).Info("weights saved")
	}
}

// dataRange returns the minimum and maximum value over all samples.
func dataRange(rows [][]float64) (lo, hi float64) {
	lo, hi = rows[0][0], rows[0][0]
	for _, r := range rows {
		lo = math.Min(lo, floats.Min(r))
		hi = math.Max(hi, floats.Max(r))
	}
	return lo, hi
}
