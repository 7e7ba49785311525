package vae

import (
	"encoding/gob"
	"fmt"
	"io"
	"math/rand"
	"os"
)

// snapshot is the gob wire form of a trained model: an architecture header
// followed by all parameters flattened in group order. The hidden widths are
// not stored; Load rederives them through PlanDims.
type snapshot struct {
	OriginalDim int
	LatentDim   int
	Activation  string
	Params      []float64
}

// Save writes the model to a weights file using gob encoding.
func (v *VAE) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer file.Close()

	return v.EncodeTo(file)
}

// EncodeTo writes the model snapshot to w.
func (v *VAE) EncodeTo(w io.Writer) error {
	s := snapshot{
		OriginalDim: v.originalDim,
		LatentDim:   v.latentDim,
		Activation:  v.actName,
		Params:      v.Params(),
	}
	if err := gob.NewEncoder(w).Encode(&s); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load reads a weights file and reconstructs the model with an identical
// architecture. rng becomes the loaded model's sampling source.
func Load(filename string, rng *rand.Rand) (*VAE, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer file.Close()

	var s snapshot
	if err := gob.NewDecoder(file).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}

	model, err := New(s.OriginalDim, s.LatentDim, s.Activation, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild model: %w", err)
	}
	if err := model.SetParams(s.Params); err != nil {
		return nil, fmt.Errorf("failed to restore parameters: %w", err)
	}
	return model, nil
}
