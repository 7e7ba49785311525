// Package dataio loads the numeric input container and writes run artifacts.
package dataio

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Input mirrors the input container layout field for field. trainingData
// rows are samples, columns are spectral features, pre-scaled to [0,1].
// em_idx identifies the run (nested array form, e.g. [[7]]); m_idx is the
// reference signature projected after training.
type Input struct {
	TrainingData [][]float64 `json:"trainingData"`
	BatchSize    int         `json:"batchSize"`
	LatentDim    int         `json:"latent_dim"`
	ActFun       string      `json:"actFunStr"`
	Beta         float64     `json:"beta_loss"`
	EmIdx        [][]int     `json:"em_idx"`
	MIdx         []float64   `json:"m_idx"`
}

// UnmarshalJSON decodes the container and rejects a missing beta_loss field.
// The other fields have non-zero valid states and are checked by validate;
// beta_loss needs a pointer to tell "absent" from an explicit zero.
func (in *Input) UnmarshalJSON(data []byte) error {
	type alias Input
	aux := struct {
		Beta *float64 `json:"beta_loss"`
		*alias
	}{alias: (*alias)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Beta == nil {
		return fmt.Errorf("beta_loss is missing")
	}
	in.Beta = *aux.Beta
	return nil
}

// LoadInput reads and validates an input container. Any missing or
// inconsistent field is an unrecoverable load-time failure.
func LoadInput(filename string) (*Input, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	var in Input
	if err := json.NewDecoder(file).Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode input file: %w", err)
	}
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("invalid input file %s: %w", filename, err)
	}
	return &in, nil
}

func (in *Input) validate() error {
	if len(in.TrainingData) == 0 {
		return fmt.Errorf("trainingData is empty")
	}
	dim := len(in.TrainingData[0])
	if dim == 0 {
		return fmt.Errorf("trainingData rows are empty")
	}
	for i, row := range in.TrainingData {
		if len(row) != dim {
			return fmt.Errorf("trainingData row %d has %d columns, want %d", i, len(row), dim)
		}
	}
	if in.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be positive, got %d", in.BatchSize)
	}
	if in.LatentDim <= 0 {
		return fmt.Errorf("latent_dim must be positive, got %d", in.LatentDim)
	}
	if in.ActFun == "" {
		return fmt.Errorf("actFunStr is missing")
	}
	if len(in.EmIdx) == 0 || len(in.EmIdx[0]) == 0 {
		return fmt.Errorf("em_idx is missing")
	}
	if len(in.MIdx) != dim {
		return fmt.Errorf("m_idx has length %d, want %d", len(in.MIdx), dim)
	}
	return nil
}

// OriginalDim returns the feature count.
func (in *Input) OriginalDim() int {
	return len(in.TrainingData[0])
}

// NumSamples returns the sample count.
func (in *Input) NumSamples() int {
	return len(in.TrainingData)
}

// RunIndex returns the scalar run identifier carried in em_idx.
func (in *Input) RunIndex() int {
	return in.EmIdx[0][0]
}

// Matrix returns the training data as a dense matrix, rows=samples.
func (in *Input) Matrix() *mat.Dense {
	m := mat.NewDense(in.NumSamples(), in.OriginalDim(), nil)
	for i, row := range in.TrainingData {
		m.SetRow(i, row)
	}
	return m
}

// Split partitions the samples into a training slice and a trailing
// validation slice of roughly valFrac of the data. The split reuses the
// underlying rows; no data is copied.
func (in *Input) Split(valFrac float64) (train, val [][]float64) {
	n := len(in.TrainingData)
	cut := n - int(float64(n)*valFrac)
	if cut <= 0 || cut > n {
		cut = n
	}
	return in.TrainingData[:cut], in.TrainingData[cut:]
}

// Result is the exported latent-mean projection in column orientation.
type Result struct {
	ZMean [][]float64 `json:"z_mean"`
}

// SaveResult writes zMean as a (latentDim, 1) column to filename. The
// projection is deterministic, so writing the same trained model twice yields
// identical files.
func SaveResult(filename string, zMean []float64) error {
	row := mat.NewDense(1, len(zMean), zMean)
	var col mat.Dense
	col.CloneFrom(row.T())

	res := Result{ZMean: make([][]float64, len(zMean))}
	for i := range res.ZMean {
		res.ZMean[i] = col.RawRowView(i)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create result file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(&res); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
