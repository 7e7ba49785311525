package dataio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeContainer(t *testing.T, in *Input) string {
	t.Helper()
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal container: %v", err)
	}
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write container: %v", err)
	}
	return path
}

func validContainer() *Input {
	return &Input{
		TrainingData: [][]float64{
			{0.1, 0.2, 0.3},
			{0.4, 0.5, 0.6},
			{0.7, 0.8, 0.9},
			{0.2, 0.3, 0.4},
		},
		BatchSize: 2,
		LatentDim: 2,
		ActFun:    "relu",
		Beta:      1,
		EmIdx:     [][]int{{7}},
		MIdx:      []float64{0.5, 0.5, 0.5},
	}
}

// TestLoadInput round-trips a valid container through a file.
func TestLoadInput(t *testing.T) {
	path := writeContainer(t, validContainer())

	in, err := LoadInput(path)
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}

	if in.OriginalDim() != 3 {
		t.Errorf("OriginalDim = %d, want 3", in.OriginalDim())
	}
	if in.NumSamples() != 4 {
		t.Errorf("NumSamples = %d, want 4", in.NumSamples())
	}
	if in.RunIndex() != 7 {
		t.Errorf("RunIndex = %d, want 7", in.RunIndex())
	}

	r, c := in.Matrix().Dims()
	if r != 4 || c != 3 {
		t.Errorf("Matrix dims = (%d, %d), want (4, 3)", r, c)
	}
}

// TestLoadInputMissingFile verifies the unrecoverable load failure.
func TestLoadInputMissingFile(t *testing.T) {
	if _, err := LoadInput(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadInput of a missing file should fail")
	}
}

// TestLoadInputValidation exercises the per-field failure modes.
func TestLoadInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"empty trainingData", func(in *Input) { in.TrainingData = nil }},
		{"ragged rows", func(in *Input) { in.TrainingData[1] = []float64{1} }},
		{"zero batchSize", func(in *Input) { in.BatchSize = 0 }},
		{"zero latent_dim", func(in *Input) { in.LatentDim = 0 }},
		{"missing actFunStr", func(in *Input) { in.ActFun = "" }},
		{"missing em_idx", func(in *Input) { in.EmIdx = nil }},
		{"short m_idx", func(in *Input) { in.MIdx = []float64{0.5} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validContainer()
			tt.mutate(in)
			path := writeContainer(t, in)
			if _, err := LoadInput(path); err == nil {
				t.Errorf("LoadInput should fail for %s", tt.name)
			}
		})
	}
}

// TestLoadInputMissingBeta verifies an absent beta_loss key is rejected
// rather than decoding to a zero weight. The field cannot be exercised via
// the mutate table above because marshaling always emits it.
func TestLoadInputMissingBeta(t *testing.T) {
	raw := `{
		"trainingData": [[0.1, 0.2, 0.3], [0.4, 0.5, 0.6]],
		"batchSize": 2,
		"latent_dim": 2,
		"actFunStr": "relu",
		"em_idx": [[7]],
		"m_idx": [0.5, 0.5, 0.5]
	}`
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write container: %v", err)
	}
	if _, err := LoadInput(path); err == nil {
		t.Error("LoadInput should fail when beta_loss is absent")
	}
}

// TestLoadInputExplicitZeroBeta verifies beta_loss=0 stays a valid value;
// only the absent key is an error.
func TestLoadInputExplicitZeroBeta(t *testing.T) {
	in := validContainer()
	in.Beta = 0
	path := writeContainer(t, in)

	loaded, err := LoadInput(path)
	if err != nil {
		t.Fatalf("LoadInput: %v", err)
	}
	if loaded.Beta != 0 {
		t.Errorf("Beta = %v, want 0", loaded.Beta)
	}
}

// TestSplit verifies the trailing validation split.
func TestSplit(t *testing.T) {
	in := validContainer()

	train, val := in.Split(0.25)
	if len(train) != 3 || len(val) != 1 {
		t.Errorf("Split(0.25) = (%d, %d), want (3, 1)", len(train), len(val))
	}

	train, val = in.Split(0)
	if len(train) != 4 || len(val) != 0 {
		t.Errorf("Split(0) = (%d, %d), want (4, 0)", len(train), len(val))
	}
}

// TestSaveResult verifies the column orientation of the exported projection.
func TestSaveResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "z_mean_em7.json")
	zMean := []float64{0.25, -1.5}

	if err := SaveResult(path, zMean); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}

	if len(res.ZMean) != 2 {
		t.Fatalf("z_mean has %d rows, want 2", len(res.ZMean))
	}
	for i, row := range res.ZMean {
		if len(row) != 1 {
			t.Fatalf("z_mean row %d has %d columns, want 1", i, len(row))
		}
		if row[0] != zMean[i] {
			t.Errorf("z_mean[%d][0] = %v, want %v", i, row[0], zMean[i])
		}
	}
}

// TestSaveResultDeterministic verifies repeated exports are bit-identical.
func TestSaveResultDeterministic(t *testing.T) {
	dir := t.TempDir()
	zMean := []float64{0.123456789, -0.987654321, 3.5}

	p1 := filepath.Join(dir, "a.json")
	p2 := filepath.Join(dir, "b.json")
	if err := SaveResult(p1, zMean); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}
	if err := SaveResult(p2, zMean); err != nil {
		t.Fatalf("SaveResult: %v", err)
	}

	a, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two exports of the same projection differ")
	}
}
