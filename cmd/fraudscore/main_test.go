package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/model"
	"github.com/FlavioCFOliveira/GoFraud/internal/pipeline"
	"github.com/FlavioCFOliveira/GoFraud/internal/preprocess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	txs := dataset.Generate(200, 7, 0.2)
	frame, labels := dataset.ToFrame(txs)

	est := &model.RandomForest{Params: model.ForestParams{Trees: 5, Seed: 1}}
	p, _, err := pipeline.Train(context.Background(), frame, labels, preprocess.Build(frame), est, nil)
	require.NoError(t, err)
	modelPath := filepath.Join(dir, "model.bin")
	require.NoError(t, p.Save(modelPath))

	csvPath := filepath.Join(dir, "tx.csv")
	require.NoError(t, dataset.SaveCSV(csvPath, txs[:10]))

	var out bytes.Buffer
	require.NoError(t, run([]string{"-model", modelPath, csvPath}, &out))

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 11)
	assert.Equal(t, []string{"row", "probability", "prediction"}, records[0])
	assert.Equal(t, "9", records[10][0])
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(nil, &out))
	assert.Error(t, run([]string{"-model", filepath.Join(t.TempDir(), "missing.bin"), "tx.csv"}, &out))
}
