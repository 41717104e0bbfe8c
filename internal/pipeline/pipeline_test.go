package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/model"
	"github.com/FlavioCFOliveira/GoFraud/internal/preprocess"
	"github.com/FlavioCFOliveira/GoFraud/internal/resample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func trainingData(t *testing.T) (dataset.Frame, []int) {
	t.Helper()
	txs := dataset.Generate(400, 42, 0.1)
	frame, labels := dataset.ToFrame(txs)
	return frame, labels
}

func smallForest() model.Estimator {
	return &model.RandomForest{Params: model.ForestParams{Trees: 10, Seed: 42}}
}

// TestTrain tests fitting without a rebalancer.
func TestTrain(t *testing.T) {
	frame, labels := trainingData(t)

	p, stats, err := Train(context.Background(), frame, labels, preprocess.Build(frame), smallForest(), nil)
	require.NoError(t, err)

	assert.Equal(t, 400, stats.Rows)
	assert.Equal(t, 400, stats.RowsAfterResample)
	assert.Equal(t, stats.Positives, stats.PositivesAfterResample)
	assert.Equal(t, 7, stats.Features)
	assert.Equal(t, model.RandomForestName, p.Model())
	assert.Len(t, p.FeatureNames(), 7)

	pred, err := p.Predict(frame)
	require.NoError(t, err)
	assert.Len(t, pred, 400)

	proba, err := p.PredictProba(frame)
	require.NoError(t, err)
	assert.Len(t, proba, 400)
}

// TestTrainWithRebalancer tests that resampling happens after transformation.
func TestTrainWithRebalancer(t *testing.T) {
	if !resample.Available() {
		t.Skip("built without SMOTE")
	}
	frame, labels := trainingData(t)
	smote, err := resample.New(5, 42)
	require.NoError(t, err)

	_, stats, err := Train(context.Background(), frame, labels, preprocess.Build(frame), smallForest(), smote)
	require.NoError(t, err)

	negatives := stats.Rows - stats.Positives
	assert.Equal(t, 2*negatives, stats.RowsAfterResample)
	assert.Equal(t, negatives, stats.PositivesAfterResample)
}

func TestTrainErrors(t *testing.T) {
	frame, labels := trainingData(t)

	_, _, err := Train(context.Background(), frame, labels, preprocess.Plan{Numeric: []string{"missing"}}, smallForest(), nil)
	assert.ErrorIs(t, err, preprocess.ErrMissingColumn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = Train(ctx, frame, labels, preprocess.Build(frame), smallForest(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPredictMissingColumn(t *testing.T) {
	frame, labels := trainingData(t)
	p, _, err := Train(context.Background(), frame, labels, preprocess.Build(frame), smallForest(), nil)
	require.NoError(t, err)

	amount, _ := frame.Column(dataset.ColAmount)
	partial, err := dataset.NewFrame(amount)
	require.NoError(t, err)
	_, err = p.Predict(partial)
	assert.ErrorIs(t, err, preprocess.ErrMissingColumn)
}

// TestArtifactRoundTrip tests that a saved pipeline predicts bit-identically.
func TestArtifactRoundTrip(t *testing.T) {
	frame, labels := trainingData(t)
	estimators := []model.Estimator{
		smallForest(),
		&model.GradientBoosting{Params: model.BoostParams{Rounds: 5, MaxDepth: 3, LearningRate: 0.1, Lambda: 1, MinChildWeight: 1}},
		&model.MLP{Params: model.MLPParams{Hidden: []int{4}, Epochs: 3, BatchSize: 32, LearningRate: 0.01, Seed: 1}},
	}

	for _, est := range estimators {
		t.Run(est.Name(), func(t *testing.T) {
			p, _, err := Train(context.Background(), frame, labels, preprocess.Build(frame), est, nil)
			require.NoError(t, err)
			p.Metadata = Metadata{
				RunID:     "run-1",
				CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				Effective: Effective{
					Model:     model.Selection{Requested: est.Name(), Effective: est.Name()},
					Rebalance: Rebalance{Requested: true, Available: false, Reason: "built without SMOTE"},
				},
			}

			path := filepath.Join(t.TempDir(), "fraud_model.bin")
			require.NoError(t, p.Save(path))
			loaded, err := Load(path)
			require.NoError(t, err)

			want, err := p.PredictProba(frame)
			require.NoError(t, err)
			got, err := loaded.PredictProba(frame)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			assert.Equal(t, p.Metadata.RunID, loaded.Metadata.RunID)
			assert.True(t, p.Metadata.CreatedAt.Equal(loaded.Metadata.CreatedAt))
			assert.Equal(t, p.Metadata.Effective, loaded.Metadata.Effective)
			assert.True(t, loaded.Metadata.Effective.Degraded())
		})
	}
}

func TestSaveOverwrites(t *testing.T) {
	frame, labels := trainingData(t)
	p, _, err := Train(context.Background(), frame, labels, preprocess.Build(frame), smallForest(), nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fraud_model.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 1<<20), 0o644))
	require.NoError(t, p.Save(path))

	_, err = Load(path)
	require.NoError(t, err)
}

func TestDecodeBadArtifact(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a gob stream")))
	assert.ErrorIs(t, err, ErrBadArtifact)

	frame, labels := trainingData(t)
	p, _, err := Train(context.Background(), frame, labels, preprocess.Build(frame), smallForest(), nil)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	truncated := buf.Bytes()[:buf.Len()/2]
	_, err = Decode(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrBadArtifact)

	_, err = Load(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

// TestDecodeMismatchedModel tests that a classifier built for another feature
// width is rejected at load time instead of failing when scoring.
func TestDecodeMismatchedModel(t *testing.T) {
	frame, _ := trainingData(t)
	prep, err := preprocess.Build(frame).Fit(frame)
	require.NoError(t, err)
	require.Equal(t, 7, prep.NumOutputs())

	narrow := mat.NewDense(40, 3, nil)
	narrowLabels := make([]int, 40)
	for i := 0; i < 40; i++ {
		narrow.SetRow(i, []float64{float64(i), float64(i % 5), float64(i % 2)})
		narrowLabels[i] = i % 2
	}
	mlp, err := (&model.MLP{Params: model.MLPParams{Hidden: []int{4}, Epochs: 2, Seed: 1}}).Fit(context.Background(), narrow, narrowLabels)
	require.NoError(t, err)

	tests := []struct {
		name string
		clf  model.Classifier
	}{
		{"tree feature out of range", &model.Forest{Trees: []model.Tree{{Nodes: []model.Node{
			{Feature: 99, Threshold: 0, Left: 1, Right: 2},
			{Feature: -1, Value: 0},
			{Feature: -1, Value: 1},
		}}}}},
		{"network input width", mlp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New(prep, tt.clf).Encode(&buf))

			_, err := Decode(&buf)
			assert.ErrorIs(t, err, ErrBadArtifact)
		})
	}
}

func TestEffectiveDegraded(t *testing.T) {
	assert.False(t, Effective{}.Degraded())
	assert.True(t, Effective{Model: model.Selection{Fallback: true}}.Degraded())
	assert.True(t, Effective{Rebalance: Rebalance{Requested: true}}.Degraded())
	assert.False(t, Effective{Rebalance: Rebalance{Requested: true, Available: true, Applied: true}}.Degraded())
}
