// Package pipeline couples a fitted preprocessing transformer with a fitted
// classifier. A Pipeline is the unit of training, inference and persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/FlavioCFOliveira/GoFraud/internal/dataset"
	"github.com/FlavioCFOliveira/GoFraud/internal/model"
	"github.com/FlavioCFOliveira/GoFraud/internal/preprocess"
	"github.com/FlavioCFOliveira/GoFraud/internal/resample"
	"gonum.org/v1/gonum/mat"
)

// Pipeline is a fitted transformer followed by a fitted classifier. Both are
// owned by the pipeline and never change after Train or Decode, so Predict
// and PredictProba may be called from several goroutines.
type Pipeline struct {
	prep *preprocess.Transformer
	clf  model.Classifier

	// Metadata is persisted in the artifact header.
	Metadata Metadata
}

// TrainStats describes the data a pipeline was fitted on.
type TrainStats struct {
	Rows                   int
	RowsAfterResample      int
	Positives              int
	PositivesAfterResample int
	Features               int
	Duration               time.Duration
}

// Train fits plan on x, resamples the transformed rows when rebalancer is
// not nil, then fits est.
func Train(ctx context.Context, x dataset.Frame, y []int, plan preprocess.Plan, est model.Estimator, rebalancer resample.Rebalancer) (*Pipeline, TrainStats, error) {
	start := time.Now()
	stats := TrainStats{Rows: len(y), Positives: countPositives(y)}

	prep, err := plan.Fit(x)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to fit preprocessor: %w", err)
	}
	features, err := prep.Transform(x)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to transform training data: %w", err)
	}
	stats.Features = prep.NumOutputs()

	labels := y
	if rebalancer != nil {
		features, labels, err = rebalancer.Resample(features, y)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to rebalance with %s: %w", rebalancer.Name(), err)
		}
	}
	stats.RowsAfterResample = len(labels)
	stats.PositivesAfterResample = countPositives(labels)

	clf, err := est.Fit(ctx, features, labels)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to fit %s: %w", est.Name(), err)
	}
	stats.Duration = time.Since(start)

	return &Pipeline{prep: prep, clf: clf}, stats, nil
}

// New assembles a pipeline from already fitted parts.
func New(prep *preprocess.Transformer, clf model.Classifier) *Pipeline {
	return &Pipeline{prep: prep, clf: clf}
}

// Model returns the name of the fitted classifier.
func (p *Pipeline) Model() string {
	return p.clf.Name()
}

// FeatureNames returns the names of the transformed feature columns.
func (p *Pipeline) FeatureNames() []string {
	return p.prep.FeatureNames()
}

// Predict returns 0/1 labels for every row of f.
func (p *Pipeline) Predict(f dataset.Frame) ([]int, error) {
	x, err := p.transform(f)
	if err != nil {
		return nil, err
	}
	return p.clf.Predict(x), nil
}

// PredictProba returns the positive-class probability for every row of f.
func (p *Pipeline) PredictProba(f dataset.Frame) ([]float64, error) {
	x, err := p.transform(f)
	if err != nil {
		return nil, err
	}
	return p.clf.PredictProba(x), nil
}

func (p *Pipeline) transform(f dataset.Frame) (*mat.Dense, error) {
	x, err := p.prep.Transform(f)
	if err != nil {
		return nil, fmt.Errorf("failed to transform: %w", err)
	}
	return x, nil
}

func countPositives(y []int) int {
	n := 0
	for _, v := range y {
		if v == 1 {
			n++
		}
	}
	return n
}
