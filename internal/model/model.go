// Package model provides the binary classifiers the fraud pipeline can train:
// a random forest, gradient-boosted trees and a small dense network.
//
// An Estimator carries hyper-parameters only. Fit returns a Classifier, which is
// the fitted, immutable model; there is no way to predict with an unfit one.
package model

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Model names accepted by the selector.
const (
	RandomForestName     = "rf"
	GradientBoostingName = "xgb"
	MLPName              = "mlp"
)

var (
	// ErrUnknownModel is returned for a model name no variant answers to.
	ErrUnknownModel = errors.New("unknown model")
	// ErrModelUnavailable is returned in strict mode when a known model was not
	// compiled into this binary.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrBadTrainingData is returned when features and labels do not line up.
	ErrBadTrainingData = errors.New("bad training data")
	// ErrInvalidParams is returned by Fit for hyper-parameters it cannot use.
	ErrInvalidParams = errors.New("invalid hyper-parameters")
	// ErrShapeMismatch is returned by Decode when a model does not fit the
	// feature width it is loaded against.
	ErrShapeMismatch = errors.New("model does not match feature width")
)

// Estimator is an unfit classifier.
type Estimator interface {
	Name() string
	Fit(ctx context.Context, x mat.Matrix, y []int) (Classifier, error)
}

// Classifier is a fitted binary classifier.
type Classifier interface {
	Name() string
	// PredictProba returns the probability of the positive class per row.
	PredictProba(x mat.Matrix) []float64
	// Predict returns 0/1 labels per row.
	Predict(x mat.Matrix) []int
}

// threshold maps positive-class probabilities to labels. Ties go to class 0.
func threshold(proba []float64) []int {
	labels := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			labels[i] = 1
		}
	}
	return labels
}

// rowsOf copies a matrix into row slices.
func rowsOf(x mat.Matrix) [][]float64 {
	r, _ := x.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}

// checkTrainingData validates shapes and labels and returns the positive count.
func checkTrainingData(x mat.Matrix, y []int) (int, error) {
	r, c := x.Dims()
	if r != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d labels", ErrBadTrainingData, r, len(y))
	}
	if r == 0 || c == 0 {
		return 0, fmt.Errorf("%w: empty matrix", ErrBadTrainingData)
	}
	positives := 0
	for i, v := range y {
		switch v {
		case 0:
		case 1:
			positives++
		default:
			return 0, fmt.Errorf("%w: label %d at row %d is not 0/1", ErrBadTrainingData, v, i)
		}
	}
	return positives, nil
}
