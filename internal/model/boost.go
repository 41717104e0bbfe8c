package model

import (
	"context"
	"math"

	"github.com/FlavioCFOliveira/GoFraud/internal/activations"
	"gonum.org/v1/gonum/mat"
)

// BoostParams configures gradient boosting.
type BoostParams struct {
	Rounds         int
	MaxDepth       int
	LearningRate   float64
	Lambda         float64 // L2 regularisation on leaf weights
	MinChildWeight float64 // minimum hessian sum per child
}

// DefaultBoostParams returns 300 rounds, depth 6, learning rate 0.1.
func DefaultBoostParams() BoostParams {
	return BoostParams{
		Rounds:         300,
		MaxDepth:       6,
		LearningRate:   0.1,
		Lambda:         1,
		MinChildWeight: 1,
	}
}

// GradientBoosting is an unfit boosted-tree classifier on logistic loss.
// Leaf weights are Newton steps -G/(H+lambda) scaled by the learning rate.
type GradientBoosting struct {
	Params    BoostParams
	Callbacks []Callback
}

func (gb *GradientBoosting) Name() string { return GradientBoostingName }

func (gb *GradientBoosting) Fit(ctx context.Context, x mat.Matrix, y []int) (Classifier, error) {
	if _, err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	p := gb.Params
	if p.Rounds <= 0 {
		p.Rounds = DefaultBoostParams().Rounds
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = DefaultBoostParams().MaxDepth
	}

	rows := rowsOf(x)
	n := len(rows)
	margin := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	cbs := callbacks(gb.Callbacks)
	cbs.begin(gb.Name(), p.Rounds)
	defer cbs.end()

	booster := &Booster{Trees: make([]Tree, 0, p.Rounds)}
	for round := 0; round < p.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range rows {
			prob := activations.Logistic(margin[i])
			grad[i] = prob - float64(y[i])
			hess[i] = prob * (1 - prob)
		}

		b := &newtonBuilder{
			rows:           rows,
			grad:           grad,
			hess:           hess,
			maxDepth:       p.MaxDepth,
			lambda:         p.Lambda,
			minChildWeight: p.MinChildWeight,
			learningRate:   p.LearningRate,
			tree:           &Tree{},
		}
		b.grow(idx, 0)
		booster.Trees = append(booster.Trees, *b.tree)

		var logLoss float64
		for i, row := range rows {
			margin[i] += b.tree.predict(row)
			logLoss += logisticLoss(margin[i], y[i])
		}
		cbs.round(round, logLoss/float64(n))
	}

	return booster, nil
}

// logisticLoss is the log-loss of a raw margin, computed without overflow.
func logisticLoss(margin float64, y int) float64 {
	// log(1 + exp(-m)) for y=1, log(1 + exp(m)) for y=0
	m := margin
	if y == 1 {
		m = -m
	}
	if m > 0 {
		return m + math.Log1p(math.Exp(-m))
	}
	return math.Log1p(math.Exp(m))
}

// Booster is a fitted gradient-boosted model. The positive-class probability
// is the logistic of the summed tree outputs.
type Booster struct {
	Trees []Tree
}

func (b *Booster) Name() string { return GradientBoostingName }

func (b *Booster) PredictProba(x mat.Matrix) []float64 {
	rows := rowsOf(x)
	proba := make([]float64, len(rows))
	for i, row := range rows {
		var m float64
		for t := range b.Trees {
			m += b.Trees[t].predict(row)
		}
		proba[i] = activations.Logistic(m)
	}
	return proba
}

func (b *Booster) Predict(x mat.Matrix) []int {
	return threshold(b.PredictProba(x))
}
