package model

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/FlavioCFOliveira/GoFraud/internal/activations"
	"github.com/FlavioCFOliveira/GoFraud/internal/layer"
	"github.com/FlavioCFOliveira/GoFraud/internal/loss"
	"github.com/FlavioCFOliveira/GoFraud/internal/net"
	"github.com/FlavioCFOliveira/GoFraud/internal/opt"
	"gonum.org/v1/gonum/mat"
)

// MLPParams configures the dense network classifier.
type MLPParams struct {
	Hidden       []int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         int64
	// Activation is used by the hidden layers: "relu" or "tanh".
	Activation string
	// Loss is "bce" or "mse" (the Brier score on the sigmoid output).
	Loss string
	// Scheduler is "plateau", "step" or "none".
	Scheduler string
	// PlateauPatience halves the learning rate after this many epochs
	// without improvement.
	PlateauPatience int
	// StepSize halves the learning rate every StepSize epochs under "step".
	StepSize int
}

// DefaultMLPParams returns inputs -> 16 -> 8 -> 1, 50 epochs of Adam.
func DefaultMLPParams() MLPParams {
	return MLPParams{
		Hidden:          []int{16, 8},
		Epochs:          50,
		BatchSize:       32,
		LearningRate:    0.01,
		Seed:            42,
		Activation:      "relu",
		Loss:            "bce",
		Scheduler:       "plateau",
		PlateauPatience: 5,
		StepSize:        10,
	}
}

func hiddenActivation(name string) (activations.Activation, error) {
	switch name {
	case "", "relu":
		return activations.ReLU{}, nil
	case "tanh":
		return activations.Tanh{}, nil
	default:
		return nil, fmt.Errorf("%w: activation %q", ErrInvalidParams, name)
	}
}

func trainingLoss(name string) (loss.Loss, error) {
	switch name {
	case "", "bce":
		return loss.BCELoss{}, nil
	case "mse":
		return loss.MSE{}, nil
	default:
		return nil, fmt.Errorf("%w: loss %q", ErrInvalidParams, name)
	}
}

func newScheduler(p MLPParams, optimizer opt.Tunable) (opt.Scheduler, error) {
	switch p.Scheduler {
	case "", "plateau":
		if p.PlateauPatience <= 0 {
			return nil, nil
		}
		return opt.NewReduceLROnPlateau(optimizer, 0.5, p.PlateauPatience, 1e-4, p.LearningRate/100), nil
	case "step":
		if p.StepSize <= 0 {
			return nil, fmt.Errorf("%w: step size %d", ErrInvalidParams, p.StepSize)
		}
		return opt.NewStepLR(optimizer, p.StepSize, 0.5), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: scheduler %q", ErrInvalidParams, p.Scheduler)
	}
}

// MLP is an unfit feed-forward network with a sigmoid output, trained with
// Adam.
type MLP struct {
	Params    MLPParams
	Callbacks []Callback
}

func (m *MLP) Name() string { return MLPName }

func (m *MLP) Fit(ctx context.Context, x mat.Matrix, y []int) (Classifier, error) {
	if _, err := checkTrainingData(x, y); err != nil {
		return nil, err
	}
	p := m.Params
	def := DefaultMLPParams()
	if p.Epochs <= 0 {
		p.Epochs = def.Epochs
	}
	if p.BatchSize <= 0 {
		p.BatchSize = def.BatchSize
	}
	if p.LearningRate <= 0 {
		p.LearningRate = def.LearningRate
	}
	if len(p.Hidden) == 0 {
		p.Hidden = def.Hidden
	}

	act, err := hiddenActivation(p.Activation)
	if err != nil {
		return nil, err
	}
	lossFn, err := trainingLoss(p.Loss)
	if err != nil {
		return nil, err
	}
	adam := opt.NewAdam(p.LearningRate)
	sched, err := newScheduler(p, adam)
	if err != nil {
		return nil, err
	}

	rows := rowsOf(x)
	rng := rand.New(rand.NewSource(p.Seed))

	var layers []layer.Layer
	in := len(rows[0])
	for _, h := range p.Hidden {
		layers = append(layers, layer.NewDense(in, h, act, rng))
		in = h
	}
	layers = append(layers, layer.NewDense(in, 1, activations.Sigmoid{}, rng))
	network := net.New(layers, lossFn, adam)

	targets := make([][]float64, len(y))
	for i, v := range y {
		targets[i] = []float64{float64(v)}
	}

	cbs := callbacks(m.Callbacks)
	cbs.begin(m.Name(), p.Epochs)
	defer cbs.end()

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	for epoch := 0; epoch < p.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var totalLoss float64
		batches := 0
		for start := 0; start < len(order); start += p.BatchSize {
			end := min(start+p.BatchSize, len(order))
			batchX := make([][]float64, 0, end-start)
			batchY := make([][]float64, 0, end-start)
			for _, i := range order[start:end] {
				batchX = append(batchX, rows[i])
				batchY = append(batchY, targets[i])
			}
			totalLoss += network.TrainBatch(batchX, batchY)
			batches++
		}
		epochLoss := totalLoss / float64(batches)
		if sched != nil {
			sched.StepWithLoss(epochLoss)
		}
		cbs.round(epoch, epochLoss)
	}

	return &Perceptron{Network: network}, nil
}

// Perceptron is a fitted MLP. Scoring only reads the weights.
type Perceptron struct {
	Network *net.Network
}

func (p *Perceptron) Name() string { return MLPName }

func (p *Perceptron) PredictProba(x mat.Matrix) []float64 {
	rows := rowsOf(x)
	proba := make([]float64, len(rows))
	for i, row := range rows {
		proba[i] = p.Network.Predict(row)[0]
	}
	return proba
}

func (p *Perceptron) Predict(x mat.Matrix) []int {
	return threshold(p.PredictProba(x))
}
