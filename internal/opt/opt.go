// Package opt provides optimization algorithms.
package opt

import "math"

// Optimizer updates network parameters based on gradients.
type Optimizer interface {
	// Step updates params in place. key identifies the parameter group so
	// stateful optimizers can keep per-group moments.
	Step(key int, params, gradients []float64)
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LearningRate float64
}

// Step updates params in-place: params = params - lr * gradients
func (s SGD) Step(_ int, params, gradients []float64) {
	for i := range params {
		params[i] -= s.LearningRate * gradients[i]
	}
}

// Adam optimizer for faster convergence.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	m map[int][]float64
	v map[int][]float64
	t map[int]int
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
		m:            make(map[int][]float64),
		v:            make(map[int][]float64),
		t:            make(map[int]int),
	}
}

// Step applies one bias-corrected Adam update to the parameter group key.
func (a *Adam) Step(key int, params, gradients []float64) {
	m, ok := a.m[key]
	if !ok {
		m = make([]float64, len(params))
		a.m[key] = m
		a.v[key] = make([]float64, len(params))
	}
	v := a.v[key]
	a.t[key]++
	t := float64(a.t[key])

	c1 := 1 - math.Pow(a.Beta1, t)
	c2 := 1 - math.Pow(a.Beta2, t)
	for i, g := range gradients {
		m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
		v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
		mHat := m[i] / c1
		vHat := v[i] / c2
		params[i] -= a.LearningRate * mHat / (math.Sqrt(vHat) + a.Epsilon)
	}
}
