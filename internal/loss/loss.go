// Package loss provides loss functions for training dense networks.
package loss

import "math"

// Loss is a loss function with its gradient.
type Loss interface {
	// Forward computes the loss value.
	Forward(yPred, yTrue []float64) float64

	// Backward computes dLoss/dyPred.
	Backward(yPred, yTrue []float64) []float64
}

// MSE is mean squared error.
type MSE struct{}

// Forward computes (1/n) * sum((pred - y)^2)
func (m MSE) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("MSE: prediction and target must have same length")
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := yPred[i] - yTrue[i]
		sum += d * d
	}
	return sum / float64(n)
}

// Backward computes 2 * (pred - y) / n
func (m MSE) Backward(yPred, yTrue []float64) []float64 {
	n := len(yPred)
	grad := make([]float64, n)
	for i := 0; i < n; i++ {
		grad[i] = 2 * (yPred[i] - yTrue[i]) / float64(n)
	}
	return grad
}

// BCELoss (Binary Cross Entropy) loss.
// Requires predictions to be in range (0, 1).
type BCELoss struct{}

const eps = 1e-12

func clip(p float64) float64 {
	return math.Min(math.Max(p, eps), 1-eps)
}

// Forward computes binary cross entropy: -(1/n) * sum(y*log(p) + (1-y)*log(1-p))
func (b BCELoss) Forward(yPred, yTrue []float64) float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	var sum float64
	for i := 0; i < n; i++ {
		pred := clip(yPred[i])
		sum += yTrue[i]*math.Log(pred) + (1.0-yTrue[i])*math.Log(1.0-pred)
	}
	return -sum / float64(n)
}

// Backward computes gradient for BCE loss.
// Gradient: d/d_pred = (pred - y) / (pred * (1-pred)) / n
func (b BCELoss) Backward(yPred, yTrue []float64) []float64 {
	n := len(yPred)
	if n != len(yTrue) {
		panic("BCELoss: prediction and target must have same length")
	}

	grad := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := clip(yPred[i])
		grad[i] = (pred - yTrue[i]) / (pred * (1.0 - pred)) / float64(n)
	}
	return grad
}

// Name returns the serialization tag of a loss.
func Name(l Loss) string {
	switch l.(type) {
	case MSE:
		return "MSE"
	case BCELoss:
		return "BCE"
	default:
		return ""
	}
}

// FromName is the inverse of Name.
func FromName(name string) (Loss, bool) {
	switch name {
	case "MSE":
		return MSE{}, true
	case "BCE":
		return BCELoss{}, true
	default:
		return nil, false
	}
}
