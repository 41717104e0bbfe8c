// Package opt provides comprehensive unit tests for optimizers.
package opt

import (
	"math"
	"testing"
)

// TestSGDStep tests SGD in-place update.
func TestSGDStep(t *testing.T) {
	sgd := SGD{LearningRate: 0.1}

	params := []float64{1.0, 2.0, 3.0}
	gradients := []float64{0.1, 0.2, 0.3}

	sgd.Step(0, params, gradients)

	expected := []float64{
		1.0 - 0.1*0.1, // 0.99
		2.0 - 0.1*0.2, // 1.98
		3.0 - 0.1*0.3, // 2.97
	}

	for i := range params {
		if math.Abs(params[i]-expected[i]) > 1e-10 {
			t.Errorf("params[%d] = %v, want %v", i, params[i], expected[i])
		}
	}
}

// TestAdamFirstStep tests that the first bias-corrected step moves each
// parameter by about lr against the gradient sign.
func TestAdamFirstStep(t *testing.T) {
	adam := NewAdam(0.01)
	params := []float64{1.0, -1.0}
	adam.Step(0, params, []float64{0.5, -2.0})

	if math.Abs(params[0]-0.99) > 1e-6 {
		t.Errorf("params[0] = %v, want 0.99", params[0])
	}
	if math.Abs(params[1]-(-0.99)) > 1e-6 {
		t.Errorf("params[1] = %v, want -0.99", params[1])
	}
}

// TestAdamKeysAreIndependent tests that moments are tracked per group.
func TestAdamKeysAreIndependent(t *testing.T) {
	adam := NewAdam(0.1)
	a := []float64{0}
	b := []float64{0}
	for i := 0; i < 5; i++ {
		adam.Step(0, a, []float64{1})
	}
	adam.Step(1, b, []float64{1})

	if math.Abs(b[0]-(-0.1)) > 1e-6 {
		t.Errorf("fresh group moved by %v, want -0.1", b[0])
	}
}

// TestAdamMinimizesQuadratic tests convergence on f(x) = (x-3)^2.
func TestAdamMinimizesQuadratic(t *testing.T) {
	adam := NewAdam(0.1)
	x := []float64{0}
	for i := 0; i < 500; i++ {
		adam.Step(0, x, []float64{2 * (x[0] - 3)})
	}
	if math.Abs(x[0]-3) > 5e-2 {
		t.Errorf("x = %v, want 3", x[0])
	}
}

// TestStepLR tests decay every stepSize epochs.
func TestStepLR(t *testing.T) {
	sgd := &SGD{LearningRate: 1}
	s := NewStepLR(sgd, 2, 0.5)
	want := []float64{1, 0.5, 0.5, 0.25}
	for i, w := range want {
		s.StepWithLoss(0)
		if got := s.GetLR(); got != w {
			t.Errorf("epoch %d: lr = %v, want %v", i+1, got, w)
		}
	}
}

// TestReduceLROnPlateau tests that only stalled epochs reduce the rate.
func TestReduceLROnPlateau(t *testing.T) {
	adam := NewAdam(0.1)
	s := NewReduceLROnPlateau(adam, 0.5, 2, 1e-3, 0.03)

	for _, loss := range []float64{1.0, 0.9, 0.8} {
		s.StepWithLoss(loss)
	}
	if got := s.GetLR(); got != 0.1 {
		t.Fatalf("improving loss changed lr to %v", got)
	}

	s.StepWithLoss(0.8)
	s.StepWithLoss(0.8)
	if got := s.GetLR(); got != 0.05 {
		t.Fatalf("after plateau lr = %v, want 0.05", got)
	}

	s.StepWithLoss(0.8)
	s.StepWithLoss(0.8)
	if got := s.GetLR(); got != 0.03 {
		t.Fatalf("lr = %v, want floor 0.03", got)
	}
}
