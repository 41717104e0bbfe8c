// Package loss provides unit tests for loss functions.
package loss

import (
	"math"
	"testing"
)

// TestMSEForward tests MSE forward pass.
func TestMSEForward(t *testing.T) {
	got := MSE{}.Forward([]float64{1, 2, 3}, []float64{1, 2, 5})
	if want := 4.0 / 3.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("MSE = %v, want %v", got, want)
	}
}

// TestBCEForward tests BCE on known values.
func TestBCEForward(t *testing.T) {
	tests := []struct {
		pred, target float64
		expected     float64
	}{
		{0.5, 1, math.Ln2},
		{0.5, 0, math.Ln2},
		{0.9, 1, -math.Log(0.9)},
		{0.1, 0, -math.Log(0.9)},
	}
	for _, tt := range tests {
		got := BCELoss{}.Forward([]float64{tt.pred}, []float64{tt.target})
		if math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("BCE(%v, %v) = %v, want %v", tt.pred, tt.target, got, tt.expected)
		}
	}
}

// TestBCEClipsExtremes tests that saturated predictions stay finite.
func TestBCEClipsExtremes(t *testing.T) {
	l := BCELoss{}.Forward([]float64{0, 1}, []float64{1, 0})
	if math.IsInf(l, 0) || math.IsNaN(l) {
		t.Errorf("BCE on saturated predictions = %v", l)
	}
	for _, g := range (BCELoss{}).Backward([]float64{0, 1}, []float64{1, 0}) {
		if math.IsInf(g, 0) || math.IsNaN(g) {
			t.Errorf("BCE gradient on saturated predictions = %v", g)
		}
	}
}

// TestBCEBackward tests the gradient against finite differences.
func TestBCEBackward(t *testing.T) {
	pred := []float64{0.3, 0.8}
	target := []float64{1, 0}
	grad := BCELoss{}.Backward(pred, target)

	const h = 1e-7
	for i := range pred {
		up := append([]float64(nil), pred...)
		down := append([]float64(nil), pred...)
		up[i] += h
		down[i] -= h
		numeric := (BCELoss{}.Forward(up, target) - BCELoss{}.Forward(down, target)) / (2 * h)
		if math.Abs(numeric-grad[i]) > 1e-5 {
			t.Errorf("grad[%d] = %v, numeric %v", i, grad[i], numeric)
		}
	}
}

func TestNameRoundTrip(t *testing.T) {
	for _, l := range []Loss{MSE{}, BCELoss{}} {
		got, ok := FromName(Name(l))
		if !ok || Name(got) != Name(l) {
			t.Errorf("round trip of %T failed", l)
		}
	}
}
