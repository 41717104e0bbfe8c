// Package net provides unit tests for the dense network.
package net

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"github.com/FlavioCFOliveira/GoFraud/internal/activations"
	"github.com/FlavioCFOliveira/GoFraud/internal/layer"
	"github.com/FlavioCFOliveira/GoFraud/internal/loss"
	"github.com/FlavioCFOliveira/GoFraud/internal/opt"
)

func newXORNetwork(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	return New([]layer.Layer{
		layer.NewDense(2, 8, activations.Tanh{}, rng),
		layer.NewDense(8, 1, activations.Sigmoid{}, rng),
	}, loss.BCELoss{}, opt.NewAdam(0.05))
}

// TestNetworkForward tests forward pass output size.
func TestNetworkForward(t *testing.T) {
	network := newXORNetwork(1)
	if out := network.Forward([]float64{1, 2}); len(out) != 1 {
		t.Errorf("Output length = %d, want 1", len(out))
	}
}

// TestNetworkXOR tests XOR learning with batch training.
func TestNetworkXOR(t *testing.T) {
	network := newXORNetwork(3)
	x := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	y := [][]float64{{0}, {1}, {1}, {0}}

	first := network.TrainBatch(x, y)
	var last float64
	for epoch := 0; epoch < 2000; epoch++ {
		last = network.TrainBatch(x, y)
	}
	if last >= first {
		t.Fatalf("loss did not decrease: first %v, last %v", first, last)
	}

	for i := range x {
		p := network.Forward(x[i])[0]
		if (p > 0.5) != (y[i][0] == 1) {
			t.Errorf("XOR%v = %v, want %v", x[i], p, y[i][0])
		}
	}
}

// TestTrainBatchEmpty tests that an empty batch is a no-op.
func TestTrainBatchEmpty(t *testing.T) {
	network := newXORNetwork(1)
	before := network.Params()
	if l := network.TrainBatch(nil, nil); l != 0 {
		t.Errorf("loss = %v, want 0", l)
	}
	for i, p := range network.Params() {
		if p != before[i] {
			t.Fatal("params changed on empty batch")
		}
	}
}

// TestEncodeDecode tests that a decoded network gives identical outputs.
func TestEncodeDecode(t *testing.T) {
	network := newXORNetwork(5)
	var buf bytes.Buffer
	if err := network.EncodeTo(gob.NewEncoder(&buf)); err != nil {
		t.Fatalf("EncodeTo failed: %v", err)
	}

	loaded, err := DecodeFrom(gob.NewDecoder(&buf))
	if err != nil {
		t.Fatalf("DecodeFrom failed: %v", err)
	}

	for _, x := range [][]float64{{0, 0}, {0.3, -1.2}, {5, 5}} {
		a := network.Forward(x)[0]
		b := loaded.Forward(x)[0]
		if a != b {
			t.Errorf("Forward(%v): original %v, loaded %v", x, a, b)
		}
	}
}

// TestDecodeRejectsGarbage tests that a corrupt stream errors out.
func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrom(gob.NewDecoder(bytes.NewBufferString("not a network"))); err == nil {
		t.Error("DecodeFrom accepted garbage")
	}
}

// TestDecodeRejectsMismatchedLayers tests that adjacent layer sizes must agree.
func TestDecodeRejectsMismatchedLayers(t *testing.T) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(header{Layers: 2, Loss: "BCE"}); err != nil {
		t.Fatal(err)
	}
	for _, cfg := range []LayerConfig{
		{Type: "Dense", InSize: 2, OutSize: 3, Activation: "ReLU", Params: make([]float64, 9)},
		{Type: "Dense", InSize: 4, OutSize: 1, Activation: "Sigmoid", Params: make([]float64, 5)},
	} {
		if err := enc.Encode(cfg); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := DecodeFrom(gob.NewDecoder(&buf)); err == nil {
		t.Error("DecodeFrom accepted a 3 -> 4 layer chain")
	}
}

// TestPredictMatchesForward tests the allocation-per-call forward pass.
func TestPredictMatchesForward(t *testing.T) {
	network := newXORNetwork(7)
	for _, x := range [][]float64{{0, 1}, {1, 1}, {-2, 0.5}} {
		want := network.Forward(x)[0]
		if got := network.Predict(x)[0]; got != want {
			t.Errorf("Predict(%v) = %v, Forward %v", x, got, want)
		}
	}
}

func TestCreateLayerValidates(t *testing.T) {
	tests := []LayerConfig{
		{Type: "LSTM", InSize: 1, OutSize: 1, Activation: "ReLU", Params: []float64{0, 0}},
		{Type: "Dense", InSize: 1, OutSize: 1, Activation: "Swish", Params: []float64{0, 0}},
		{Type: "Dense", InSize: 2, OutSize: 1, Activation: "ReLU", Params: []float64{0}},
		{Type: "Dense", InSize: 0, OutSize: 0, Activation: "ReLU", Params: nil},
	}
	for _, cfg := range tests {
		if _, err := cfg.CreateLayer(); err == nil {
			t.Errorf("CreateLayer(%+v) succeeded", cfg)
		}
	}
}
