// Package net provides core neural network types.
package net

import (
	"encoding/gob"
	"fmt"

	"github.com/FlavioCFOliveira/GoFraud/internal/activations"
	"github.com/FlavioCFOliveira/GoFraud/internal/layer"
	"github.com/FlavioCFOliveira/GoFraud/internal/loss"
	"github.com/FlavioCFOliveira/GoFraud/internal/opt"
)

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer
}

// New creates a new neural network with the given layers.
func New(layers []layer.Layer, loss loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   loss,
		opt:    optimizer,
	}
}

// Forward performs a forward pass through all layers.
// The returned slice is owned by the last layer and is overwritten by the next call.
func (n *Network) Forward(x []float64) []float64 {
	curr := x
	for i := range n.layers {
		curr = n.layers[i].Forward(curr)
	}
	return curr
}

// Predict runs a forward pass that allocates its own buffers. Unlike Forward
// it is safe to call from several goroutines at once.
func (n *Network) Predict(x []float64) []float64 {
	curr := x
	for _, l := range n.layers {
		curr = l.Infer(curr)
	}
	return curr
}

// Backward performs a backward pass through all layers.
func (n *Network) Backward(grad []float64) []float64 {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr)
	}
	return curr
}

// Step performs one optimization step using the stored optimizer.
func (n *Network) Step() {
	for i, l := range n.layers {
		n.opt.Step(i, l.Params(), l.Gradients())
	}
}

// TrainBatch performs training on a batch of samples.
// Gradients are accumulated over the batch, averaged, and applied in a single
// optimizer step. Returns the mean loss of the batch.
func (n *Network) TrainBatch(batchX [][]float64, batchY [][]float64) float64 {
	batchSize := len(batchX)
	if batchSize == 0 {
		return 0
	}

	for _, l := range n.layers {
		l.ZeroGrad()
	}

	var totalLoss float64
	for i := range batchX {
		yPred := n.Forward(batchX[i])
		totalLoss += n.loss.Forward(yPred, batchY[i])
		n.Backward(n.loss.Backward(yPred, batchY[i]))
	}

	scale := 1 / float64(batchSize)
	for _, l := range n.layers {
		grads := l.Gradients()
		for i := range grads {
			grads[i] *= scale
		}
	}

	n.Step()
	return totalLoss / float64(batchSize)
}

// Params returns all network parameters flattened (copy).
func (n *Network) Params() []float64 {
	var params []float64
	for _, l := range n.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// LayerConfig holds the configuration needed to reconstruct a layer.
type LayerConfig struct {
	Type       string
	InSize     int
	OutSize    int
	Activation string
	Params     []float64
}

// header precedes the layer configs in an encoded network.
type header struct {
	Layers int
	Loss   string
}

// EncodeTo writes the network to an existing gob stream.
// Optimizer state is not saved; a decoded network is meant for inference.
func (n *Network) EncodeTo(encoder *gob.Encoder) error {
	h := header{Layers: len(n.layers), Loss: loss.Name(n.loss)}
	if err := encoder.Encode(h); err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	for i, l := range n.layers {
		cfg, err := ExtractLayerConfig(l)
		if err != nil {
			return fmt.Errorf("layer %d: %w", i, err)
		}
		if err := encoder.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode layer %d: %w", i, err)
		}
	}
	return nil
}

// DecodeFrom reads a network written by EncodeTo. Adjacent layers must agree
// on their sizes.
func DecodeFrom(decoder *gob.Decoder) (*Network, error) {
	var h header
	if err := decoder.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if h.Layers <= 0 {
		return nil, fmt.Errorf("invalid layer count %d", h.Layers)
	}

	l, ok := loss.FromName(h.Loss)
	if !ok {
		return nil, fmt.Errorf("unsupported loss type: %q", h.Loss)
	}

	layers := make([]layer.Layer, 0, h.Layers)
	for i := 0; i < h.Layers; i++ {
		var cfg LayerConfig
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read layer %d: %w", i, err)
		}
		restored, err := cfg.CreateLayer()
		if err != nil {
			return nil, fmt.Errorf("failed to create layer %d: %w", i, err)
		}
		if i > 0 && restored.InSize() != layers[i-1].OutSize() {
			return nil, fmt.Errorf("layer %d takes %d inputs, previous layer gives %d", i, restored.InSize(), layers[i-1].OutSize())
		}
		layers = append(layers, restored)
	}

	return New(layers, l, opt.SGD{}), nil
}

// ExtractLayerConfig extracts the configuration from a layer.
func ExtractLayerConfig(l layer.Layer) (LayerConfig, error) {
	dense, ok := l.(*layer.Dense)
	if !ok {
		return LayerConfig{}, fmt.Errorf("unsupported layer type %T", l)
	}
	act := activations.Name(dense.Activation())
	if act == "" {
		return LayerConfig{}, fmt.Errorf("unsupported activation %T", dense.Activation())
	}
	return LayerConfig{
		Type:       "Dense",
		InSize:     dense.InSize(),
		OutSize:    dense.OutSize(),
		Activation: act,
		Params:     append([]float64(nil), dense.Params()...),
	}, nil
}

// CreateLayer creates a new layer from the configuration.
func (c *LayerConfig) CreateLayer() (layer.Layer, error) {
	if c.Type != "Dense" {
		return nil, fmt.Errorf("unsupported layer type: %s", c.Type)
	}
	act, ok := activations.FromName(c.Activation)
	if !ok {
		return nil, fmt.Errorf("unsupported activation: %s", c.Activation)
	}
	if c.InSize <= 0 || c.OutSize <= 0 {
		return nil, fmt.Errorf("invalid dense shape %dx%d", c.InSize, c.OutSize)
	}
	if want := c.InSize*c.OutSize + c.OutSize; len(c.Params) != want {
		return nil, fmt.Errorf("dense %dx%d has %d params, want %d", c.InSize, c.OutSize, len(c.Params), want)
	}
	return layer.Restore(c.InSize, c.OutSize, act, c.Params), nil
}
