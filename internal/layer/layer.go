// Package layer provides neural network layer implementations.
package layer

import (
	"math"
	"math/rand"

	"github.com/FlavioCFOliveira/GoFraud/internal/activations"
)

// Layer is a neural network layer.
type Layer interface {
	Forward(x []float64) []float64
	// Infer computes the output into a fresh slice and leaves the layer
	// untouched, so fitted layers can be shared between goroutines.
	Infer(x []float64) []float64
	// Backward accumulates parameter gradients and returns the input gradient.
	Backward(grad []float64) []float64
	Params() []float64
	SetParams([]float64)
	// Gradients returns the live gradient buffer, laid out like Params.
	Gradients() []float64
	ZeroGrad()
	InSize() int
	OutSize() int
}

// Dense is a fully connected layer.
// Weights and their gradients share one contiguous buffer each, weights first
// then biases, so Params and Gradients need no copying.
type Dense struct {
	// Shape: [out * in] where weight for output i, input j is at params[i*in + j]
	params  []float64
	grads   []float64
	act     activations.Activation
	outSize int
	inSize  int

	// Reusable buffers
	inputBuf  []float64
	outputBuf []float64
	preActBuf []float64
	gradInBuf []float64
}

// NewDense creates a dense layer with Xavier/Glorot initialised weights drawn
// from rng.
func NewDense(in, out int, act activations.Activation, rng *rand.Rand) *Dense {
	d := newDense(in, out, act)

	scale := math.Sqrt(6.0 / (float64(in) + float64(out)))
	weights := d.params[:in*out]
	for i := range weights {
		weights[i] = rng.Float64()*2*scale - scale
	}
	return d
}

func newDense(in, out int, act activations.Activation) *Dense {
	return &Dense{
		params:    make([]float64, out*in+out),
		grads:     make([]float64, out*in+out),
		act:       act,
		outSize:   out,
		inSize:    in,
		inputBuf:  make([]float64, in),
		outputBuf: make([]float64, out),
		preActBuf: make([]float64, out),
		gradInBuf: make([]float64, in),
	}
}

// Forward performs a forward pass through the dense layer.
func (d *Dense) Forward(x []float64) []float64 {
	copy(d.inputBuf, x)

	inSize := d.inSize
	biases := d.params[d.outSize*inSize:]
	for o := 0; o < d.outSize; o++ {
		sum := biases[o]
		wBase := o * inSize
		for i := 0; i < inSize; i++ {
			sum += d.params[wBase+i] * d.inputBuf[i]
		}
		d.preActBuf[o] = sum
		d.outputBuf[o] = d.act.Activate(sum)
	}

	return d.outputBuf
}

// Infer computes act(Wx + b) without writing to the layer's buffers.
func (d *Dense) Infer(x []float64) []float64 {
	inSize := d.inSize
	biases := d.params[d.outSize*inSize:]
	out := make([]float64, d.outSize)
	for o := range out {
		sum := biases[o]
		w := d.params[o*inSize : (o+1)*inSize]
		for i, v := range w {
			sum += v * x[i]
		}
		out[o] = d.act.Activate(sum)
	}
	return out
}

// Backward performs backpropagation through the dense layer.
func (d *Dense) Backward(grad []float64) []float64 {
	inSize := d.inSize
	gradB := d.grads[d.outSize*inSize:]

	for i := range d.gradInBuf {
		d.gradInBuf[i] = 0
	}

	for o := 0; o < d.outSize; o++ {
		dz := grad[o] * d.act.Derivative(d.preActBuf[o])
		gradB[o] += dz

		wBase := o * inSize
		for i := 0; i < inSize; i++ {
			d.grads[wBase+i] += dz * d.inputBuf[i]
			d.gradInBuf[i] += dz * d.params[wBase+i]
		}
	}

	return d.gradInBuf
}

// Params returns the live parameter buffer.
func (d *Dense) Params() []float64 {
	return d.params
}

// SetParams copies params into the layer.
func (d *Dense) SetParams(params []float64) {
	copy(d.params, params)
}

// Gradients returns the live gradient buffer.
func (d *Dense) Gradients() []float64 {
	return d.grads
}

// ZeroGrad clears accumulated gradients.
func (d *Dense) ZeroGrad() {
	for i := range d.grads {
		d.grads[i] = 0
	}
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int {
	return d.inSize
}

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int {
	return d.outSize
}

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation {
	return d.act
}

// Restore builds a dense layer from saved parameters.
func Restore(in, out int, act activations.Activation, params []float64) *Dense {
	d := newDense(in, out, act)
	d.SetParams(params)
	return d
}
