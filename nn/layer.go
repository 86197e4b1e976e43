package nn

import (
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
)

// Layer is one dense (fully connected) layer.
//
// W has shape (InputSize, OutputSize): row j holds the outgoing weights of
// input feature j. B is added to every row of the batch. Forward stashes the
// batch input and the pre-activation sum z inside the layer; the next
// Backward consumes them. A layer being trained is therefore stateful and
// must not be shared between goroutines.
type Layer struct {
	Activation Activation

	W *Mat      // (InputSize, OutputSize)
	B []float32 // (OutputSize)

	InputSize  int
	OutputSize int

	inputCache *Mat // (batch, InputSize) input of the pending Forward
	zCache     *Mat // (batch, OutputSize) pre-activation sum
	cacheValid bool
}

// MakeDense builds a dense layer with random weights: zero-mean gaussians
// with standard deviation sqrt(2/inputSize) for ReLU layers and
// sqrt(1/inputSize) otherwise. Biases start at zero.
func MakeDense(activation Activation, inputSize, outputSize int, r *rand.Rand) *Layer {
	if inputSize <= 0 || outputSize <= 0 {
		panic(fmt.Sprintf("invalid layer shape (%d, %d)", inputSize, outputSize))
	}

	stddev := math32.Sqrt(1 / float32(inputSize))
	if activation == ReLU {
		stddev = math32.Sqrt(2 / float32(inputSize))
	}

	lay := &Layer{
		Activation: activation,
		W:          MakeMat(inputSize, outputSize),
		B:          make([]float32, outputSize),
		InputSize:  inputSize,
		OutputSize: outputSize,
	}
	for i := range lay.W.V {
		lay.W.V[i] = float32(r.NormFloat64()) * stddev
	}
	return lay
}

// linear computes z = x@W + B into a fresh matrix.
func (lay *Layer) linear(x *Mat) *Mat {
	if x.Cols != lay.InputSize {
		panic(fmt.Sprintf("input is (%d, %d) but layer weights are (%d, %d)", x.Rows, x.Cols, lay.W.Rows, lay.W.Cols))
	}

	z := MakeMat(x.Rows, lay.OutputSize)
	for k := 0; k < x.Rows; k++ {
		zrow := z.Row(k)
		copy(zrow, lay.B)
		xrow := x.Row(k)
		for j := 0; j < lay.InputSize; j++ {
			axpy(xrow[j], lay.W.Row(j), zrow)
		}
	}
	return z
}

// Forward runs the layer on a batch of rows and returns the activated
// output. It overwrites the cached input and z from any previous call; the
// caches are valid only for this exact batch and feed the next Backward.
func (lay *Layer) Forward(x *Mat) *Mat {
	z := lay.linear(x)
	lay.inputCache = x.Clone()
	lay.zCache = z
	lay.cacheValid = true
	return lay.Activation.Activate(z)
}

// Apply is the cache-free variant of Forward for pure inference. It leaves
// the backward-pass caches untouched, so concurrent readers may share a
// network that nothing is training.
func (lay *Layer) Apply(x *Mat) *Mat {
	return lay.Activation.Activate(lay.linear(x))
}

// Backward consumes the cached forward state, applies one SGD step to W and
// B in place, and returns dError/dA of the layer below (not yet multiplied
// by that layer's activation derivative; Network does that). The propagated
// gradient is computed against the weights as they were before the update.
//
// gradWrtZ is dError/dZ for this layer, shaped like the cached z. Calling
// Backward twice without an intervening Forward panics: the caches are
// spent by the first call.
func (lay *Layer) Backward(gradWrtZ *Mat, learningRate float32) *Mat {
	if !lay.cacheValid {
		panic("backward without a cached forward pass (Forward must precede every Backward)")
	}
	if gradWrtZ.Cols != lay.OutputSize {
		panic(fmt.Sprintf("gradient has %d columns but the layer has %d outputs", gradWrtZ.Cols, lay.OutputSize))
	}
	if gradWrtZ.Rows != lay.inputCache.Rows {
		panic(fmt.Sprintf("gradient has %d rows but the cached batch has %d", gradWrtZ.Rows, lay.inputCache.Rows))
	}

	lay.cacheValid = false

	batch := lay.inputCache.Rows
	if batch == 0 {
		// Nothing to average; skip the update instead of dividing by zero.
		return MakeMat(0, lay.InputSize)
	}

	// dW[j][i] = sum_k input[k][j] * gradWrtZ[k][i], averaged below
	dW := MakeMat(lay.InputSize, lay.OutputSize)
	for k := 0; k < batch; k++ {
		in := lay.inputCache.Row(k)
		grow := gradWrtZ.Row(k)
		for j := 0; j < lay.InputSize; j++ {
			axpy(in[j], grow, dW.Row(j))
		}
	}

	// dB[i] = sum_k gradWrtZ[k][i], averaged below
	dB := make([]float32, lay.OutputSize)
	for k := 0; k < batch; k++ {
		axpy(1, gradWrtZ.Row(k), dB)
	}

	// dError/dA of the layer below is gradWrtZ @ transpose(W), formed
	// before W moves.
	prev := MakeMat(batch, lay.InputSize)
	for k := 0; k < batch; k++ {
		grow := gradWrtZ.Row(k)
		prow := prev.Row(k)
		for j := 0; j < lay.InputSize; j++ {
			prow[j] = dot(grow, lay.W.Row(j))
		}
	}

	step := learningRate / float32(batch)
	for i := range dW.V {
		lay.W.V[i] -= step * dW.V[i]
	}
	for i := range dB {
		lay.B[i] -= step * dB[i]
	}

	return prev
}
