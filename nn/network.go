package nn

// Network chains dense layers; layer i feeds layer i+1, so each layer's
// OutputSize must equal the next layer's InputSize. Widths are checked when
// data first flows through, not when layers are added.
//
// Predict and TrainBatch mutate per-layer caches, so concurrent use of a
// shared network needs an external lock spanning the whole call. Apply is
// the exception: it touches no state and may serve concurrent readers while
// nothing is training.
type Network struct {
	Loss   LossFunction
	Layers []*Layer
}

// NewNetwork returns an empty network that trains against the given loss.
func NewNetwork(loss LossFunction) *Network {
	return &Network{Loss: loss}
}

// AddLayer appends a layer. The caller is responsible for lining up the
// widths across the chain.
func (net *Network) AddLayer(lay *Layer) {
	net.Layers = append(net.Layers, lay)
}

// Predict runs x through every layer in order and returns the final
// activations. It refreshes every layer's backward-pass caches as a side
// effect; use Apply for cache-free inference. A network with no layers
// returns x unchanged.
func (net *Network) Predict(x *Mat) *Mat {
	out := x
	for _, lay := range net.Layers {
		out = lay.Forward(out)
	}
	return out
}

// Apply is the side-effect-free inference pass.
func (net *Network) Apply(x *Mat) *Mat {
	out := x
	for _, lay := range net.Layers {
		out = lay.Apply(out)
	}
	return out
}

// TrainBatch performs one SGD step on a batch and returns the batch loss.
// The returned loss reflects the predictions made before this step's
// parameter updates.
//
// When the output layer is Softmax and the loss is CrossEntropy, the
// backward pass starts from the fused gradient (pred-target)/batch; the
// softmax Jacobian and the cross-entropy derivative cancel to exactly that,
// and evaluating either on its own near-saturated predictions is
// numerically hazardous.
func (net *Network) TrainBatch(inputs, targets *Mat, learningRate float32) float32 {
	if len(net.Layers) == 0 {
		panic("training a network with no layers")
	}

	pred := net.Predict(inputs)
	loss := net.Loss.Calculate(pred, targets)

	last := len(net.Layers) - 1

	// dError/dZ for the output layer.
	var gradZ *Mat
	if net.Layers[last].Activation == Softmax && net.Loss == CrossEntropy {
		if pred.Rows == 0 {
			return loss
		}
		batch := float32(pred.Rows)
		gradZ = MakeMat(pred.Rows, pred.Cols)
		for i, p := range pred.V {
			gradZ.V[i] = (p - targets.V[i]) / batch
		}
	} else {
		dLossDA := net.Loss.Derivative(pred, targets)
		gradZ = mulElems(dLossDA, net.Layers[last].Activation.Derivative(net.Layers[last].zCache))
	}

	gradA := net.Layers[last].Backward(gradZ, learningRate)

	for i := last - 1; i >= 0; i-- {
		lay := net.Layers[i]
		gradZ = mulElems(gradA, lay.Activation.Derivative(lay.zCache))
		gradA = lay.Backward(gradZ, learningRate)
	}

	return loss
}
