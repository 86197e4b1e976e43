// Package inference exposes a trained network behind the flat-buffer
// contract embedding hosts use: fixed-width float32 slice in, fixed-width
// float32 slice out, with length mismatches rejected instead of reshaped.
package inference

import (
	"fmt"

	"github.com/DylanMashini/genius-hour/nn"
)

// Classifier wraps a network for serving. Construct it with the network it
// should serve; there is no implicit global instance. Predictions run
// through the network's cache-free path, so one Classifier may serve
// concurrent callers as long as nothing is training the same network.
type Classifier struct {
	net *nn.Network
}

func New(net *nn.Network) *Classifier {
	if net == nil || len(net.Layers) == 0 {
		panic("a classifier needs a network with at least one layer")
	}
	return &Classifier{net: net}
}

// InputSize is the exact flat input width Predict accepts.
func (c *Classifier) InputSize() int {
	return c.net.Layers[0].InputSize
}

// OutputSize is the flat output width Predict produces.
func (c *Classifier) OutputSize() int {
	return c.net.Layers[len(c.net.Layers)-1].OutputSize
}

// Predict runs one sample through the network and returns its output row,
// OutputSize values. The input must have exactly InputSize values.
func (c *Classifier) Predict(input []float32) ([]float32, error) {
	if len(input) != c.InputSize() {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), c.InputSize())
	}

	x := nn.MakeMat(1, len(input))
	copy(x.V, input)

	return c.net.Apply(x).V, nil
}
