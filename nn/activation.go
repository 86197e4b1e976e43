package nn

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Activation selects one of the engine's activation functions. The set is
// closed; the serialized weight format depends on the tag values staying
// stable.
type Activation uint8

const (
	Linear Activation = iota
	Sigmoid
	ReLU
	Softmax
)

func (a Activation) String() string {
	switch a {
	case Linear:
		return "linear"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Softmax:
		return "softmax"
	default:
		return fmt.Sprintf("activation(%d)", uint8(a))
	}
}

// ParseActivation maps the names accepted on the command line back to
// Activation values.
func ParseActivation(s string) (Activation, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "sigmoid":
		return Sigmoid, nil
	case "relu":
		return ReLU, nil
	case "softmax":
		return Softmax, nil
	default:
		return 0, fmt.Errorf("unknown activation function %q", s)
	}
}

// Activate applies the function elementwise to z and returns a fresh matrix.
// Softmax instead normalizes each row of z into a probability distribution,
// subtracting the row maximum before exponentiating so large logits cannot
// overflow; a single-row or single-column z is normalized globally over all
// entries rather than per row.
func (a Activation) Activate(z *Mat) *Mat {
	out := MakeMat(z.Rows, z.Cols)
	switch a {
	case Linear:
		copy(out.V, z.V)
	case Sigmoid:
		for i, v := range z.V {
			out.V[i] = 1 / (1 + math32.Exp(-v))
		}
	case ReLU:
		for i, v := range z.V {
			if v > 0 {
				out.V[i] = v
			}
		}
	case Softmax:
		if z.Rows == 1 || z.Cols == 1 {
			softmaxSlice(z.V, out.V)
		} else {
			for r := 0; r < z.Rows; r++ {
				softmaxSlice(z.Row(r), out.Row(r))
			}
		}
	default:
		panic(fmt.Sprintf("unhandled activation function %v", a))
	}
	return out
}

// Derivative evaluates d Activate(z) / dz elementwise.
//
// For Softmax this is only the diagonal p*(1-p) of the true Jacobian. It is
// correct solely because Network.TrainBatch routes the Softmax+CrossEntropy
// pairing through the fused gradient and never reaches this branch; pairing
// Softmax with any other loss silently trains on the incomplete gradient.
func (a Activation) Derivative(z *Mat) *Mat {
	out := MakeMat(z.Rows, z.Cols)
	switch a {
	case Linear:
		for i := range out.V {
			out.V[i] = 1
		}
	case Sigmoid:
		for i, v := range z.V {
			s := 1 / (1 + math32.Exp(-v))
			out.V[i] = s * (1 - s)
		}
	case ReLU:
		for i, v := range z.V {
			if v > 0 {
				out.V[i] = 1
			}
		}
	case Softmax:
		p := a.Activate(z)
		for i, v := range p.V {
			out.V[i] = v * (1 - v)
		}
	default:
		panic(fmt.Sprintf("unhandled activation function %v", a))
	}
	return out
}

// softmaxSlice writes softmax(z) into out.
func softmaxSlice(z, out []float32) {
	maxz := math32.Inf(-1)
	for _, v := range z {
		if v > maxz {
			maxz = v
		}
	}

	var sum float32
	for i, v := range z {
		e := math32.Exp(v - maxz)
		out[i] = e
		sum += e
	}
	for i := range out {
		out[i] /= sum
	}
}
