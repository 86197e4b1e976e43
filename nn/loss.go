package nn

import (
	"fmt"

	"github.com/chewxy/math32"
)

// LossFunction selects the training objective. The set is closed, and the
// choice is not part of the serialized weight format: whoever reloads a
// network must supply the loss it was trained with.
type LossFunction uint8

const (
	MeanSquaredError LossFunction = iota
	CrossEntropy
)

func (l LossFunction) String() string {
	switch l {
	case MeanSquaredError:
		return "mean-squared-error"
	case CrossEntropy:
		return "cross-entropy"
	default:
		return fmt.Sprintf("loss(%d)", uint8(l))
	}
}

// lossEpsilon is the float32 machine epsilon (2^-23). Cross-entropy clips
// predictions into [lossEpsilon, 1-lossEpsilon] so log never sees zero;
// predictions already inside the open interval pass through untouched.
const lossEpsilon float32 = 0x1p-23

func clipProb(p float32) float32 {
	if p < lossEpsilon {
		return lossEpsilon
	}
	if p > 1-lossEpsilon {
		return 1 - lossEpsilon
	}
	return p
}

// Calculate reduces predictions against targets to the scalar batch loss.
// Both matrices must have the same shape. A zero-row batch yields 0 rather
// than dividing by zero.
func (l LossFunction) Calculate(pred, target *Mat) float32 {
	if pred.Rows != target.Rows || pred.Cols != target.Cols {
		panic(fmt.Sprintf("loss: predictions are (%d, %d) but targets are (%d, %d)", pred.Rows, pred.Cols, target.Rows, target.Cols))
	}
	if pred.Rows == 0 {
		return 0
	}

	batch := float32(pred.Rows)
	switch l {
	case MeanSquaredError:
		var sum float32
		for i, p := range pred.V {
			d := p - target.V[i]
			sum += d * d
		}
		return sum / (2 * batch)
	case CrossEntropy:
		var sum float32
		for i, p := range pred.V {
			sum += target.V[i] * math32.Log(clipProb(p))
		}
		return -sum / batch
	default:
		panic(fmt.Sprintf("unhandled loss function %v", l))
	}
}

// Derivative returns dLoss/dPred, the gradient of Calculate with respect to
// each prediction, already averaged over the batch. Layer.Backward divides
// by the batch size again when it reduces per-sample gradients, so the
// parameter step each update takes is the mean gradient divided by the
// batch size once more; callers tune the learning rate against that.
//
// For CrossEntropy paired with a Softmax output layer, Network.TrainBatch
// substitutes the fused softmax gradient instead of calling this.
func (l LossFunction) Derivative(pred, target *Mat) *Mat {
	if pred.Rows != target.Rows || pred.Cols != target.Cols {
		panic(fmt.Sprintf("loss: predictions are (%d, %d) but targets are (%d, %d)", pred.Rows, pred.Cols, target.Rows, target.Cols))
	}

	batch := float32(pred.Rows)
	out := MakeMat(pred.Rows, pred.Cols)
	switch l {
	case MeanSquaredError:
		for i, p := range pred.V {
			out.V[i] = (p - target.V[i]) / batch
		}
	case CrossEntropy:
		for i, p := range pred.V {
			out.V[i] = -(target.V[i] / clipProb(p)) / batch
		}
	default:
		panic(fmt.Sprintf("unhandled loss function %v", l))
	}
	return out
}
