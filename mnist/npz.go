package mnist

import (
	"fmt"

	"github.com/sbinet/npyio/npz"

	"github.com/DylanMashini/genius-hour/nn"
)

// LoadNPZ reads a Keras-style mnist.npz bundle (uint8 arrays x_train,
// y_train, x_test, y_test) and returns the four as matrices: pixels
// flattened to (samples, 784) and scaled to [0, 1], labels as (samples, 1)
// class indices.
func LoadNPZ(path string) (xTrain, yTrain, xTest, yTest *nn.Mat, err error) {
	r, err := npz.Open(path)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("while opening %s: %w", path, err)
	}
	defer r.Close()

	xTrain, err = readPixelTensor(r, "x_train.npy")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	yTrain, err = readLabelColumn(r, "y_train.npy")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	xTest, err = readPixelTensor(r, "x_test.npy")
	if err != nil {
		return nil, nil, nil, nil, err
	}
	yTest, err = readLabelColumn(r, "y_test.npy")
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return xTrain, yTrain, xTest, yTest, nil
}

// readPixelTensor flattens a (n, 28, 28) uint8 tensor into a (n, 784)
// matrix. numpy stores C-order, so the flat pixel data is already
// sample-contiguous.
func readPixelTensor(r *npz.Reader, name string) (*nn.Mat, error) {
	header := r.Header(name)
	shape := header.Descr.Shape
	if len(shape) != 3 || shape[1] != ImageHeight || shape[2] != ImageWidth {
		return nil, fmt.Errorf("tensor %s has shape %v, want (n, %d, %d)", name, shape, ImageHeight, ImageWidth)
	}

	var raw []uint8
	if err := r.Read(name, &raw); err != nil {
		return nil, fmt.Errorf("while reading tensor %s: %w", name, err)
	}

	out := nn.MakeMat(shape[0], NumPixels)
	for i, px := range raw {
		out.V[i] = float32(px) / 255
	}
	return out, nil
}

func readLabelColumn(r *npz.Reader, name string) (*nn.Mat, error) {
	header := r.Header(name)
	shape := header.Descr.Shape
	if len(shape) != 1 {
		return nil, fmt.Errorf("tensor %s has shape %v, want one dimension", name, shape)
	}

	var raw []uint8
	if err := r.Read(name, &raw); err != nil {
		return nil, fmt.Errorf("while reading tensor %s: %w", name, err)
	}

	out := nn.MakeMat(len(raw), 1)
	for i, b := range raw {
		if int(b) >= NumClasses {
			return nil, fmt.Errorf("label %d in tensor %s out of range for %d classes", b, name, NumClasses)
		}
		out.V[i] = float32(b)
	}
	return out, nil
}
