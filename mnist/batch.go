package mnist

import (
	"fmt"

	"github.com/DylanMashini/genius-hour/nn"
)

// OneHot expands a (samples, 1) matrix of class indices into a
// (samples, classes) one-hot matrix.
func OneHot(labels *nn.Mat, classes int) (*nn.Mat, error) {
	if labels.Cols != 1 {
		return nil, fmt.Errorf("labels have %d columns, want 1", labels.Cols)
	}

	out := nn.MakeMat(labels.Rows, classes)
	for i := 0; i < labels.Rows; i++ {
		class := int(labels.At(i, 0))
		if class < 0 || class >= classes {
			return nil, fmt.Errorf("label %v out of range for %d classes", labels.At(i, 0), classes)
		}
		out.Set(i, class, 1)
	}
	return out, nil
}

// MiniBatch gathers the given rows of data and targets into two fresh
// matrices, in index order. An empty index list produces zero-row matrices
// that keep the source column counts.
func MiniBatch(data, targets *nn.Mat, indices []int) (*nn.Mat, *nn.Mat) {
	if data.Rows != targets.Rows {
		panic(fmt.Sprintf("data has %d rows but targets have %d", data.Rows, targets.Rows))
	}

	bx := nn.MakeMat(len(indices), data.Cols)
	by := nn.MakeMat(len(indices), targets.Cols)
	for k, idx := range indices {
		copy(bx.Row(k), data.Row(idx))
		copy(by.Row(k), targets.Row(idx))
	}
	return bx, by
}
