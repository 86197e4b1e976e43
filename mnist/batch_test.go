package mnist

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/DylanMashini/genius-hour/nn"
)

func TestMiniBatch(t *testing.T) {
	data := nn.MatFromRows([][]float32{{1, 2}, {3, 4}, {5, 6}})
	targets := nn.MatFromRows([][]float32{{10}, {20}, {30}})

	bx, by := MiniBatch(data, targets, []int{2, 0})

	wantX := nn.MatFromRows([][]float32{{5, 6}, {1, 2}})
	wantY := nn.MatFromRows([][]float32{{30}, {10}})
	if diff := cmp.Diff(bx, wantX); diff != "" {
		t.Errorf("Wrong batch data; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(by, wantY); diff != "" {
		t.Errorf("Wrong batch targets; diff (-got +want)\n%s", diff)
	}

	// The batch must be a copy, not a view.
	bx.Set(0, 0, 99)
	if data.At(2, 0) != 5 {
		t.Errorf("mutating the batch reached back into the source data")
	}
}

func TestMiniBatchEmpty(t *testing.T) {
	data := nn.MakeMat(3, 2)
	targets := nn.MakeMat(3, 1)

	bx, by := MiniBatch(data, targets, nil)
	if bx.Rows != 0 || bx.Cols != 2 {
		t.Errorf("batch data is (%d, %d), want (0, 2)", bx.Rows, bx.Cols)
	}
	if by.Rows != 0 || by.Cols != 1 {
		t.Errorf("batch targets are (%d, %d), want (0, 1)", by.Rows, by.Cols)
	}
}

func TestMiniBatchRowMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("no panic on mismatched row counts")
		}
	}()
	MiniBatch(nn.MakeMat(3, 2), nn.MakeMat(2, 1), []int{0})
}

func TestOneHotRejectsWideLabels(t *testing.T) {
	_, err := OneHot(nn.MakeMat(3, 2), 10)
	if err == nil || !strings.Contains(err.Error(), "columns") {
		t.Errorf("got %v, want a column-count error", err)
	}
}

func TestOneHotRejectsOutOfRange(t *testing.T) {
	labels := nn.MatFromRows([][]float32{{1}, {10}})
	_, err := OneHot(labels, 10)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("got %v, want an out-of-range error", err)
	}
}
