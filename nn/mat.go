// Package nn is a small feedforward neural network engine: dense layers over
// row-major float32 matrices, trained with plain SGD backpropagation.
package nn

import "fmt"

// Mat is a dense row-major float32 matrix. Rows index samples and columns
// index features. Zero-row matrices are valid; they are how empty batches
// flow through the engine.
type Mat struct {
	Rows, Cols int
	V          []float32
}

func MakeMat(rows, cols int) *Mat {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("invalid matrix shape (%d, %d)", rows, cols))
	}
	return &Mat{Rows: rows, Cols: cols, V: make([]float32, rows*cols)}
}

// MatFromRows builds a matrix from explicit row data. All rows must have the
// same length.
func MatFromRows(rows [][]float32) *Mat {
	if len(rows) == 0 {
		return MakeMat(0, 0)
	}
	out := MakeMat(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != out.Cols {
			panic(fmt.Sprintf("row 0 has %d entries but row %d has %d", out.Cols, r, len(row)))
		}
		copy(out.Row(r), row)
	}
	return out
}

func (m *Mat) At(r, c int) float32 {
	return m.V[r*m.Cols+c]
}

func (m *Mat) Set(r, c int, v float32) {
	m.V[r*m.Cols+c] = v
}

// Row returns row r as a subslice of the backing storage. The slice aliases
// m; writes through it are writes to m.
func (m *Mat) Row(r int) []float32 {
	return m.V[r*m.Cols : (r+1)*m.Cols]
}

func (m *Mat) Clone() *Mat {
	out := &Mat{Rows: m.Rows, Cols: m.Cols, V: make([]float32, len(m.V))}
	copy(out.V, m.V)
	return out
}

// mulElems returns the elementwise product of two same-shaped matrices.
func mulElems(a, b *Mat) *Mat {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		panic(fmt.Sprintf("elementwise product of mismatched shapes (%d, %d) and (%d, %d)", a.Rows, a.Cols, b.Rows, b.Cols))
	}
	out := MakeMat(a.Rows, a.Cols)
	for i, v := range a.V {
		out.V[i] = v * b.V[i]
	}
	return out
}
