package nn

// Verify bounds check elimination with
//
//   go build -gcflags="-d=ssa/check_bce" ./nn/

// dotNaive is the scalar reference dot product. The build-selected dot must
// agree with it; tests compare the two.
func dotNaive(x, y []float32) float32 {
	if len(x) != len(y) {
		panic("mismatched slice lengths")
	}

	var sum float32
	for i := range x {
		sum += x[i] * y[i]
	}
	return sum
}

// axpy computes y += alpha * x.
func axpy(alpha float32, x, y []float32) {
	if len(x) != len(y) {
		panic("mismatched slice lengths")
	}

	for i := range x {
		y[i] += alpha * x[i]
	}
}
