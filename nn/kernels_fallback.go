//go:build !goexperiment.simd || !amd64

package nn

func dot(x, y []float32) float32 {
	return dotNaive(x, y)
}
