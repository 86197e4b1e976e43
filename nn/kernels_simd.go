//go:build goexperiment.simd && amd64

package nn

import "simd"

// dot computes the dot product of x and y with 8-lane FMA.
func dot(x, y []float32) float32 {
	if len(x) != len(y) {
		panic("mismatched slice lengths")
	}

	var a simd.Float32x8
	i := 0
	for ; i < len(x)-8; i += 8 { // this idiom is friendly to bounds check elimination
		xv := simd.LoadFloat32x8Slice(x[i : i+8])
		yv := simd.LoadFloat32x8Slice(y[i : i+8])
		a = xv.MulAdd(yv, a)
	}
	xv := simd.LoadFloat32x8SlicePart(x[i:])
	yv := simd.LoadFloat32x8SlicePart(y[i:])
	a = xv.MulAdd(yv, a)
	a = a.AddPairs(a) // 01234567                AP 01234567                -> 0+1 2+3 _ _ 4+5 6+7 _ _
	a = a.AddPairs(a) // 0+1 2+3 _ _ 4+5 6+7 _ _ AP 0+1 2+3 _ _ 4+5 6+7 _ _ -> 0+1+2+3 _ _ _ 4+5+6+7 _ _ _
	b := a.GetLo().Add(a.GetHi())
	return b.GetElem(0)
}
