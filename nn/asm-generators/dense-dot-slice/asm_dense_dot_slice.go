// Generates an assembly dot-product kernel matching the stdlib-simd dot in
// the nn package. Run it with avo's usual flags:
//
//	go run ./nn/asm-generators/dense-dot-slice -out dot_amd64.s -stubs dot_amd64_stubs.go
package main

import (
	"github.com/DylanMashini/genius-hour/nn/asm-generators/genlib"
	. "github.com/mmcloughlin/avo/build"
)

func main() {
	TEXT("denseDotSlice", NOSPLIT,
		"func(n int, x []float32, y []float32) float32")

	n := Load(Param("n"), GP64())
	xPtr := Load(Param("x").Base(), GP64())
	yPtr := Load(Param("y").Base(), GP64())

	result := genlib.GenSIMDDot(n, xPtr, yPtr, 6)
	Store(result, ReturnIndex(0))

	RET()

	Generate()
}
