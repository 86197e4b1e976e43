// Generates an assembly y += alpha*x kernel matching the axpy in the nn
// package. Run it with avo's usual flags:
//
//	go run ./nn/asm-generators/dense-axpy-slice -out axpy_amd64.s -stubs axpy_amd64_stubs.go
package main

import (
	"github.com/DylanMashini/genius-hour/nn/asm-generators/genlib"
	. "github.com/mmcloughlin/avo/build"
)

func main() {
	TEXT("denseAxpySlice", NOSPLIT,
		"func(n int, alpha float32, x []float32, y []float32)")

	n := Load(Param("n"), GP64())
	alpha := Load(Param("alpha"), XMM())
	xPtr := Load(Param("x").Base(), GP64())
	yPtr := Load(Param("y").Base(), GP64())

	genlib.GenSIMDAxpy(n, alpha, xPtr, yPtr, 6)

	RET()

	Generate()
}
