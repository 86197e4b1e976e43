// Package genlib holds reusable avo emitters for the float32 kernels the
// layer math is built from. Each emitter assumes AVX2+FMA and leaves the
// loop counter and pointer registers clobbered.
package genlib

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	. "github.com/mmcloughlin/avo/reg"
)

// GenSIMDDot emits a dot-product over n contiguous float32 elements at
// xPtr and yPtr, returning the XMM register holding the scalar sum.
func GenSIMDDot(n Register, xPtr, yPtr Register, unroll int) Register {
	// Allocate accumulation registers.
	acc := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		acc[i] = YMM()
	}

	// Zero initialization.
	for i := 0; i < unroll; i++ {
		VXORPS(acc[i], acc[i], acc[i])
	}

	// Loop over blocks and process them with vector instructions.
	blockitems := 8 * unroll
	blocksize := 4 * blockitems

	Label("dotblockloop")
	CMPQ(n, U32(blockitems))
	JL(LabelRef("dottail"))

	xs := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		xs[i] = YMM()
	}

	for i := 0; i < unroll; i++ {
		VMOVUPS(Mem{Base: xPtr}.Offset(32*i), xs[i])
	}
	for i := 0; i < unroll; i++ {
		VFMADD231PS(Mem{Base: yPtr}.Offset(32*i), xs[i], acc[i])
	}

	ADDQ(U32(blocksize), xPtr)
	ADDQ(U32(blocksize), yPtr)

	SUBQ(U32(blockitems), n)

	JMP(LabelRef("dotblockloop"))

	// Process any trailing entries.
	Label("dottail")
	tailAccumulator := XMM()
	VXORPS(tailAccumulator, tailAccumulator, tailAccumulator)

	Label("dottailloop")
	CMPQ(n, U32(0))
	JE(LabelRef("dotreduce"))

	tailElement := XMM()
	VMOVSS(Mem{Base: xPtr}, tailElement)
	VFMADD231SS(Mem{Base: yPtr}, tailElement, tailAccumulator)

	ADDQ(U32(4), xPtr)
	ADDQ(U32(4), yPtr)
	DECQ(n)
	JMP(LabelRef("dottailloop"))

	// Reduce the lanes to one.
	Label("dotreduce")
	for i := 1; i < unroll; i++ {
		VADDPS(acc[0], acc[i], acc[0])
	}

	result := acc[0].AsX()
	top := XMM()
	VEXTRACTF128(U8(1), acc[0], top)
	VADDPS(result, top, result)
	VADDPS(result, tailAccumulator, result)
	VHADDPS(result, result, result)
	VHADDPS(result, result, result)

	return result
}

// GenSIMDAxpy emits y[i] += alpha * x[i] over n contiguous float32
// elements. alpha is a scalar in the low lane of an XMM register.
func GenSIMDAxpy(n Register, alpha Register, xPtr, yPtr Register, unroll int) {
	alphaWide := YMM()
	VBROADCASTSS(alpha, alphaWide)

	blockitems := 8 * unroll
	blocksize := 4 * blockitems

	Label("axpyblockloop")
	CMPQ(n, U32(blockitems))
	JL(LabelRef("axpytail"))

	ys := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		ys[i] = YMM()
	}

	for i := 0; i < unroll; i++ {
		VMOVUPS(Mem{Base: yPtr}.Offset(32*i), ys[i])
	}
	for i := 0; i < unroll; i++ {
		VFMADD231PS(Mem{Base: xPtr}.Offset(32*i), alphaWide, ys[i])
	}
	for i := 0; i < unroll; i++ {
		VMOVUPS(ys[i], Mem{Base: yPtr}.Offset(32*i))
	}

	ADDQ(U32(blocksize), xPtr)
	ADDQ(U32(blocksize), yPtr)

	SUBQ(U32(blockitems), n)

	JMP(LabelRef("axpyblockloop"))

	// Process any trailing entries.
	Label("axpytail")

	Label("axpytailloop")
	CMPQ(n, U32(0))
	JE(LabelRef("axpydone"))

	tailElement := XMM()
	VMOVSS(Mem{Base: yPtr}, tailElement)
	VFMADD231SS(Mem{Base: xPtr}, alpha, tailElement)
	VMOVSS(tailElement, Mem{Base: yPtr})

	ADDQ(U32(4), xPtr)
	ADDQ(U32(4), yPtr)
	DECQ(n)
	JMP(LabelRef("axpytailloop"))

	Label("axpydone")
}
