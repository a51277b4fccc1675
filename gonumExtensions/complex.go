package gonumExtensions

import (
	"gonum.org/v1/gonum/mat"
)

// CZeros is the complex counterpart of Zeros.
type CZeros struct {
	r, c int
}

// Dims returns the dimensions of the zero matrix.
func (z CZeros) Dims() (r, c int) {
	return z.r, z.c
}

// At returns 0 for any valid index.
func (z CZeros) At(i, j int) complex128 {
	if i < 0 || i >= z.r || j < 0 || j >= z.c {
		panic(mat.ErrIndexOutOfRange)
	}
	return 0
}

// H returns the conjugate transpose, which is again a zero matrix.
func (z CZeros) H() mat.CMatrix {
	return CZeros{r: z.c, c: z.r}
}

// T returns the transpose.
func (z CZeros) T() mat.CMatrix {
	return CZeros{r: z.c, c: z.r}
}

// Promote converts a real matrix to a complex one with zero imaginary part.
// This is how real and complex operands are brought to a common element type
// before assembly.
func Promote(m mat.Matrix) mat.CMatrix {
	r, c := m.Dims()
	if r == 0 || c == 0 || isZero(m) {
		return CZeros{r: r, c: c}
	}
	res := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			res.Set(i, j, complex(m.At(i, j), 0))
		}
	}
	return res
}

// CBlockDiag is BlockDiag for complex matrices.
func CBlockDiag(ms ...mat.CMatrix) mat.CMatrix {
	var rows, cols int
	for _, m := range ms {
		r, c := m.Dims()
		rows += r
		cols += c
	}
	if rows == 0 || cols == 0 {
		return CZeros{r: rows, c: cols}
	}
	res := mat.NewCDense(rows, cols, nil)
	var row, col int
	for _, m := range ms {
		r, c := m.Dims()
		if _, ok := m.(CZeros); !ok {
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					res.Set(row+i, col+j, m.At(i, j))
				}
			}
		}
		row += r
		col += c
	}
	return res
}
