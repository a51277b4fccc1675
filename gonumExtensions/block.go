package gonumExtensions

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrShape is returned when operand dimensions are incompatible.
	ErrShape = errors.New("gonumExtensions: dimension mismatch")
	// ErrSingular is returned when a linear system has no unique, finite solution.
	ErrSingular = errors.New("gonumExtensions: singular or ill-conditioned matrix")
)

// BlockDiag returns the block diagonal matrix
//
//	[ms[0]   0    ...   0  ]
//	[  0   ms[1]  ...   0  ]
//	[  0     0    ... ms[k]]
//
// Each block keeps its own row and column count, so rectangular and empty
// blocks shift the following blocks accordingly. Without arguments the empty
// (0 by 0) matrix is returned.
func BlockDiag(ms ...mat.Matrix) mat.Matrix {
	var rows, cols int
	for _, m := range ms {
		r, c := m.Dims()
		rows += r
		cols += c
	}
	if rows == 0 || cols == 0 {
		return NewZeros(rows, cols)
	}
	res := mat.NewDense(rows, cols, nil)
	var row, col int
	for _, m := range ms {
		setBlock(res, row, col, m)
		r, c := m.Dims()
		row += r
		col += c
	}
	return res
}

// Block assembles a matrix from a grid of blocks. All blocks in a grid row
// must share their row count and all blocks in a grid column their column
// count. Empty blocks are allowed and still contribute their non-zero
// dimension.
func Block(grid [][]mat.Matrix) (mat.Matrix, error) {
	if len(grid) == 0 {
		return NewZeros(0, 0), nil
	}
	widths := make([]int, len(grid[0]))
	for j, m := range grid[0] {
		_, widths[j] = m.Dims()
	}
	heights := make([]int, len(grid))
	for i, row := range grid {
		if len(row) != len(widths) {
			return nil, fmt.Errorf("block row %d has %d blocks, want %d: %w", i, len(row), len(widths), ErrShape)
		}
		for j, m := range row {
			r, c := m.Dims()
			if j == 0 {
				heights[i] = r
			}
			if r != heights[i] || c != widths[j] {
				return nil, fmt.Errorf("block (%d,%d) is %dx%d, want %dx%d: %w", i, j, r, c, heights[i], widths[j], ErrShape)
			}
		}
	}
	var rows, cols int
	for _, h := range heights {
		rows += h
	}
	for _, w := range widths {
		cols += w
	}
	if rows == 0 || cols == 0 {
		return NewZeros(rows, cols), nil
	}
	res := mat.NewDense(rows, cols, nil)
	row := 0
	for i := range grid {
		col := 0
		for j, m := range grid[i] {
			setBlock(res, row, col, m)
			col += widths[j]
		}
		row += heights[i]
	}
	return res, nil
}

// Stack returns the vertical concatenation of ms. All operands must have the
// same number of columns.
func Stack(ms ...mat.Matrix) (mat.Matrix, error) {
	grid := make([][]mat.Matrix, len(ms))
	for i, m := range ms {
		grid[i] = []mat.Matrix{m}
	}
	return Block(grid)
}

// Augment returns the horizontal concatenation of ms. All operands must have
// the same number of rows.
func Augment(ms ...mat.Matrix) (mat.Matrix, error) {
	if len(ms) == 0 {
		return NewZeros(0, 0), nil
	}
	return Block([][]mat.Matrix{ms})
}

// Slice returns the rows [i, k) and columns [j, l) of m. Dense operands are
// sliced as views sharing the backing data; empty ranges return Zeros.
func Slice(m mat.Matrix, i, k, j, l int) mat.Matrix {
	r, c := m.Dims()
	if i < 0 || k < i || r < k || j < 0 || l < j || c < l {
		panic(mat.ErrIndexOutOfRange)
	}
	if k == i || l == j || isZero(m) {
		return NewZeros(k-i, l-j)
	}
	if s, ok := m.(slicer); ok {
		return s.Slice(i, k, j, l)
	}
	res := mat.NewDense(k-i, l-j, nil)
	for row := i; row < k; row++ {
		for col := j; col < l; col++ {
			res.Set(row-i, col-j, m.At(row, col))
		}
	}
	return res
}

// AddTrailing returns a copy of m where block has been added onto the last
// columns of m. block must have as many rows as m and at most as many columns.
func AddTrailing(m, block mat.Matrix) (mat.Matrix, error) {
	r, c := m.Dims()
	br, bc := block.Dims()
	if br != r || bc > c {
		return nil, fmt.Errorf("trailing block %dx%d does not fit %dx%d: %w", br, bc, r, c, ErrShape)
	}
	if isZero(block) {
		return m, nil
	}
	res := mat.DenseCopyOf(m)
	view := res.Slice(0, r, c-bc, c).(*mat.Dense)
	view.Add(view, block)
	return res, nil
}

type slicer interface {
	Slice(i, k, j, l int) mat.Matrix
}

// setBlock copies m into dst with its upper left corner at (row, col). dst is
// expected to be zeroed where m is zero.
func setBlock(dst *mat.Dense, row, col int, m mat.Matrix) {
	if isZero(m) {
		return
	}
	r, c := m.Dims()
	dst.Slice(row, row+r, col, col+c).(*mat.Dense).Copy(m)
}
