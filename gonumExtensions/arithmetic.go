package gonumExtensions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Mul returns the matrix product a b. Products with an empty inner dimension
// or a zero operand are returned as Zeros without touching the data.
func Mul(a, b mat.Matrix) (mat.Matrix, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		return nil, fmt.Errorf("product of %dx%d and %dx%d: %w", ar, ac, br, bc, ErrShape)
	}
	if isZero(a) || isZero(b) || ar == 0 || bc == 0 {
		return NewZeros(ar, bc), nil
	}
	var res mat.Dense
	res.Mul(a, b)
	return &res, nil
}

// Add returns the element wise sum a + b.
func Add(a, b mat.Matrix) (mat.Matrix, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return nil, fmt.Errorf("sum of %dx%d and %dx%d: %w", ar, ac, br, bc, ErrShape)
	}
	switch {
	case isZero(a):
		return Copy(b), nil
	case isZero(b):
		return Copy(a), nil
	}
	var res mat.Dense
	res.Add(a, b)
	return &res, nil
}

// Sub returns the element wise difference a - b.
func Sub(a, b mat.Matrix) (mat.Matrix, error) {
	return Add(a, Neg(b))
}

// Scale returns f a.
func Scale(f float64, a mat.Matrix) mat.Matrix {
	r, c := a.Dims()
	if isZero(a) || f == 0 {
		return NewZeros(r, c)
	}
	var res mat.Dense
	res.Scale(f, a)
	return &res
}

// Neg returns -a.
func Neg(a mat.Matrix) mat.Matrix {
	return Scale(-1, a)
}

// Solve returns X such that a X = b, where a is square. The system is
// rejected with ErrSingular when the reciprocal condition number of a is
// below tol, when a is exactly singular, or when the solution is not finite.
func Solve(a, b mat.Matrix, tol float64) (mat.Matrix, error) {
	n, c := a.Dims()
	br, bc := b.Dims()
	if n != c {
		return nil, fmt.Errorf("solve with non-square %dx%d: %w", n, c, ErrShape)
	}
	if br != n {
		return nil, fmt.Errorf("solve %dx%d against %dx%d: %w", n, c, br, bc, ErrShape)
	}
	if n == 0 {
		return NewZeros(0, bc), nil
	}
	if isZero(a) {
		return nil, fmt.Errorf("zero %dx%d system: %w", n, n, ErrSingular)
	}

	var lu mat.LU
	lu.Factorize(a)
	rcond := 1 / lu.Cond()
	if lu.Det() == 0 || math.IsNaN(rcond) || rcond < tol {
		return nil, fmt.Errorf("reciprocal condition number %g below %g: %w", rcond, tol, ErrSingular)
	}
	if bc == 0 {
		return NewZeros(n, 0), nil
	}
	if isZero(b) {
		return NewZeros(n, bc), nil
	}

	var x mat.Dense
	if err := lu.SolveTo(&x, false, b); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrSingular)
	}
	if NANORINF(&x) {
		return nil, fmt.Errorf("non-finite solution: %w", ErrSingular)
	}
	return &x, nil
}
