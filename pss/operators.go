package pss

import (
	"fmt"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is the smallest reciprocal condition number of the loop
// matrices that Feedback accepts.
const DefaultTolerance = 1e-12

type options struct {
	tol float64
}

// Option configures Feedback.
type Option func(*options)

// WithTolerance sets the smallest accepted reciprocal condition number of the
// algebraic loop matrices.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.tol = tol
	}
}

// Add connects s1 and s2 in parallel. The first input groups are shared and
// the first output groups are summed, the second groups are stacked:
//
//	u = [u1; u2; u2'], y = [y1 + y1'; y2; y2']
//
// Both operands must have the same nu1 and ny1.
func Add(s1, s2 Partitioned) (*PartitionedStateSpace, error) {
	ts, err := ssm.Common(s1.Sampling(), s2.Sampling())
	if err != nil {
		return nil, fmt.Errorf("parallel: %w", err)
	}
	if s1.Nu1() != s2.Nu1() || s1.Ny1() != s2.Ny1() {
		return nil, fmt.Errorf("parallel of first groups %dx%d and %dx%d: %w",
			s1.Ny1(), s1.Nu1(), s2.Ny1(), s2.Nu1(), ErrPartition)
	}

	var b builder
	A := gonumExtensions.BlockDiag(s1.A(), s2.A())
	B := b.augment(b.stack(s1.B1(), s2.B1()), gonumExtensions.BlockDiag(s1.B2(), s2.B2()))
	C := b.stack(b.augment(s1.C1(), s2.C1()), gonumExtensions.BlockDiag(s1.C2(), s2.C2()))
	D := b.block(
		row(b.add(s1.D11(), s2.D11()), b.augment(s1.D12(), s2.D12())),
		row(b.stack(s1.D21(), s2.D21()), gonumExtensions.BlockDiag(s1.D22(), s2.D22())),
	)
	if b.err != nil {
		return nil, fmt.Errorf("parallel: %w", b.err)
	}
	return assemble(A, B, C, D, ts, s1.Nu1(), s1.Ny1())
}

// Mul connects s1 and s2 in series with s2 feeding s1: the first output group
// of s2 drives the first input group of s1.
//
//	u = [u1'; u2; u2'], y = [y1; y2; y2']
//
// The states of s1 come first. s1.Nu1() must equal s2.Ny1().
func Mul(s1, s2 Partitioned) (*PartitionedStateSpace, error) {
	ts, err := ssm.Common(s1.Sampling(), s2.Sampling())
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	if s1.Nu1() != s2.Ny1() {
		return nil, fmt.Errorf("series of %d first outputs into %d first inputs: %w",
			s2.Ny1(), s1.Nu1(), ErrPartition)
	}
	n1, n2 := s1.StateSpaceOrder(), s2.StateSpaceOrder()
	z := gonumExtensions.NewZeros

	var b builder
	A := b.block(
		row(s1.A(), b.mul(s1.B1(), s2.C1())),
		row(z(n2, n1), s2.A()),
	)
	B := b.block(
		row(b.mul(s1.B1(), s2.D11()), s1.B2(), b.mul(s1.B1(), s2.D12())),
		row(s2.B1(), z(n2, s1.Nu2()), s2.B2()),
	)
	C := b.block(
		row(s1.C1(), b.mul(s1.D11(), s2.C1())),
		row(s1.C2(), b.mul(s1.D21(), s2.C1())),
		row(z(s2.Ny2(), n1), s2.C2()),
	)
	D := b.block(
		row(b.mul(s1.D11(), s2.D11()), s1.D12(), b.mul(s1.D11(), s2.D12())),
		row(b.mul(s1.D21(), s2.D11()), s1.D22(), b.mul(s1.D21(), s2.D12())),
		row(s2.D21(), z(s2.Ny2(), s1.Nu2()), s2.D22()),
	)
	if b.err != nil {
		return nil, fmt.Errorf("series: %w", b.err)
	}
	return assemble(A, B, C, D, ts, s2.Nu1(), s1.Ny1())
}

// Feedback closes the loop of s1 with s2 in the return path:
//
//	u1 = r - y1', u1' = y1
//
// The result has the inputs [r; u2; u2'] and the outputs [y1; y2; y2'], and
// the states of s1 come first. s2.Nu1() must equal s1.Ny1() and s2.Ny1() must
// equal s1.Nu1(). When the loop through the feedthrough terms cannot be
// solved to the configured tolerance the call fails with ErrIllPosed.
func Feedback(s1, s2 Partitioned, opts ...Option) (*PartitionedStateSpace, error) {
	o := options{tol: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}

	ts, err := ssm.Common(s1.Sampling(), s2.Sampling())
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}
	if s2.Nu1() != s1.Ny1() || s2.Ny1() != s1.Nu1() {
		return nil, fmt.Errorf("feedback loop of %dx%d and %dx%d first groups: %w",
			s1.Ny1(), s1.Nu1(), s2.Ny1(), s2.Nu1(), ErrPartition)
	}
	n1, n2 := s1.StateSpaceOrder(), s2.StateSpaceOrder()
	n := n1 + n2
	z := gonumExtensions.NewZeros

	var b builder
	M1 := b.add(gonumExtensions.Eye(s1.Nu1()), b.mul(s2.D11(), s1.D11()))
	M2 := b.add(gonumExtensions.Eye(s1.Ny1()), b.mul(s1.D11(), s2.D11()))

	// Both right hand sides of a loop matrix are solved in one factorization,
	// the first n columns belong to the states.
	rhs1 := b.augment(
		b.neg(b.mul(s2.D11(), s1.C1())), b.neg(s2.C1()),
		gonumExtensions.Eye(s1.Nu1()), b.neg(b.mul(s2.D11(), s1.D12())), b.neg(s2.D12()),
	)
	rhs2 := b.augment(
		s1.C1(), b.neg(b.mul(s1.D11(), s2.C1())),
		s1.D11(), s1.D12(), b.neg(b.mul(s1.D11(), s2.D12())),
	)
	if b.err != nil {
		return nil, fmt.Errorf("feedback: %w", b.err)
	}
	X1, err := gonumExtensions.Solve(M1, rhs1, o.tol)
	if err != nil {
		return nil, fmt.Errorf("%w: I + D11' D11: %w", ErrIllPosed, err)
	}
	X2, err := gonumExtensions.Solve(M2, rhs2, o.tol)
	if err != nil {
		return nil, fmt.Errorf("%w: I + D11 D11': %w", ErrIllPosed, err)
	}
	_, w := X1.Dims()
	X11 := gonumExtensions.Slice(X1, 0, s1.Nu1(), 0, n)
	X12 := gonumExtensions.Slice(X1, 0, s1.Nu1(), n, w)
	X21 := gonumExtensions.Slice(X2, 0, s1.Ny1(), 0, n)
	X22 := gonumExtensions.Slice(X2, 0, s1.Ny1(), n, w)

	A := b.add(
		b.stack(b.mul(s1.B1(), X11), b.mul(s2.B1(), X21)),
		gonumExtensions.BlockDiag(s1.A(), s2.A()),
	)
	B := b.addTrailing(
		b.stack(b.mul(s1.B1(), X12), b.mul(s2.B1(), X22)),
		gonumExtensions.BlockDiag(s1.B2(), s2.B2()),
	)
	C := b.add(
		b.stack(b.mul(s1.D11(), X11), b.mul(s1.D21(), X11), b.mul(s2.D21(), X21)),
		b.stack(b.augment(s1.C1(), z(s1.Ny1(), n2)), gonumExtensions.BlockDiag(s1.C2(), s2.C2())),
	)
	D := b.addTrailing(
		b.stack(b.mul(s1.D11(), X12), b.mul(s1.D21(), X12), b.mul(s2.D21(), X22)),
		b.stack(b.augment(s1.D12(), z(s1.Ny1(), s2.Nu2())), gonumExtensions.BlockDiag(s1.D22(), s2.D22())),
	)
	if b.err != nil {
		return nil, fmt.Errorf("feedback: %w", b.err)
	}
	for _, m := range []mat.Matrix{A, B, C, D} {
		if gonumExtensions.NANORINF(m) {
			return nil, fmt.Errorf("feedback: non-finite closed loop: %w", ErrIllPosed)
		}
	}
	return assemble(A, B, C, D, ts, s1.Nu1(), s1.Ny1())
}

// Series connects s1 followed by s2, that is the output of s1 feeds s2.
func Series(s1, s2 Partitioned) (*PartitionedStateSpace, error) {
	return Mul(s2, s1)
}

// Parallel is Add.
func Parallel(s1, s2 Partitioned) (*PartitionedStateSpace, error) {
	return Add(s1, s2)
}

func assemble(A, B, C, D mat.Matrix, ts ssm.Sampling, nu1, ny1 int) (*PartitionedStateSpace, error) {
	P, err := ssm.NewLinearStateSpaceModel(A, B, C, D, ts)
	if err != nil {
		return nil, err
	}
	return New(P, nu1, ny1)
}
