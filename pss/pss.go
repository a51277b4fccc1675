// Package pss implements partitioned state space models and the algebra used
// to interconnect them.
//
// A partitioned state space model splits the inputs of a realization into the
// groups u1 (the first nu1 inputs) and u2, and its outputs into y1 (the first
// ny1 outputs) and y2:
//
//	x' = A  x + B1  u1 + B2  u2
//	y1 = C1 x + D11 u1 + D12 u2
//	y2 = C2 x + D21 u1 + D22 u2
//
// The first groups are the channels that are connected by Add, Mul and
// Feedback; the second groups are passed through to the result.
package pss

import (
	"errors"
	"fmt"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrPartition is returned for partition points outside the input or
	// output range, and for operands whose partitions cannot be connected.
	ErrPartition = errors.New("pss: invalid partition")
	// ErrIllPosed is returned by Feedback when the algebraic loop through the
	// feedthrough terms has no unique solution.
	ErrIllPosed = errors.New("pss: ill-posed interconnection")
	// ErrUnknownBlock is returned by Lookup for names that are neither a block
	// nor a matrix of the realization.
	ErrUnknownBlock = errors.New("pss: unknown block")
)

// Partitioned is the read-only view of a partitioned state space model.
type Partitioned interface {
	ssm.StateSpaceModel

	// P returns the wrapped realization.
	P() *ssm.LinearStateSpaceModel
	Nu1() int
	Ny1() int
	Nu2() int
	Ny2() int

	A() mat.Matrix
	B1() mat.Matrix
	B2() mat.Matrix
	C1() mat.Matrix
	C2() mat.Matrix
	D11() mat.Matrix
	D12() mat.Matrix
	D21() mat.Matrix
	D22() mat.Matrix

	// Pass-through to the realization.
	B() mat.Matrix
	C() mat.Matrix
	D() mat.Matrix
}

// PartitionedStateSpace wraps a realization together with its partition
// points. The blocks are sliced once on construction; they are views into the
// realization, which is immutable, so they never go stale.
type PartitionedStateSpace struct {
	p        *ssm.LinearStateSpaceModel
	nu1, ny1 int

	b1, b2, c1, c2     mat.Matrix
	d11, d12, d21, d22 mat.Matrix
}

var _ Partitioned = (*PartitionedStateSpace)(nil)

// New partitions P after its first nu1 inputs and first ny1 outputs.
func New(P *ssm.LinearStateSpaceModel, nu1, ny1 int) (*PartitionedStateSpace, error) {
	if P == nil {
		return nil, fmt.Errorf("nil realization: %w", ErrPartition)
	}
	n, m, p := P.StateSpaceOrder(), P.InputSpaceOrder(), P.ObservationSpaceOrder()
	if nu1 < 0 || nu1 > m {
		return nil, fmt.Errorf("nu1 = %d outside [0, %d]: %w", nu1, m, ErrPartition)
	}
	if ny1 < 0 || ny1 > p {
		return nil, fmt.Errorf("ny1 = %d outside [0, %d]: %w", ny1, p, ErrPartition)
	}
	B, C, D := P.B(), P.C(), P.D()
	return &PartitionedStateSpace{
		p:   P,
		nu1: nu1,
		ny1: ny1,
		b1:  gonumExtensions.Slice(B, 0, n, 0, nu1),
		b2:  gonumExtensions.Slice(B, 0, n, nu1, m),
		c1:  gonumExtensions.Slice(C, 0, ny1, 0, n),
		c2:  gonumExtensions.Slice(C, ny1, p, 0, n),
		d11: gonumExtensions.Slice(D, 0, ny1, 0, nu1),
		d12: gonumExtensions.Slice(D, 0, ny1, nu1, m),
		d21: gonumExtensions.Slice(D, ny1, p, 0, nu1),
		d22: gonumExtensions.Slice(D, ny1, p, nu1, m),
	}, nil
}

// Full partitions P with every input and output in the first group, which
// turns Add, Mul and Feedback into the ordinary parallel, series and feedback
// connections.
func Full(P *ssm.LinearStateSpaceModel) (*PartitionedStateSpace, error) {
	if P == nil {
		return nil, fmt.Errorf("nil realization: %w", ErrPartition)
	}
	return New(P, P.InputSpaceOrder(), P.ObservationSpaceOrder())
}

func (s *PartitionedStateSpace) P() *ssm.LinearStateSpaceModel { return s.p }
func (s *PartitionedStateSpace) Nu1() int                      { return s.nu1 }
func (s *PartitionedStateSpace) Ny1() int                      { return s.ny1 }
func (s *PartitionedStateSpace) Nu2() int                      { return s.p.InputSpaceOrder() - s.nu1 }
func (s *PartitionedStateSpace) Ny2() int                      { return s.p.ObservationSpaceOrder() - s.ny1 }

func (s *PartitionedStateSpace) A() mat.Matrix   { return s.p.A() }
func (s *PartitionedStateSpace) B1() mat.Matrix  { return s.b1 }
func (s *PartitionedStateSpace) B2() mat.Matrix  { return s.b2 }
func (s *PartitionedStateSpace) C1() mat.Matrix  { return s.c1 }
func (s *PartitionedStateSpace) C2() mat.Matrix  { return s.c2 }
func (s *PartitionedStateSpace) D11() mat.Matrix { return s.d11 }
func (s *PartitionedStateSpace) D12() mat.Matrix { return s.d12 }
func (s *PartitionedStateSpace) D21() mat.Matrix { return s.d21 }
func (s *PartitionedStateSpace) D22() mat.Matrix { return s.d22 }

func (s *PartitionedStateSpace) B() mat.Matrix          { return s.p.B() }
func (s *PartitionedStateSpace) C() mat.Matrix          { return s.p.C() }
func (s *PartitionedStateSpace) D() mat.Matrix          { return s.p.D() }
func (s *PartitionedStateSpace) Sampling() ssm.Sampling { return s.p.Sampling() }
func (s *PartitionedStateSpace) StateSpaceOrder() int   { return s.p.StateSpaceOrder() }
func (s *PartitionedStateSpace) InputSpaceOrder() int   { return s.p.InputSpaceOrder() }
func (s *PartitionedStateSpace) ObservationSpaceOrder() int {
	return s.p.ObservationSpaceOrder()
}

// Lookup returns a block or realization matrix by name. Every name is either
// resolved or reported with ErrUnknownBlock.
func (s *PartitionedStateSpace) Lookup(name string) (mat.Matrix, error) {
	switch name {
	case "A":
		return s.A(), nil
	case "B":
		return s.B(), nil
	case "C":
		return s.C(), nil
	case "D":
		return s.D(), nil
	case "B1":
		return s.b1, nil
	case "B2":
		return s.b2, nil
	case "C1":
		return s.c1, nil
	case "C2":
		return s.c2, nil
	case "D11":
		return s.d11, nil
	case "D12":
		return s.d12, nil
	case "D21":
		return s.d21, nil
	case "D22":
		return s.d22, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownBlock)
}

func (s *PartitionedStateSpace) String() string {
	return fmt.Sprintf("pss(n=%d, nu1=%d, nu2=%d, ny1=%d, ny2=%d, %v)",
		s.StateSpaceOrder(), s.nu1, s.Nu2(), s.ny1, s.Ny2(), s.Sampling())
}
