// Package interconnect composes whole linear state space models.
//
// The variadic helpers fold their operands pairwise: the head is combined with
// the composition of the tail. All operands must share one sampling time,
// which is checked before any matrix is assembled.
package interconnect

import (
	"errors"
	"fmt"
	"math"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/pss"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
)

// ErrNoSystems is returned by the variadic helpers when called without
// operands.
var ErrNoSystems = errors.New("interconnect: no systems")

// Here we present some shorthand functions to generate common topologies

// IntegratorBlock is the fundamental integrator block.
func IntegratorBlock(gain float64, ts ssm.Sampling) (*ssm.LinearStateSpaceModel, error) {
	return ssm.NewLinearStateSpaceModel(
		mat.NewDense(1, 1, nil),
		mat.NewDense(1, 1, []float64{gain}),
		mat.NewDense(1, 1, []float64{1}),
		nil,
		ts,
	)
}

// OscillatorBlock is the fundamental oscillator where we have made the two states
// equally amplified and each state has its own input. We call this a symmetric
// oscillator block.
func OscillatorBlock(gain, resonanceFrequency float64, ts ssm.Sampling) (*ssm.LinearStateSpaceModel, error) {
	omega := 2. * math.Pi * resonanceFrequency
	return ssm.NewLinearStateSpaceModel(
		mat.NewDense(2, 2, []float64{0, -omega, omega, 0}),
		mat.NewDense(2, 2, []float64{gain, 0, 0, gain}),
		gonumExtensions.Eye(2),
		nil,
		ts,
	)
}

// Series connects the systems in a chain where each system feeds the next.
func Series(systems ...*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	return fold("series", systems, func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
		return combine(s1, s2, pss.Series)
	})
}

// Parallel feeds the shared input to all systems and sums their outputs.
func Parallel(systems ...*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	return fold("parallel", systems, func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
		return combine(s1, s2, pss.Parallel)
	})
}

// Feedback closes a negative feedback loop around forward with back in the
// return path. The states of forward come first.
func Feedback(forward, back *ssm.LinearStateSpaceModel, opts ...pss.Option) (*ssm.LinearStateSpaceModel, error) {
	if forward == nil || back == nil {
		return nil, fmt.Errorf("feedback: %w", ErrNoSystems)
	}
	if _, err := ssm.Common(forward.Sampling(), back.Sampling()); err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}
	return combine(forward, back, func(s1, s2 pss.Partitioned) (*pss.PartitionedStateSpace, error) {
		return pss.Feedback(s1, s2, opts...)
	})
}

// Append places the systems side by side without any connection. All of A, B,
// C and D are block diagonal.
func Append(systems ...*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	return fold("append", systems, func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
		return ssm.NewLinearStateSpaceModel(
			gonumExtensions.BlockDiag(s1.A(), s2.A()),
			gonumExtensions.BlockDiag(s1.B(), s2.B()),
			gonumExtensions.BlockDiag(s1.C(), s2.C()),
			gonumExtensions.BlockDiag(s1.D(), s2.D()),
			s1.Sampling(),
		)
	})
}

// Vcat splits a shared input to all systems and stacks their outputs. The
// systems must have the same number of inputs.
func Vcat(systems ...*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	return fold("vcat", systems, func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
		// Check if splitting is possible (same number of inputs)
		if s1.InputSpaceOrder() != s2.InputSpaceOrder() {
			return nil, fmt.Errorf("%d and %d inputs: %w", s1.InputSpaceOrder(), s2.InputSpaceOrder(), ssm.ErrDimensionMismatch)
		}
		B, err := gonumExtensions.Stack(s1.B(), s2.B())
		if err != nil {
			return nil, err
		}
		D, err := gonumExtensions.Stack(s1.D(), s2.D())
		if err != nil {
			return nil, err
		}
		return ssm.NewLinearStateSpaceModel(
			gonumExtensions.BlockDiag(s1.A(), s2.A()),
			B,
			gonumExtensions.BlockDiag(s1.C(), s2.C()),
			D,
			s1.Sampling(),
		)
	})
}

// Hcat merges the outputs of all systems into a shared output and stacks
// their inputs. The systems must have the same number of outputs.
func Hcat(systems ...*ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
	return fold("hcat", systems, func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error) {
		// Check if merge is possible
		if s1.ObservationSpaceOrder() != s2.ObservationSpaceOrder() {
			return nil, fmt.Errorf("%d and %d outputs: %w", s1.ObservationSpaceOrder(), s2.ObservationSpaceOrder(), ssm.ErrDimensionMismatch)
		}
		C, err := gonumExtensions.Augment(s1.C(), s2.C())
		if err != nil {
			return nil, err
		}
		D, err := gonumExtensions.Augment(s1.D(), s2.D())
		if err != nil {
			return nil, err
		}
		return ssm.NewLinearStateSpaceModel(
			gonumExtensions.BlockDiag(s1.A(), s2.A()),
			gonumExtensions.BlockDiag(s1.B(), s2.B()),
			C,
			D,
			s1.Sampling(),
		)
	})
}

// MultiPlexer maps k new inputs onto the m inputs of system through the m by k
// matrix maps.
func MultiPlexer(system *ssm.LinearStateSpaceModel, maps mat.Matrix) (*ssm.LinearStateSpaceModel, error) {
	M, _ := maps.Dims()
	if M != system.InputSpaceOrder() {
		return nil, fmt.Errorf("multiplexer: %d rows for %d inputs: %w", M, system.InputSpaceOrder(), ssm.ErrDimensionMismatch)
	}
	B, err := gonumExtensions.Mul(system.B(), maps)
	if err != nil {
		return nil, err
	}
	D, err := gonumExtensions.Mul(system.D(), maps)
	if err != nil {
		return nil, err
	}
	return ssm.NewLinearStateSpaceModel(system.A(), B, system.C(), D, system.Sampling())
}

// DeMultiPlexer maps the p outputs of system onto k new outputs through the k
// by p matrix maps.
func DeMultiPlexer(system *ssm.LinearStateSpaceModel, maps mat.Matrix) (*ssm.LinearStateSpaceModel, error) {
	_, N := maps.Dims()
	if N != system.ObservationSpaceOrder() {
		return nil, fmt.Errorf("demultiplexer: %d columns for %d outputs: %w", N, system.ObservationSpaceOrder(), ssm.ErrDimensionMismatch)
	}
	C, err := gonumExtensions.Mul(maps, system.C())
	if err != nil {
		return nil, err
	}
	D, err := gonumExtensions.Mul(maps, system.D())
	if err != nil {
		return nil, err
	}
	return ssm.NewLinearStateSpaceModel(system.A(), system.B(), C, D, system.Sampling())
}

type pair func(s1, s2 *ssm.LinearStateSpaceModel) (*ssm.LinearStateSpaceModel, error)

// fold checks the sampling times of all systems and then combines them
// pairwise, head first.
func fold(op string, systems []*ssm.LinearStateSpaceModel, combine pair) (*ssm.LinearStateSpaceModel, error) {
	if len(systems) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSystems)
	}
	ts := make([]ssm.Sampling, len(systems))
	for index, system := range systems {
		if system == nil {
			return nil, fmt.Errorf("%s: system %d is nil: %w", op, index, ErrNoSystems)
		}
		ts[index] = system.Sampling()
	}
	if _, err := ssm.Common(ts...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := foldTail(systems, combine)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func foldTail(systems []*ssm.LinearStateSpaceModel, combine pair) (*ssm.LinearStateSpaceModel, error) {
	if len(systems) == 1 {
		return systems[0], nil
	}
	// If more than 2 systems are left pop the first and combine it with the
	// composition of the rest.
	tail, err := foldTail(systems[1:], combine)
	if err != nil {
		return nil, err
	}
	return combine(systems[0], tail)
}

// combine applies a partitioned operator to s1 and s2 with every channel in
// the first group.
func combine(s1, s2 *ssm.LinearStateSpaceModel, op func(s1, s2 pss.Partitioned) (*pss.PartitionedStateSpace, error)) (*ssm.LinearStateSpaceModel, error) {
	p1, err := pss.Full(s1)
	if err != nil {
		return nil, err
	}
	p2, err := pss.Full(s2)
	if err != nil {
		return nil, err
	}
	res, err := op(p1, p2)
	if err != nil {
		return nil, err
	}
	return res.P(), nil
}
