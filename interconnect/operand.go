package interconnect

import (
	"fmt"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
)

// Operand is a system or a constant taking part in a mixed concatenation.
// The set of operands is closed: Sys, Gain and Scalar.
type Operand interface {
	// system realizes the operand with the sampling time ts. Systems keep
	// their own sampling time.
	system(ts ssm.Sampling) (*ssm.LinearStateSpaceModel, error)
	sampling() (ssm.Sampling, bool)
}

type sys struct {
	m *ssm.LinearStateSpaceModel
}

// Sys wraps a system as an operand.
func Sys(m *ssm.LinearStateSpaceModel) Operand {
	return sys{m: m}
}

func (s sys) system(ssm.Sampling) (*ssm.LinearStateSpaceModel, error) {
	if s.m == nil {
		return nil, ErrNoSystems
	}
	return s.m, nil
}

func (s sys) sampling() (ssm.Sampling, bool) {
	if s.m == nil {
		return ssm.Sampling{}, false
	}
	return s.m.Sampling(), true
}

// Gain is a constant matrix operand, a static system with D = Matrix.
type Gain struct {
	mat.Matrix
}

func (g Gain) system(ts ssm.Sampling) (*ssm.LinearStateSpaceModel, error) {
	if g.Matrix == nil {
		return nil, fmt.Errorf("nil gain: %w", ssm.ErrDimensionMismatch)
	}
	return ssm.NewGain(g.Matrix, ts)
}

func (Gain) sampling() (ssm.Sampling, bool) { return ssm.Sampling{}, false }

// Scalar is a 1 by 1 constant operand.
type Scalar float64

func (s Scalar) system(ts ssm.Sampling) (*ssm.LinearStateSpaceModel, error) {
	return ssm.NewGain(gonumExtensions.Full(1, 1, float64(s)), ts)
}

func (Scalar) sampling() (ssm.Sampling, bool) { return ssm.Sampling{}, false }

// VcatOf is Vcat for a mix of systems and constants. Constants become static
// systems with the sampling time of the systems, or continuous time when
// there are none.
func VcatOf(operands ...Operand) (*ssm.LinearStateSpaceModel, error) {
	systems, err := promote("vcat", operands)
	if err != nil {
		return nil, err
	}
	return Vcat(systems...)
}

// HcatOf is Hcat for a mix of systems and constants.
func HcatOf(operands ...Operand) (*ssm.LinearStateSpaceModel, error) {
	systems, err := promote("hcat", operands)
	if err != nil {
		return nil, err
	}
	return Hcat(systems...)
}

// AppendOf is Append for a mix of systems and constants.
func AppendOf(operands ...Operand) (*ssm.LinearStateSpaceModel, error) {
	systems, err := promote("append", operands)
	if err != nil {
		return nil, err
	}
	return Append(systems...)
}

func promote(op string, operands []Operand) ([]*ssm.LinearStateSpaceModel, error) {
	var ts []ssm.Sampling
	for index, operand := range operands {
		if operand == nil {
			return nil, fmt.Errorf("%s: operand %d is nil: %w", op, index, ErrNoSystems)
		}
		if s, ok := operand.sampling(); ok {
			ts = append(ts, s)
		}
	}
	common, err := ssm.Common(ts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	systems := make([]*ssm.LinearStateSpaceModel, len(operands))
	for index, operand := range operands {
		if systems[index], err = operand.system(common); err != nil {
			return nil, fmt.Errorf("%s: operand %d: %w", op, index, err)
		}
	}
	return systems, nil
}
