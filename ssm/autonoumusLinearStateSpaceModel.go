package ssm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NewAutonomous returns the model without inputs
//
// x'(t) = A x(t)
//
// y(t) = C x(t)
func NewAutonomous(A, C mat.Matrix, ts Sampling) (*LinearStateSpaceModel, error) {
	if A == nil || C == nil {
		return nil, fmt.Errorf("autonomous model needs A and C: %w", ErrDimensionMismatch)
	}
	return NewLinearStateSpaceModel(A, nil, C, nil, ts)
}
