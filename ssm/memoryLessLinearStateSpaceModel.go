package ssm

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NewGain returns the memoryless model
//
// y(t) = D u(t)
//
// which has no states. It is how constants and matrices take part in
// interconnections with dynamic models.
func NewGain(D mat.Matrix, ts Sampling) (*LinearStateSpaceModel, error) {
	if D == nil {
		return nil, fmt.Errorf("gain needs a matrix: %w", ErrDimensionMismatch)
	}
	return NewLinearStateSpaceModel(nil, nil, nil, D, ts)
}
