package ssm

import (
	"errors"
)

var (
	// ErrDimensionMismatch is returned when the matrices of a realization, or
	// the vectors it is evaluated at, have incompatible dimensions.
	ErrDimensionMismatch = errors.New("ssm: dimension mismatch")
	// ErrSamplingMismatch is returned when systems with different sampling
	// times are combined.
	ErrSamplingMismatch = errors.New("ssm: sampling time mismatch")
)

// StateSpaceModel is implemented by every realization in the module:
//
// x'(t) = A x(t) + B u(t)
//
// y(t) = C x(t) + D u(t)
//
// where x' is the state update x[k+1] for discrete time models.
type StateSpaceModel interface {
	// Returns the state space order
	StateSpaceOrder() int
	// Returns the input space Order
	InputSpaceOrder() int
	// Returns the observation space order.
	ObservationSpaceOrder() int
	// Returns the sampling time
	Sampling() Sampling
}
