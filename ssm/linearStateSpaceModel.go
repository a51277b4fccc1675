package ssm

import (
	"fmt"

	"github.com/hammal/lti/gonumExtensions"
	"gonum.org/v1/gonum/mat"
)

// LinearStateSpaceModel struct represent the system
//
// x'(t) = A x(t) + B u(t)
//
// y(t) = C x(t) + D u(t)
//
// The matrices are copied on construction and never modified afterwards, so a
// model can be shared freely between goroutines and compositions.
type LinearStateSpaceModel struct {
	a, b, c, d mat.Matrix
	ts         Sampling
}

// NewLinearStateSpaceModel creates a new Linear state space model. The
// matrices must be n by n, n by m, p by n and p by m. A nil A means a static
// model without states, a nil B or C is taken as zero with its size inferred
// from D, and a nil D is zero feedthrough.
func NewLinearStateSpaceModel(A, B, C, D mat.Matrix, ts Sampling) (*LinearStateSpaceModel, error) {
	var n, m, p int
	if A != nil {
		var nA int
		n, nA = A.Dims()
		if n != nA {
			return nil, fmt.Errorf("A is %dx%d, not square: %w", n, nA, ErrDimensionMismatch)
		}
	}
	switch {
	case B != nil:
		_, m = B.Dims()
	case D != nil:
		_, m = D.Dims()
	}
	switch {
	case C != nil:
		p, _ = C.Dims()
	case D != nil:
		p, _ = D.Dims()
	}
	if A == nil {
		A = gonumExtensions.NewZeros(0, 0)
	}
	if B == nil {
		B = gonumExtensions.NewZeros(n, m)
	}
	if C == nil {
		C = gonumExtensions.NewZeros(p, n)
	}
	if D == nil {
		D = gonumExtensions.NewZeros(p, m)
	}

	// Check that system parameters match
	if r, c := B.Dims(); r != n || c != m {
		return nil, fmt.Errorf("B is %dx%d, want %dx%d: %w", r, c, n, m, ErrDimensionMismatch)
	}
	if r, c := C.Dims(); r != p || c != n {
		return nil, fmt.Errorf("C is %dx%d, want %dx%d: %w", r, c, p, n, ErrDimensionMismatch)
	}
	if r, c := D.Dims(); r != p || c != m {
		return nil, fmt.Errorf("D is %dx%d, want %dx%d: %w", r, c, p, m, ErrDimensionMismatch)
	}

	return &LinearStateSpaceModel{
		a:  gonumExtensions.Copy(A),
		b:  gonumExtensions.Copy(B),
		c:  gonumExtensions.Copy(C),
		d:  gonumExtensions.Copy(D),
		ts: ts,
	}, nil
}

// NewIntegratorChain returns a linear state space model of an integrator chain
// of size N with input. The input drives the first integrator and the last
// integrator is observed.
func NewIntegratorChain(N int, stageGain float64, ts Sampling) (*LinearStateSpaceModel, error) {
	if N < 1 {
		return nil, fmt.Errorf("integrator chain of size %d: %w", N, ErrDimensionMismatch)
	}
	a := make([]float64, N*N)
	b := make([]float64, N)
	c := make([]float64, N)
	stride := N
	for row := 0; row < N; row++ {
		for column := 0; column < N; column++ {
			if row == (column + 1) {
				a[row*stride+column] = stageGain
			}
		}
	}
	b[0] = stageGain
	c[N-1] = 1
	return NewLinearStateSpaceModel(mat.NewDense(N, N, a), mat.NewDense(N, 1, b), mat.NewDense(1, N, c), nil, ts)
}

// A returns the state dynamics.
func (model *LinearStateSpaceModel) A() mat.Matrix { return model.a }

// B returns the input matrix.
func (model *LinearStateSpaceModel) B() mat.Matrix { return model.b }

// C returns the observation matrix.
func (model *LinearStateSpaceModel) C() mat.Matrix { return model.c }

// D returns the feedthrough matrix.
func (model *LinearStateSpaceModel) D() mat.Matrix { return model.d }

// Sampling returns the sampling time of the model.
func (model *LinearStateSpaceModel) Sampling() Sampling { return model.ts }

// Matrices returns A, B, C and D.
func (model *LinearStateSpaceModel) Matrices() (A, B, C, D mat.Matrix) {
	return model.a, model.b, model.c, model.d
}

func (model *LinearStateSpaceModel) StateSpaceOrder() int {
	m, _ := model.a.Dims()
	return m
}

func (model *LinearStateSpaceModel) ObservationSpaceOrder() int {
	m, _ := model.c.Dims()
	return m
}

func (model *LinearStateSpaceModel) InputSpaceOrder() int {
	_, n := model.b.Dims()
	return n
}

// Order is the state space order.
func (model *LinearStateSpaceModel) Order() int {
	return model.StateSpaceOrder()
}

// Derivative returns the state derivative
// x'(t) = Ax(t) + Bu(t)
// where state = x(t) and input = u(t) at an arbitrary time t. For discrete time
// models this is the next state.
func (model *LinearStateSpaceModel) Derivative(state, input []float64) ([]float64, error) {
	if len(state) != model.StateSpaceOrder() {
		return nil, fmt.Errorf("state of length %d for order %d: %w", len(state), model.StateSpaceOrder(), ErrDimensionMismatch)
	}
	if len(input) != model.InputSpaceOrder() {
		return nil, fmt.Errorf("input of length %d for %d inputs: %w", len(input), model.InputSpaceOrder(), ErrDimensionMismatch)
	}
	return affine(model.a, model.b, state, input), nil
}

// Observation returns the observed state
// y(t) = Cx(t) + Du(t)
// where state = x(t) and input = u(t) at an arbitrary time t.
func (model *LinearStateSpaceModel) Observation(state, input []float64) ([]float64, error) {
	if len(state) != model.StateSpaceOrder() {
		return nil, fmt.Errorf("state of length %d for order %d: %w", len(state), model.StateSpaceOrder(), ErrDimensionMismatch)
	}
	if len(input) != model.InputSpaceOrder() {
		return nil, fmt.Errorf("input of length %d for %d inputs: %w", len(input), model.InputSpaceOrder(), ErrDimensionMismatch)
	}
	return affine(model.c, model.d, state, input), nil
}

// affine computes M x + N u.
func affine(M, N mat.Matrix, x, u []float64) []float64 {
	rows, _ := M.Dims()
	if rows == 0 {
		return []float64{}
	}
	res := mat.NewVecDense(rows, nil)
	if len(x) > 0 {
		res.MulVec(M, mat.NewVecDense(len(x), x))
	}
	if len(u) > 0 {
		var tmpInput mat.VecDense
		tmpInput.MulVec(N, mat.NewVecDense(len(u), u))
		res.AddVec(res, &tmpInput)
	}
	return res.RawVector().Data
}
