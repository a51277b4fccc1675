package pss

import (
	"math/rand"
	"testing"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/ssm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func random(rnd *rand.Rand, r, c int) mat.Matrix {
	if r == 0 || c == 0 {
		return gonumExtensions.NewZeros(r, c)
	}
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rnd.NormFloat64()
	}
	return mat.NewDense(r, c, data)
}

func randomVec(rnd *rand.Rand, n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = rnd.NormFloat64()
	}
	return v
}

func randomPSS(t *testing.T, rnd *rand.Rand, n, m, p, nu1, ny1 int) *PartitionedStateSpace {
	t.Helper()
	P, err := ssm.NewLinearStateSpaceModel(random(rnd, n, n), random(rnd, n, m), random(rnd, p, n), random(rnd, p, m), ssm.Continuous())
	require.NoError(t, err)
	s, err := New(P, nu1, ny1)
	require.NoError(t, err)
	return s
}

func scalar(t *testing.T, a, b, c, d float64) *PartitionedStateSpace {
	t.Helper()
	one := func(v float64) mat.Matrix { return mat.NewDense(1, 1, []float64{v}) }
	P, err := ssm.NewLinearStateSpaceModel(one(a), one(b), one(c), one(d), ssm.Continuous())
	require.NoError(t, err)
	s, err := Full(P)
	require.NoError(t, err)
	return s
}

func gain(t *testing.T, d float64, ts ssm.Sampling) *PartitionedStateSpace {
	t.Helper()
	P, err := ssm.NewGain(mat.NewDense(1, 1, []float64{d}), ts)
	require.NoError(t, err)
	s, err := Full(P)
	require.NoError(t, err)
	return s
}

func TestBlocks(t *testing.T) {
	P, err := ssm.NewLinearStateSpaceModel(
		mat.NewDense(1, 1, []float64{-1}),
		mat.NewDense(1, 3, []float64{1, 2, 3}),
		mat.NewDense(2, 1, []float64{4, 5}),
		mat.NewDense(2, 3, []float64{6, 7, 8, 9, 10, 11}),
		ssm.Continuous(),
	)
	require.NoError(t, err)
	s, err := New(P, 2, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, s.Nu2())
	assert.Equal(t, 1, s.Ny2())
	assert.True(t, mat.Equal(s.B1(), mat.NewDense(1, 2, []float64{1, 2})))
	assert.True(t, mat.Equal(s.B2(), mat.NewDense(1, 1, []float64{3})))
	assert.True(t, mat.Equal(s.C1(), mat.NewDense(1, 1, []float64{4})))
	assert.True(t, mat.Equal(s.C2(), mat.NewDense(1, 1, []float64{5})))
	assert.True(t, mat.Equal(s.D11(), mat.NewDense(1, 2, []float64{6, 7})))
	assert.True(t, mat.Equal(s.D12(), mat.NewDense(1, 1, []float64{8})))
	assert.True(t, mat.Equal(s.D21(), mat.NewDense(1, 2, []float64{9, 10})))
	assert.True(t, mat.Equal(s.D22(), mat.NewDense(1, 1, []float64{11})))

	for _, name := range []string{"A", "B", "C", "D", "B1", "B2", "C1", "C2", "D11", "D12", "D21", "D22"} {
		_, err := s.Lookup(name)
		assert.NoError(t, err, name)
	}
	_, err = s.Lookup("E")
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestEmptyPartitions(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	s := randomPSS(t, rnd, 2, 2, 2, 0, 2)
	r, c := s.B1().Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 0, c)
	r, c = s.D21().Dims()
	assert.Equal(t, 0, r)
	assert.Equal(t, 0, c)
	assert.True(t, mat.Equal(s.B2(), s.B()))
}

func TestNewRejectsPartition(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	s := randomPSS(t, rnd, 1, 2, 2, 1, 1)
	for _, tc := range []struct{ nu1, ny1 int }{{-1, 0}, {3, 0}, {0, -1}, {0, 3}} {
		_, err := New(s.P(), tc.nu1, tc.ny1)
		assert.ErrorIs(t, err, ErrPartition, "nu1=%d ny1=%d", tc.nu1, tc.ny1)
	}
	_, err := New(nil, 0, 0)
	assert.ErrorIs(t, err, ErrPartition)
}

func TestParallelCounts(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	s1 := randomPSS(t, rnd, 2, 3, 2, 1, 1)
	s2 := randomPSS(t, rnd, 3, 2, 4, 1, 1)
	res, err := Add(s1, s2)
	require.NoError(t, err)

	assert.Equal(t, 5, res.StateSpaceOrder())
	assert.Equal(t, 1, res.Nu1())
	assert.Equal(t, 1, res.Ny1())
	assert.Equal(t, s1.Nu2()+s2.Nu2(), res.Nu2())
	assert.Equal(t, s1.Ny2()+s2.Ny2(), res.Ny2())
	assert.True(t, mat.EqualApprox(res.D11(), mat.NewDense(1, 1, []float64{s1.D11().At(0, 0) + s2.D11().At(0, 0)}), 1e-14))

	_, err = Add(s1, randomPSS(t, rnd, 1, 2, 2, 2, 1))
	assert.ErrorIs(t, err, ErrPartition)
}

func TestParallelRoundTrip(t *testing.T) {
	s1 := scalar(t, -1, 1, 1, 0)
	s2 := scalar(t, -2, 1, 1, 0)
	res, err := Parallel(s1, s2)
	require.NoError(t, err)

	assert.True(t, mat.Equal(res.A(), mat.NewDense(2, 2, []float64{-1, 0, 0, -2})))
	assert.True(t, mat.Equal(res.B(), mat.NewDense(2, 1, []float64{1, 1})))
	assert.True(t, mat.Equal(res.C(), mat.NewDense(1, 2, []float64{1, 1})))
	assert.True(t, mat.Equal(res.D11(), mat.NewDense(1, 1, []float64{0})))

	// G + (-G) cancels in the summed output.
	minus := scalar(t, -1, 1, -1, 0)
	res, err = Parallel(s1, minus)
	require.NoError(t, err)
	assert.True(t, mat.Equal(res.C(), mat.NewDense(1, 2, []float64{1, -1})))
}

func TestSeriesCounts(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	s1 := randomPSS(t, rnd, 2, 3, 3, 2, 2)
	s2 := randomPSS(t, rnd, 1, 2, 4, 1, 2)
	res, err := Mul(s1, s2)
	require.NoError(t, err)

	assert.Equal(t, 3, res.StateSpaceOrder())
	assert.Equal(t, s2.Nu1(), res.Nu1())
	assert.Equal(t, s1.Ny1(), res.Ny1())
	assert.Equal(t, s1.Nu2()+s2.Nu2(), res.Nu2())
	assert.Equal(t, s1.Ny2()+s2.Ny2(), res.Ny2())

	_, err = Mul(s2, s1)
	assert.ErrorIs(t, err, ErrPartition)
}

func TestSeriesMatchesCascade(t *testing.T) {
	rnd := rand.New(rand.NewSource(6))
	s1 := randomPSS(t, rnd, 2, 2, 2, 1, 1)
	s2 := randomPSS(t, rnd, 3, 2, 2, 1, 1)
	res, err := Series(s2, s1)
	require.NoError(t, err)

	x1, x2 := randomVec(rnd, 2), randomVec(rnd, 3)
	u, w1, w2 := randomVec(rnd, 1), randomVec(rnd, 1), randomVec(rnd, 1)

	y2, err := s2.P().Observation(x2, append(u, w2...))
	require.NoError(t, err)
	dx1, err := s1.P().Derivative(x1, []float64{y2[0], w1[0]})
	require.NoError(t, err)
	dx2, err := s2.P().Derivative(x2, append(u, w2...))
	require.NoError(t, err)
	y1, err := s1.P().Observation(x1, []float64{y2[0], w1[0]})
	require.NoError(t, err)

	x := append(append([]float64{}, x1...), x2...)
	in := []float64{u[0], w1[0], w2[0]}
	dx, err := res.P().Derivative(x, in)
	require.NoError(t, err)
	y, err := res.P().Observation(x, in)
	require.NoError(t, err)

	assert.InDeltaSlice(t, append(dx1, dx2...), dx, 1e-12)
	assert.InDeltaSlice(t, []float64{y1[0], y1[1], y2[1]}, y, 1e-12)
}

func TestFeedbackZeroGain(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	s1 := randomPSS(t, rnd, 2, 1, 1, 1, 1)
	res, err := Feedback(s1, gain(t, 0, ssm.Continuous()))
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(res.A(), s1.A(), 1e-14))
	assert.True(t, mat.EqualApprox(res.B(), s1.B(), 1e-14))
	assert.True(t, mat.EqualApprox(res.C(), s1.C(), 1e-14))
	assert.True(t, mat.EqualApprox(res.D(), s1.D(), 1e-14))
}

func TestFeedbackStaticGains(t *testing.T) {
	res, err := Feedback(gain(t, 2, ssm.Continuous()), gain(t, 3, ssm.Continuous()))
	require.NoError(t, err)
	assert.Equal(t, 0, res.StateSpaceOrder())
	assert.InDelta(t, 2./7., res.D().At(0, 0), 1e-14)
}

func TestFeedbackSISO(t *testing.T) {
	// G = 1/(s+1) with unity feedback is 1/(s+2).
	res, err := Feedback(scalar(t, -1, 1, 1, 0), gain(t, 1, ssm.Continuous()))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(res.A(), mat.NewDense(1, 1, []float64{-2}), 1e-14))
	assert.True(t, mat.EqualApprox(res.B(), mat.NewDense(1, 1, []float64{1}), 1e-14))
	assert.True(t, mat.EqualApprox(res.C(), mat.NewDense(1, 1, []float64{1}), 1e-14))
	assert.True(t, mat.EqualApprox(res.D(), mat.NewDense(1, 1, []float64{0}), 1e-14))
}

func TestFeedbackLoopEquations(t *testing.T) {
	rnd := rand.New(rand.NewSource(8))
	for trial := 0; trial < 10; trial++ {
		s1 := randomPSS(t, rnd, 2, 2, 2, 1, 1)
		s2 := randomPSS(t, rnd, 1, 2, 2, 1, 1)
		res, err := Feedback(s1, s2)
		require.NoError(t, err)
		require.Equal(t, 3, res.StateSpaceOrder())
		require.Equal(t, 3, res.InputSpaceOrder())
		require.Equal(t, 3, res.ObservationSpaceOrder())

		x1, x2 := randomVec(rnd, 2), randomVec(rnd, 1)
		r, w1, w2 := rnd.NormFloat64(), rnd.NormFloat64(), rnd.NormFloat64()

		// Solve the scalar loop e = r - y1', y1' = C1' x2 + D11' y1 + D12' w2,
		// y1 = C1 x1 + D11 e + D12 w1 for the error signal e.
		c1x1 := mat.Dot(mat.NewVecDense(2, mat.Row(nil, 0, s1.C1())), mat.NewVecDense(2, x1))
		c1x2 := s2.C1().At(0, 0) * x2[0]
		d11, d12 := s1.D11().At(0, 0), s1.D12().At(0, 0)
		k11, k12 := s2.D11().At(0, 0), s2.D12().At(0, 0)
		e := (r - c1x2 - k11*(c1x1+d12*w1) - k12*w2) / (1 + k11*d11)
		y1 := c1x1 + d11*e + d12*w1

		dx1, err := s1.P().Derivative(x1, []float64{e, w1})
		require.NoError(t, err)
		dx2, err := s2.P().Derivative(x2, []float64{y1, w2})
		require.NoError(t, err)
		o1, err := s1.P().Observation(x1, []float64{e, w1})
		require.NoError(t, err)
		o2, err := s2.P().Observation(x2, []float64{y1, w2})
		require.NoError(t, err)

		x := append(append([]float64{}, x1...), x2...)
		in := []float64{r, w1, w2}
		dx, err := res.P().Derivative(x, in)
		require.NoError(t, err)
		y, err := res.P().Observation(x, in)
		require.NoError(t, err)

		assert.InDeltaSlice(t, append(dx1, dx2...), dx, 1e-9, "trial %d", trial)
		assert.InDeltaSlice(t, []float64{o1[0], o1[1], o2[1]}, y, 1e-9, "trial %d", trial)
	}
}

func TestFeedbackNonSquareLoop(t *testing.T) {
	rnd := rand.New(rand.NewSource(10))
	for trial := 0; trial < 10; trial++ {
		// Two loop inputs into s1, one loop output back into s2.
		s1 := randomPSS(t, rnd, 2, 3, 2, 2, 1)
		s2 := randomPSS(t, rnd, 1, 2, 3, 1, 2)
		res, err := Feedback(s1, s2)
		require.NoError(t, err)
		require.Equal(t, 2, res.Nu1())
		require.Equal(t, 1, res.Ny1())
		require.Equal(t, 4, res.InputSpaceOrder())
		require.Equal(t, 3, res.ObservationSpaceOrder())

		x1, x2 := randomVec(rnd, 2), randomVec(rnd, 1)
		r, w1, w2 := randomVec(rnd, 2), rnd.NormFloat64(), rnd.NormFloat64()

		// (I + D11' D11) e = r - C1' x2 - D11' (C1 x1 + D12 w1) - D12' w2
		var c1x1, rhs, tmp, e mat.VecDense
		c1x1.MulVec(s1.C1(), mat.NewVecDense(2, x1))
		c1x1.AddScaledVec(&c1x1, w1, mat.NewVecDense(1, []float64{s1.D12().At(0, 0)}))
		rhs.CloneFromVec(mat.NewVecDense(2, r))
		tmp.MulVec(s2.C1(), mat.NewVecDense(1, x2))
		rhs.SubVec(&rhs, &tmp)
		tmp.MulVec(s2.D11(), &c1x1)
		rhs.SubVec(&rhs, &tmp)
		tmp.MulVec(s2.D12(), mat.NewVecDense(1, []float64{w2}))
		rhs.SubVec(&rhs, &tmp)

		var loop mat.Dense
		loop.Mul(s2.D11(), s1.D11())
		loop.Add(&loop, gonumExtensions.Eye(2))
		require.NoError(t, e.SolveVec(&loop, &rhs))

		var d11e mat.VecDense
		d11e.MulVec(s1.D11(), &e)
		y1 := c1x1.AtVec(0) + d11e.AtVec(0)
		in1 := []float64{e.AtVec(0), e.AtVec(1), w1}
		in2 := []float64{y1, w2}

		dx1, err := s1.P().Derivative(x1, in1)
		require.NoError(t, err)
		dx2, err := s2.P().Derivative(x2, in2)
		require.NoError(t, err)
		o1, err := s1.P().Observation(x1, in1)
		require.NoError(t, err)
		o2, err := s2.P().Observation(x2, in2)
		require.NoError(t, err)

		x := append(append([]float64{}, x1...), x2...)
		in := []float64{r[0], r[1], w1, w2}
		dx, err := res.P().Derivative(x, in)
		require.NoError(t, err)
		y, err := res.P().Observation(x, in)
		require.NoError(t, err)

		assert.InDeltaSlice(t, append(dx1, dx2...), dx, 1e-9, "trial %d", trial)
		assert.InDeltaSlice(t, []float64{o1[0], o1[1], o2[2]}, y, 1e-9, "trial %d", trial)
	}
}

func TestFeedbackIllPosed(t *testing.T) {
	_, err := Feedback(gain(t, 1, ssm.Continuous()), gain(t, -1, ssm.Continuous()))
	assert.ErrorIs(t, err, ErrIllPosed)

	// Nearly singular loops are rejected by the tolerance.
	eye, err := ssm.NewGain(gonumExtensions.Eye(2), ssm.Continuous())
	require.NoError(t, err)
	near, err := ssm.NewGain(mat.NewDense(2, 2, []float64{0, 1, 1, 1e-9}), ssm.Continuous())
	require.NoError(t, err)
	s1, err := Full(eye)
	require.NoError(t, err)
	s2, err := Full(near)
	require.NoError(t, err)
	_, err = Feedback(s1, s2, WithTolerance(1e-6))
	assert.ErrorIs(t, err, ErrIllPosed)
	_, err = Feedback(s1, s2)
	assert.NoError(t, err)
}

func TestFeedbackPartition(t *testing.T) {
	rnd := rand.New(rand.NewSource(9))
	s1 := randomPSS(t, rnd, 1, 2, 2, 2, 1)
	s2 := randomPSS(t, rnd, 1, 2, 2, 1, 1)
	_, err := Feedback(s1, s2)
	assert.ErrorIs(t, err, ErrPartition)
}

func TestSamplingMismatch(t *testing.T) {
	c := gain(t, 1, ssm.Continuous())
	d := gain(t, 1, ssm.Discrete(0.1))
	_, err := Add(c, d)
	assert.ErrorIs(t, err, ssm.ErrSamplingMismatch)
	_, err = Mul(c, d)
	assert.ErrorIs(t, err, ssm.ErrSamplingMismatch)
	_, err = Feedback(c, d)
	assert.ErrorIs(t, err, ssm.ErrSamplingMismatch)

	res, err := Add(d, gain(t, 2, ssm.Discrete(0.1)))
	require.NoError(t, err)
	assert.Equal(t, ssm.Discrete(0.1), res.Sampling())
}
