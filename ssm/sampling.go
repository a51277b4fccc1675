package ssm

import (
	"fmt"
	"math"
)

// Sampling tags a model as continuous time or discrete time with a period.
// The zero value is continuous time. Samplings are comparable with ==.
type Sampling struct {
	period float64
}

// Continuous returns the continuous time tag.
func Continuous() Sampling {
	return Sampling{}
}

// Discrete returns the discrete time tag for the sampling period ts. It panics
// if ts is not a positive finite number.
func Discrete(ts float64) Sampling {
	if !(ts > 0) || math.IsInf(ts, 1) {
		panic(fmt.Sprintf("ssm: invalid sampling period %v", ts))
	}
	return Sampling{period: ts}
}

// IsContinuous reports whether s is continuous time.
func (s Sampling) IsContinuous() bool {
	return s.period == 0
}

// Period returns the sampling period, 0 for continuous time.
func (s Sampling) Period() float64 {
	return s.period
}

func (s Sampling) String() string {
	if s.IsContinuous() {
		return "continuous"
	}
	return fmt.Sprintf("discrete(%v)", s.period)
}

// Common returns the sampling time shared by all of ts. Without arguments it
// returns continuous time.
func Common(ts ...Sampling) (Sampling, error) {
	if len(ts) == 0 {
		return Continuous(), nil
	}
	for _, s := range ts[1:] {
		if s != ts[0] {
			return Sampling{}, fmt.Errorf("%v and %v: %w", ts[0], s, ErrSamplingMismatch)
		}
	}
	return ts[0], nil
}
