package pss

import (
	"github.com/hammal/lti/gonumExtensions"
	"gonum.org/v1/gonum/mat"
)

// builder chains block operations and keeps the first error, so the formulas
// in the operators read like the block equations they implement.
type builder struct {
	err error
}

func (b *builder) mul(x, y mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.Mul(x, y)
	b.err = err
	return res
}

func (b *builder) add(x, y mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.Add(x, y)
	b.err = err
	return res
}

func (b *builder) neg(x mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	return gonumExtensions.Neg(x)
}

func (b *builder) block(grid ...[]mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.Block(grid)
	b.err = err
	return res
}

func (b *builder) stack(ms ...mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.Stack(ms...)
	b.err = err
	return res
}

func (b *builder) augment(ms ...mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.Augment(ms...)
	b.err = err
	return res
}

func (b *builder) addTrailing(m, block mat.Matrix) mat.Matrix {
	if b.err != nil {
		return nil
	}
	res, err := gonumExtensions.AddTrailing(m, block)
	b.err = err
	return res
}

func row(ms ...mat.Matrix) []mat.Matrix { return ms }
