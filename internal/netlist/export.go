package netlist

import (
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
)

// Realization is the serialized form of a built system.
type Realization struct {
	Name    string      `json:"name" yaml:"name"`
	States  int         `json:"states" yaml:"states"`
	Inputs  int         `json:"inputs" yaml:"inputs"`
	Outputs int         `json:"outputs" yaml:"outputs"`
	Ts      float64     `json:"ts" yaml:"ts"`
	A       [][]float64 `json:"a" yaml:"a"`
	B       [][]float64 `json:"b" yaml:"b"`
	C       [][]float64 `json:"c" yaml:"c"`
	D       [][]float64 `json:"d" yaml:"d"`
}

// Export converts the built system sys into its serialized form.
func Export(name string, sys *ssm.LinearStateSpaceModel) Realization {
	A, B, C, D := sys.Matrices()
	return Realization{
		Name:    name,
		States:  sys.StateSpaceOrder(),
		Inputs:  sys.InputSpaceOrder(),
		Outputs: sys.ObservationSpaceOrder(),
		Ts:      sys.Sampling().Period(),
		A:       rows(A),
		B:       rows(B),
		C:       rows(C),
		D:       rows(D),
	}
}

// rows returns m row by row. Empty matrices give an empty, non-nil slice so
// they serialize as [].
func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	res := make([][]float64, r)
	for i := range res {
		res[i] = make([]float64, c)
		for j := range res[i] {
			res[i][j] = m.At(i, j)
		}
	}
	return res
}

// System returns the netlist form of the realization, so that built systems
// can be used as leaves of another netlist.
func (r Realization) System() System {
	return System{A: r.A, B: r.B, C: r.C, D: r.D, Ts: r.Ts, Inputs: r.Inputs, Outputs: r.Outputs}
}
