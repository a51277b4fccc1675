// Package netlist describes interconnections of linear systems in YAML and
// builds them.
//
// A netlist names a set of systems and a set of compositions. Every
// composition combines named systems or other compositions with one of the
// kinds below, and the output names the composition (or system) to build.
//
//	systems:
//	  plant: {a: [[-1]], b: [[1]], c: [[1]], d: [[0]]}
//	  unity: {d: [[1]]}
//	compose:
//	  loop: {kind: feedback, operands: [plant, unity]}
//	output: loop
package netlist

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/interconnect"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// ErrNetlist is returned for netlists that cannot be decoded, validated or
// realized.
var ErrNetlist = errors.New("netlist: invalid")

// Composition kinds.
const (
	KindSeries   = "series"
	KindParallel = "parallel"
	KindFeedback = "feedback"
	KindAppend   = "append"
	KindVcat     = "vcat"
	KindHcat     = "hcat"
	// KindLFT is the partitioned feedback of exactly two operands with
	// explicit partition points.
	KindLFT = "lft"
)

// Netlist is a set of named systems, the compositions over them and the name
// to build.
type Netlist struct {
	Systems map[string]System      `yaml:"systems"`
	Compose map[string]Composition `yaml:"compose"`
	Output  string                 `yaml:"output"`
}

// System is either a literal realization or one of the builders. Ts is the
// sampling period, 0 for continuous time.
type System struct {
	A  [][]float64 `yaml:"a,omitempty"`
	B  [][]float64 `yaml:"b,omitempty"`
	C  [][]float64 `yaml:"c,omitempty"`
	D  [][]float64 `yaml:"d,omitempty"`
	Ts float64     `yaml:"ts,omitempty"`
	// Inputs and Outputs declare the channel counts of a system whose
	// matrices cannot carry them, such as a sink without states or outputs.
	Inputs  int `yaml:"inputs,omitempty"`
	Outputs int `yaml:"outputs,omitempty"`

	Integrator *Integrator `yaml:"integrator,omitempty"`
	Oscillator *Oscillator `yaml:"oscillator,omitempty"`
}

// Integrator builds an interconnect.IntegratorBlock.
type Integrator struct {
	Gain float64 `yaml:"gain"`
}

// Oscillator builds an interconnect.OscillatorBlock. Frequency is in Hz.
type Oscillator struct {
	Gain      float64 `yaml:"gain"`
	Frequency float64 `yaml:"frequency"`
}

// Composition combines its operands, systems or other compositions, with Kind.
type Composition struct {
	Kind     string   `yaml:"kind"`
	Operands []string `yaml:"operands"`
	// Partitions holds the partition points of the two lft operands.
	Partitions []Partition `yaml:"partitions,omitempty"`
}

// Partition gives the sizes of the first input and output groups of an lft
// operand.
type Partition struct {
	Nu1 int `yaml:"nu1"`
	Ny1 int `yaml:"ny1"`
}

// Load reads and validates a netlist file.
func Load(path string) (*Netlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netlist load failed (%s): %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a netlist document.
func Parse(data []byte) (*Netlist, error) {
	var n Netlist
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("netlist parse failed: %v: %w", err, ErrNetlist)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// Validate checks names, kinds and operand counts, and rejects cycles.
func (n *Netlist) Validate() error {
	if n.Output == "" {
		return fmt.Errorf("no output: %w", ErrNetlist)
	}
	for name, system := range n.Systems {
		if _, dup := n.Compose[name]; dup {
			return fmt.Errorf("%q is both a system and a composition: %w", name, ErrNetlist)
		}
		if system.Integrator != nil && system.Oscillator != nil {
			return fmt.Errorf("system %q has two builders: %w", name, ErrNetlist)
		}
		if !(system.Ts >= 0) || math.IsInf(system.Ts, 1) {
			return fmt.Errorf("system %q has sampling period %v: %w", name, system.Ts, ErrNetlist)
		}
		if system.Inputs < 0 || system.Outputs < 0 {
			return fmt.Errorf("system %q has %d inputs and %d outputs: %w", name, system.Inputs, system.Outputs, ErrNetlist)
		}
	}
	for _, name := range n.names() {
		c := n.Compose[name]
		switch c.Kind {
		case KindSeries, KindParallel, KindAppend, KindVcat, KindHcat:
			if len(c.Operands) == 0 {
				return fmt.Errorf("composition %q has no operands: %w", name, ErrNetlist)
			}
		case KindFeedback:
			if len(c.Operands) != 2 {
				return fmt.Errorf("feedback %q needs 2 operands, has %d: %w", name, len(c.Operands), ErrNetlist)
			}
		case KindLFT:
			if len(c.Operands) != 2 || len(c.Partitions) != 2 {
				return fmt.Errorf("lft %q needs 2 operands and 2 partitions: %w", name, ErrNetlist)
			}
		default:
			return fmt.Errorf("composition %q has unknown kind %q: %w", name, c.Kind, ErrNetlist)
		}
		for _, operand := range c.Operands {
			if !n.defined(operand) {
				return fmt.Errorf("composition %q uses unknown %q: %w", name, operand, ErrNetlist)
			}
		}
	}
	if !n.defined(n.Output) {
		return fmt.Errorf("unknown output %q: %w", n.Output, ErrNetlist)
	}
	return n.checkCycles()
}

func (n *Netlist) defined(name string) bool {
	if _, ok := n.Systems[name]; ok {
		return true
	}
	_, ok := n.Compose[name]
	return ok
}

// names returns the composition names in a stable order.
func (n *Netlist) names() []string {
	names := make([]string, 0, len(n.Compose))
	for name := range n.Compose {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Netlist) checkCycles() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(n.Compose))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		c, ok := n.Compose[name]
		if !ok {
			return nil
		}
		switch state[name] {
		case visiting:
			return fmt.Errorf("cycle %v: %w", append(path, name), ErrNetlist)
		case done:
			return nil
		}
		state[name] = visiting
		for _, operand := range c.Operands {
			if err := visit(operand, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		return nil
	}
	for _, name := range n.names() {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}

// realize builds the leaf system name.
func (s System) realize(name string) (*ssm.LinearStateSpaceModel, error) {
	ts := ssm.Continuous()
	if s.Ts > 0 {
		ts = ssm.Discrete(s.Ts)
	}
	var (
		sys *ssm.LinearStateSpaceModel
		err error
	)
	switch {
	case s.Integrator != nil:
		sys, err = interconnect.IntegratorBlock(s.Integrator.Gain, ts)
	case s.Oscillator != nil:
		sys, err = interconnect.OscillatorBlock(s.Oscillator.Gain, s.Oscillator.Frequency, ts)
	default:
		ms := make([]mat.Matrix, 4)
		for index, rows := range [][][]float64{s.A, s.B, s.C, s.D} {
			if ms[index], err = matrix(rows); err != nil {
				return nil, fmt.Errorf("system %q: %w", name, err)
			}
		}
		if ms[3] == nil && (s.Inputs > 0 || s.Outputs > 0) {
			m, p := s.Inputs, s.Outputs
			if m == 0 && ms[1] != nil {
				_, m = ms[1].Dims()
			}
			if p == 0 && ms[2] != nil {
				p, _ = ms[2].Dims()
			}
			ms[3] = gonumExtensions.NewZeros(p, m)
		}
		sys, err = ssm.NewLinearStateSpaceModel(ms[0], ms[1], ms[2], ms[3], ts)
	}
	if err != nil {
		return nil, fmt.Errorf("system %q: %w", name, err)
	}
	if s.Inputs > 0 && s.Inputs != sys.InputSpaceOrder() || s.Outputs > 0 && s.Outputs != sys.ObservationSpaceOrder() {
		return nil, fmt.Errorf("system %q declares %d inputs and %d outputs, has %d and %d: %w",
			name, s.Inputs, s.Outputs, sys.InputSpaceOrder(), sys.ObservationSpaceOrder(), ErrNetlist)
	}
	return sys, nil
}

// matrix converts rows to a matrix, nil for no rows.
func matrix(rows [][]float64) (mat.Matrix, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	cols := len(rows[0])
	for index, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", index, len(row), cols, ErrNetlist)
		}
	}
	if cols == 0 {
		return gonumExtensions.NewZeros(len(rows), 0), nil
	}
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
