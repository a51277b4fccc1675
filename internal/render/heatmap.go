// Package render draws the block structure of a realization.
package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/hammal/lti/gonumExtensions"
	"github.com/hammal/lti/ssm"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var ErrEmpty = errors.New("render: empty system")

// Structure returns the block matrix
//
//	[A B]
//	[C D]
func Structure(sys *ssm.LinearStateSpaceModel) (mat.Matrix, error) {
	A, B, C, D := sys.Matrices()
	return gonumExtensions.Block([][]mat.Matrix{{A, B}, {C, D}})
}

// magnitude exposes the absolute values of a matrix as a grid with the first
// row at the top.
type magnitude struct {
	m mat.Matrix
}

func (g magnitude) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g magnitude) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return math.Abs(g.m.At(rows-1-r, c))
}

func (g magnitude) X(c int) float64 { return float64(c) }
func (g magnitude) Y(r int) float64 { return float64(r) }

// HeatMap saves a heat map of the magnitudes in the structure of sys to path.
// The image format follows the file extension.
func HeatMap(sys *ssm.LinearStateSpaceModel, title, path string) error {
	S, err := Structure(sys)
	if err != nil {
		return err
	}
	if gonumExtensions.IsEmpty(S) {
		return ErrEmpty
	}
	grid := magnitude{m: S}

	h := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	rows, cols := S.Dims()
	h.Min, h.Max = 0, 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			h.Max = math.Max(h.Max, grid.Z(c, r))
		}
	}
	if h.Max == 0 {
		h.Max = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"
	p.Add(h)

	width := vg.Length(math.Max(4, float64(cols)/2)) * vg.Inch
	height := vg.Length(math.Max(4, float64(rows)/2)) * vg.Inch
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}
