/*
 * fes.go, part of goABF
 *
 * Copyright 2024 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU Lesser General Public License as published by
    the Free Software Foundation, either version 2.1 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU Lesser General Public License
    along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 *
*/
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package fesplot obtains free energy profiles from the force field reports
//of an ABF run, and plots them.
package fesplot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	abf "github.com/rmera/goabf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Profile1D returns the mean force along the CV cv as a function of that CV. For
//reports with more than one CV, the force is averaged over all the bins that share
//the same coordinate along cv. The points are sorted along x.
func Profile1D(block abf.ReportBlock, cv int) (x, force []float64, err error) {
	if cv < 0 || cv >= len(block.Shape) {
		return nil, nil, Error{fmt.Sprintf("CV %d requested from a %d-dimensional report", cv, len(block.Shape)), []string{"Profile1D"}, true}
	}
	if len(block.Centers) == 0 {
		return nil, nil, Error{"empty report block", []string{"Profile1D"}, true}
	}
	groups := make(map[float64][]float64, block.Shape[cv])
	for i, c := range block.Centers {
		groups[c[cv]] = append(groups[c[cv]], block.Forces[i][cv])
	}
	x = make([]float64, 0, len(groups))
	for k := range groups {
		x = append(x, k)
	}
	sort.Float64s(x)
	force = make([]float64, len(x))
	for i, v := range x {
		force[i] = stat.Mean(groups[v], nil)
	}
	return x, force, nil
}

//Integrate returns the free energy A(x) = -int F dx, by the trapezoidal rule,
//shifted so its minimum is zero. x must be sorted.
func Integrate(x, force []float64) []float64 {
	if len(x) != len(force) {
		panic(PanicMsg("goABF/fesplot.Integrate: x and force must have the same length"))
	}
	fe := make([]float64, len(x))
	if len(x) == 0 {
		return fe
	}
	for i := 1; i < len(x); i++ {
		fe[i] = fe[i-1] - 0.5*(force[i]+force[i-1])*(x[i]-x[i-1])
	}
	floats.AddConst(-floats.Min(fe), fe)
	return fe
}

//Barrier returns the highest free energy between the two deepest minima
//of the profile fe, measured from the lowest of them, which is zero after Integrate.
//It returns NaN if the profile doesn't have two minima.
func Barrier(fe []float64) float64 {
	var minima []int
	for i := 1; i < len(fe)-1; i++ {
		if fe[i] <= fe[i-1] && fe[i] < fe[i+1] {
			minima = append(minima, i)
		}
	}
	if len(minima) < 2 {
		return math.NaN()
	}
	sort.Slice(minima, func(i, j int) bool { return fe[minima[i]] < fe[minima[j]] })
	a, b := minima[0], minima[1]
	if a > b {
		a, b = b, a
	}
	return floats.Max(fe[a:b+1]) - math.Min(fe[a], fe[b])
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

//Plot draws the mean force and the free energy against x and saves the plot to
//filename. The format is taken from the extension (png, svg, pdf, ...).
//fe can be nil, in which case only the force is plotted.
func Plot(x, force, fe []float64, title, filename string) error {
	if len(x) != len(force) || (fe != nil && len(fe) != len(x)) {
		return Error{"x, force and free energy must have the same length", []string{"Plot"}, true}
	}
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = "CV"
	p.Y.Label.Text = "Energy"
	p.Add(plotter.NewGrid())
	fl, err := plotter.NewLine(xys(x, force))
	if err != nil {
		return Error{err.Error(), []string{"Plot"}, true}
	}
	fl.LineStyle.Color = color.RGBA{B: 255, A: 255}
	fl.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(fl)
	p.Legend.Add("mean force", fl)
	if fe != nil {
		el, err := plotter.NewLine(xys(x, fe))
		if err != nil {
			return Error{err.Error(), []string{"Plot"}, true}
		}
		el.LineStyle.Color = color.RGBA{R: 255, A: 255}
		el.LineStyle.Width = vg.Points(2)
		p.Add(el)
		p.Legend.Add("free energy", el)
	}
	if err := p.Save(5*vg.Inch, 4*vg.Inch, filename); err != nil {
		return Error{err.Error(), []string{"Plot"}, true}
	}
	return nil
}

//Error is the error type for this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return "goABF/fesplot: " + err.message
}

//Decorate adds dec to the decoration slice of the error, and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

//PanicMsg is used for panics caused by wrong use of the API.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
