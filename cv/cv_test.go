/*
 * cv_test.go, part of goABF
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

package cv

import (
	"math"
	"testing"

	v3 "github.com/rmera/goabf/v3"
)

func positions(Te *testing.T, data []float64) *v3.Matrix {
	p, err := v3.NewMatrix(data)
	if err != nil {
		Te.Fatal(err)
	}
	return p
}

//numerical gradient by central differences, compared to the analytic one.
func checkGradient(Te *testing.T, name string, c Evaluator, pos *v3.Matrix, masses []float64) {
	if err := c.Evaluate(pos, masses); err != nil {
		Te.Fatal(err)
	}
	analytic := v3.Zeros(pos.NVecs())
	analytic.Copy(c.Gradient())
	h := 1e-6
	for i := 0; i < pos.NVecs(); i++ {
		for k := 0; k < 3; k++ {
			orig := pos.At(i, k)
			pos.Set(i, k, orig+h)
			c.Evaluate(pos, masses)
			plus := c.Value()
			pos.Set(i, k, orig-h)
			c.Evaluate(pos, masses)
			minus := c.Value()
			pos.Set(i, k, orig)
			num := (plus - minus) / (2 * h)
			if math.Abs(num-analytic.At(i, k)) > 1e-5 {
				Te.Errorf("%s: atom %d component %d: numerical gradient %v analytic %v", name, i, k, num, analytic.At(i, k))
			}
		}
	}
	c.Evaluate(pos, masses)
}

func TestDistance(Te *testing.T) {
	pos := positions(Te, []float64{0, 0, 0, 2, 0, 0, 3, 4, 0, 7, 1, 1})
	masses := []float64{1, 3, 2, 12}
	d := NewDistance([]int{0}, []int{2}, 4)
	if err := d.Evaluate(pos, masses); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(d.Value()-5) > 1e-12 {
		Te.Errorf("distance 5 expected, got %v", d.Value())
	}
	if d.Difference(4) != d.Value()-4 {
		Te.Error("the difference of a distance should be a plain subtraction")
	}
	checkGradient(Te, "distance", NewDistance([]int{0, 1}, []int{2, 3}, 4), pos, masses)
	if g := d.Gradient().Vec(3); g != [3]float64{} {
		Te.Errorf("atom 3 is not in the distance, but its gradient is %v", g)
	}
}

func TestCoordinate(Te *testing.T) {
	pos := positions(Te, []float64{0, 0, 0, 2, 0, 0, 3, 4, 0})
	c := NewCoordinate([]int{0, 1}, 0, 3)
	if err := c.Evaluate(pos, []float64{1, 3, 1}); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(c.Value()-1.5) > 1e-12 {
		Te.Errorf("x of the center of mass should be 1.5, got %v", c.Value())
	}
	checkGradient(Te, "coordinate", NewCoordinate([]int{1, 2}, 1, 3), pos, []float64{1, 3, 1})
	//geometric center without masses
	c.Evaluate(pos, nil)
	if math.Abs(c.Value()-1) > 1e-12 {
		Te.Errorf("x of the geometric center should be 1, got %v", c.Value())
	}
}

func TestTorsion(Te *testing.T) {
	cases := []struct {
		name string
		r4   []float64
		phi  float64
	}{
		{"trans", []float64{-1, 0, 1}, math.Pi},
		{"cis", []float64{1, 0, 1}, 0},
		{"gauche", []float64{0, 1, 1}, math.Pi / 2},
	}
	for _, c := range cases {
		Te.Run(c.name, func(Te *testing.T) {
			data := append([]float64{1, 0, 0, 0, 0, 0, 0, 0, 1}, c.r4...)
			pos := positions(Te, data)
			t := NewTorsion([4]int{0, 1, 2, 3}, 4)
			if err := t.Evaluate(pos, nil); err != nil {
				Te.Fatal(err)
			}
			if math.Abs(math.Abs(t.Value())-c.phi) > 1e-9 {
				Te.Errorf("|dihedral| %v expected, got %v", c.phi, t.Value())
			}
		})
	}
	pos := positions(Te, []float64{1.1, 0.2, -0.3, 0, 0, 0, 0.1, -0.2, 1.3, 0.4, 1.2, 1.7})
	checkGradient(Te, "torsion", NewTorsion([4]int{0, 1, 2, 3}, 4), pos, nil)

	bad := positions(Te, []float64{0, 0, 0, 0, 0, 1, 0, 0, 2, 1, 0, 3})
	if err := NewTorsion([4]int{0, 1, 2, 3}, 4).Evaluate(bad, nil); err == nil {
		Te.Error("collinear atoms should give an error")
	}
}

func TestTorsionDifference(Te *testing.T) {
	t := NewTorsion([4]int{0, 1, 2, 3}, 4)
	t.value = 3
	if d := t.Difference(-3); math.Abs(d-(6-2*math.Pi)) > 1e-12 {
		Te.Errorf("minimum image difference %v expected, got %v", 6-2*math.Pi, d)
	}
	t.value = -3
	if d := t.Difference(3); math.Abs(d-(2*math.Pi-6)) > 1e-12 {
		Te.Errorf("minimum image difference %v expected, got %v", 2*math.Pi-6, d)
	}
}

func TestNew(Te *testing.T) {
	cases := []struct {
		kind  string
		atoms [][]int
		axis  int
		ok    bool
	}{
		{"distance", [][]int{{0}, {1, 2}}, 0, true},
		{"Distance", [][]int{{0}}, 0, false},
		{"coordinate", [][]int{{0, 1}}, 2, true},
		{"coordinate", [][]int{{0, 1}}, 3, false},
		{"torsion", [][]int{{0, 1, 2, 3}}, 0, true},
		{"torsion", [][]int{{0, 1, 2}}, 0, false},
		{"distance", [][]int{{0}, {9}}, 0, false},
		{"distance", [][]int{{0}, {}}, 0, false},
		{"angle", [][]int{{0, 1, 2}}, 0, false},
	}
	for _, c := range cases {
		_, err := New(c.kind, c.atoms, c.axis, 4)
		if (err == nil) != c.ok {
			Te.Errorf("New(%q, %v, %d): error %v, success expected: %v", c.kind, c.atoms, c.axis, err, c.ok)
		}
	}
}
