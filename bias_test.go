/*
 * bias_test.go, part of goABF
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

package abf

import (
	"errors"
	"math"
	"testing"

	"github.com/rmera/goabf/comm"
	"github.com/rmera/goabf/histo"
	v3 "github.com/rmera/goabf/v3"
)

//fixedCV is a CV with a value and gradient set by hand.
type fixedCV struct {
	value float64
	grad  *v3.Matrix
}

func (c *fixedCV) Value() float64 { return c.value }
func (c *fixedCV) Gradient() *v3.Matrix { return c.grad }
func (c *fixedCV) Difference(target float64) float64 { return c.value - target }

//imageCV reports differences as minimum images, like a torsion.
type imageCV struct {
	fixedCV
}

func (c *imageCV) Difference(target float64) float64 {
	return math.Remainder(c.value-target, 2*math.Pi)
}

func TestBiasRestraint(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: 20, Upper: 30, Bins: 10})
	acc := NewAccumulator(g, 1, 1, comm.Self{})
	B := NewBiasProjector(1, []Restraint{{Lower: 0, Upper: 10, Spring: 2}}, []Periodicity{{}})
	cases := []struct {
		value float64
		bias  float64
	}{
		{-1, 2},
		{11, -2},
		{5, 0},
		{0, 0},
	}
	for _, c := range cases {
		cv := &fixedCV{c.value, mustMatrix(Te, 1, 0, 0)}
		bias, err := B.Compute(-1, []CV{cv}, acc)
		if err != nil {
			Te.Fatal(err)
		}
		if got := bias.At(0, 0); math.Abs(got-c.bias) > 1e-12 {
			Te.Errorf("value %v: bias %v expected, got %v", c.value, c.bias, got)
		}
	}
	//the restraint uses the plain difference for CVs not flagged periodic,
	//whatever their Difference method does.
	B = NewBiasProjector(1, []Restraint{{Lower: 2.5, Upper: 3.0, Spring: 10}}, []Periodicity{{}})
	bias, err := B.Compute(-1, []CV{&imageCV{fixedCV{-3.0, mustMatrix(Te, 1, 0, 0)}}}, acc)
	if err != nil {
		Te.Fatal(err)
	}
	if got := bias.At(0, 0); math.Abs(got-55) > 1e-9 {
		Te.Errorf("non periodic CV with a minimum image difference: bias 55 expected, got %v", got)
	}
	//no spring, no restraint
	B = NewBiasProjector(1, []Restraint{{Lower: 0, Upper: 10}}, []Periodicity{{}})
	bias, _ = B.Compute(-1, []CV{&fixedCV{-5, mustMatrix(Te, 1, 0, 0)}}, acc)
	if bias.At(0, 0) != 0 {
		Te.Errorf("a zero spring should give no bias, got %v", bias.At(0, 0))
	}
}

//A periodic CV gives the same restraint whatever image its value is reported in.
func TestBiasPeriodic(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: -1, Upper: 1, Bins: 10})
	acc := NewAccumulator(g, 1, 1, comm.Self{})
	B := NewBiasProjector(1, []Restraint{{Lower: 2.5, Upper: 3.0, Spring: 10}}, []Periodicity{{Periodic: true, Lower: -math.Pi, Upper: math.Pi}})
	ref, err := B.Compute(-1, []CV{&fixedCV{-3.0 + 2*math.Pi, mustMatrix(Te, 0, 1, 0)}}, acc)
	if err != nil {
		Te.Fatal(err)
	}
	expected := -(-3.0 + 2*math.Pi - 3.0) * 10
	if math.Abs(ref.At(0, 1)-expected) > 1e-9 {
		Te.Errorf("bias %v expected, got %v", expected, ref.At(0, 1))
	}
	for _, v := range []float64{-3.0, -3.0 + 4*math.Pi, -3.0 - 2*math.Pi} {
		got, _ := B.Compute(-1, []CV{&fixedCV{v, mustMatrix(Te, 0, 1, 0)}}, acc)
		if math.Abs(got.At(0, 1)-expected) > 1e-9 {
			Te.Errorf("value %v: bias %v expected, got %v", v, expected, got.At(0, 1))
		}
	}
}

func TestBiasMeanForce(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: 0, Upper: 1, Bins: 1}, histo.Dimension{Lower: 0, Upper: 1, Bins: 1})
	acc := NewAccumulator(g, 2, 1, comm.Self{})
	acc.Observe(0, []float64{2, -4})
	B := NewBiasProjector(2, make([]Restraint, 2), make([]Periodicity, 2))
	cvs := []CV{
		&fixedCV{0.5, mustMatrix(Te, 1, 0, 0, 0, 0, 0)},
		&fixedCV{0.5, mustMatrix(Te, 0, 0, 0, 0, 1, 1)},
	}
	bias, err := B.Compute(0, cvs, acc)
	if err != nil {
		Te.Fatal(err)
	}
	expected := []float64{-2, 0, 0, 0, 4, 4}
	got := bias.Flatten(nil)
	for i := range expected {
		if got[i] != expected[i] {
			Te.Errorf("element %d: %v expected, got %v", i, expected[i], got[i])
		}
	}
	forces := mustMatrix(Te, 1, 1, 1, 1, 1, 1)
	if err := B.Apply(forces); err != nil {
		Te.Fatal(err)
	}
	if forces.At(0, 0) != -1 || forces.At(1, 2) != 5 || forces.At(0, 1) != 1 {
		Te.Errorf("wrong forces after applying the bias: %v", forces)
	}
	//recomputed, not accumulated
	bias, _ = B.Compute(0, cvs, acc)
	if bias.At(0, 0) != -2 {
		Te.Errorf("the bias accumulated between calls: %v", bias.At(0, 0))
	}
	if _, err := B.Compute(0, cvs[:1], acc); !errors.Is(err, ErrDimension) {
		Te.Errorf("one CV for two restraints should give a dimension error, got %v", err)
	}
	if err := B.Apply(v3.Zeros(3)); !errors.Is(err, ErrDimension) {
		Te.Errorf("a force buffer of the wrong size should give a dimension error, got %v", err)
	}
}
