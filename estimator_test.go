/*
 * estimator_test.go, part of goABF
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
	"strings"
	"testing"

	"github.com/rmera/goabf/comm"
	v3 "github.com/rmera/goabf/v3"
	"golang.org/x/sync/errgroup"
)

func mustMatrix(Te *testing.T, data ...float64) *v3.Matrix {
	m, err := v3.NewMatrix(data)
	if err != nil {
		Te.Fatal(err)
	}
	return m
}

//One atom moving along x with constant acceleration. After the history is
//filled, the backward difference is exact and the estimate is m*a.
func TestEstimatorConstantForce(Te *testing.T) {
	m, a, dt := 3.0, 0.5, 0.01
	for _, massWeight := range []bool{true, false} {
		E := NewEstimator(1, dt, 1, massWeight)
		grads := []*v3.Matrix{mustMatrix(Te, 1, 0, 0)}
		fold := []float64{0}
		for t := 1; t <= 6; t++ {
			vel := mustMatrix(Te, a*dt*float64(t), 0.3, -1)
			f, err := E.Estimate([]float64{m}, vel, grads, comm.Self{}, fold)
			if err != nil {
				Te.Fatal(err)
			}
			if t >= 3 && math.Abs(f[0]-m*a) > 1e-9 {
				Te.Errorf("massweight %v step %d: force %v expected, got %v", massWeight, t, m*a, f[0])
			}
		}
		p1, p2 := E.History()
		if math.Abs(p1[0]-m*a*dt*6) > 1e-12 || math.Abs(p2[0]-m*a*dt*5) > 1e-12 {
			Te.Errorf("wrong history %v %v", p1, p2)
		}
	}
}

//The estimate with a previous bias b is the estimate without it, plus b.
func TestEstimatorDebias(Te *testing.T) {
	masses := []float64{2, 5}
	grads := []*v3.Matrix{mustMatrix(Te, 1, 2, 0, 0, 1, 1), mustMatrix(Te, 0, 0, 1, 1, 0, 0)}
	vels := []*v3.Matrix{
		mustMatrix(Te, 0.1, 0.2, 0.3, -0.1, 0.4, 0.0),
		mustMatrix(Te, 0.2, 0.1, 0.3, -0.3, 0.2, 0.1),
		mustMatrix(Te, 0.4, -0.2, 0.1, 0.0, 0.1, 0.5),
	}
	b := []float64{1.5, -0.25}
	plain := NewEstimator(2, 0.002, 4.184, true)
	biased := NewEstimator(2, 0.002, 4.184, true)
	for i, v := range vels {
		f0, err := plain.Estimate(masses, v, grads, comm.Self{}, []float64{0, 0})
		if err != nil {
			Te.Fatal(err)
		}
		f1, err := biased.Estimate(masses, v, grads, comm.Self{}, b)
		if err != nil {
			Te.Fatal(err)
		}
		for k := range b {
			if math.Abs(f1[k]-f0[k]-b[k]) > 1e-9 {
				Te.Errorf("step %d CV %d: biased estimate %v, unbiased %v, bias %v", i, k, f1[k], f0[k], b[k])
			}
		}
	}
}

func TestEstimatorErrors(Te *testing.T) {
	E := NewEstimator(1, 1, 1, true)
	vel := mustMatrix(Te, 1, 1, 1)
	_, err := E.Estimate([]float64{1}, vel, []*v3.Matrix{mustMatrix(Te, 0, 0, 0)}, comm.Self{}, []float64{0})
	if !errors.Is(err, ErrSingular) {
		Te.Errorf("zero gradient should give a singular matrix error, got %v", err)
	}
	_, err = E.Estimate([]float64{1}, vel, nil, comm.Self{}, []float64{0})
	if !errors.Is(err, ErrDimension) {
		Te.Errorf("missing gradients should give a dimension error, got %v", err)
	}
	_, err = E.Estimate([]float64{1, 2}, vel, []*v3.Matrix{mustMatrix(Te, 1, 0, 0)}, comm.Self{}, []float64{0})
	if !errors.Is(err, ErrDimension) {
		Te.Errorf("wrong number of masses should give a dimension error, got %v", err)
	}
	_, err = E.Estimate([]float64{0}, vel, []*v3.Matrix{mustMatrix(Te, 1, 0, 0)}, comm.Self{}, []float64{0})
	if !errors.Is(err, ErrInput) {
		Te.Errorf("a zero mass should give an input error, got %v", err)
	}
	var e Error
	if !errors.As(err, &e) {
		Te.Fatalf("an abf.Error expected, got %T", err)
	}
	if !e.Critical() {
		Te.Error("input errors should be critical")
	}
	if !strings.HasPrefix(e.Trace(), "Estimator.") {
		Te.Errorf("the trace should start in the estimator, got %q", e.Trace())
	}
}

//Splitting the atoms of a walker over two processes gives the same estimate as
//having all of them in one.
func TestEstimatorDecomposition(Te *testing.T) {
	masses := []float64{2, 3}
	g1 := []float64{1, 2, 0, 0, 1, 1}
	g2 := []float64{0, 0, 1, 1, 0, 0}
	steps := [][]float64{
		{0.1, 0.2, 0.3, -0.1, 0.4, 0.0},
		{0.2, 0.1, 0.3, -0.3, 0.2, 0.1},
		{0.4, -0.2, 0.1, 0.0, 0.1, 0.5},
		{0.3, -0.1, 0.0, 0.2, 0.3, 0.4},
	}
	full := NewEstimator(2, 0.5, 1, true)
	expected := make([][]float64, len(steps))
	for i, v := range steps {
		f, err := full.Estimate(masses, mustMatrix(Te, v...), []*v3.Matrix{mustMatrix(Te, g1...), mustMatrix(Te, g2...)}, comm.Self{}, []float64{0.1, 0.2})
		if err != nil {
			Te.Fatal(err)
		}
		expected[i] = f
	}
	members := comm.NewLocal(2)
	got := make([][][]float64, 2)
	var eg errgroup.Group
	for r := 0; r < 2; r++ {
		r := r
		eg.Go(func() error {
			E := NewEstimator(2, 0.5, 1, true)
			for _, v := range steps {
				vel := mustMatrix(Te, v[3*r:3*r+3]...)
				grads := []*v3.Matrix{mustMatrix(Te, g1[3*r:3*r+3]...), mustMatrix(Te, g2[3*r:3*r+3]...)}
				f, err := E.Estimate(masses[r:r+1], vel, grads, members[r], []float64{0.1, 0.2})
				if err != nil {
					members[r].Close(err)
					return err
				}
				got[r] = append(got[r], f)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		Te.Fatal(err)
	}
	for r := range got {
		for i := range steps {
			for k := range expected[i] {
				if math.Abs(got[r][i][k]-expected[i][k]) > 1e-9 {
					Te.Errorf("rank %d step %d CV %d: %v expected, got %v", r, i, k, expected[i][k], got[r][i][k])
				}
			}
		}
	}
}
