/*
 * bias.go, part of goABF
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
	"fmt"

	v3 "github.com/rmera/goabf/v3"
)

//BiasProjector computes the per-atom bias force from the current estimate of
//the mean force, or from the restraints when the walker is out of the grid.
//The bias is recomputed from scratch on every call to Compute.
type BiasProjector struct {
	restraints []Restraint
	periods    []Periodicity
	bias       *v3.Matrix
	mean       []float64
}

//NewBiasProjector returns a projector for natoms atoms, with one restraint and one
//periodicity per CV.
func NewBiasProjector(natoms int, restraints []Restraint, periods []Periodicity) *BiasProjector {
	if len(restraints) != len(periods) {
		panic(PanicMsg("goABF.NewBiasProjector: one restraint and one periodicity per CV are needed"))
	}
	return &BiasProjector{
		restraints: append([]Restraint(nil), restraints...),
		periods:    append([]Periodicity(nil), periods...),
		bias:       v3.Zeros(natoms),
		mean:       make([]float64, len(restraints)),
	}
}

//Bias returns the bias from the last call to Compute. The matrix is reused
//between calls.
func (B *BiasProjector) Bias() *v3.Matrix {
	return B.bias
}

//unwrap brings value within half a period of mid.
func unwrap(value, mid, period float64) float64 {
	for value-mid > period/2 {
		value -= period
	}
	for value-mid < -period/2 {
		value += period
	}
	return value
}

//Compute recomputes the bias. If bin is valid, the bias on each atom is minus the
//mean force on bin times the gradient of each CV. Otherwise, each CV that lies
//outside its restraint interval contributes a linear restoring force toward the
//nearest restraint bound.
func (B *BiasProjector) Compute(bin int, cvs []CV, acc *Accumulator) (*v3.Matrix, error) {
	if len(cvs) != len(B.restraints) {
		return nil, newError(ErrDimension, "BiasProjector.Compute", fmt.Sprintf("%d CVs given, %d expected", len(cvs), len(B.restraints)), true)
	}
	natoms := B.bias.NVecs()
	for i, c := range cvs {
		if g := c.Gradient(); g == nil || g.NVecs() != natoms {
			return nil, newError(ErrDimension, "BiasProjector.Compute", fmt.Sprintf("gradient of CV %d doesn't have %d vectors", i, natoms), true)
		}
	}
	B.bias.Zero()
	if bin != -1 {
		B.mean = acc.Mean(bin, B.mean)
		for i, c := range cvs {
			B.addGradient(c.Gradient(), -B.mean[i])
		}
		return B.bias, nil
	}
	for i, c := range cvs {
		r := B.restraints[i]
		if !(r.Spring > 0) {
			continue
		}
		val := c.Value()
		p := B.periods[i]
		if p.Periodic {
			val = unwrap(val, (r.Upper+r.Lower)/2, p.Period())
		}
		var target float64
		switch {
		case val < r.Lower:
			target = r.Lower
		case val > r.Upper:
			target = r.Upper
		default:
			continue
		}
		B.addGradient(c.Gradient(), -(val-target)*r.Spring)
	}
	return B.bias, nil
}

func (B *BiasProjector) addGradient(grad *v3.Matrix, factor float64) {
	for j := 0; j < grad.NVecs(); j++ {
		B.bias.AddScaledVec(j, factor, grad.Vec(j))
	}
}

//Apply adds the current bias to forces.
func (B *BiasProjector) Apply(forces *v3.Matrix) error {
	if forces == nil || forces.NVecs() != B.bias.NVecs() {
		return newError(ErrDimension, "BiasProjector.Apply", "force buffer doesn't have one vector per atom", true)
	}
	forces.Dense.Add(forces.Dense, B.bias.Dense)
	return nil
}
