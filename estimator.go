/*
 * estimator.go, part of goABF
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
	"fmt"
	"math"

	"github.com/rmera/goabf/comm"
	v3 "github.com/rmera/goabf/v3"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

//Estimator obtains the instantaneous generalized force along the CVs from the
//time derivative of the atomic momenta projected on the CV space.
//See Darve, Rodriguez-Gomez, Pohorille, J. Chem. Phys. 128, 144120 (2008).
type Estimator struct {
	ncv        int
	timestep   float64
	unitConv   float64
	massWeight bool
	//projected momenta one and two steps ago.
	wdotp1 []float64
	wdotp2 []float64
	log    logrus.FieldLogger
}

//NewEstimator returns an estimator for ncv collective variables. The finite
//difference history starts at zero.
func NewEstimator(ncv int, timestep, unitConv float64, massWeight bool) *Estimator {
	return &Estimator{
		ncv:        ncv,
		timestep:   timestep,
		unitConv:   unitConv,
		massWeight: massWeight,
		wdotp1:     make([]float64, ncv),
		wdotp2:     make([]float64, ncv),
	}
}

//SetLogger sets the logger used for warnings. With a nil logger, nothing is logged.
func (E *Estimator) SetLogger(l logrus.FieldLogger) {
	E.log = l
}

//History returns copies of the projected momenta of the previous and the
//second to previous step.
func (E *Estimator) History() (prev1, prev2 []float64) {
	prev1 = make([]float64, E.ncv)
	prev2 = make([]float64, E.ncv)
	copy(prev1, E.wdotp1)
	copy(prev2, E.wdotp2)
	return prev1, prev2
}

//SetHistory replaces the finite difference history.
func (E *Estimator) SetHistory(prev1, prev2 []float64) error {
	if len(prev1) != E.ncv || len(prev2) != E.ncv {
		return newError(ErrDimension, "Estimator.SetHistory", fmt.Sprintf("history of lengths %d and %d for %d CVs", len(prev1), len(prev2), E.ncv), true)
	}
	copy(E.wdotp1, prev1)
	copy(E.wdotp2, prev2)
	return nil
}

func (E *Estimator) check(masses []float64, vels *v3.Matrix, grads []*v3.Matrix, fold []float64) (int, error) {
	dim := func(format string, a ...interface{}) error {
		return newError(ErrDimension, "Estimator.Estimate", fmt.Sprintf(format, a...), true)
	}
	if len(grads) != E.ncv {
		return 0, dim("%d gradients given for %d CVs", len(grads), E.ncv)
	}
	if len(fold) != E.ncv {
		return 0, dim("previous force with %d components for %d CVs", len(fold), E.ncv)
	}
	if vels == nil {
		return 0, dim("nil velocities")
	}
	n := vels.NVecs()
	if len(masses) != n {
		return 0, dim("%d masses given for %d atoms", len(masses), n)
	}
	for i, g := range grads {
		if g == nil || g.NVecs() != n {
			return 0, dim("gradient of CV %d doesn't have one vector per atom (%d atoms)", i, n)
		}
	}
	if E.massWeight {
		for i, m := range masses {
			if !(m > 0) {
				return 0, newError(ErrInput, "Estimator.Estimate", fmt.Sprintf("non-positive mass %v for atom %d", m, i), true)
			}
		}
	}
	return n, nil
}

//Estimate returns the instantaneous generalized force along each CV for the current step.
//masses, vels and grads are those of the atoms held by this process; the partial
//projections are sum-reduced on group, the processes sharing the walker. fold, the mean
//force applied as bias on the previous step, is added back to the estimate to remove the
//effect of the bias on the dynamics. After the call, the finite difference history
//includes the current step.
func (E *Estimator) Estimate(masses []float64, vels *v3.Matrix, grads []*v3.Matrix, group comm.Group, fold []float64) ([]float64, error) {
	n, err := E.check(masses, vels, grads, fold)
	if err != nil {
		return nil, err
	}
	//The Jacobian, each row is the flattened gradient of one CV.
	J := mat.NewDense(E.ncv, 3*n, nil)
	for i, g := range grads {
		J.SetRow(i, g.Flatten(nil))
	}
	//W.Jt, where W is either the identity or the inverse of the masses.
	Jmass := mat.DenseCopyOf(J.T())
	if E.massWeight {
		for i := 0; i < n; i++ {
			for k := 0; k < 3; k++ {
				for c := 0; c < E.ncv; c++ {
					Jmass.Set(3*i+k, c, Jmass.At(3*i+k, c)/masses[i])
				}
			}
		}
	}
	M := mat.NewDense(E.ncv, E.ncv, nil)
	M.Mul(J, Jmass)
	//Each process may only have a part of the atoms.
	raw := M.RawMatrix().Data
	if err := group.AllReduceSum(raw, raw); err != nil {
		return nil, wrapError(ErrComm, "Estimator.Estimate", "reducing the metric tensor", err)
	}
	Minv := mat.NewDense(E.ncv, E.ncv, nil)
	if err := Minv.Inverse(M); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) || math.IsNaN(float64(cond)) {
			return nil, wrapError(ErrSingular, "Estimator.Estimate", "can't invert the CV metric tensor", err)
		}
		if E.log != nil {
			E.log.Warnf("CV metric tensor is ill-conditioned (condition number %g)", float64(cond))
		}
	}
	Wt := mat.NewDense(E.ncv, 3*n, nil)
	Wt.Mul(Minv, Jmass.T())

	p := v3.Zeros(n)
	p.ScaleByCol(vels, masses)
	momenta := mat.NewVecDense(3*n, p.Flatten(nil))
	wdotp := mat.NewVecDense(E.ncv, nil)
	wdotp.MulVec(Wt, momenta)
	w := wdotp.RawVector().Data
	if err := group.AllReduceSum(w, w); err != nil {
		return nil, wrapError(ErrComm, "Estimator.Estimate", "reducing the projected momenta", err)
	}

	//second order backwards finite difference. Adding the old force removes the bias.
	ret := make([]float64, E.ncv)
	for i := range ret {
		ret[i] = E.unitConv*(1.5*w[i]-2.0*E.wdotp1[i]+0.5*E.wdotp2[i])/E.timestep + fold[i]
	}
	copy(E.wdotp2, E.wdotp1)
	copy(E.wdotp1, w)
	return ret, nil
}
