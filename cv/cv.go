/*
 * cv.go, part of goABF
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

//Package cv implements some collective variables: the distance between the
//centers of mass of two groups of atoms, one Cartesian coordinate of the center of
//mass of a group, and a dihedral angle.
//All of them fulfill the abf.CV interface after the first call to Evaluate.
package cv

import (
	"fmt"
	"math"
	"strings"

	v3 "github.com/rmera/goabf/v3"
)

//Evaluator is a collective variable that can be recomputed from the positions
//of the atoms.
type Evaluator interface {
	//Evaluate recomputes the value and gradient of the CV.
	Evaluate(positions *v3.Matrix, masses []float64) error
	Value() float64
	Gradient() *v3.Matrix
	Difference(target float64) float64
}

//New returns the collective variable of the given kind ("distance", "coordinate"
//or "torsion") for a system of natoms atoms. atoms contains the groups of atoms
//involved: two groups for a distance, one for a coordinate, and one group of four
//atoms for a torsion. axis (0, 1 or 2) is only used by coordinates.
func New(kind string, atoms [][]int, axis, natoms int) (Evaluator, error) {
	for i, g := range atoms {
		if len(g) == 0 {
			return nil, Error{fmt.Sprintf("empty atom group %d", i), []string{"New"}, true}
		}
		for _, a := range g {
			if a < 0 || a >= natoms {
				return nil, Error{fmt.Sprintf("atom index %d out of range for %d atoms", a, natoms), []string{"New"}, true}
			}
		}
	}
	switch strings.ToLower(kind) {
	case "distance":
		if len(atoms) != 2 {
			return nil, Error{fmt.Sprintf("a distance needs 2 groups, %d given", len(atoms)), []string{"New"}, true}
		}
		return NewDistance(atoms[0], atoms[1], natoms), nil
	case "coordinate":
		if len(atoms) != 1 {
			return nil, Error{fmt.Sprintf("a coordinate needs 1 group, %d given", len(atoms)), []string{"New"}, true}
		}
		if axis < 0 || axis > 2 {
			return nil, Error{fmt.Sprintf("axis %d is not 0, 1 or 2", axis), []string{"New"}, true}
		}
		return NewCoordinate(atoms[0], axis, natoms), nil
	case "torsion", "dihedral":
		if len(atoms) != 1 || len(atoms[0]) != 4 {
			return nil, Error{"a torsion needs one group of 4 atoms", []string{"New"}, true}
		}
		a := atoms[0]
		return NewTorsion([4]int{a[0], a[1], a[2], a[3]}, natoms), nil
	}
	return nil, Error{fmt.Sprintf("unknown CV kind %q", kind), []string{"New"}, true}
}

//base contains what all the CVs share.
type base struct {
	value float64
	grad  *v3.Matrix
}

func (b *base) Value() float64 { return b.value }

func (b *base) Gradient() *v3.Matrix { return b.grad }

func (b *base) Difference(target float64) float64 { return b.value - target }

func checkInput(positions *v3.Matrix, masses []float64, natoms int, caller string) error {
	if positions == nil || positions.NVecs() != natoms {
		return Error{fmt.Sprintf("positions don't have %d vectors", natoms), []string{caller}, true}
	}
	if masses != nil && len(masses) != natoms {
		return Error{fmt.Sprintf("%d masses for %d atoms", len(masses), natoms), []string{caller}, true}
	}
	return nil
}

//center returns the center of mass of the atoms in group, and the total mass.
//nil masses give the geometric center.
func center(positions *v3.Matrix, masses []float64, group []int) ([3]float64, float64, error) {
	var c [3]float64
	total := 0.0
	for _, a := range group {
		m := 1.0
		if masses != nil {
			m = masses[a]
		}
		v := positions.Vec(a)
		for k := range c {
			c[k] += m * v[k]
		}
		total += m
	}
	if !(total > 0) {
		return c, 0, Error{"the atom group has no mass", []string{"center"}, true}
	}
	for k := range c {
		c[k] /= total
	}
	return c, total, nil
}

func weight(masses []float64, a int, total float64) float64 {
	if masses == nil {
		return 1 / total
	}
	return masses[a] / total
}

//Distance is the distance between the centers of mass of two groups of atoms.
type Distance struct {
	base
	a, b []int
}

//NewDistance returns a distance between the groups a and b in a system of natoms atoms.
func NewDistance(a, b []int, natoms int) *Distance {
	return &Distance{
		base: base{grad: v3.Zeros(natoms)},
		a:    append([]int(nil), a...),
		b:    append([]int(nil), b...),
	}
}

//Evaluate recomputes the distance and its gradient. When both centers coincide,
//the gradient is set to zero.
func (D *Distance) Evaluate(positions *v3.Matrix, masses []float64) error {
	if err := checkInput(positions, masses, D.grad.NVecs(), "Distance.Evaluate"); err != nil {
		return err
	}
	ca, ma, err := center(positions, masses, D.a)
	if err != nil {
		return errDecorate(err, "Distance.Evaluate")
	}
	cb, mb, err := center(positions, masses, D.b)
	if err != nil {
		return errDecorate(err, "Distance.Evaluate")
	}
	var u [3]float64
	d := 0.0
	for k := range u {
		u[k] = cb[k] - ca[k]
		d += u[k] * u[k]
	}
	d = math.Sqrt(d)
	D.value = d
	D.grad.Zero()
	if d == 0 {
		return nil
	}
	for k := range u {
		u[k] /= d
	}
	for _, i := range D.a {
		D.grad.AddScaledVec(i, -weight(masses, i, ma), u)
	}
	for _, i := range D.b {
		D.grad.AddScaledVec(i, weight(masses, i, mb), u)
	}
	return nil
}

//Coordinate is one Cartesian component of the center of mass of a group of atoms.
type Coordinate struct {
	base
	group []int
	axis  int
}

//NewCoordinate returns the axis component (0 for x, 1 for y, 2 for z) of the
//center of mass of group, in a system of natoms atoms.
func NewCoordinate(group []int, axis, natoms int) *Coordinate {
	if axis < 0 || axis > 2 {
		panic(PanicMsg(fmt.Sprintf("goABF/cv.NewCoordinate: wrong axis %d", axis)))
	}
	return &Coordinate{
		base:  base{grad: v3.Zeros(natoms)},
		group: append([]int(nil), group...),
		axis:  axis,
	}
}

//Evaluate recomputes the coordinate. Its gradient only depends on the masses.
func (C *Coordinate) Evaluate(positions *v3.Matrix, masses []float64) error {
	if err := checkInput(positions, masses, C.grad.NVecs(), "Coordinate.Evaluate"); err != nil {
		return err
	}
	c, m, err := center(positions, masses, C.group)
	if err != nil {
		return errDecorate(err, "Coordinate.Evaluate")
	}
	C.value = c[C.axis]
	C.grad.Zero()
	var e [3]float64
	e[C.axis] = 1
	for _, i := range C.group {
		C.grad.AddScaledVec(i, weight(masses, i, m), e)
	}
	return nil
}

//Torsion is the dihedral angle defined by four atoms, in radians, in (-Pi, Pi].
type Torsion struct {
	base
	atoms [4]int
}

//NewTorsion returns the dihedral of the given atoms in a system of natoms atoms.
func NewTorsion(atoms [4]int, natoms int) *Torsion {
	return &Torsion{base: base{grad: v3.Zeros(natoms)}, atoms: atoms}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

//Evaluate recomputes the dihedral and its gradient, following Blondel and
//Karplus, J. Comput. Chem. 17, 1132 (1996). The masses are not used.
//It returns an error if three of the atoms are collinear.
func (T *Torsion) Evaluate(positions *v3.Matrix, masses []float64) error {
	if err := checkInput(positions, masses, T.grad.NVecs(), "Torsion.Evaluate"); err != nil {
		return err
	}
	r1 := positions.Vec(T.atoms[0])
	r2 := positions.Vec(T.atoms[1])
	r3 := positions.Vec(T.atoms[2])
	r4 := positions.Vec(T.atoms[3])
	F := sub(r1, r2)
	G := sub(r2, r3)
	H := sub(r4, r3)
	A := cross(F, G)
	B := cross(H, G)
	a2 := dot(A, A)
	b2 := dot(B, B)
	g := math.Sqrt(dot(G, G))
	if a2 == 0 || b2 == 0 || g == 0 {
		return Error{"collinear atoms, the dihedral is not defined", []string{"Torsion.Evaluate"}, true}
	}
	T.value = math.Atan2(dot(cross(B, A), G)/g, dot(A, B))
	fg := dot(F, G) / (a2 * g)
	hg := dot(H, G) / (b2 * g)
	T.grad.Zero()
	T.grad.AddScaledVec(T.atoms[0], -g/a2, A)
	T.grad.AddScaledVec(T.atoms[3], g/b2, B)
	T.grad.AddScaledVec(T.atoms[1], g/a2+fg, A)
	T.grad.AddScaledVec(T.atoms[1], -hg, B)
	T.grad.AddScaledVec(T.atoms[2], -g/b2+hg, B)
	T.grad.AddScaledVec(T.atoms[2], -fg, A)
	return nil
}

//Difference returns the value minus target, taken to (-Pi, Pi].
func (T *Torsion) Difference(target float64) float64 {
	d := math.Remainder(T.value-target, 2*math.Pi)
	if d == -math.Pi {
		d = math.Pi
	}
	return d
}

//Periodicity returns the bounds of the period of the torsion.
func (T *Torsion) Periodicity() (lower, upper float64) {
	return -math.Pi, math.Pi
}

//Errors

//Error is the error type for this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return "goABF/cv: " + err.message
}

//Decorate adds dec to the decoration slice of the error, and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}

//PanicMsg is used for panics caused by wrong use of the API.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
