/*
 * snap.go, part of goABF
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

//Package snap contains a simple container for the state of one process of a
//walker, which fulfills the abf.Snapshot interface.
package snap

import (
	"fmt"

	"github.com/rmera/goabf/comm"
	v3 "github.com/rmera/goabf/v3"
)

//Snapshot holds the positions, velocities, forces and masses of the atoms
//of one process of a walker, together with its groups.
type Snapshot struct {
	Pos    *v3.Matrix
	Vel    *v3.Matrix
	Force  *v3.Matrix
	Mass   []float64
	Iter   int
	walker int
	comm   comm.Group
	world  comm.Group
}

//New returns a snapshot with natoms atoms, all the coordinates at zero and all
//masses set to 1. A nil group is replaced by comm.Self.
func New(natoms, walker int, intra, world comm.Group) *Snapshot {
	if natoms < 1 {
		panic(PanicMsg(fmt.Sprintf("goABF/snap.New: can't have %d atoms", natoms)))
	}
	if intra == nil {
		intra = comm.Self{}
	}
	if world == nil {
		world = comm.Self{}
	}
	m := make([]float64, natoms)
	for i := range m {
		m[i] = 1
	}
	return &Snapshot{
		Pos:    v3.Zeros(natoms),
		Vel:    v3.Zeros(natoms),
		Force:  v3.Zeros(natoms),
		Mass:   m,
		walker: walker,
		comm:   intra,
		world:  world,
	}
}

func (S *Snapshot) NumAtoms() int          { return len(S.Mass) }
func (S *Snapshot) Positions() *v3.Matrix  { return S.Pos }
func (S *Snapshot) Velocities() *v3.Matrix { return S.Vel }
func (S *Snapshot) Forces() *v3.Matrix     { return S.Force }
func (S *Snapshot) Masses() []float64      { return S.Mass }
func (S *Snapshot) Iteration() int         { return S.Iter }
func (S *Snapshot) WalkerID() int          { return S.walker }
func (S *Snapshot) Comm() comm.Group       { return S.comm }
func (S *Snapshot) World() comm.Group      { return S.world }

//SetIteration sets the iteration number of the snapshot.
func (S *Snapshot) SetIteration(i int) {
	S.Iter = i
}

//ZeroForces sets all the forces to zero, as the driver does before each
//force evaluation.
func (S *Snapshot) ZeroForces() {
	S.Force.Zero()
}

//SetMasses copies m into the masses of the snapshot.
func (S *Snapshot) SetMasses(m []float64) error {
	if len(m) != len(S.Mass) {
		return Error{fmt.Sprintf("%d masses for %d atoms", len(m), len(S.Mass)), []string{"SetMasses"}, true}
	}
	copy(S.Mass, m)
	return nil
}

//Error is the error type for this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return "goABF/snap: " + err.message
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
