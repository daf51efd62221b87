/*
 * interfaces.go, part of goABF
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
	"github.com/rmera/goabf/comm"
	v3 "github.com/rmera/goabf/v3"
)

//CV is the read-only view of a collective variable that the methods need at
//each step. The simulation driver owns and updates the CVs; methods never
//change them.
type CV interface {
	//The current value of the collective variable.
	Value() float64

	//Gradient of the CV with respect to the position of each atom,
	//one row per atom.
	Gradient() *v3.Matrix

	//Difference returns the signed difference between the current value
	//and target, taking into account any periodicity of the CV.
	Difference(target float64) float64
}

//Snapshot is the state of one process of one walker at the current step.
type Snapshot interface {
	NumAtoms() int

	Positions() *v3.Matrix

	Velocities() *v3.Matrix

	//Forces returns the force buffer of the simulation. Methods add their
	//bias to it.
	Forces() *v3.Matrix

	Masses() []float64

	Iteration() int

	//WalkerID identifies the replica the process belongs to.
	WalkerID() int

	//Comm is the group of processes that share this walker.
	Comm() comm.Group

	//World is the group of all the processes of all the walkers.
	World() comm.Group
}

//Method is a sampling method that hooks into the simulation. Init is called
//once before the first step, Step after each integration step, and Finalize
//once at the end. All the processes of all the walkers must call the hooks in
//lockstep, since the methods perform collective reductions.
type Method interface {
	Init(s Snapshot, cvs []CV) error
	Step(s Snapshot, cvs []CV) error
	Finalize(s Snapshot, cvs []CV) error
}
