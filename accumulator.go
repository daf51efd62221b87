/*
 * accumulator.go, part of goABF
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

	"github.com/rmera/goabf/comm"
	"github.com/rmera/goabf/histo"
)

//Accumulator holds the running sums of the generalized force and the sample
//counts on each bin of the grid. The local arrays contain the contributions of
//this process; the global ones, the sum over all the processes of the run,
//obtained by a collective reduction on every call to Observe.
type Accumulator struct {
	grid  *histo.Grid
	ncv   int
	floor int
	world comm.Group
	//Only the leader of a walker contributes samples.
	leader bool

	sum    []float64 //bin-major, ncv elements per bin
	count  []int
	gsum   []float64
	gcount []int

	//baseline from a previous run, nil if none.
	bsum   []float64
	bcount []int

	fold []float64
}

//NewAccumulator returns an empty accumulator for ncv CVs on grid. floor is the minimum
//denominator used to compute mean forces. Reductions are performed on world.
func NewAccumulator(grid *histo.Grid, ncv, floor int, world comm.Group) *Accumulator {
	if grid.NDims() != ncv {
		panic(PanicMsg(fmt.Sprintf("goABF.NewAccumulator: %d-dimensional grid for %d CVs", grid.NDims(), ncv)))
	}
	if floor < 1 {
		floor = 1
	}
	nel := grid.Len()
	return &Accumulator{
		grid:   grid,
		ncv:    ncv,
		floor:  floor,
		world:  world,
		leader: true,
		sum:    make([]float64, nel*ncv),
		count:  make([]int, nel),
		gsum:   make([]float64, nel*ncv),
		gcount: make([]int, nel),
		fold:   make([]float64, ncv),
	}
}

//SetLeader sets whether this process adds its observations to the local
//arrays. In a walker spread over several processes, all of them obtain the same
//observation, so only one of them should add it. A follower still takes part
//in all the reductions.
func (A *Accumulator) SetLeader(leader bool) {
	A.leader = leader
}

//Grid returns the grid of the accumulator.
func (A *Accumulator) Grid() *histo.Grid {
	return A.grid
}

//NCV returns the number of force components per bin.
func (A *Accumulator) NCV() int {
	return A.ncv
}

//Floor returns the minimum denominator used for mean forces.
func (A *Accumulator) Floor() int {
	return A.floor
}

//Preload installs the global arrays of a previous run as a baseline, added to
//the global arrays after every reduction. The baseline is not reduced, so all
//the processes should preload the same arrays.
func (A *Accumulator) Preload(sum []float64, count []int) error {
	if len(sum) != len(A.sum) || len(count) != len(A.count) {
		return newError(ErrState, "Accumulator.Preload", fmt.Sprintf("arrays of lengths %d and %d for %d bins and %d CVs", len(sum), len(count), len(A.count), A.ncv), true)
	}
	A.bsum = make([]float64, len(sum))
	A.bcount = make([]int, len(count))
	copy(A.bsum, sum)
	copy(A.bcount, count)
	A.addBaseline()
	return nil
}

func (A *Accumulator) addBaseline() {
	if A.bsum == nil {
		return
	}
	for i, v := range A.bsum {
		A.gsum[i] += v
	}
	for i, v := range A.bcount {
		A.gcount[i] += v
	}
}

//Observe folds the force estimated at bin into the local arrays (unless bin is -1),
//reduces the local arrays over all the processes of the run, and, if bin is valid,
//updates the force fed back to the estimator from the reduced arrays.
//Every process of the run must call Observe at every step, even when its own
//sample is out of the grid.
func (A *Accumulator) Observe(bin int, force []float64) error {
	if len(force) != A.ncv {
		return newError(ErrDimension, "Accumulator.Observe", fmt.Sprintf("force with %d components for %d CVs", len(force), A.ncv), true)
	}
	if bin < -1 || bin >= len(A.count) {
		return newError(ErrDimension, "Accumulator.Observe", fmt.Sprintf("bin %d out of the grid with %d bins", bin, len(A.count)), true)
	}
	if bin != -1 && A.leader {
		s := A.sum[bin*A.ncv : (bin+1)*A.ncv]
		for i, f := range force {
			s[i] += f
		}
		A.count[bin]++
	}
	if err := A.world.AllReduceSum(A.gsum, A.sum); err != nil {
		return wrapError(ErrComm, "Accumulator.Observe", "reducing the force sums", err)
	}
	if err := A.world.AllReduceSumInt(A.gcount, A.count); err != nil {
		return wrapError(ErrComm, "Accumulator.Observe", "reducing the sample counts", err)
	}
	A.addBaseline()
	if bin != -1 {
		A.Mean(bin, A.fold)
	}
	return nil
}

//Mean puts in dst (or in a new slice, if dst doesn't have ncv elements) the
//mean force on bin, from the global arrays.
func (A *Accumulator) Mean(bin int, dst []float64) []float64 {
	if len(dst) != A.ncv {
		dst = make([]float64, A.ncv)
	}
	n := A.gcount[bin]
	if n < A.floor {
		n = A.floor
	}
	for i := range dst {
		dst[i] = A.gsum[bin*A.ncv+i] / float64(n)
	}
	return dst
}

//Fold returns the mean force at the last valid bin observed. It is not reset when
//the walker leaves the grid. The slice should not be modified.
func (A *Accumulator) Fold() []float64 {
	return A.fold
}

//SetFold replaces the force fed back to the estimator, as when restarting a run.
func (A *Accumulator) SetFold(fold []float64) error {
	if len(fold) != A.ncv {
		return newError(ErrState, "Accumulator.SetFold", fmt.Sprintf("force with %d components for %d CVs", len(fold), A.ncv), true)
	}
	copy(A.fold, fold)
	return nil
}

//GlobalSum returns a copy of the reduced force sums.
func (A *Accumulator) GlobalSum() []float64 {
	return append([]float64(nil), A.gsum...)
}

//GlobalCount returns a copy of the reduced sample counts.
func (A *Accumulator) GlobalCount() []int {
	return append([]int(nil), A.gcount...)
}

//LocalSum returns a copy of the force sums of this process.
func (A *Accumulator) LocalSum() []float64 {
	return append([]float64(nil), A.sum...)
}

//LocalCount returns a copy of the sample counts of this process.
func (A *Accumulator) LocalCount() []int {
	return append([]int(nil), A.count...)
}

//TotalSamples returns the total number of samples in the global arrays.
func (A *Accumulator) TotalSamples() int {
	t := 0
	for _, v := range A.gcount {
		t += v
	}
	return t
}
