/*
 * accumulator_test.go, part of goABF
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
	"sync"
	"testing"

	"github.com/rmera/goabf/comm"
	"github.com/rmera/goabf/histo"
	"golang.org/x/sync/errgroup"
)

func testGrid(Te *testing.T, dims ...histo.Dimension) *histo.Grid {
	g, err := histo.NewGrid(dims...)
	if err != nil {
		Te.Fatal(err)
	}
	return g
}

func TestAccumulatorSingle(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: 0, Upper: 10, Bins: 5})
	A := NewAccumulator(g, 1, 4, comm.Self{})
	for i := 0; i < 2; i++ {
		if err := A.Observe(2, []float64{3}); err != nil {
			Te.Fatal(err)
		}
	}
	//2 samples, floor 4.
	if f := A.Fold()[0]; math.Abs(f-1.5) > 1e-12 {
		Te.Errorf("mean force with floor 4 should be 6/4, got %v", f)
	}
	for i := 0; i < 6; i++ {
		A.Observe(2, []float64{3})
	}
	if f := A.Fold()[0]; math.Abs(f-3) > 1e-12 {
		Te.Errorf("mean force over 8 samples should be 3, got %v", f)
	}
	//out of range: nothing changes and the fold is kept
	if err := A.Observe(-1, []float64{100}); err != nil {
		Te.Fatal(err)
	}
	if A.Fold()[0] != 3 || A.TotalSamples() != 8 {
		Te.Errorf("an out of range sample changed the accumulator: fold %v samples %d", A.Fold(), A.TotalSamples())
	}
	ls, gs := A.LocalSum(), A.GlobalSum()
	for i := range ls {
		if ls[i] != gs[i] {
			Te.Errorf("bin %d: with one process, local and global sums should match: %v %v", i, ls[i], gs[i])
		}
	}
	if err := A.Observe(5, []float64{1}); !errors.Is(err, ErrDimension) {
		Te.Errorf("bin 5 of 5 should be a dimension error, got %v", err)
	}
	if err := A.Observe(0, []float64{1, 2}); !errors.Is(err, ErrDimension) {
		Te.Errorf("2 components for 1 CV should be a dimension error, got %v", err)
	}
}

//Several walkers reduce their counts every step. The global count equals the
//number of in-range samples of all the walkers, and all of them see the same arrays.
func TestAccumulatorWalkers(Te *testing.T) {
	const walkers, steps = 3, 40
	g := testGrid(Te, histo.Dimension{Lower: 0, Upper: 6, Bins: 3}, histo.Dimension{Lower: 0, Upper: 1, Bins: 2})
	members := comm.NewLocal(walkers)
	bin := func(w, t int) int {
		return (w*7+t)%(g.Len()+1) - 1
	}
	expected := make([]int, g.Len())
	expectedSum := make([]float64, 2*g.Len())
	for w := 0; w < walkers; w++ {
		for t := 0; t < steps; t++ {
			if b := bin(w, t); b >= 0 {
				expected[b]++
				expectedSum[2*b] += float64(w + 1)
				expectedSum[2*b+1] -= float64(t)
			}
		}
	}
	accs := make([]*Accumulator, walkers)
	var mu sync.Mutex
	var eg errgroup.Group
	for w := 0; w < walkers; w++ {
		w := w
		eg.Go(func() error {
			A := NewAccumulator(g, 2, 1, members[w])
			for t := 0; t < steps; t++ {
				if err := A.Observe(bin(w, t), []float64{float64(w + 1), -float64(t)}); err != nil {
					members[w].Close(err)
					return err
				}
			}
			mu.Lock()
			accs[w] = A
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		Te.Fatal(err)
	}
	for w, A := range accs {
		if A.TotalSamples() != walkers*steps-countOut(walkers, steps, bin) {
			Te.Errorf("walker %d: %d samples in the global arrays", w, A.TotalSamples())
		}
		gc := A.GlobalCount()
		gs := A.GlobalSum()
		for b := range expected {
			if gc[b] != expected[b] {
				Te.Errorf("walker %d bin %d: %d samples expected, got %d", w, b, expected[b], gc[b])
			}
		}
		for i := range expectedSum {
			if math.Abs(gs[i]-expectedSum[i]) > 1e-9 {
				Te.Errorf("walker %d element %d: sum %v expected, got %v", w, i, expectedSum[i], gs[i])
			}
		}
	}
}

func countOut(walkers, steps int, bin func(w, t int) int) int {
	n := 0
	for w := 0; w < walkers; w++ {
		for t := 0; t < steps; t++ {
			if bin(w, t) < 0 {
				n++
			}
		}
	}
	return n
}

//Two processes share one walker; only the leader adds the sample.
func TestAccumulatorLeader(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: 0, Upper: 1, Bins: 2})
	members := comm.NewLocal(2)
	counts := make([][]int, 2)
	var eg errgroup.Group
	for r := 0; r < 2; r++ {
		r := r
		eg.Go(func() error {
			A := NewAccumulator(g, 1, 1, members[r])
			A.SetLeader(r == 0)
			for t := 0; t < 10; t++ {
				if err := A.Observe(1, []float64{2}); err != nil {
					members[r].Close(err)
					return err
				}
			}
			counts[r] = A.GlobalCount()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		Te.Fatal(err)
	}
	for r, c := range counts {
		if c[1] != 10 || c[0] != 0 {
			Te.Errorf("rank %d: counts %v, expected [0 10]", r, c)
		}
	}
}

func TestAccumulatorPreload(Te *testing.T) {
	g := testGrid(Te, histo.Dimension{Lower: 0, Upper: 1, Bins: 2})
	A := NewAccumulator(g, 1, 1, comm.Self{})
	if err := A.Preload([]float64{1}, []int{1, 2}); !errors.Is(err, ErrState) {
		Te.Errorf("wrong sized baseline should be a state error, got %v", err)
	}
	if err := A.Preload([]float64{10, 20}, []int{5, 10}); err != nil {
		Te.Fatal(err)
	}
	A.Observe(1, []float64{2})
	A.Observe(1, []float64{2})
	if c := A.GlobalCount(); c[0] != 5 || c[1] != 12 {
		Te.Errorf("counts with the baseline should be [5 12], got %v", c)
	}
	if f := A.Fold()[0]; math.Abs(f-24.0/12.0) > 1e-12 {
		Te.Errorf("mean force should be 2, got %v", f)
	}
	if c := A.LocalCount(); c[1] != 2 {
		Te.Errorf("the baseline should not enter the local arrays, got %v", c)
	}
}
