/*
 * state.go, part of goABF
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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rmera/goabf/histo"
)

//State is the restartable state of an ABF run: the global force sums and sample
//counts on the grid at some iteration.
//History holds, for each process of the run in rank order, the projected momenta
//of the last two steps followed by the last mean force fed back to the estimator
//(3*NCV values per process). It may be empty.
type State struct {
	Iteration int         `json:"iteration"`
	NCV       int         `json:"ncv"`
	Grid      *histo.Grid `json:"grid"`
	Sum       []float64   `json:"sum"`
	Count     []int       `json:"count"`
	History   []float64   `json:"history,omitempty"`
}

//NewState returns the current global state of acc.
func NewState(iteration int, acc *Accumulator) *State {
	return &State{
		Iteration: iteration,
		NCV:       acc.NCV(),
		Grid:      acc.Grid(),
		Sum:       acc.GlobalSum(),
		Count:     acc.GlobalCount(),
	}
}

//Check returns an error if the state is not consistent with grid and ncv.
func (S *State) Check(grid *histo.Grid, ncv int) error {
	switch {
	case S.Grid == nil:
		return newError(ErrState, "State.Check", "no grid in the state", true)
	case !S.Grid.Equal(grid):
		return newError(ErrState, "State.Check", fmt.Sprintf("state grid %s differs from the run grid %s", S.Grid, grid), true)
	case S.NCV != ncv:
		return newError(ErrState, "State.Check", fmt.Sprintf("state for %d CVs, run with %d", S.NCV, ncv), true)
	case len(S.Sum) != grid.Len()*ncv || len(S.Count) != grid.Len():
		return newError(ErrState, "State.Check", fmt.Sprintf("arrays of lengths %d and %d for %d bins", len(S.Sum), len(S.Count), grid.Len()), true)
	}
	if len(S.History)%(3*ncv) != 0 {
		return newError(ErrState, "State.Check", fmt.Sprintf("history of length %d for %d CVs", len(S.History), ncv), true)
	}
	for i, c := range S.Count {
		if c < 0 {
			return newError(ErrState, "State.Check", fmt.Sprintf("negative count on bin %d", i), true)
		}
	}
	return nil
}

//Processes returns the number of processes with a history in the state.
func (S *State) Processes() int {
	if S.NCV < 1 {
		return 0
	}
	return len(S.History) / (3 * S.NCV)
}

//ProcessHistory returns the projected momenta of the last two steps and the
//last mean force of the process with the given rank.
func (S *State) ProcessHistory(rank int) (prev1, prev2, fold []float64, err error) {
	if rank < 0 || rank >= S.Processes() {
		return nil, nil, nil, newError(ErrState, "State.ProcessHistory", fmt.Sprintf("no history for rank %d, the state has %d", rank, S.Processes()), true)
	}
	h := S.History[3*S.NCV*rank : 3*S.NCV*(rank+1)]
	return h[:S.NCV], h[S.NCV : 2*S.NCV], h[2*S.NCV:], nil
}

//Encode writes the state as JSON to w.
func (S *State) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(S); err != nil {
		return wrapError(ErrOutput, "State.Encode", "can't encode the state", err)
	}
	return nil
}

//WriteState writes the state to the file name. The state is first written to a
//temporary file in the same directory, which then replaces name, so a crash never
//leaves a truncated state behind.
func WriteState(name string, S *State) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), filepath.Base(name)+".tmp*")
	if err != nil {
		return wrapError(ErrOutput, "WriteState", "can't create a temporary file for "+name, err)
	}
	if err := S.Encode(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errDecorate(err, "WriteState")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return wrapError(ErrOutput, "WriteState", "closing "+tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), name); err != nil {
		os.Remove(tmp.Name())
		return wrapError(ErrOutput, "WriteState", "can't replace "+name, err)
	}
	return nil
}

//ReadState decodes a state from r.
func ReadState(r io.Reader) (*State, error) {
	S := new(State)
	if err := json.NewDecoder(r).Decode(S); err != nil {
		return nil, wrapError(ErrState, "ReadState", "can't decode the state", err)
	}
	return S, nil
}

//LoadState reads the state in the file name.
func LoadState(name string) (*State, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, wrapError(ErrState, "LoadState", "can't open "+name, err)
	}
	defer f.Close()
	S, err := ReadState(f)
	return S, errDecorate(err, "LoadState")
}
