/*
 * local.go, part of goABF
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

package comm

import (
	"fmt"
	"sync"
)

type opKind int

const (
	opFloat opKind = iota
	opInt
)

func (o opKind) String() string {
	if o == opInt {
		return "AllReduceSumInt"
	}
	return "AllReduceSum"
}

//round holds the contributions of all the members to one reduction.
//Once complete, a round is never modified again.
type round struct {
	kind    opKind
	n       int
	floats  [][]float64
	ints    [][]int
	arrived int
	fsum    []float64
	isum    []int
	err     error
	done    chan struct{}
}

//hub is shared by all the members of a Local group.
type hub struct {
	mu     sync.Mutex
	size   int
	cur    *round
	closed error
}

//Member is one participant of an in-process group. Each member is meant to be
//used by exactly one goroutine (one walker, or one domain of a walker).
type Member struct {
	h    *hub
	rank int
}

//NewLocal returns the n members of a new in-process group.
func NewLocal(n int) []*Member {
	if n < 1 {
		panic(PanicMsg(fmt.Sprintf("goABF/comm.NewLocal: can't build a group with %d members", n)))
	}
	h := &hub{size: n}
	ret := make([]*Member, n)
	for i := range ret {
		ret[i] = &Member{h: h, rank: i}
	}
	return ret
}

func (M *Member) Rank() int { return M.rank }

func (M *Member) Size() int { return M.h.size }

//Close releases all the members blocked in a reduction, which return an error
//wrapping ErrClosed (and err, if not nil). All later reductions fail the same way.
func (M *Member) Close(err error) {
	h := M.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed != nil {
		return
	}
	msg := "closed"
	if err != nil {
		msg = err.Error()
	}
	h.closed = Error{msg, []string{"Member.Close"}, ErrClosed}
	if h.cur != nil {
		h.cur.err = h.closed
		close(h.cur.done)
		h.cur = nil
	}
}

func (M *Member) AllReduceSum(dst, src []float64) error {
	if len(dst) != len(src) {
		return Error{fmt.Sprintf("buffers of length %d and %d", len(dst), len(src)), []string{"Member.AllReduceSum"}, ErrBufferMismatch}
	}
	c := make([]float64, len(src))
	copy(c, src)
	r, err := M.h.join(M.rank, opFloat, len(src), c, nil)
	if err != nil {
		return err
	}
	copy(dst, r.fsum)
	return nil
}

func (M *Member) AllReduceSumInt(dst, src []int) error {
	if len(dst) != len(src) {
		return Error{fmt.Sprintf("buffers of length %d and %d", len(dst), len(src)), []string{"Member.AllReduceSumInt"}, ErrBufferMismatch}
	}
	c := make([]int, len(src))
	copy(c, src)
	r, err := M.h.join(M.rank, opInt, len(src), nil, c)
	if err != nil {
		return err
	}
	copy(dst, r.isum)
	return nil
}

//join adds the contribution of rank to the current round, and blocks until
//all the members have contributed.
func (h *hub) join(rank int, kind opKind, n int, f []float64, i []int) (*round, error) {
	h.mu.Lock()
	if h.closed != nil {
		h.mu.Unlock()
		return nil, h.closed
	}
	r := h.cur
	if r == nil {
		r = &round{
			kind:   kind,
			n:      n,
			floats: make([][]float64, h.size),
			ints:   make([][]int, h.size),
			done:   make(chan struct{}),
		}
		h.cur = r
	}
	if r.kind != kind || r.n != n {
		r.err = Error{fmt.Sprintf("rank %d called %s with %d elements, round is %s with %d", rank, kind, n, r.kind, r.n), []string{"hub.join"}, ErrBufferMismatch}
	}
	r.floats[rank] = f
	r.ints[rank] = i
	r.arrived++
	if r.arrived == h.size {
		r.finish()
		h.cur = nil
		close(r.done)
		h.mu.Unlock()
		return r, r.err
	}
	h.mu.Unlock()
	<-r.done
	return r, r.err
}

//finish sums the contributions in rank order, so all the members get the
//same bits regardless of the order in which they arrived.
func (r *round) finish() {
	if r.err != nil {
		return
	}
	switch r.kind {
	case opFloat:
		r.fsum = make([]float64, r.n)
		for _, c := range r.floats {
			for k, v := range c {
				r.fsum[k] += v
			}
		}
	case opInt:
		r.isum = make([]int, r.n)
		for _, c := range r.ints {
			for k, v := range c {
				r.isum[k] += v
			}
		}
	}
}

//PanicMsg is used for panics caused by wrong use of the API.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
