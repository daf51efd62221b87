/*
 * comm.go, part of goABF
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

//Package comm implements the collective reductions used by goABF to keep the
//processes of one replica, and the replicas of one run, in step.
//
//All the operations are synchronous and collective: every member of a group must
//issue the same reduction, with buffers of the same length, at the same logical
//step. A member that skips a call leaves the others blocked. There are no timeouts.
package comm

import (
	"errors"
	"fmt"
)

//Group is a set of cooperating processes that can sum-reduce buffers.
//After a reduction, every member holds the identical combined buffer.
type Group interface {
	//Rank of the caller in the group, from 0 to Size()-1
	Rank() int

	Size() int

	//AllReduceSum puts in dst the element-wise sum of the src buffers of all
	//the members. dst and src must have the same length and may be the same slice.
	AllReduceSum(dst, src []float64) error

	//AllReduceSumInt is AllReduceSum for integer buffers.
	AllReduceSumInt(dst, src []int) error
}

//Self is a group with only one member. Reductions are the identity.
type Self struct{}

func (Self) Rank() int { return 0 }

func (Self) Size() int { return 1 }

func (Self) AllReduceSum(dst, src []float64) error {
	if len(dst) != len(src) {
		return Error{fmt.Sprintf("buffers of length %d and %d", len(dst), len(src)), []string{"Self.AllReduceSum"}, ErrBufferMismatch}
	}
	copy(dst, src)
	return nil
}

func (Self) AllReduceSumInt(dst, src []int) error {
	if len(dst) != len(src) {
		return Error{fmt.Sprintf("buffers of length %d and %d", len(dst), len(src)), []string{"Self.AllReduceSumInt"}, ErrBufferMismatch}
	}
	copy(dst, src)
	return nil
}

//Errors

var (
	//ErrBufferMismatch means that the members of a group called a reduction with
	//buffers of different lengths, or different reductions in the same round.
	ErrBufferMismatch = errors.New("mismatched reduction buffers")

	//ErrClosed is returned by reductions on a group that was closed.
	ErrClosed = errors.New("group closed")
)

//Error is the error type for this package. Errors in collective operations are
//always critical, as the group can't be trusted to be in step afterwards.
type Error struct {
	message string
	deco    []string
	kind    error
}

func (err Error) Error() string {
	return fmt.Sprintf("goABF/comm: %s: %s", err.kind.Error(), err.message)
}

//Decorate adds dec to the decoration slice of the error, and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func (err Error) Critical() bool { return true }

func (err Error) Unwrap() error { return err.kind }
