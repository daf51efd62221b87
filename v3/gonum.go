/*
 * gonum.go, part of goABF
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

package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space. Each row is one vector, i.e. the
//cartesian components of the quantity for one atom.
type Matrix struct {
	*mat.Dense
}

//NewMatrix generates and returns a Matrix with 3 columns from data.
//data is not copied.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice lenght %d not divisible by %d or empty", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	if vecs <= 0 {
		panic(PanicMsg("v3.Zeros: at least one vector is needed"))
	}
	return &Matrix{mat.NewDense(vecs, cols, make([]float64, cols*vecs))}
}

//NVecs returns the number of vectors (rows) in the matrix.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns a view of the ith vector of the matrix.
//Changes in the view are reflected in F and vice-versa.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//Vec returns a copy of the ith vector as an array.
func (F *Matrix) Vec(i int) [3]float64 {
	return [3]float64{F.At(i, 0), F.At(i, 1), F.At(i, 2)}
}

//SetVec sets the ith vector of the matrix to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	F.Set(i, 0, v[0])
	F.Set(i, 1, v[1])
	F.Set(i, 2, v[2])
}

//AddScaledVec adds alpha*v to the ith vector of the receiver.
func (F *Matrix) AddScaledVec(i int, alpha float64, v [3]float64) {
	for k := 0; k < 3; k++ {
		F.Set(i, k, F.At(i, k)+alpha*v[k])
	}
}

//Flatten copies the matrix into a 3N slice, vector after vector
//(x0,y0,z0,x1,y1,z1...). If dst has the right length it is used,
//otherwise, a new slice is allocated.
func (F *Matrix) Flatten(dst []float64) []float64 {
	n := F.NVecs()
	if len(dst) != 3*n {
		dst = make([]float64, 3*n)
	}
	for i := 0; i < n; i++ {
		dst[3*i] = F.At(i, 0)
		dst[3*i+1] = F.At(i, 1)
		dst[3*i+2] = F.At(i, 2)
	}
	return dst
}

//ScaleByCol puts on the receiver the matrix A with each of its vectors
//multiplied by the corresponding element of col (for instance, velocities
//times masses gives momenta).
func (F *Matrix) ScaleByCol(A *Matrix, col []float64) {
	ar := A.NVecs()
	if ar != len(col) || ar != F.NVecs() {
		panic(ErrShape)
	}
	for i := 0; i < ar; i++ {
		for k := 0; k < 3; k++ {
			F.Set(i, k, A.At(i, k)*col[i])
		}
	}
}

//String returns a human readable representation of the matrix,
//one vector per line.
func (F *Matrix) String() string {
	if F == nil || F.Dense == nil {
		return "<nil>"
	}
	r, _ := F.Dims()
	v := make([]string, r)
	for i := 0; i < r; i++ {
		v[i] = fmt.Sprintf("%8.3f %8.3f %8.3f", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	return strings.Join(v, "\n")
}

//Errors

//Error is the general structure for v3 errors. It fullfills abf.Error
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("goABF/v3: A v3.Matrix should have 3 columns")
	ErrShape        = PanicMsg("goABF/v3: Dimension mismatch")
)
