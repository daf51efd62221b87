/*
 * grid.go, part of goABF
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

package histo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//Dimension describes the discretization of one collective variable.
type Dimension struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Bins  int     `json:"bins"`
}

//Width returns the width of one bin along the dimension.
func (d Dimension) Width() float64 {
	return (d.Upper - d.Lower) / float64(d.Bins)
}

func (d Dimension) check() error {
	if d.Bins < 1 {
		return fmt.Errorf("bin count %d < 1", d.Bins)
	}
	if math.IsNaN(d.Lower) || math.IsNaN(d.Upper) || math.IsInf(d.Lower, 0) || math.IsInf(d.Upper, 0) {
		return fmt.Errorf("non-finite bounds [%v, %v]", d.Lower, d.Upper)
	}
	if d.Lower >= d.Upper {
		return fmt.Errorf("lower bound %v >= upper bound %v", d.Lower, d.Upper)
	}
	return nil
}

//Grid is a multidimensional histogram grid, one Dimension per collective
//variable. Bins are flattened in mixed-radix order, the first dimension being
//the most significant one. A Grid doesn't change after creation.
type Grid struct {
	dims     []Dimension
	dividers [][]float64
	strides  []int
	total    int
}

//NewGrid returns a grid with the given dimensions. It returns a critical error if no
//dimension is given, or if any dimension has less than one bin or an empty range.
func NewGrid(dims ...Dimension) (*Grid, error) {
	if len(dims) == 0 {
		return nil, Error{"no dimensions given for the grid", []string{"NewGrid"}, true}
	}
	G := &Grid{
		dims:     make([]Dimension, len(dims)),
		dividers: make([][]float64, len(dims)),
		strides:  make([]int, len(dims)),
		total:    1,
	}
	copy(G.dims, dims)
	for i, d := range dims {
		if err := d.check(); err != nil {
			return nil, Error{fmt.Sprintf("dimension %d: %s", i, err.Error()), []string{"NewGrid"}, true}
		}
		//same as the dividers of a Data histogram.
		div := floats.Span(make([]float64, d.Bins+1), d.Lower, d.Upper)
		div[0] = d.Lower
		div[d.Bins] = d.Upper
		G.dividers[i] = div
		G.total *= d.Bins
	}
	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		G.strides[i] = stride
		stride *= dims[i].Bins
	}
	return G, nil
}

//NDims returns the number of dimensions of the grid.
func (G *Grid) NDims() int {
	return len(G.dims)
}

//Len returns the total number of bins in the grid.
func (G *Grid) Len() int {
	return G.total
}

//Shape returns the number of bins along each dimension.
func (G *Grid) Shape() []int {
	s := make([]int, len(G.dims))
	for i, d := range G.dims {
		s[i] = d.Bins
	}
	return s
}

//Dims returns a copy of the dimensions of the grid.
func (G *Grid) Dims() []Dimension {
	d := make([]Dimension, len(G.dims))
	copy(d, G.dims)
	return d
}

//Width returns the bin width along dimension dim.
func (G *Grid) Width(dim int) float64 {
	return G.dims[dim].Width()
}

//coord returns the bin of value v along dimension i, or -1 if v is
//out of range. Bins are half-open, [lower edge, upper edge), except the
//last one, which also contains the upper bound of the dimension.
func (G *Grid) coord(i int, v float64) int {
	d := G.dims[i]
	if !(v >= d.Lower && v <= d.Upper) {
		return -1 //also takes care of NaNs
	}
	div := G.dividers[i]
	j := sort.SearchFloat64s(div, v)
	if j < len(div) && div[j] == v {
		if j == d.Bins {
			return d.Bins - 1
		}
		return j
	}
	return j - 1
}

//Index returns the flat index of the bin containing point, or -1 if any of
//the coordinates of point lies outside the grid. It panics if point doesn't
//have one element per dimension.
func (G *Grid) Index(point []float64) int {
	if len(point) != len(G.dims) {
		panic(PanicMsg(fmt.Sprintf("goABF/histo.Grid.Index: point with %d coordinates for a %d-dimensional grid", len(point), len(G.dims))))
	}
	//All dimensions are checked before any coordinate is assigned.
	for i, v := range point {
		d := G.dims[i]
		if !(v >= d.Lower && v <= d.Upper) {
			return -1
		}
	}
	index := 0
	for i, v := range point {
		index += G.coord(i, v) * G.strides[i]
	}
	return index
}

//Flatten combines per-dimension bin coordinates into a flat index. It
//returns -1 if any coordinate is out of range.
func (G *Grid) Flatten(coords []int) int {
	if len(coords) != len(G.dims) {
		panic(PanicMsg("goABF/histo.Grid.Flatten: wrong number of coordinates"))
	}
	index := 0
	for i, c := range coords {
		if c < 0 || c >= G.dims[i].Bins {
			return -1
		}
		index += c * G.strides[i]
	}
	return index
}

//Coords decodes the flat index into per-dimension bin coordinates, which are
//put in dst if it has the right length, or in a new slice otherwise.
func (G *Grid) Coords(index int, dst []int) []int {
	if index < 0 || index >= G.total {
		panic(PanicMsg(fmt.Sprintf("goABF/histo.Grid.Coords: index %d out of range [0,%d)", index, G.total)))
	}
	if len(dst) != len(G.dims) {
		dst = make([]int, len(G.dims))
	}
	for i, s := range G.strides {
		dst[i] = index / s
		index = index % s
	}
	return dst
}

//Center returns the coordinates of the center of the bin with the given flat index.
func (G *Grid) Center(index int, dst []float64) []float64 {
	coords := G.Coords(index, nil)
	if len(dst) != len(G.dims) {
		dst = make([]float64, len(G.dims))
	}
	for i, c := range coords {
		d := G.dims[i]
		dst[i] = (float64(c)+0.5)*d.Width() + d.Lower
	}
	return dst
}

//String returns the shape of the grid, as in "3 by 5".
func (G *Grid) String() string {
	s := make([]string, len(G.dims))
	for i, d := range G.dims {
		s[i] = fmt.Sprintf("%d", d.Bins)
	}
	return strings.Join(s, " by ")
}

func (G *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Dims []Dimension `json:"dims"`
	}{G.dims})
}

func (G *Grid) UnmarshalJSON(b []byte) error {
	var a struct {
		Dims []Dimension `json:"dims"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	g, err := NewGrid(a.Dims...)
	if err != nil {
		return err
	}
	*G = *g
	return nil
}

//Equal returns true if both grids have the same dimensions.
func (G *Grid) Equal(O *Grid) bool {
	if G == nil || O == nil || len(G.dims) != len(O.dims) {
		return false
	}
	for i, d := range G.dims {
		if d != O.dims[i] {
			return false
		}
	}
	return true
}

//Errors

//ErrInvalidGrid is the kind of all the configuration errors returned by this package.
var ErrInvalidGrid = errors.New("invalid histogram grid")

//Error is the error type for this package. It fullfills abf.Error
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return "goABF/histo: " + err.message
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

func (err Error) Unwrap() error { return ErrInvalidGrid }

//PanicMsg is used for panics caused by wrong use of the API.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }
