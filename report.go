/*
 * report.go, part of goABF
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
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/rmera/goabf/histo"
)

//ReportWriter writes the force field report: a block per checkpoint, with a
//header and one row per bin, in flat index order. Each row contains the center
//of the bin along each dimension followed by the mean force along each CV.
type ReportWriter struct {
	f        *os.File
	z        io.WriteCloser //compressor, nil for plain text
	w        *bufio.Writer
	filename string
}

type flusher interface {
	Flush() error
}

//NewReportWriter creates (truncating if needed) the file name. The compression
//is chosen from the extension, .zst for z-standard, .gz for gzip, plain text otherwise.
func NewReportWriter(name string) (*ReportWriter, error) {
	R := &ReportWriter{filename: name}
	var err error
	R.f, err = os.Create(name)
	if err != nil {
		return nil, wrapError(ErrOutput, "NewReportWriter", "can't create the report "+name, err)
	}
	var dest io.Writer = R.f
	switch {
	case strings.HasSuffix(name, ".zst"):
		R.z, err = zstd.NewWriter(R.f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case strings.HasSuffix(name, ".gz"):
		R.z = gzip.NewWriter(R.f)
	}
	if err != nil {
		R.f.Close()
		return nil, wrapError(ErrOutput, "NewReportWriter", "can't set the compressor for "+name, err)
	}
	if R.z != nil {
		dest = R.z
	}
	R.w = bufio.NewWriter(dest)
	return R, nil
}

//Filename returns the name of the report file.
func (R *ReportWriter) Filename() string {
	return R.filename
}

//Write adds a block with the current global mean forces of acc to the report.
//The data is flushed to the file before returning.
func (R *ReportWriter) Write(iteration int, acc *Accumulator) error {
	if R == nil || R.w == nil {
		return newError(ErrOutput, "ReportWriter.Write", "report not open", true)
	}
	g := acc.Grid()
	fmt.Fprintf(R.w, "\nIteration: %d\n", iteration)
	fmt.Fprintln(R.w, "Printing out the current Adaptive Biasing Vector Field.")
	fmt.Fprintln(R.w, "First (Nr of CVs) columns are the coordinates, the next (Nr of CVs) columns are components of the Adaptive Force vector at that point.")
	fmt.Fprintf(R.w, "The columns are %d long, mapping out a surface of %s points in %d dimensions.\n\n", g.Len(), g.String(), g.NDims())
	center := make([]float64, g.NDims())
	mean := make([]float64, acc.NCV())
	fields := make([]string, 0, g.NDims()+acc.NCV())
	for i := 0; i < g.Len(); i++ {
		fields = fields[:0]
		center = g.Center(i, center)
		mean = acc.Mean(i, mean)
		for _, v := range center {
			fields = append(fields, strconv.FormatFloat(v, 'g', 10, 64))
		}
		for _, v := range mean {
			fields = append(fields, strconv.FormatFloat(v, 'g', 10, 64))
		}
		R.w.WriteString(strings.Join(fields, " "))
		R.w.WriteByte('\n')
	}
	R.w.WriteByte('\n')
	if err := R.w.Flush(); err != nil {
		return wrapError(ErrOutput, "ReportWriter.Write", "writing "+R.filename, err)
	}
	if fl, ok := R.z.(flusher); ok {
		if err := fl.Flush(); err != nil {
			return wrapError(ErrOutput, "ReportWriter.Write", "flushing "+R.filename, err)
		}
	}
	return nil
}

//Close flushes and closes the report.
func (R *ReportWriter) Close() error {
	if R == nil || R.f == nil {
		return nil
	}
	var err error
	if R.w != nil {
		err = R.w.Flush()
	}
	if R.z != nil {
		if e := R.z.Close(); err == nil {
			err = e
		}
	}
	if e := R.f.Close(); err == nil {
		err = e
	}
	R.f = nil
	R.w = nil
	if err != nil {
		return wrapError(ErrOutput, "ReportWriter.Close", "closing "+R.filename, err)
	}
	return nil
}

//ReportBlock is one checkpoint read back from a report.
type ReportBlock struct {
	Iteration int
	Shape     []int
	//Centers[i] and Forces[i] are the bin center and mean force for flat index i
	Centers [][]float64
	Forces  [][]float64
}

//OpenReport reads all the blocks in the report file name, decompressing it
//according to its extension.
func OpenReport(name string) ([]ReportBlock, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, wrapError(ErrOutput, "OpenReport", "can't open "+name, err)
	}
	defer f.Close()
	var r io.Reader = f
	switch {
	case strings.HasSuffix(name, ".zst"):
		d, err := zstd.NewReader(f)
		if err != nil {
			return nil, wrapError(ErrOutput, "OpenReport", "can't decompress "+name, err)
		}
		defer d.Close()
		r = d
	case strings.HasSuffix(name, ".gz"):
		d, err := gzip.NewReader(f)
		if err != nil {
			return nil, wrapError(ErrOutput, "OpenReport", "can't decompress "+name, err)
		}
		defer d.Close()
		r = d
	}
	b, err := ReadReport(r)
	return b, errDecorate(err, "OpenReport")
}

//ReadReport parses a plain text report.
func ReadReport(r io.Reader) ([]ReportBlock, error) {
	bad := func(line int, msg string) error {
		return newError(ErrOutput, "ReadReport", fmt.Sprintf("line %d: %s", line, msg), true)
	}
	var blocks []ReportBlock
	var cur *ReportBlock
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	nline := 0
	for s.Scan() {
		nline++
		line := strings.TrimSpace(s.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "Iteration:"):
			it, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Iteration:")))
			if err != nil {
				return nil, bad(nline, "wrong iteration: "+err.Error())
			}
			blocks = append(blocks, ReportBlock{Iteration: it})
			cur = &blocks[len(blocks)-1]
		case strings.HasPrefix(line, "Printing"), strings.HasPrefix(line, "First"):
			continue
		case strings.HasPrefix(line, "The columns are"):
			if cur == nil {
				return nil, bad(nline, "header before an iteration line")
			}
			shape, err := parseShape(line)
			if err != nil {
				return nil, bad(nline, err.Error())
			}
			cur.Shape = shape
		default:
			if cur == nil || cur.Shape == nil {
				return nil, bad(nline, "data before a block header")
			}
			fields := strings.Fields(line)
			nd := len(cur.Shape)
			if len(fields) != 2*nd {
				return nil, bad(nline, fmt.Sprintf("%d columns, expected %d", len(fields), 2*nd))
			}
			vals := make([]float64, len(fields))
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, bad(nline, err.Error())
				}
				vals[i] = v
			}
			cur.Centers = append(cur.Centers, vals[:nd])
			cur.Forces = append(cur.Forces, vals[nd:])
		}
	}
	if err := s.Err(); err != nil {
		return nil, wrapError(ErrOutput, "ReadReport", "reading the report", err)
	}
	for _, b := range blocks {
		n := 1
		for _, v := range b.Shape {
			n *= v
		}
		if len(b.Centers) != n {
			return nil, newError(ErrOutput, "ReadReport", fmt.Sprintf("iteration %d: %d rows for %d bins", b.Iteration, len(b.Centers), n), true)
		}
	}
	return blocks, nil
}

//parses "The columns are N long, mapping out a surface of A by B points in 2 dimensions."
func parseShape(line string) ([]int, error) {
	i := strings.Index(line, "surface of ")
	j := strings.Index(line, " points in")
	if i < 0 || j < i {
		return nil, fmt.Errorf("can't find the grid shape")
	}
	parts := strings.Split(line[i+len("surface of "):j], " by ")
	shape := make([]int, len(parts))
	for k, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		shape[k] = v
	}
	return shape, nil
}

//Grid builds a grid with the shape and bin centers of the block. Bin centers
//only fix the bounds up to rounding of the report.
func (b ReportBlock) Grid() (*histo.Grid, error) {
	if len(b.Centers) == 0 {
		return nil, newError(ErrOutput, "ReportBlock.Grid", "empty block", true)
	}
	dims := make([]histo.Dimension, len(b.Shape))
	last := b.Centers[len(b.Centers)-1]
	first := b.Centers[0]
	for i, n := range b.Shape {
		w := 1.0
		if n > 1 {
			w = (last[i] - first[i]) / float64(n-1)
		}
		dims[i] = histo.Dimension{Lower: first[i] - w/2, Upper: last[i] + w/2, Bins: n}
	}
	g, err := histo.NewGrid(dims...)
	if err != nil {
		return nil, wrapError(ErrOutput, "ReportBlock.Grid", "can't rebuild the grid", err)
	}
	return g, nil
}
