/*
 * options.go, part of goABF
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
	"math"

	"github.com/rmera/goabf/histo"
)

//Restraint is the linear restoring force applied to a CV when the walker is
//outside the histogram grid and the CV is outside [Lower, Upper].
//A Spring of 0 disables it.
type Restraint struct {
	Lower  float64
	Upper  float64
	Spring float64
}

//Periodicity describes the period of a periodic CV, [Lower, Upper).
type Periodicity struct {
	Periodic bool
	Lower    float64
	Upper    float64
}

//Period returns the length of the period.
func (p Periodicity) Period() float64 {
	return p.Upper - p.Lower
}

//CVOptions gathers the per-CV settings of the method.
type CVOptions struct {
	Grid        histo.Dimension
	Restraint   Restraint
	Periodicity Periodicity
}

//Options are the settings of the ABF method.
type Options struct {
	CVs []CVOptions

	Timestep float64

	//Factor applied to the time derivative of the projected momenta, to take
	//it to force units.
	UnitConv float64

	//Use the inverse-mass weighted pseudo-inverse of the Jacobian.
	MassWeight bool

	//Minimum number of samples used as denominator of the mean force. Prevents
	//large biases on bins with few samples.
	MinCount int

	//Iterations between checkpoints of the force field.
	BackupInterval int

	//Directory for all the outputs.
	OutDir string

	//Name of the force field report, written by world rank 0 only.
	//A .zst or .gz extension compresses the report.
	Report string

	//If not empty, a restart state to preload at Init.
	RestartIn string

	//If not empty, world rank 0 writes the restart state here at each checkpoint
	//and at Finalize.
	RestartOut string

	//Verbosity of the per-walker log, as a logrus level name. "info" if empty.
	LogLevel string
}

//DefaultOptions returns Options with the default values for everything but the CVs
//and the timestep.
func DefaultOptions() Options {
	return Options{
		UnitConv:       1,
		MassWeight:     true,
		MinCount:       100,
		BackupInterval: 1000,
		OutDir:         ".",
		Report:         "F_out",
		LogLevel:       "info",
	}
}

//Validate checks the options, returning a critical error for the first problem found.
func (O Options) Validate() error {
	bad := func(format string, a ...interface{}) error {
		return newError(ErrConfig, "Options.Validate", fmt.Sprintf(format, a...), true)
	}
	if len(O.CVs) == 0 {
		return bad("at least one CV is needed")
	}
	for i, c := range O.CVs {
		if c.Grid.Bins < 1 {
			return bad("CV %d: grid bin count %d < 1", i, c.Grid.Bins)
		}
		if !(c.Grid.Lower < c.Grid.Upper) {
			return bad("CV %d: grid lower bound %v not smaller than upper bound %v", i, c.Grid.Lower, c.Grid.Upper)
		}
		r := c.Restraint
		if r.Spring < 0 || math.IsNaN(r.Spring) {
			return bad("CV %d: negative spring constant %v", i, r.Spring)
		}
		if r.Spring > 0 && r.Lower > r.Upper {
			return bad("CV %d: restraint lower bound %v larger than upper bound %v", i, r.Lower, r.Upper)
		}
		if c.Periodicity.Periodic && !(c.Periodicity.Period() > 0) {
			return bad("CV %d: empty period [%v, %v)", i, c.Periodicity.Lower, c.Periodicity.Upper)
		}
	}
	if !(O.Timestep > 0) {
		return bad("timestep %v should be positive", O.Timestep)
	}
	if O.UnitConv == 0 || math.IsNaN(O.UnitConv) {
		return bad("unit conversion factor can't be %v", O.UnitConv)
	}
	if O.MinCount < 1 {
		return bad("minimum sample count %d < 1", O.MinCount)
	}
	if O.BackupInterval < 1 {
		return bad("backup interval %d < 1", O.BackupInterval)
	}
	if O.Report == "" {
		return bad("no report file name given")
	}
	return nil
}

func (O Options) dimensions() []histo.Dimension {
	d := make([]histo.Dimension, len(O.CVs))
	for i, c := range O.CVs {
		d[i] = c.Grid
	}
	return d
}

func (O Options) restraints() ([]Restraint, []Periodicity) {
	r := make([]Restraint, len(O.CVs))
	p := make([]Periodicity, len(O.CVs))
	for i, c := range O.CVs {
		r[i] = c.Restraint
		p[i] = c.Periodicity
	}
	return r, p
}
