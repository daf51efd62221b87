/*
 * config.go, part of goABF
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

//Package config reads the settings of an ABF run from a TOML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml"
	abf "github.com/rmera/goabf"
	"github.com/rmera/goabf/cv"
	"github.com/rmera/goabf/histo"
)

//CVConfig describes one collective variable, its grid, its restraint and
//its periodicity.
type CVConfig struct {
	Kind  string  `toml:"kind" json:"kind"`
	Atoms [][]int `toml:"atoms" json:"atoms"`
	Axis  int     `toml:"axis" json:"axis"`

	Lower float64 `toml:"lower" json:"lower"`
	Upper float64 `toml:"upper" json:"upper"`
	Bins  int     `toml:"bins" json:"bins"`

	RestraintLower float64 `toml:"restraint_lower" json:"restraint_lower"`
	RestraintUpper float64 `toml:"restraint_upper" json:"restraint_upper"`
	Spring         float64 `toml:"spring" json:"spring"`

	Periodic    bool    `toml:"periodic" json:"periodic"`
	PeriodLower float64 `toml:"period_lower" json:"period_lower"`
	PeriodUpper float64 `toml:"period_upper" json:"period_upper"`
}

//System are the parameters of the model system simulated by the goabf command.
//Zero values are replaced by the defaults.
type System struct {
	Mass        float64 `toml:"mass" json:"mass"`
	Temperature float64 `toml:"temperature" json:"temperature"` //in energy units
	Friction    float64 `toml:"friction" json:"friction"`
	Barrier     float64 `toml:"barrier" json:"barrier"`     //height of the double well along x
	Stiffness   float64 `toml:"stiffness" json:"stiffness"` //of the harmonic wells along y and z
	Seed        int64   `toml:"seed" json:"seed"`
}

//Config contains all the settings of a run.
type Config struct {
	Timestep       float64 `toml:"timestep" json:"timestep"`
	UnitConv       float64 `toml:"unitconv" json:"unitconv" default:"1"`
	//If set, the unit system name replaces UnitConv (see abf.UnitConversion).
	Units          string  `toml:"units" json:"units"`
	MassWeight     bool    `toml:"massweight" json:"massweight" default:"true"`
	MinCount       int     `toml:"mincount" json:"mincount" default:"100"`
	BackupInterval int     `toml:"backup_interval" json:"backup_interval" default:"1000"`
	OutDir         string  `toml:"outdir" json:"outdir" default:"."`
	Report         string  `toml:"report" json:"report" default:"F_out"`
	RestartIn      string  `toml:"restart_in" json:"restart_in"`
	RestartOut     string  `toml:"restart_out" json:"restart_out"`
	LogLevel       string  `toml:"loglevel" json:"loglevel" default:"info"`

	//Number of atoms of the system, used to check the CV atom indexes.
	Atoms int `toml:"atoms" json:"atoms"`

	CVs    []CVConfig `toml:"cv" json:"cv"`
	System System     `toml:"system" json:"system"`
}

//Default returns a configuration with the default values and no CVs.
func Default() *Config {
	d := abf.DefaultOptions()
	c := &Config{
		UnitConv:       d.UnitConv,
		MassWeight:     d.MassWeight,
		MinCount:       d.MinCount,
		BackupInterval: d.BackupInterval,
		OutDir:         d.OutDir,
		Report:         d.Report,
		LogLevel:       d.LogLevel,
	}
	c.setDefaults()
	return c
}

//setDefaults replaces the unset values. A zero is never a valid value for any of them.
type periodic interface {
	Periodicity() (lower, upper float64)
}

func (C *Config) setDefaults() {
	d := abf.DefaultOptions()
	if C.UnitConv == 0 {
		C.UnitConv = d.UnitConv
	}
	if C.MinCount == 0 {
		C.MinCount = d.MinCount
	}
	if C.BackupInterval == 0 {
		C.BackupInterval = d.BackupInterval
	}
	if C.OutDir == "" {
		C.OutDir = d.OutDir
	}
	if C.Report == "" {
		C.Report = d.Report
	}
	if C.LogLevel == "" {
		C.LogLevel = d.LogLevel
	}
	//periodic CVs without period bounds take them from the CV kind, if it has one.
	for i := range C.CVs {
		c := &C.CVs[i]
		if !c.Periodic || c.PeriodLower != 0 || c.PeriodUpper != 0 {
			continue
		}
		e, err := cv.New(c.Kind, c.Atoms, c.Axis, C.Atoms)
		if err != nil {
			continue //reported by Validate
		}
		if p, ok := e.(periodic); ok {
			c.PeriodLower, c.PeriodUpper = p.Periodicity()
		}
	}
	s := &C.System
	def := func(v *float64, d float64) {
		if *v == 0 {
			*v = d
		}
	}
	def(&s.Mass, 1)
	def(&s.Temperature, 1)
	def(&s.Friction, 1)
	def(&s.Barrier, 5)
	def(&s.Stiffness, 10)
	if s.Seed == 0 {
		s.Seed = 1
	}
}

//Load reads and validates the configuration in the file name. Files with a .json
//extension are read as JSON, everything else as TOML.
func Load(name string) (*Config, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, Error{err.Error(), []string{"Load"}, true}
	}
	defer f.Close()
	C := Default()
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		err = dec.Decode(C)
	} else {
		err = toml.NewDecoder(f).Decode(C)
	}
	if err != nil {
		return nil, Error{fmt.Sprintf("can't decode %s: %s", name, err.Error()), []string{"Load"}, true}
	}
	C.setDefaults()
	if C.Units != "" {
		C.UnitConv, err = abf.UnitConversion(C.Units)
		if err != nil {
			return nil, Error{err.Error(), []string{"Load"}, true}
		}
	}
	if err = C.Validate(); err != nil {
		return nil, errDecorate(err, "Load")
	}
	return C, nil
}

//Validate checks the configuration, returning an error for the first problem found.
func (C *Config) Validate() error {
	if err := C.Options().Validate(); err != nil {
		return Error{err.Error(), []string{"Validate"}, true}
	}
	if C.Atoms < 1 {
		return Error{fmt.Sprintf("%d atoms in the system", C.Atoms), []string{"Validate"}, true}
	}
	if _, err := C.Evaluators(); err != nil {
		return errDecorate(err, "Validate")
	}
	return nil
}

//Options returns the options of the ABF method.
func (C *Config) Options() abf.Options {
	o := abf.Options{
		Timestep:       C.Timestep,
		UnitConv:       C.UnitConv,
		MassWeight:     C.MassWeight,
		MinCount:       C.MinCount,
		BackupInterval: C.BackupInterval,
		OutDir:         C.OutDir,
		Report:         C.Report,
		RestartIn:      C.RestartIn,
		RestartOut:     C.RestartOut,
		LogLevel:       C.LogLevel,
	}
	for _, c := range C.CVs {
		o.CVs = append(o.CVs, abf.CVOptions{
			Grid:        histo.Dimension{Lower: c.Lower, Upper: c.Upper, Bins: c.Bins},
			Restraint:   abf.Restraint{Lower: c.RestraintLower, Upper: c.RestraintUpper, Spring: c.Spring},
			Periodicity: abf.Periodicity{Periodic: c.Periodic, Lower: c.PeriodLower, Upper: c.PeriodUpper},
		})
	}
	return o
}

//Evaluators builds a new set of the configured CVs.
func (C *Config) Evaluators() ([]cv.Evaluator, error) {
	ret := make([]cv.Evaluator, 0, len(C.CVs))
	for i, c := range C.CVs {
		e, err := cv.New(c.Kind, c.Atoms, c.Axis, C.Atoms)
		if err != nil {
			return nil, Error{fmt.Sprintf("CV %d: %s", i, err.Error()), []string{"Evaluators"}, true}
		}
		ret = append(ret, e)
	}
	return ret, nil
}

//CVs returns the evaluators as abf.CVs, in the same order.
func CVs(e []cv.Evaluator) []abf.CV {
	ret := make([]abf.CV, len(e))
	for i, v := range e {
		ret[i] = v
	}
	return ret
}

//Error is the error type for this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return "goABF/config: " + err.message
}

//Decorate adds dec to the decoration slice of the error, and returns the slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

func (err Error) Critical() bool { return err.critical }

func (err Error) Unwrap() error { return abf.ErrConfig }

func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}
