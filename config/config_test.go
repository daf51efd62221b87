/*
 * config_test.go, part of goABF
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

package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	abf "github.com/rmera/goabf"
)

const tomlCfg = `
timestep = 0.005
units = "lammps-real"
mincount = 50
atoms = 4
report = "F_out.zst"

[[cv]]
kind = "distance"
atoms = [[0, 1], [2]]
lower = 1.0
upper = 5.0
bins = 20
restraint_lower = 1.0
restraint_upper = 5.0
spring = 10.0

[[cv]]
kind = "torsion"
atoms = [[0, 1, 2, 3]]
lower = -3.14159
upper = 3.14159
bins = 36
periodic = true

[system]
temperature = 2.5
`

func write(Te *testing.T, name, content string) string {
	path := filepath.Join(Te.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		Te.Fatal(err)
	}
	return path
}

func TestLoadTOML(Te *testing.T) {
	C, err := Load(write(Te, "abf.toml", tomlCfg))
	if err != nil {
		Te.Fatal(err)
	}
	if C.Timestep != 0.005 || C.MinCount != 50 || C.Report != "F_out.zst" {
		Te.Errorf("wrong values read: %+v", C)
	}
	//defaults
	if C.UnitConv != abf.LammpsRealUnitConv {
		Te.Errorf("the real units factor expected, got %v", C.UnitConv)
	}
	if !C.MassWeight || C.BackupInterval != 1000 || C.OutDir != "." {
		Te.Errorf("defaults not set: %+v", C)
	}
	if C.System.Temperature != 2.5 || C.System.Mass != 1 {
		Te.Errorf("wrong system: %+v", C.System)
	}
	o := C.Options()
	if len(o.CVs) != 2 || o.CVs[0].Grid.Bins != 20 || o.CVs[0].Restraint.Spring != 10 || !o.CVs[1].Periodicity.Periodic {
		Te.Errorf("wrong method options: %+v", o)
	}
	if p := o.CVs[1].Periodicity; p.Lower != -math.Pi || p.Upper != math.Pi {
		Te.Errorf("a torsion without period bounds should get (-Pi, Pi], got %v %v", p.Lower, p.Upper)
	}
	e, err := C.Evaluators()
	if err != nil {
		Te.Fatal(err)
	}
	if len(CVs(e)) != 2 {
		Te.Errorf("2 CVs expected, got %d", len(e))
	}
}

func TestLoadJSON(Te *testing.T) {
	js := `{"timestep": 0.01, "atoms": 1, "massweight": false,
	"cv": [{"kind": "coordinate", "atoms": [[0]], "axis": 0, "lower": -2, "upper": 2, "bins": 40}]}`
	C, err := Load(write(Te, "abf.json", js))
	if err != nil {
		Te.Fatal(err)
	}
	if C.MassWeight || C.MinCount != 100 || C.Report != "F_out" || len(C.CVs) != 1 {
		Te.Errorf("wrong values read: %+v", C)
	}
}

func TestInvalid(Te *testing.T) {
	cases := map[string]string{
		"no bins":      `{"timestep": 0.01, "atoms": 1, "cv": [{"kind": "coordinate", "atoms": [[0]], "lower": -2, "upper": 2}]}`,
		"bad bounds":   `{"timestep": 0.01, "atoms": 1, "cv": [{"kind": "coordinate", "atoms": [[0]], "lower": 2, "upper": 2, "bins": 3}]}`,
		"no timestep":  `{"atoms": 1, "cv": [{"kind": "coordinate", "atoms": [[0]], "lower": -2, "upper": 2, "bins": 3}]}`,
		"unknown kind": `{"timestep": 0.01, "atoms": 1, "cv": [{"kind": "rmsd", "atoms": [[0]], "lower": -2, "upper": 2, "bins": 3}]}`,
		"bad atom":     `{"timestep": 0.01, "atoms": 1, "cv": [{"kind": "coordinate", "atoms": [[3]], "lower": -2, "upper": 2, "bins": 3}]}`,
		"no cvs":       `{"timestep": 0.01, "atoms": 1}`,
		"bad spring":   `{"timestep": 0.01, "atoms": 1, "cv": [{"kind": "coordinate", "atoms": [[0]], "lower": -2, "upper": 2, "bins": 3, "spring": -1}]}`,
		"unknown key":  `{"timestep": 0.01, "atoms": 1, "colour": "red"}`,
		"bad units":    `{"timestep": 0.01, "atoms": 1, "units": "cgs", "cv": [{"kind": "coordinate", "atoms": [[0]], "lower": -2, "upper": 2, "bins": 3}]}`,
	}
	for name, js := range cases {
		Te.Run(name, func(Te *testing.T) {
			_, err := Load(write(Te, "abf.json", js))
			if err == nil {
				Te.Fatal("the configuration should be rejected")
			}
			if !errors.Is(err, abf.ErrConfig) {
				Te.Errorf("a configuration error expected, got %v", err)
			}
		})
	}
	if _, err := Load(filepath.Join(Te.TempDir(), "none.toml")); err == nil {
		Te.Error("a missing file should give an error")
	}
}
