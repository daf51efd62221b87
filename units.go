/*
 * units.go, part of goABF
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
	"strings"
)

//Conversions
const (
	Kcal2KJ = 4.184
	KJ2Kcal = 1 / 4.184
	Deg2Rad = 0.0174533
	Rad2Deg = 1 / 0.0174533
)

//Factors that take mass*length/time^2 to the force units of some MD unit systems.
const (
	GromacsUnitConv     = 1.0         //amu nm/ps^2 to kJ/mol/nm
	LammpsRealUnitConv  = 2390.057364 //g/mol A/fs^2 to kcal/mol/A
	LammpsMetalUnitConv = 1.0364269e-4
)

//UnitConversion returns the Options.UnitConv value for the unit system name:
//"gromacs", "lammps-real" or "lammps-metal". The empty string and "none" give 1.
func UnitConversion(name string) (float64, error) {
	switch strings.ToLower(name) {
	case "", "none", "gromacs":
		return GromacsUnitConv, nil
	case "lammps-real", "real":
		return LammpsRealUnitConv, nil
	case "lammps-metal", "metal":
		return LammpsMetalUnitConv, nil
	}
	return 0, newError(ErrConfig, "UnitConversion", fmt.Sprintf("unknown unit system %q", name), true)
}
