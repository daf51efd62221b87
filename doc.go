/*
 * doc.go, part of goABF
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

/*Package abf implements the adaptive biasing force (ABF) method for the
calculation of free energy profiles along collective variables (CVs).

	**Method**

At each step, the generalized force along the CVs is estimated from the time
derivative of the atomic momenta projected on the CV space, and added to the
running sums of the bin of a histogram grid where the CVs lie. The sums and the
sample counts are reduced over all the walkers of the run, so all of them share
one estimate of the mean force, which is applied, with the opposite sign, as a
bias on the atoms. When the walker leaves the grid, linear restraints bring it back.

The method hooks into a simulation through the Method interface: Init before
the first step, Step after each integration step, and Finalize at the end.
Every process of every walker must call the hooks in lockstep, since they
perform collective reductions (see the comm package).

	**Outputs**

World rank 0 writes the mean force on each bin to a report, every
Options.BackupInterval steps and at Finalize, and optionally a restart state
that a later run can load. Each process writes a log.

See Darve, Rodriguez-Gomez, Pohorille, J. Chem. Phys. 128, 144120 (2008), and
Comer et al., J. Phys. Chem. B 119, 1129 (2015).
*/
package abf
