/*
 * plot.go, part of goABF
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

package main

import (
	"fmt"

	abf "github.com/rmera/goabf"
	"github.com/rmera/goabf/fesplot"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func plotCmd() *cobra.Command {
	var (
		report string
		n      int
		out    string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot the free energy profile along one CV from the last block of a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := abf.OpenReport(report)
			if err != nil {
				return err
			}
			if len(blocks) == 0 {
				return fmt.Errorf("no data in %s", report)
			}
			last := blocks[len(blocks)-1]
			x, f, err := fesplot.Profile1D(last, n)
			if err != nil {
				return err
			}
			fe := fesplot.Integrate(x, f)
			if title == "" {
				title = fmt.Sprintf("CV %d, iteration %d", n, last.Iteration)
			}
			if err = fesplot.Plot(x, f, fe, title, out); err != nil {
				return err
			}
			runLogger("plot").WithFields(logrus.Fields{
				"iteration": last.Iteration,
				"barrier":   fesplot.Barrier(fe),
				"out":       out,
			}).Info("profile plotted")
			return nil
		},
	}
	cmd.Flags().StringVarP(&report, "report", "r", "F_out", "ABF report")
	cmd.Flags().IntVar(&n, "cv", 0, "CV to plot")
	cmd.Flags().StringVarP(&out, "out", "o", "fes.png", "Output file, the format is chosen from the extension")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title of the plot")
	return cmd
}
