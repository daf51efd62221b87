/*
 * main.go, part of goABF
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

//goabf runs ABF on a model system, using one goroutine per walker, and
//plots the free energy profiles from its reports.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/google/uuid"
	abf "github.com/rmera/goabf"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	log     = logrus.New()
)

func main() {
	root := &cobra.Command{
		Use:           "goabf",
		Short:         "Adaptive biasing force sampling of a model system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(os.Stderr)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debugging information")
	root.AddCommand(runCmd(), plotCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		l := log.WithError(err)
		var e abf.Error
		if errors.As(err, &e) {
			l = l.WithField("trace", e.Trace())
		}
		l.Error("goabf failed")
		stop()
		os.Exit(1)
	}
}

//runLogger returns the logger tagged with a new run id.
func runLogger(command string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"run": uuid.New().String(), "cmd": command})
}
