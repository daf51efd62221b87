/*
 * run.go, part of goABF
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
	"context"
	"fmt"
	"math"
	"math/rand"

	abf "github.com/rmera/goabf"
	"github.com/rmera/goabf/comm"
	"github.com/rmera/goabf/config"
	"github.com/rmera/goabf/cv"
	"github.com/rmera/goabf/snap"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func runCmd() *cobra.Command {
	var (
		cfgfile string
		walkers int
		steps   int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run ABF on a model system",
		Long: `Run ABF on independent particles in a double well along x and harmonic
wells along y and z, with a Langevin integrator. The walkers share the
force field.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if walkers < 1 || steps < 0 {
				return fmt.Errorf("need at least one walker and a non-negative number of steps")
			}
			cfg, err := config.Load(cfgfile)
			if err != nil {
				return err
			}
			l := runLogger("run").WithFields(logrus.Fields{"walkers": walkers, "steps": steps})
			l.Info("starting")
			samples, err := simulate(cmd.Context(), cfg, walkers, steps, l)
			if err != nil {
				return err
			}
			l.WithField("samples", samples).Info("done")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgfile, "config", "c", "abf.toml", "Configuration file (TOML or JSON)")
	cmd.Flags().IntVarP(&walkers, "walkers", "w", 1, "Number of walkers")
	cmd.Flags().IntVarP(&steps, "steps", "n", 10000, "Number of steps")
	return cmd
}

//simulate runs all the walkers and returns the number of samples in the force field.
func simulate(ctx context.Context, cfg *config.Config, nwalkers, steps int, l *logrus.Entry) (int, error) {
	world := comm.NewLocal(nwalkers)
	methods := make([]*abf.ABF, nwalkers)
	for i := range methods {
		A, err := abf.New(cfg.Options())
		if err != nil {
			return 0, err
		}
		methods[i] = A
	}
	eg, ctx := errgroup.WithContext(ctx)
	for i, A := range methods {
		i, A := i, A
		eg.Go(func() error {
			err := walk(ctx, cfg, A, i, world[i], steps)
			if err != nil {
				//releases the other walkers, which would wait forever on the next reduction.
				world[i].Close(err)
				l.WithError(err).WithField("walker", i).Error("walker failed")
			}
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return methods[0].Accumulator().TotalSamples(), nil
}

//model is the potential of the system, and the Langevin integrator.
type model struct {
	sys config.System
	dt  float64
	c1  float64
	c2  float64
	rnd *rand.Rand
}

func newModel(sys config.System, dt float64, walker int) *model {
	c1 := math.Exp(-sys.Friction * dt)
	return &model{
		sys: sys,
		dt:  dt,
		c1:  c1,
		c2:  math.Sqrt((1 - c1*c1) * sys.Temperature / sys.Mass),
		rnd: rand.New(rand.NewSource(sys.Seed + int64(walker))),
	}
}

//forces puts the forces of the potential in s, and returns the potential energy.
func (M *model) forces(s *snap.Snapshot) float64 {
	e := 0.0
	b, k := M.sys.Barrier, M.sys.Stiffness
	for i := 0; i < s.NumAtoms(); i++ {
		p := s.Pos.Vec(i)
		x2 := p[0]*p[0] - 1
		e += b*x2*x2 + 0.5*k*(p[1]*p[1]+p[2]*p[2])
		s.Force.SetVec(i, [3]float64{-4 * b * p[0] * x2, -k * p[1], -k * p[2]})
	}
	return e
}

//kick adds half a step of the forces to the velocities.
func (M *model) kick(s *snap.Snapshot) {
	for i := 0; i < s.NumAtoms(); i++ {
		s.Vel.AddScaledVec(i, 0.5*M.dt/s.Mass[i], s.Force.Vec(i))
	}
}

//drift moves the atoms half a step, and applies the thermostat in the middle.
func (M *model) drift(s *snap.Snapshot) {
	for i := 0; i < s.NumAtoms(); i++ {
		s.Pos.AddScaledVec(i, 0.5*M.dt, s.Vel.Vec(i))
	}
	for i := 0; i < s.NumAtoms(); i++ {
		v := s.Vel.Vec(i)
		for k := range v {
			v[k] = M.c1*v[k] + M.c2*M.rnd.NormFloat64()
		}
		s.Vel.SetVec(i, v)
	}
	for i := 0; i < s.NumAtoms(); i++ {
		s.Pos.AddScaledVec(i, 0.5*M.dt, s.Vel.Vec(i))
	}
}

func evaluate(s *snap.Snapshot, cvs []cv.Evaluator) error {
	for _, c := range cvs {
		if err := c.Evaluate(s.Pos, s.Mass); err != nil {
			return err
		}
	}
	return nil
}

func walk(ctx context.Context, cfg *config.Config, A *abf.ABF, id int, world comm.Group, steps int) error {
	s := snap.New(cfg.Atoms, id, comm.Self{}, world)
	for i := range s.Mass {
		s.Mass[i] = cfg.System.Mass
		//all the atoms start in the left well.
		s.Pos.SetVec(i, [3]float64{-1, 0.1 * float64(i), 0})
	}
	evals, err := cfg.Evaluators()
	if err != nil {
		return err
	}
	cvs := config.CVs(evals)
	M := newModel(cfg.System, cfg.Timestep, id)
	if err = evaluate(s, evals); err != nil {
		return err
	}
	if err = A.Init(s, cvs); err != nil {
		return err
	}
	M.forces(s)
	for t := 1; t <= steps; t++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		s.SetIteration(t)
		M.kick(s)
		M.drift(s)
		M.forces(s)
		if err = evaluate(s, evals); err != nil {
			return err
		}
		if err = A.Step(s, cvs); err != nil {
			return err
		}
		M.kick(s)
	}
	return A.Finalize(s, cvs)
}
