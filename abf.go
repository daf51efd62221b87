/*
 * abf.go, part of goABF
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
	"os"
	"path/filepath"

	"github.com/rmera/goabf/comm"
	"github.com/rmera/goabf/histo"
	v3 "github.com/rmera/goabf/v3"
	"github.com/sirupsen/logrus"
)

type stage int

const (
	created stage = iota
	initialized
	finalized
)

//ABF is the adaptive biasing force method. Each process of each walker has its
//own ABF, and all of them must call the hooks in lockstep.
type ABF struct {
	opts Options

	grid *histo.Grid
	est  *Estimator
	acc  *Accumulator
	bias *BiasProjector
	//all the processes of the run
	world comm.Group

	report  *ReportWriter
	logfile *os.File
	log     *logrus.Entry

	stage     stage
	iteration int
	//true for the process in charge of the report and restart files.
	root  bool
	point []float64
	grads []*v3.Matrix
	last  int //bin of the last step
	saved int //iteration of the last checkpoint
}

//New returns an ABF method with the given options, which are validated here.
//Nothing is allocated or opened until Init.
func New(opts Options) (*ABF, error) {
	if err := opts.Validate(); err != nil {
		return nil, errDecorate(err, "New")
	}
	o := opts
	o.CVs = append([]CVOptions(nil), opts.CVs...)
	if o.OutDir == "" {
		o.OutDir = "."
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
		return nil, wrapError(ErrConfig, "New", "wrong log level", err)
	}
	return &ABF{opts: o, last: -1, saved: -1}, nil
}

//outPath returns name inside the output directory, unless it is an absolute path.
func (A *ABF) outPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(A.opts.OutDir, name)
}

//Init allocates the grid and the accumulator, opens the per-walker log
//and, in world rank 0, the report. If a restart state is configured, it
//is loaded as the baseline of the accumulator.
func (A *ABF) Init(s Snapshot, cvs []CV) error {
	if A.stage != created {
		return newError(ErrLifecycle, "ABF.Init", "Init called twice", false)
	}
	ncv := len(A.opts.CVs)
	if len(cvs) != ncv {
		return newError(ErrDimension, "ABF.Init", fmt.Sprintf("%d CVs given, %d configured", len(cvs), ncv), true)
	}
	natoms := s.NumAtoms()
	if natoms < 1 {
		return newError(ErrInput, "ABF.Init", "snapshot without atoms", true)
	}
	var err error
	A.grid, err = histo.NewGrid(A.opts.dimensions()...)
	if err != nil {
		return wrapError(ErrConfig, "ABF.Init", "can't build the grid", err)
	}
	if err = A.openLog(s); err != nil {
		return errDecorate(err, "ABF.Init")
	}
	A.est = NewEstimator(ncv, A.opts.Timestep, A.opts.UnitConv, A.opts.MassWeight)
	A.est.SetLogger(A.log)
	A.acc = NewAccumulator(A.grid, ncv, A.opts.MinCount, s.World())
	A.acc.SetLeader(s.Comm().Rank() == 0)
	restraints, periods := A.opts.restraints()
	A.bias = NewBiasProjector(natoms, restraints, periods)
	A.point = make([]float64, ncv)
	A.grads = make([]*v3.Matrix, ncv)
	A.world = s.World()
	A.root = A.world.Rank() == 0

	if A.opts.RestartIn != "" {
		if err = A.restart(A.opts.RestartIn); err != nil {
			A.closeLog()
			return errDecorate(err, "ABF.Init")
		}
	}
	if A.root {
		A.report, err = NewReportWriter(A.outPath(A.opts.Report))
		if err != nil {
			A.closeLog()
			return errDecorate(err, "ABF.Init")
		}
	}
	A.log.WithFields(logrus.Fields{
		"cvs":   ncv,
		"grid":  A.grid.String(),
		"atoms": natoms,
	}).Info("ABF initialized")
	A.stage = initialized
	return nil
}

func (A *ABF) openLog(s Snapshot) error {
	name := fmt.Sprintf("node-%04d.log", s.WalkerID())
	if s.Comm().Size() > 1 {
		name = fmt.Sprintf("node-%04d-%02d.log", s.WalkerID(), s.Comm().Rank())
	}
	var err error
	A.logfile, err = os.Create(A.outPath(name))
	if err != nil {
		return wrapError(ErrOutput, "ABF.openLog", "can't open the log", err)
	}
	l := logrus.New()
	l.SetOutput(A.logfile)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	lvl, _ := logrus.ParseLevel(A.opts.LogLevel) //checked in New
	l.SetLevel(lvl)
	A.log = l.WithFields(logrus.Fields{"walker": s.WalkerID(), "rank": s.Comm().Rank()})
	return nil
}

func (A *ABF) closeLog() {
	if A.logfile != nil {
		A.logfile.Close()
		A.logfile = nil
	}
}

func (A *ABF) restart(name string) error {
	st, err := LoadState(name)
	if err != nil {
		return errDecorate(err, "ABF.restart")
	}
	if err = st.Check(A.grid, len(A.opts.CVs)); err != nil {
		return errDecorate(err, "ABF.restart")
	}
	if err = A.acc.Preload(st.Sum, st.Count); err != nil {
		return errDecorate(err, "ABF.restart")
	}
	A.iteration = st.Iteration
	A.saved = st.Iteration
	if err = A.restoreHistory(st); err != nil {
		return errDecorate(err, "ABF.restart")
	}
	A.log.WithFields(logrus.Fields{"file": name, "iteration": st.Iteration, "samples": A.acc.TotalSamples()}).Info("restart state loaded")
	return nil
}

//restoreHistory puts back the finite difference history and the last mean force
//of this process. If the state was written by a run with another number of
//processes, the history starts from zero.
func (A *ABF) restoreHistory(st *State) error {
	if st.Processes() != A.world.Size() {
		if st.Processes() > 0 {
			A.log.WithFields(logrus.Fields{"saved": st.Processes(), "running": A.world.Size()}).Warn("restart history for a different number of processes, starting from zero")
		}
		return nil
	}
	prev1, prev2, fold, err := st.ProcessHistory(A.world.Rank())
	if err != nil {
		return errDecorate(err, "ABF.restoreHistory")
	}
	if err = A.est.SetHistory(prev1, prev2); err != nil {
		return errDecorate(err, "ABF.restoreHistory")
	}
	return errDecorate(A.acc.SetFold(fold), "ABF.restoreHistory")
}

//history gathers, in rank order, the finite difference history and the last
//mean force of every process of the run. It is collective over the world group.
func (A *ABF) history() ([]float64, error) {
	ncv := len(A.point)
	n := 3 * ncv
	buf := make([]float64, n*A.world.Size())
	mine := buf[n*A.world.Rank() : n*(A.world.Rank()+1)]
	prev1, prev2 := A.est.History()
	copy(mine, prev1)
	copy(mine[ncv:], prev2)
	copy(mine[2*ncv:], A.acc.Fold())
	if err := A.world.AllReduceSum(buf, buf); err != nil {
		return nil, wrapError(ErrComm, "ABF.history", "gathering the restart history", err)
	}
	return buf, nil
}

//Step estimates the generalized force at the current configuration, folds it into
//the accumulator, writes a checkpoint when due and adds the bias to the forces of s.
func (A *ABF) Step(s Snapshot, cvs []CV) error {
	switch A.stage {
	case created:
		return newError(ErrLifecycle, "ABF.Step", "Step called before Init", false)
	case finalized:
		return newError(ErrLifecycle, "ABF.Step", "Step called after Finalize", false)
	}
	if len(cvs) != len(A.point) {
		return newError(ErrDimension, "ABF.Step", fmt.Sprintf("%d CVs given, %d configured", len(cvs), len(A.point)), true)
	}
	A.iteration++
	for i, c := range cvs {
		A.point[i] = c.Value()
		A.grads[i] = c.Gradient()
	}
	bin := A.grid.Index(A.point)
	force, err := A.est.Estimate(s.Masses(), s.Velocities(), A.grads, s.Comm(), A.acc.Fold())
	if err != nil {
		return errDecorate(err, "ABF.Step")
	}
	if err = A.acc.Observe(bin, force); err != nil {
		return errDecorate(err, "ABF.Step")
	}
	if A.last != -1 && bin == -1 {
		A.log.WithField("iteration", s.Iteration()).Debug("walker left the grid")
	}
	A.last = bin
	if A.iteration%A.opts.BackupInterval == 0 {
		if err = A.checkpoint(); err != nil {
			return errDecorate(err, "ABF.Step")
		}
	}
	if _, err = A.bias.Compute(bin, cvs, A.acc); err != nil {
		return errDecorate(err, "ABF.Step")
	}
	return errDecorate(A.bias.Apply(s.Forces()), "ABF.Step")
}

//checkpoint writes the report block and the restart state, in world rank 0 only.
//When a restart state is written, all the processes must call it, as the
//history of each of them is gathered first.
func (A *ABF) checkpoint() error {
	if A.saved == A.iteration {
		return nil
	}
	var hist []float64
	if A.opts.RestartOut != "" {
		var err error
		if hist, err = A.history(); err != nil {
			return errDecorate(err, "ABF.checkpoint")
		}
	}
	A.saved = A.iteration
	if !A.root {
		return nil
	}
	if err := A.report.Write(A.iteration, A.acc); err != nil {
		return errDecorate(err, "ABF.checkpoint")
	}
	if A.opts.RestartOut != "" {
		st := NewState(A.iteration, A.acc)
		st.History = hist
		if err := WriteState(A.outPath(A.opts.RestartOut), st); err != nil {
			return errDecorate(err, "ABF.checkpoint")
		}
	}
	A.log.WithFields(logrus.Fields{"iteration": A.iteration, "samples": A.acc.TotalSamples(), "file": A.report.Filename()}).Info("checkpoint written")
	return nil
}

//Finalize writes a last checkpoint and closes all the outputs. The method can't
//be used after Finalize.
func (A *ABF) Finalize(s Snapshot, cvs []CV) error {
	switch A.stage {
	case created:
		return newError(ErrLifecycle, "ABF.Finalize", "Finalize called before Init", false)
	case finalized:
		return newError(ErrLifecycle, "ABF.Finalize", "Finalize called twice", false)
	}
	A.stage = finalized
	err := A.checkpoint()
	if e := A.report.Close(); err == nil {
		err = e
	}
	A.log.WithField("iteration", A.iteration).Info("ABF finalized")
	A.closeLog()
	return errDecorate(err, "ABF.Finalize")
}

//Iteration returns the number of steps taken by the method, including those
//of a restart state.
func (A *ABF) Iteration() int {
	return A.iteration
}

//Grid returns the histogram grid, nil before Init.
func (A *ABF) Grid() *histo.Grid {
	return A.grid
}

//Accumulator returns the force accumulator, nil before Init.
func (A *ABF) Accumulator() *Accumulator {
	return A.acc
}

//Estimator returns the force estimator, nil before Init.
func (A *ABF) Estimator() *Estimator {
	return A.est
}

//Bias returns the bias from the last step.
func (A *ABF) Bias() *v3.Matrix {
	if A.bias == nil {
		return nil
	}
	return A.bias.Bias()
}

//ReportName returns the path to the report file.
func (A *ABF) ReportName() string {
	return A.outPath(A.opts.Report)
}
