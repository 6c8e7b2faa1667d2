// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sim compiles a declarative signal graph into a runnable engine.
//
// Compile registers every declared signal, translates operator descriptors
// into compiled records, orders them by their dependencies and wraps probe
// declarations into recorders. The resulting Engine replays the same
// operator order against mutable signal storage, one full pass per step,
// and appends every probed signal's value to its history after each step.
package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"github.com/gx-org/nsim/base/ordered"
	"github.com/gx-org/nsim/op"
	"github.com/gx-org/nsim/sched"
	"github.com/gx-org/nsim/signal"
)

// Option configures an engine at compile time.
type Option func(*Engine)

// WithLogger makes the engine emit debug-level build and lifecycle events
// through the given logger. The step loop itself never logs.
func WithLogger(logger *slog.Logger) Option {
	return func(eng *Engine) {
		eng.log = logger
	}
}

// Engine is a compiled model: the signal table, the operators in execution
// order and the probes. The compiled structure is immutable; stepping
// mutates signal storage and probe histories only.
type Engine struct {
	table  *signal.Table
	ops    []op.Operator
	probes *ordered.Map[*ProbeDesc, *Probe]
	dt     float64
	step   []uint64
	time   signal.Ref
	log    *slog.Logger
	closed bool
}

// Compile builds an engine from a declarative model: standalone signal
// declarations, operator descriptors with their dependency sets, and probe
// declarations. Construction errors are accumulated so a malformed model
// reports every offending signal and operator.
func Compile(signals []*signal.Signal, descs []*op.Desc, probes []*ProbeDesc, opts ...Option) (*Engine, error) {
	eng := &Engine{
		table:  signal.NewTable(),
		probes: ordered.NewMap[*ProbeDesc, *Probe](),
	}
	for _, opt := range opts {
		opt(eng)
	}

	var errs error
	for _, s := range signals {
		if _, err := eng.table.Register(s); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	order, err := sched.Order(len(descs), func(i int) []int { return descs[i].DependsOn })
	if err != nil {
		return nil, fmt.Errorf("cannot order the operators: %w", err)
	}
	eng.ops = make([]op.Operator, 0, len(descs))
	clocked := false
	for _, di := range order {
		d := descs[di]
		if d.Kind == op.TimeUpdate {
			// A second clock update would advance the step counter twice
			// per step.
			if clocked {
				errs = multierr.Append(errs, fmt.Errorf("cannot compile operator %d: the model already declares a %s operator", di, op.TimeUpdate.String()))
				continue
			}
			clocked = true
			eng.dt = d.DT
		}
		operator, err := op.Build(eng.table, d)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cannot compile operator %d (%s): %w", di, d.Kind.String(), err))
			continue
		}
		eng.ops = append(eng.ops, operator)
	}

	for _, pd := range probes {
		ref, err := eng.registerProbe(pd)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		eng.probes.Store(pd, &Probe{name: pd.Name, ref: ref})
	}
	if errs != nil {
		return nil, errs
	}

	stepRef, _ := eng.table.Lookup(eng.table.StepSignal())
	eng.step, err = stepRef.Uint64()
	if err != nil {
		return nil, err
	}
	eng.time, _ = eng.table.Lookup(eng.table.TimeSignal())

	if eng.log != nil {
		eng.log.Debug("model compiled",
			slog.Int("signals", eng.table.Len()),
			slog.Int("operators", len(eng.ops)),
			slog.Int("probes", eng.probes.Size()),
			slog.Float64("dt", eng.dt),
		)
	}
	return eng, nil
}

func (eng *Engine) registerProbe(pd *ProbeDesc) (signal.Ref, error) {
	if pd.Target == nil {
		return signal.Ref{}, errors.Errorf("probe %s has no target signal", pd.Name)
	}
	id, err := eng.table.Register(pd.Target)
	if err != nil {
		return signal.Ref{}, fmt.Errorf("cannot register the target of probe %s: %w", pd.Name, err)
	}
	return eng.table.Ref(id), nil
}

// Reset restores the engine to its post-compile state: every owning signal
// back to its declared initial value, the step counter to zero, every probe
// history and every operator's carried state cleared.
func (eng *Engine) Reset() {
	eng.table.Reset()
	for _, operator := range eng.ops {
		if r, ok := operator.(op.Resetter); ok {
			r.Reset()
		}
	}
	for probe := range eng.probes.Values() {
		probe.clear()
	}
	if eng.log != nil {
		eng.log.Debug("engine reset")
	}
}

// RunStep executes every operator once, in compiled order, then records
// every probe's target value.
func (eng *Engine) RunStep() error {
	if eng.closed {
		return errors.Errorf("the engine is closed")
	}
	for _, operator := range eng.ops {
		if err := operator.Step(); err != nil {
			return err
		}
	}
	for probe := range eng.probes.Values() {
		probe.record()
	}
	return nil
}

// RunSteps executes exactly n steps and returns the number of steps
// completed. The context is only checked between steps: a cancellation
// leaves the engine consistent, with every completed step fully applied and
// probed.
func (eng *Engine) RunSteps(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, errors.Errorf("cannot run %d steps", n)
	}
	for i := range n {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := eng.RunStep(); err != nil {
			return i, err
		}
	}
	if eng.log != nil {
		eng.log.Debug("run completed", slog.Int("steps", n), slog.Uint64("step", eng.Step()))
	}
	return n, nil
}

// Step returns the current value of the step counter.
func (eng *Engine) Step() uint64 {
	return eng.step[0]
}

// Time returns the current elapsed time.
func (eng *Engine) Time() float64 {
	return eng.time.Snapshot()[0]
}

// DT returns the time increment of the model's TimeUpdate operator, or zero
// if the model has none.
func (eng *Engine) DT() float64 {
	return eng.dt
}

// Trange returns the elapsed time after each completed step:
// dt, 2*dt, ..., step*dt.
func (eng *Engine) Trange() []float64 {
	n := int(eng.Step())
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i+1) * eng.dt
	}
	return out
}

// ReadSignal returns a snapshot of a registered signal's current value.
func (eng *Engine) ReadSignal(s *signal.Signal) ([]float64, error) {
	ref, ok := eng.table.Lookup(s)
	if !ok {
		return nil, errors.Errorf("signal %s is not part of the compiled model", s.Name)
	}
	return ref.Snapshot(), nil
}

// Probe returns the history recorder of a probe declaration, or nil if the
// declaration is not part of the compiled model.
func (eng *Engine) Probe(pd *ProbeDesc) *Probe {
	probe, _ := eng.probes.Load(pd)
	return probe
}

// Close marks the end of the simulation session. A closed engine refuses to
// step; probe histories remain readable. Close is idempotent.
func (eng *Engine) Close() error {
	eng.closed = true
	return nil
}

func (eng *Engine) String() string {
	return fmt.Sprintf("Engine(signals=%d, operators=%d, probes=%d, step=%d)",
		eng.table.Len(), len(eng.ops), eng.probes.Size(), eng.Step())
}
