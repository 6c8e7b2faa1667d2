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

// Package script adapts Starlark callables into engine step capabilities.
//
// Models scripted outside of Go declare their per-step functions as
// Starlark code. The adapters wrap a Starlark callable into the narrow
// capabilities the operators consume, converting values at the boundary.
package script

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/gx-org/nsim/op"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"golang.org/x/exp/maps"
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Compile executes a Starlark source file and returns the global function
// of the given name.
func Compile(filename, src, global string) (starlark.Callable, error) {
	thread := &starlark.Thread{Name: filename}
	globals, err := starlark.ExecFileOptions(fileOptions, thread, filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot execute %s: %w", filename, err)
	}
	value, ok := globals[global]
	if !ok {
		return nil, errors.Errorf("%s does not define %s", filename, global)
	}
	fn, ok := value.(starlark.Callable)
	if !ok {
		return nil, errors.Errorf("%s is a %s, not a function", global, value.Type())
	}
	return fn, nil
}

// Expr evaluates a Starlark expression, typically a lambda, and returns it
// as a callable.
func Expr(name, expr string) (starlark.Callable, error) {
	thread := &starlark.Thread{Name: name}
	value, err := starlark.EvalOptions(fileOptions, thread, name, expr, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot evaluate %s: %w", name, err)
	}
	fn, ok := value.(starlark.Callable)
	if !ok {
		return nil, errors.Errorf("%s is a %s, not a function", name, value.Type())
	}
	return fn, nil
}

type pyFunc struct {
	thread   *starlark.Thread
	fn       starlark.Callable
	withTime bool
	withX    bool
}

// PyFunc wraps a Starlark function of time and/or an input array into the
// SimPyFunc capability. The flags select which arguments the function
// declares, mirroring its scripted signature.
func PyFunc(fn starlark.Callable, withTime, withX bool) op.Func {
	return &pyFunc{
		thread:   &starlark.Thread{Name: fn.Name()},
		fn:       fn,
		withTime: withTime,
		withX:    withX,
	}
}

// Call implements op.Func.
func (p *pyFunc) Call(t float64, x []float64) ([]float64, error) {
	var args starlark.Tuple
	if p.withTime {
		args = append(args, starlark.Float(t))
	}
	if p.withX {
		args = append(args, toList(x))
	}
	result, err := starlark.Call(p.thread, p.fn, args, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.fn.Name(), err)
	}
	return fromValue(result)
}

type process struct {
	thread *starlark.Thread
	fn     starlark.Callable
}

// ProcessFunc wraps a Starlark function of time and an optional input array
// into the SimProcess capability.
func ProcessFunc(fn starlark.Callable) op.Process {
	return &process{thread: &starlark.Thread{Name: fn.Name()}, fn: fn}
}

// Step implements op.Process.
func (p *process) Step(t float64, input []float64) ([]float64, error) {
	args := starlark.Tuple{starlark.Float(t)}
	if input != nil {
		args = append(args, toList(input))
	}
	result, err := starlark.Call(p.thread, p.fn, args, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.fn.Name(), err)
	}
	return fromValue(result)
}

type neurons struct {
	thread *starlark.Thread
	fn     starlark.Callable
}

// NeuronStep wraps a Starlark function into the SimNeurons capability. The
// function is called as fn(dt, J, output, **state): it mutates the output
// list in place and may mutate the state lists, which are written back to
// the engine-owned state arrays after every call.
func NeuronStep(fn starlark.Callable) op.Neurons {
	return &neurons{thread: &starlark.Thread{Name: fn.Name()}, fn: fn}
}

// Step implements op.Neurons.
func (n *neurons) Step(dt float64, current, output []float64, state map[string][]float64) error {
	out := toList(output)
	args := starlark.Tuple{starlark.Float(dt), toList(current), out}
	keys := maps.Keys(state)
	sort.Strings(keys)
	kwargs := make([]starlark.Tuple, 0, len(keys))
	stateLists := make([]*starlark.List, len(keys))
	for i, k := range keys {
		stateLists[i] = toList(state[k])
		kwargs = append(kwargs, starlark.Tuple{starlark.String(k), stateLists[i]})
	}
	if _, err := starlark.Call(n.thread, n.fn, args, kwargs); err != nil {
		return fmt.Errorf("%s: %w", n.fn.Name(), err)
	}
	if err := readBack(out, output); err != nil {
		return fmt.Errorf("%s output: %w", n.fn.Name(), err)
	}
	for i, k := range keys {
		if err := readBack(stateLists[i], state[k]); err != nil {
			return fmt.Errorf("%s state %s: %w", n.fn.Name(), k, err)
		}
	}
	return nil
}
