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

// Package op defines operator descriptors and their compiled records.
//
// An operator descriptor declares one update rule of the model: its kind,
// the signals it reads and writes, its literal parameters and the
// descriptors it depends on. Build translates a descriptor into a compiled
// record holding resolved signal handles, executed once per step by the
// engine.
package op

import (
	"fmt"
)

// Kind enumerates the operator kinds the runtime can execute. The set is
// closed: Build matches it exhaustively and fails on anything else.
type Kind int

const (
	// Invalid is the zero Kind.
	Invalid Kind = iota
	// Reset writes a literal value into a destination signal.
	Reset
	// TimeUpdate increments the step counter and recomputes the elapsed
	// time from it.
	TimeUpdate
	// ElementwiseInc accumulates a pointwise product: Y += A * X.
	ElementwiseInc
	// Copy overwrites a destination signal with a source of equal shape.
	Copy
	// DotInc accumulates a matrix-vector or vector-vector contraction:
	// Y += A . X.
	DotInc
	// SimNeurons applies a stateful neuron update to an input current.
	SimNeurons
	// SimProcess applies an external per-step transformation.
	SimProcess
	// SimPyFunc applies an external function of time and/or an input.
	SimPyFunc

	numKinds
)

var kindNames = [numKinds]string{
	Invalid:        "Invalid",
	Reset:          "Reset",
	TimeUpdate:     "TimeUpdate",
	ElementwiseInc: "ElementwiseInc",
	Copy:           "Copy",
	DotInc:         "DotInc",
	SimNeurons:     "SimNeurons",
	SimProcess:     "SimProcess",
	SimPyFunc:      "SimPyFunc",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Neurons is the capability carried by a SimNeurons operator: advance a
// neuron population by dt given its input current, writing the population
// output. The state arrays are owned by the engine and passed explicitly on
// every call.
type Neurons interface {
	Step(dt float64, current, output []float64, state map[string][]float64) error
}

// NeuronsFn adapts a function to the Neurons capability.
type NeuronsFn func(dt float64, current, output []float64, state map[string][]float64) error

// Step calls the function.
func (f NeuronsFn) Step(dt float64, current, output []float64, state map[string][]float64) error {
	return f(dt, current, output, state)
}

// Process is the capability carried by a SimProcess operator: given the
// current time and an optional input, produce the values to write or
// accumulate into the output. A nil result means no write this step.
type Process interface {
	Step(t float64, input []float64) ([]float64, error)
}

// ProcessFn adapts a function to the Process capability.
type ProcessFn func(t float64, input []float64) ([]float64, error)

// Step calls the function.
func (f ProcessFn) Step(t float64, input []float64) ([]float64, error) {
	return f(t, input)
}

// Func is the capability carried by a SimPyFunc operator: an external
// function of time and/or an input signal. A nil result means no write this
// step.
type Func interface {
	Call(t float64, x []float64) ([]float64, error)
}

// FuncFn adapts a function to the Func capability.
type FuncFn func(t float64, x []float64) ([]float64, error)

// Call calls the function.
func (f FuncFn) Call(t float64, x []float64) ([]float64, error) {
	return f(t, x)
}
