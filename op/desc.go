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

package op

import (
	"github.com/gx-org/nsim/signal"
)

// Desc declares one operator of the model, as handed to the compiler by the
// model builder.
type Desc struct {
	// Kind of the operator.
	Kind Kind
	// Dst is the destination or output signal.
	Dst *signal.Signal
	// Src is the source signal of a Copy.
	Src *signal.Signal
	// A is the coefficient operand of ElementwiseInc and DotInc.
	A *signal.Signal
	// X is the input operand.
	X *signal.Signal
	// Value is the literal written by Reset. A single element fills the
	// whole destination.
	Value []float64
	// DT is the time increment of TimeUpdate and SimNeurons.
	DT float64
	// Inc selects accumulate mode for SimProcess.
	Inc bool
	// WithTime passes the current time to a SimPyFunc function.
	WithTime bool
	// Neurons is the step capability of SimNeurons.
	Neurons Neurons
	// Process is the step capability of SimProcess.
	Process Process
	// Func is the capability of SimPyFunc.
	Func Func
	// State holds the initial per-operator state arrays of SimNeurons.
	State map[string][]float64
	// DependsOn lists the indices of the descriptors that must execute
	// before this one.
	DependsOn []int
}

// NewReset declares an operator writing value into dst every step.
func NewReset(dst *signal.Signal, value []float64, deps ...int) *Desc {
	return &Desc{Kind: Reset, Dst: dst, Value: value, DependsOn: deps}
}

// NewTimeUpdate declares the operator advancing the implicit step counter
// and recomputing the elapsed time as step times dt.
func NewTimeUpdate(dt float64, deps ...int) *Desc {
	return &Desc{Kind: TimeUpdate, DT: dt, DependsOn: deps}
}

// NewElementwiseInc declares y += a * x, pointwise. An operand of size one
// broadcasts over the other.
func NewElementwiseInc(y, a, x *signal.Signal, deps ...int) *Desc {
	return &Desc{Kind: ElementwiseInc, Dst: y, A: a, X: x, DependsOn: deps}
}

// NewCopy declares dst := src for signals of equal shape.
func NewCopy(dst, src *signal.Signal, deps ...int) *Desc {
	return &Desc{Kind: Copy, Dst: dst, Src: src, DependsOn: deps}
}

// NewDotInc declares y += a . x: a matrix-vector product when a has two
// axes, an inner product into a one-element y when a has one.
func NewDotInc(y, a, x *signal.Signal, deps ...int) *Desc {
	return &Desc{Kind: DotInc, Dst: y, A: a, X: x, DependsOn: deps}
}

// NewSimNeurons declares a stateful neuron update reading the input current
// j and writing out. The state arrays are carried by the engine and passed
// to neurons on every step.
func NewSimNeurons(dt float64, j, out *signal.Signal, state map[string][]float64, neurons Neurons, deps ...int) *Desc {
	return &Desc{Kind: SimNeurons, DT: dt, X: j, Dst: out, State: state, Neurons: neurons, DependsOn: deps}
}

// NewSimProcess declares an external per-step transformation writing out
// from an optional input x. When inc is true the result accumulates into
// the output instead of overwriting it.
func NewSimProcess(out, x *signal.Signal, inc bool, process Process, deps ...int) *Desc {
	return &Desc{Kind: SimProcess, Dst: out, X: x, Inc: inc, Process: process, DependsOn: deps}
}

// NewSimPyFunc declares an external function writing out from the current
// time (when withTime is true) and/or an optional input x.
func NewSimPyFunc(out, x *signal.Signal, withTime bool, fn Func, deps ...int) *Desc {
	return &Desc{Kind: SimPyFunc, Dst: out, X: x, WithTime: withTime, Func: fn, DependsOn: deps}
}
