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
	"fmt"

	"github.com/pkg/errors"
	"github.com/gx-org/nsim/num"
	"github.com/gx-org/nsim/signal"
)

// Operator is a compiled operator record executed once per step.
type Operator interface {
	// Step applies the operator's numeric effect to its signals.
	Step() error
	// String identifies the operator in errors and dumps.
	String() string
}

// Resetter is implemented by operators carrying per-operator state that
// must be restored when the engine resets.
type Resetter interface {
	Reset()
}

// UnsupportedError reports an operator kind with no execution semantics.
// It is fatal at compile time: operators are never silently dropped.
type UnsupportedError struct {
	// Kind of the unsupported operator.
	Kind Kind
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("operator kind %s has no execution semantics", e.Kind.String())
}

// ShapeError reports operand shapes incompatible with an operator's
// semantics, detected at the operator's first execution.
type ShapeError struct {
	// Op identifies the offending operator.
	Op string
	// Err describes the incompatibility.
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

func shapeErrorf(op Operator, format string, a ...any) error {
	return &ShapeError{Op: op.String(), Err: errors.Errorf(format, a...)}
}

// Build translates a descriptor into a compiled operator record,
// registering every referenced signal in the table. The kind switch is
// exhaustive: a kind outside the enumerated set is an UnsupportedError.
func Build(tbl *signal.Table, d *Desc) (Operator, error) {
	switch d.Kind {
	case Reset:
		return buildReset(tbl, d)
	case TimeUpdate:
		return buildTimeUpdate(tbl, d)
	case ElementwiseInc:
		return buildElementwiseInc(tbl, d)
	case Copy:
		return buildCopy(tbl, d)
	case DotInc:
		return buildDotInc(tbl, d)
	case SimNeurons:
		return buildSimNeurons(tbl, d)
	case SimProcess:
		return buildSimProcess(tbl, d)
	case SimPyFunc:
		return buildSimPyFunc(tbl, d)
	default:
		return nil, &UnsupportedError{Kind: d.Kind}
	}
}

func registerF64(tbl *signal.Table, s *signal.Signal) (signal.Ref, num.Vec, error) {
	id, err := tbl.Register(s)
	if err != nil {
		return signal.Ref{}, num.Vec{}, err
	}
	ref := tbl.Ref(id)
	vec, err := ref.Float64()
	if err != nil {
		return signal.Ref{}, num.Vec{}, err
	}
	return ref, vec, nil
}

// resetOp writes a literal value into its destination.
type resetOp struct {
	dst     signal.Ref
	dstV    num.Vec
	value   []float64
	checked bool
}

func buildReset(tbl *signal.Table, d *Desc) (Operator, error) {
	dst, dstV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	return &resetOp{dst: dst, dstV: dstV, value: d.Value}, nil
}

func (o *resetOp) Step() error {
	if !o.checked {
		if len(o.value) != 1 && len(o.value) != o.dstV.Len() {
			return shapeErrorf(o, "literal has %d elements for destination shape %s", len(o.value), o.dst.Shape().String())
		}
		o.checked = true
	}
	if len(o.value) == 1 {
		o.dstV.Fill(o.value[0])
		return nil
	}
	o.dstV.Scatter(o.value)
	return nil
}

func (o *resetOp) String() string {
	return fmt.Sprintf("Reset(%s)", o.dst.Name())
}

// timeUpdate advances the step counter and recomputes the elapsed time from
// it, so floating error never accumulates across steps.
type timeUpdate struct {
	dt   float64
	step []uint64
	time num.Vec
}

func buildTimeUpdate(tbl *signal.Table, d *Desc) (Operator, error) {
	stepRef, ok := tbl.Lookup(tbl.StepSignal())
	if !ok {
		return nil, errors.Errorf("the step signal is not registered")
	}
	step, err := stepRef.Uint64()
	if err != nil {
		return nil, err
	}
	timeRef, ok := tbl.Lookup(tbl.TimeSignal())
	if !ok {
		return nil, errors.Errorf("the time signal is not registered")
	}
	time, err := timeRef.Float64()
	if err != nil {
		return nil, err
	}
	return &timeUpdate{dt: d.DT, step: step, time: time}, nil
}

func (o *timeUpdate) Step() error {
	o.step[0]++
	o.time.SetAt(0, float64(o.step[0])*o.dt)
	return nil
}

func (o *timeUpdate) String() string {
	return fmt.Sprintf("TimeUpdate(dt=%v)", o.dt)
}

// elementwiseInc accumulates a pointwise product into its destination. An
// operand of size one broadcasts over the other.
type elementwiseInc struct {
	y, a, x    signal.Ref
	yV, aV, xV num.Vec
	checked    bool
}

func buildElementwiseInc(tbl *signal.Table, d *Desc) (Operator, error) {
	y, yV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	a, aV, err := registerF64(tbl, d.A)
	if err != nil {
		return nil, err
	}
	x, xV, err := registerF64(tbl, d.X)
	if err != nil {
		return nil, err
	}
	return &elementwiseInc{y: y, a: a, x: x, yV: yV, aV: aV, xV: xV}, nil
}

func (o *elementwiseInc) check() error {
	yl, al, xl := o.yV.Len(), o.aV.Len(), o.xV.Len()
	switch {
	case al == 1 && xl == 1:
		if yl != 1 {
			return shapeErrorf(o, "both operands are scalar but the destination has %d elements", yl)
		}
	case al == 1:
		if xl != yl {
			return shapeErrorf(o, "operand %s has %d elements, destination %s has %d", o.x.Name(), xl, o.y.Name(), yl)
		}
	case xl == 1:
		if al != yl {
			return shapeErrorf(o, "operand %s has %d elements, destination %s has %d", o.a.Name(), al, o.y.Name(), yl)
		}
	default:
		if al != xl || al != yl {
			return shapeErrorf(o, "operands have %d, %d and %d elements: not broadcast-compatible", yl, al, xl)
		}
	}
	return nil
}

func (o *elementwiseInc) Step() error {
	if !o.checked {
		if err := o.check(); err != nil {
			return err
		}
		o.checked = true
	}
	switch {
	case o.aV.Len() == 1:
		num.ScaleInc(o.yV, o.aV.At(0), o.xV)
	case o.xV.Len() == 1:
		num.ScaleInc(o.yV, o.xV.At(0), o.aV)
	default:
		num.MulInc(o.yV, o.aV, o.xV)
	}
	return nil
}

func (o *elementwiseInc) String() string {
	return fmt.Sprintf("ElementwiseInc(%s += %s * %s)", o.y.Name(), o.a.Name(), o.x.Name())
}

// copyOp overwrites its destination with a source of equal shape.
type copyOp struct {
	dst, src   signal.Ref
	dstV, srcV num.Vec
	checked    bool
}

func buildCopy(tbl *signal.Table, d *Desc) (Operator, error) {
	dst, dstV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	src, srcV, err := registerF64(tbl, d.Src)
	if err != nil {
		return nil, err
	}
	return &copyOp{dst: dst, src: src, dstV: dstV, srcV: srcV}, nil
}

func (o *copyOp) Step() error {
	if !o.checked {
		if o.dstV.Len() != o.srcV.Len() {
			return shapeErrorf(o, "source shape %s does not match destination shape %s", o.src.Shape().String(), o.dst.Shape().String())
		}
		o.checked = true
	}
	num.Copy(o.dstV, o.srcV)
	return nil
}

func (o *copyOp) String() string {
	return fmt.Sprintf("Copy(%s := %s)", o.dst.Name(), o.src.Name())
}

// dotInc accumulates a contraction into its destination: a matrix-vector
// product when the coefficient has two axes, an inner product into a
// one-element destination when it has at most one.
type dotInc struct {
	y, a, x    signal.Ref
	yV, aV, xV num.Vec
	rows, cols int
	matrix     bool
	checked    bool
}

func buildDotInc(tbl *signal.Table, d *Desc) (Operator, error) {
	y, yV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	a, aV, err := registerF64(tbl, d.A)
	if err != nil {
		return nil, err
	}
	x, xV, err := registerF64(tbl, d.X)
	if err != nil {
		return nil, err
	}
	o := &dotInc{y: y, a: a, x: x, yV: yV, aV: aV, xV: xV}
	if dims := a.Shape().AxisLengths; len(dims) == 2 {
		o.matrix = true
		o.rows, o.cols = dims[0], dims[1]
	}
	return o, nil
}

func (o *dotInc) check() error {
	if len(o.a.Shape().AxisLengths) > 2 {
		return shapeErrorf(o, "coefficient %s has shape %s: at most two axes are supported", o.a.Name(), o.a.Shape().String())
	}
	if o.matrix {
		if o.xV.Len() != o.cols {
			return shapeErrorf(o, "input %s has %d elements for a %dx%d coefficient", o.x.Name(), o.xV.Len(), o.rows, o.cols)
		}
		if o.yV.Len() != o.rows {
			return shapeErrorf(o, "destination %s has %d elements for a %dx%d coefficient", o.y.Name(), o.yV.Len(), o.rows, o.cols)
		}
		return nil
	}
	if o.xV.Len() != o.aV.Len() {
		return shapeErrorf(o, "operands %s and %s have %d and %d elements", o.a.Name(), o.x.Name(), o.aV.Len(), o.xV.Len())
	}
	if o.yV.Len() != 1 {
		return shapeErrorf(o, "destination %s of an inner product has %d elements", o.y.Name(), o.yV.Len())
	}
	return nil
}

func (o *dotInc) Step() error {
	if !o.checked {
		if err := o.check(); err != nil {
			return err
		}
		o.checked = true
	}
	if o.matrix {
		num.MatVecInc(o.yV, o.aV, o.rows, o.cols, o.xV)
		return nil
	}
	num.DotInc(o.yV, o.aV, o.xV)
	return nil
}

func (o *dotInc) String() string {
	return fmt.Sprintf("DotInc(%s += %s . %s)", o.y.Name(), o.a.Name(), o.x.Name())
}

// simNeurons applies a stateful neuron update to the input current. The
// state arrays are owned by the operator record and handed to the
// capability on every call; their initial content is restored on reset.
type simNeurons struct {
	dt        float64
	j, out    signal.Ref
	jV, outV  num.Vec
	jBuf      []float64
	outBuf    []float64
	state     map[string][]float64
	initState map[string][]float64
	neurons   Neurons
}

func buildSimNeurons(tbl *signal.Table, d *Desc) (Operator, error) {
	if d.Neurons == nil {
		return nil, errors.Errorf("SimNeurons(%s): no step capability", d.Dst.Name)
	}
	j, jV, err := registerF64(tbl, d.X)
	if err != nil {
		return nil, err
	}
	out, outV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	o := &simNeurons{
		dt: d.DT,
		j:  j, out: out,
		jV: jV, outV: outV,
		jBuf:    make([]float64, jV.Len()),
		outBuf:  make([]float64, outV.Len()),
		state:   make(map[string][]float64, len(d.State)),
		neurons: d.Neurons,
	}
	for k, v := range d.State {
		o.state[k] = append([]float64(nil), v...)
	}
	o.initState = d.State
	return o, nil
}

func (o *simNeurons) Step() error {
	o.jV.Gather(o.jBuf)
	if err := o.neurons.Step(o.dt, o.jBuf, o.outBuf, o.state); err != nil {
		return fmt.Errorf("%s: %w", o.String(), err)
	}
	o.outV.Scatter(o.outBuf)
	return nil
}

// Reset restores the state arrays to their declared initial content.
func (o *simNeurons) Reset() {
	for k, v := range o.initState {
		copy(o.state[k], v)
	}
}

func (o *simNeurons) String() string {
	return fmt.Sprintf("SimNeurons(%s := neurons(%s))", o.out.Name(), o.j.Name())
}

// simProcess applies an external per-step transformation. A nil result
// skips the write; otherwise the result overwrites or accumulates into the
// output depending on the declared mode.
type simProcess struct {
	inc     bool
	time    num.Vec
	hasX    bool
	xV      num.Vec
	xBuf    []float64
	out     signal.Ref
	outV    num.Vec
	process Process
}

func buildSimProcess(tbl *signal.Table, d *Desc) (Operator, error) {
	if d.Process == nil {
		return nil, errors.Errorf("SimProcess(%s): no step capability", d.Dst.Name)
	}
	timeRef, ok := tbl.Lookup(tbl.TimeSignal())
	if !ok {
		return nil, errors.Errorf("the time signal is not registered")
	}
	time, err := timeRef.Float64()
	if err != nil {
		return nil, err
	}
	out, outV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	o := &simProcess{inc: d.Inc, time: time, out: out, outV: outV, process: d.Process}
	if d.X != nil {
		_, xV, err := registerF64(tbl, d.X)
		if err != nil {
			return nil, err
		}
		o.hasX = true
		o.xV = xV
		o.xBuf = make([]float64, xV.Len())
	}
	return o, nil
}

func (o *simProcess) Step() error {
	var in []float64
	if o.hasX {
		o.xV.Gather(o.xBuf)
		in = o.xBuf
	}
	res, err := o.process.Step(o.time.At(0), in)
	if err != nil {
		return fmt.Errorf("%s: %w", o.String(), err)
	}
	if res == nil {
		return nil
	}
	if len(res) != o.outV.Len() {
		return shapeErrorf(o, "step result has %d elements for output shape %s", len(res), o.out.Shape().String())
	}
	if o.inc {
		o.outV.ScatterAdd(res)
		return nil
	}
	o.outV.Scatter(res)
	return nil
}

func (o *simProcess) String() string {
	mode := ":="
	if o.inc {
		mode = "+="
	}
	return fmt.Sprintf("SimProcess(%s %s process(t))", o.out.Name(), mode)
}

// simPyFunc applies an external function of time and/or an input signal,
// overwriting the output. A nil result skips the write.
type simPyFunc struct {
	withTime bool
	time     num.Vec
	hasX     bool
	xV       num.Vec
	xBuf     []float64
	out      signal.Ref
	outV     num.Vec
	fn       Func
}

func buildSimPyFunc(tbl *signal.Table, d *Desc) (Operator, error) {
	if d.Func == nil {
		return nil, errors.Errorf("SimPyFunc(%s): no capability", d.Dst.Name)
	}
	timeRef, ok := tbl.Lookup(tbl.TimeSignal())
	if !ok {
		return nil, errors.Errorf("the time signal is not registered")
	}
	time, err := timeRef.Float64()
	if err != nil {
		return nil, err
	}
	out, outV, err := registerF64(tbl, d.Dst)
	if err != nil {
		return nil, err
	}
	o := &simPyFunc{withTime: d.WithTime, time: time, out: out, outV: outV, fn: d.Func}
	if d.X != nil {
		_, xV, err := registerF64(tbl, d.X)
		if err != nil {
			return nil, err
		}
		o.hasX = true
		o.xV = xV
		o.xBuf = make([]float64, xV.Len())
	}
	return o, nil
}

func (o *simPyFunc) Step() error {
	var t float64
	if o.withTime {
		t = o.time.At(0)
	}
	var in []float64
	if o.hasX {
		o.xV.Gather(o.xBuf)
		in = o.xBuf
	}
	res, err := o.fn.Call(t, in)
	if err != nil {
		return fmt.Errorf("%s: %w", o.String(), err)
	}
	if res == nil {
		return nil
	}
	if len(res) != o.outV.Len() {
		return shapeErrorf(o, "result has %d elements for output shape %s", len(res), o.out.Shape().String())
	}
	o.outV.Scatter(res)
	return nil
}

func (o *simPyFunc) String() string {
	return fmt.Sprintf("SimPyFunc(%s)", o.out.Name())
}
