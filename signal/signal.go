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

// Package signal defines simulation signals and their storage.
//
// A signal is a named, typed, multi-dimensional piece of simulation state.
// An owning signal allocates its own backing buffer; a view signal
// addresses a strided sub-range of another signal's buffer. Signal values
// declare the model; the Table turns declarations into storage and resolved
// view descriptors at compile time.
package signal

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/nsim/stride"
)

// Signal declares one signal of the model. A Signal is identified by its
// pointer: registering the same *Signal twice yields the same handle.
type Signal struct {
	// Name of the signal, used in error messages and string dumps.
	Name string
	// Shape of the signal. Only dtype.Float64 and dtype.Uint64 are valid
	// element types.
	Shape *shape.Shape
	// Init is the initial value of an owning float64 signal. A single
	// element fills the whole buffer; nil means zeros.
	Init []float64
	// InitU64 is the initial value of an owning uint64 signal.
	InitU64 []uint64
	// Base is the signal this signal is a view of, or nil for an owning
	// signal.
	Base *Signal
	// ElemOffset is the flat element offset of the view's first element,
	// relative to the base's first element, in base element units.
	ElemOffset int
	// ElemStrides are the view's per-axis element strides, in the same
	// units as the base's element strides.
	ElemStrides []int
}

// New returns an owning float64 signal of the given axis lengths,
// initialized to zeros.
func New(name string, dims ...int) *Signal {
	return &Signal{
		Name:  name,
		Shape: &shape.Shape{DType: dtype.Float64, AxisLengths: dims},
	}
}

// NewInit returns an owning float64 signal with an initial value. A single
// init element fills the whole buffer on reset.
func NewInit(name string, init []float64, dims ...int) *Signal {
	s := New(name, dims...)
	s.Init = init
	return s
}

// Scalar returns an owning scalar float64 signal.
func Scalar(name string, value float64) *Signal {
	return NewInit(name, []float64{value})
}

// NewU64 returns an owning scalar uint64 signal.
func NewU64(name string, init uint64) *Signal {
	return &Signal{
		Name:    name,
		Shape:   &shape.Shape{DType: dtype.Uint64},
		InitU64: []uint64{init},
	}
}

// View returns a view into s. The offset is the flat element offset of the
// view's first element relative to s's first element; strides are the
// view's per-axis element strides in the same units as s's strides; dims
// are the view's axis lengths.
func (s *Signal) View(name string, offset int, strides []int, dims []int) *Signal {
	return &Signal{
		Name:        name,
		Shape:       &shape.Shape{DType: s.Shape.DType, AxisLengths: dims},
		Base:        s,
		ElemOffset:  offset,
		ElemStrides: strides,
	}
}

// IsView returns true if the signal addresses another signal's storage.
func (s *Signal) IsView() bool {
	return s.Base != nil
}

func (s *Signal) dims() []int {
	return s.Shape.AxisLengths
}

// elemStrides returns the signal's per-axis element strides: the declared
// strides for a view, contiguous row-major strides for an owning signal.
func (s *Signal) elemStrides() []int {
	if s.Base != nil {
		return s.ElemStrides
	}
	return stride.ElemStrides(s.dims())
}

func (s *Signal) String() string {
	if s.IsView() {
		return fmt.Sprintf("%s:%s=view(%s)", s.Name, s.Shape.String(), s.Base.Name)
	}
	return fmt.Sprintf("%s:%s", s.Name, s.Shape.String())
}

// ConstructionError reports a signal declaration that cannot be turned into
// storage or a resolved view, naming the offending signal.
type ConstructionError struct {
	// Name of the signal that cannot be constructed.
	Name string
	// Err is the underlying cause.
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("cannot construct signal %s: %v", e.Name, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}
