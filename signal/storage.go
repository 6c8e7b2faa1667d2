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

package signal

import (
	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/nsim/fmt/fmtarray"
	"github.com/gx-org/nsim/num"
)

// Element is the set of Go types a signal buffer can hold.
type Element interface {
	float64 | uint64
}

// Storage is the backing buffer of an owning signal.
type Storage interface {
	// Name of the signal owning the storage.
	Name() string
	// Shape of the buffer.
	Shape() *shape.Shape
	// Reset overwrites the buffer with its declared initial value.
	Reset()
	// String returns a shaped rendering of the current content.
	String() string
}

// Array is a contiguous buffer of T elements with a retained initial value.
type Array[T Element] struct {
	name   string
	sh     *shape.Shape
	values []T
	init   []T
}

func newArray[T Element](name string, sh *shape.Shape, init []T) (*Array[T], error) {
	size := sh.Size()
	full := make([]T, size)
	switch len(init) {
	case 0:
	case 1:
		for i := range full {
			full[i] = init[0]
		}
	case size:
		copy(full, init)
	default:
		return nil, errors.Errorf("initial value has %d elements for shape %s", len(init), sh.String())
	}
	a := &Array[T]{name: name, sh: sh, init: full}
	a.values = make([]T, size)
	copy(a.values, a.init)
	return a, nil
}

// Name of the signal owning the storage.
func (a *Array[T]) Name() string {
	return a.name
}

// Shape of the buffer.
func (a *Array[T]) Shape() *shape.Shape {
	return a.sh
}

// Values returns the mutable backing slice.
func (a *Array[T]) Values() []T {
	return a.values
}

// Reset overwrites the buffer with its declared initial value.
func (a *Array[T]) Reset() {
	copy(a.values, a.init)
}

func (a *Array[T]) String() string {
	return a.name + "=" + fmtarray.SDataPrint(a.values, a.sh.AxisLengths)
}

// F64 returns the storage as a float64 buffer.
func F64(s Storage) (*Array[float64], error) {
	a, ok := s.(*Array[float64])
	if !ok {
		return nil, errors.Errorf("signal %s has element type %s: float64 required", s.Name(), s.Shape().DType.String())
	}
	return a, nil
}

// U64 returns the storage as a uint64 buffer.
func U64(s Storage) (*Array[uint64], error) {
	a, ok := s.(*Array[uint64])
	if !ok {
		return nil, errors.Errorf("signal %s has element type %s: uint64 required", s.Name(), s.Shape().DType.String())
	}
	return a, nil
}

// Ref is a compiled operand handle: the owning storage of a registered
// signal plus the flat offsets the signal addresses in it. A nil offset
// list means the whole buffer in order.
type Ref struct {
	name    string
	store   Storage
	sh      *shape.Shape
	offsets []int
}

// Name of the signal the handle was compiled from.
func (r Ref) Name() string {
	return r.name
}

// Shape addressed by the handle.
func (r Ref) Shape() *shape.Shape {
	return r.sh
}

// DType of the addressed elements.
func (r Ref) DType() dtype.DataType {
	return r.sh.DType
}

// Len returns the number of addressed elements.
func (r Ref) Len() int {
	return r.sh.Size()
}

// Float64 returns the addressed elements as a kernel vector. The signal
// must have element type float64.
func (r Ref) Float64() (num.Vec, error) {
	a, err := F64(r.store)
	if err != nil {
		return num.Vec{}, err
	}
	return num.Vec{Data: a.Values(), Idx: r.offsets}, nil
}

// Uint64 returns the full backing buffer of a dense uint64 signal.
func (r Ref) Uint64() ([]uint64, error) {
	a, err := U64(r.store)
	if err != nil {
		return nil, err
	}
	if r.offsets != nil {
		return nil, errors.Errorf("signal %s: strided access to a uint64 signal is not supported", r.name)
	}
	return a.Values(), nil
}

// Snapshot returns a copy of the addressed elements in row-major order,
// converted to float64.
func (r Ref) Snapshot() []float64 {
	switch a := r.store.(type) {
	case *Array[float64]:
		return num.Vec{Data: a.Values(), Idx: r.offsets}.Snapshot()
	case *Array[uint64]:
		values := a.Values()
		out := make([]float64, r.Len())
		if r.offsets == nil {
			for i, x := range values {
				out[i] = float64(x)
			}
			return out
		}
		for i, j := range r.offsets {
			out[i] = float64(values[j])
		}
		return out
	}
	return nil
}

func (r Ref) String() string {
	return r.name + ":" + r.sh.String()
}
