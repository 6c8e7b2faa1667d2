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

// Package stride recovers strided array views from flat-offset metadata.
//
// A view into a multi-dimensional array is described externally by a flat
// element offset into the base buffer plus per-axis element strides. This
// package translates that description into per-axis (start, stop, step)
// ranges relative to the base array and composes chained views down to a
// single range list addressing the owning buffer directly.
package stride

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Range selects the elements start, start+step, ... strictly below stop
// along one axis.
type Range struct {
	Start, Stop, Step int
}

// Len returns the number of elements the range selects.
func (r Range) Len() int {
	if r.Stop <= r.Start {
		return 0
	}
	return (r.Stop - r.Start + r.Step - 1) / r.Step
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d:%d", r.Start, r.Stop, r.Step)
}

// Ranges is a per-axis range list, outermost axis first.
type Ranges []Range

func (rs Ranges) String() string {
	ss := make([]string, len(rs))
	for i, r := range rs {
		ss[i] = r.String()
	}
	return "[" + strings.Join(ss, ", ") + "]"
}

// Dims returns the per-axis number of selected elements.
func (rs Ranges) Dims() []int {
	dims := make([]int, len(rs))
	for i, r := range rs {
		dims[i] = r.Len()
	}
	return dims
}

// Size returns the total number of selected elements.
func (rs Ranges) Size() int {
	size := 1
	for _, r := range rs {
		size *= r.Len()
	}
	return size
}

// ElemStrides returns the row-major element strides of a contiguous array
// with the given axis lengths.
func ElemStrides(dims []int) []int {
	strides := make([]int, len(dims))
	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= dims[i]
	}
	return strides
}

// MultiIndex decomposes a flat element offset into per-axis coordinates
// given the base array's element strides, most significant axis first.
func MultiIndex(offset int, baseStrides []int) []int {
	index := make([]int, len(baseStrides))
	remainder := offset
	for i, divisor := range baseStrides {
		index[i] = remainder / divisor
		remainder = remainder % divisor
	}
	return index
}

// Flatten is the inverse of MultiIndex: it folds per-axis coordinates back
// into a flat element offset.
func Flatten(index []int, baseStrides []int) int {
	offset := 0
	for i, x := range index {
		offset += x * baseStrides[i]
	}
	return offset
}

// Steps returns the per-axis step of a view whose element strides are an
// exact multiple of the base element strides. A non-integral ratio means the
// view cannot be expressed as a strided range of the base and is an error.
func Steps(strides, baseStrides []int) ([]int, error) {
	if len(strides) != len(baseStrides) {
		return nil, errors.Errorf("stride rank mismatch: %v vs %v", strides, baseStrides)
	}
	steps := make([]int, len(strides))
	for i, stride := range strides {
		base := baseStrides[i]
		if base <= 0 {
			return nil, errors.Errorf("invalid base stride %d on axis %d", base, i)
		}
		if stride%base != 0 {
			return nil, errors.Errorf("stride %d on axis %d is not a multiple of base stride %d", stride, i, base)
		}
		steps[i] = stride / base
		if steps[i] <= 0 {
			return nil, errors.Errorf("non-positive step %d on axis %d", steps[i], i)
		}
	}
	return steps, nil
}

// Resolve computes the per-axis ranges of a view given its flat element
// offset, its element strides and axis lengths, and its base's element
// strides and axis lengths. The stop bound of each range is clamped to the
// base's extent so that the last selected element stays in bounds.
func Resolve(offset int, strides, dims, baseStrides, baseDims []int) (Ranges, error) {
	if len(dims) != len(baseDims) {
		return nil, errors.Errorf("rank mismatch: view has %d axes, base has %d", len(dims), len(baseDims))
	}
	if len(strides) != len(dims) {
		return nil, errors.Errorf("view has %d strides for %d axes", len(strides), len(dims))
	}
	if offset < 0 {
		return nil, errors.Errorf("negative element offset %d", offset)
	}
	steps, err := Steps(strides, baseStrides)
	if err != nil {
		return nil, err
	}
	starts := MultiIndex(offset, baseStrides)
	rs := make(Ranges, len(dims))
	for i := range dims {
		start, step, size := starts[i], steps[i], dims[i]
		if start >= baseDims[i] {
			return nil, errors.Errorf("start %d out of bounds on axis %d (base size %d)", start, i, baseDims[i])
		}
		stop := min(start+step*size, baseDims[i])
		r := Range{Start: start, Stop: stop, Step: step}
		if r.Len() != size {
			return nil, errors.Errorf("range %s on axis %d selects %d elements, view declares %d", r, i, r.Len(), size)
		}
		rs[i] = r
	}
	return rs, nil
}

// Compose flattens a view of a view: inner addresses elements relative to
// the selection made by outer, and the result addresses the same elements
// relative to outer's own base.
func Compose(outer, inner Ranges) Ranges {
	rs := make(Ranges, len(inner))
	for i, r := range inner {
		o := outer[i]
		rs[i] = Range{
			Start: o.Start + o.Step*r.Start,
			Stop:  o.Start + o.Step*r.Stop,
			Step:  o.Step * r.Step,
		}
	}
	return rs
}

// Offsets materializes the flat element offsets selected by the ranges into
// a base buffer with the given axis lengths, in row-major order over the
// selection.
func (rs Ranges) Offsets(baseDims []int) []int {
	baseStrides := ElemStrides(baseDims)
	offsets := make([]int, 0, rs.Size())
	index := make([]int, len(rs))
	for i, r := range rs {
		index[i] = r.Start
	}
	if rs.Size() == 0 {
		return offsets
	}
	for {
		offsets = append(offsets, Flatten(index, baseStrides))
		axis := len(rs) - 1
		for axis >= 0 {
			index[axis] += rs[axis].Step
			if index[axis] < rs[axis].Stop {
				break
			}
			index[axis] = rs[axis].Start
			axis--
		}
		if axis < 0 {
			return offsets
		}
	}
}
