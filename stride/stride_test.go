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

package stride_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/nsim/stride"
)

func TestMultiIndex(t *testing.T) {
	tests := []struct {
		offset      int
		baseStrides []int
		want        []int
	}{
		{offset: 0, baseStrides: []int{1}, want: []int{0}},
		{offset: 3, baseStrides: []int{3}, want: []int{1}},
		{offset: 10, baseStrides: []int{8, 4, 1}, want: []int{1, 0, 2}},
		{offset: 215, baseStrides: []int{60, 12, 6, 1}, want: []int{3, 2, 1, 5}},
	}
	for _, test := range tests {
		got := stride.MultiIndex(test.offset, test.baseStrides)
		if !cmp.Equal(got, test.want) {
			t.Errorf("MultiIndex(%d, %v) = %v but want %v", test.offset, test.baseStrides, got, test.want)
			continue
		}
		if back := stride.Flatten(got, test.baseStrides); back != test.offset {
			t.Errorf("Flatten(%v, %v) = %d but want %d", got, test.baseStrides, back, test.offset)
		}
	}
}

func TestSteps(t *testing.T) {
	tests := []struct {
		strides     []int
		baseStrides []int
		want        []int
	}{
		{strides: []int{1}, baseStrides: []int{1}, want: []int{1}},
		{strides: []int{480, 192, 192, 24}, baseStrides: []int{480, 96, 48, 8}, want: []int{1, 2, 4, 3}},
	}
	for _, test := range tests {
		got, err := stride.Steps(test.strides, test.baseStrides)
		if err != nil {
			t.Errorf("Steps(%v, %v): unexpected error: %v", test.strides, test.baseStrides, err)
			continue
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("Steps(%v, %v) = %v but want %v", test.strides, test.baseStrides, got, test.want)
		}
	}
}

func TestStepsNonIntegralRatio(t *testing.T) {
	if _, err := stride.Steps([]int{100, 3}, []int{100, 2}); err == nil {
		t.Errorf("Steps on a non-integral stride ratio: got nil error")
	}
	if _, err := stride.Steps([]int{100, 3}, []int{100}); err == nil {
		t.Errorf("Steps on a rank mismatch: got nil error")
	}
}

func TestResolve(t *testing.T) {
	baseDims := []int{20, 20, 20}
	baseStrides := stride.ElemStrides(baseDims)
	if !cmp.Equal(baseStrides, []int{400, 20, 1}) {
		t.Fatalf("ElemStrides(%v) = %v but want %v", baseDims, baseStrides, []int{400, 20, 1})
	}
	tests := []struct {
		name    string
		offset  int
		strides []int
		dims    []int
		want    stride.Ranges
	}{
		{
			// Slicing [:, 2:10:3, ::4]. The stop of the middle axis is
			// clamped to 11, the bound of the last in-bounds element at
			// stride 3 starting at 2.
			name:    "inner slices with steps",
			offset:  2 * 20,
			strides: []int{400, 60, 4},
			dims:    []int{20, 3, 5},
			want: stride.Ranges{
				{Start: 0, Stop: 20, Step: 1},
				{Start: 2, Stop: 11, Step: 3},
				{Start: 0, Stop: 20, Step: 4},
			},
		},
		{
			// Slicing [4:15, :5, 4:].
			name:    "contiguous sub-block",
			offset:  4*400 + 4,
			strides: []int{400, 20, 1},
			dims:    []int{11, 5, 16},
			want: stride.Ranges{
				{Start: 4, Stop: 15, Step: 1},
				{Start: 0, Stop: 5, Step: 1},
				{Start: 4, Stop: 20, Step: 1},
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := stride.Resolve(test.offset, test.strides, test.dims, baseStrides, baseDims)
			if err != nil {
				t.Fatalf("Resolve: unexpected error: %v", err)
			}
			if !cmp.Equal(got, test.want) {
				t.Errorf("Resolve = %v but want %v", got, test.want)
			}
			if !cmp.Equal(got.Dims(), test.dims) {
				t.Errorf("Dims() = %v but want %v", got.Dims(), test.dims)
			}
		})
	}
}

func TestResolveErrors(t *testing.T) {
	baseDims := []int{4, 4}
	baseStrides := []int{4, 1}
	tests := []struct {
		name    string
		offset  int
		strides []int
		dims    []int
	}{
		{name: "non-integral stride ratio", offset: 0, strides: []int{6, 1}, dims: []int{2, 4}},
		{name: "start out of bounds", offset: 17, strides: []int{4, 1}, dims: []int{2, 2}},
		{name: "extent overruns base", offset: 0, strides: []int{4, 1}, dims: []int{5, 4}},
		{name: "rank mismatch", offset: 0, strides: []int{1}, dims: []int{4}},
		{name: "negative offset", offset: -1, strides: []int{4, 1}, dims: []int{2, 2}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := stride.Resolve(test.offset, test.strides, test.dims, baseStrides, baseDims); err == nil {
				t.Errorf("Resolve(%d, %v, %v): got nil error", test.offset, test.strides, test.dims)
			}
		})
	}
}

// TestComposeMatchesDirectResolution checks that resolving a two-level view
// chain in one go equals composing the two single-level resolutions.
func TestComposeMatchesDirectResolution(t *testing.T) {
	rootDims := []int{20, 20, 20}
	rootStrides := stride.ElemStrides(rootDims)

	// First level: [2:18:2, 1:19:3, ::4] of the root.
	starts1 := []int{2, 1, 0}
	steps1 := []int{2, 3, 4}
	dims1 := []int{8, 6, 5}
	strides1 := make([]int, 3)
	offset1 := 0
	for i := range strides1 {
		strides1[i] = steps1[i] * rootStrides[i]
		offset1 += starts1[i] * rootStrides[i]
	}
	outer, err := stride.Resolve(offset1, strides1, dims1, rootStrides, rootDims)
	if err != nil {
		t.Fatalf("cannot resolve the first level: %v", err)
	}

	// Second level: [1:7:2, 2:5, 1:5:3] of the first view. Its offset and
	// strides are expressed in root element units, relative to the first
	// view's origin.
	starts2 := []int{1, 2, 1}
	steps2 := []int{2, 1, 3}
	dims2 := []int{3, 3, 2}
	strides2 := make([]int, 3)
	offset2 := 0
	for i := range strides2 {
		strides2[i] = steps2[i] * strides1[i]
		offset2 += starts2[i] * strides1[i]
	}
	inner, err := stride.Resolve(offset2, strides2, dims2, strides1, dims1)
	if err != nil {
		t.Fatalf("cannot resolve the second level: %v", err)
	}

	// Flatten first: the second view addressed directly in the root frame.
	directOffset := 0
	for i := range starts2 {
		directOffset += (starts1[i] + steps1[i]*starts2[i]) * rootStrides[i]
	}
	direct, err := stride.Resolve(directOffset, strides2, dims2, rootStrides, rootDims)
	if err != nil {
		t.Fatalf("cannot resolve the flattened view: %v", err)
	}

	composed := stride.Compose(outer, inner)
	if !cmp.Equal(composed.Offsets(rootDims), direct.Offsets(rootDims)) {
		t.Errorf("composed ranges %v address %v but direct resolution %v addresses %v",
			composed, composed.Offsets(rootDims), direct, direct.Offsets(rootDims))
	}
	if !cmp.Equal(composed.Dims(), dims2) {
		t.Errorf("composed Dims() = %v but want %v", composed.Dims(), dims2)
	}
}

func TestOffsets(t *testing.T) {
	baseDims := []int{4, 6}
	rs := stride.Ranges{
		{Start: 1, Stop: 4, Step: 2},
		{Start: 0, Stop: 6, Step: 3},
	}
	want := []int{
		1*6 + 0, 1*6 + 3,
		3*6 + 0, 3*6 + 3,
	}
	got := rs.Offsets(baseDims)
	if !cmp.Equal(got, want) {
		t.Errorf("Offsets = %v but want %v", got, want)
	}
	if rs.Size() != len(want) {
		t.Errorf("Size() = %d but want %d", rs.Size(), len(want))
	}
}

func TestOffsetsScalar(t *testing.T) {
	var rs stride.Ranges
	got := rs.Offsets(nil)
	if !cmp.Equal(got, []int{0}) {
		t.Errorf("Offsets of a scalar selection = %v but want [0]", got)
	}
}
