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

package num_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/nsim/num"
)

func TestVecIndexed(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5}
	v := num.Vec{Data: data, Idx: []int{1, 3, 5}}
	if v.Len() != 3 {
		t.Fatalf("Len() = %d but want 3", v.Len())
	}
	if got := v.Snapshot(); !cmp.Equal(got, []float64{1, 3, 5}) {
		t.Errorf("Snapshot() = %v but want [1 3 5]", got)
	}
	v.SetAt(0, 10)
	v.AddAt(2, 1)
	if !cmp.Equal(data, []float64{0, 10, 2, 3, 4, 6}) {
		t.Errorf("backing buffer = %v after SetAt/AddAt", data)
	}
	v.Fill(7)
	if !cmp.Equal(data, []float64{0, 7, 2, 7, 4, 7}) {
		t.Errorf("backing buffer = %v after Fill", data)
	}
	v.Scatter([]float64{1, 2, 3})
	if got := v.Snapshot(); !cmp.Equal(got, []float64{1, 2, 3}) {
		t.Errorf("Snapshot() = %v after Scatter", got)
	}
	v.ScatterAdd([]float64{1, 1, 1})
	if got := v.Snapshot(); !cmp.Equal(got, []float64{2, 3, 4}) {
		t.Errorf("Snapshot() = %v after ScatterAdd", got)
	}
}

func TestCopy(t *testing.T) {
	dst := num.Dense(make([]float64, 3))
	src := num.Vec{Data: []float64{9, 8, 7, 6}, Idx: []int{3, 1, 0}}
	num.Copy(dst, src)
	if !cmp.Equal(dst.Data, []float64{6, 8, 9}) {
		t.Errorf("Copy result = %v but want [6 8 9]", dst.Data)
	}
}

func TestMulInc(t *testing.T) {
	y := num.Dense([]float64{1, 1, 1})
	a := num.Dense([]float64{2, 3, 4})
	x := num.Dense([]float64{5, 6, 7})
	num.MulInc(y, a, x)
	if !cmp.Equal(y.Data, []float64{11, 19, 29}) {
		t.Errorf("MulInc result = %v but want [11 19 29]", y.Data)
	}
}

func TestScaleInc(t *testing.T) {
	y := num.Dense([]float64{1, 1})
	x := num.Dense([]float64{10, 20})
	num.ScaleInc(y, 0.5, x)
	if !cmp.Equal(y.Data, []float64{6, 11}) {
		t.Errorf("ScaleInc result = %v but want [6 11]", y.Data)
	}
}

func TestDotInc(t *testing.T) {
	y := num.Dense([]float64{1})
	a := num.Dense([]float64{2, 3})
	x := num.Dense([]float64{6, 7})
	num.DotInc(y, a, x)
	if !cmp.Equal(y.Data, []float64{34}) {
		t.Errorf("DotInc result = %v but want [34]", y.Data)
	}
}

func TestMatVecInc(t *testing.T) {
	y := num.Dense([]float64{1, 1})
	a := num.Dense([]float64{2, 3, 4, 5})
	x := num.Dense([]float64{6, 7})
	num.MatVecInc(y, a, 2, 2, x)
	if !cmp.Equal(y.Data, []float64{34, 60}) {
		t.Errorf("MatVecInc result = %v but want [34 60]", y.Data)
	}
}

func TestMatVecIncIndexed(t *testing.T) {
	buf := []float64{0, 2, 0, 3, 0, 4, 0, 5}
	a := num.Vec{Data: buf, Idx: []int{1, 3, 5, 7}}
	y := num.Dense([]float64{0, 0})
	x := num.Dense([]float64{6, 7})
	num.MatVecInc(y, a, 2, 2, x)
	if !cmp.Equal(y.Data, []float64{33, 59}) {
		t.Errorf("MatVecInc result = %v but want [33 59]", y.Data)
	}
}
