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

// Package num implements the numeric kernels of the step loop.
//
// A Vec addresses float64 elements of a backing buffer either densely or
// through a precomputed index list, so a kernel runs identically on an
// owning signal and on a strided view of it. Kernels perform no shape
// checking: operand compatibility is validated by the operators before
// their first execution.
package num

// Vec is a vector of float64 elements. Data is the backing buffer; when Idx
// is non-nil, element i of the vector lives at Data[Idx[i]].
type Vec struct {
	Data []float64
	Idx  []int
}

// Dense returns a Vec addressing all of data in order.
func Dense(data []float64) Vec {
	return Vec{Data: data}
}

// Len returns the number of elements.
func (v Vec) Len() int {
	if v.Idx != nil {
		return len(v.Idx)
	}
	return len(v.Data)
}

// At returns element i.
func (v Vec) At(i int) float64 {
	if v.Idx != nil {
		return v.Data[v.Idx[i]]
	}
	return v.Data[i]
}

// SetAt sets element i.
func (v Vec) SetAt(i int, x float64) {
	if v.Idx != nil {
		v.Data[v.Idx[i]] = x
		return
	}
	v.Data[i] = x
}

// AddAt adds x to element i.
func (v Vec) AddAt(i int, x float64) {
	if v.Idx != nil {
		v.Data[v.Idx[i]] += x
		return
	}
	v.Data[i] += x
}

// Fill sets every element to x.
func (v Vec) Fill(x float64) {
	if v.Idx == nil {
		for i := range v.Data {
			v.Data[i] = x
		}
		return
	}
	for _, j := range v.Idx {
		v.Data[j] = x
	}
}

// Gather copies the elements of v into dst in order.
func (v Vec) Gather(dst []float64) {
	if v.Idx == nil {
		copy(dst, v.Data)
		return
	}
	for i, j := range v.Idx {
		dst[i] = v.Data[j]
	}
}

// Scatter overwrites the elements of v with src in order.
func (v Vec) Scatter(src []float64) {
	if v.Idx == nil {
		copy(v.Data, src)
		return
	}
	for i, j := range v.Idx {
		v.Data[j] = src[i]
	}
}

// ScatterAdd adds src to the elements of v in order.
func (v Vec) ScatterAdd(src []float64) {
	if v.Idx == nil {
		for i, x := range src {
			v.Data[i] += x
		}
		return
	}
	for i, j := range v.Idx {
		v.Data[j] += src[i]
	}
}

// Snapshot returns a copy of the elements of v in order.
func (v Vec) Snapshot() []float64 {
	out := make([]float64, v.Len())
	v.Gather(out)
	return out
}

// Copy assigns src to dst element by element. Both vectors must have the
// same length.
func Copy(dst, src Vec) {
	if dst.Idx == nil && src.Idx == nil {
		copy(dst.Data, src.Data)
		return
	}
	for i := range src.Len() {
		dst.SetAt(i, src.At(i))
	}
}

// MulInc performs y += a * x element by element. All vectors must have the
// same length.
func MulInc(y, a, x Vec) {
	if y.Idx == nil && a.Idx == nil && x.Idx == nil {
		for i := range y.Data {
			y.Data[i] += a.Data[i] * x.Data[i]
		}
		return
	}
	for i := range y.Len() {
		y.AddAt(i, a.At(i)*x.At(i))
	}
}

// ScaleInc performs y += a * x with a scalar coefficient. y and x must have
// the same length.
func ScaleInc(y Vec, a float64, x Vec) {
	if y.Idx == nil && x.Idx == nil {
		for i := range y.Data {
			y.Data[i] += a * x.Data[i]
		}
		return
	}
	for i := range y.Len() {
		y.AddAt(i, a*x.At(i))
	}
}

// DotInc performs y[0] += a . x, the inner product of two vectors of the
// same length.
func DotInc(y, a, x Vec) {
	var acc float64
	if a.Idx == nil && x.Idx == nil {
		for i, ai := range a.Data {
			acc += ai * x.Data[i]
		}
	} else {
		for i := range a.Len() {
			acc += a.At(i) * x.At(i)
		}
	}
	y.AddAt(0, acc)
}

// MatVecInc performs y += A . x where a holds a rows by cols matrix in
// row-major order, x has cols elements and y has rows elements.
func MatVecInc(y, a Vec, rows, cols int, x Vec) {
	for r := range rows {
		var acc float64
		base := r * cols
		if a.Idx == nil && x.Idx == nil {
			row := a.Data[base : base+cols]
			for c, ac := range row {
				acc += ac * x.Data[c]
			}
		} else {
			for c := range cols {
				acc += a.At(base+c) * x.At(c)
			}
		}
		y.AddAt(r, acc)
	}
}
