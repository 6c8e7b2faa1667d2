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

package script

import (
	"github.com/pkg/errors"
	"go.starlark.net/starlark"
)

func toList(xs []float64) *starlark.List {
	elems := make([]starlark.Value, len(xs))
	for i, x := range xs {
		elems[i] = starlark.Float(x)
	}
	return starlark.NewList(elems)
}

// fromValue converts a Starlark result into an array of float64. None means
// no value; a number becomes a one-element array; a list or tuple of
// numbers converts element by element.
func fromValue(v starlark.Value) ([]float64, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Float:
		return []float64{float64(v)}, nil
	case starlark.Int:
		f, ok := starlark.AsFloat(v)
		if !ok {
			return nil, errors.Errorf("cannot convert %s to a float", v.String())
		}
		return []float64{f}, nil
	case starlark.Indexable:
		out := make([]float64, v.Len())
		for i := range out {
			f, ok := starlark.AsFloat(v.Index(i))
			if !ok {
				return nil, errors.Errorf("element %d is a %s, not a number", i, v.Index(i).Type())
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, errors.Errorf("cannot convert a %s to an array", v.Type())
}

// readBack copies a Starlark list mutated by scripted code into its backing
// Go array.
func readBack(list *starlark.List, dst []float64) error {
	if list.Len() != len(dst) {
		return errors.Errorf("list has %d elements but the array has %d", list.Len(), len(dst))
	}
	for i := range dst {
		f, ok := starlark.AsFloat(list.Index(i))
		if !ok {
			return errors.Errorf("element %d is a %s, not a number", i, list.Index(i).Type())
		}
		dst[i] = f
	}
	return nil
}
