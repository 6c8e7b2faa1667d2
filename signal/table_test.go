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

package signal_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/nsim/signal"
)

func TestRegisterIsIdempotent(t *testing.T) {
	tbl := signal.NewTable()
	s := signal.NewInit("x", []float64{1, 2, 3}, 3)
	id1, err := tbl.Register(s)
	if err != nil {
		t.Fatalf("cannot register the signal: %v", err)
	}
	id2, err := tbl.Register(s)
	if err != nil {
		t.Fatalf("cannot register the signal twice: %v", err)
	}
	if id1 != id2 {
		t.Errorf("registered the same signal twice: got handles %d and %d", id1, id2)
	}
	// Mutate through one handle, observe through the other.
	vec, err := tbl.Ref(id1).Float64()
	if err != nil {
		t.Fatalf("cannot access the signal: %v", err)
	}
	vec.SetAt(1, 42)
	if got := tbl.Ref(id2).Snapshot(); !cmp.Equal(got, []float64{1, 42, 3}) {
		t.Errorf("snapshot through the second handle = %v but want [1 42 3]", got)
	}
}

func TestImplicitSignals(t *testing.T) {
	tbl := signal.NewTable()
	if tbl.Len() != 2 {
		t.Fatalf("a new table has %d signals but want 2", tbl.Len())
	}
	stepRef, ok := tbl.Lookup(tbl.StepSignal())
	if !ok {
		t.Fatalf("the step signal is not registered")
	}
	step, err := stepRef.Uint64()
	if err != nil {
		t.Fatalf("cannot access the step counter: %v", err)
	}
	if step[0] != 0 {
		t.Errorf("step counter = %d but want 0", step[0])
	}
	timeRef, ok := tbl.Lookup(tbl.TimeSignal())
	if !ok {
		t.Fatalf("the time signal is not registered")
	}
	if got := timeRef.Snapshot(); !cmp.Equal(got, []float64{0}) {
		t.Errorf("time = %v but want [0]", got)
	}
}

func TestViewAliasesBase(t *testing.T) {
	tbl := signal.NewTable()
	base := signal.New("base", 4, 4)
	// Second row of the base.
	view := base.View("row1", 4, []int{4, 1}, []int{1, 4})
	id, err := tbl.Register(view)
	if err != nil {
		t.Fatalf("cannot register the view: %v", err)
	}
	baseRef, ok := tbl.Lookup(base)
	if !ok {
		t.Fatalf("registering the view did not register its base")
	}
	baseVec, err := baseRef.Float64()
	if err != nil {
		t.Fatalf("cannot access the base: %v", err)
	}
	baseVec.SetAt(5, 7)
	if got := tbl.Ref(id).Snapshot(); !cmp.Equal(got, []float64{0, 7, 0, 0}) {
		t.Errorf("view snapshot = %v but want [0 7 0 0]", got)
	}
	// Writes through the view reach the base buffer.
	viewVec, err := tbl.Ref(id).Float64()
	if err != nil {
		t.Fatalf("cannot access the view: %v", err)
	}
	viewVec.SetAt(0, 3)
	if got := baseRef.Snapshot()[4]; got != 3 {
		t.Errorf("base element 4 = %v after a view write but want 3", got)
	}
}

func TestViewChainIsFlattened(t *testing.T) {
	tbl := signal.NewTable()
	base := signal.New("base", 6)
	// Every other element: indices 0, 2, 4.
	mid := base.View("mid", 0, []int{2}, []int{3})
	// Last two elements of mid: base indices 2, 4.
	top := mid.View("top", 2, []int{2}, []int{2})
	id, err := tbl.Register(top)
	if err != nil {
		t.Fatalf("cannot register the view chain: %v", err)
	}
	baseRef, _ := tbl.Lookup(base)
	baseVec, err := baseRef.Float64()
	if err != nil {
		t.Fatalf("cannot access the base: %v", err)
	}
	for i := range 6 {
		baseVec.SetAt(i, float64(i))
	}
	if got := tbl.Ref(id).Snapshot(); !cmp.Equal(got, []float64{2, 4}) {
		t.Errorf("chained view snapshot = %v but want [2 4]", got)
	}
}

func TestRegisterErrors(t *testing.T) {
	base := signal.New("base", 4, 4)
	tests := []struct {
		name string
		sig  *signal.Signal
	}{
		{
			name: "non-integral stride ratio",
			sig:  base.View("bad", 0, []int{6, 1}, []int{2, 4}),
		},
		{
			name: "out of bounds range",
			sig:  base.View("bad", 0, []int{4, 1}, []int{5, 4}),
		},
		{
			name: "view with initial value",
			sig: func() *signal.Signal {
				v := base.View("bad", 0, []int{4, 1}, []int{2, 4})
				v.Init = []float64{1}
				return v
			}(),
		},
		{
			name: "initial value size mismatch",
			sig:  signal.NewInit("bad", []float64{1, 2}, 3),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tbl := signal.NewTable()
			_, err := tbl.Register(test.sig)
			if err == nil {
				t.Fatalf("registering signal %s: got nil error", test.sig)
			}
			var cerr *signal.ConstructionError
			if !errors.As(err, &cerr) {
				t.Fatalf("got error %T (%v) but want *signal.ConstructionError", err, err)
			}
			if cerr.Name != "bad" {
				t.Errorf("the error names signal %q but want %q", cerr.Name, "bad")
			}
		})
	}
}

func TestReset(t *testing.T) {
	tbl := signal.NewTable()
	s := signal.NewInit("x", []float64{5}, 3)
	id, err := tbl.Register(s)
	if err != nil {
		t.Fatalf("cannot register the signal: %v", err)
	}
	vec, err := tbl.Ref(id).Float64()
	if err != nil {
		t.Fatalf("cannot access the signal: %v", err)
	}
	vec.Fill(9)
	tbl.Reset()
	if got := tbl.Ref(id).Snapshot(); !cmp.Equal(got, []float64{5, 5, 5}) {
		t.Errorf("snapshot after reset = %v but want [5 5 5]", got)
	}
}

func TestDTypeAccessors(t *testing.T) {
	tbl := signal.NewTable()
	stepRef, _ := tbl.Lookup(tbl.StepSignal())
	if _, err := stepRef.Float64(); err == nil {
		t.Errorf("float64 access to a uint64 signal: got nil error")
	}
	timeRef, _ := tbl.Lookup(tbl.TimeSignal())
	if _, err := timeRef.Uint64(); err == nil {
		t.Errorf("uint64 access to a float64 signal: got nil error")
	}
}
