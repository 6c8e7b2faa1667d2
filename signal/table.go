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
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/nsim/base/ordered"
	"github.com/gx-org/nsim/stride"
)

// ID is the internal handle of a registered signal.
type ID int

type record struct {
	sig   *Signal
	store Storage
	// ranges and offsets are nil for owning signals. For views, ranges
	// address the owning buffer directly: chained views are flattened at
	// registration time.
	ranges  stride.Ranges
	offsets []int
}

// Table registers signal declarations and owns their storage. Registration
// is idempotent by signal identity: the same *Signal always maps to the
// same ID. Every table carries two implicit owning signals, a uint64 step
// counter and a float64 elapsed-time scalar, both initialized to zero.
type Table struct {
	ids     *ordered.Map[*Signal, ID]
	records []*record
	step    *Signal
	time    *Signal
}

// NewTable returns a table holding only the implicit step and time signals.
func NewTable() *Table {
	t := &Table{ids: ordered.NewMap[*Signal, ID]()}
	t.step = NewU64("step", 0)
	t.time = Scalar("time", 0)
	t.Register(t.step)
	t.Register(t.time)
	return t
}

// StepSignal returns the implicit step counter signal.
func (t *Table) StepSignal() *Signal {
	return t.step
}

// TimeSignal returns the implicit elapsed-time signal.
func (t *Table) TimeSignal() *Signal {
	return t.time
}

// Len returns the number of registered signals.
func (t *Table) Len() int {
	return len(t.records)
}

// Register adds a signal declaration to the table and returns its handle.
// Registering the same *Signal again returns the existing handle without
// allocating. A view recursively registers its base first, then resolves
// and flattens its range list down to the owning buffer.
func (t *Table) Register(s *Signal) (ID, error) {
	if s == nil {
		return 0, errors.Errorf("cannot register a nil signal")
	}
	if id, ok := t.ids.Load(s); ok {
		return id, nil
	}
	rec, err := t.build(s)
	if err != nil {
		return 0, &ConstructionError{Name: s.Name, Err: err}
	}
	id := ID(len(t.records))
	t.records = append(t.records, rec)
	t.ids.Store(s, id)
	return id, nil
}

func (t *Table) build(s *Signal) (*record, error) {
	if s.Shape == nil {
		return nil, errors.Errorf("no shape declared")
	}
	if s.Base == nil {
		return t.buildOwning(s)
	}
	return t.buildView(s)
}

func (t *Table) buildOwning(s *Signal) (*record, error) {
	var store Storage
	var err error
	switch s.Shape.DType {
	case dtype.Float64:
		store, err = newArray(s.Name, s.Shape, s.Init)
	case dtype.Uint64:
		store, err = newArray(s.Name, s.Shape, s.InitU64)
	default:
		err = errors.Errorf("unsupported element type %s", s.Shape.DType.String())
	}
	if err != nil {
		return nil, err
	}
	return &record{sig: s, store: store}, nil
}

func (t *Table) buildView(s *Signal) (*record, error) {
	if s.Init != nil || s.InitU64 != nil {
		return nil, errors.Errorf("a view cannot declare an initial value")
	}
	baseID, err := t.Register(s.Base)
	if err != nil {
		return nil, err
	}
	base := t.records[baseID]
	if s.Shape.DType != s.Base.Shape.DType {
		return nil, errors.Errorf("view element type %s does not match base element type %s", s.Shape.DType.String(), s.Base.Shape.DType.String())
	}
	ranges, err := stride.Resolve(s.ElemOffset, s.ElemStrides, s.dims(), s.Base.elemStrides(), s.Base.dims())
	if err != nil {
		return nil, err
	}
	if base.ranges != nil {
		// The base is itself a view: flatten the chain so the new view
		// addresses the owning buffer directly.
		ranges = stride.Compose(base.ranges, ranges)
	}
	return &record{
		sig:     s,
		store:   base.store,
		ranges:  ranges,
		offsets: ranges.Offsets(base.store.Shape().AxisLengths),
	}, nil
}

// Ref returns the operand handle of a registered signal.
func (t *Table) Ref(id ID) Ref {
	rec := t.records[id]
	return Ref{
		name:    rec.sig.Name,
		store:   rec.store,
		sh:      rec.sig.Shape,
		offsets: rec.offsets,
	}
}

// Lookup returns the operand handle of a signal if it has been registered.
func (t *Table) Lookup(s *Signal) (Ref, bool) {
	id, ok := t.ids.Load(s)
	if !ok {
		return Ref{}, false
	}
	return t.Ref(id), true
}

// Reset overwrites every owning buffer with its declared initial value.
func (t *Table) Reset() {
	for _, rec := range t.records {
		if rec.ranges != nil {
			continue
		}
		rec.store.Reset()
	}
}

func (t *Table) String() string {
	var b strings.Builder
	for _, rec := range t.records {
		b.WriteString(rec.sig.String())
		b.WriteString("\n")
	}
	return b.String()
}
