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

package sim

import (
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/nsim/signal"
)

// ProbeDesc declares a per-step recorder attached to one signal. A
// ProbeDesc is identified by its pointer.
type ProbeDesc struct {
	// Name of the probe, used in dumps.
	Name string
	// Target is the signal whose value is recorded after every step.
	Target *signal.Signal
}

// NewProbe declares a probe recording the target signal.
func NewProbe(name string, target *signal.Signal) *ProbeDesc {
	return &ProbeDesc{Name: name, Target: target}
}

// Probe is the append-only history of one probed signal: one snapshot per
// completed step, in step order.
type Probe struct {
	name string
	ref  signal.Ref
	rows [][]float64
}

// Name of the probe.
func (p *Probe) Name() string {
	return p.name
}

// Len returns the number of recorded snapshots.
func (p *Probe) Len() int {
	return len(p.rows)
}

// At returns the snapshot recorded after step i+1. The returned slice is
// owned by the probe and must not be modified.
func (p *Probe) At(i int) []float64 {
	return p.rows[i]
}

// Data returns a copy of the full history, one row per step.
func (p *Probe) Data() [][]float64 {
	out := make([][]float64, len(p.rows))
	for i, row := range p.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Stacked returns the history as one flat array of shape
// (steps, target shape...).
func (p *Probe) Stacked() ([]float64, *shape.Shape) {
	rowLen := p.ref.Len()
	out := make([]float64, 0, len(p.rows)*rowLen)
	for _, row := range p.rows {
		out = append(out, row...)
	}
	sh := &shape.Shape{
		DType:       p.ref.DType(),
		AxisLengths: append([]int{len(p.rows)}, p.ref.Shape().AxisLengths...),
	}
	return out, sh
}

func (p *Probe) record() {
	p.rows = append(p.rows, p.ref.Snapshot())
}

func (p *Probe) clear() {
	p.rows = p.rows[:0]
}
