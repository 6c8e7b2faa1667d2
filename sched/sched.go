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

// Package sched orders operators into a valid execution sequence.
package sched

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"
)

type minHeap []int

func (h minHeap) Len() int           { return len(h) }
func (h minHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)        { *h = append(*h, x.(int)) }

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Order returns a topological ordering of n nodes. deps(i) lists the nodes
// that must appear before node i. Nodes with no relative constraint are
// ordered by index, so the result is deterministic given the same input.
func Order(n int, deps func(int) []int) ([]int, error) {
	indegree := make([]int, n)
	succs := make([][]int, n)
	for i := range n {
		for _, dep := range deps(i) {
			if dep < 0 || dep >= n {
				return nil, errors.Errorf("node %d depends on node %d: out of range [0, %d)", i, dep, n)
			}
			succs[dep] = append(succs[dep], i)
			indegree[i]++
		}
	}
	ready := &minHeap{}
	for i := range n {
		if indegree[i] == 0 {
			*ready = append(*ready, i)
		}
	}
	heap.Init(ready)
	order := make([]int, 0, n)
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, i)
		for _, succ := range succs[i] {
			indegree[succ]--
			if indegree[succ] == 0 {
				heap.Push(ready, succ)
			}
		}
	}
	if len(order) < n {
		var cycle []int
		for i := range n {
			if indegree[i] > 0 {
				cycle = append(cycle, i)
			}
		}
		sort.Ints(cycle)
		return nil, errors.Errorf("dependency cycle among nodes %v", cycle)
	}
	return order, nil
}
