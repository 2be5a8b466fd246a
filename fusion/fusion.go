// Copyright 2024 Google LLC
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

// Package fusion composes indexing maps along the edges of a fusion region
// to map the coordinates of the region output to the coordinates of the
// instructions read by the region.
package fusion

import (
	"fmt"
	"iter"
	"strings"

	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/base/ordered"
	"github.com/gx-org/tileanalysis/hlo"
	"github.com/gx-org/tileanalysis/indexing"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Table stores, for each instruction, the set of indexing maps from the
// coordinates of the region output to the coordinates of the instruction.
//
// A table is owned by a single fusion region walk. It is not safe for
// concurrent use.
type Table struct {
	maps *ordered.Map[hlo.InstrID, *indexing.MapSet]
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{maps: ordered.NewMap[hlo.InstrID, *indexing.MapSet]()}
}

// Insert adds maps to the set of an instruction.
func (t *Table) Insert(id hlo.InstrID, maps ...*indexing.Map) {
	set := t.maps.LoadOrStore(id, func() *indexing.MapSet { return indexing.NewMapSet() })
	for _, m := range maps {
		set.Insert(m)
	}
}

func (t *Table) union(id hlo.InstrID, maps *indexing.MapSet) {
	set := t.maps.LoadOrStore(id, func() *indexing.MapSet { return indexing.NewMapSet() })
	set.Union(maps)
}

// Load returns the set of maps of an instruction.
func (t *Table) Load(id hlo.InstrID) (*indexing.MapSet, bool) {
	return t.maps.Load(id)
}

// Len returns the number of instructions in the table.
func (t *Table) Len() int {
	return t.maps.Len()
}

// All returns an iterator over the instructions and their maps.
func (t *Table) All() iter.Seq2[hlo.InstrID, *indexing.MapSet] {
	return t.maps.All()
}

// String returns the maps of every instruction of the table.
// Instructions are named using g.
func (t *Table) String(g *hlo.Graph) string {
	var b strings.Builder
	for id, set := range t.All() {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s:", g.Instr(id).Name())
		for m := range set.All() {
			b.WriteString("\n")
			b.WriteString(m.String())
		}
	}
	return b.String()
}

// GroupIndexingMapsByProducers returns the maps of an output to input
// indexing of instr keyed by the instructions producing the operands.
// Operands produced by the same instruction share the same set.
func GroupIndexingMapsByProducers(ii *indexing.InstructionIndexing, instr *hlo.Instruction) (*Table, error) {
	if len(ii.Maps) != instr.NumOperands() {
		return nil, errors.Wrapf(indexing.ErrInvalidInput, "%d sets of maps for instruction %s with %d operand(s)", len(ii.Maps), instr.Name(), instr.NumOperands())
	}
	t := NewTable()
	for i, maps := range ii.Maps {
		t.union(instr.OperandIDs()[i], maps)
	}
	return t, nil
}

// FuseProducerConsumerOutputToInputIndexing replaces the maps of producer
// in the table by maps to its operands. Every map of producer is composed
// with every output to input map of producer.
//
// The table is not modified if an error is returned.
func FuseProducerConsumerOutputToInputIndexing(ctx *affine.Context, producer *hlo.Instruction, t *Table) error {
	consumerMaps, ok := t.Load(producer.ID())
	if !ok {
		return errors.Wrapf(indexing.ErrInvalidInput, "no indexing maps for producer %s", producer.Name())
	}
	ii, err := indexing.ComputeOutputToInputIndexing(ctx, producer, 0)
	if err != nil {
		return errors.WithMessagef(err, "cannot fuse %s", producer.Name())
	}
	staged, err := GroupIndexingMapsByProducers(ii, producer)
	if err != nil {
		return err
	}
	composed := NewTable()
	for operandID, producerMaps := range staged.All() {
		composed.Insert(operandID)
		for pm := range producerMaps.All() {
			for cm := range consumerMaps.All() {
				m := indexing.ComposeIndexingMaps(ctx, pm, cm)
				if klog.V(3).Enabled() {
					klog.Infof("%s -> %s:\n%s", producer.Name(), producer.Graph().Instr(operandID).Name(), m)
				}
				composed.Insert(operandID, m)
			}
		}
	}
	t.maps.Delete(producer.ID())
	for operandID, maps := range composed.All() {
		t.union(operandID, maps)
	}
	return nil
}

// ComputeFusionOutputToInputIndexing returns the indexing maps from the
// coordinates of root to the coordinates of the instructions read by the
// fusion region. The region contains root and the instructions reachable
// from root through operands for which inRegion returns true.
//
// Instructions without operands, like parameters and constants, are read
// by the region but never fused.
func ComputeFusionOutputToInputIndexing(ctx *affine.Context, root *hlo.Instruction, inRegion func(*hlo.Instruction) bool) (*Table, error) {
	follow := func(instr *hlo.Instruction) bool {
		return instr == root || inRegion(instr)
	}
	t := NewTable()
	t.Insert(root.ID(), indexing.FromTensorSizes(affine.IdentityMap(ctx, root.Rank()), root.Dimensions(), nil))
	order := hlo.PostOrder(root, follow)
	for i := len(order) - 1; i >= 0; i-- {
		instr := order[i]
		if !follow(instr) || instr.NumOperands() == 0 {
			continue
		}
		klog.V(2).Infof("fusing %s into the region of %s", instr.Name(), root.Name())
		if err := FuseProducerConsumerOutputToInputIndexing(ctx, instr, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}
