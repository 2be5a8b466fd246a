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

package indexing

import (
	"iter"
	"strconv"
	"strings"

	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/base/ordered"
	"github.com/gx-org/tileanalysis/base/stringseq"
)

// MapSet is a set of indexing maps iterating in insertion order.
// Maps are deduplicated by structural equality.
type MapSet struct {
	maps *ordered.Map[string, *Map]
}

// NewMapSet returns a set containing maps.
func NewMapSet(maps ...*Map) *MapSet {
	s := &MapSet{maps: ordered.NewMap[string, *Map]()}
	for _, m := range maps {
		s.Insert(m)
	}
	return s
}

// Insert a map in the set. Returns false if an equal map was already present.
func (s *MapSet) Insert(m *Map) bool {
	key := m.Key()
	if s.maps.Has(key) {
		return false
	}
	s.maps.Store(key, m)
	return true
}

// Union inserts all the maps of another set.
func (s *MapSet) Union(o *MapSet) {
	for m := range o.All() {
		s.Insert(m)
	}
}

// Len returns the number of maps in the set.
func (s *MapSet) Len() int {
	return s.maps.Len()
}

// All returns an iterator over the maps of the set.
func (s *MapSet) All() iter.Seq[*Map] {
	return s.maps.Values()
}

// Maps returns the maps of the set.
func (s *MapSet) Maps() []*Map {
	var maps []*Map
	for m := range s.All() {
		maps = append(maps, m)
	}
	return maps
}

// Simplify every map of the set and remove the duplicates.
// Maps are copied before being simplified since they can be shared with
// other sets. It returns true if a map changed.
func (s *MapSet) Simplify(ctx *affine.Context) bool {
	changed := false
	simplified := ordered.NewMap[string, *Map]()
	for m := range s.All() {
		if c := m.Clone(); c.Simplify(ctx) {
			m = c
			changed = true
		}
		simplified.LoadOrStore(m.Key(), func() *Map { return m })
	}
	s.maps = simplified
	return changed
}

func (s *MapSet) String() string {
	return stringseq.Join(stringseq.Map(s.All(), (*Map).String), "\n")
}

// InstructionIndexing stores a set of indexing maps for every operand
// of an instruction (output to input) or for every output
// (input to output).
type InstructionIndexing struct {
	Maps []*MapSet
}

// FromIndexingMaps returns an instruction indexing with one map per
// operand or output.
func FromIndexingMaps(maps ...*Map) *InstructionIndexing {
	ii := &InstructionIndexing{Maps: make([]*MapSet, len(maps))}
	for i, m := range maps {
		ii.Maps[i] = NewMapSet(m)
	}
	return ii
}

// Simplify all the maps. It returns true if a map changed.
func (ii *InstructionIndexing) Simplify(ctx *affine.Context) bool {
	changed := false
	for _, s := range ii.Maps {
		if s.Simplify(ctx) {
			changed = true
		}
	}
	return changed
}

// String returns the maps of every operand or output:
//
//	operand id = 0
//	(d0) -> (d0)
//	d0 in [0, 10)
func (ii *InstructionIndexing) String() string {
	var b strings.Builder
	for i, s := range ii.Maps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("operand id = ")
		b.WriteString(strconv.Itoa(i))
		for m := range s.All() {
			b.WriteString("\n")
			b.WriteString(m.String())
		}
	}
	return b.String()
}
