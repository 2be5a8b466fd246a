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
	"fmt"
	"slices"

	"github.com/gx-org/tileanalysis/affine"
)

// Map is an affine map with the domain of its dimensions and symbols.
type Map struct {
	AffineMap *affine.Map
	Domain    Domain
}

// NewMap returns an indexing map. It panics if the domain does not have
// one range per dimension and symbol of the affine map.
func NewMap(m *affine.Map, domain Domain) *Map {
	if len(domain.DimensionRanges) != m.NumDims || len(domain.SymbolRanges) != m.NumSymbols {
		panic(fmt.Sprintf("domain with %d dimension and %d symbol ranges for map %s",
			len(domain.DimensionRanges), len(domain.SymbolRanges), m))
	}
	return &Map{AffineMap: m, Domain: domain}
}

// FromTensorSizes returns an indexing map where dimension i ranges over
// [0, dimAxes[i]) and symbol j over [0, symbolAxes[j]).
func FromTensorSizes(m *affine.Map, dimAxes, symbolAxes []int) *Map {
	return NewMap(m, FromShape(dimAxes, symbolAxes))
}

// Clone returns a copy of the map. The expressions are shared.
func (m *Map) Clone() *Map {
	am := *m.AffineMap
	am.Results = slices.Clone(am.Results)
	return &Map{AffineMap: &am, Domain: m.Domain.Clone()}
}

// removePointSymbols replaces the symbols ranging over a single value
// by that value and removes them.
func (m *Map) removePointSymbols(ctx *affine.Context) bool {
	if !slices.ContainsFunc(m.Domain.SymbolRanges, Range.IsPoint) {
		return false
	}
	replacements := make([]affine.Expr, m.AffineMap.NumSymbols)
	var kept []Range
	for i, r := range m.Domain.SymbolRanges {
		if r.IsPoint() {
			replacements[i] = ctx.Const(r.Lower)
			continue
		}
		replacements[i] = ctx.Symbol(len(kept))
		kept = append(kept, r)
	}
	m.AffineMap = m.AffineMap.Replace(ctx, nil, replacements, m.AffineMap.NumDims, len(kept))
	m.Domain.SymbolRanges = kept
	return true
}

// RemoveUnusedSymbols removes the symbols not referenced by any result.
// It returns true if the map changed.
func (m *Map) RemoveUnusedSymbols(ctx *affine.Context) bool {
	unused := m.AffineMap.UnusedSymbols()
	if !slices.Contains(unused, true) {
		return false
	}
	var kept []Range
	for i, r := range m.Domain.SymbolRanges {
		if !unused[i] {
			kept = append(kept, r)
		}
	}
	m.AffineMap = m.AffineMap.CompressSymbols(ctx, unused)
	m.Domain.SymbolRanges = kept
	return true
}

// Simplify rewrites the map into a simpler equivalent map on its domain.
// Symbols with a single admissible value are replaced by that value.
// It returns true if the map changed. Simplify is idempotent: calling
// it on a simplified map returns false.
func (m *Map) Simplify(ctx *affine.Context) bool {
	if m.Domain.IsEmpty() {
		return false
	}
	changed := m.removePointSymbols(ctx)
	simplified := m.AffineMap.Simplify(ctx, m.Domain.bounds())
	if !simplified.Equal(m.AffineMap) {
		m.AffineMap = simplified
		changed = true
	}
	return changed
}

// Equal returns true if both maps have the same results and domains.
// Maps need to be simplified to be compared.
func (m *Map) Equal(o *Map) bool {
	return m.AffineMap.Equal(o.AffineMap) && m.Domain.Equal(o.Domain)
}

// Key returns a string identifying the map.
// Equal maps have the same key.
func (m *Map) Key() string {
	return m.String()
}

// Eval returns the results of the map for given dimension and
// symbol values.
func (m *Map) Eval(dims, symbols []int64) []int64 {
	return m.AffineMap.Eval(dims, symbols)
}

// String returns the affine map followed by its domain:
//
//	(d0, d1)[s0] -> (d0, s0, d1)
//	d0 in [0, 10)
//	d1 in [0, 20)
//	s0 in [0, 5)
func (m *Map) String() string {
	s := m.AffineMap.String()
	if domain := m.Domain.String(); domain != "" {
		s += "\n" + domain
	}
	return s
}
