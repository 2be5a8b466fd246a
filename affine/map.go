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

package affine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/tileanalysis/base/stringseq"
)

// Replace substitutes dimensions and symbols in e.
// Dimension d_i is replaced by dims[i] and symbol s_j by symbols[j].
// Variables without a replacement (nil or out of the slices) are kept.
func (c *Context) Replace(e Expr, dims, symbols []Expr) Expr {
	switch eT := e.(type) {
	case *DimExpr:
		if eT.Pos < len(dims) && dims[eT.Pos] != nil {
			return dims[eT.Pos]
		}
		return e
	case *SymbolExpr:
		if eT.Pos < len(symbols) && symbols[eT.Pos] != nil {
			return symbols[eT.Pos]
		}
		return e
	case *Add:
		return c.Add(c.Replace(eT.X, dims, symbols), c.Replace(eT.Y, dims, symbols))
	case *Mul:
		return c.Mul(c.Replace(eT.X, dims, symbols), eT.C)
	case *Product:
		r := c.Const(1)
		for _, f := range eT.Factors {
			r = c.Product(r, c.Replace(f, dims, symbols))
		}
		return r
	case *FloorDiv:
		return c.FloorDiv(c.Replace(eT.X, dims, symbols), eT.K)
	case *Mod:
		return c.Mod(c.Replace(eT.X, dims, symbols), eT.K)
	default:
		return e
	}
}

// Map is an affine map from NumDims dimensions and NumSymbols symbols
// to a list of results:
//
//	(d0, ..., d{NumDims-1})[s0, ..., s{NumSymbols-1}] -> (expr0, ..., expr{N-1})
type Map struct {
	NumDims    int
	NumSymbols int
	Results    []Expr
}

// NewMap returns a new map. It panics if a result references a variable
// outside of the declared dimensions and symbols.
func NewMap(numDims, numSymbols int, results []Expr) *Map {
	if maxPos(results, DimKind) >= numDims || maxPos(results, SymbolKind) >= numSymbols {
		panic(fmt.Sprintf("results %v reference variables outside of %d dimensions and %d symbols", results, numDims, numSymbols))
	}
	return &Map{NumDims: numDims, NumSymbols: numSymbols, Results: results}
}

func maxPos(results []Expr, kind Kind) int {
	pos := -1
	for _, r := range results {
		Walk(r, func(x Expr) bool {
			switch xT := x.(type) {
			case *DimExpr:
				if kind == DimKind {
					pos = max(pos, xT.Pos)
				}
			case *SymbolExpr:
				if kind == SymbolKind {
					pos = max(pos, xT.Pos)
				}
			}
			return true
		})
	}
	return pos
}

// IdentityMap returns the map (d0, ..., d{n-1}) -> (d0, ..., d{n-1}).
func IdentityMap(c *Context, n int) *Map {
	return NewMap(n, 0, c.Dims(n))
}

// NumResults returns the number of results of the map.
func (m *Map) NumResults() int {
	return len(m.Results)
}

// IsIdentity returns true if the map is an identity without symbols.
func (m *Map) IsIdentity() bool {
	if m.NumSymbols != 0 || m.NumDims != len(m.Results) {
		return false
	}
	for i, r := range m.Results {
		d, ok := r.(*DimExpr)
		if !ok || d.Pos != i {
			return false
		}
	}
	return true
}

// Equal returns true if both maps have the same number of variables and
// structurally equal results.
func (m *Map) Equal(o *Map) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	if m.NumDims != o.NumDims || m.NumSymbols != o.NumSymbols {
		return false
	}
	return slices.EqualFunc(m.Results, o.Results, Equal)
}

// Replace substitutes the variables of every result and returns a map with
// numDims dimensions and numSymbols symbols.
func (m *Map) Replace(c *Context, dims, symbols []Expr, numDims, numSymbols int) *Map {
	results := make([]Expr, len(m.Results))
	for i, r := range m.Results {
		results[i] = c.Replace(r, dims, symbols)
	}
	return NewMap(numDims, numSymbols, results)
}

// Compose returns the map m∘g, that is the map computing the results of m
// where the dimensions of m are replaced by the results of g.
// The composed map has the dimensions of g. Its symbols are the symbols of m
// followed by the symbols of g.
//
// Compose panics if g does not have as many results as m has dimensions.
func (m *Map) Compose(c *Context, g *Map) *Map {
	if g.NumResults() != m.NumDims {
		panic(fmt.Sprintf("cannot compose %s with %s: %d results for %d dimensions", m, g, g.NumResults(), m.NumDims))
	}
	shifted := make([]Expr, g.NumSymbols)
	for i := range shifted {
		shifted[i] = c.Symbol(m.NumSymbols + i)
	}
	gResults := make([]Expr, len(g.Results))
	for i, r := range g.Results {
		gResults[i] = c.Replace(r, nil, shifted)
	}
	return m.Replace(c, gResults, nil, g.NumDims, m.NumSymbols+g.NumSymbols)
}

// UnusedSymbols returns, for each symbol, whether no result references it.
func (m *Map) UnusedSymbols() []bool {
	used := make([]bool, m.NumSymbols)
	for _, r := range m.Results {
		UsedVariables(r, nil, used)
	}
	for i := range used {
		used[i] = !used[i]
	}
	return used
}

// CompressSymbols removes the symbols marked in remove and renumbers the others.
// Removed symbols must not be referenced by any result.
func (m *Map) CompressSymbols(c *Context, remove []bool) *Map {
	replacements := make([]Expr, m.NumSymbols)
	next := 0
	for i := range replacements {
		if i < len(remove) && remove[i] {
			continue
		}
		replacements[i] = c.Symbol(next)
		next++
	}
	return m.Replace(c, nil, replacements, m.NumDims, next)
}

// Simplify returns the map with every result simplified under vars.
func (m *Map) Simplify(c *Context, vars VarBounds) *Map {
	results := make([]Expr, len(m.Results))
	for i, r := range m.Results {
		results[i] = c.Simplify(r, vars)
	}
	return &Map{NumDims: m.NumDims, NumSymbols: m.NumSymbols, Results: results}
}

// String returns the canonical text form of the map:
//
//	(d0, d1)[s0] -> (d0 + s0, d1)
func (m *Map) String() string {
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(stringseq.Join(stringseq.Indexed("d", m.NumDims), ", "))
	b.WriteString(")")
	if m.NumSymbols > 0 {
		b.WriteString("[")
		b.WriteString(stringseq.Join(stringseq.Indexed("s", m.NumSymbols), ", "))
		b.WriteString("]")
	}
	b.WriteString(" -> (")
	b.WriteString(stringseq.Join(stringseq.Stringers(m.Results), ", "))
	b.WriteString(")")
	return b.String()
}
