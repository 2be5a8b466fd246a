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

// Package tile represents strided tiles of arrays and propagates them
// through indexing maps.
package tile

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/base/stringseq"
	"github.com/gx-org/tileanalysis/indexing"
)

// Size is the size of a tile along one symbol. It is unset until the
// caller chooses a concrete tile size.
type Size struct {
	Value int64
	Set   bool
}

func (s Size) String() string {
	if !s.Set {
		return "?"
	}
	return strconv.FormatInt(s.Value, 10)
}

// SymbolicTile is a strided tile of an array. The tile is described by an
// affine map with a pair of dimensions (stride, offset) per axis of the
// tiled array and a symbol per size:
//
//	(d0, d1, ...)[s0, ...] -> (d1 + d0 * s0, ...)
//
// where d{2i} is the stride and d{2i+1} the offset of axis i.
type SymbolicTile struct {
	affineMap            *affine.Map
	sizes                []Size
	maxSizes             []int64
	maxStridesAndOffsets []int64
}

// New returns the tile of an array of shape targetShape covering the
// whole array with unit strides when offsets are 0 and sizes are the
// axis lengths.
func New(ctx *affine.Context, targetShape []int64) *SymbolicTile {
	rank := len(targetShape)
	results := make([]affine.Expr, rank)
	maxStridesAndOffsets := make([]int64, 2*rank)
	for i, size := range targetShape {
		stride, offset := ctx.Dim(2*i), ctx.Dim(2*i+1)
		results[i] = ctx.Add(offset, ctx.Product(stride, ctx.Symbol(i)))
		maxStridesAndOffsets[2*i] = size
		maxStridesAndOffsets[2*i+1] = size
	}
	return &SymbolicTile{
		affineMap:            affine.NewMap(2*rank, rank, results),
		sizes:                make([]Size, rank),
		maxSizes:             slices.Clone(targetShape),
		maxStridesAndOffsets: maxStridesAndOffsets,
	}
}

// AffineMap returns the map from strides, offsets and sizes to the
// coordinates of the tiled array.
func (t *SymbolicTile) AffineMap() *affine.Map {
	return t.affineMap
}

// Sizes returns the size of the tile for every symbol.
func (t *SymbolicTile) Sizes() []Size {
	return slices.Clone(t.sizes)
}

// MaxSizes returns the maximum size of the tile for every symbol.
func (t *SymbolicTile) MaxSizes() []int64 {
	return slices.Clone(t.maxSizes)
}

// MaxStridesAndOffsets returns the maximum value of every dimension.
func (t *SymbolicTile) MaxStridesAndOffsets() []int64 {
	return slices.Clone(t.maxStridesAndOffsets)
}

func (t *SymbolicTile) String() string {
	return fmt.Sprintf("%s\nsizes: [%s]\nmax sizes: [%s]\nmax strides and offsets: [%s]",
		t.affineMap,
		stringseq.Join(stringseq.Stringers(t.sizes), ", "),
		stringseq.Join(stringseq.Ints(t.maxSizes), ", "),
		stringseq.Join(stringseq.Ints(t.maxStridesAndOffsets), ", "),
	)
}

// TryPropagateTileThroughIndexingMap returns the tile of the array indexed
// by m read to compute the elements of t. It returns false if the
// coordinates read cannot be expressed as a strided tile. The receiver is
// never modified.
//
// The symbols of m become the first symbols of the returned tile. They are
// rebased to start at 0 and their sizes are the sizes of their domain.
func (t *SymbolicTile) TryPropagateTileThroughIndexingMap(ctx *affine.Context, m *indexing.Map) (*SymbolicTile, bool) {
	if m.AffineMap.NumDims != t.affineMap.NumResults() {
		return nil, false
	}
	newSymbols := m.Domain.SymbolRanges
	rebased := make([]affine.Expr, len(newSymbols))
	for i, r := range newSymbols {
		if r.IsEmpty() {
			return nil, false
		}
		rebased[i] = ctx.AddConst(ctx.Symbol(i), r.Lower)
	}
	indexed := m.AffineMap.Replace(ctx, nil, rebased, m.AffineMap.NumDims, m.AffineMap.NumSymbols)
	composed := indexed.Compose(ctx, t.affineMap)
	vars := affine.VarBounds{
		Dims:    make([]affine.Interval, len(t.maxStridesAndOffsets)),
		Symbols: make([]affine.Interval, 0, composed.NumSymbols),
	}
	for i, v := range t.maxStridesAndOffsets {
		vars.Dims[i] = affine.Interval{Lower: 0, Upper: v}
	}
	for _, r := range newSymbols {
		vars.Symbols = append(vars.Symbols, affine.Interval{Lower: 0, Upper: r.Size() - 1})
	}
	for _, v := range t.maxSizes {
		vars.Symbols = append(vars.Symbols, affine.Interval{Lower: 0, Upper: v - 1})
	}
	composed = composed.Simplify(ctx, vars)
	for _, r := range composed.Results {
		if !isStrided(r) {
			return nil, false
		}
	}
	prop := &SymbolicTile{
		affineMap:            composed,
		sizes:                make([]Size, 0, composed.NumSymbols),
		maxSizes:             make([]int64, 0, composed.NumSymbols),
		maxStridesAndOffsets: slices.Clone(t.maxStridesAndOffsets),
	}
	for _, r := range newSymbols {
		prop.sizes = append(prop.sizes, Size{Value: r.Size(), Set: true})
		prop.maxSizes = append(prop.maxSizes, r.Size())
	}
	prop.sizes = append(prop.sizes, t.sizes...)
	prop.maxSizes = append(prop.maxSizes, t.maxSizes...)
	return prop, true
}
