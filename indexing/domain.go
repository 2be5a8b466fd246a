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

// Package indexing computes indexing maps between the coordinates of the
// output of an instruction and the coordinates of its operands.
package indexing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/tileanalysis/affine"
)

// Range is the half-open interval of integers [Lower, Upper).
type Range struct {
	Lower, Upper int64
}

// NewRange returns the range [0, upper).
func NewRange(upper int64) Range {
	return Range{Lower: 0, Upper: upper}
}

// IsEmpty returns true if the range does not contain any value.
func (r Range) IsEmpty() bool {
	return r.Upper <= r.Lower
}

// IsPoint returns true if the range contains exactly one value.
func (r Range) IsPoint() bool {
	return r.Upper == r.Lower+1
}

// Size returns the number of values in the range.
func (r Range) Size() int64 {
	return max(r.Upper-r.Lower, 0)
}

// Intersect returns the values in both ranges.
func (r Range) Intersect(o Range) Range {
	return Range{Lower: max(r.Lower, o.Lower), Upper: min(r.Upper, o.Upper)}
}

// Shift adds v to both ends of the range.
func (r Range) Shift(v int64) Range {
	return Range{Lower: r.Lower + v, Upper: r.Upper + v}
}

// preimage returns the values v such that k * v + c is in the range.
// k cannot be 0.
func (r Range) preimage(k, c int64) Range {
	if r.IsEmpty() {
		return Range{}
	}
	if k < 0 {
		return Range{Lower: 1 - r.Upper, Upper: 1 - r.Lower}.preimage(-k, -c)
	}
	return Range{
		Lower: floorDiv(r.Lower-c+k-1, k),
		Upper: floorDiv(r.Upper-1-c, k) + 1,
	}
}

// floorDiv returns x/k rounded towards negative infinity for k > 0.
func floorDiv(x, k int64) int64 {
	q := x / k
	if x%k != 0 && x < 0 {
		q--
	}
	return q
}

func (r Range) interval() affine.Interval {
	return affine.Interval{Lower: r.Lower, Upper: r.Upper - 1}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Lower, r.Upper)
}

// Domain is the set of admissible values of the dimensions and symbols
// of an indexing map.
type Domain struct {
	DimensionRanges []Range
	SymbolRanges    []Range
}

func rangesFromUpperBounds(bounds []int64) []Range {
	ranges := make([]Range, len(bounds))
	for i, b := range bounds {
		ranges[i] = NewRange(b)
	}
	return ranges
}

// FromUpperBounds returns a domain where every dimension and symbol ranges
// over [0, bound).
func FromUpperBounds(dimBounds, symbolBounds []int64) Domain {
	return Domain{
		DimensionRanges: rangesFromUpperBounds(dimBounds),
		SymbolRanges:    rangesFromUpperBounds(symbolBounds),
	}
}

func toInt64s(xs []int) []int64 {
	r := make([]int64, len(xs))
	for i, x := range xs {
		r[i] = int64(x)
	}
	return r
}

// FromShape returns a domain with a dimension for every axis of a shape
// and a symbol for every axis of another.
func FromShape(dimAxes, symbolAxes []int) Domain {
	return FromUpperBounds(toInt64s(dimAxes), toInt64s(symbolAxes))
}

// IsEmpty returns true if a dimension or a symbol has no admissible value.
func (d Domain) IsEmpty() bool {
	return slices.ContainsFunc(d.DimensionRanges, Range.IsEmpty) ||
		slices.ContainsFunc(d.SymbolRanges, Range.IsEmpty)
}

// Equal returns true if both domains have the same ranges.
func (d Domain) Equal(o Domain) bool {
	return slices.Equal(d.DimensionRanges, o.DimensionRanges) &&
		slices.Equal(d.SymbolRanges, o.SymbolRanges)
}

// Clone returns a copy of the domain.
func (d Domain) Clone() Domain {
	return Domain{
		DimensionRanges: slices.Clone(d.DimensionRanges),
		SymbolRanges:    slices.Clone(d.SymbolRanges),
	}
}

func (d Domain) bounds() affine.VarBounds {
	vars := affine.VarBounds{
		Dims:    make([]affine.Interval, len(d.DimensionRanges)),
		Symbols: make([]affine.Interval, len(d.SymbolRanges)),
	}
	for i, r := range d.DimensionRanges {
		vars.Dims[i] = r.interval()
	}
	for i, r := range d.SymbolRanges {
		vars.Symbols[i] = r.interval()
	}
	return vars
}

// String returns one line per dimension then per symbol:
//
//	d0 in [0, 150)
//	s0 in [0, 20)
func (d Domain) String() string {
	var lines []string
	for i, r := range d.DimensionRanges {
		lines = append(lines, fmt.Sprintf("d%d in %s", i, r))
	}
	for i, r := range d.SymbolRanges {
		lines = append(lines, fmt.Sprintf("s%d in %s", i, r))
	}
	return strings.Join(lines, "\n")
}
