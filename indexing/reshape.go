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
	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/hlo"
)

// reshapeGroup is a minimal set of consecutive axes of two shapes
// with the same number of elements.
type reshapeGroup struct {
	from, to []int
}

// reshapeGroups splits two shapes with the same number of elements
// into minimal groups of consecutive axes with equal number of elements.
func reshapeGroups(from, to []int) ([]reshapeGroup, bool) {
	var groups []reshapeGroup
	i, j := 0, 0
	for i < len(from) || j < len(to) {
		var g reshapeGroup
		pFrom, pTo := 1, 1
		if i < len(from) {
			g.from = append(g.from, i)
			pFrom *= from[i]
			i++
		}
		if j < len(to) {
			g.to = append(g.to, j)
			pTo *= to[j]
			j++
		}
		for pFrom != pTo {
			switch {
			case pFrom < pTo && i < len(from):
				g.from = append(g.from, i)
				pFrom *= from[i]
				i++
			case pTo < pFrom && j < len(to):
				g.to = append(g.to, j)
				pTo *= to[j]
				j++
			default:
				return nil, false
			}
		}
		groups = append(groups, g)
	}
	return groups, true
}

func numNonUnitAxes(shape, axes []int) int {
	n := 0
	for _, ax := range axes {
		if shape[ax] != 1 {
			n++
		}
	}
	return n
}

// factors returns true if the group collapses several axes into one,
// expands one axis into several, or maps an axis to an axis.
func (g reshapeGroup) factors(from, to []int) bool {
	return numNonUnitAxes(from, g.from) <= 1 || numNonUnitAxes(to, g.to) <= 1
}

// reshapeIndexing returns the map from the coordinates of an array of
// shape from to the coordinates of the same element in an array of shape to.
// Within a group, the coordinates of from are linearized and then
// delinearized into the coordinates of to.
func reshapeIndexing(ctx *affine.Context, from, to []int) (*Map, error) {
	if hlo.NumElements(from) != hlo.NumElements(to) {
		return nil, invalidf("cannot reshape %v into %v", from, to)
	}
	if hlo.NumElements(from) == 0 {
		return nil, unsupportedf("reshape of the empty array %v", from)
	}
	groups, ok := reshapeGroups(from, to)
	if !ok {
		return nil, unsupportedf("cannot split reshape %v into %v into groups of axes", from, to)
	}
	results := make([]affine.Expr, len(to))
	for _, g := range groups {
		if !g.factors(from, to) {
			return nil, unsupportedf("reshape %v into %v: axes %v do not factor into axes %v", from, to, g.from, g.to)
		}
		linear := ctx.Const(0)
		stride := int64(1)
		for k := len(g.from) - 1; k >= 0; k-- {
			ax := g.from[k]
			linear = ctx.Add(linear, ctx.Mul(ctx.Dim(ax), stride))
			stride *= int64(from[ax])
		}
		stride = 1
		for k := len(g.to) - 1; k >= 0; k-- {
			ax := g.to[k]
			r := linear
			if stride > 1 {
				r = ctx.FloorDiv(r, stride)
			}
			if k > 0 {
				r = ctx.Mod(r, int64(to[ax]))
			}
			results[ax] = r
			stride *= int64(to[ax])
		}
	}
	return FromTensorSizes(affine.NewMap(len(from), 0, results), from, nil), nil
}
