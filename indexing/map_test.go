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

package indexing_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/indexing"
)

func TestFromUpperBounds(t *testing.T) {
	domain := indexing.FromUpperBounds([]int64{150, 10}, []int64{20, 50})
	want := indexing.Domain{
		DimensionRanges: []indexing.Range{{Lower: 0, Upper: 150}, {Lower: 0, Upper: 10}},
		SymbolRanges:    []indexing.Range{{Lower: 0, Upper: 20}, {Lower: 0, Upper: 50}},
	}
	if diff := cmp.Diff(want, domain); diff != "" {
		t.Errorf("unexpected domain (-want +got):\n%s", diff)
	}
	const wantString = `d0 in [0, 150)
d1 in [0, 10)
s0 in [0, 20)
s1 in [0, 50)`
	if got := domain.String(); got != wantString {
		t.Errorf("got:\n%s\nwant:\n%s", got, wantString)
	}
}

func TestRange(t *testing.T) {
	r := indexing.Range{Lower: 2, Upper: 5}
	if r.IsEmpty() || r.IsPoint() || r.Size() != 3 {
		t.Errorf("unexpected properties for %s", r)
	}
	if got := r.Intersect(indexing.Range{Lower: 4, Upper: 9}); got != (indexing.Range{Lower: 4, Upper: 5}) {
		t.Errorf("got intersection %s", got)
	}
	if got := r.Intersect(indexing.Range{Lower: 7, Upper: 9}); !got.IsEmpty() {
		t.Errorf("intersection %s should be empty", got)
	}
	if !(indexing.Range{Lower: 3, Upper: 4}).IsPoint() {
		t.Errorf("[3, 4) should be a point")
	}
}

func TestNewMapPanicsOnDomainMismatch(t *testing.T) {
	ctx := affine.NewContext()
	defer func() {
		if recover() == nil {
			t.Errorf("NewMap did not panic on a domain without symbol ranges")
		}
	}()
	indexing.NewMap(affine.NewMap(1, 1, []affine.Expr{ctx.Add(ctx.Dim(0), ctx.Symbol(0))}), indexing.FromUpperBounds([]int64{4}, nil))
}

func TestSimplify(t *testing.T) {
	ctx := affine.NewContext()
	d0, d1, s0, s1 := ctx.Dim(0), ctx.Dim(1), ctx.Symbol(0), ctx.Symbol(1)
	tests := []struct {
		name        string
		m           *indexing.Map
		want        string
		wantChanged bool
	}{
		{
			name: "point symbol",
			m: indexing.NewMap(
				affine.NewMap(1, 2, []affine.Expr{ctx.Add(d0, s0), s1}),
				indexing.Domain{
					DimensionRanges: []indexing.Range{{Lower: 0, Upper: 10}},
					SymbolRanges:    []indexing.Range{{Lower: 3, Upper: 4}, {Lower: 0, Upper: 5}},
				}),
			want: `(d0)[s0] -> (d0 + 3, s0)
d0 in [0, 10)
s0 in [0, 5)`,
			wantChanged: true,
		},
		{
			name: "floordiv and mod within a bucket",
			m: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{ctx.FloorDiv(d0, 8), ctx.Mod(d1, 8)}),
				[]int{8, 8}, nil),
			want: `(d0, d1) -> (0, d1)
d0 in [0, 8)
d1 in [0, 8)`,
			wantChanged: true,
		},
		{
			name: "split dividend",
			m: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{
					ctx.FloorDiv(ctx.Add(ctx.Mul(d0, 4), d1), 8),
					ctx.Mod(ctx.Add(ctx.Mul(d0, 4), d1), 8),
				}),
				[]int{10, 4}, nil),
			want: `(d0, d1) -> (d0 floordiv 2, d1 + (d0 mod 2) * 4)
d0 in [0, 10)
d1 in [0, 4)`,
			wantChanged: true,
		},
		{
			name: "already simple",
			m: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{ctx.FloorDiv(d0, 8), d1}),
				[]int{32, 8}, nil),
			want: `(d0, d1) -> (d0 floordiv 8, d1)
d0 in [0, 32)
d1 in [0, 8)`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := test.m.Clone()
			if changed := m.Simplify(ctx); changed != test.wantChanged {
				t.Errorf("Simplify returned %t but want %t", changed, test.wantChanged)
			}
			if diff := cmp.Diff(test.want, m.String()); diff != "" {
				t.Errorf("unexpected map (-want +got):\n%s", diff)
			}
			if m.Simplify(ctx) {
				t.Errorf("second Simplify changed the map to:\n%s", m)
			}
			if test.wantChanged && test.m.Equal(m) {
				t.Errorf("Simplify modified the source map")
			}
		})
	}
}

func TestMapSetDeduplicates(t *testing.T) {
	ctx := affine.NewContext()
	d0 := ctx.Dim(0)
	// d0 mod 8 and d0 are equal on [0, 8) once simplified.
	a := indexing.FromTensorSizes(affine.NewMap(1, 0, []affine.Expr{ctx.Mod(d0, 8)}), []int{8}, nil)
	b := indexing.FromTensorSizes(affine.NewMap(1, 0, []affine.Expr{d0}), []int{8}, nil)
	set := indexing.NewMapSet(a, b, b.Clone())
	if set.Len() != 2 {
		t.Fatalf("got %d maps before simplification but want 2", set.Len())
	}
	if !set.Simplify(ctx) {
		t.Errorf("Simplify reported no change")
	}
	if set.Len() != 1 {
		t.Errorf("got %d maps after simplification but want 1:\n%s", set.Len(), set)
	}
	if got := a.AffineMap.String(); got != "(d0) -> (d0 mod 8)" {
		t.Errorf("Simplify of the set modified a map it contains: %s", got)
	}
}
