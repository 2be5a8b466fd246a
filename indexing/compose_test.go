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
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/indexing"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestComposeIndexingMaps(t *testing.T) {
	ctx := affine.NewContext()
	d0, d1, s0 := ctx.Dim(0), ctx.Dim(1), ctx.Symbol(0)
	tests := []struct {
		name               string
		producer, consumer *indexing.Map
		want               string
	}{
		{
			name: "broadcast then transpose",
			producer: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{d1}),
				[]int{10, 20}, nil),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{d1, d0}),
				[]int{20, 10}, nil),
			want: `(d0, d1) -> (d0)
d0 in [0, 20)
d1 in [0, 10)`,
		},
		{
			name: "producer symbols first",
			producer: indexing.FromTensorSizes(
				affine.NewMap(1, 1, []affine.Expr{d0, s0}),
				[]int{10}, []int{20}),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(1, 1, []affine.Expr{ctx.Add(d0, s0)}),
				[]int{6}, []int{5}),
			want: `(d0)[s0, s1] -> (d0 + s1, s0)
d0 in [0, 6)
s0 in [0, 20)
s1 in [0, 5)`,
		},
		{
			name: "unused symbols are removed",
			producer: indexing.FromTensorSizes(
				affine.NewMap(1, 0, nil),
				[]int{10}, nil),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(1, 1, []affine.Expr{ctx.Add(d0, s0)}),
				[]int{6}, []int{5}),
			want: `(d0) -> ()
d0 in [0, 6)`,
		},
		{
			name: "producer domain restricts consumer",
			producer: indexing.NewMap(
				affine.NewMap(1, 0, []affine.Expr{ctx.AddConst(d0, -1)}),
				indexing.Domain{DimensionRanges: []indexing.Range{{Lower: 1, Upper: 5}}}),
			consumer: indexing.FromTensorSizes(
				affine.IdentityMap(ctx, 1),
				[]int{9}, nil),
			want: `(d0) -> (d0 - 1)
d0 in [1, 5)`,
		},
		{
			name: "producer domain restricts strided consumer",
			producer: indexing.NewMap(
				affine.NewMap(1, 0, []affine.Expr{ctx.AddConst(d0, -2)}),
				indexing.Domain{DimensionRanges: []indexing.Range{{Lower: 2, Upper: 12}}}),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(1, 0, []affine.Expr{ctx.AddConst(ctx.Mul(d0, 2), 1)}),
				[]int{5}, nil),
			want: `(d0) -> (d0 * 2 - 1)
d0 in [1, 5)`,
		},
		{
			name: "producer domain restricts negative stride consumer",
			producer: indexing.NewMap(
				affine.NewMap(1, 0, []affine.Expr{ctx.AddConst(d0, -2)}),
				indexing.Domain{DimensionRanges: []indexing.Range{{Lower: 2, Upper: 12}}}),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(1, 0, []affine.Expr{ctx.AddConst(ctx.Mul(d0, -2), 13)}),
				[]int{7}, nil),
			want: `(d0) -> (d0 * -2 + 11)
d0 in [1, 6)`,
		},
		{
			name: "collapse then expand",
			producer: indexing.FromTensorSizes(
				affine.NewMap(1, 0, []affine.Expr{ctx.FloorDiv(d0, 8), ctx.Mod(d0, 8)}),
				[]int{32}, nil),
			consumer: indexing.FromTensorSizes(
				affine.NewMap(2, 0, []affine.Expr{ctx.Add(ctx.Mul(d0, 8), d1)}),
				[]int{4, 8}, nil),
			want: `(d0, d1) -> (d0, d1)
d0 in [0, 4)
d1 in [0, 8)`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := indexing.ComposeIndexingMaps(ctx, test.producer, test.consumer)
			if diff := cmp.Diff(test.want, got.String()); diff != "" {
				t.Errorf("unexpected composition (-want +got):\n%s", diff)
			}
		})
	}
}

func inverse(p []int) []int {
	inv := make([]int, len(p))
	for i, x := range p {
		inv[x] = i
	}
	return inv
}

func TestTransposeInvolution(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)
	properties.Property("transpose composed with its inverse is the identity", prop.ForAll(func(seed int64) bool {
		rnd := rand.New(rand.NewSource(seed))
		ctx := affine.NewContext()
		p := rnd.Perm(rnd.Intn(6) + 1)
		m := indexing.ComputeTransposeIndexingMap(ctx, p)
		inv := indexing.ComputeTransposeIndexingMap(ctx, inverse(p))
		return m.Compose(ctx, inv).IsIdentity() && inv.Compose(ctx, m).IsIdentity()
	}, gen.Int64()))
	properties.TestingRun(t)
}
