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

package affine_test

import (
	"testing"

	"github.com/gx-org/tileanalysis/affine"
)

func TestMapString(t *testing.T) {
	c := affine.NewContext()
	tests := []struct {
		m    *affine.Map
		want string
	}{
		{
			m:    affine.NewMap(2, 2, []affine.Expr{c.Dim(0), c.Symbol(0), c.Dim(1), c.Symbol(1)}),
			want: "(d0, d1)[s0, s1] -> (d0, s0, d1, s1)",
		},
		{
			m:    affine.IdentityMap(c, 3),
			want: "(d0, d1, d2) -> (d0, d1, d2)",
		},
		{
			m:    affine.NewMap(0, 0, nil),
			want: "() -> ()",
		},
		{
			m:    affine.NewMap(1, 0, []affine.Expr{c.Const(4), c.Const(0)}),
			want: "(d0) -> (4, 0)",
		},
	}
	for i, test := range tests {
		if got := test.m.String(); got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestNewMapPanicsOnUndeclaredVariables(t *testing.T) {
	c := affine.NewContext()
	defer func() {
		if recover() == nil {
			t.Errorf("NewMap did not panic on a reference to an undeclared symbol")
		}
	}()
	affine.NewMap(1, 0, []affine.Expr{c.Symbol(0)})
}

func TestCompose(t *testing.T) {
	c := affine.NewContext()
	d0, d1, s0 := c.Dim(0), c.Dim(1), c.Symbol(0)
	tests := []struct {
		f, g *affine.Map
		want string
	}{
		{
			f:    affine.NewMap(2, 1, []affine.Expr{c.Add(d0, s0), c.Mul(d1, 2)}),
			g:    affine.NewMap(1, 1, []affine.Expr{d0, c.AddConst(s0, 1)}),
			want: "(d0)[s0, s1] -> (d0 + s0, s1 * 2 + 2)",
		},
		{
			f:    affine.NewMap(2, 0, []affine.Expr{d1, d0}),
			g:    affine.NewMap(2, 0, []affine.Expr{d1, d0}),
			want: "(d0, d1) -> (d0, d1)",
		},
		{
			f:    affine.NewMap(1, 0, []affine.Expr{c.Sub(c.Const(16), d0)}),
			g:    affine.NewMap(1, 0, []affine.Expr{c.Sub(c.Const(16), d0)}),
			want: "(d0) -> (d0)",
		},
		{
			f:    affine.NewMap(1, 0, []affine.Expr{c.FloorDiv(d0, 4), c.Mod(d0, 4)}),
			g:    affine.NewMap(2, 0, []affine.Expr{c.Add(c.Mul(d0, 4), d1)}),
			want: "(d0, d1) -> (d0 + d1 floordiv 4, d1 mod 4)",
		},
	}
	for i, test := range tests {
		got := test.f.Compose(c, test.g)
		if got.String() != test.want {
			t.Errorf("test %d: %s composed with %s: got %q but want %q", i, test.f, test.g, got, test.want)
		}
	}
}

func TestCompressSymbols(t *testing.T) {
	c := affine.NewContext()
	m := affine.NewMap(1, 3, []affine.Expr{c.Add(c.Dim(0), c.Symbol(2)), c.Symbol(0)})
	unused := m.UnusedSymbols()
	if want := []bool{false, true, false}; len(unused) != 3 || unused[0] != want[0] || unused[1] != want[1] || unused[2] != want[2] {
		t.Fatalf("unused symbols of %s: got %v but want %v", m, unused, want)
	}
	got := m.CompressSymbols(c, unused)
	const want = "(d0)[s0, s1] -> (d0 + s1, s0)"
	if got.String() != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestIsIdentity(t *testing.T) {
	c := affine.NewContext()
	if !affine.IdentityMap(c, 2).IsIdentity() {
		t.Errorf("identity map is not an identity")
	}
	if affine.NewMap(2, 0, []affine.Expr{c.Dim(1), c.Dim(0)}).IsIdentity() {
		t.Errorf("permutation is an identity")
	}
	if affine.NewMap(1, 1, []affine.Expr{c.Dim(0)}).IsIdentity() {
		t.Errorf("map with a symbol is an identity")
	}
}
