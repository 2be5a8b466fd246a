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

// maxSimplifyRounds bounds the number of rewrite rounds of Simplify.
const maxSimplifyRounds = 16

// Simplify rewrites e using the bounds of its variables:
//   - x floordiv k is folded when x stays within one multiple of k,
//   - x mod k is folded to x - q*k when x stays within [q*k, (q+1)*k),
//   - (a*x + r) floordiv (a*m) = x floordiv m when 0 <= r < a,
//   - (a*x + r) mod (a*m) = a*(x mod m) + r when 0 <= r < a.
//
// Simplify returns the same pointer if no rewrite applies.
func (c *Context) Simplify(e Expr, vars VarBounds) Expr {
	for range maxSimplifyRounds {
		next := c.simplify(e, vars)
		if next == e {
			break
		}
		e = next
	}
	return e
}

func (c *Context) simplify(e Expr, vars VarBounds) Expr {
	switch eT := e.(type) {
	case *Add:
		x, y := c.simplify(eT.X, vars), c.simplify(eT.Y, vars)
		if x == eT.X && y == eT.Y {
			return e
		}
		return c.Add(x, y)
	case *Mul:
		x := c.simplify(eT.X, vars)
		if x == eT.X {
			return e
		}
		return c.Mul(x, eT.C)
	case *Product:
		changed := false
		factors := make([]Expr, len(eT.Factors))
		for i, f := range eT.Factors {
			factors[i] = c.simplify(f, vars)
			changed = changed || factors[i] != f
		}
		if !changed {
			return e
		}
		r := c.Const(1)
		for _, f := range factors {
			r = c.Product(r, f)
		}
		return r
	case *FloorDiv:
		return c.simplifyFloorDiv(eT, vars)
	case *Mod:
		return c.simplifyMod(eT, vars)
	default:
		return e
	}
}

func (c *Context) simplifyFloorDiv(e *FloorDiv, vars VarBounds) Expr {
	x := c.simplify(e.X, vars)
	b := vars.Bounds(x)
	if q := floorDiv(b.Lower, e.K); q == floorDiv(b.Upper, e.K) {
		return c.Const(q)
	}
	if scaled, _, m, ok := splitDividend(x, e.K, vars); ok {
		return c.FloorDiv(c.fromLinear(scaled), m)
	}
	if x == e.X {
		return e
	}
	return c.FloorDiv(x, e.K)
}

func (c *Context) simplifyMod(e *Mod, vars VarBounds) Expr {
	x := c.simplify(e.X, vars)
	b := vars.Bounds(x)
	if q := floorDiv(b.Lower, e.K); q == floorDiv(b.Upper, e.K) {
		return c.AddConst(x, -q*e.K)
	}
	if scaled, rest, m, ok := splitDividend(x, e.K, vars); ok {
		a := e.K / m
		return c.Add(c.Mul(c.Mod(c.fromLinear(scaled), m), a), c.fromLinear(rest))
	}
	if x == e.X {
		return e
	}
	return c.Mod(x, e.K)
}

// splitDividend finds the largest a dividing k such that x = a*scaled + rest
// with 0 <= rest < a. It returns scaled, rest and m = k/a.
func splitDividend(x Expr, k int64, vars VarBounds) (scaled, rest linear, m int64, ok bool) {
	l := linearOf(x)
	best := int64(1)
	for _, t := range l.terms {
		a := gcd(t.coeff, k)
		if a <= best {
			continue
		}
		in, out := l.split(a)
		if len(in.terms) == 0 {
			continue
		}
		if !(Interval{Lower: 0, Upper: a - 1}).Contains(vars.Bounds(linearExpr(out))) {
			continue
		}
		best = a
		scaled, rest = in.divide(a), out
	}
	if best == 1 {
		return linear{}, linear{}, 0, false
	}
	return scaled, rest, k / best, true
}

// linearExpr builds a non-canonical expression of a linear form
// to compute its bounds without interning it.
func linearExpr(l linear) Expr {
	var acc Expr = &Constant{Value: l.constant}
	for _, t := range l.terms {
		acc = &Add{X: acc, Y: &Mul{X: t.atom, C: t.coeff}}
	}
	return acc
}
