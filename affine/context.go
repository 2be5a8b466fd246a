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
)

// Context builds canonical expressions and interns them so that
// equal expressions share the same pointer.
//
// A context is scoped to one analysis pass. It is not safe for
// concurrent use: use one context per goroutine.
type Context struct {
	exprs map[string]Expr
}

// NewContext returns a new empty context.
func NewContext() *Context {
	return &Context{exprs: make(map[string]Expr)}
}

// Len returns the number of interned expressions.
func (c *Context) Len() int {
	return len(c.exprs)
}

func (c *Context) intern(e Expr) Expr {
	key := e.Kind().String() + ":" + e.String()
	if x, ok := c.exprs[key]; ok {
		return x
	}
	c.exprs[key] = e
	return e
}

// Const returns a constant expression.
func (c *Context) Const(v int64) Expr {
	return c.intern(&Constant{Value: v})
}

// Dim returns a reference to dimension pos.
func (c *Context) Dim(pos int) Expr {
	if pos < 0 {
		panic(fmt.Sprintf("negative dimension position %d", pos))
	}
	return c.intern(&DimExpr{Pos: pos})
}

// Symbol returns a reference to symbol pos.
func (c *Context) Symbol(pos int) Expr {
	if pos < 0 {
		panic(fmt.Sprintf("negative symbol position %d", pos))
	}
	return c.intern(&SymbolExpr{Pos: pos})
}

// Dims returns references to the dimensions [0, n).
func (c *Context) Dims(n int) []Expr {
	dims := make([]Expr, n)
	for i := range dims {
		dims[i] = c.Dim(i)
	}
	return dims
}

// Add returns x + y.
func (c *Context) Add(x, y Expr) Expr {
	return c.fromLinear(linearOf(x).add(linearOf(y)))
}

// Sum returns the sum of all the expressions.
func (c *Context) Sum(xs ...Expr) Expr {
	var l linear
	for _, x := range xs {
		l = l.add(linearOf(x))
	}
	return c.fromLinear(l)
}

// AddConst returns x + v.
func (c *Context) AddConst(x Expr, v int64) Expr {
	return c.fromLinear(linearOf(x).add(linear{constant: v}))
}

// Sub returns x - y.
func (c *Context) Sub(x, y Expr) Expr {
	return c.fromLinear(linearOf(x).add(linearOf(y).scale(-1)))
}

// Neg returns -x.
func (c *Context) Neg(x Expr) Expr {
	return c.Mul(x, -1)
}

// Mul returns x * k.
func (c *Context) Mul(x Expr, k int64) Expr {
	return c.fromLinear(linearOf(x).scale(k))
}

// Product returns x * y. Products of sums are distributed.
func (c *Context) Product(x, y Expr) Expr {
	lx, ly := linearOf(x), linearOf(y)
	r := linear{constant: lx.constant * ly.constant}
	for _, tx := range lx.terms {
		r = r.add(linear{terms: []term{{atom: tx.atom, coeff: tx.coeff * ly.constant}}})
		for _, ty := range ly.terms {
			r = r.add(linear{terms: []term{{
				atom:  c.productAtom(tx.atom, ty.atom),
				coeff: tx.coeff * ty.coeff,
			}}})
		}
	}
	for _, ty := range ly.terms {
		r = r.add(linear{terms: []term{{atom: ty.atom, coeff: ty.coeff * lx.constant}}})
	}
	return c.fromLinear(r)
}

func factorsOf(atom Expr) []Expr {
	if p, ok := atom.(*Product); ok {
		return p.Factors
	}
	return []Expr{atom}
}

func (c *Context) productAtom(x, y Expr) Expr {
	factors := append(append([]Expr{}, factorsOf(x)...), factorsOf(y)...)
	sortExprs(factors)
	return c.intern(&Product{Factors: factors})
}

// FloorDiv returns x floordiv k. k must be positive.
func (c *Context) FloorDiv(x Expr, k int64) Expr {
	if k <= 0 {
		panic(fmt.Sprintf("floordiv of %s by non-positive constant %d", x, k))
	}
	if k == 1 {
		return x
	}
	// floordiv(k*q + r, k) = q + floordiv(r, k).
	l := linearOf(x)
	in, out := l.split(k)
	quotient := in.scale(1)
	for i := range quotient.terms {
		quotient.terms[i].coeff /= k
	}
	quotient.constant = floorDiv(out.constant, k)
	out.constant = floorMod(out.constant, k)
	if out.isConstant() {
		// 0 <= out.constant < k
		return c.fromLinear(quotient)
	}
	// floordiv(g*a, g*m) = floordiv(a, m).
	if g := gcd(out.coeffGCD(), k); g > 1 {
		out = out.divide(g)
		k /= g
	}
	var rest Expr
	if inner, ok := singleAtom(out); ok {
		if fd, ok := inner.(*FloorDiv); ok {
			rest = c.FloorDiv(fd.X, fd.K*k)
		}
	}
	if rest == nil {
		rest = c.intern(&FloorDiv{X: c.fromLinear(out), K: k})
	}
	return c.fromLinear(quotient.add(linearOf(rest)))
}

// Mod returns x mod k. k must be positive.
func (c *Context) Mod(x Expr, k int64) Expr {
	if k <= 0 {
		panic(fmt.Sprintf("mod of %s by non-positive constant %d", x, k))
	}
	if k == 1 {
		return c.Const(0)
	}
	// mod(k*q + r, k) = mod(r, k).
	_, out := linearOf(x).split(k)
	out.constant = floorMod(out.constant, k)
	if out.isConstant() {
		return c.Const(out.constant)
	}
	// mod(g*a, g*m) = g*mod(a, m).
	scale := int64(1)
	if g := gcd(out.coeffGCD(), k); g > 1 {
		out = out.divide(g)
		k /= g
		scale = g
	}
	var r Expr
	if inner, ok := singleAtom(out); ok {
		if m, ok := inner.(*Mod); ok && m.K%k == 0 {
			r = c.Mod(m.X, k)
		}
	}
	if r == nil {
		r = c.intern(&Mod{X: c.fromLinear(out), K: k})
	}
	return c.Mul(r, scale)
}

func (l linear) divide(g int64) linear {
	r := linear{terms: make([]term, len(l.terms)), constant: l.constant / g}
	for i, t := range l.terms {
		r.terms[i] = term{atom: t.atom, coeff: t.coeff / g}
	}
	return r
}

// singleAtom returns the atom of a linear form equal to 1 * atom.
func singleAtom(l linear) (Expr, bool) {
	if len(l.terms) != 1 || l.constant != 0 || l.terms[0].coeff != 1 {
		return nil, false
	}
	return l.terms[0].atom, true
}

func (c *Context) termExpr(t term) Expr {
	if t.coeff == 1 {
		return t.atom
	}
	return c.intern(&Mul{X: t.atom, C: t.coeff})
}

// fromLinear builds the canonical expression of a linear form:
// a left-nested sum of sorted terms followed by the constant.
func (c *Context) fromLinear(l linear) Expr {
	l = l.add(linear{}).sorted()
	if l.isConstant() {
		return c.Const(l.constant)
	}
	acc := c.termExpr(l.terms[0])
	for _, t := range l.terms[1:] {
		acc = c.intern(&Add{X: acc, Y: c.termExpr(t)})
	}
	if l.constant != 0 {
		acc = c.intern(&Add{X: acc, Y: c.Const(l.constant)})
	}
	return acc
}

func sortExprs(xs []Expr) {
	slices.SortStableFunc(xs, compareAtoms)
}
