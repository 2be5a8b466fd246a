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

// Package affine implements canonical affine expressions and maps.
//
// Expressions are built with a Context which keeps every expression in a
// canonical form: two expressions computing the same function through the
// same canonical rewrites are represented by the same pointer within a
// context and by the same string across contexts.
//
// An expression combines dimensions d_i, symbols s_j and integer constants
// with additions, multiplications by constants, floor divisions and modulos
// by positive constants. Products of two non-constant expressions are also
// supported to represent strided tiles (offset + stride * size).
package affine

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind of an expression.
type Kind int

// Expression kinds. The order of the atomic kinds defines the order of the
// terms of a canonical sum.
const (
	ConstantKind Kind = iota
	DimKind
	SymbolKind
	ProductKind
	FloorDivKind
	ModKind
	MulKind
	AddKind
)

var kindNames = map[Kind]string{
	ConstantKind: "constant",
	DimKind:      "dim",
	SymbolKind:   "symbol",
	ProductKind:  "product",
	FloorDivKind: "floordiv",
	ModKind:      "mod",
	MulKind:      "mul",
	AddKind:      "add",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return name
}

type (
	// Expr is an affine expression.
	// Expressions must be built with a Context to be canonical.
	Expr interface {
		fmt.Stringer
		// Kind returns the kind of the expression.
		Kind() Kind
		node()
	}

	// Constant is an integer constant.
	Constant struct {
		Value int64
	}

	// DimExpr is a reference to a dimension of a map.
	DimExpr struct {
		Pos int
	}

	// SymbolExpr is a reference to a symbol of a map.
	SymbolExpr struct {
		Pos int
	}

	// Add is the sum of two expressions.
	// In a canonical sum, X is a term or a sum and Y is a term or a constant.
	Add struct {
		X, Y Expr
		str  string
	}

	// Mul multiplies an expression by a constant.
	Mul struct {
		X   Expr
		C   int64
		str string
	}

	// Product multiplies non-constant atomic expressions together.
	Product struct {
		Factors []Expr
		str     string
	}

	// FloorDiv divides an expression by a positive constant,
	// rounding towards negative infinity.
	FloorDiv struct {
		X   Expr
		K   int64
		str string
	}

	// Mod is the remainder in [0, K) of the division of an expression by
	// a positive constant.
	Mod struct {
		X   Expr
		K   int64
		str string
	}
)

var (
	_ Expr = (*Constant)(nil)
	_ Expr = (*DimExpr)(nil)
	_ Expr = (*SymbolExpr)(nil)
	_ Expr = (*Add)(nil)
	_ Expr = (*Mul)(nil)
	_ Expr = (*Product)(nil)
	_ Expr = (*FloorDiv)(nil)
	_ Expr = (*Mod)(nil)
)

func (*Constant) node()   {}
func (*DimExpr) node()    {}
func (*SymbolExpr) node() {}
func (*Add) node()        {}
func (*Mul) node()        {}
func (*Product) node()    {}
func (*FloorDiv) node()   {}
func (*Mod) node()        {}

// Kind of the expression.
func (*Constant) Kind() Kind { return ConstantKind }

// Kind of the expression.
func (*DimExpr) Kind() Kind { return DimKind }

// Kind of the expression.
func (*SymbolExpr) Kind() Kind { return SymbolKind }

// Kind of the expression.
func (*Add) Kind() Kind { return AddKind }

// Kind of the expression.
func (*Mul) Kind() Kind { return MulKind }

// Kind of the expression.
func (*Product) Kind() Kind { return ProductKind }

// Kind of the expression.
func (*FloorDiv) Kind() Kind { return FloorDivKind }

// Kind of the expression.
func (*Mod) Kind() Kind { return ModKind }

func (e *Constant) String() string { return strconv.FormatInt(e.Value, 10) }

func (e *DimExpr) String() string { return "d" + strconv.Itoa(e.Pos) }

func (e *SymbolExpr) String() string { return "s" + strconv.Itoa(e.Pos) }

func (e *Add) String() string {
	if e.str == "" {
		e.str = addString(e)
	}
	return e.str
}

func (e *Mul) String() string {
	if e.str == "" {
		e.str = mulString(e.X, e.C)
	}
	return e.str
}

func (e *Product) String() string {
	if e.str == "" {
		factors := make([]string, len(e.Factors))
		for i, f := range e.Factors {
			factors[i] = operandString(f)
		}
		e.str = strings.Join(factors, " * ")
	}
	return e.str
}

func (e *FloorDiv) String() string {
	if e.str == "" {
		e.str = fmt.Sprintf("%s floordiv %d", operandString(e.X), e.K)
	}
	return e.str
}

func (e *Mod) String() string {
	if e.str == "" {
		e.str = fmt.Sprintf("%s mod %d", operandString(e.X), e.K)
	}
	return e.str
}

// IsAtomic returns true if the expression is a constant, a dimension or a symbol.
func IsAtomic(e Expr) bool {
	switch e.(type) {
	case *Constant, *DimExpr, *SymbolExpr:
		return true
	}
	return false
}

func operandString(e Expr) string {
	if IsAtomic(e) {
		return e.String()
	}
	return "(" + e.String() + ")"
}

func mulString(x Expr, c int64) string {
	if c == -1 {
		return "-" + operandString(x)
	}
	return fmt.Sprintf("%s * %d", operandString(x), c)
}

func addString(e *Add) string {
	var b strings.Builder
	b.WriteString(e.X.String())
	switch yT := e.Y.(type) {
	case *Constant:
		if yT.Value < 0 {
			fmt.Fprintf(&b, " - %d", -yT.Value)
			return b.String()
		}
	case *Mul:
		if yT.C < 0 {
			b.WriteString(" - ")
			if yT.C == -1 {
				b.WriteString(operandString(yT.X))
			} else {
				b.WriteString(mulString(yT.X, -yT.C))
			}
			return b.String()
		}
	}
	b.WriteString(" + ")
	b.WriteString(e.Y.String())
	return b.String()
}

// Equal returns true if two expressions are structurally equal.
func Equal(x, y Expr) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	return x.Kind() == y.Kind() && x.String() == y.String()
}

// ConstantValue returns the value of an expression if it is a constant.
func ConstantValue(e Expr) (int64, bool) {
	c, ok := e.(*Constant)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// Walk calls f on e and all its subexpressions, parents first.
// The walk stops descending into an expression if f returns false.
func Walk(e Expr, f func(Expr) bool) {
	if !f(e) {
		return
	}
	switch eT := e.(type) {
	case *Add:
		Walk(eT.X, f)
		Walk(eT.Y, f)
	case *Mul:
		Walk(eT.X, f)
	case *Product:
		for _, factor := range eT.Factors {
			Walk(factor, f)
		}
	case *FloorDiv:
		Walk(eT.X, f)
	case *Mod:
		Walk(eT.X, f)
	}
}

// UsedVariables marks the dimensions and symbols referenced by e.
// Positions out of the slices bounds are ignored.
func UsedVariables(e Expr, dims, symbols []bool) {
	Walk(e, func(x Expr) bool {
		switch xT := x.(type) {
		case *DimExpr:
			if xT.Pos < len(dims) {
				dims[xT.Pos] = true
			}
		case *SymbolExpr:
			if xT.Pos < len(symbols) {
				symbols[xT.Pos] = true
			}
		}
		return true
	})
}
