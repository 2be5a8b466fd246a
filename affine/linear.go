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
	"slices"
	"strings"
)

type (
	// term is an atomic expression scaled by a non-zero coefficient.
	// Atoms are dimensions, symbols, products, floor divisions and modulos.
	term struct {
		atom  Expr
		coeff int64
	}

	// linear is the flattened form of a sum: terms plus a constant.
	linear struct {
		terms    []term
		constant int64
	}
)

func linearOf(e Expr) linear {
	switch eT := e.(type) {
	case *Constant:
		return linear{constant: eT.Value}
	case *Add:
		return linearOf(eT.X).add(linearOf(eT.Y))
	case *Mul:
		return linearOf(eT.X).scale(eT.C)
	default:
		return linear{terms: []term{{atom: e, coeff: 1}}}
	}
}

func (l linear) isConstant() bool {
	return len(l.terms) == 0
}

// add returns the sum of two linear forms, merging terms with the same atom.
func (l linear) add(o linear) linear {
	r := linear{
		terms:    make([]term, 0, len(l.terms)+len(o.terms)),
		constant: l.constant + o.constant,
	}
	index := make(map[string]int, len(l.terms)+len(o.terms))
	for _, t := range slices.Concat(l.terms, o.terms) {
		key := t.atom.String()
		i, ok := index[key]
		if !ok {
			index[key] = len(r.terms)
			r.terms = append(r.terms, t)
			continue
		}
		r.terms[i].coeff += t.coeff
	}
	r.terms = slices.DeleteFunc(r.terms, func(t term) bool { return t.coeff == 0 })
	return r
}

func (l linear) scale(k int64) linear {
	if k == 0 {
		return linear{}
	}
	r := linear{
		terms:    make([]term, len(l.terms)),
		constant: l.constant * k,
	}
	for i, t := range l.terms {
		r.terms[i] = term{atom: t.atom, coeff: t.coeff * k}
	}
	return r
}

// split returns the terms whose coefficient is a multiple of k (in),
// and the other terms with the constant (out).
func (l linear) split(k int64) (in, out linear) {
	out.constant = l.constant
	for _, t := range l.terms {
		if t.coeff%k == 0 {
			in.terms = append(in.terms, t)
		} else {
			out.terms = append(out.terms, t)
		}
	}
	return
}

// coeffGCD returns the gcd of all the coefficients and of the constant.
func (l linear) coeffGCD() int64 {
	g := l.constant
	for _, t := range l.terms {
		g = gcd(g, t.coeff)
	}
	return g
}

// atomRank orders atoms by kind.
func atomRank(e Expr) int {
	return int(e.Kind())
}

// compareAtoms orders dimensions and symbols by position, then
// other atoms by their canonical string.
func compareAtoms(a, b Expr) int {
	if ra, rb := atomRank(a), atomRank(b); ra != rb {
		return ra - rb
	}
	switch aT := a.(type) {
	case *DimExpr:
		return aT.Pos - b.(*DimExpr).Pos
	case *SymbolExpr:
		return aT.Pos - b.(*SymbolExpr).Pos
	}
	return strings.Compare(a.String(), b.String())
}

func (l linear) sorted() linear {
	terms := slices.Clone(l.terms)
	slices.SortStableFunc(terms, func(a, b term) int {
		return compareAtoms(a.atom, b.atom)
	})
	return linear{terms: terms, constant: l.constant}
}
