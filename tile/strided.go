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

package tile

import "github.com/gx-org/tileanalysis/affine"

// terms returns the atoms of a canonical sum. Multiplications by
// constants are dropped: they do not change the strided structure.
func terms(e affine.Expr) []affine.Expr {
	switch eT := e.(type) {
	case *affine.Add:
		return append(terms(eT.X), terms(eT.Y)...)
	case *affine.Mul:
		return terms(eT.X)
	}
	return []affine.Expr{e}
}

// stridedSymbol returns the symbol of a term of the form s or d * s.
func stridedSymbol(e affine.Expr) (*affine.SymbolExpr, bool) {
	switch eT := e.(type) {
	case *affine.SymbolExpr:
		return eT, true
	case *affine.Product:
		if len(eT.Factors) != 2 {
			return nil, false
		}
		_, isDim := eT.Factors[0].(*affine.DimExpr)
		s, isSymbol := eT.Factors[1].(*affine.SymbolExpr)
		if !isDim || !isSymbol {
			return nil, false
		}
		return s, true
	}
	return nil, false
}

// isStrided returns true if e is offset + stride * size where offset and
// stride are linear in the dimensions and size is a single symbol.
func isStrided(e affine.Expr) bool {
	var symbol *affine.SymbolExpr
	for _, term := range terms(e) {
		switch term.(type) {
		case *affine.Constant, *affine.DimExpr:
			continue
		}
		s, ok := stridedSymbol(term)
		if !ok {
			return false
		}
		if symbol != nil && symbol.Pos != s.Pos {
			return false
		}
		symbol = s
	}
	return true
}
