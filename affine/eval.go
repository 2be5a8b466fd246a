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

import "fmt"

// Eval returns the value of e for the given values of its variables.
func Eval(e Expr, dims, symbols []int64) int64 {
	switch eT := e.(type) {
	case *Constant:
		return eT.Value
	case *DimExpr:
		return dims[eT.Pos]
	case *SymbolExpr:
		return symbols[eT.Pos]
	case *Add:
		return Eval(eT.X, dims, symbols) + Eval(eT.Y, dims, symbols)
	case *Mul:
		return Eval(eT.X, dims, symbols) * eT.C
	case *Product:
		r := int64(1)
		for _, f := range eT.Factors {
			r *= Eval(f, dims, symbols)
		}
		return r
	case *FloorDiv:
		return floorDiv(Eval(eT.X, dims, symbols), eT.K)
	case *Mod:
		return floorMod(Eval(eT.X, dims, symbols), eT.K)
	default:
		panic(fmt.Sprintf("expression %T not supported", e))
	}
}

// Eval returns the results of the map for the given values of its variables.
func (m *Map) Eval(dims, symbols []int64) []int64 {
	r := make([]int64, len(m.Results))
	for i, res := range m.Results {
		r[i] = Eval(res, dims, symbols)
	}
	return r
}
