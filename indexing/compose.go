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
	"slices"

	"github.com/gx-org/tileanalysis/affine"
)

// ComposeIndexingMaps returns the indexing map from the dimensions of
// consumer to the operands of producer. The results of consumer index the
// output of producer: they replace the dimensions of producer.
//
// The composed map has the dimensions of consumer. Its symbols are the
// symbols of producer followed by the symbols of consumer. Symbols left
// unused by the composition are removed and the result is simplified.
func ComposeIndexingMaps(ctx *affine.Context, producer, consumer *Map) *Map {
	composed := producer.AffineMap.Compose(ctx, consumer.AffineMap)
	domain := Domain{
		DimensionRanges: slices.Clone(consumer.Domain.DimensionRanges),
		SymbolRanges:    slices.Concat(producer.Domain.SymbolRanges, consumer.Domain.SymbolRanges),
	}
	restrictToProducerDomain(&domain, producer, consumer)
	m := NewMap(composed, domain)
	m.RemoveUnusedSymbols(ctx)
	m.Simplify(ctx)
	return m
}

// restrictToProducerDomain intersects the range of the consumer variables
// with the values for which they index the producer domain.
// Only results of the form k * v + c can be restricted: other constraints
// cannot be expressed by a domain and are dropped.
func restrictToProducerDomain(domain *Domain, producer, consumer *Map) {
	numProducerSymbols := len(producer.Domain.SymbolRanges)
	for i, r := range consumer.AffineMap.Results {
		v, scale, offset, ok := scaledVariable(r)
		if !ok {
			continue
		}
		allowed := producer.Domain.DimensionRanges[i].preimage(scale, offset)
		switch vT := v.(type) {
		case *affine.DimExpr:
			domain.DimensionRanges[vT.Pos] = domain.DimensionRanges[vT.Pos].Intersect(allowed)
		case *affine.SymbolExpr:
			pos := numProducerSymbols + vT.Pos
			domain.SymbolRanges[pos] = domain.SymbolRanges[pos].Intersect(allowed)
		}
	}
}

// scaledVariable returns v, k and c if e is k * v + c with v a dimension
// or a symbol.
func scaledVariable(e affine.Expr) (v affine.Expr, k, c int64, ok bool) {
	if add, isAdd := e.(*affine.Add); isAdd {
		if c, ok = affine.ConstantValue(add.Y); !ok {
			return nil, 0, 0, false
		}
		e = add.X
	}
	k = 1
	if mul, isMul := e.(*affine.Mul); isMul {
		e, k = mul.X, mul.C
	}
	switch e.(type) {
	case *affine.DimExpr, *affine.SymbolExpr:
		return e, k, c, k != 0
	}
	return nil, 0, 0, false
}
