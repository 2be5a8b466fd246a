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

type (
	// Interval is a closed interval of integers [Lower, Upper].
	Interval struct {
		Lower, Upper int64
	}

	// VarBounds stores the bounds of the dimensions and symbols of an expression.
	VarBounds struct {
		Dims    []Interval
		Symbols []Interval
	}
)

// Point returns the interval [v, v].
func Point(v int64) Interval {
	return Interval{Lower: v, Upper: v}
}

// IsPoint returns true if the interval contains a single value.
func (iv Interval) IsPoint() bool {
	return iv.Lower == iv.Upper
}

// Contains returns true if o is included in iv.
func (iv Interval) Contains(o Interval) bool {
	return iv.Lower <= o.Lower && o.Upper <= iv.Upper
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d, %d]", iv.Lower, iv.Upper)
}

func (iv Interval) add(o Interval) Interval {
	return Interval{Lower: iv.Lower + o.Lower, Upper: iv.Upper + o.Upper}
}

func (iv Interval) scale(k int64) Interval {
	if k < 0 {
		return Interval{Lower: iv.Upper * k, Upper: iv.Lower * k}
	}
	return Interval{Lower: iv.Lower * k, Upper: iv.Upper * k}
}

func (iv Interval) mul(o Interval) Interval {
	corners := [4]int64{
		iv.Lower * o.Lower,
		iv.Lower * o.Upper,
		iv.Upper * o.Lower,
		iv.Upper * o.Upper,
	}
	r := Interval{Lower: corners[0], Upper: corners[0]}
	for _, c := range corners[1:] {
		r.Lower = min(r.Lower, c)
		r.Upper = max(r.Upper, c)
	}
	return r
}

// Bounds returns a conservative interval containing all the values e can take
// when its variables are within vars. Tighter variable bounds never produce
// a looser result.
//
// Bounds panics if e references a variable without bounds.
func (vars VarBounds) Bounds(e Expr) Interval {
	switch eT := e.(type) {
	case *Constant:
		return Point(eT.Value)
	case *DimExpr:
		if eT.Pos >= len(vars.Dims) {
			panic(fmt.Sprintf("no bounds for dimension %s: only %d dimension bounds", eT, len(vars.Dims)))
		}
		return vars.Dims[eT.Pos]
	case *SymbolExpr:
		if eT.Pos >= len(vars.Symbols) {
			panic(fmt.Sprintf("no bounds for symbol %s: only %d symbol bounds", eT, len(vars.Symbols)))
		}
		return vars.Symbols[eT.Pos]
	case *Add:
		return vars.Bounds(eT.X).add(vars.Bounds(eT.Y))
	case *Mul:
		return vars.Bounds(eT.X).scale(eT.C)
	case *Product:
		r := Point(1)
		for _, f := range eT.Factors {
			r = r.mul(vars.Bounds(f))
		}
		return r
	case *FloorDiv:
		x := vars.Bounds(eT.X)
		return Interval{Lower: floorDiv(x.Lower, eT.K), Upper: floorDiv(x.Upper, eT.K)}
	case *Mod:
		x := vars.Bounds(eT.X)
		if floorDiv(x.Lower, eT.K) == floorDiv(x.Upper, eT.K) {
			return Interval{Lower: floorMod(x.Lower, eT.K), Upper: floorMod(x.Upper, eT.K)}
		}
		return Interval{Lower: 0, Upper: eT.K - 1}
	default:
		panic(fmt.Sprintf("expression %T not supported", e))
	}
}
