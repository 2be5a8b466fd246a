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

package hlo

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

var typeNames = []struct {
	name string
	dt   dtype.DataType
}{
	{"pred", dtype.Bool},
	{"bf16", dtype.Bfloat16},
	{"f32", dtype.Float32},
	{"f64", dtype.Float64},
	{"s32", dtype.Int32},
	{"s64", dtype.Int64},
	{"u32", dtype.Uint32},
	{"u64", dtype.Uint64},
}

// TypeFromName returns the data type of an HLO primitive type name.
func TypeFromName(name string) (dtype.DataType, bool) {
	for _, tn := range typeNames {
		if tn.name == name {
			return tn.dt, true
		}
	}
	return dtype.Invalid, false
}

// TypeName returns the HLO primitive type name of a data type.
func TypeName(dt dtype.DataType) string {
	for _, tn := range typeNames {
		if tn.dt == dt {
			return tn.name
		}
	}
	return dt.String()
}

// NewShape returns an array shape.
func NewShape(dt dtype.DataType, axes ...int) *shape.Shape {
	return &shape.Shape{DType: dt, AxisLengths: axes}
}

// NumElements returns the number of elements of an array with the given
// axis lengths.
func NumElements(axes []int) int {
	n := 1
	for _, ax := range axes {
		n *= ax
	}
	return n
}
