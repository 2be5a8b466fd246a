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
	"fmt"
	"strings"

	"github.com/gx-org/tileanalysis/base/stringseq"
)

// Op is the operation of an instruction with its static attributes.
// The set of operations is closed: every implementation is declared
// in this package.
type Op interface {
	// Opcode returns the HLO opcode of the operation.
	Opcode() string
	isOp()
}

type (
	// Parameter of a computation.
	Parameter struct {
		Number int
	}

	// Constant literal. The value is never read.
	Constant struct{}

	// Iota fills an array with increasing values along a dimension.
	Iota struct {
		Dimension int
	}

	// Elementwise applies a scalar function to operands of the same shape.
	// Scalar operands are broadcast.
	Elementwise struct {
		Code string
	}

	// Broadcast maps the dimensions of its operand to Dimensions of the output.
	Broadcast struct {
		Dimensions []int
	}

	// Reduce reduces the Dimensions of N inputs given N initial values.
	// Operands are the inputs followed by the initial values.
	Reduce struct {
		Dimensions []int
	}

	// Reverse reverses the order of the elements along Dimensions.
	Reverse struct {
		Dimensions []int
	}

	// Transpose permutes dimensions: output dimension i is
	// operand dimension Permutation[i].
	Transpose struct {
		Permutation []int
	}

	// Reshape changes the shape of its operand keeping the
	// row-major order of the elements.
	Reshape struct{}

	// Bitcast reinterprets its operand with another shape.
	// Layouts are not modelled: a bitcast is analysed as a reshape.
	Bitcast struct{}

	// Slice extracts a strided sub-array.
	Slice struct {
		Starts  []int
		Limits  []int
		Strides []int
	}

	// PadDim is the padding configuration of one dimension.
	PadDim struct {
		Low, High, Interior int
	}

	// Pad pads its first operand with its second (scalar) operand.
	Pad struct {
		Config []PadDim
	}

	// Concatenate concatenates operands along Dimension.
	Concatenate struct {
		Dimension int
	}

	// Dot is a general dot product. The output dimensions are the batch
	// dimensions, then the free dimensions of the lhs, then the free
	// dimensions of the rhs.
	Dot struct {
		LHSBatch       []int
		RHSBatch       []int
		LHSContracting []int
		RHSContracting []int
	}

	// WindowDim describes the window of a convolution along one
	// spatial dimension.
	WindowDim struct {
		Size         int
		Stride       int
		PadLow       int
		PadHigh      int
		Dilation     int
		BaseDilation int
	}

	// ConvDims is the dimension numbering of a convolution.
	ConvDims struct {
		InputBatch, InputFeature int
		InputSpatial             []int

		KernelInputFeature, KernelOutputFeature int
		KernelSpatial                           []int

		OutputBatch, OutputFeature int
		OutputSpatial              []int
	}

	// Convolution of an input (operand 0) with a kernel (operand 1).
	Convolution struct {
		Window            []WindowDim
		Dims              ConvDims
		FeatureGroupCount int
		BatchGroupCount   int
	}

	// DataDependent is an operation reading its operands at indices
	// computed at runtime (gather, scatter, dynamic-slice, ...).
	DataDependent struct {
		Code string
	}

	// Unsupported is any other operation.
	Unsupported struct {
		Code string
	}
)

var (
	_ Op = (*Parameter)(nil)
	_ Op = (*Constant)(nil)
	_ Op = (*Iota)(nil)
	_ Op = (*Elementwise)(nil)
	_ Op = (*Broadcast)(nil)
	_ Op = (*Reduce)(nil)
	_ Op = (*Reverse)(nil)
	_ Op = (*Transpose)(nil)
	_ Op = (*Reshape)(nil)
	_ Op = (*Bitcast)(nil)
	_ Op = (*Slice)(nil)
	_ Op = (*Pad)(nil)
	_ Op = (*Concatenate)(nil)
	_ Op = (*Dot)(nil)
	_ Op = (*Convolution)(nil)
	_ Op = (*DataDependent)(nil)
	_ Op = (*Unsupported)(nil)
)

func (*Parameter) isOp()     {}
func (*Constant) isOp()      {}
func (*Iota) isOp()          {}
func (*Elementwise) isOp()   {}
func (*Broadcast) isOp()     {}
func (*Reduce) isOp()        {}
func (*Reverse) isOp()       {}
func (*Transpose) isOp()     {}
func (*Reshape) isOp()       {}
func (*Bitcast) isOp()       {}
func (*Slice) isOp()         {}
func (*Pad) isOp()           {}
func (*Concatenate) isOp()   {}
func (*Dot) isOp()           {}
func (*Convolution) isOp()   {}
func (*DataDependent) isOp() {}
func (*Unsupported) isOp()   {}

// Opcode returns "parameter".
func (*Parameter) Opcode() string { return "parameter" }

// Opcode returns "constant".
func (*Constant) Opcode() string { return "constant" }

// Opcode returns "iota".
func (*Iota) Opcode() string { return "iota" }

// Opcode returns the scalar function applied by the operation.
func (op *Elementwise) Opcode() string { return op.Code }

// Opcode returns "broadcast".
func (*Broadcast) Opcode() string { return "broadcast" }

// Opcode returns "reduce".
func (*Reduce) Opcode() string { return "reduce" }

// Opcode returns "reverse".
func (*Reverse) Opcode() string { return "reverse" }

// Opcode returns "transpose".
func (*Transpose) Opcode() string { return "transpose" }

// Opcode returns "reshape".
func (*Reshape) Opcode() string { return "reshape" }

// Opcode returns "bitcast".
func (*Bitcast) Opcode() string { return "bitcast" }

// Opcode returns "slice".
func (*Slice) Opcode() string { return "slice" }

// Opcode returns "pad".
func (*Pad) Opcode() string { return "pad" }

// Opcode returns "concatenate".
func (*Concatenate) Opcode() string { return "concatenate" }

// Opcode returns "dot".
func (*Dot) Opcode() string { return "dot" }

// Opcode returns "convolution".
func (*Convolution) Opcode() string { return "convolution" }

// Opcode returns the opcode of the operation.
func (op *DataDependent) Opcode() string { return op.Code }

// Opcode returns the opcode of the operation.
func (op *Unsupported) Opcode() string { return op.Code }

// elementwiseCodes lists the opcodes applying a scalar function elementwise.
var elementwiseCodes = map[string]bool{
	"abs": true, "add": true, "and": true, "atan2": true, "cbrt": true,
	"ceil": true, "clamp": true, "clz": true, "compare": true, "complex": true,
	"convert": true, "copy": true, "cosine": true, "divide": true, "erf": true,
	"exponential": true, "exponential-minus-one": true, "floor": true, "imag": true,
	"is-finite": true, "log": true, "log-plus-one": true, "logistic": true,
	"maximum": true, "minimum": true, "multiply": true, "negate": true, "not": true,
	"or": true, "popcnt": true, "power": true, "real": true, "reduce-precision": true,
	"remainder": true, "round-nearest-afz": true, "round-nearest-even": true,
	"rsqrt": true, "select": true, "shift-left": true, "shift-right-arithmetic": true,
	"shift-right-logical": true, "sign": true, "sine": true, "sqrt": true,
	"subtract": true, "tan": true, "tanh": true, "xor": true,
}

// dataDependentCodes lists the opcodes reading operands at runtime indices.
var dataDependentCodes = map[string]bool{
	"dynamic-slice":        true,
	"dynamic-update-slice": true,
	"gather":               true,
	"scatter":              true,
	"sort":                 true,
}

// IsElementwiseCode returns true if code applies a scalar function elementwise.
func IsElementwiseCode(code string) bool {
	return elementwiseCodes[code]
}

// IsDataDependentCode returns true if code reads its operands at indices
// computed at runtime.
func IsDataDependentCode(code string) bool {
	return dataDependentCodes[code]
}

// OpFromCode returns the operation for opcodes without attributes.
// Opcodes with attributes, or unknown opcodes, return an Unsupported operation.
func OpFromCode(code string) Op {
	switch {
	case code == "constant":
		return &Constant{}
	case code == "reshape":
		return &Reshape{}
	case code == "bitcast":
		return &Bitcast{}
	case IsElementwiseCode(code):
		return &Elementwise{Code: code}
	case IsDataDependentCode(code):
		return &DataDependent{Code: code}
	}
	return &Unsupported{Code: code}
}

func intList(xs []int) string {
	return "{" + stringseq.Join(stringseq.Ints(xs), ",") + "}"
}

// Attributes returns the static attributes of an operation in HLO text form.
func Attributes(op Op) string {
	switch opT := op.(type) {
	case *Iota:
		return fmt.Sprintf("iota_dimension=%d", opT.Dimension)
	case *Broadcast:
		return "dimensions=" + intList(opT.Dimensions)
	case *Reduce:
		return "dimensions=" + intList(opT.Dimensions)
	case *Reverse:
		return "dimensions=" + intList(opT.Dimensions)
	case *Transpose:
		return "dimensions=" + intList(opT.Permutation)
	case *Concatenate:
		return fmt.Sprintf("dimensions={%d}", opT.Dimension)
	case *Slice:
		dims := make([]string, len(opT.Starts))
		for i := range dims {
			dims[i] = fmt.Sprintf("[%d:%d:%d]", opT.Starts[i], opT.Limits[i], opT.Strides[i])
		}
		return "slice={" + strings.Join(dims, ", ") + "}"
	case *Pad:
		dims := make([]string, len(opT.Config))
		for i, c := range opT.Config {
			dims[i] = fmt.Sprintf("%d_%d", c.Low, c.High)
			if c.Interior != 0 {
				dims[i] += fmt.Sprintf("_%d", c.Interior)
			}
		}
		return "padding=" + strings.Join(dims, "x")
	case *Dot:
		return fmt.Sprintf("lhs_batch_dims=%s, lhs_contracting_dims=%s, rhs_batch_dims=%s, rhs_contracting_dims=%s",
			intList(opT.LHSBatch), intList(opT.LHSContracting), intList(opT.RHSBatch), intList(opT.RHSContracting))
	case *Convolution:
		sizes := make([]int, len(opT.Window))
		for i, w := range opT.Window {
			sizes[i] = w.Size
		}
		return "window={size=" + stringseq.Join(stringseq.Ints(sizes), "x") + "}"
	}
	return ""
}
