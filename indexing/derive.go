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
	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/hlo"
)

// ComputeOutputToInputIndexing returns, for every operand of instr, the
// indexing maps from the coordinates of the output outputID of instr to
// the coordinates of the operand read to compute it.
//
// The error wraps ErrUnsupported if the correspondence cannot be
// represented by indexing maps, or ErrInvalidInput if outputID or the
// attributes of the instruction are invalid.
func ComputeOutputToInputIndexing(ctx *affine.Context, instr *hlo.Instruction, outputID int) (*InstructionIndexing, error) {
	if outputID != 0 {
		return nil, invalidf("instruction %s has a single output but got output id %d", instr.Name(), outputID)
	}
	if err := instr.Validate(); err != nil {
		return nil, invalidf("instruction %s: %v", instr.Name(), err)
	}
	var maps []*Map
	var err error
	switch op := instr.Op().(type) {
	case *hlo.Parameter, *hlo.Constant, *hlo.Iota:
		return &InstructionIndexing{}, nil
	case *hlo.Elementwise:
		maps = elementwiseOutputToInput(ctx, instr)
	case *hlo.Broadcast:
		maps = []*Map{broadcastOutputToInput(ctx, instr, op)}
	case *hlo.Reduce:
		maps = reduceOutputToInput(ctx, instr, op)
	case *hlo.Reverse:
		maps = []*Map{reverseIndexing(ctx, instr.Dimensions(), op)}
	case *hlo.Transpose:
		maps = []*Map{FromTensorSizes(
			ComputeTransposeIndexingMap(ctx, inversePermutation(op.Permutation)),
			instr.Dimensions(), nil)}
	case *hlo.Reshape, *hlo.Bitcast:
		var m *Map
		m, err = reshapeIndexing(ctx, instr.Dimensions(), instr.Operand(0).Dimensions())
		maps = []*Map{m}
	case *hlo.Slice:
		maps = []*Map{sliceOutputToInput(ctx, instr, op)}
	case *hlo.Pad:
		maps, err = padOutputToInput(ctx, instr, op)
	case *hlo.Concatenate:
		maps = concatenateOutputToInput(ctx, instr, op)
	case *hlo.Dot:
		maps = dotOutputToInput(ctx, instr, op)
	case *hlo.Convolution:
		maps, err = convolutionOutputToInput(ctx, instr, op)
	case *hlo.DataDependent:
		return nil, unsupportedf("%s reads its operands at data-dependent indices", op.Code)
	case *hlo.Unsupported:
		return nil, unsupportedf("no indexing rule for %s", op.Code)
	default:
		return nil, unsupportedf("no indexing rule for %T", op)
	}
	if err != nil {
		return nil, err
	}
	ii := FromIndexingMaps(maps...)
	ii.Simplify(ctx)
	return ii, nil
}

// ComputeInputToOutputIndexing returns the indexing maps from the
// coordinates of the operand inputID of instr to the coordinates of the
// output elements reading it. The returned indexing has a single set of
// maps for the output of the instruction.
//
// Errors wrap ErrUnsupported or ErrInvalidInput as in
// ComputeOutputToInputIndexing.
func ComputeInputToOutputIndexing(ctx *affine.Context, instr *hlo.Instruction, inputID int) (*InstructionIndexing, error) {
	if inputID < 0 || inputID >= instr.NumOperands() {
		return nil, invalidf("instruction %s has %d operand(s) but got input id %d", instr.Name(), instr.NumOperands(), inputID)
	}
	if err := instr.Validate(); err != nil {
		return nil, invalidf("instruction %s: %v", instr.Name(), err)
	}
	var m *Map
	var err error
	switch op := instr.Op().(type) {
	case *hlo.Elementwise:
		m = elementwiseInputToOutput(ctx, instr, inputID)
	case *hlo.Broadcast:
		m = broadcastInputToOutput(ctx, instr, op)
	case *hlo.Reduce:
		m = reduceInputToOutput(ctx, instr, op, inputID)
	case *hlo.Reverse:
		m = reverseIndexing(ctx, instr.Dimensions(), op)
	case *hlo.Transpose:
		m = FromTensorSizes(
			ComputeTransposeIndexingMap(ctx, op.Permutation),
			instr.Operand(0).Dimensions(), nil)
	case *hlo.Reshape, *hlo.Bitcast:
		m, err = reshapeIndexing(ctx, instr.Operand(0).Dimensions(), instr.Dimensions())
	case *hlo.Slice:
		m, err = sliceInputToOutput(ctx, instr, op)
	case *hlo.Pad:
		m, err = padInputToOutput(ctx, instr, op, inputID)
	case *hlo.Concatenate:
		m = concatenateInputToOutput(ctx, instr, op, inputID)
	case *hlo.Dot:
		m = dotInputToOutput(ctx, instr, op, inputID)
	case *hlo.Convolution:
		return nil, unsupportedf("input to output indexing of convolution %s", instr.Name())
	case *hlo.DataDependent:
		return nil, unsupportedf("%s writes its output at data-dependent indices", op.Code)
	case *hlo.Unsupported:
		return nil, unsupportedf("no indexing rule for %s", op.Code)
	default:
		return nil, unsupportedf("no input to output indexing rule for %T", op)
	}
	if err != nil {
		return nil, err
	}
	ii := FromIndexingMaps(m)
	ii.Simplify(ctx)
	return ii, nil
}

// scalarMap returns the map from the dimensions of an iteration space to
// a scalar: (d0, ..., dn) -> ().
func scalarMap(axes []int) *Map {
	return FromTensorSizes(affine.NewMap(len(axes), 0, nil), axes, nil)
}

// broadcastScalarMap returns the map from a scalar to every element of an
// array: ()[s0, ..., sn] -> (s0, ..., sn).
func broadcastScalarMap(ctx *affine.Context, axes []int) *Map {
	symbols := make([]affine.Expr, len(axes))
	for i := range symbols {
		symbols[i] = ctx.Symbol(i)
	}
	return FromTensorSizes(affine.NewMap(0, len(axes), symbols), nil, axes)
}

func elementwiseOutputToInput(ctx *affine.Context, instr *hlo.Instruction) []*Map {
	out := instr.Dimensions()
	maps := make([]*Map, instr.NumOperands())
	for i := range maps {
		if instr.Operand(i).Rank() == 0 && len(out) > 0 {
			maps[i] = scalarMap(out)
			continue
		}
		maps[i] = FromTensorSizes(affine.IdentityMap(ctx, len(out)), out, nil)
	}
	return maps
}

func elementwiseInputToOutput(ctx *affine.Context, instr *hlo.Instruction, inputID int) *Map {
	out := instr.Dimensions()
	if instr.Operand(inputID).Rank() == 0 && len(out) > 0 {
		return broadcastScalarMap(ctx, out)
	}
	return FromTensorSizes(affine.IdentityMap(ctx, len(out)), out, nil)
}

// broadcastOutputToInput keeps the output dimensions listed by the broadcast.
func broadcastOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Broadcast) *Map {
	out := instr.Dimensions()
	results := make([]affine.Expr, len(op.Dimensions))
	for i, ax := range op.Dimensions {
		results[i] = ctx.Dim(ax)
	}
	return FromTensorSizes(affine.NewMap(len(out), 0, results), out, nil)
}

// broadcastInputToOutput introduces a symbol for every output axis not
// mapped to an operand axis.
func broadcastInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Broadcast) *Map {
	in, out := instr.Operand(0).Dimensions(), instr.Dimensions()
	operandAxis := make([]int, len(out))
	for i := range operandAxis {
		operandAxis[i] = -1
	}
	for i, ax := range op.Dimensions {
		operandAxis[ax] = i
	}
	results := make([]affine.Expr, len(out))
	var symbols []int
	for i, ax := range operandAxis {
		if ax >= 0 {
			results[i] = ctx.Dim(ax)
			continue
		}
		results[i] = ctx.Symbol(len(symbols))
		symbols = append(symbols, out[i])
	}
	return FromTensorSizes(affine.NewMap(len(in), len(symbols), results), in, symbols)
}

func axisSet(axes []int) map[int]bool {
	set := make(map[int]bool, len(axes))
	for _, ax := range axes {
		set[ax] = true
	}
	return set
}

// reduceOutputToInput maps the output to the inputs with a symbol for every
// reduced axis, in the order of the input axes. Initial values are scalars.
func reduceOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Reduce) []*Map {
	out := instr.Dimensions()
	reduced := axisSet(op.Dimensions)
	numInputs := instr.NumOperands() / 2
	maps := make([]*Map, instr.NumOperands())
	for i := range numInputs {
		in := instr.Operand(i).Dimensions()
		results := make([]affine.Expr, len(in))
		var symbols []int
		dim := 0
		for ax, size := range in {
			if reduced[ax] {
				results[ax] = ctx.Symbol(len(symbols))
				symbols = append(symbols, size)
				continue
			}
			results[ax] = ctx.Dim(dim)
			dim++
		}
		maps[i] = FromTensorSizes(affine.NewMap(len(out), len(symbols), results), out, symbols)
	}
	for i := numInputs; i < len(maps); i++ {
		maps[i] = scalarMap(out)
	}
	return maps
}

// reduceInputToOutput drops the reduced axes of an input.
// An initial value is read by every output element.
func reduceInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Reduce, inputID int) *Map {
	out := instr.Dimensions()
	if inputID >= instr.NumOperands()/2 {
		return broadcastScalarMap(ctx, out)
	}
	in := instr.Operand(inputID).Dimensions()
	reduced := axisSet(op.Dimensions)
	var results []affine.Expr
	for ax := range in {
		if !reduced[ax] {
			results = append(results, ctx.Dim(ax))
		}
	}
	return FromTensorSizes(affine.NewMap(len(in), 0, results), in, nil)
}

// reverseIndexing maps the coordinate d of a reversed axis of length n
// to n - 1 - d. The map is its own inverse.
func reverseIndexing(ctx *affine.Context, axes []int, op *hlo.Reverse) *Map {
	reversed := axisSet(op.Dimensions)
	results := make([]affine.Expr, len(axes))
	for ax, size := range axes {
		results[ax] = ctx.Dim(ax)
		if reversed[ax] {
			results[ax] = ctx.AddConst(ctx.Neg(results[ax]), int64(size-1))
		}
	}
	return FromTensorSizes(affine.NewMap(len(axes), 0, results), axes, nil)
}

// ComputeTransposeIndexingMap returns the map (d0, ..., dn) -> (d_p0, ..., d_pn)
// where p is the permutation.
func ComputeTransposeIndexingMap(ctx *affine.Context, permutation []int) *affine.Map {
	results := make([]affine.Expr, len(permutation))
	for i, p := range permutation {
		results[i] = ctx.Dim(p)
	}
	return affine.NewMap(len(permutation), 0, results)
}

func inversePermutation(permutation []int) []int {
	inv := make([]int, len(permutation))
	for i, p := range permutation {
		inv[p] = i
	}
	return inv
}
