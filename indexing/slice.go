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

// sliceOutputToInput maps the output coordinate d to start + stride * d.
func sliceOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Slice) *Map {
	out := instr.Dimensions()
	results := make([]affine.Expr, len(out))
	for i := range out {
		results[i] = ctx.AddConst(ctx.Mul(ctx.Dim(i), int64(op.Strides[i])), int64(op.Starts[i]))
	}
	return FromTensorSizes(affine.NewMap(len(out), 0, results), out, nil)
}

// sliceInputToOutput maps the input coordinate d to d - start. Only the
// coordinates in [start, limit) are part of the output.
func sliceInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Slice) (*Map, error) {
	in := instr.Operand(0).Dimensions()
	results := make([]affine.Expr, len(in))
	domain := Domain{DimensionRanges: make([]Range, len(in))}
	for i := range in {
		if op.Strides[i] != 1 {
			return nil, unsupportedf("input to output indexing of slice %s with stride %d on axis %d", instr.Name(), op.Strides[i], i)
		}
		results[i] = ctx.AddConst(ctx.Dim(i), -int64(op.Starts[i]))
		domain.DimensionRanges[i] = Range{Lower: int64(op.Starts[i]), Upper: int64(op.Limits[i])}
	}
	return NewMap(affine.NewMap(len(in), 0, results), domain), nil
}

func checkNoInteriorPadding(instr *hlo.Instruction, op *hlo.Pad) error {
	for i, c := range op.Config {
		if c.Interior != 0 {
			return unsupportedf("pad %s has interior padding %d on axis %d", instr.Name(), c.Interior, i)
		}
	}
	return nil
}

// padOutputToInput maps the output coordinate d to d - low on the
// unpadded part of the output. The padding value is a scalar read by
// every output element.
func padOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Pad) ([]*Map, error) {
	if err := checkNoInteriorPadding(instr, op); err != nil {
		return nil, err
	}
	in, out := instr.Operand(0).Dimensions(), instr.Dimensions()
	results := make([]affine.Expr, len(out))
	domain := Domain{DimensionRanges: make([]Range, len(out))}
	for i, c := range op.Config {
		low := int64(c.Low)
		results[i] = ctx.AddConst(ctx.Dim(i), -low)
		domain.DimensionRanges[i] = NewRange(int64(out[i])).Intersect(NewRange(int64(in[i])).Shift(low))
	}
	return []*Map{
		NewMap(affine.NewMap(len(out), 0, results), domain),
		scalarMap(out),
	}, nil
}

// padInputToOutput maps the operand coordinate d to d + low. The
// coordinates removed by a negative padding are not part of the domain.
func padInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Pad, inputID int) (*Map, error) {
	if inputID != 0 {
		return nil, unsupportedf("input to output indexing of the padding value of %s", instr.Name())
	}
	if err := checkNoInteriorPadding(instr, op); err != nil {
		return nil, err
	}
	in, out := instr.Operand(0).Dimensions(), instr.Dimensions()
	results := make([]affine.Expr, len(in))
	domain := Domain{DimensionRanges: make([]Range, len(in))}
	for i, c := range op.Config {
		low := int64(c.Low)
		results[i] = ctx.AddConst(ctx.Dim(i), low)
		domain.DimensionRanges[i] = NewRange(int64(in[i])).Intersect(NewRange(int64(out[i])).Shift(-low))
	}
	return NewMap(affine.NewMap(len(in), 0, results), domain), nil
}

func concatenateOffsets(instr *hlo.Instruction, op *hlo.Concatenate) []int64 {
	offsets := make([]int64, instr.NumOperands())
	offset := int64(0)
	for i := range offsets {
		offsets[i] = offset
		offset += int64(instr.Operand(i).Dimensions()[op.Dimension])
	}
	return offsets
}

// concatenateOutputToInput maps every operand to the part of the output
// it fills along the concatenated axis.
func concatenateOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Concatenate) []*Map {
	out := instr.Dimensions()
	offsets := concatenateOffsets(instr, op)
	maps := make([]*Map, instr.NumOperands())
	for i := range maps {
		results := ctx.Dims(len(out))
		results[op.Dimension] = ctx.AddConst(results[op.Dimension], -offsets[i])
		domain := FromShape(out, nil)
		size := int64(instr.Operand(i).Dimensions()[op.Dimension])
		domain.DimensionRanges[op.Dimension] = Range{Lower: offsets[i], Upper: offsets[i] + size}
		maps[i] = NewMap(affine.NewMap(len(out), 0, results), domain)
	}
	return maps
}

func concatenateInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Concatenate, inputID int) *Map {
	in := instr.Operand(inputID).Dimensions()
	offsets := concatenateOffsets(instr, op)
	results := ctx.Dims(len(in))
	results[op.Dimension] = ctx.AddConst(results[op.Dimension], offsets[inputID])
	return FromTensorSizes(affine.NewMap(len(in), 0, results), in, nil)
}
