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

// freeAxes returns the axes of an operand which are neither batch nor
// contracting axes, in increasing order.
func freeAxes(rank int, batch, contracting []int) []int {
	used := axisSet(batch)
	for _, ax := range contracting {
		used[ax] = true
	}
	var free []int
	for ax := range rank {
		if !used[ax] {
			free = append(free, ax)
		}
	}
	return free
}

// dotOperand describes how the axes of one operand of a dot map to the
// output axes.
type dotOperand struct {
	shape       []int
	batch       []int
	contracting []int
	free        []int
	// firstFree is the output axis of the first free axis of the operand.
	firstFree int
}

func dotOperands(instr *hlo.Instruction, op *hlo.Dot) [2]dotOperand {
	lhs, rhs := instr.Operand(0).Dimensions(), instr.Operand(1).Dimensions()
	lhsFree := freeAxes(len(lhs), op.LHSBatch, op.LHSContracting)
	rhsFree := freeAxes(len(rhs), op.RHSBatch, op.RHSContracting)
	return [2]dotOperand{
		{shape: lhs, batch: op.LHSBatch, contracting: op.LHSContracting, free: lhsFree, firstFree: len(op.LHSBatch)},
		{shape: rhs, batch: op.RHSBatch, contracting: op.RHSContracting, free: rhsFree, firstFree: len(op.LHSBatch) + len(lhsFree)},
	}
}

// outputToInput maps the output coordinates to the operand coordinates.
// Contracting axes are symbols.
func (d dotOperand) outputToInput(ctx *affine.Context, out []int) *Map {
	results := make([]affine.Expr, len(d.shape))
	for i, ax := range d.batch {
		results[ax] = ctx.Dim(i)
	}
	symbols := make([]int, len(d.contracting))
	for i, ax := range d.contracting {
		results[ax] = ctx.Symbol(i)
		symbols[i] = d.shape[ax]
	}
	for i, ax := range d.free {
		results[ax] = ctx.Dim(d.firstFree + i)
	}
	return FromTensorSizes(affine.NewMap(len(out), len(symbols), results), out, symbols)
}

// dotOutputToInput maps the output to both operands. The output axes are
// the batch axes, then the free axes of the lhs, then the free axes of the rhs.
func dotOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Dot) []*Map {
	out := instr.Dimensions()
	operands := dotOperands(instr, op)
	return []*Map{
		operands[0].outputToInput(ctx, out),
		operands[1].outputToInput(ctx, out),
	}
}

// dotInputToOutput maps an operand to the output. The free axes of the
// other operand are symbols.
func dotInputToOutput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Dot, inputID int) *Map {
	out := instr.Dimensions()
	operands := dotOperands(instr, op)
	this, other := operands[inputID], operands[1-inputID]
	results := make([]affine.Expr, len(out))
	for i, ax := range this.batch {
		results[i] = ctx.Dim(ax)
	}
	for i, ax := range this.free {
		results[this.firstFree+i] = ctx.Dim(ax)
	}
	symbols := make([]int, len(other.free))
	for i := range other.free {
		results[other.firstFree+i] = ctx.Symbol(i)
		symbols[i] = out[other.firstFree+i]
	}
	return FromTensorSizes(affine.NewMap(len(this.shape), len(symbols), results), this.shape, symbols)
}

// convolutionOutputToInput maps the output to the input and the kernel.
// Both maps have a symbol per window axis followed by a symbol for the
// input feature axis. The input coordinate along a spatial axis is
// out * stride + window * dilation - padLow. Coordinates falling into the
// padding are not excluded from the domain.
func convolutionOutputToInput(ctx *affine.Context, instr *hlo.Instruction, op *hlo.Convolution) ([]*Map, error) {
	if op.FeatureGroupCount != 1 || op.BatchGroupCount != 1 {
		return nil, unsupportedf("convolution %s with feature group count %d and batch group count %d", instr.Name(), op.FeatureGroupCount, op.BatchGroupCount)
	}
	for i, w := range op.Window {
		if w.BaseDilation != 1 {
			return nil, unsupportedf("convolution %s with base dilation %d on window axis %d", instr.Name(), w.BaseDilation, i)
		}
	}
	out := instr.Dimensions()
	input, kernel := instr.Operand(0).Dimensions(), instr.Operand(1).Dimensions()
	dims := op.Dims
	numSpatial := len(op.Window)
	symbols := make([]int, numSpatial+1)
	for i, w := range op.Window {
		symbols[i] = w.Size
	}
	symbols[numSpatial] = input[dims.InputFeature]
	feature := ctx.Symbol(numSpatial)

	inputResults := make([]affine.Expr, len(input))
	inputResults[dims.InputBatch] = ctx.Dim(dims.OutputBatch)
	inputResults[dims.InputFeature] = feature
	for i, w := range op.Window {
		r := ctx.Add(
			ctx.Mul(ctx.Dim(dims.OutputSpatial[i]), int64(w.Stride)),
			ctx.Mul(ctx.Symbol(i), int64(w.Dilation)),
		)
		inputResults[dims.InputSpatial[i]] = ctx.AddConst(r, -int64(w.PadLow))
	}

	kernelResults := make([]affine.Expr, len(kernel))
	kernelResults[dims.KernelInputFeature] = feature
	kernelResults[dims.KernelOutputFeature] = ctx.Dim(dims.OutputFeature)
	for i := range op.Window {
		kernelResults[dims.KernelSpatial[i]] = ctx.Symbol(i)
	}
	return []*Map{
		FromTensorSizes(affine.NewMap(len(out), len(symbols), inputResults), out, symbols),
		FromTensorSizes(affine.NewMap(len(out), len(symbols), kernelResults), out, symbols),
	}, nil
}
