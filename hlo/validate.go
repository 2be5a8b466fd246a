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
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Validate checks the operand counts and static attributes of every
// instruction against the shapes of its operands. It returns all the
// problems found.
func (g *Graph) Validate() error {
	var errs error
	for _, instr := range g.instrs {
		if err := instr.Validate(); err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "instruction %s", instr.name))
		}
	}
	return errs
}

func checkOperands(instr *Instruction, n int) error {
	if instr.NumOperands() != n {
		return errors.Errorf("%s requires %d operand(s) but got %d", instr.op.Opcode(), n, instr.NumOperands())
	}
	return nil
}

func checkAxes(what string, axes []int, rank int) error {
	for _, ax := range axes {
		if ax < 0 || ax >= rank {
			return errors.Errorf("%s axis %d out of range for rank %d", what, ax, rank)
		}
	}
	sorted := slices.Sorted(slices.Values(axes))
	if len(slices.Compact(sorted)) != len(axes) {
		return errors.Errorf("duplicated %s axes in %v", what, axes)
	}
	return nil
}

// IsPermutation returns true if p is a permutation of [0, len(p)).
func IsPermutation(p []int) bool {
	seen := make([]bool, len(p))
	for _, x := range p {
		if x < 0 || x >= len(p) || seen[x] {
			return false
		}
		seen[x] = true
	}
	return true
}

// Validate checks the operand count and attributes of the instruction.
func (instr *Instruction) Validate() error {
	out := instr.Dimensions()
	switch op := instr.op.(type) {
	case *Parameter, *Constant:
		return checkOperands(instr, 0)
	case *Iota:
		if err := checkOperands(instr, 0); err != nil {
			return err
		}
		return checkAxes("iota", []int{op.Dimension}, len(out))
	case *Elementwise:
		if instr.NumOperands() == 0 {
			return errors.Errorf("%s requires operands", op.Code)
		}
		for i := range instr.NumOperands() {
			operand := instr.Operand(i)
			if operand.Rank() != 0 && !slices.Equal(operand.Dimensions(), out) {
				return errors.Errorf("operand %d of %s has shape %v incompatible with output shape %v", i, op.Code, operand.Dimensions(), out)
			}
		}
		return nil
	case *Broadcast:
		if err := checkOperands(instr, 1); err != nil {
			return err
		}
		in := instr.Operand(0).Dimensions()
		if len(op.Dimensions) != len(in) {
			return errors.Errorf("broadcast of an operand of rank %d with %d dimensions", len(in), len(op.Dimensions))
		}
		if err := checkAxes("broadcast", op.Dimensions, len(out)); err != nil {
			return err
		}
		for i, ax := range op.Dimensions {
			if in[i] != out[ax] {
				return errors.Errorf("broadcast operand axis %d of length %d mapped to output axis %d of length %d", i, in[i], ax, out[ax])
			}
		}
		return nil
	case *Reduce:
		if instr.NumOperands() == 0 || instr.NumOperands()%2 != 0 {
			return errors.Errorf("reduce requires inputs and as many initial values but got %d operands", instr.NumOperands())
		}
		for i := range instr.NumOperands() / 2 {
			in := instr.Operand(i).Dimensions()
			if err := checkAxes("reduce", op.Dimensions, len(in)); err != nil {
				return err
			}
			if len(in)-len(op.Dimensions) != len(out) {
				return errors.Errorf("reducing %d axes of input %d of rank %d cannot produce rank %d", len(op.Dimensions), i, len(in), len(out))
			}
		}
		return nil
	case *Reverse:
		if err := checkOperands(instr, 1); err != nil {
			return err
		}
		if in := instr.Operand(0).Dimensions(); !slices.Equal(in, out) {
			return errors.Errorf("reverse of an operand of shape %v has output shape %v", in, out)
		}
		return checkAxes("reverse", op.Dimensions, len(out))
	case *Transpose:
		if err := checkOperands(instr, 1); err != nil {
			return err
		}
		if len(op.Permutation) != len(out) || !IsPermutation(op.Permutation) {
			return errors.Errorf("%v is not a permutation of rank %d", op.Permutation, len(out))
		}
		in := instr.Operand(0).Dimensions()
		if len(in) != len(out) {
			return errors.Errorf("transpose of an operand of rank %d has output rank %d", len(in), len(out))
		}
		for i, ax := range op.Permutation {
			if in[ax] != out[i] {
				return errors.Errorf("transposed operand axis %d of length %d mapped to output axis %d of length %d", ax, in[ax], i, out[i])
			}
		}
		return nil
	case *Reshape, *Bitcast:
		if err := checkOperands(instr, 1); err != nil {
			return err
		}
		if in := instr.Operand(0).Dimensions(); NumElements(in) != NumElements(out) {
			return errors.Errorf("cannot reshape %v with %d elements to %v with %d elements", in, NumElements(in), out, NumElements(out))
		}
		return nil
	case *Slice:
		if err := checkOperands(instr, 1); err != nil {
			return err
		}
		in := instr.Operand(0).Dimensions()
		if len(op.Starts) != len(in) || len(op.Limits) != len(in) || len(op.Strides) != len(in) || len(out) != len(in) {
			return errors.Errorf("slice attributes do not match operand rank %d", len(in))
		}
		for i := range in {
			if op.Strides[i] <= 0 || op.Starts[i] < 0 || op.Limits[i] > in[i] || op.Starts[i] > op.Limits[i] {
				return errors.Errorf("invalid slice [%d:%d:%d] of axis %d of length %d", op.Starts[i], op.Limits[i], op.Strides[i], i, in[i])
			}
			if want := (op.Limits[i] - op.Starts[i] + op.Strides[i] - 1) / op.Strides[i]; want != out[i] {
				return errors.Errorf("slice of axis %d has length %d but output axis has length %d", i, want, out[i])
			}
		}
		return nil
	case *Pad:
		if err := checkOperands(instr, 2); err != nil {
			return err
		}
		in := instr.Operand(0).Dimensions()
		if len(op.Config) != len(in) || len(out) != len(in) {
			return errors.Errorf("padding configuration does not match operand rank %d", len(in))
		}
		for i, c := range op.Config {
			if c.Interior < 0 {
				return errors.Errorf("negative interior padding on axis %d", i)
			}
			want := c.Low + c.High + in[i]
			if in[i] > 0 {
				want += (in[i] - 1) * c.Interior
			}
			if want != out[i] {
				return errors.Errorf("padded axis %d has length %d but output axis has length %d", i, want, out[i])
			}
		}
		return nil
	case *Concatenate:
		if instr.NumOperands() == 0 {
			return errors.Errorf("concatenate requires operands")
		}
		if err := checkAxes("concatenate", []int{op.Dimension}, len(out)); err != nil {
			return err
		}
		total := 0
		for i := range instr.NumOperands() {
			in := instr.Operand(i).Dimensions()
			if len(in) != len(out) {
				return errors.Errorf("operand %d has rank %d but output has rank %d", i, len(in), len(out))
			}
			total += in[op.Dimension]
		}
		if total != out[op.Dimension] {
			return errors.Errorf("concatenated axis has length %d but output axis has length %d", total, out[op.Dimension])
		}
		return nil
	case *Dot:
		if err := checkOperands(instr, 2); err != nil {
			return err
		}
		lhs, rhs := instr.Operand(0).Dimensions(), instr.Operand(1).Dimensions()
		if len(op.LHSBatch) != len(op.RHSBatch) || len(op.LHSContracting) != len(op.RHSContracting) {
			return errors.Errorf("dot batch or contracting dimensions do not pair up")
		}
		if err := checkAxes("lhs", slices.Concat(op.LHSBatch, op.LHSContracting), len(lhs)); err != nil {
			return err
		}
		if err := checkAxes("rhs", slices.Concat(op.RHSBatch, op.RHSContracting), len(rhs)); err != nil {
			return err
		}
		free := len(lhs) + len(rhs) - 2*len(op.LHSContracting) - len(op.LHSBatch)
		if free != len(out) {
			return errors.Errorf("dot of ranks %d and %d produces rank %d but output has rank %d", len(lhs), len(rhs), free, len(out))
		}
		return nil
	case *Convolution:
		if err := checkOperands(instr, 2); err != nil {
			return err
		}
		d := op.Dims
		if len(d.InputSpatial) != len(op.Window) || len(d.KernelSpatial) != len(op.Window) || len(d.OutputSpatial) != len(op.Window) {
			return errors.Errorf("convolution window has %d dimensions but dimension numbers do not match", len(op.Window))
		}
		for i, w := range op.Window {
			if w.Size <= 0 || w.Stride <= 0 || w.Dilation <= 0 || w.BaseDilation <= 0 {
				return errors.Errorf("invalid window dimension %d: %+v", i, w)
			}
		}
		rank := 2 + len(op.Window)
		input, kernel := instr.Operand(0).Dimensions(), instr.Operand(1).Dimensions()
		if len(input) != rank || len(kernel) != rank || len(out) != rank {
			return errors.Errorf("convolution with a window of %d dimensions requires rank %d but got input rank %d, kernel rank %d and output rank %d", len(op.Window), rank, len(input), len(kernel), len(out))
		}
		if err := checkAxes("input", append([]int{d.InputBatch, d.InputFeature}, d.InputSpatial...), rank); err != nil {
			return err
		}
		if err := checkAxes("kernel", append([]int{d.KernelInputFeature, d.KernelOutputFeature}, d.KernelSpatial...), rank); err != nil {
			return err
		}
		if err := checkAxes("output", append([]int{d.OutputBatch, d.OutputFeature}, d.OutputSpatial...), rank); err != nil {
			return err
		}
		for i, w := range op.Window {
			if size := kernel[d.KernelSpatial[i]]; size != w.Size {
				return errors.Errorf("kernel spatial axis %d has length %d but window dimension %d has size %d", d.KernelSpatial[i], size, i, w.Size)
			}
		}
		return nil
	case *DataDependent, *Unsupported:
		return nil
	default:
		return errors.Errorf("operation %T not supported", op)
	}
}
