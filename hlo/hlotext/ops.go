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

package hlotext

import (
	"strconv"
	"strings"

	"github.com/gx-org/tileanalysis/hlo"
	"github.com/pkg/errors"
)

type attributes map[string]string

func (a attributes) intList(key string) ([]int, error) {
	v, ok := a[key]
	if !ok {
		return nil, nil
	}
	if !strings.HasPrefix(v, "{") || !strings.HasSuffix(v, "}") {
		return nil, errors.Errorf("attribute %s=%s: expected {...}", key, v)
	}
	return parseInts(v[1:len(v)-1], ",")
}

func (a attributes) requiredIntList(key string) ([]int, error) {
	if _, ok := a[key]; !ok {
		return nil, errors.Errorf("missing attribute %s", key)
	}
	return a.intList(key)
}

func (a attributes) int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("attribute %s=%s: expected an integer", key, v)
	}
	return i, nil
}

// buildOp returns the operation given its opcode, the text between the
// parenthesis and its attributes. It also returns the names of the operands.
func buildOp(opcode, args string, attrs attributes) (hlo.Op, []string, error) {
	switch opcode {
	case "parameter":
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			return nil, nil, errors.Errorf("invalid parameter number %q", args)
		}
		return &hlo.Parameter{Number: n}, nil, nil
	case "constant":
		return &hlo.Constant{}, nil, nil
	case "iota":
		dim, err := attrs.int("iota_dimension", 0)
		return &hlo.Iota{Dimension: dim}, nil, err
	}
	operands := operandNames(args)
	var op hlo.Op
	var err error
	switch opcode {
	case "broadcast":
		var dims []int
		dims, err = attrs.intList("dimensions")
		op = &hlo.Broadcast{Dimensions: dims}
	case "reduce":
		var dims []int
		dims, err = attrs.requiredIntList("dimensions")
		op = &hlo.Reduce{Dimensions: dims}
	case "reverse":
		var dims []int
		dims, err = attrs.requiredIntList("dimensions")
		op = &hlo.Reverse{Dimensions: dims}
	case "transpose":
		var perm []int
		perm, err = attrs.requiredIntList("dimensions")
		op = &hlo.Transpose{Permutation: perm}
	case "concatenate":
		op, err = buildConcatenate(attrs)
	case "slice":
		op, err = buildSlice(attrs)
	case "pad":
		op, err = buildPad(attrs)
	case "dot":
		op, err = buildDot(attrs)
	case "convolution":
		op, err = buildConvolution(attrs)
	default:
		op = hlo.OpFromCode(opcode)
	}
	if err != nil {
		return nil, nil, err
	}
	return op, operands, nil
}

func buildConcatenate(attrs attributes) (hlo.Op, error) {
	dims, err := attrs.requiredIntList("dimensions")
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, errors.Errorf("concatenate requires exactly one dimension but got %v", dims)
	}
	return &hlo.Concatenate{Dimension: dims[0]}, nil
}

// buildSlice parses slice={[start:limit:stride], ...}. The stride is optional.
func buildSlice(attrs attributes) (hlo.Op, error) {
	v, ok := attrs["slice"]
	if !ok {
		return nil, errors.Errorf("missing attribute slice")
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "{"), "}")
	op := &hlo.Slice{}
	for _, dim := range splitTopLevel(v, ',') {
		dim = strings.TrimSpace(dim)
		if !strings.HasPrefix(dim, "[") || !strings.HasSuffix(dim, "]") {
			return nil, errors.Errorf("cannot parse slice dimension %q", dim)
		}
		vals, err := parseInts(dim[1:len(dim)-1], ":")
		if err != nil {
			return nil, err
		}
		if len(vals) != 2 && len(vals) != 3 {
			return nil, errors.Errorf("cannot parse slice dimension %q", dim)
		}
		stride := 1
		if len(vals) == 3 {
			stride = vals[2]
		}
		op.Starts = append(op.Starts, vals[0])
		op.Limits = append(op.Limits, vals[1])
		op.Strides = append(op.Strides, stride)
	}
	return op, nil
}

// buildPad parses padding=low_high[_interior]x...
func buildPad(attrs attributes) (hlo.Op, error) {
	v, ok := attrs["padding"]
	if !ok {
		return nil, errors.Errorf("missing attribute padding")
	}
	op := &hlo.Pad{}
	for _, dim := range strings.Split(v, "x") {
		vals, err := parseInts(dim, "_")
		if err != nil {
			return nil, err
		}
		if len(vals) != 2 && len(vals) != 3 {
			return nil, errors.Errorf("cannot parse padding %q", dim)
		}
		c := hlo.PadDim{Low: vals[0], High: vals[1]}
		if len(vals) == 3 {
			c.Interior = vals[2]
		}
		op.Config = append(op.Config, c)
	}
	return op, nil
}

func buildDot(attrs attributes) (hlo.Op, error) {
	op := &hlo.Dot{}
	var err error
	if op.LHSBatch, err = attrs.intList("lhs_batch_dims"); err != nil {
		return nil, err
	}
	if op.RHSBatch, err = attrs.intList("rhs_batch_dims"); err != nil {
		return nil, err
	}
	if op.LHSContracting, err = attrs.intList("lhs_contracting_dims"); err != nil {
		return nil, err
	}
	if op.RHSContracting, err = attrs.intList("rhs_contracting_dims"); err != nil {
		return nil, err
	}
	return op, nil
}

func buildConvolution(attrs attributes) (hlo.Op, error) {
	labels, ok := attrs["dim_labels"]
	if !ok {
		return nil, errors.Errorf("missing attribute dim_labels")
	}
	dims, err := parseDimLabels(labels)
	if err != nil {
		return nil, err
	}
	window, err := parseWindow(attrs["window"], len(dims.InputSpatial))
	if err != nil {
		return nil, err
	}
	op := &hlo.Convolution{Window: window, Dims: dims}
	if op.FeatureGroupCount, err = attrs.int("feature_group_count", 1); err != nil {
		return nil, err
	}
	if op.BatchGroupCount, err = attrs.int("batch_group_count", 1); err != nil {
		return nil, err
	}
	return op, nil
}

// parseDimLabels parses labels such as b01f_01io->b01f.
func parseDimLabels(labels string) (hlo.ConvDims, error) {
	var dims hlo.ConvDims
	operands, output, found := strings.Cut(labels, "->")
	input, kernel, found2 := strings.Cut(operands, "_")
	if !found || !found2 {
		return dims, errors.Errorf("cannot parse dim_labels %q", labels)
	}
	var err error
	if dims.InputBatch, dims.InputFeature, dims.InputSpatial, err = parseLabel(input, 'b', 'f'); err != nil {
		return dims, err
	}
	if dims.KernelInputFeature, dims.KernelOutputFeature, dims.KernelSpatial, err = parseLabel(kernel, 'i', 'o'); err != nil {
		return dims, err
	}
	if dims.OutputBatch, dims.OutputFeature, dims.OutputSpatial, err = parseLabel(output, 'b', 'f'); err != nil {
		return dims, err
	}
	if len(dims.KernelSpatial) != len(dims.InputSpatial) || len(dims.OutputSpatial) != len(dims.InputSpatial) {
		return dims, errors.Errorf("dim_labels %q: inconsistent number of spatial dimensions", labels)
	}
	return dims, nil
}

func parseLabel(label string, first, second byte) (firstPos, secondPos int, spatial []int, err error) {
	if len(label) < 2 {
		return 0, 0, nil, errors.Errorf("label %q too short", label)
	}
	firstPos, secondPos = -1, -1
	spatial = make([]int, len(label)-2)
	seen := make([]bool, len(spatial))
	for pos := range len(label) {
		c := label[pos]
		switch {
		case c == first:
			firstPos = pos
		case c == second:
			secondPos = pos
		case c >= '0' && c <= '9' && int(c-'0') < len(spatial) && !seen[c-'0']:
			spatial[c-'0'] = pos
			seen[c-'0'] = true
		default:
			return 0, 0, nil, errors.Errorf("unexpected character %q in label %q", c, label)
		}
	}
	if firstPos < 0 || secondPos < 0 {
		return 0, 0, nil, errors.Errorf("label %q requires %c and %c", label, first, second)
	}
	return firstPos, secondPos, spatial, nil
}

// parseWindow parses window={size=3x3 stride=2x2 pad=1_1x1_1 lhs_dilate=1x1 rhs_dilate=1x1}.
func parseWindow(v string, rank int) ([]hlo.WindowDim, error) {
	window := make([]hlo.WindowDim, rank)
	for i := range window {
		window[i] = hlo.WindowDim{Stride: 1, Dilation: 1, BaseDilation: 1}
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "{"), "}")
	for _, field := range strings.Fields(v) {
		key, value, found := strings.Cut(field, "=")
		if !found {
			return nil, errors.Errorf("cannot parse window field %q", field)
		}
		if key == "pad" {
			pads := strings.Split(value, "x")
			if len(pads) != rank {
				return nil, errors.Errorf("window pad %q has %d dimensions but want %d", value, len(pads), rank)
			}
			for i, pad := range pads {
				vals, err := parseInts(pad, "_")
				if err != nil {
					return nil, err
				}
				if len(vals) != 2 {
					return nil, errors.Errorf("cannot parse window pad %q", pad)
				}
				window[i].PadLow, window[i].PadHigh = vals[0], vals[1]
			}
			continue
		}
		vals, err := parseInts(value, "x")
		if err != nil {
			return nil, err
		}
		if len(vals) != rank {
			return nil, errors.Errorf("window %s=%s has %d dimensions but want %d", key, value, len(vals), rank)
		}
		for i, val := range vals {
			switch key {
			case "size":
				window[i].Size = val
			case "stride":
				window[i].Stride = val
			case "lhs_dilate":
				window[i].BaseDilation = val
			case "rhs_dilate":
				window[i].Dilation = val
			default:
				return nil, errors.Errorf("unknown window field %q", key)
			}
		}
	}
	return window, nil
}
