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

package hlotext_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tileanalysis/hlo"
	"github.com/gx-org/tileanalysis/hlo/hlotext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const reduceModule = `
HloModule reduce, entry_computation_layout={(f32[150,20,10,50]{3,2,1,0})->f32[150,10]{1,0}}

max {
  p0 = f32[] parameter(0)
  p1 = f32[] parameter(1)
  ROOT max = f32[] maximum(p0, p1)
}

ENTRY e {
  p0 = f32[150,20,10,50]{3,2,1,0} parameter(0)
  p0_init = f32[] constant(-inf)
  // Reduce axes 1 and 3.
  ROOT reduce = f32[150,10]{1,0} reduce(p0, p0_init), dimensions={3,1}, to_apply=max
}
`

func TestParseModule(t *testing.T) {
	m, err := hlotext.Parse(reduceModule)
	require.NoError(t, err)
	assert.Equal(t, "reduce", m.Name)
	require.Len(t, m.Computations, 2)
	assert.Equal(t, "e", m.Entry.Name())
	_, ok := m.Computation("max")
	assert.True(t, ok)

	root := m.Entry.Root()
	require.NotNil(t, root)
	assert.Equal(t, "reduce", root.Name())
	assert.Equal(t, []int{150, 10}, root.Dimensions())
	assert.Equal(t, dtype.Float32, root.Shape().DType)
	assert.Equal(t, &hlo.Reduce{Dimensions: []int{3, 1}}, root.Op())
	require.Equal(t, 2, root.NumOperands())
	assert.Equal(t, "p0", root.Operand(0).Name())
	assert.Equal(t, 0, root.Operand(1).Rank())
	assert.NoError(t, m.Entry.Validate())
}

func parseRoot(t *testing.T, src string) *hlo.Instruction {
	t.Helper()
	g, err := hlotext.ParseGraph(src)
	require.NoError(t, err)
	require.NotNil(t, g.Root())
	return g.Root()
}

func TestParseOps(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want hlo.Op
	}{
		{
			name: "transpose",
			src: `ENTRY e {
  p0 = f32[3,12288,6,128] parameter(0)
  ROOT t = f32[3,6,128,12288] transpose(p0), dimensions={0,2,3,1}
}`,
			want: &hlo.Transpose{Permutation: []int{0, 2, 3, 1}},
		},
		{
			name: "slice",
			src: `ENTRY e {
  p0 = f32[10,20,50] parameter(0)
  ROOT s = f32[5,3,25] slice(f32[10,20,50] p0), slice={[5:10:1], [3:20:7], [0:50:2]}
}`,
			want: &hlo.Slice{Starts: []int{5, 3, 0}, Limits: []int{10, 20, 50}, Strides: []int{1, 7, 2}},
		},
		{
			name: "pad",
			src: `ENTRY e {
  p0 = f32[4,4] parameter(0)
  p1 = f32[] parameter(1)
  ROOT pad = f32[9,16] pad(p0, p1), padding=1_4x4_8
}`,
			want: &hlo.Pad{Config: []hlo.PadDim{{Low: 1, High: 4}, {Low: 4, High: 8}}},
		},
		{
			name: "dot",
			src: `ENTRY e {
  p0 = f32[4,38,17,11,18,10] parameter(0)
  p1 = f32[17,10,16,18,22,38] parameter(1)
  ROOT dot = f32[10,38,4,11,16,22] dot(p0, p1), lhs_batch_dims={5,1}, rhs_batch_dims={1,5}, lhs_contracting_dims={4,2}, rhs_contracting_dims={3,0}
}`,
			want: &hlo.Dot{LHSBatch: []int{5, 1}, RHSBatch: []int{1, 5}, LHSContracting: []int{4, 2}, RHSContracting: []int{3, 0}},
		},
		{
			name: "convolution",
			src: `ENTRY e {
  p0 = f32[1,12,10,4] parameter(0)
  p1 = f32[4,3,5,8] parameter(1)
  ROOT conv = f32[1,10,6,8] convolution(p0, p1), window={size=3x5 pad=0_0x0_0}, dim_labels=b01f_i01o->b01f
}`,
			want: &hlo.Convolution{
				Window: []hlo.WindowDim{
					{Size: 3, Stride: 1, Dilation: 1, BaseDilation: 1},
					{Size: 5, Stride: 1, Dilation: 1, BaseDilation: 1},
				},
				Dims: hlo.ConvDims{
					InputBatch: 0, InputFeature: 3, InputSpatial: []int{1, 2},
					KernelInputFeature: 0, KernelOutputFeature: 3, KernelSpatial: []int{1, 2},
					OutputBatch: 0, OutputFeature: 3, OutputSpatial: []int{1, 2},
				},
				FeatureGroupCount: 1,
				BatchGroupCount:   1,
			},
		},
		{
			name: "concatenate",
			src: `ENTRY e {
  p0 = f32[2,5,7] parameter(0)
  p1 = f32[2,11,7] parameter(1)
  ROOT concat = f32[2,16,7] concatenate(p0, p1), dimensions={1}
}`,
			want: &hlo.Concatenate{Dimension: 1},
		},
		{
			name: "gather",
			src: `ENTRY e {
  p0 = f32[33,76,70] parameter(0)
  p1 = s32[1806,2] parameter(1)
  ROOT g = f32[1806,7,8,4] gather(p0, p1), offset_dims={1,2,3}, collapsed_slice_dims={}, start_index_map={0,1}, index_vector_dim=1, slice_sizes={7,8,4}
}`,
			want: &hlo.DataDependent{Code: "gather"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			root := parseRoot(t, test.src)
			assert.Equal(t, test.want, root.Op())
			assert.NoError(t, root.Validate())
		})
	}
}

func TestParseErrors(t *testing.T) {
	_, err := hlotext.Parse(`ENTRY e {
  p0 = f32[10] parameter(0)
  a = f32[10] negate(unknown)
  b = c64[10] negate(p0)
  c = f32[10] transpose(p0)
}`)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)

	_, err = hlotext.Parse(`ENTRY e {
  p0 = f32[10] parameter(0)`)
	assert.Error(t, err)

	_, err = hlotext.Parse(`p0 = f32[10] parameter(0)`)
	assert.Error(t, err)

	_, err = hlotext.Parse(`ENTRY e {
  ROOT p0 = f32[-3] parameter(0)
}`)
	assert.ErrorContains(t, err, "negative axis length -3")
}
