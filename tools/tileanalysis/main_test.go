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

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transposeModule = `
HloModule m

ENTRY e {
  p0 = f32[10,20] parameter(0)
  ROOT tr = f32[20,10] transpose(p0), dimensions={1,0}
}`

func TestAnalyzeOutputToInput(t *testing.T) {
	var b strings.Builder
	require.NoError(t, analyze(&b, transposeModule, options{instructions: []string{"tr"}}))
	got := b.String()
	assert.Contains(t, got, "operand id = 0")
	assert.Contains(t, got, "(d0, d1) -> (d1, d0)\nd0 in [0, 20)\nd1 in [0, 10)")
	assert.NotContains(t, got, "fusion of")
}

func TestAnalyzePrintsUsers(t *testing.T) {
	var b strings.Builder
	require.NoError(t, analyze(&b, transposeModule, options{instructions: []string{"p0", "tr"}}))
	got := b.String()
	assert.Contains(t, got, "p0 = f32[10,20] parameter(0)\nusers: tr\n")
	assert.Equal(t, 1, strings.Count(got, "users:"))
}

func TestAnalyzeInputToOutput(t *testing.T) {
	var b strings.Builder
	require.NoError(t, analyze(&b, transposeModule, options{
		instructions:  []string{"tr"},
		inputToOutput: true,
	}))
	got := b.String()
	assert.Contains(t, got, "input 0\n(d0, d1) -> (d1, d0)\nd0 in [0, 10)\nd1 in [0, 20)")
}

func TestAnalyzeFusionAndTile(t *testing.T) {
	var b strings.Builder
	require.NoError(t, analyze(&b, transposeModule, options{fusion: true, tile: true}))
	got := b.String()
	assert.Contains(t, got, "fusion of tr\np0:\n(d0, d1) -> (d1, d0)")
	assert.Contains(t, got, "tile of tr\n(d0, d1, d2, d3)[s0, s1] -> (d1 + d0 * s0, d3 + d2 * s1)")
	assert.Contains(t, got, "tile of p0\n")
}

func TestAnalyzeReportsUnsupportedInstructions(t *testing.T) {
	const src = `
ENTRY e {
  p0 = f32[8,6] parameter(0)
  idx = s32[4,1] parameter(1)
  ROOT gather = f32[4,6] gather(p0, idx)
}`
	var b strings.Builder
	require.NoError(t, analyze(&b, src, options{instructions: []string{"gather"}}))
	assert.Contains(t, b.String(), "error:")
}

func TestAnalyzeErrors(t *testing.T) {
	var b strings.Builder
	err := analyze(&b, transposeModule, options{instructions: []string{"unknown"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")

	err = analyze(&b, "ENTRY e {\n  p0 = f32[2 parameter(0)\n}", options{})
	assert.Error(t, err)
}
