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

package hlo_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tileanalysis/hlo"
	"go.uber.org/multierr"
)

func mustAdd(t *testing.T, g *hlo.Graph, name string, axes []int, op hlo.Op, operands ...*hlo.Instruction) *hlo.Instruction {
	t.Helper()
	ids := make([]hlo.InstrID, len(operands))
	for i, operand := range operands {
		ids[i] = operand.ID()
	}
	instr, err := g.AddInstruction(name, hlo.NewShape(dtype.Float32, axes...), op, ids...)
	if err != nil {
		t.Fatalf("cannot add %s: %v", name, err)
	}
	return instr
}

func names(instrs []*hlo.Instruction) []string {
	r := make([]string, len(instrs))
	for i, instr := range instrs {
		r[i] = instr.Name()
	}
	return r
}

func TestGraph(t *testing.T) {
	g := hlo.NewGraph("diamond")
	p0 := mustAdd(t, g, "p0", []int{10, 20}, &hlo.Parameter{Number: 0})
	exp := mustAdd(t, g, "exp", []int{10, 20}, &hlo.Elementwise{Code: "exponential"}, p0)
	tr := mustAdd(t, g, "tr", []int{20, 10}, &hlo.Transpose{Permutation: []int{1, 0}}, exp)
	neg := mustAdd(t, g, "neg", []int{20, 10}, &hlo.Elementwise{Code: "negate"}, tr)
	add := mustAdd(t, g, "add", []int{20, 10}, &hlo.Elementwise{Code: "add"}, tr, neg)

	if g.Root() != add {
		t.Errorf("root is %s but want %s", g.Root().Name(), add.Name())
	}
	if diff := cmp.Diff([]string{"p0", "exp", "tr", "neg", "add"}, names(g.PostOrder())); diff != "" {
		t.Errorf("unexpected post order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"neg", "add"}, names(tr.Users())); diff != "" {
		t.Errorf("unexpected users of tr (-want +got):\n%s", diff)
	}
	if got, ok := g.Lookup("neg"); !ok || got != neg {
		t.Errorf("lookup of neg returned %v, %t", got, ok)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
	const want = `diamond {
  p0 = f32[10,20] parameter(0)
  exp = f32[10,20] exponential(p0)
  tr = f32[20,10] transpose(exp), dimensions={1,0}
  neg = f32[20,10] negate(tr)
  ROOT add = f32[20,10] add(tr, neg)
}`
	if diff := cmp.Diff(want, g.String()); diff != "" {
		t.Errorf("unexpected text form (-want +got):\n%s", diff)
	}
}

func TestAddInstructionErrors(t *testing.T) {
	g := hlo.NewGraph("errors")
	if _, err := g.AddInstruction("p0", hlo.NewShape(dtype.Float32, 2), &hlo.Parameter{}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddInstruction("p0", hlo.NewShape(dtype.Float32, 2), &hlo.Parameter{}); err == nil {
		t.Errorf("expected an error when redefining p0")
	}
	if _, err := g.AddInstruction("neg", hlo.NewShape(dtype.Float32, 2), &hlo.Elementwise{Code: "negate"}, 4); err == nil {
		t.Errorf("expected an error for an invalid operand id")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	g := hlo.NewGraph("invalid")
	p0 := mustAdd(t, g, "p0", []int{4, 6}, &hlo.Parameter{})
	mustAdd(t, g, "tr", []int{6, 4}, &hlo.Transpose{Permutation: []int{1, 1}}, p0)
	mustAdd(t, g, "bcast", []int{4, 6, 2}, &hlo.Broadcast{Dimensions: []int{0, 2}}, p0)
	mustAdd(t, g, "reshape", []int{5, 5}, &hlo.Reshape{}, p0)
	mustAdd(t, g, "slice", []int{4, 3}, &hlo.Slice{Starts: []int{0, 0}, Limits: []int{4, 6}, Strides: []int{1, 2}}, p0)
	err := g.Validate()
	errs := multierr.Errors(err)
	if len(errs) != 3 {
		t.Fatalf("got %d errors but want 3: %v", len(errs), err)
	}
	for i, want := range []string{"instruction tr", "instruction bcast", "instruction reshape"} {
		if !strings.Contains(errs[i].Error(), want) {
			t.Errorf("error %d: %q does not mention %q", i, errs[i], want)
		}
	}
}

func TestOpFromCode(t *testing.T) {
	tests := []struct {
		code string
		want hlo.Op
	}{
		{code: "add", want: &hlo.Elementwise{Code: "add"}},
		{code: "gather", want: &hlo.DataDependent{Code: "gather"}},
		{code: "reshape", want: &hlo.Reshape{}},
		{code: "custom-call", want: &hlo.Unsupported{Code: "custom-call"}},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.want, hlo.OpFromCode(test.code)); diff != "" {
			t.Errorf("%s: unexpected operation (-want +got):\n%s", test.code, diff)
		}
	}
}
