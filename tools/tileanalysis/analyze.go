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
	"fmt"
	"io"
	"slices"

	"github.com/gx-org/tileanalysis/affine"
	"github.com/gx-org/tileanalysis/base/stringseq"
	"github.com/gx-org/tileanalysis/fusion"
	"github.com/gx-org/tileanalysis/hlo"
	"github.com/gx-org/tileanalysis/hlo/hlotext"
	"github.com/gx-org/tileanalysis/indexing"
	"github.com/gx-org/tileanalysis/tile"
	"github.com/pkg/errors"
)

type options struct {
	instructions  []string
	inputToOutput bool
	fusion        bool
	tile          bool
}

func selectInstructions(g *hlo.Graph, names []string) ([]*hlo.Instruction, error) {
	if len(names) == 0 {
		return g.Instructions(), nil
	}
	instrs := make([]*hlo.Instruction, len(names))
	for i, name := range names {
		instr, ok := g.Lookup(name)
		if !ok {
			return nil, errors.Errorf("instruction %s not found in %s", name, g.Name())
		}
		instrs[i] = instr
	}
	return instrs, nil
}

func printInstruction(w io.Writer, ctx *affine.Context, instr *hlo.Instruction, opts options) {
	fmt.Fprintf(w, "%s\n", instr)
	if users := instr.Users(); len(users) > 0 {
		fmt.Fprintf(w, "users: %s\n", stringseq.Join(stringseq.Map(slices.Values(users), (*hlo.Instruction).Name), ", "))
	}
	if !opts.inputToOutput {
		ii, err := indexing.ComputeOutputToInputIndexing(ctx, instr, 0)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return
		}
		if len(ii.Maps) > 0 {
			fmt.Fprintf(w, "%s\n", ii)
		}
		return
	}
	for inputID := range instr.NumOperands() {
		ii, err := indexing.ComputeInputToOutputIndexing(ctx, instr, inputID)
		if err != nil {
			fmt.Fprintf(w, "input %d error: %v\n", inputID, err)
			continue
		}
		fmt.Fprintf(w, "input %d\n%s\n", inputID, ii.Maps[0])
	}
}

func isFusible(instr *hlo.Instruction) bool {
	_, isParam := instr.Op().(*hlo.Parameter)
	return !isParam
}

func printFusion(w io.Writer, ctx *affine.Context, g *hlo.Graph, opts options) error {
	root := g.Root()
	table, err := fusion.ComputeFusionOutputToInputIndexing(ctx, root, isFusible)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "fusion of %s\n%s\n", root.Name(), table.String(g))
	if !opts.tile {
		return nil
	}
	shape := make([]int64, root.Rank())
	for i, size := range root.Dimensions() {
		shape[i] = int64(size)
	}
	rootTile := tile.New(ctx, shape)
	fmt.Fprintf(w, "tile of %s\n%s\n", root.Name(), rootTile)
	for id, maps := range table.All() {
		for m := range maps.All() {
			t, ok := rootTile.TryPropagateTileThroughIndexingMap(ctx, m)
			if !ok {
				fmt.Fprintf(w, "tile of %s: cannot propagate through\n%s\n", g.Instr(id).Name(), m)
				continue
			}
			fmt.Fprintf(w, "tile of %s\n%s\n", g.Instr(id).Name(), t)
		}
	}
	return nil
}

// analyze prints the indexing maps of the entry computation of an HLO module.
func analyze(w io.Writer, src string, opts options) error {
	g, err := hlotext.ParseGraph(src)
	if err != nil {
		return err
	}
	if err := g.Validate(); err != nil {
		return err
	}
	instrs, err := selectInstructions(g, opts.instructions)
	if err != nil {
		return err
	}
	ctx := affine.NewContext()
	for _, instr := range instrs {
		printInstruction(w, ctx, instr, opts)
	}
	if !opts.fusion {
		return nil
	}
	return printFusion(w, ctx, g, opts)
}
