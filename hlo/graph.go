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

// Package hlo models the instruction graph consumed by the indexing analysis.
//
// A Graph owns its instructions in an arena. Instructions are referred to by
// stable InstrID handles. The graph is read-only once built.
package hlo

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/shape"
	"github.com/gx-org/tileanalysis/base/stringseq"
	"github.com/pkg/errors"
)

// InstrID identifies an instruction within its graph.
type InstrID int

// NoInstr is the invalid instruction identifier.
const NoInstr InstrID = -1

type (
	// Instruction of a graph.
	Instruction struct {
		id       InstrID
		name     string
		shape    *shape.Shape
		op       Op
		operands []InstrID
		graph    *Graph
	}

	// Graph is a computation: a set of instructions and a root.
	Graph struct {
		name   string
		instrs []*Instruction
		byName map[string]InstrID
		users  [][]InstrID
		root   InstrID
	}
)

// NewGraph returns a new empty graph.
func NewGraph(name string) *Graph {
	return &Graph{
		name:   name,
		byName: make(map[string]InstrID),
		root:   NoInstr,
	}
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// AddInstruction adds an instruction computing op on operands.
// The last added instruction is the root until SetRoot is called.
func (g *Graph) AddInstruction(name string, sh *shape.Shape, op Op, operands ...InstrID) (*Instruction, error) {
	if _, exists := g.byName[name]; exists {
		return nil, errors.Errorf("instruction %q already defined in %s", name, g.name)
	}
	if sh == nil {
		return nil, errors.Errorf("instruction %q has no shape", name)
	}
	for i, operand := range operands {
		if operand < 0 || int(operand) >= len(g.instrs) {
			return nil, errors.Errorf("operand %d of instruction %q: invalid instruction id %d", i, name, operand)
		}
	}
	instr := &Instruction{
		id:       InstrID(len(g.instrs)),
		name:     name,
		shape:    sh,
		op:       op,
		operands: append([]InstrID{}, operands...),
		graph:    g,
	}
	g.instrs = append(g.instrs, instr)
	g.users = append(g.users, nil)
	g.byName[name] = instr.id
	for _, operand := range operands {
		g.users[operand] = append(g.users[operand], instr.id)
	}
	g.root = instr.id
	return instr, nil
}

// SetRoot sets the root instruction of the graph.
func (g *Graph) SetRoot(id InstrID) error {
	if id < 0 || int(id) >= len(g.instrs) {
		return errors.Errorf("invalid root instruction id %d", id)
	}
	g.root = id
	return nil
}

// Root returns the root instruction or nil if the graph is empty.
func (g *Graph) Root() *Instruction {
	if g.root == NoInstr {
		return nil
	}
	return g.instrs[g.root]
}

// Instr returns the instruction given its identifier.
func (g *Graph) Instr(id InstrID) *Instruction {
	return g.instrs[id]
}

// Lookup returns an instruction given its name.
func (g *Graph) Lookup(name string) (*Instruction, bool) {
	id, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.instrs[id], true
}

// Instructions returns all the instructions in definition order.
func (g *Graph) Instructions() []*Instruction {
	return append([]*Instruction{}, g.instrs...)
}

// PostOrder returns the instructions reachable from the root, operands
// before their users.
func (g *Graph) PostOrder() []*Instruction {
	root := g.Root()
	if root == nil {
		return nil
	}
	return PostOrder(root, func(*Instruction) bool { return true })
}

// PostOrder returns the instructions reachable from root through operands
// for which follow returns true, operands before their users.
// Instructions for which follow returns false are included but their
// operands are not visited.
func PostOrder(root *Instruction, follow func(*Instruction) bool) []*Instruction {
	var order []*Instruction
	visited := make(map[InstrID]bool)
	var visit func(*Instruction)
	visit = func(instr *Instruction) {
		if visited[instr.id] {
			return
		}
		visited[instr.id] = true
		if follow(instr) {
			for i := range instr.NumOperands() {
				visit(instr.Operand(i))
			}
		}
		order = append(order, instr)
	}
	visit(root)
	return order
}

// String returns the graph in HLO text form.
func (g *Graph) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s {\n", g.name)
	for _, instr := range g.instrs {
		b.WriteString("  ")
		if instr.id == g.root {
			b.WriteString("ROOT ")
		}
		b.WriteString(instr.String())
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// ID of the instruction in its graph.
func (instr *Instruction) ID() InstrID { return instr.id }

// Name of the instruction.
func (instr *Instruction) Name() string { return instr.name }

// Shape of the output of the instruction.
func (instr *Instruction) Shape() *shape.Shape { return instr.shape }

// Op returns the operation of the instruction.
func (instr *Instruction) Op() Op { return instr.op }

// Graph owning the instruction.
func (instr *Instruction) Graph() *Graph { return instr.graph }

// Dimensions returns the axis lengths of the output.
func (instr *Instruction) Dimensions() []int { return instr.shape.AxisLengths }

// Rank returns the number of axes of the output.
func (instr *Instruction) Rank() int { return len(instr.shape.AxisLengths) }

// NumOperands returns the number of operands.
func (instr *Instruction) NumOperands() int { return len(instr.operands) }

// OperandIDs returns the identifiers of the operands.
func (instr *Instruction) OperandIDs() []InstrID {
	return append([]InstrID{}, instr.operands...)
}

// Operand returns the i-th operand.
func (instr *Instruction) Operand(i int) *Instruction {
	return instr.graph.instrs[instr.operands[i]]
}

// Users returns the instructions using the output of this instruction.
func (instr *Instruction) Users() []*Instruction {
	ids := instr.graph.users[instr.id]
	users := make([]*Instruction, len(ids))
	for i, id := range ids {
		users[i] = instr.graph.instrs[id]
	}
	return users
}

// ShapeString returns the HLO text form of the output shape, e.g. f32[2,3].
func (instr *Instruction) ShapeString() string {
	return fmt.Sprintf("%s[%s]", TypeName(instr.shape.DType), stringseq.Join(stringseq.Ints(instr.shape.AxisLengths), ","))
}

func (instr *Instruction) String() string {
	if param, ok := instr.op.(*Parameter); ok {
		return fmt.Sprintf("%s = %s parameter(%d)", instr.name, instr.ShapeString(), param.Number)
	}
	operands := make([]string, len(instr.operands))
	for i := range operands {
		operands[i] = instr.Operand(i).name
	}
	s := fmt.Sprintf("%s = %s %s(%s)", instr.name, instr.ShapeString(), instr.op.Opcode(), strings.Join(operands, ", "))
	if attrs := Attributes(instr.op); attrs != "" {
		s += ", " + attrs
	}
	return s
}
