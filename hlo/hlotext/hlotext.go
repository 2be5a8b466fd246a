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

// Package hlotext parses the text form of HLO modules into instruction graphs.
//
// Only array shapes are supported. Layouts, metadata and reduction
// computations referenced by to_apply are parsed but ignored.
package hlotext

import (
	"strconv"
	"strings"

	"github.com/gx-org/backend/shape"
	"github.com/gx-org/tileanalysis/hlo"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Module is a parsed HLO module.
type Module struct {
	Name         string
	Computations []*hlo.Graph
	Entry        *hlo.Graph
}

// Computation returns a computation given its name.
func (m *Module) Computation(name string) (*hlo.Graph, bool) {
	for _, g := range m.Computations {
		if g.Name() == name {
			return g, true
		}
	}
	return nil, false
}

type parser struct {
	module *Module
	errs   error

	current *hlo.Graph
	isEntry bool
	root    hlo.InstrID
}

// Parse parses an HLO module. It returns all the errors found in the source.
func Parse(src string) (*Module, error) {
	p := &parser{module: &Module{}}
	for i, line := range strings.Split(src, "\n") {
		if err := p.parseLine(line); err != nil {
			p.errs = multierr.Append(p.errs, errors.Wrapf(err, "line %d", i+1))
		}
	}
	if p.current != nil {
		p.errs = multierr.Append(p.errs, errors.Errorf("computation %s is not closed", p.current.Name()))
	}
	if p.errs != nil {
		return nil, p.errs
	}
	if p.module.Entry == nil && len(p.module.Computations) > 0 {
		p.module.Entry = p.module.Computations[len(p.module.Computations)-1]
	}
	if p.module.Entry == nil {
		return nil, errors.Errorf("no computation found")
	}
	return p.module, nil
}

// ParseGraph parses an HLO module and returns its entry computation.
func ParseGraph(src string) (*hlo.Graph, error) {
	m, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return m.Entry, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func (p *parser) parseLine(line string) error {
	line = stripComment(line)
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "HloModule"):
		fields := strings.FieldsFunc(strings.TrimPrefix(line, "HloModule"), func(r rune) bool {
			return r == ' ' || r == ','
		})
		if len(fields) > 0 {
			p.module.Name = fields[0]
		}
		return nil
	case line == "}":
		return p.closeComputation()
	case strings.HasSuffix(line, "{") && !strings.Contains(line, "="):
		return p.openComputation(strings.TrimSuffix(line, "{"))
	}
	if p.current == nil {
		return errors.Errorf("instruction outside of a computation: %q", line)
	}
	return p.parseInstruction(line)
}

func (p *parser) openComputation(header string) error {
	if p.current != nil {
		return errors.Errorf("computation %s is not closed", p.current.Name())
	}
	header = strings.TrimSpace(header)
	p.isEntry = strings.HasPrefix(header, "ENTRY")
	header = strings.TrimSpace(strings.TrimPrefix(header, "ENTRY"))
	name := header
	if i := strings.IndexAny(name, " ("); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimPrefix(name, "%")
	if name == "" {
		return errors.Errorf("computation without a name")
	}
	p.current = hlo.NewGraph(name)
	p.root = hlo.NoInstr
	return nil
}

func (p *parser) closeComputation() error {
	if p.current == nil {
		return errors.Errorf("unexpected }")
	}
	g := p.current
	p.current = nil
	if p.root != hlo.NoInstr {
		if err := g.SetRoot(p.root); err != nil {
			return err
		}
	}
	p.module.Computations = append(p.module.Computations, g)
	if p.isEntry {
		if p.module.Entry != nil {
			return errors.Errorf("more than one ENTRY computation")
		}
		p.module.Entry = g
	}
	return nil
}

func (p *parser) parseInstruction(line string) error {
	lhs, rhs, found := strings.Cut(line, "=")
	if !found {
		return errors.Errorf("cannot parse instruction %q", line)
	}
	lhs = strings.TrimSpace(lhs)
	isRoot := strings.HasPrefix(lhs, "ROOT ")
	name := strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(lhs, "ROOT ")), "%")
	sh, rest, err := parseShape(strings.TrimSpace(rhs))
	if err != nil {
		return errors.Wrapf(err, "instruction %s", name)
	}
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return errors.Errorf("instruction %s: missing operand list", name)
	}
	opcode := strings.TrimSpace(rest[:open])
	closing, err := matchingParen(rest, open)
	if err != nil {
		return errors.Wrapf(err, "instruction %s", name)
	}
	args := rest[open+1 : closing]
	attrs, err := parseAttributes(rest[closing+1:])
	if err != nil {
		return errors.Wrapf(err, "instruction %s", name)
	}
	op, operandNames, err := buildOp(opcode, args, attrs)
	if err != nil {
		return errors.Wrapf(err, "instruction %s", name)
	}
	operands := make([]hlo.InstrID, len(operandNames))
	for i, operandName := range operandNames {
		operand, ok := p.current.Lookup(operandName)
		if !ok {
			return errors.Errorf("instruction %s: undefined operand %s", name, operandName)
		}
		operands[i] = operand.ID()
	}
	instr, err := p.current.AddInstruction(name, sh, op, operands...)
	if err != nil {
		return err
	}
	if isRoot {
		p.root = instr.ID()
	}
	return nil
}

// parseShape parses a shape like f32[2,3]{1,0} at the start of s and
// returns the rest of the string.
func parseShape(s string) (*shape.Shape, string, error) {
	if strings.HasPrefix(s, "(") {
		return nil, "", errors.Errorf("tuple shapes are not supported")
	}
	open := strings.IndexByte(s, '[')
	closing := strings.IndexByte(s, ']')
	if open < 0 || closing < open {
		return nil, "", errors.Errorf("cannot parse shape in %q", s)
	}
	typeName := s[:open]
	dt, ok := hlo.TypeFromName(typeName)
	if !ok {
		return nil, "", errors.Errorf("unknown element type %q", typeName)
	}
	axes, err := parseInts(s[open+1:closing], ",")
	if err != nil {
		return nil, "", errors.Wrapf(err, "shape %s", s[:closing+1])
	}
	for _, size := range axes {
		if size < 0 {
			return nil, "", errors.Errorf("negative axis length %d in shape %s", size, s[:closing+1])
		}
	}
	rest := s[closing+1:]
	if strings.HasPrefix(rest, "{") {
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, "", errors.Errorf("unterminated layout in %q", s)
		}
		rest = rest[end+1:]
	}
	return hlo.NewShape(dt, axes...), strings.TrimSpace(rest), nil
}

func matchingParen(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
			if depth == 0 {
				if s[i] != ')' {
					return 0, errors.Errorf("unbalanced %q in %q", s[i], s)
				}
				return i, nil
			}
		}
	}
	return 0, errors.Errorf("unbalanced parenthesis in %q", s)
}

// splitTopLevel splits s at sep when sep is not nested in brackets.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parseAttributes(s string) (map[string]string, error) {
	attrs := make(map[string]string)
	for _, part := range splitTopLevel(s, ',') {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found {
			return nil, errors.Errorf("cannot parse attribute %q", part)
		}
		attrs[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return attrs, nil
}

func parseInts(s, sep string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, sep)
	r := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.Errorf("cannot parse integer %q", part)
		}
		r[i] = v
	}
	return r, nil
}

// operandNames returns the names of the operands, dropping optional shapes
// as in "f32[2] %p0".
func operandNames(args string) []string {
	var r []string
	for _, arg := range splitTopLevel(args, ',') {
		fields := strings.Fields(arg)
		if len(fields) == 0 {
			continue
		}
		r = append(r, strings.TrimPrefix(fields[len(fields)-1], "%"))
	}
	return r
}
