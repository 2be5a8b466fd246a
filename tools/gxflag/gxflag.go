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

// Package gxflag provides flag types for the command line tools.
package gxflag

import (
	"flag"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type stringList struct {
	list *[]string
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(values string) error {
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*sl.list = append(*sl.list, value)
	}
	return nil
}

// StringListVar defines a flag in fs to pass a comma separated list of
// strings. The flag can be repeated.
func StringListVar(fs *flag.FlagSet, name, doc string) *[]string {
	var list []string
	fs.Var(&stringList{&list}, name, doc)
	return &list
}

// StringList returns a flag to pass a list of string from the command line.
func StringList(name, doc string) *[]string {
	return StringListVar(flag.CommandLine, name, doc)
}

type choice struct {
	value   *string
	choices []string
}

func (c *choice) String() string {
	if c.value == nil {
		return ""
	}
	return *c.value
}

func (c *choice) Set(value string) error {
	if !slices.Contains(c.choices, value) {
		return errors.Errorf("invalid value %q: must be one of %s", value, strings.Join(c.choices, ", "))
	}
	*c.value = value
	return nil
}

// ChoiceVar defines a flag in fs which only accepts one of choices.
func ChoiceVar(fs *flag.FlagSet, name, def string, choices []string, doc string) *string {
	value := def
	fs.Var(&choice{value: &value, choices: choices}, name, doc+" (one of "+strings.Join(choices, ", ")+")")
	return &value
}

// Choice returns a flag from the command line which only accepts one of choices.
func Choice(name, def string, choices []string, doc string) *string {
	return ChoiceVar(flag.CommandLine, name, def, choices, doc)
}
