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

// Command tileanalysis prints the indexing maps of the instructions of an
// HLO module and the tiles read by the fusion of its entry computation.
//
// Usage:
//
//	tileanalysis --hlo_file=module.hlo --instructions=reduce,bc --fusion --tile
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gx-org/tileanalysis/tools/gxflag"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

const (
	outputToInput = "output_to_input"
	inputToOutput = "input_to_output"
)

var (
	hloFile      = flag.String("hlo_file", "", "HLO module in text form")
	instructions = gxflag.StringList("instructions", "comma separated list of instructions to analyse (all the instructions of the entry computation if empty)")
	direction    = gxflag.Choice("direction", outputToInput, []string{outputToInput, inputToOutput}, "direction of the indexing maps")
	fuse         = flag.Bool("fusion", false, "compose the indexing maps of the entry computation as one fusion region")
	propagate    = flag.Bool("tile", false, "propagate the tile of the root to the instructions read by the fusion region (requires --fusion)")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *hloFile == "" {
		return errors.Errorf("no HLO module specified: please use --hlo_file")
	}
	src, err := os.ReadFile(*hloFile)
	if err != nil {
		return err
	}
	klog.V(1).Infof("analysing %s", *hloFile)
	return analyze(os.Stdout, string(src), options{
		instructions:  *instructions,
		inputToOutput: *direction == inputToOutput,
		fusion:        *fuse,
		tile:          *propagate,
	})
}
