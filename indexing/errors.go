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

package indexing

import "github.com/pkg/errors"

var (
	// ErrUnsupported is returned when no indexing map can represent the
	// correspondence between coordinates. Test with errors.Is.
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidInput is returned when the caller passes an invalid operand
	// or output identifier, or an instruction with inconsistent attributes.
	ErrInvalidInput = errors.New("invalid input")
)

func unsupportedf(format string, args ...any) error {
	return errors.Wrapf(ErrUnsupported, format, args...)
}

func invalidf(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}
