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

// Package stringseq provides functions for converting iterator sequences to strings.
package stringseq

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Append appends the elements of seq to the given string builder.
// The separator string sep is placed between elements.
func Append(b *strings.Builder, seq iter.Seq[string], sep string) {
	n := 0
	for item := range seq {
		if n > 0 {
			b.WriteString(sep)
		}
		b.WriteString(item)
		n++
	}
}

// Join concatenates the elements of seq into a single string.
// The separator string sep is placed between elements.
func Join(seq iter.Seq[string], sep string) string {
	var b strings.Builder
	Append(&b, seq, sep)
	return b.String()
}

// Map returns a sequence applying f to every element of seq.
func Map[T any](seq iter.Seq[T], f func(T) string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for x := range seq {
			if !yield(f(x)) {
				return
			}
		}
	}
}

// Stringers returns the string representations of a slice of stringers.
func Stringers[T fmt.Stringer](xs []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, x := range xs {
			if !yield(x.String()) {
				return
			}
		}
	}
}

// Ints returns the decimal representation of a slice of integers.
func Ints[T ~int | ~int64](xs []T) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, x := range xs {
			if !yield(strconv.FormatInt(int64(x), 10)) {
				return
			}
		}
	}
}

// Indexed returns the sequence prefix0, prefix1, ..., prefix{n-1}.
func Indexed(prefix string, n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range n {
			if !yield(prefix + strconv.Itoa(i)) {
				return
			}
		}
	}
}
