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

// Package ordered provides data structures iterating in insertion order.
//
// Indexing maps and fusion tables are rendered and compared in tests, so
// their iteration order has to be deterministic.
package ordered

import (
	"iter"
	"slices"
)

// Map is a map iterating over its entries in the order in which
// the keys have been first stored.
type Map[K comparable, V any] struct {
	keys []K
	m    map[K]V
}

// NewMap returns a new empty ordered map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Store a value for a key.
// Storing a value for an existing key keeps the position of the key.
func (m *Map[K, V]) Store(k K, v V) {
	if _, in := m.m[k]; !in {
		m.keys = append(m.keys, k)
	}
	m.m[k] = v
}

// Load returns the value stored for a key.
func (m *Map[K, V]) Load(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

// LoadOrStore returns the value stored for a key if present.
// Otherwise, it stores the value returned by create and returns it.
func (m *Map[K, V]) LoadOrStore(k K, create func() V) V {
	if v, ok := m.m[k]; ok {
		return v
	}
	v := create()
	m.Store(k, v)
	return v
}

// Delete removes a key from the map.
func (m *Map[K, V]) Delete(k K) {
	if _, in := m.m[k]; !in {
		return
	}
	delete(m.m, k)
	m.keys = slices.DeleteFunc(m.keys, func(x K) bool { return x == k })
}

// Has returns true if the key is in the map.
func (m *Map[K, V]) Has(k K) bool {
	_, in := m.m[k]
	return in
}

// All returns an iterator over the key,value pairs of the map.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.m[k]) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys of the map.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return slices.Values(m.keys)
}

// Values returns an iterator over the values of the map.
func (m *Map[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, k := range m.keys {
			if !yield(m.m[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy of the map.
func (m *Map[K, V]) Clone() *Map[K, V] {
	r := &Map[K, V]{
		keys: slices.Clone(m.keys),
		m:    make(map[K]V, len(m.m)),
	}
	for k, v := range m.m {
		r.m[k] = v
	}
	return r
}

// Len returns the number of entries in the map.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}
