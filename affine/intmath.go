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

package affine

import "golang.org/x/exp/constraints"

// floorDiv returns x/k rounded towards negative infinity. k must be positive.
func floorDiv[T constraints.Signed](x, k T) T {
	q := x / k
	if x%k != 0 && x < 0 {
		q--
	}
	return q
}

// floorMod returns the remainder of x/k in [0, k). k must be positive.
func floorMod[T constraints.Signed](x, k T) T {
	r := x % k
	if r < 0 {
		r += k
	}
	return r
}

func abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// gcd returns the greatest common divisor of |a| and |b|.
// gcd(0, 0) is 0.
func gcd[T constraints.Signed](a, b T) T {
	a, b = abs(a), abs(b)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
