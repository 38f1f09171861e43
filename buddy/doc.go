/*
 * Copyright 2026 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package buddy implements a buddy allocator over a fixed region of 2^N
// uniform elements, bookkept by a per-level bit tree.
//
// # Layout
//
// A Tree with N levels hands out blocks of 2^n elements for n in [0, N).
// The bit region stores one bit per block per level:
//
//	level 0: bits [0, 2^N)                 one bit per element
//	level 1: bits [2^N, 2^N+2^(N-1))       one bit per element pair
//	...
//	level n: bits [W-2^(N+1-n), W-2^(N-n))  W = 2^(N+1)
//
// so BitsLen(N) = 2^(N+1)-2 bits are needed. Use LevelRange to get the
// exact range of a level.
//
// # Tree and Allocator
//
// Tree borrows both regions and is the building block for environments
// that manage their own memory: Allocate returns the block span and its
// index, Free takes the size and index back. Fatal misuse (bad size or index,
// double free) panics with an error wrapping ErrSizeOutOfRange,
// ErrIndexOutOfRange or ErrDoubleFree. Running out of blocks is not fatal and
// is reported by ok=false.
//
// Allocator owns its regions, hands out Block values and resets the whole
// span of a block on Free, while Tree only resets the block's head element.
//
//	a, _ := buddy.NewAllocator[int](10, nil)
//	defer a.Release()
//	b, ok := a.Alloc(100) // 128 elements
//	...
//	a.Free(b)
package buddy
