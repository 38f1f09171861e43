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

package buddy

import (
	"fmt"
	"math/bits"

	"github.com/bytedance/gopkg/util/xxhash3"
)

// MaxLevels is the largest level count a Tree accepts.
const MaxLevels = bits.UintSize - 3

// BitsLen returns the number of bits a Tree with the given level count addresses.
func BitsLen(levels int) int {
	return 1<<(levels+1) - 2
}

// BitsSize returns the size in bytes of the bit region for the given level count.
func BitsSize(levels int) int {
	return (BitsLen(levels) + 7) >> 3
}

// LevelRange returns the bit range [start, end) of level n for the given level count.
//
// Level n holds one bit per size-n block, 2^(levels-n) bits in total.
// Level 0 takes the first half of the region and every following level
// takes an exponentially smaller suffix.
func LevelRange(levels, n int) (start, end int) {
	w := 1 << (levels + 1)
	return w - 1<<(levels+1-n), w - 1<<(levels-n)
}

// Tree is a buddy allocator over a borrowed region of 2^levels elements.
//
// A size-n block spans 2^n elements; sizes range over [0, levels). The state
// of every block at every size lives in a borrowed bit region, a set bit
// meaning the block is unavailable: allocated itself, covered by an
// allocated ancestor, or containing an allocated descendant.
//
// Tree never reads T values and does not initialize them on Allocate. Free
// resets only the head element of the block to the zero value of T; callers
// owning values across the whole span must clean them up before Free, or use
// Allocator which does it for them.
//
// Tree is not safe for concurrent use.
type Tree[T any] struct {
	num  int
	data []T
	bits bitmap
}

// NewTree creates a Tree over data and bits.
// data must hold at least 2^levels elements and may be uninitialized.
// bits must hold at least BitsSize(levels) bytes, all zero.
// Both regions are borrowed for the lifetime of the Tree and must not be
// modified by the caller while the Tree is in use.
func NewTree[T any](levels int, data []T, bits []byte) (*Tree[T], error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	size := 1 << levels
	if len(data) < size {
		return nil, fmt.Errorf("%w: need %d elements, got %d", ErrShortData, size, len(data))
	}
	nbytes := BitsSize(levels)
	if len(bits) < nbytes {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrShortBits, nbytes, len(bits))
	}
	bits = bits[:nbytes:nbytes]
	for i, b := range bits {
		if b != 0 {
			return nil, fmt.Errorf("%w: byte %d is %#x", ErrDirtyBits, i, b)
		}
	}
	return &Tree[T]{
		num:  levels,
		data: data[:size:size],
		bits: bitmap(bits),
	}, nil
}

func checkLevels(levels int) error {
	if levels < 1 || levels > MaxLevels {
		return fmt.Errorf("%w: got %d, want [1, %d]", ErrInvalidLevels, levels, MaxLevels)
	}
	return nil
}

// Levels returns the number of block sizes.
func (t *Tree[T]) Levels() int {
	return t.num
}

// Cap returns the number of elements managed, 2^Levels().
func (t *Tree[T]) Cap() int {
	return len(t.data)
}

// Bits returns the borrowed bit region. It must not be modified.
func (t *Tree[T]) Bits() []byte {
	return t.bits
}

// CanAllocate reports whether a block of 2^n elements is free.
// Panics with ErrSizeOutOfRange if n is not in [0, Levels()).
func (t *Tree[T]) CanAllocate(n int) bool {
	start, end := t.mustLevel(n)
	return t.bits.findZero(start, end) >= 0
}

// Allocate claims the lowest free block of 2^n elements.
// It returns the block's elements and its index for Free, or ok=false if no
// block of that size is free. The elements are not initialized.
// Panics with ErrSizeOutOfRange if n is not in [0, Levels()).
func (t *Tree[T]) Allocate(n int) (block []T, index int, ok bool) {
	start, end := t.mustLevel(n)
	pos := t.bits.findZero(start, end)
	if pos < 0 {
		return nil, -1, false
	}
	index = pos - start
	t.setNetwork(n, index, true)
	lo, hi := index<<n, (index+1)<<n
	return t.data[lo:hi:hi], index, true
}

// Free releases the size-n block at index, coalescing it with free buddies.
// The head element of the block is reset to the zero value of T.
// Panics with ErrSizeOutOfRange, ErrIndexOutOfRange or ErrDoubleFree; use
// CheckFree to validate untrusted input first.
func (t *Tree[T]) Free(n, index int) {
	if err := t.CheckFree(n, index); err != nil {
		panic(err)
	}
	var zero T
	t.data[index<<n] = zero
	t.setNetwork(n, index, false)
}

// CheckFree returns the error Free would panic with, or nil.
// It does not verify that the block was returned by Allocate(n): a block
// covered by a larger allocation passes the check.
func (t *Tree[T]) CheckFree(n, index int) error {
	if err := t.checkBlock(n, index); err != nil {
		return err
	}
	start, _ := LevelRange(t.num, n)
	if !t.bits.isSet(start + index) {
		return fmt.Errorf("%w: size=%d index=%d", ErrDoubleFree, n, index)
	}
	return nil
}

// Used reports whether the size-n block at index is unavailable.
// Panics with ErrSizeOutOfRange or ErrIndexOutOfRange.
func (t *Tree[T]) Used(n, index int) bool {
	if err := t.checkBlock(n, index); err != nil {
		panic(err)
	}
	start, _ := LevelRange(t.num, n)
	return t.bits.isSet(start + index)
}

// Available returns the number of free size-0 blocks.
func (t *Tree[T]) Available() int {
	start, end := LevelRange(t.num, 0)
	return end - start - t.bits.countSet(start, end)
}

// Reset marks every block free. Values left in the data region are not touched.
func (t *Tree[T]) Reset() {
	for i := range t.bits {
		t.bits[i] = 0
	}
}

// Digest returns a fingerprint of the bit region.
// Two trees with the same level count and the same digest are in the same state.
func (t *Tree[T]) Digest() uint64 {
	return xxhash3.Hash(t.bits)
}

// Validate checks the links between adjacent sizes: every unavailable block
// has an unavailable parent, and every unavailable block above size 0 has at
// least one unavailable child.
func (t *Tree[T]) Validate() error {
	for n := 0; n < t.num; n++ {
		start, end := LevelRange(t.num, n)
		for pos := t.bits.findSet(start, end); pos >= 0; pos = t.bits.findSet(pos+1, end) {
			i := pos - start
			if n+1 < t.num {
				parent, _ := LevelRange(t.num, n+1)
				if !t.bits.isSet(parent + i>>1) {
					return fmt.Errorf("%w: size=%d index=%d is used but its parent is free", ErrCorrupted, n, i)
				}
			}
			if n > 0 {
				child, _ := LevelRange(t.num, n-1)
				if !t.bits.isSet(child+2*i) && !t.bits.isSet(child+2*i+1) {
					return fmt.Errorf("%w: size=%d index=%d is used but both children are free", ErrCorrupted, n, i)
				}
			}
		}
	}
	return nil
}

func (t *Tree[T]) mustLevel(n int) (start, end int) {
	if n < 0 || n >= t.num {
		panic(fmt.Errorf("%w: size=%d levels=%d", ErrSizeOutOfRange, n, t.num))
	}
	return LevelRange(t.num, n)
}

func (t *Tree[T]) checkBlock(n, index int) error {
	if n < 0 || n >= t.num {
		return fmt.Errorf("%w: size=%d levels=%d", ErrSizeOutOfRange, n, t.num)
	}
	if index < 0 || index >= 1<<(t.num-n) {
		return fmt.Errorf("%w: size=%d index=%d", ErrIndexOutOfRange, n, index)
	}
	return nil
}

// setNetwork marks the size-n block at index and everything tied to it.
//
// Below n every descendant bit is set to v unconditionally. From n upwards,
// allocating sets bits until it meets one already set, and freeing clears
// bits until the cleared block's buddy is still in use.
func (t *Tree[T]) setNetwork(n, index int, v bool) {
	for b := 0; b < n; b++ {
		start, _ := LevelRange(t.num, b)
		shift := n - b
		t.bits.setRange(start+index<<shift, 1<<shift, v)
	}
	for b := n; b < t.num; b++ {
		start, _ := LevelRange(t.num, b)
		j := index >> (b - n)
		if v {
			if t.bits.isSet(start + j) {
				break // ancestors are already set
			}
			t.bits.set(start + j)
		} else {
			t.bits.clear(start + j)
			if t.bits.isSet(start + (j ^ 1)) {
				break
			}
		}
	}
}
