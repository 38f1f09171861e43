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

	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/bytedance/gopkg/lang/mcache"
)

// Option ...
type Option[T any] struct {
	// Destroy is called on every element of a block being freed,
	// right before the element is reset to the zero value.
	Destroy func(*T)
}

// DefaultOption returns the default values of Option.
func DefaultOption[T any]() *Option[T] {
	return &Option[T]{}
}

// Block is a live allocation handed out by Allocator.
type Block[T any] struct {
	// Level is the block size, the block spans 2^Level elements.
	Level int
	// Index is the position of the block among the blocks of its size.
	Index int
	// Elems is the span of the block. Its capacity is clipped to the span.
	Elems []T
}

// Offset returns the position of the block's first element in the region.
func (b Block[T]) Offset() int {
	return b.Index << b.Level
}

// Stats ...
type Stats struct {
	Total     int // elements managed
	InUse     int // elements covered by live blocks
	Available int // free size-0 blocks
	Blocks    int // live blocks handed out by Alloc and AllocLevel
}

// Allocator wraps a Tree over regions it owns.
//
// Unlike Tree, freeing a block resets every element of the span, calling
// Option.Destroy on each of them first, so no value outlives its block.
// Allocator is not safe for concurrent use.
type Allocator[T any] struct {
	tree *Tree[T]
	buf  []byte // bit region followed by claims
	// claims marks the position of every block handed out, laid out like
	// the bit region. It tells a live block from a part of one.
	claims  bitmap
	destroy func(*T)
}

// NewAllocator creates an Allocator managing 2^levels elements of T.
func NewAllocator[T any](levels int, o *Option[T]) (*Allocator[T], error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	return newAllocator(levels, make([]T, 1<<levels), o)
}

// NewBytesAllocator creates an Allocator managing 2^levels bytes.
// The memory is not zeroed; a block holds garbage until written.
func NewBytesAllocator(levels int, o *Option[byte]) (*Allocator[byte], error) {
	if err := checkLevels(levels); err != nil {
		return nil, err
	}
	return newAllocator(levels, dirtmake.Bytes(1<<levels, 1<<levels), o)
}

func newAllocator[T any](levels int, data []T, o *Option[T]) (*Allocator[T], error) {
	if o == nil {
		o = DefaultOption[T]()
	}
	size := BitsSize(levels)
	// buf from mcache may be dirty
	buf := mcache.Malloc(2 * size)
	for i := range buf {
		buf[i] = 0
	}
	t, err := NewTree(levels, data, buf[:size:size])
	if err != nil {
		mcache.Free(buf)
		return nil, err
	}
	return &Allocator[T]{tree: t, buf: buf, claims: bitmap(buf[size:]), destroy: o.Destroy}, nil
}

// Tree returns the underlying Tree.
// Blocks allocated through it directly are not counted by Stats.Blocks and
// cannot be freed by Allocator.Free.
func (a *Allocator[T]) Tree() *Tree[T] {
	return a.tree
}

// Alloc allocates the smallest block holding at least count elements.
// It returns ok=false if count is not in [1, 2^(levels-1)] or no such block is free.
func (a *Allocator[T]) Alloc(count int) (Block[T], bool) {
	if count <= 0 || count > 1<<(a.tree.num-1) {
		return Block[T]{}, false
	}
	n := 0
	if count > 1 {
		n = bits.Len(uint(count - 1))
	}
	return a.AllocLevel(n)
}

// AllocLevel allocates a block of 2^n elements.
// Panics with ErrSizeOutOfRange if n is not in [0, levels).
func (a *Allocator[T]) AllocLevel(n int) (Block[T], bool) {
	elems, i, ok := a.tree.Allocate(n)
	if !ok {
		return Block[T]{}, false
	}
	start, _ := LevelRange(a.tree.num, n)
	a.claims.set(start + i)
	return Block[T]{Level: n, Index: i, Elems: elems}, true
}

// Free destroys every element of b and returns the block to the allocator.
// The block must not be used afterwards.
//
// Panics with ErrForeignBlock if b was not handed out by this allocator,
// including a block built by hand over a part of a live block, and with the
// errors of Tree.Free.
func (a *Allocator[T]) Free(b Block[T]) {
	if err := a.tree.CheckFree(b.Level, b.Index); err != nil {
		panic(err)
	}
	start, _ := LevelRange(a.tree.num, b.Level)
	if !a.claims.isSet(start+b.Index) ||
		len(b.Elems) != 1<<b.Level || &b.Elems[0] != &a.tree.data[b.Offset()] {
		panic(fmt.Errorf("%w: size=%d index=%d", ErrForeignBlock, b.Level, b.Index))
	}
	var zero T
	for i := range b.Elems {
		if a.destroy != nil {
			a.destroy(&b.Elems[i])
		}
		b.Elems[i] = zero
	}
	a.tree.Free(b.Level, b.Index)
	a.claims.clear(start + b.Index)
}

// Stats returns the current usage of the allocator.
func (a *Allocator[T]) Stats() Stats {
	total, avail := a.tree.Cap(), a.tree.Available()
	return Stats{
		Total:     total,
		InUse:     total - avail,
		Available: avail,
		Blocks:    a.claims.countSet(0, BitsLen(a.tree.num)),
	}
}

// Release returns the bit region to the buffer pool.
// Live blocks are not destroyed. The allocator must not be used afterwards.
func (a *Allocator[T]) Release() {
	if a.buf == nil {
		return
	}
	mcache.Free(a.buf)
	a.buf = nil
	a.claims = nil
	a.tree = nil
}
