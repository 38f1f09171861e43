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

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderBits(t *testing.T) {
	tree := newTestTree(t, 3)
	_, _, ok := tree.Allocate(0)
	require.True(t, ok)

	want := "size  2: 10\n" +
		"size  1: 1000\n" +
		"size  0: 10000000\n"
	assert.Equal(t, want, renderBits(tree))
}

func TestRenderTree(t *testing.T) {
	tree := newTestTree(t, 3)
	_, _, ok := tree.Allocate(0)
	require.True(t, ok)

	out := renderTree(tree, 3)
	assert.Contains(t, out, "region [0, 8)")
	assert.Contains(t, out, "size 2 #0 [0, 4) partial")
	assert.Contains(t, out, "size 1 #0 [0, 2) partial")
	assert.Contains(t, out, "size 0 #0 [0, 1) used")
	assert.Contains(t, out, "size 0 #1 [1, 2) free")
	assert.Contains(t, out, "size 1 #1 [2, 4) free")
	assert.Contains(t, out, "size 2 #1 [4, 8) free")
	// free blocks are leaves
	assert.NotContains(t, out, "size 1 #2")

	// depth 1 only lists the largest blocks
	out = renderTree(tree, 1)
	assert.Contains(t, out, "size 2 #0 [0, 4) partial")
	assert.NotContains(t, out, "size 1 ")
}

func TestBlockState(t *testing.T) {
	tree := newTestTree(t, 2)
	assert.Equal(t, "free", blockState(tree, 1, 0))
	_, _, ok := tree.Allocate(1)
	require.True(t, ok)
	assert.Equal(t, "used", blockState(tree, 1, 0))
	assert.Equal(t, "used", blockState(tree, 0, 1))
	assert.Equal(t, "free", blockState(tree, 1, 1))
}

func TestPrintLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLayout(&buf, 3))
	out := buf.String()
	assert.Contains(t, out, "elements: 8\n")
	assert.Contains(t, out, "bits: 14 (2 bytes)\n")
	assert.Contains(t, out, "size  0: bits [0, 8) blocks=8 elements/block=1\n")
	assert.Contains(t, out, "size  1: bits [8, 12) blocks=4 elements/block=2\n")
	assert.Contains(t, out, "size  2: bits [12, 14) blocks=2 elements/block=4\n")

	assert.Error(t, printLayout(&buf, 0))
}
