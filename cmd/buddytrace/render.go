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
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/cloudwego/buddies/buddy"
)

// renderBits prints one line of bits per size, largest size first.
func renderBits(t *buddy.Tree[byte]) string {
	var sb strings.Builder
	for n := t.Levels() - 1; n >= 0; n-- {
		fmt.Fprintf(&sb, "size %2d: ", n)
		for i := 0; i < t.Cap()>>n; i++ {
			if t.Used(n, i) {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// renderTree draws the blocks of t down to depth sizes below the largest one.
// Free blocks are not expanded.
func renderTree(t *buddy.Tree[byte], depth int) string {
	root := treeprint.NewWithRoot(fmt.Sprintf("region [0, %d)", t.Cap()))
	top := t.Levels() - 1
	addBlock(root, t, top, 0, depth)
	addBlock(root, t, top, 1, depth)
	return root.String()
}

func addBlock(parent treeprint.Tree, t *buddy.Tree[byte], n, i, depth int) {
	state := blockState(t, n, i)
	label := fmt.Sprintf("size %d #%d [%d, %d) %s", n, i, i<<n, (i+1)<<n, state)
	if n == 0 || depth <= 1 || state == "free" {
		parent.AddNode(label)
		return
	}
	branch := parent.AddBranch(label)
	addBlock(branch, t, n-1, 2*i, depth-1)
	addBlock(branch, t, n-1, 2*i+1, depth-1)
}

func blockState(t *buddy.Tree[byte], n, i int) string {
	switch {
	case !t.Used(n, i):
		return "free"
	case n == 0, t.Used(n-1, 2*i) && t.Used(n-1, 2*i+1):
		return "used"
	default:
		return "partial"
	}
}
