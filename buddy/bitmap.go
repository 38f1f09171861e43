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
	"encoding/binary"
	"math/bits"
)

// bitmap addresses a byte region by bit position.
// Bit idx lives in byte idx>>3 at mask 1<<(idx&7).
type bitmap []byte

func (m bitmap) isSet(idx int) bool {
	return m[idx>>3]&(1<<(idx&7)) != 0
}

func (m bitmap) set(idx int) {
	m[idx>>3] |= 1 << (idx & 7)
}

func (m bitmap) clear(idx int) {
	m[idx>>3] &^= 1 << (idx & 7)
}

// setRange sets (v=true) or clears (v=false) count bits starting at idx.
func (m bitmap) setRange(idx, count int, v bool) {
	if count == 0 {
		return
	}
	end := idx + count
	startByte := idx >> 3
	endByte := (end - 1) >> 3

	if startByte == endByte {
		mask := byte((1<<count)-1) << (idx & 7)
		if v {
			m[startByte] |= mask
		} else {
			m[startByte] &^= mask
		}
		return
	}

	// first byte: bits idx&7 .. 7
	firstMask := byte(0xFF) << (idx & 7)
	// last byte: bits 0 .. (end-1)&7
	lastMask := byte((1 << ((end-1)&7 + 1)) - 1)
	fill := byte(0)
	if v {
		fill = 0xFF
		m[startByte] |= firstMask
		m[endByte] |= lastMask
	} else {
		m[startByte] &^= firstMask
		m[endByte] &^= lastMask
	}
	for i := startByte + 1; i < endByte; i++ {
		m[i] = fill
	}
}

// findZero returns the position of the first clear bit in [start, end), or -1.
// Scans the unaligned head byte, then 64-bit words, then the remaining bytes.
func (m bitmap) findZero(start, end int) int {
	i := start
	if i < end && i&7 != 0 {
		// mask out the bits below i
		b := m[i>>3] | (byte(1<<(i&7)) - 1)
		if b != 0xFF {
			if idx := i&^7 + bits.TrailingZeros8(^b); idx < end {
				return idx
			}
			return -1
		}
		i = i&^7 + 8
	}

	for i+64 <= end {
		w := binary.LittleEndian.Uint64(m[i>>3:])
		if w != ^uint64(0) {
			return i + bits.TrailingZeros64(^w)
		}
		i += 64
	}

	for ; i < end; i += 8 {
		if b := m[i>>3]; b != 0xFF {
			if idx := i + bits.TrailingZeros8(^b); idx < end {
				return idx
			}
			return -1
		}
	}
	return -1
}

// findSet returns the position of the first set bit in [start, end), or -1.
func (m bitmap) findSet(start, end int) int {
	i := start
	if i < end && i&7 != 0 {
		b := m[i>>3] &^ (byte(1<<(i&7)) - 1)
		if b != 0 {
			if idx := i&^7 + bits.TrailingZeros8(b); idx < end {
				return idx
			}
			return -1
		}
		i = i&^7 + 8
	}

	for i+64 <= end {
		if w := binary.LittleEndian.Uint64(m[i>>3:]); w != 0 {
			return i + bits.TrailingZeros64(w)
		}
		i += 64
	}

	for ; i < end; i += 8 {
		if b := m[i>>3]; b != 0 {
			if idx := i + bits.TrailingZeros8(b); idx < end {
				return idx
			}
			return -1
		}
	}
	return -1
}

// countSet returns the number of set bits in [start, end).
func (m bitmap) countSet(start, end int) int {
	n := 0
	i := start
	for ; i < end && i&7 != 0; i++ {
		if m.isSet(i) {
			n++
		}
	}
	for ; i+64 <= end; i += 64 {
		n += bits.OnesCount64(binary.LittleEndian.Uint64(m[i>>3:]))
	}
	for ; i+8 <= end; i += 8 {
		n += bits.OnesCount8(m[i>>3])
	}
	for ; i < end; i++ {
		if m.isSet(i) {
			n++
		}
	}
	return n
}
