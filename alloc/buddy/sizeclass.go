/*
 * Copyright 2025 CloudWeGo Authors
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

import "math/bits"

// HeaderSize is the number of bytes in front of every payload.
const HeaderSize = 4

// maxTotalSize bounds the arena so offsets and sizes fit a uint32.
const maxTotalSize = 1 << 31

// NextPowerOfTwo returns the smallest power of two >= x. It returns 1 for 0.
func NextPowerOfTwo(x uint64) uint64 {
	if x <= 1 {
		return 1
	}
	return 1 << bits.Len64(x-1)
}

// Buddy returns the offset of the buddy of the block at off with the given size.
// Applying it twice returns off.
func Buddy(off, size uint32) uint32 {
	return off ^ size
}

func isPowerOfTwo(x uint32) bool {
	return x != 0 && x&(x-1) == 0
}

// classIndex maps block sizes to free-list indexes.
// Class k holds blocks of basic << k bytes.
type classIndex struct {
	minShift int // log2(basic block size)
	num      int // number of classes
}

func newClassIndex(basic, total uint32) classIndex {
	minShift := bits.TrailingZeros32(basic)
	return classIndex{
		minShift: minShift,
		num:      bits.TrailingZeros32(total) - minShift + 1,
	}
}

// class returns the index of size, or false if size is not a power of two
// or falls outside [basic, total].
func (c classIndex) class(size uint32) (int, bool) {
	if !isPowerOfTwo(size) {
		return 0, false
	}
	k := bits.TrailingZeros32(size) - c.minShift
	if k < 0 || k >= c.num {
		return 0, false
	}
	return k, true
}

func (c classIndex) size(k int) uint32 {
	return 1 << (c.minShift + k)
}
