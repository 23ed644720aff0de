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

// Package buddy implements a binary buddy allocator over a single fixed-size
// arena.
//
// The arena size is a power of two. Every block is a power of two no smaller
// than the basic block size and starts at an offset that is a multiple of its
// own size. A request of n bytes reserves the smallest such block holding n
// bytes plus a 4-byte header; the header records the reserved size so Free
// can find the block's class again.
//
// Free blocks live in one ordered list per size class. Allocation takes the
// lowest-addressed block of the smallest class that fits and splits it in
// halves down to the requested size, donating each upper half to the class
// below. Release puts the block back and merges it with its buddy, the block
// at offset ^ size, for as long as the buddy is also free.
//
// Allocations are identified by Ptr, the payload offset into the arena. Use
// Allocator.Bytes to reach the memory.
//
// An Allocator is not safe for concurrent use.
//
// Basic usage:
//
//	a, err := buddy.New(16, 1<<20, nil)
//	if err != nil {
//		return err
//	}
//	defer a.Close()
//
//	p, err := a.Malloc(100)
//	if err != nil {
//		return err
//	}
//	copy(a.Bytes(p), data)
//	return a.Free(p)
package buddy
