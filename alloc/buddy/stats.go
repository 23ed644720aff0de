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

// allocatorStats holds operation counters. They survive Reset.
type allocatorStats struct {
	mallocs  uint64 // successful Malloc calls with n > 0
	frees    uint64 // successful Free calls
	failed   uint64 // Malloc calls rejected with ErrOutOfMemory
	badFrees uint64 // Free calls rejected for any reason
	splits   uint64 // halvings performed by split
	merges   uint64 // buddy merges performed by coalesce
}

// Stats is a snapshot of an allocator's state and counters.
type Stats struct {
	TotalSize      uint32
	BasicBlockSize uint32

	FreeBytes   uint64 // bytes in free blocks
	LiveBytes   uint64 // bytes reserved by live blocks, headers included
	FreeBlocks  int
	LiveBlocks  int
	LargestFree uint32 // size of the largest free block, 0 if none

	// FreeBlocksByClass[k] counts free blocks of BasicBlockSize << k bytes.
	FreeBlocksByClass []int

	Mallocs  uint64
	Frees    uint64
	Failed   uint64
	BadFrees uint64
	Splits   uint64
	Merges   uint64
}

// Stats returns a snapshot. It returns ErrClosed after Close.
func (a *Allocator) Stats() (Stats, error) {
	if a.closed {
		return Stats{}, ErrClosed
	}
	s := Stats{
		TotalSize:         a.totalSize,
		BasicBlockSize:    a.basicBlockSize,
		FreeBytes:         a.free.freeBytes(),
		LiveBytes:         a.live.bytes,
		LiveBlocks:        a.live.len(),
		FreeBlocksByClass: make([]int, a.classes.num),
		Mallocs:           a.stats.mallocs,
		Frees:             a.stats.frees,
		Failed:            a.stats.failed,
		BadFrees:          a.stats.badFrees,
		Splits:            a.stats.splits,
		Merges:            a.stats.merges,
	}
	for k := range s.FreeBlocksByClass {
		n := a.free.count(k)
		s.FreeBlocksByClass[k] = n
		s.FreeBlocks += n
		if n > 0 {
			s.LargestFree = a.classes.size(k)
		}
	}
	return s, nil
}
