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

import (
	"encoding/binary"
	"fmt"
	"slices"
)

type span struct {
	off, size uint32
	free      bool
}

// Verify checks the allocator's bookkeeping against itself:
//   - every block is aligned to its size,
//   - free and live blocks tile the arena exactly, without gaps or overlap,
//   - every live header still holds its reserved size,
//   - no free block has a free buddy of the same size.
//
// Violations are reported wrapped around ErrInconsistent. Verify walks every
// block and is meant for tests and debugging.
func (a *Allocator) Verify() error {
	if a.closed {
		return ErrClosed
	}
	var spans []span
	a.free.each(func(off, size uint32) bool {
		spans = append(spans, span{off: off, size: size, free: true})
		return true
	})
	if n := len(spans); n != len(a.free.owner) {
		return fmt.Errorf("%w: %d free list entries, %d owners", ErrInconsistent, n, len(a.free.owner))
	}
	for off, size := range a.live.blocks {
		if _, ok := a.classes.class(size); !ok {
			return fmt.Errorf("%w: live block %d has size %d", ErrInconsistent, off, size)
		}
		if hdr := binary.LittleEndian.Uint32(a.buf[off:]); hdr != size {
			return fmt.Errorf("%w: live block %d header holds %d, want %d", ErrInconsistent, off, hdr, size)
		}
		spans = append(spans, span{off: off, size: size})
	}
	slices.SortFunc(spans, func(x, y span) int {
		switch {
		case x.off < y.off:
			return -1
		case x.off > y.off:
			return 1
		}
		return 0
	})

	var next uint64
	for _, s := range spans {
		if s.off&(s.size-1) != 0 {
			return fmt.Errorf("%w: block %d misaligned for size %d", ErrInconsistent, s.off, s.size)
		}
		if uint64(s.off) != next {
			return fmt.Errorf("%w: block %d found where %d was expected", ErrInconsistent, s.off, next)
		}
		next += uint64(s.size)
		if s.free && s.size < a.totalSize && a.free.contains(Buddy(s.off, s.size), s.size) {
			return fmt.Errorf("%w: free block %d has a free buddy of size %d", ErrInconsistent, s.off, s.size)
		}
	}
	if next != uint64(a.totalSize) {
		return fmt.Errorf("%w: blocks cover %d of %d bytes", ErrInconsistent, next, a.totalSize)
	}
	return nil
}
