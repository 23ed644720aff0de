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
	"fmt"

	"github.com/google/btree"
)

const btreeDegree = 32

// freeLists keeps the free blocks of every size class, ordered by offset.
type freeLists struct {
	classes classIndex
	lists   []*btree.BTreeG[uint32]
	// owner maps a free offset to its class; an offset is free in at most one class.
	owner map[uint32]int
	log   diag
}

func lessOffset(a, b uint32) bool { return a < b }

func newFreeLists(classes classIndex, log diag) *freeLists {
	f := &freeLists{
		classes: classes,
		lists:   make([]*btree.BTreeG[uint32], classes.num),
		owner:   make(map[uint32]int),
		log:     log,
	}
	for i := range f.lists {
		f.lists[i] = btree.NewG(btreeDegree, lessOffset)
	}
	return f
}

// add marks the block at off of the given size free.
func (f *freeLists) add(off, size uint32) error {
	k, ok := f.classes.class(size)
	if !ok {
		f.log.error("free list add: no size class", "offset", off, "size", size)
		return fmt.Errorf("add block %d of size %d: %w", off, size, ErrInvalidIndex)
	}
	if off&(size-1) != 0 {
		f.log.error("free list add: misaligned block", "offset", off, "size", size)
		return fmt.Errorf("add block %d of size %d: %w", off, size, ErrMisaligned)
	}
	if c, dup := f.owner[off]; dup {
		f.log.error("free list add: block already free", "offset", off, "size", size, "free_size", f.classes.size(c))
		return fmt.Errorf("add block %d of size %d: %w", off, size, ErrDuplicateBlock)
	}
	f.lists[k].ReplaceOrInsert(off)
	f.owner[off] = k
	return nil
}

// remove takes the block at off out of the list of its class.
func (f *freeLists) remove(off, size uint32) error {
	k, ok := f.classes.class(size)
	if !ok {
		f.log.error("free list remove: no size class", "offset", off, "size", size)
		return fmt.Errorf("remove block %d of size %d: %w", off, size, ErrInvalidIndex)
	}
	if _, found := f.lists[k].Delete(off); !found {
		f.log.error("free list remove: block not found", "offset", off, "size", size)
		return fmt.Errorf("remove block %d of size %d: %w", off, size, ErrBlockNotFound)
	}
	delete(f.owner, off)
	return nil
}

// first returns the lowest free offset of the given size without removing it.
func (f *freeLists) first(size uint32) (uint32, bool) {
	k, ok := f.classes.class(size)
	if !ok {
		return 0, false
	}
	return f.lists[k].Min()
}

func (f *freeLists) contains(off, size uint32) bool {
	k, ok := f.classes.class(size)
	if !ok {
		return false
	}
	c, free := f.owner[off]
	return free && c == k
}

// each calls fn for every free block, smallest class first, ascending offsets.
func (f *freeLists) each(fn func(off, size uint32) bool) {
	for k, l := range f.lists {
		size := f.classes.size(k)
		stop := false
		l.Ascend(func(off uint32) bool {
			if !fn(off, size) {
				stop = true
				return false
			}
			return true
		})
		if stop {
			return
		}
	}
}

// count returns the number of free blocks in class k.
func (f *freeLists) count(k int) int {
	return f.lists[k].Len()
}

// freeBytes sums the sizes of all free blocks.
func (f *freeLists) freeBytes() uint64 {
	var n uint64
	for k, l := range f.lists {
		n += uint64(l.Len()) * uint64(f.classes.size(k))
	}
	return n
}

func (f *freeLists) reset() {
	for _, l := range f.lists {
		l.Clear(true)
	}
	clear(f.owner)
}
