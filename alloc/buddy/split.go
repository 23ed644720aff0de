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

// split returns the offset of a free block of exactly desired bytes, removed
// from every free list. It takes the lowest-addressed block of the smallest
// class that fits and halves it down, donating each upper half.
func (a *Allocator) split(desired uint32) (uint32, error) {
	if off, ok := a.free.first(desired); ok {
		if err := a.free.remove(off, desired); err != nil {
			return 0, err
		}
		return off, nil
	}

	// Find a larger block. The loop stops before size overflows a uint32
	// because totalSize is at most 1<<31.
	var (
		off   uint32
		size  uint32
		found bool
	)
	for s := desired << 1; s != 0 && s <= a.totalSize; s <<= 1 {
		if off, found = a.free.first(s); found {
			size = s
			break
		}
	}
	if !found {
		return 0, ErrOutOfMemory
	}
	if err := a.free.remove(off, size); err != nil {
		return 0, err
	}

	// The lower half keeps the original offset; the upper half goes to the class below.
	for size > desired {
		size >>= 1
		if err := a.free.add(off+size, size); err != nil {
			return 0, err
		}
		a.stats.splits++
	}
	return off, nil
}
