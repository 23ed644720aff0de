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

// coalesce merges the free block at off with its buddy for as long as the
// buddy is free at the same size. The block must already be on the free lists.
func (a *Allocator) coalesce(off, size uint32) error {
	for size < a.totalSize {
		buddy := Buddy(off, size)
		if !a.free.contains(buddy, size) {
			return nil
		}
		if err := a.free.remove(buddy, size); err != nil {
			return err
		}
		if err := a.free.remove(off, size); err != nil {
			return err
		}
		off = min(off, buddy)
		size <<= 1
		if err := a.free.add(off, size); err != nil {
			return err
		}
		a.stats.merges++
	}
	return nil
}
