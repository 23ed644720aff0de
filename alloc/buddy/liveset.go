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

// liveSet records the allocated blocks by header offset.
// The arena header can be overwritten by the caller; the live set cannot,
// so Free compares the two.
type liveSet struct {
	blocks map[uint32]uint32 // header offset -> reserved size
	bytes  uint64
}

func newLiveSet() *liveSet {
	return &liveSet{blocks: make(map[uint32]uint32)}
}

func (l *liveSet) insert(off, size uint32) {
	l.blocks[off] = size
	l.bytes += uint64(size)
}

func (l *liveSet) lookup(off uint32) (uint32, bool) {
	size, ok := l.blocks[off]
	return size, ok
}

func (l *liveSet) delete(off uint32) {
	if size, ok := l.blocks[off]; ok {
		delete(l.blocks, off)
		l.bytes -= uint64(size)
	}
}

func (l *liveSet) len() int {
	return len(l.blocks)
}

func (l *liveSet) reset() {
	clear(l.blocks)
	l.bytes = 0
}
