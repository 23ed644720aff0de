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
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ClassDump lists the free blocks of one size class.
type ClassDump struct {
	Size    uint32   `json:"size"`
	Offsets []uint32 `json:"offsets"`
}

// DebugDump returns every size class in ascending size order with the
// offsets of its free blocks in ascending order. Classes with no free
// block are included with empty Offsets. It returns nil after Close.
func (a *Allocator) DebugDump() []ClassDump {
	if a.closed {
		return nil
	}
	dump := make([]ClassDump, a.classes.num)
	for k := range dump {
		dump[k] = ClassDump{Size: a.classes.size(k), Offsets: make([]uint32, 0, a.free.count(k))}
	}
	a.free.each(func(off, size uint32) bool {
		k, _ := a.classes.class(size)
		dump[k].Offsets = append(dump[k].Offsets, off)
		return true
	})
	return dump
}

// WriteDump prints dump one class per line:
//
//	size 4: -
//	size 8: 8
//	size 16: 16 48
func WriteDump(w io.Writer, dump []ClassDump) error {
	bw := bufio.NewWriter(w)
	var line []byte
	for _, c := range dump {
		line = append(line[:0], "size "...)
		line = strconv.AppendUint(line, uint64(c.Size), 10)
		line = append(line, ':')
		if len(c.Offsets) == 0 {
			line = append(line, " -"...)
		}
		for _, off := range c.Offsets {
			line = append(line, ' ')
			line = strconv.AppendUint(line, uint64(off), 10)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return fmt.Errorf("write dump: %w", err)
		}
	}
	return bw.Flush()
}

// Fingerprint hashes the arena geometry and the free lists.
// Two allocators with the same geometry and the same free blocks have the
// same fingerprint, whatever sequence of operations led there.
// It returns 0 after Close.
func (a *Allocator) Fingerprint() uint64 {
	if a.closed {
		return 0
	}
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], a.totalSize)
	binary.LittleEndian.PutUint32(buf[4:], a.basicBlockSize)
	_, _ = h.Write(buf[:])
	a.free.each(func(off, size uint32) bool {
		binary.LittleEndian.PutUint32(buf[:4], size)
		binary.LittleEndian.PutUint32(buf[4:], off)
		_, _ = h.Write(buf[:])
		return true
	})
	return h.Sum64()
}
