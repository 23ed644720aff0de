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

// Package arena acquires and releases the single contiguous region of bytes
// an allocator manages. The region is obtained once and never resized.
package arena

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// Backing selects where the bytes of an Arena come from.
type Backing int

const (
	// BackingAuto uses BackingMmap where the platform supports it, BackingHeap otherwise.
	BackingAuto Backing = iota
	// BackingHeap allocates the region on the Go heap without zeroing it.
	BackingHeap
	// BackingMmap maps an anonymous private region outside the Go heap.
	BackingMmap
)

// ErrUnsupported is returned when a backing is not available on this platform.
var ErrUnsupported = errors.New("arena: backing not supported on this platform")

func (b Backing) String() string {
	switch b {
	case BackingAuto:
		return "auto"
	case BackingHeap:
		return "heap"
	case BackingMmap:
		return "mmap"
	}
	return fmt.Sprintf("Backing(%d)", int(b))
}

// ParseBacking parses the names returned by Backing.String.
func ParseBacking(s string) (Backing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackingAuto, nil
	case "heap":
		return BackingHeap, nil
	case "mmap":
		return BackingMmap, nil
	}
	return BackingAuto, fmt.Errorf("arena: unknown backing %q", s)
}

// Arena owns one contiguous region of bytes.
type Arena struct {
	buf     []byte
	backing Backing
	release func([]byte) error
}

// New acquires a region of exactly size bytes.
// Heap-backed regions are NOT zeroed.
func New(size int, b Backing) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("arena: invalid size %d", size)
	}
	if b == BackingAuto {
		if mmapSupported {
			b = BackingMmap
		} else {
			b = BackingHeap
		}
	}
	switch b {
	case BackingHeap:
		return &Arena{buf: dirtmake.Bytes(size, size), backing: BackingHeap}, nil
	case BackingMmap:
		buf, err := mapAnon(size)
		if err != nil {
			return nil, fmt.Errorf("arena: map %d bytes: %w", size, err)
		}
		return &Arena{buf: buf, backing: BackingMmap, release: unmapAnon}, nil
	}
	return nil, fmt.Errorf("arena: unknown backing %v", b)
}

// Bytes returns the whole region. It returns nil after Release.
func (a *Arena) Bytes() []byte {
	return a.buf
}

// Len returns the size of the region in bytes, or 0 after Release.
func (a *Arena) Len() int {
	return len(a.buf)
}

// Backing returns the resolved backing, never BackingAuto.
func (a *Arena) Backing() Backing {
	return a.backing
}

// Base returns the address of the first byte, or nil after Release.
func (a *Arena) Base() unsafe.Pointer {
	if len(a.buf) == 0 {
		return nil
	}
	return unsafe.Pointer(&a.buf[0])
}

// Release gives the region back. Calling it more than once is a no-op.
// Any slice previously obtained from Bytes must not be used afterwards.
func (a *Arena) Release() error {
	buf := a.buf
	if buf == nil {
		return nil
	}
	a.buf = nil
	if a.release != nil {
		return a.release(buf)
	}
	return nil
}
