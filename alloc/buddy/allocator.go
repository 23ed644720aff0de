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
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/cloudwego/buddyalloc/internal/arena"
)

// Ptr identifies an allocation: the offset of its payload in the arena.
type Ptr uint32

// Nil is never returned for a successful allocation of a positive size.
const Nil Ptr = 0

// Backing selects where the arena bytes come from.
type Backing = arena.Backing

const (
	BackingAuto = arena.BackingAuto
	BackingHeap = arena.BackingHeap
	BackingMmap = arena.BackingMmap
)

// ParseBacking parses "auto", "heap" or "mmap".
func ParseBacking(s string) (Backing, error) {
	return arena.ParseBacking(s)
}

// Option is used to configure an Allocator.
type Option struct {
	// Backing selects the arena source.
	Backing Backing
	// Logger receives diagnostics. If nil, each message goes to the
	// process-wide logger current when it is emitted, so a later logger.Init
	// also applies to allocators created before it.
	Logger *slog.Logger
}

// DefaultOption returns the options used when New is given nil.
func DefaultOption() *Option {
	return &Option{Backing: BackingAuto}
}

// Allocator is a binary buddy allocator over one arena.
// It is not safe for concurrent use.
type Allocator struct {
	arena *arena.Arena
	buf   []byte

	totalSize      uint32
	basicBlockSize uint32
	classes        classIndex

	free  *freeLists
	live  *liveSet
	stats allocatorStats

	log    diag
	closed bool
}

// New creates an allocator whose arena is length rounded up to a power of two.
// basicBlockSize is the smallest block ever handed out and must be a power of two
// no larger than the arena. A nil o uses DefaultOption.
//
// Every failure is reported as an *InitError and leaves nothing allocated.
func New(basicBlockSize, length uint32, o *Option) (*Allocator, error) {
	if o == nil {
		o = DefaultOption()
	}
	log := diag{l: o.Logger}
	fail := func(err error) (*Allocator, error) {
		ie := &InitError{BasicBlockSize: basicBlockSize, Length: length, Err: err}
		log.debug("buddy init failed", "basic", basicBlockSize, "length", length, "error", err)
		return nil, ie
	}

	if !isPowerOfTwo(basicBlockSize) {
		return fail(fmt.Errorf("%w: basic block size %d is not a power of two", ErrInvalidConfig, basicBlockSize))
	}
	if length == 0 {
		return fail(fmt.Errorf("%w: zero length", ErrInvalidConfig))
	}
	total := NextPowerOfTwo(uint64(length))
	if total > maxTotalSize {
		return fail(fmt.Errorf("%w: arena of %d bytes exceeds %d", ErrInvalidConfig, total, uint64(maxTotalSize)))
	}
	if total < uint64(basicBlockSize) {
		return fail(fmt.Errorf("%w: arena of %d bytes is smaller than basic block size %d", ErrInvalidConfig, total, basicBlockSize))
	}

	ar, err := arena.New(int(total), o.Backing)
	if err != nil {
		return fail(err)
	}

	a := &Allocator{
		arena:          ar,
		buf:            ar.Bytes(),
		totalSize:      uint32(total),
		basicBlockSize: basicBlockSize,
		classes:        newClassIndex(basicBlockSize, uint32(total)),
		live:           newLiveSet(),
		log:            log,
	}
	a.free = newFreeLists(a.classes, log)
	if err := a.free.add(0, a.totalSize); err != nil {
		_ = ar.Release()
		return fail(err)
	}
	log.debug("buddy init", "basic", basicBlockSize, "total", a.totalSize,
		"classes", a.classes.num, "backing", ar.Backing().String())
	return a, nil
}

// Malloc reserves a block holding at least n bytes and returns its payload.
// Malloc(0) returns Nil and no error.
//
// The reserved block is the smallest power of two, at least the basic block
// size, that holds n bytes plus the header. Among free blocks of the smallest
// fitting class the lowest-addressed one is used.
func (a *Allocator) Malloc(n uint32) (Ptr, error) {
	if a.closed {
		return Nil, ErrClosed
	}
	if n == 0 {
		return Nil, nil
	}
	want := NextPowerOfTwo(uint64(n) + HeaderSize)
	if want < uint64(a.basicBlockSize) {
		want = uint64(a.basicBlockSize)
	}
	if want > uint64(a.totalSize) {
		return Nil, a.outOfMemory(n, want)
	}
	size := uint32(want)

	off, err := a.split(size)
	if err != nil {
		if errors.Is(err, ErrOutOfMemory) {
			return Nil, a.outOfMemory(n, want)
		}
		return Nil, fmt.Errorf("malloc %d bytes: %w", n, err)
	}
	binary.LittleEndian.PutUint32(a.buf[off:], size)
	a.live.insert(off, size)
	a.stats.mallocs++
	return Ptr(off + HeaderSize), nil
}

func (a *Allocator) outOfMemory(n uint32, want uint64) error {
	a.stats.failed++
	a.log.debug("buddy out of memory", "request", n, "block", want, "free", a.free.freeBytes())
	return fmt.Errorf("malloc %d bytes: %w", n, ErrOutOfMemory)
}

// Free returns the block behind p and merges it with free buddies.
//
// p must be a value returned by Malloc on this allocator and not freed since.
// Anything else is rejected without changing the allocator: ErrInvalidFree for
// a pointer Malloc could never have returned or one into the middle of a live
// block, ErrDoubleFree for a block that is not allocated, ErrCorruptHeader when
// the header was overwritten.
func (a *Allocator) Free(p Ptr) error {
	if a.closed {
		return ErrClosed
	}
	off, size, err := a.block(p)
	if err != nil {
		a.stats.badFrees++
		a.log.warn("buddy free rejected", "ptr", uint32(p), "error", err)
		return err
	}
	a.live.delete(off)
	if err := a.free.add(off, size); err != nil {
		return fmt.Errorf("free %d: %w", p, err)
	}
	a.stats.frees++
	if err := a.coalesce(off, size); err != nil {
		return fmt.Errorf("free %d: %w", p, err)
	}
	return nil
}

// block resolves p to its header offset and reserved size.
func (a *Allocator) block(p Ptr) (off, size uint32, err error) {
	if p < HeaderSize || uint32(p) >= a.totalSize {
		return 0, 0, fmt.Errorf("ptr %d: %w", p, ErrInvalidFree)
	}
	off = uint32(p) - HeaderSize
	if off&(a.basicBlockSize-1) != 0 {
		return 0, 0, fmt.Errorf("ptr %d: %w", p, ErrInvalidFree)
	}
	size, ok := a.live.lookup(off)
	if !ok {
		if h, hs, in := a.enclosingLive(off); in {
			return 0, 0, fmt.Errorf("ptr %d: inside block %d of size %d: %w", p, h, hs, ErrInvalidFree)
		}
		return 0, 0, fmt.Errorf("ptr %d: %w", p, ErrDoubleFree)
	}
	if hdr := binary.LittleEndian.Uint32(a.buf[off:]); hdr != size {
		return 0, 0, fmt.Errorf("ptr %d: header holds %d, block is %d: %w", p, hdr, size, ErrCorruptHeader)
	}
	return off, size, nil
}

// enclosingLive reports the live block that covers off without starting at it.
// Blocks are aligned to their size, so only one candidate per class exists.
func (a *Allocator) enclosingLive(off uint32) (head, size uint32, ok bool) {
	for s := uint64(a.basicBlockSize) << 1; s <= uint64(a.totalSize); s <<= 1 {
		h := off &^ uint32(s-1)
		if h == off {
			continue
		}
		if sz, live := a.live.lookup(h); live && uint64(h)+uint64(sz) > uint64(off) {
			return h, sz, true
		}
	}
	return 0, 0, false
}

// Bytes returns the payload of a live allocation, or nil if p is not one.
// The slice covers the whole reserved block after the header, so it may be
// longer than the size passed to Malloc. It must not be used after Free or Close.
func (a *Allocator) Bytes(p Ptr) []byte {
	if a.closed {
		return nil
	}
	off, size, err := a.block(p)
	if err != nil {
		return nil
	}
	end := off + size
	return a.buf[off+HeaderSize : end : end]
}

// Pointer returns the address of the payload of a live allocation, or nil.
func (a *Allocator) Pointer(p Ptr) unsafe.Pointer {
	if a.closed {
		return nil
	}
	if _, _, err := a.block(p); err != nil {
		return nil
	}
	return unsafe.Add(a.arena.Base(), uintptr(p))
}

// SizeOf returns the usable payload size of a live allocation.
func (a *Allocator) SizeOf(p Ptr) (uint32, error) {
	if a.closed {
		return 0, ErrClosed
	}
	_, size, err := a.block(p)
	if err != nil {
		return 0, err
	}
	return size - HeaderSize, nil
}

// Reset frees every allocation at once. Counters are kept.
func (a *Allocator) Reset() error {
	if a.closed {
		return ErrClosed
	}
	a.live.reset()
	a.free.reset()
	return a.free.add(0, a.totalSize)
}

// Close releases the arena. Calling it again is a no-op; every other
// method returns ErrClosed or a zero value afterwards.
func (a *Allocator) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.buf = nil
	a.live.reset()
	a.free.reset()
	err := a.arena.Release()
	a.log.debug("buddy closed", "total", a.totalSize, "error", err)
	return err
}

// Available returns the number of bytes in free blocks, headers not deducted.
func (a *Allocator) Available() uint32 {
	if a.closed {
		return 0
	}
	return uint32(a.free.freeBytes())
}

// TotalSize returns the arena size.
func (a *Allocator) TotalSize() uint32 { return a.totalSize }

// BasicBlockSize returns the smallest block size.
func (a *Allocator) BasicBlockSize() uint32 { return a.basicBlockSize }

// NumClasses returns the number of size classes, from BasicBlockSize to TotalSize.
func (a *Allocator) NumClasses() int { return a.classes.num }

// Backing returns the resolved arena source.
func (a *Allocator) Backing() Backing { return a.arena.Backing() }
