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
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory is returned when no free block is large enough for a request.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrInvalidIndex is returned when a size maps to no size class.
	ErrInvalidIndex = errors.New("buddy: size class out of range")

	// ErrInvalidFree is returned for a pointer that was never handed out by Malloc:
	// Nil, outside the arena, off a basic block boundary, or pointing into the
	// middle of a live block.
	ErrInvalidFree = errors.New("buddy: invalid pointer")

	// ErrDoubleFree is returned when the block behind a pointer is not allocated
	// and no live block covers it.
	ErrDoubleFree = errors.New("buddy: double free")

	// ErrCorruptHeader is returned when a block header no longer holds the reserved size.
	ErrCorruptHeader = errors.New("buddy: corrupt block header")

	// ErrBlockNotFound is returned when a block expected on a free list is missing.
	ErrBlockNotFound = errors.New("buddy: block not on free list")

	// ErrDuplicateBlock is returned when a block is added to the free lists twice.
	ErrDuplicateBlock = errors.New("buddy: block already free")

	// ErrMisaligned is returned for a block offset that is not a multiple of its size.
	ErrMisaligned = errors.New("buddy: misaligned block")

	// ErrInvalidConfig is returned by New for unusable sizes.
	ErrInvalidConfig = errors.New("buddy: invalid configuration")

	// ErrInconsistent is returned by Verify.
	ErrInconsistent = errors.New("buddy: inconsistent state")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("buddy: allocator closed")

	ErrNotInitialized     = errors.New("buddy: default allocator not initialized")
	ErrAlreadyInitialized = errors.New("buddy: default allocator already initialized")
)

// InitError reports why New could not build an allocator.
type InitError struct {
	BasicBlockSize uint32
	Length         uint32
	Err            error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("buddy: init(basic=%d, length=%d): %v", e.BasicBlockSize, e.Length, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
