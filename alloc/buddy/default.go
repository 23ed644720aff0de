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

// defaultAllocator backs the package-level functions.
// Like Allocator itself it is not safe for concurrent use.
var defaultAllocator *Allocator

// Init creates the default allocator. See New.
func Init(basicBlockSize, length uint32, o *Option) error {
	if defaultAllocator != nil {
		return ErrAlreadyInitialized
	}
	a, err := New(basicBlockSize, length, o)
	if err != nil {
		return err
	}
	defaultAllocator = a
	return nil
}

// Shutdown closes the default allocator. Init may be called again afterwards.
func Shutdown() error {
	if defaultAllocator == nil {
		return ErrNotInitialized
	}
	err := defaultAllocator.Close()
	defaultAllocator = nil
	return err
}

// Default returns the default allocator, or nil before Init.
func Default() *Allocator {
	return defaultAllocator
}

// Malloc calls Malloc on the default allocator.
func Malloc(n uint32) (Ptr, error) {
	if defaultAllocator == nil {
		return Nil, ErrNotInitialized
	}
	return defaultAllocator.Malloc(n)
}

// Free calls Free on the default allocator.
func Free(p Ptr) error {
	if defaultAllocator == nil {
		return ErrNotInitialized
	}
	return defaultAllocator.Free(p)
}

// DebugDump calls DebugDump on the default allocator.
func DebugDump() ([]ClassDump, error) {
	if defaultAllocator == nil {
		return nil, ErrNotInitialized
	}
	return defaultAllocator.DebugDump(), nil
}
