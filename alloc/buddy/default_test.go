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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllocator(t *testing.T) {
	require.Nil(t, Default())

	_, err := Malloc(8)
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, Free(4), ErrNotInitialized)
	_, err = DebugDump()
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, Shutdown(), ErrNotInitialized)

	var ie *InitError
	assert.ErrorAs(t, Init(3, 64, nil), &ie)
	assert.Nil(t, Default(), "failed init leaves nothing behind")
	assert.ErrorAs(t, Init(4, 64, &Option{Backing: Backing(42)}), &ie)
	assert.Nil(t, Default(), "failed arena acquisition leaves nothing behind")

	require.NoError(t, Init(4, 64, &Option{Backing: BackingHeap}))
	assert.ErrorIs(t, Init(4, 64, nil), ErrAlreadyInitialized)
	require.NotNil(t, Default())

	p, err := Malloc(2)
	require.NoError(t, err)
	assert.Equal(t, Ptr(4), p)
	dump, err := DebugDump()
	require.NoError(t, err)
	assert.Equal(t, []uint32{8}, dump[1].Offsets)
	require.NoError(t, Free(p))
	assert.ErrorIs(t, Free(p), ErrDoubleFree)

	require.NoError(t, Shutdown())
	assert.Nil(t, Default())
	_, err = Malloc(8)
	assert.ErrorIs(t, err, ErrNotInitialized)

	// a shut down default can be initialized again
	require.NoError(t, Init(8, 128, nil))
	require.NoError(t, Shutdown())
}
