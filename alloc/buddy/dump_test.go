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
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDump(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDump(&buf, []ClassDump{
		{Size: 4, Offsets: []uint32{}},
		{Size: 8, Offsets: []uint32{8}},
		{Size: 16, Offsets: []uint32{16, 48}},
	})
	require.NoError(t, err)
	assert.Equal(t, "size 4: -\nsize 8: 8\nsize 16: 16 48\n", buf.String())
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteDumpError(t *testing.T) {
	dump := make([]ClassDump, 1000)
	for i := range dump {
		dump[i] = ClassDump{Size: 4, Offsets: []uint32{1, 2, 3}}
	}
	assert.Error(t, WriteDump(failWriter{}, dump))
}

func TestDebugDumpJSON(t *testing.T) {
	a := newTestAllocator(t, 4, 16)
	_, err := a.Malloc(1)
	require.NoError(t, err)

	b, err := json.Marshal(a.DebugDump())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"size":4,"offsets":[]},{"size":8,"offsets":[8]},{"size":16,"offsets":[]}]`, string(b))
}

func TestFingerprint(t *testing.T) {
	a := newTestAllocator(t, 4, 64)
	b := newTestAllocator(t, 4, 64)
	c := newTestAllocator(t, 8, 64)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "geometry is hashed")

	pa, err := a.Malloc(2)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())

	// reach the same state by a different route
	pb1, err := b.Malloc(30)
	require.NoError(t, err)
	require.NoError(t, b.Free(pb1))
	_, err = b.Malloc(3)
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	require.NoError(t, a.Free(pa))
	assert.Equal(t, c.DebugDump()[len(c.DebugDump())-1], a.DebugDump()[len(a.DebugDump())-1])
}

func TestVerifyDetects(t *testing.T) {
	t.Run("gap", func(t *testing.T) {
		a := newTestAllocator(t, 4, 64)
		require.NoError(t, a.free.remove(0, 64))
		require.NoError(t, a.free.add(0, 32))
		assert.ErrorIs(t, a.Verify(), ErrInconsistent)
	})
	t.Run("overlap", func(t *testing.T) {
		a := newTestAllocator(t, 4, 64)
		require.NoError(t, a.free.add(32, 32))
		assert.ErrorIs(t, a.Verify(), ErrInconsistent)
	})
	t.Run("unmerged_buddies", func(t *testing.T) {
		a := newTestAllocator(t, 4, 64)
		require.NoError(t, a.free.remove(0, 64))
		require.NoError(t, a.free.add(0, 32))
		require.NoError(t, a.free.add(32, 32))
		assert.ErrorIs(t, a.Verify(), ErrInconsistent)
	})
	t.Run("live_header", func(t *testing.T) {
		a := newTestAllocator(t, 4, 64)
		p, err := a.Malloc(60)
		require.NoError(t, err)
		a.buf[uint32(p)-HeaderSize] = 0
		assert.ErrorIs(t, a.Verify(), ErrInconsistent)
	})
}
