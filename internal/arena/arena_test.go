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

package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		backing Backing
		wantErr bool
	}{
		{"heap", 64, BackingHeap, false},
		{"auto", 4096, BackingAuto, false},
		{"zero", 0, BackingHeap, true},
		{"negative", -1, BackingHeap, true},
		{"unknown_backing", 64, Backing(42), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.size, tt.backing)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, a.Len())
			assert.NotEqual(t, BackingAuto, a.Backing())
			assert.NotNil(t, a.Base())
			assert.NoError(t, a.Release())
		})
	}
}

func TestMmapBacking(t *testing.T) {
	if !mmapSupported {
		_, err := New(4096, BackingMmap)
		assert.ErrorIs(t, err, ErrUnsupported)
		return
	}
	a, err := New(1<<16, BackingMmap)
	require.NoError(t, err)
	assert.Equal(t, BackingMmap, a.Backing())

	// anonymous mappings start zeroed and are writable
	b := a.Bytes()
	assert.Equal(t, byte(0), b[len(b)-1])
	b[0], b[len(b)-1] = 0xAA, 0xBB
	assert.Equal(t, byte(0xAA), a.Bytes()[0])
	assert.Equal(t, byte(0xBB), a.Bytes()[len(b)-1])

	require.NoError(t, a.Release())
}

func TestRelease(t *testing.T) {
	a, err := New(128, BackingHeap)
	require.NoError(t, err)
	require.NoError(t, a.Release())
	assert.Nil(t, a.Bytes())
	assert.Nil(t, a.Base())
	assert.Equal(t, 0, a.Len())
	// second release is a no-op
	assert.NoError(t, a.Release())
}

func TestParseBacking(t *testing.T) {
	for _, b := range []Backing{BackingAuto, BackingHeap, BackingMmap} {
		got, err := ParseBacking(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	got, err := ParseBacking(" MMAP ")
	require.NoError(t, err)
	assert.Equal(t, BackingMmap, got)

	got, err = ParseBacking("")
	require.NoError(t, err)
	assert.Equal(t, BackingAuto, got)

	_, err = ParseBacking("shm")
	assert.Error(t, err)
	assert.Equal(t, "Backing(7)", Backing(7).String())
}
