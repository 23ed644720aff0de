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

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/buddyalloc/alloc/buddy"
)

func TestParseScript(t *testing.T) {
	ops, err := parseScript(strings.NewReader(`
# comment
alloc a 2
MALLOC b 0x10

free a
dump
verify
stats
`))
	require.NoError(t, err)
	assert.Equal(t, []scriptOp{
		{line: 3, kind: opAlloc, label: "a", size: 2},
		{line: 4, kind: opAlloc, label: "b", size: 16},
		{line: 6, kind: opFree, label: "a"},
		{line: 7, kind: opDump},
		{line: 8, kind: opVerify},
		{line: 9, kind: opStats},
	}, ops)
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"unknown", "grow 10", `line 1: unknown command "grow"`},
		{"alloc_args", "alloc a", "line 1: usage: alloc"},
		{"alloc_size", "\nalloc a ten", "line 2: bad size"},
		{"alloc_overflow", "alloc a 4294967296", "line 1: bad size"},
		{"free_args", "free", "line 1: usage: free"},
		{"dump_args", "dump all", "line 1: dump takes no arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseScript(strings.NewReader(tt.script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReplay(t *testing.T) {
	resetFlags(t)

	a, err := buddy.New(4, 64, &buddy.Option{Backing: buddy.BackingHeap})
	require.NoError(t, err)
	defer a.Close()

	ops, err := parseScript(strings.NewReader(`alloc x 2
alloc y 8
alloc z 16
alloc big 60
free x
free x
free nope
alloc y 1
free y
free z
verify
dump
`))
	require.NoError(t, err)

	var res *replayResult
	out, err := captureOutput(t, func() error {
		var err error
		res, err = replay(a, ops)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Failures)
	assert.Contains(t, out, "alloc x 2 = 4\n")
	assert.Contains(t, out, "alloc y 8 = 20\n")
	assert.Contains(t, out, "alloc z 16 = 36\n")
	assert.Contains(t, out, "line 4: alloc big: malloc 60 bytes: buddy: out of memory\n")
	assert.Contains(t, out, "line 6: free x: ptr 4: buddy: double free\n")
	assert.Contains(t, out, `line 7: free nope: unknown label "nope"`)
	assert.Contains(t, out, `line 8: alloc y: label "y" already holds a live allocation`)
	assert.Contains(t, out, "verify ok\n")
	assert.True(t, strings.HasSuffix(out, "size 32: -\nsize 64: 0\n"), out)
}

func TestReplayZeroSize(t *testing.T) {
	resetFlags(t)

	a, err := buddy.New(4, 64, &buddy.Option{Backing: buddy.BackingHeap})
	require.NoError(t, err)
	defer a.Close()

	ops, err := parseScript(strings.NewReader("alloc a 0\nfree a\nalloc a 4\nfree a\nfree a\n"))
	require.NoError(t, err)

	var res *replayResult
	out, err := captureOutput(t, func() error {
		var err error
		res, err = replay(a, ops)
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failures, out)
	assert.Contains(t, out, "alloc a 0: no block\n")
	assert.Contains(t, out, "free a: no block\n")
	assert.Contains(t, out, "alloc a 4 = 4\n")
	assert.Contains(t, out, "free a (4)\n")
	assert.Contains(t, out, "line 5: free a: ptr 4: buddy: double free\n")
	assert.NotContains(t, out, "already holds a live allocation")
	assert.NotContains(t, out, "invalid pointer")
	assert.NoError(t, a.Verify())
}

func TestReplayStrict(t *testing.T) {
	resetFlags(t)
	replayStrict = true
	defer func() { replayStrict = false }()

	a, err := buddy.New(4, 64, &buddy.Option{Backing: buddy.BackingHeap})
	require.NoError(t, err)
	defer a.Close()

	ops, err := parseScript(strings.NewReader("alloc a 60\nalloc b 1\ndump\n"))
	require.NoError(t, err)
	_, err = captureOutput(t, func() error {
		_, err := replay(a, ops)
		return err
	})
	assert.ErrorIs(t, err, buddy.ErrOutOfMemory)
	assert.Contains(t, err.Error(), "line 2: alloc")
}

func TestReplayCommandJSON(t *testing.T) {
	resetFlags(t)
	jsonOut = true
	replayBlock, replayLength = 8, 128

	path := filepath.Join(t.TempDir(), "ops.txt")
	require.NoError(t, os.WriteFile(path, []byte("alloc a 10\nstats\nfree a\ndump\n"), 0o644))

	out, err := captureOutput(t, func() error { return runReplay([]string{path}) })
	require.NoError(t, err)

	var res replayResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Events, 4)
	assert.Zero(t, res.Failures)
	assert.Equal(t, buddy.Ptr(4), res.Events[0].Ptr)
	require.NotNil(t, res.Events[1].Stats)
	assert.Equal(t, 1, res.Events[1].Stats.LiveBlocks)
	assert.Equal(t, []uint32{0}, res.Events[3].Dump[len(res.Events[3].Dump)-1].Offsets)

	_, err = captureOutput(t, func() error { return runReplay([]string{filepath.Join(t.TempDir(), "missing")}) })
	assert.Error(t, err)
}
