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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type opKind int

const (
	opAlloc opKind = iota
	opFree
	opDump
	opVerify
	opStats
)

func (k opKind) String() string {
	switch k {
	case opAlloc:
		return "alloc"
	case opFree:
		return "free"
	case opDump:
		return "dump"
	case opVerify:
		return "verify"
	case opStats:
		return "stats"
	}
	return fmt.Sprintf("opKind(%d)", int(k))
}

// scriptOp is one line of a replay script.
type scriptOp struct {
	line  int
	kind  opKind
	label string
	size  uint32
}

// parseScript reads one command per line:
//
//	alloc <label> <bytes>
//	free <label>
//	dump
//	verify
//	stats
//
// Blank lines and lines starting with '#' are skipped.
func parseScript(r io.Reader) ([]scriptOp, error) {
	var ops []scriptOp
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		op := scriptOp{line: line}
		switch strings.ToLower(fields[0]) {
		case "alloc", "malloc":
			if len(fields) != 3 {
				return nil, fmt.Errorf("line %d: usage: alloc <label> <bytes>", line)
			}
			n, err := strconv.ParseUint(fields[2], 0, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad size %q: %w", line, fields[2], err)
			}
			op.kind, op.label, op.size = opAlloc, fields[1], uint32(n)
		case "free":
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: usage: free <label>", line)
			}
			op.kind, op.label = opFree, fields[1]
		case "dump":
			op.kind = opDump
		case "verify":
			op.kind = opVerify
		case "stats":
			op.kind = opStats
		default:
			return nil, fmt.Errorf("line %d: unknown command %q", line, fields[0])
		}
		if op.kind > opFree && len(fields) != 1 {
			return nil, fmt.Errorf("line %d: %s takes no arguments", line, op.kind)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ops, nil
}
