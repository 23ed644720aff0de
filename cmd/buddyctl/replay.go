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
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudwego/buddyalloc/alloc/buddy"
)

var (
	replayBlock  uint32
	replayLength uint32
	replayStrict bool
)

func init() {
	cmd := newReplayCmd()
	cmd.Flags().Uint32Var(&replayBlock, "block", 4, "Basic block size in bytes (power of two)")
	cmd.Flags().Uint32Var(&replayLength, "length", 64, "Arena length in bytes, rounded up to a power of two")
	cmd.Flags().BoolVar(&replayStrict, "strict", false, "Stop at the first failed operation")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script|->",
		Short: "Run a scripted allocation sequence against a fresh allocator",
		Long: `The replay command reads a script and applies it to a new allocator.
Each line is one of:

  alloc <label> <bytes>   allocate and remember the pointer under label
  free <label>            free the pointer remembered under label
  dump                    print the free lists
  verify                  check the allocator's internal consistency
  stats                   print counters

Failed operations are reported and the script continues, unless --strict
is given. Use "-" to read the script from stdin.

Example:
  buddyctl replay ops.txt --block 16 --length 4096
  echo "alloc a 10\ndump" | buddyctl replay - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
}

type replayEvent struct {
	Line  int               `json:"line"`
	Op    string            `json:"op"`
	Label string            `json:"label,omitempty"`
	Size  uint32            `json:"size,omitempty"`
	Ptr   buddy.Ptr         `json:"ptr,omitempty"`
	Dump  []buddy.ClassDump `json:"dump,omitempty"`
	Stats *buddy.Stats      `json:"stats,omitempty"`
	Error string            `json:"error,omitempty"`
}

type replayResult struct {
	Events   []replayEvent `json:"events"`
	Failures int           `json:"failures"`
}

func runReplay(args []string) error {
	var in io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}
	ops, err := parseScript(in)
	if err != nil {
		return err
	}
	printVerbose("Parsed %d operations\n", len(ops))

	o, err := newOption()
	if err != nil {
		return err
	}
	a, err := buddy.New(replayBlock, replayLength, o)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := replay(a, ops)
	if err != nil {
		return err
	}
	if jsonOut {
		if err := printJSON(res); err != nil {
			return err
		}
	}
	if res.Failures > 0 {
		printVerbose("%d operation(s) failed\n", res.Failures)
	}
	return nil
}

type labelState struct {
	ptr  buddy.Ptr
	live bool
}

// replay applies ops to a. Operation failures are recorded in the result;
// with --strict the first one is returned as an error.
func replay(a *buddy.Allocator, ops []scriptOp) (*replayResult, error) {
	res := &replayResult{}
	// A label keeps its pointer after free so a repeated free reaches the allocator.
	labels := make(map[string]*labelState)
	for _, op := range ops {
		ev := replayEvent{Line: op.line, Op: op.kind.String(), Label: op.label, Size: op.size}
		var err error
		switch op.kind {
		case opAlloc:
			if st, ok := labels[op.label]; ok && st.live {
				err = fmt.Errorf("label %q already holds a live allocation", op.label)
				break
			}
			ev.Ptr, err = a.Malloc(op.size)
			if err != nil {
				break
			}
			if ev.Ptr == buddy.Nil {
				// zero-byte request: nothing reserved, so nothing to free
				labels[op.label] = &labelState{ptr: buddy.Nil}
				if !jsonOut {
					printInfo("alloc %s %d: no block\n", op.label, op.size)
				}
				break
			}
			labels[op.label] = &labelState{ptr: ev.Ptr, live: true}
			if !jsonOut {
				printInfo("alloc %s %d = %d\n", op.label, op.size, ev.Ptr)
			}
		case opFree:
			st, ok := labels[op.label]
			if !ok {
				err = fmt.Errorf("unknown label %q", op.label)
				break
			}
			ev.Ptr = st.ptr
			if st.ptr == buddy.Nil {
				if !jsonOut {
					printInfo("free %s: no block\n", op.label)
				}
				break
			}
			err = a.Free(st.ptr)
			if err == nil {
				st.live = false
				if !jsonOut {
					printInfo("free %s (%d)\n", op.label, st.ptr)
				}
			}
		case opDump:
			ev.Dump = a.DebugDump()
			if !jsonOut {
				if err := printDump(ev.Dump); err != nil {
					return nil, err
				}
			}
		case opVerify:
			err = a.Verify()
			if err == nil && !jsonOut {
				printInfo("verify ok\n")
			}
		case opStats:
			var s buddy.Stats
			s, err = a.Stats()
			if err == nil {
				ev.Stats = &s
				if !jsonOut {
					printStats(s)
				}
			}
		}
		if err != nil {
			res.Failures++
			ev.Error = err.Error()
			if replayStrict {
				return nil, fmt.Errorf("line %d: %s: %w", op.line, op.kind, err)
			}
			if !jsonOut {
				what := op.kind.String()
				if op.label != "" {
					what += " " + op.label
				}
				printInfo("line %d: %s: %v\n", op.line, what, err)
			}
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}

func printStats(s buddy.Stats) {
	printInfo("arena:    %s, basic block %d\n", formatBytes(uint64(s.TotalSize)), s.BasicBlockSize)
	printInfo("live:     %s in %s blocks\n", formatBytes(s.LiveBytes), formatNumber(s.LiveBlocks))
	printInfo("free:     %s in %s blocks, largest %s\n",
		formatBytes(s.FreeBytes), formatNumber(s.FreeBlocks), formatBytes(uint64(s.LargestFree)))
	printInfo("mallocs:  %s (%s failed)\n", formatNumber(s.Mallocs), formatNumber(s.Failed))
	printInfo("frees:    %s (%s rejected)\n", formatNumber(s.Frees), formatNumber(s.BadFrees))
	printInfo("splits:   %s, merges: %s\n", formatNumber(s.Splits), formatNumber(s.Merges))
}
