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

	"github.com/spf13/cobra"

	"github.com/cloudwego/buddyalloc/alloc/buddy"
)

var (
	demoBlock  uint32
	demoLength uint32
)

func init() {
	cmd := newDemoCmd()
	cmd.Flags().Uint32Var(&demoBlock, "block", 4, "Basic block size in bytes (power of two)")
	cmd.Flags().Uint32Var(&demoLength, "length", 64, "Arena length in bytes, rounded up to a power of two")
	rootCmd.AddCommand(cmd)
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Allocate 2, 8 and 16 bytes, then free them, printing the free lists",
		Long: `The demo command initializes the default allocator, allocates 2, 8 and
16 bytes, prints the free lists, frees all three blocks and prints the
free lists again. With the defaults the arena ends as one free 64-byte block.

Example:
  buddyctl demo
  buddyctl demo --block 16 --length 1024
  buddyctl demo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo()
		},
	}
}

var demoSizes = []uint32{2, 8, 16}

type demoResult struct {
	Ptrs       []buddy.Ptr       `json:"ptrs"`
	AfterAlloc []buddy.ClassDump `json:"after_alloc"`
	AfterFree  []buddy.ClassDump `json:"after_free"`
}

func runDemo() (err error) {
	o, err := newOption()
	if err != nil {
		return err
	}
	if err := buddy.Init(demoBlock, demoLength, o); err != nil {
		return err
	}
	defer func() {
		if serr := buddy.Shutdown(); err == nil {
			err = serr
		}
	}()
	printVerbose("Arena: %s in %d classes, basic block %d, %s backing\n",
		formatBytes(uint64(buddy.Default().TotalSize())), buddy.Default().NumClasses(),
		demoBlock, buddy.Default().Backing())

	var res demoResult
	for _, n := range demoSizes {
		p, err := buddy.Malloc(n)
		if err != nil {
			return fmt.Errorf("malloc %d: %w", n, err)
		}
		printVerbose("malloc(%d) = %d\n", n, p)
		res.Ptrs = append(res.Ptrs, p)
	}
	if res.AfterAlloc, err = buddy.DebugDump(); err != nil {
		return err
	}

	for _, p := range res.Ptrs {
		if err := buddy.Free(p); err != nil {
			return fmt.Errorf("free %d: %w", p, err)
		}
		printVerbose("free(%d)\n", p)
	}
	if res.AfterFree, err = buddy.DebugDump(); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(res)
	}
	printInfo("After allocating %v bytes:\n", demoSizes)
	if err := printDump(res.AfterAlloc); err != nil {
		return err
	}
	printInfo("After freeing:\n")
	return printDump(res.AfterFree)
}
