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
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cloudwego/buddyalloc/alloc/buddy"
	"github.com/cloudwego/buddyalloc/internal/logger"
)

type benchConfig struct {
	Arenas  int    `json:"arenas"`
	Ops     int    `json:"ops"`
	MaxSize uint32 `json:"max_size"`
	Seed    int64  `json:"seed"`
	Block   uint32 `json:"block"`
	Length  uint32 `json:"length"`
	Verify  bool   `json:"verify"`
}

var benchCfg benchConfig

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchCfg.Arenas, "arenas", 4, "Number of independent allocators run in parallel")
	cmd.Flags().IntVar(&benchCfg.Ops, "ops", 100000, "Operations per allocator")
	cmd.Flags().Uint32Var(&benchCfg.MaxSize, "max-size", 4096, "Largest request in bytes")
	cmd.Flags().Int64Var(&benchCfg.Seed, "seed", 1, "Random seed; allocator i uses seed+i")
	cmd.Flags().Uint32Var(&benchCfg.Block, "block", 16, "Basic block size in bytes (power of two)")
	cmd.Flags().Uint32Var(&benchCfg.Length, "length", 1<<24, "Arena length in bytes")
	cmd.Flags().BoolVar(&benchCfg.Verify, "verify", false, "Check allocator consistency before releasing")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a random allocate/free workload",
		Long: `The bench command runs a random mix of allocations and frees on several
independent allocators, one goroutine each, and reports throughput and
split/merge counters.

Example:
  buddyctl bench
  buddyctl bench --arenas 8 --ops 1000000 --max-size 65536
  buddyctl bench --backing heap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), benchCfg)
		},
	}
}

type benchResult struct {
	Config    benchConfig   `json:"config"`
	Elapsed   time.Duration `json:"elapsed_ns"`
	Arenas    []buddy.Stats `json:"arenas"`
	Mallocs   uint64        `json:"mallocs"`
	Frees     uint64        `json:"frees"`
	Failed    uint64        `json:"failed"`
	Splits    uint64        `json:"splits"`
	Merges    uint64        `json:"merges"`
	OpsPerSec float64       `json:"ops_per_sec"`
}

func runBench(ctx context.Context, cfg benchConfig) error {
	res, err := bench(ctx, cfg)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(res)
	}
	printInfo("%s allocators x %s ops, requests 1..%s bytes, %s arenas\n",
		formatNumber(cfg.Arenas), formatNumber(cfg.Ops), formatNumber(cfg.MaxSize),
		formatBytes(uint64(res.Arenas[0].TotalSize)))
	for i, s := range res.Arenas {
		printVerbose("  #%d: mallocs %s, failed %s, splits %s, merges %s\n", i,
			formatNumber(s.Mallocs), formatNumber(s.Failed), formatNumber(s.Splits), formatNumber(s.Merges))
	}
	printInfo("mallocs: %s (%s out of memory)\n", formatNumber(res.Mallocs), formatNumber(res.Failed))
	printInfo("frees:   %s\n", formatNumber(res.Frees))
	printInfo("splits:  %s, merges: %s\n", formatNumber(res.Splits), formatNumber(res.Merges))
	printInfo("elapsed: %v, %s ops/s\n", res.Elapsed.Round(time.Millisecond), formatNumber(int64(res.OpsPerSec)))
	return nil
}

func bench(ctx context.Context, cfg benchConfig) (*benchResult, error) {
	if cfg.Arenas < 1 || cfg.Ops < 0 || cfg.MaxSize < 1 {
		return nil, fmt.Errorf("bench: need at least one arena, non-negative ops and a positive max size")
	}
	o, err := newOption()
	if err != nil {
		return nil, err
	}

	res := &benchResult{Config: cfg, Arenas: make([]buddy.Stats, cfg.Arenas)}
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Arenas; i++ {
		g.Go(func() error {
			s, err := benchArena(ctx, cfg, o, cfg.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("arena %d: %w", i, err)
			}
			res.Arenas[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)

	for _, s := range res.Arenas {
		res.Mallocs += s.Mallocs
		res.Frees += s.Frees
		res.Failed += s.Failed
		res.Splits += s.Splits
		res.Merges += s.Merges
	}
	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.OpsPerSec = float64(res.Mallocs+res.Frees+res.Failed) / secs
	}
	logger.Info("bench finished", "arenas", cfg.Arenas, "ops", cfg.Ops,
		"mallocs", res.Mallocs, "failed", res.Failed, "elapsed", res.Elapsed)
	return res, nil
}

// benchArena runs one workload on its own allocator. Every block still live
// at the end is freed, so the returned stats describe an empty arena.
func benchArena(ctx context.Context, cfg benchConfig, o *buddy.Option, seed int64) (buddy.Stats, error) {
	a, err := buddy.New(cfg.Block, cfg.Length, o)
	if err != nil {
		return buddy.Stats{}, err
	}
	defer a.Close()

	rng := rand.New(rand.NewSource(seed))
	live := make([]buddy.Ptr, 0, 1024)
	for i := 0; i < cfg.Ops; i++ {
		if i&1023 == 0 {
			if err := ctx.Err(); err != nil {
				return buddy.Stats{}, err
			}
		}
		if len(live) > 0 && rng.Intn(2) == 0 {
			j := rng.Intn(len(live))
			p := live[j]
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			if err := a.Free(p); err != nil {
				return buddy.Stats{}, err
			}
			continue
		}
		p, err := a.Malloc(uint32(rng.Int63n(int64(cfg.MaxSize))) + 1)
		if errors.Is(err, buddy.ErrOutOfMemory) {
			continue
		}
		if err != nil {
			return buddy.Stats{}, err
		}
		live = append(live, p)
	}
	if cfg.Verify {
		if err := a.Verify(); err != nil {
			return buddy.Stats{}, err
		}
	}
	for _, p := range live {
		if err := a.Free(p); err != nil {
			return buddy.Stats{}, err
		}
	}
	return a.Stats()
}
