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
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudwego/buddyalloc/alloc/buddy"
	"github.com/cloudwego/buddyalloc/internal/logger"
)

var (
	// Global flags
	verbose     bool
	quiet       bool
	jsonOut     bool
	logLevel    string
	backingName string
)

var rootCmd = &cobra.Command{
	Use:   "buddyctl",
	Short: "Exercise and inspect a binary buddy allocator",
	Long: `buddyctl drives a binary buddy allocator from the command line. It can
replay the classic allocate/free demonstration, run scripted allocation
sequences against a fresh arena, and benchmark random workloads.

Logging goes to stderr when --log-level is set, when --verbose is set, or
when BUDDY_LOG=text|json is in the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&backingName, "backing", "auto", "Arena backing: auto, heap, mmap")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

func setupLogging() error {
	opts, err := logger.FromEnv()
	if err != nil {
		return err
	}
	if logLevel != "" {
		lvl, err := logger.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		opts.Enabled = true
		opts.Level = lvl
	} else if verbose && !opts.Enabled {
		opts.Enabled = true
		opts.Level = slog.LevelDebug
	}
	return logger.Init(opts)
}

// newOption builds allocator options from the global flags.
func newOption() (*buddy.Option, error) {
	b, err := buddy.ParseBacking(backingName)
	if err != nil {
		return nil, err
	}
	o := buddy.DefaultOption()
	o.Backing = b
	return o, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// printDump writes a free-list dump unless in quiet mode
func printDump(dump []buddy.ClassDump) error {
	if quiet {
		return nil
	}
	return buddy.WriteDump(os.Stdout, dump)
}
