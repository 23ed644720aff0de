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

// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger. It discards everything until Init enables it.
var L = discard()

const (
	// EnvFormat selects the handler: "text" or "json". Unset or empty disables logging.
	EnvFormat = "BUDDY_LOG"
	// EnvLevel sets the minimum level: debug, info, warn or error.
	EnvLevel = "BUDDY_LOG_LEVEL"
)

// Options configures the logger.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	Format  string     // "text" (default) or "json"
	Level   slog.Level // Minimum level
	Output  io.Writer  // Default: os.Stderr
}

// New builds a logger from opts without touching L.
func New(opts Options) (*slog.Logger, error) {
	if !opts.Enabled {
		return discard(), nil
	}
	w := opts.Output
	if w == nil {
		w = os.Stderr
	}
	ho := &slog.HandlerOptions{Level: opts.Level}
	switch strings.ToLower(opts.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	}
	return nil, fmt.Errorf("logger: unknown format %q", opts.Format)
}

// Init replaces L. On error L is left unchanged.
func Init(opts Options) error {
	l, err := New(opts)
	if err != nil {
		return err
	}
	L = l
	return nil
}

// FromEnv returns the Options described by BUDDY_LOG and BUDDY_LOG_LEVEL.
func FromEnv() (Options, error) {
	opts := Options{Level: slog.LevelInfo}
	format := os.Getenv(EnvFormat)
	if format == "" {
		return opts, nil
	}
	opts.Enabled = true
	opts.Format = format
	if s := os.Getenv(EnvLevel); s != "" {
		lvl, err := ParseLevel(s)
		if err != nil {
			return opts, err
		}
		opts.Level = lvl
	}
	return opts, nil
}

// ParseLevel accepts the names slog prints, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
