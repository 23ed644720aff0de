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
	"log/slog"

	"github.com/cloudwego/buddyalloc/internal/logger"
)

// diag sends diagnostics to an explicit logger, or to logger.L as it is
// at the time of the call.
type diag struct {
	l *slog.Logger
}

func (d diag) debug(msg string, args ...any) {
	if d.l != nil {
		d.l.Debug(msg, args...)
		return
	}
	logger.Debug(msg, args...)
}

func (d diag) warn(msg string, args ...any) {
	if d.l != nil {
		d.l.Warn(msg, args...)
		return
	}
	logger.Warn(msg, args...)
}

func (d diag) error(msg string, args ...any) {
	if d.l != nil {
		d.l.Error(msg, args...)
		return
	}
	logger.Error(msg, args...)
}
