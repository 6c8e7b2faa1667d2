// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package simlog_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/gx-org/nsim/op"
	"github.com/gx-org/nsim/sim"
	"github.com/gx-org/nsim/simlog"
)

func TestFanout(t *testing.T) {
	var first, second strings.Builder
	logger := simlog.New(
		slog.NewTextHandler(&first, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&second, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger.Debug("hello")
	for name, out := range map[string]string{"first": first.String(), "second": second.String()} {
		if !strings.Contains(out, "hello") {
			t.Errorf("the %s handler did not receive the record: %q", name, out)
		}
	}
}

func TestEngineLogsCompileEvent(t *testing.T) {
	var out strings.Builder
	_, err := sim.Compile(
		nil,
		[]*op.Desc{op.NewTimeUpdate(0.001)},
		nil,
		sim.WithLogger(simlog.Text(&out)),
	)
	if err != nil {
		t.Fatalf("cannot compile the model: %v", err)
	}
	if !strings.Contains(out.String(), "model compiled") {
		t.Errorf("no compile event was logged: %q", out.String())
	}
}
