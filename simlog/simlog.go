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

// Package simlog builds loggers for simulation engines.
//
// The engine never logs on its hot path; a logger built here can be
// injected with sim.WithLogger to observe build and lifecycle events, fanned
// out to any number of handlers.
package simlog

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// Level controls the verbosity of loggers built by Text.
var Level = new(slog.LevelVar)

// New returns a logger fanning records out to every handler.
func New(handlers ...slog.Handler) *slog.Logger {
	return slog.New(slogmulti.Fanout(handlers...))
}

// Text returns a logger writing debug-level text records to w, fanned out
// to any additional handlers.
func Text(w io.Writer, handlers ...slog.Handler) *slog.Logger {
	Level.Set(slog.LevelDebug)
	all := append([]slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level}),
	}, handlers...)
	return New(all...)
}
