// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the placepicker command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wneessen/placepicker/cmd/placepicker/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGABRT, os.Interrupt)
	defer cancel()

	if err := commands.Execute(ctx, commands.BuildInfo{Version: version, Commit: commit, Date: date}); err != nil {
		cancel()
		os.Exit(1)
	}
}
