// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command neutron-vfs builds and checks VFS mount tables, reads files through
// them and packs ROM images.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aibor/neutron/internal/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)

	exitCode := cmd.Run(ctx, os.Args[1:], cmd.IO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})

	cancel()
	os.Exit(exitCode)
}
