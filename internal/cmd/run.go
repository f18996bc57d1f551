// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/aibor/neutron/backend/romfs"
	"github.com/aibor/neutron/internal/bootcfg"
	"github.com/aibor/neutron/vfs"
)

// exitCodeInvalidTable is returned if the mount table violates a rule.
const exitCodeInvalidTable = 1

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func parseArgs(args []string, cfg IO) (*flags, error) {
	args, err := MergedArgs(args, os.DirFS("."), localConfigFile)
	if err != nil {
		return nil, err
	}

	flags := newFlags(cfg.Stderr)

	err = flags.ParseArgs(args)
	if err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	return flags, nil
}

func loadConfig(flags *flags) (*bootcfg.Config, error) {
	cfg := &bootcfg.Config{}

	if flags.configFile != "" {
		var err error

		cfg, err = bootcfg.LoadFile(flags.configFile)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	cfg.Mounts = append(cfg.Mounts, flags.mounts...)

	return cfg, nil
}

func buildTable(ctx context.Context, flags *flags) (*vfs.Table, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	table, err := bootcfg.Build(ctx, cfg)

	var optionalErrs bootcfg.OptionalMountError
	if errors.As(err, &optionalErrs) {
		for _, err := range optionalErrs {
			slog.Warn("Optional mount failed", slog.Any("error", err))
		}

		return table, nil
	}

	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	return table, nil
}

func closeTable(table *vfs.Table) {
	err := table.Close()
	if err != nil {
		slog.Error("Failed to close mount table", slog.Any("error", err))
	}
}

func check(table *vfs.Table, output io.Writer) error {
	if err := table.Check(); err != nil {
		return fmt.Errorf("check: %w", err)
	}

	writer := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)

	for _, mount := range table.Mounts() {
		point, _ := vfs.CleanMountPoint(mount.Point)
		fmt.Fprintf(writer, "%s\t%s\n", point, mount.Backend.Kind())
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

func cat(table *vfs.Table, name string, output io.Writer) error {
	file, err := table.Open(name)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer file.Close()

	slog.Debug("Opened file",
		slog.String("path", name),
		slog.String("mount", file.MountPoint()))

	content, err := file.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	_, err = io.WriteString(output, content)
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

func mkrom(dir, out string) error {
	err := romfs.WriteFile(out, romfs.DirFS(dir))
	if err != nil {
		return fmt.Errorf("mkrom: %w", err)
	}

	slog.Debug("Wrote image", slog.String("source", dir), slog.String("path", out))

	return nil
}

func run(ctx context.Context, flags *flags, cfg IO) error {
	if flags.command == commandMkrom {
		return mkrom(flags.args[0], flags.args[1])
	}

	table, err := buildTable(ctx, flags)
	if err != nil {
		return err
	}
	defer closeTable(table)

	switch flags.command {
	case commandCheck:
		return check(table, cfg.Stdout)
	case commandCat:
		return cat(table, flags.args[0], cfg.Stdout)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, flags.command)
	}
}

func handleParseArgsError(err error) int {
	// [ErrHelp] is returned when help is requested. So exit without error
	// in this case.
	if errors.Is(err, ErrHelp) {
		return 0
	}

	// ParseArgs already prints errors, so we just exit without an error.
	if !errors.Is(err, &ParseArgsError{}) {
		slog.Error(err.Error())
	}

	return -1
}

func handleRunError(err error) int {
	violation := vfs.ViolationOf(err)
	if violation != vfs.NoViolation {
		slog.Error("Invalid mount table",
			slog.String("violation", violation.String()),
			slog.Any("error", err))

		return exitCodeInvalidTable
	}

	slog.Error(err.Error())

	return -1
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	setupLogging(cfg.Stderr, false)

	flags, err := parseArgs(args, cfg)
	if err != nil {
		return handleParseArgsError(err)
	}

	setupLogging(cfg.Stderr, flags.debug)

	err = run(ctx, flags, cfg)
	if err != nil {
		return handleRunError(err)
	}

	return 0
}
