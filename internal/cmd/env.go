// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	envArgsVar      = "NEUTRON_VFS_ARGS"
	localConfigFile = ".neutron-vfs-args"
)

// EnvArgs returns arguments from the environment variable NEUTRON_VFS_ARGS.
func EnvArgs() []string {
	return strings.Fields(os.Getenv(envArgsVar))
}

// LocalConfigArgs returns arguments from a local config file.
//
// The file's format is one argument per line. Empty lines and lines starting
// with "#" are ignored. Environment variables are expanded with
// [os.ExpandEnv]. A missing file is not an error.
func LocalConfigArgs(fsys fs.FS, file string) ([]string, error) {
	conf, err := fs.ReadFile(fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read file: %w", err)
	}

	args := []string{}

	for line := range strings.SplitSeq(os.ExpandEnv(string(conf)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			args = append(args, line)
		}
	}

	return args, nil
}

// MergedArgs returns the arguments from the local config file, the
// environment and the given command line arguments, in this order. Later
// flags override earlier ones, list flags accumulate.
func MergedArgs(args []string, fsys fs.FS, file string) ([]string, error) {
	localArgs, err := LocalConfigArgs(fsys, file)
	if err != nil {
		return nil, err
	}

	merged := make([]string, 0, len(localArgs)+len(args))
	merged = append(merged, localArgs...)
	merged = append(merged, EnvArgs()...)
	merged = append(merged, args...)

	return merged, nil
}
