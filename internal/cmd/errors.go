// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"flag"
	"fmt"
)

var (
	// ErrHelp is returned if help or the version was requested.
	ErrHelp = flag.ErrHelp

	// ErrReadBuildInfo is returned if the build info can not be read.
	ErrReadBuildInfo = errors.New("failed to read build info")

	// ErrUnknownCommand is returned for commands that do not exist.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned if a command lacks arguments.
	ErrMissingArgument = errors.New("missing argument")

	// ErrNoMounts is returned if neither a config file nor mount flags are
	// given.
	ErrNoMounts = errors.New("no mounts given (use -config or -mount)")
)

// ParseArgsError wraps errors that occur during argument parsing.
type ParseArgsError struct {
	msg string
	err error
}

func (e *ParseArgsError) Error() string {
	if e.err == nil {
		return e.msg
	}

	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *ParseArgsError) Is(other error) bool {
	_, ok := other.(*ParseArgsError)
	return ok
}

func (e *ParseArgsError) Unwrap() error {
	return e.err
}
