// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"io"
	"log/slog"
)

// setupLogging replaces the default logger. Records carry the program name
// instead of a time, as the output ends up in boot logs that have their own.
// Debug mode lowers the level and adds the source location.
func setupLogging(writer io.Writer, debug bool) {
	options := &slog.HandlerOptions{
		Level:       slog.LevelWarn,
		ReplaceAttr: dropTime,
	}

	if debug {
		options.Level = slog.LevelDebug
		options.AddSource = true
	}

	logger := slog.New(slog.NewTextHandler(writer, options))
	slog.SetDefault(logger.With(slog.String("prog", name)))
}

func dropTime(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 && attr.Key == slog.TimeKey {
		return slog.Attr{}
	}

	return attr
}
