// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ktime provides the calendar timestamp used by the kernel for log
// lines and file system metadata.
//
// A [Timestamp] can only be created by the validated parser [ParseDate] or
// from a [time.Time] with [FromTime]. It is a small value type and is meant
// to be copied.
package ktime
