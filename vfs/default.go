// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package vfs

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	initMu       sync.Mutex
	defaultTable atomic.Pointer[Table]
)

// Init installs the given table as the system wide default table.
//
// The table is checked first. Init can only succeed once. Further calls
// return [ErrAlreadyInitialized].
func Init(table *Table) error {
	initMu.Lock()
	defer initMu.Unlock()

	if defaultTable.Load() != nil {
		return ErrAlreadyInitialized
	}

	if table == nil {
		return fmt.Errorf("%w: nil table", ErrNotInitialized)
	}

	if err := table.Check(); err != nil {
		return fmt.Errorf("check mount table: %w", err)
	}

	defaultTable.Store(table)

	return nil
}

// Default returns the table installed by [Init]. It returns
// [ErrNotInitialized] if Init did not succeed yet.
func Default() (*Table, error) {
	table := defaultTable.Load()
	if table == nil {
		return nil, ErrNotInitialized
	}

	return table, nil
}

// Open opens the file at the given path of the default table for reading.
// See [Table.Open].
func Open(name string) (*ReadOnlyFile, error) {
	table, err := Default()
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	return table.Open(name)
}

// OpenWritable opens the file at the given path of the default table for
// reading and writing. See [Table.OpenWritable].
func OpenWritable(name string, create bool) (*ReadWriteFile, error) {
	table, err := Default()
	if err != nil {
		return nil, &PathError{Op: "open", Path: name, Err: err}
	}

	return table.OpenWritable(name, create)
}
