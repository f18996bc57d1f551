// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootcfg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aibor/neutron/backend/hostfs"
	"github.com/aibor/neutron/backend/memfs"
	"github.com/aibor/neutron/backend/romfs"
	"github.com/aibor/neutron/vfs"
	"golang.org/x/sync/errgroup"
)

// Build constructs the backends of all mounts concurrently and returns a
// checked [vfs.Table] with the mounts in configuration order.
//
// If only mounts that may fail failed, the table is returned together with an
// [OptionalMountError] with all errors. For any other error, all backends
// constructed so far are closed and no table is returned.
func Build(ctx context.Context, cfg *Config) (*vfs.Table, error) {
	backends := make([]vfs.Backend, len(cfg.Mounts))
	optionalErrs := make([]error, len(cfg.Mounts))

	group, groupCtx := errgroup.WithContext(ctx)

	for idx, spec := range cfg.Mounts {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return fmt.Errorf("mount %s: %w", spec.Path, err)
			}

			backend, err := NewBackend(spec, cfg)
			if err != nil {
				err = &MountError{Path: spec.Path, Err: err}
				if !spec.MayFail {
					return err
				}

				optionalErrs[idx] = err

				return nil
			}

			slog.Debug("Backend constructed",
				slog.String("path", spec.Path),
				slog.String("kind", spec.Kind.String()))

			backends[idx] = backend

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		closeBackends(backends)
		return nil, err
	}

	mounts := make([]vfs.Mount, 0, len(cfg.Mounts))

	for idx, spec := range cfg.Mounts {
		if backends[idx] == nil {
			continue
		}

		mounts = append(mounts, vfs.Mount{Point: spec.Path, Backend: backends[idx]})
	}

	table := vfs.NewTable(mounts...)
	if err := table.Check(); err != nil {
		closeBackends(backends)
		return nil, fmt.Errorf("check mount table: %w", err)
	}

	var optional OptionalMountError

	for _, err := range optionalErrs {
		if err != nil {
			optional = append(optional, err)
		}
	}

	if optional != nil {
		return table, optional
	}

	return table, nil
}

// NewBackend constructs the backend for the given [MountSpec]. The [Config]
// provides settings shared by all backends.
func NewBackend(spec MountSpec, cfg *Config) (vfs.Backend, error) {
	switch spec.Kind {
	case vfs.KindMem:
		backend, err := newMemBackend(spec, cfg)
		if err != nil {
			return nil, err
		}

		return backend, nil
	case vfs.KindROM:
		if spec.Source == "" {
			return nil, ErrMissingSource
		}

		backend, err := romfs.LoadFile(spec.Source)
		if err != nil {
			return nil, fmt.Errorf("load image: %w", err)
		}

		return backend, nil
	case vfs.KindHost:
		if spec.Source == "" {
			return nil, ErrMissingSource
		}

		return newHostBackend(spec)
	default:
		return nil, fmt.Errorf("%w: %q", vfs.ErrUnknownKind, spec.Kind)
	}
}

func newHostBackend(spec MountSpec) (vfs.Backend, error) {
	if spec.ReadOnly {
		backend, err := hostfs.NewReadOnly(spec.Source)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return backend, nil
	}

	backend, err := hostfs.New(spec.Source)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return backend, nil
}

func newMemBackend(spec MountSpec, cfg *Config) (*memfs.FS, error) {
	var opts []memfs.Option
	if !cfg.Date.IsZero() {
		opts = append(opts, memfs.WithTimestamp(cfg.Date))
	}

	fsys := memfs.New(opts...)

	if spec.Source == "" {
		return fsys, nil
	}

	image, err := romfs.LoadFile(spec.Source)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	for _, name := range image.Names() {
		if err := copyFile(fsys, image, name); err != nil {
			return nil, fmt.Errorf("populate %s: %w", name, err)
		}
	}

	return fsys, nil
}

func copyFile(dst *memfs.FS, src *romfs.FS, name string) error {
	info, err := src.Stat(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	file, err := src.Open(name)
	if err != nil {
		return err //nolint:wrapcheck
	}

	data := make([]byte, info.Size)
	if err := file.ReadExactAt(data, 0); err != nil {
		return err //nolint:wrapcheck
	}

	return dst.Add(name, data) //nolint:wrapcheck
}

func closeBackends(backends []vfs.Backend) {
	var errs []error

	for _, backend := range backends {
		closer, ok := backend.(io.Closer)
		if !ok {
			continue
		}

		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		slog.Warn("Failed to close backends", slog.Any("error", err))
	}
}
