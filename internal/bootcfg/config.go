// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bootcfg

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/aibor/neutron/ktime"
	"github.com/aibor/neutron/vfs"
)

// MountSpec describes a single mount to construct.
type MountSpec struct {
	// Path is the mount point.
	Path string `toml:"path"`

	// Kind is the backend kind.
	Kind vfs.Kind `toml:"kind"`

	// Source is the backend source. It is the image file for [vfs.KindROM]
	// and the directory for [vfs.KindHost]. For [vfs.KindMem] it is an
	// optional image file the file system is populated from.
	Source string `toml:"source"`

	// ReadOnly restricts [vfs.KindHost] mounts to reading.
	ReadOnly bool `toml:"read_only"`

	// MayFail determines if constructing the backend may fail. If set, a
	// failure does not fail [Build]. Instead, the mount is skipped.
	MayFail bool `toml:"may_fail"`
}

func (s MountSpec) String() string {
	if s.Source == "" {
		return s.Path + "=" + s.Kind.String()
	}

	return s.Path + "=" + s.Kind.String() + ":" + s.Source
}

// Config is the boot mount configuration.
type Config struct {
	// Date is a fixed timestamp for file systems that stamp files. If unset,
	// the current time is used.
	Date ktime.Timestamp `toml:"date"`

	// Mounts are the mounts in the order they are added to the table.
	Mounts []MountSpec `toml:"mount"`
}

// Load decodes a TOML configuration from r. Unknown keys are an error.
func Load(r io.Reader) (*Config, error) {
	var cfg Config

	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if err := checkUndecoded(meta); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile decodes the TOML configuration file with the given name.
func LoadFile(name string) (*Config, error) {
	var cfg Config

	meta, err := toml.DecodeFile(name, &cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	if err := checkUndecoded(meta); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &cfg, nil
}

func checkUndecoded(meta toml.MetaData) error {
	undecoded := meta.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, 0, len(undecoded))
	for _, key := range undecoded {
		keys = append(keys, key.String())
	}

	return fmt.Errorf("%w: %s", ErrUnknownKey, strings.Join(keys, ", "))
}

// MountList is a [flag.Value] that collects mounts given as
// "point=kind[:source]". The flag may be used more than once.
type MountList []MountSpec

func (l *MountList) String() string {
	specs := make([]string, 0, len(*l))
	for _, spec := range *l {
		specs = append(specs, spec.String())
	}

	return strings.Join(specs, ",")
}

// Set parses and appends a single mount.
func (l *MountList) Set(s string) error {
	spec, err := ParseMountSpec(s)
	if err != nil {
		return err
	}

	*l = append(*l, spec)

	return nil
}

// ParseMountSpec parses a mount given as "point=kind[:source]".
func ParseMountSpec(s string) (MountSpec, error) {
	point, backend, found := strings.Cut(s, "=")
	if !found || point == "" || backend == "" {
		return MountSpec{}, &FormatError{Input: s, Err: ErrInvalidMount}
	}

	kind, source, _ := strings.Cut(backend, ":")

	spec := MountSpec{
		Path:   point,
		Source: source,
	}

	if err := spec.Kind.UnmarshalText([]byte(kind)); err != nil {
		return MountSpec{}, &FormatError{Input: s, Err: err}
	}

	return spec, nil
}
