// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bootcfg describes the mounts the VFS is set up with at boot and
// constructs the mount table from them.
//
// A configuration can be read from a TOML file:
//
//	date = "2024-02-29"
//
//	[[mount]]
//	path = "/"
//	kind = "mem"
//
//	[[mount]]
//	path = "/boot"
//	kind = "rom"
//	source = "boot.cpio"
//	may_fail = true
//
// Mounts can also be given as flag values of the form "point=kind[:source]",
// see [MountList].
package bootcfg
