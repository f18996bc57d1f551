// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"flag"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/aibor/neutron/internal/bootcfg"
)

const (
	name = "neutron-vfs"

	commandCheck = "check"
	commandCat   = "cat"
	commandMkrom = "mkrom"

	usageMessage = `Usage of 'neutron-vfs':
    neutron-vfs [flags...] command [args...]

Commands:
    check          build the mount table, check it and print the mounts
    cat PATH       print the text file at PATH
    mkrom DIR OUT  pack the host directory DIR into the ROM image file OUT,
                   compressed if OUT ends with .gz, .zst or .lz4

Mounts are read from the TOML file given with -config and from -mount flags:
    neutron-vfs -mount /=mem -mount /boot=rom:boot.cpio check

All flags can also be provided via environment variable NEUTRON_VFS_ARGS:
    NEUTRON_VFS_ARGS="-config=boot.toml -debug" neutron-vfs check

All flags can also be provided via file ./.neutron-vfs-args, with one
argument per line.
`
)

// commandArgs is the number of positional arguments per command.
var commandArgs = map[string]int{
	commandCheck: 0,
	commandCat:   1,
	commandMkrom: 2,
}

type flags struct {
	configFile string
	mounts     bootcfg.MountList
	command    string
	args       []string

	version bool
	debug   bool

	flagSet *flag.FlagSet
}

func newFlags(output io.Writer) *flags {
	flags := &flags{}
	flags.initFlagset(output)

	return flags
}

func (f *flags) initFlagset(output io.Writer) {
	flagSet := flag.NewFlagSet(name, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = f.usage

	flagSet.StringVar(
		&f.configFile,
		"config",
		f.configFile,
		"TOML file with the boot mount configuration",
	)

	flagSet.Var(
		&f.mounts,
		"mount",
		"mount as point=kind[:source], kinds: mem, rom, host. Flag may be "+
			"used more than once. Mounts are added after the ones of -config.",
	)

	flagSet.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	flagSet.BoolVar(
		&f.version,
		"version",
		f.version,
		"show version and exit",
	)

	f.flagSet = flagSet
}

// ParseArgs parses the flags and the command with its arguments.
func (f *flags) ParseArgs(args []string) error {
	// Parses arguments up to the first one that is not prefixed with a "-" or
	// is "--".
	err := f.flagSet.Parse(args)
	if err != nil {
		return &ParseArgsError{msg: "flag parse", err: err}
	}

	// With version flag, just print the version and exit. Using [ErrHelp]
	// the main binary is supposed to return with a non error exit code.
	if f.version {
		err := f.printVersionInformation()
		return &ParseArgsError{msg: "version requested", err: err}
	}

	positionalArgs := f.flagSet.Args()
	if len(positionalArgs) < 1 {
		return f.fail("no command given", nil)
	}

	f.command = positionalArgs[0]
	f.args = positionalArgs[1:]

	numArgs, exists := commandArgs[f.command]
	if !exists {
		return f.fail(f.command, ErrUnknownCommand)
	}

	if len(f.args) != numArgs {
		return f.fail(
			fmt.Sprintf("%s takes %d arguments, got %d", f.command, numArgs, len(f.args)),
			ErrMissingArgument,
		)
	}

	if f.command != commandMkrom && f.configFile == "" && len(f.mounts) == 0 {
		return f.fail(f.command, ErrNoMounts)
	}

	return nil
}

// fail fails like flag does. It prints the error first and then usage.
func (f *flags) fail(msg string, err error) error {
	err = &ParseArgsError{msg: msg, err: err}
	fmt.Fprintln(f.flagSet.Output(), err.Error())

	f.flagSet.Usage()

	return err
}

func (f *flags) printVersionInformation() error {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ErrReadBuildInfo
	}

	fmt.Fprintf(f.flagSet.Output(), "Version: %s\n", buildInfo.Main.Version)

	return ErrHelp
}

func (f *flags) usage() {
	fmt.Fprint(f.flagSet.Output(), usageMessage)
	fmt.Fprintln(f.flagSet.Output(), "\nFlags:")
	f.flagSet.PrintDefaults()
}
