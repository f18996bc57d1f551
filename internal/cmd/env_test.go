// SPDX-FileCopyrightText: 2025 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd_test

import (
	"testing"
	"testing/fstest"

	"github.com/aibor/neutron/internal/cmd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvArgs(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		output []string
	}{
		{
			name:   "empty",
			env:    "",
			output: []string{},
		},
		{
			name:   "multiple args",
			env:    "-mount /=mem -debug",
			output: []string{"-mount", "/=mem", "-debug"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NEUTRON_VFS_ARGS", tt.env)
			assert.Equal(t, tt.output, cmd.EnvArgs())
		})
	}
}

func TestLocalConfigArgs(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		env      map[string]string
		expected []string
	}{
		{
			name:     "empty",
			content:  "",
			expected: []string{},
		},
		{
			name:     "single line",
			content:  "-mount=/=mem\n-config=boot.toml",
			expected: []string{"-mount=/=mem", "-config=boot.toml"},
		},
		{
			name:     "comments",
			content:  "# root\n-mount\n/=mem\n\n",
			expected: []string{"-mount", "/=mem"},
		},
		{
			name:     "with env vars",
			content:  "-mount=/boot=rom:${IMAGE}\n-mount=/srv=host:$DIR/srv\n",
			env:      map[string]string{"IMAGE": "boot.cpio", "DIR": "/data"},
			expected: []string{"-mount=/boot=rom:boot.cpio", "-mount=/srv=host:/data/srv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFS := fstest.MapFS{
				"conf": &fstest.MapFile{Data: []byte(tt.content)},
			}

			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			content, err := cmd.LocalConfigArgs(testFS, "conf")
			require.NoError(t, err)

			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestLocalConfigArgs_Missing(t *testing.T) {
	content, err := cmd.LocalConfigArgs(fstest.MapFS{}, "conf")
	require.NoError(t, err)
	assert.Nil(t, content)
}

func TestMergedArgs(t *testing.T) {
	t.Setenv("NEUTRON_VFS_ARGS", "-debug")

	testFS := fstest.MapFS{
		".neutron-vfs-args": &fstest.MapFile{Data: []byte("-mount=/=mem\n")},
	}

	args, err := cmd.MergedArgs([]string{"check"}, testFS, ".neutron-vfs-args")
	require.NoError(t, err)
	assert.Equal(t, []string{"-mount=/=mem", "-debug", "check"}, args)
}
