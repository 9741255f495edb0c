package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCmd_BuildsIndexLikeIndexCmd(t *testing.T) {
	// Given: an isolated $HOME and a small workspace
	t.Setenv("HOME", t.TempDir())
	workspace := t.TempDir()
	writeWorkspaceFiles(t, workspace, map[string]string{
		"main.go": "package main\n\nfunc main() {}\n",
	})

	cmd := newInitCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{workspace})

	// When: running init
	err := cmd.Execute()

	// Then: it succeeds, same as 'seekr index'
	require.NoError(t, err)
	assert.Contains(t, buf.String(), workspace)
}

func TestInitCmd_RejectsMoreThanOnePathArgument(t *testing.T) {
	// Given: an init command
	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"a", "b"})

	// When: passing two positional arguments
	err := cmd.Execute()

	// Then: cobra's arg validation rejects it before RunE runs
	require.Error(t, err)
}

func TestInitCmd_DefaultsToCurrentDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workspace := t.TempDir()
	writeWorkspaceFiles(t, workspace, map[string]string{"a.go": "package main\n"})

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(oldWd) }()
	require.NoError(t, os.Chdir(workspace))

	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
}
