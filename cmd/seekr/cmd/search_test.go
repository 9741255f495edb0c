package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brobert1/seekr/internal/output"
)

func indexWorkspace(t *testing.T, workspace string) {
	t.Helper()
	cmd := newIndexCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{workspace})
	require.NoError(t, cmd.Execute())
}

func TestSearchCmd_LexicalFindsIndexedFunction(t *testing.T) {
	// Given: an indexed workspace
	t.Setenv("HOME", t.TempDir())
	workspace := t.TempDir()
	writeWorkspaceFiles(t, workspace, map[string]string{
		"main.go": "package main\n\nfunc handleRequest() {}\n",
	})
	indexWorkspace(t, workspace)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"handleRequest", "--json"})

	// When: searching for a term the workspace contains
	err := cmd.Execute()

	// Then: it succeeds and the JSON output names the matching file
	require.NoError(t, err)
	var payload output.SearchResults
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	require.NotEmpty(t, payload.Results)
	assert.Equal(t, "main.go", payload.Results[0].Path)
}

func TestSearchCmd_SemanticAndHybridAreMutuallyExclusive(t *testing.T) {
	// Given: a search command
	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"query", "--semantic", "--hybrid"})

	// When: both --semantic and --hybrid are set
	err := cmd.Execute()

	// Then: it rejects the combination
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestSearchCmd_HumanOutputWhenNotJSON(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	workspace := t.TempDir()
	writeWorkspaceFiles(t, workspace, map[string]string{
		"a.py": "def authenticate(user):\n    return True\n",
	})
	indexWorkspace(t, workspace)

	cmd := newSearchCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"authenticate"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "a.py")
}

func TestSearchCmd_RequiresAQueryArgument(t *testing.T) {
	cmd := newSearchCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()

	require.Error(t, err)
}
