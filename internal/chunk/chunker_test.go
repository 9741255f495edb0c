package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkGoTopLevelDeclarations(t *testing.T) {
	src := []byte("package main\n\nfunc authenticate(user string) bool {\n\treturn true\n}\n")

	c := New()
	defer c.Close()

	chunks := c.Chunk(context.Background(), "a.go", src, "go")
	require.Len(t, chunks, 1)
	assert.Equal(t, 3, chunks[0].StartLine)
	assert.Equal(t, 5, chunks[0].EndLine)
	assert.Contains(t, chunks[0].Text, "authenticate")
}

func TestChunkIDIsStableFunctionOfPathAndLines(t *testing.T) {
	id1 := ID("a.py", 1, 5)
	id2 := ID("a.py", 1, 5)
	id3 := ID("a.py", 1, 6)
	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
}

func TestSlidingWindowOverlap(t *testing.T) {
	var lines []string
	for i := 1; i <= 100; i++ {
		lines = append(lines, "line")
	}
	src := []byte(strings.Join(lines, "\n"))

	chunks := slidingWindowChunk("f.java", src, "c_family")
	require.Len(t, chunks, 3)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 40, chunks[0].EndLine)
	assert.Equal(t, 31, chunks[1].StartLine)
	assert.Equal(t, 70, chunks[1].EndLine)
	assert.Equal(t, 61, chunks[2].StartLine)
	assert.Equal(t, 100, chunks[2].EndLine)

	covered := make(map[int]bool)
	for _, c := range chunks {
		for l := c.StartLine; l <= c.EndLine; l++ {
			covered[l] = true
		}
	}
	for l := 1; l <= 100; l++ {
		assert.True(t, covered[l], "line %d not covered by any chunk", l)
	}
}

func TestSlidingWindowEmptyFileProducesNoChunks(t *testing.T) {
	chunks := slidingWindowChunk("empty.md", []byte(""), "markdown")
	assert.Empty(t, chunks)
}

func TestChunkUnsupportedLanguageFallsBackToSlidingWindow(t *testing.T) {
	c := New()
	defer c.Close()

	src := []byte("# Title\n\nSome markdown body text.\n")
	chunks := c.Chunk(context.Background(), "README.md", src, "markdown")
	require.NotEmpty(t, chunks)
	assert.Equal(t, "markdown", chunks[0].LanguageTag)
}

func TestAstChunkFallsBackOnParseFailure(t *testing.T) {
	c := New()
	defer c.Close()

	// Malformed Go; tree-sitter will still return a tree with errors, so
	// this should degrade to sliding-window chunking rather than panic.
	src := []byte("func ( {{{ not valid go\n")
	chunks := c.Chunk(context.Background(), "bad.go", src, "go")
	require.NotEmpty(t, chunks)
}
