// Package chunk splits source files into the line-range excerpts that
// the lexical and semantic indexes retrieve over.
package chunk

import (
	"context"
)

// astAwareLanguages lists the language tags that get the tree-sitter
// path; every other language tag gets sliding-window chunking.
var astAwareLanguages = map[string]bool{
	"rust":       true,
	"python":     true,
	"typescript": true,
	"javascript": true,
	"go":         true,
}

// Chunker turns file contents into an ordered sequence of chunks.
type Chunker struct {
	parser *Parser
}

// New creates a Chunker.
func New() *Chunker {
	return &Chunker{parser: NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (c *Chunker) Close() {
	c.parser.Close()
}

// Chunk splits content from a workspace-relative path into chunks.
// AST-aware languages are parsed and cut at top-level declarations; any
// parse failure, or a file with no top-level declarations, falls back to
// sliding-window chunking, as does every language not in the AST-aware
// set.
func (c *Chunker) Chunk(ctx context.Context, relpath string, content []byte, languageTag string) []*Chunk {
	if astAwareLanguages[languageTag] {
		if chunks, err := astChunk(ctx, c.parser, relpath, content, languageTag); err == nil {
			return chunks
		}
	}
	return slidingWindowChunk(relpath, content, languageTag)
}
