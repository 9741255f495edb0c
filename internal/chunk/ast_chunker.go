package chunk

import (
	"context"
	"fmt"
	"strings"
)

// astChunk cuts source into chunks at top-level declarations using the
// language's tree-sitter grammar. It returns an error (rather than an
// empty slice) on parse failure or on finding no declarations, so the
// caller can fall back to sliding-window chunking.
func astChunk(ctx context.Context, parser *Parser, relpath string, content []byte, languageTag string) ([]*Chunk, error) {
	tree, err := parser.Parse(ctx, content, languageTag)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", relpath, err)
	}
	if tree.Root == nil || tree.Root.HasError {
		return nil, fmt.Errorf("parse %s: syntax error", relpath)
	}

	declTypes := declTypeSet(languageTag)
	if len(declTypes) == 0 {
		return nil, fmt.Errorf("no declaration types registered for %s", languageTag)
	}

	lines := splitLines(content)

	var raw []*Chunk
	for _, node := range tree.Root.Children {
		if !declTypes[node.Type] {
			continue
		}
		startLine := int(node.StartPoint.Row) + 1
		endLine := int(node.EndPoint.Row) + 1
		if endLine < startLine {
			endLine = startLine
		}
		raw = append(raw, &Chunk{
			Path:        relpath,
			StartLine:   startLine,
			EndLine:     endLine,
			Text:        joinLines(lines, startLine, endLine),
			LanguageTag: languageTag,
		})
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("no top-level declarations found in %s", relpath)
	}

	raw = splitOversizedChunks(raw, lines)
	raw = mergeUndersizedChunks(raw)

	for _, c := range raw {
		c.ID = ID(c.Path, c.StartLine, c.EndLine)
	}

	return raw, nil
}

func declTypeSet(languageTag string) map[string]bool {
	cfg, ok := DefaultRegistry().configs[languageTag]
	if !ok {
		return nil
	}
	set := make(map[string]bool, len(cfg.DeclTypes))
	for _, t := range cfg.DeclTypes {
		set[t] = true
	}
	return set
}

// splitOversizedChunks slices any chunk larger than MaxChunkBytes into
// consecutive line-aligned sub-chunks, each no larger than the limit.
func splitOversizedChunks(chunks []*Chunk, lines []string) []*Chunk {
	out := make([]*Chunk, 0, len(chunks))
	for _, c := range chunks {
		if len(c.Text) <= MaxChunkBytes {
			out = append(out, c)
			continue
		}

		size := 0
		segStart := c.StartLine
		for line := c.StartLine; line <= c.EndLine; line++ {
			lineLen := len(lineAt(lines, line)) + 1
			if size > 0 && size+lineLen > MaxChunkBytes {
				out = append(out, &Chunk{
					Path:        c.Path,
					StartLine:   segStart,
					EndLine:     line - 1,
					Text:        joinLines(lines, segStart, line-1),
					LanguageTag: c.LanguageTag,
				})
				segStart = line
				size = 0
			}
			size += lineLen
		}
		if segStart <= c.EndLine {
			out = append(out, &Chunk{
				Path:        c.Path,
				StartLine:   segStart,
				EndLine:     c.EndLine,
				Text:        joinLines(lines, segStart, c.EndLine),
				LanguageTag: c.LanguageTag,
			})
		}
	}
	return out
}

// mergeUndersizedChunks merges consecutive chunks that are each smaller
// than MinChunkBytes into a single chunk.
func mergeUndersizedChunks(chunks []*Chunk) []*Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	out := make([]*Chunk, 0, len(chunks))
	i := 0
	for i < len(chunks) {
		cur := chunks[i]
		if len(cur.Text) >= MinChunkBytes || i == len(chunks)-1 {
			out = append(out, cur)
			i++
			continue
		}

		next := chunks[i+1]
		if len(next.Text) < MinChunkBytes {
			merged := &Chunk{
				Path:        cur.Path,
				StartLine:   cur.StartLine,
				EndLine:     next.EndLine,
				Text:        cur.Text + "\n" + next.Text,
				LanguageTag: cur.LanguageTag,
			}
			out = append(out, merged)
			i += 2
			continue
		}

		out = append(out, cur)
		i++
	}
	return out
}

func splitLines(content []byte) []string {
	return strings.Split(string(content), "\n")
}

func lineAt(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

func joinLines(lines []string, startLine, endLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if startLine > endLine {
		return ""
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
