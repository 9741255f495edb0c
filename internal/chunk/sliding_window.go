package chunk

// slidingWindowChunk chunks a file into overlapping fixed-size line
// windows. Used for languages without an AST-aware chunker (java,
// c_family, ruby, markdown, config) and as the fallback when AST
// chunking fails or finds nothing.
func slidingWindowChunk(relpath string, content []byte, languageTag string) []*Chunk {
	lines := splitLines(content)
	total := len(lines)
	if total == 1 && lines[0] == "" {
		total = 0
	}
	if total == 0 {
		return nil
	}

	step := WindowLines - OverlapLines

	var chunks []*Chunk
	for start := 1; start <= total; start += step {
		end := start + WindowLines - 1
		if end > total {
			end = total
		}

		chunks = append(chunks, &Chunk{
			ID:          ID(relpath, start, end),
			Path:        relpath,
			StartLine:   start,
			EndLine:     end,
			Text:        joinLines(lines, start, end),
			LanguageTag: languageTag,
		})

		if end == total {
			break
		}
	}

	return chunks
}
