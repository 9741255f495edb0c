// Package walk enumerates candidate files under a workspace root,
// honoring a gitignore-style ignore cascade, hidden-file conventions,
// and a binary-content filter.
package walk

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// binarySniffBytes is how much of a file's head is checked for a NUL
// byte before it is considered binary.
const binarySniffBytes = 8192

// ignoreCacheSize bounds how many nested .gitignore matchers are held
// in memory at once.
const ignoreCacheSize = 1000

// File is a single discovered, indexable file.
type File struct {
	// Path is the workspace-relative path, using forward slashes.
	Path string
	// AbsPath is the absolute filesystem path.
	AbsPath string
	// LanguageTag is the allowlisted language for this file's extension.
	LanguageTag string
	Size        int64
}

// languageTags maps an allowlisted extension to the language_tag the
// chunker dispatches on.
var languageTags = map[string]string{
	".rs":    "rust",
	".py":    "python",
	".ts":    "typescript",
	".tsx":   "typescript",
	".js":    "javascript",
	".jsx":   "javascript",
	".go":    "go",
	".java":  "java",
	".c":     "c_family",
	".h":     "c_family",
	".cpp":   "c_family",
	".hpp":   "c_family",
	".cc":    "c_family",
	".rb":    "ruby",
	".md":    "markdown",
	".toml":  "config",
	".yaml":  "config",
	".yml":   "config",
	".json":  "config",
}

// defaultIgnoreDirs are always skipped, regardless of .gitignore content.
var defaultIgnoreDirs = map[string]bool{
	".git": true,
}

// Walker discovers indexable files under a root directory.
type Walker struct {
	cache   *lru.Cache[string, *gitignore.GitIgnore]
	cacheMu sync.RWMutex
}

// New creates a Walker.
func New() (*Walker, error) {
	cache, err := lru.New[string, *gitignore.GitIgnore](ignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create ignore cache: %w", err)
	}
	return &Walker{cache: cache}, nil
}

// Walk returns the sorted, workspace-relative list of indexable files
// under root. Files are emitted in lexicographic path order so that
// downstream chunk IDs are reproducible across runs.
func (w *Walker) Walk(root string) ([]File, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	var files []File
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, relErr := filepath.Rel(absRoot, path)
		if relErr != nil || relPath == "." {
			return nil
		}
		relSlash := filepath.ToSlash(relPath)

		if d.IsDir() {
			if defaultIgnoreDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && d.Name() != ".") {
				return fs.SkipDir
			}
			if w.isIgnored(absRoot, relSlash, true) {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if w.isIgnored(absRoot, relSlash, false) {
			return nil
		}

		lang, ok := languageTag(d.Name())
		if !ok {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}

		if isBinary(path) {
			return nil
		}

		files = append(files, File{
			Path:        relSlash,
			AbsPath:     path,
			LanguageTag: lang,
			Size:        info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func languageTag(name string) (string, bool) {
	ext := filepath.Ext(name)
	lang, ok := languageTags[ext]
	return lang, ok
}

// isBinary reports whether the file's first binarySniffBytes contain a
// NUL byte.
func isBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, binarySniffBytes)
	n, _ := f.Read(buf)
	return bytes.Contains(buf[:n], []byte{0})
}

// isIgnored checks relPath against the ignore cascade: the root
// .gitignore plus any nested .gitignore between root and the path's
// directory.
func (w *Walker) isIgnored(absRoot, relPath string, isDir bool) bool {
	checkPath := relPath
	if isDir {
		checkPath += "/"
	}

	if m := w.matcherFor(absRoot, absRoot); m != nil && m.MatchesPath(checkPath) {
		return true
	}

	dir := filepath.Dir(relPath)
	if dir == "." {
		return false
	}
	parts := strings.Split(dir, "/")
	current := absRoot
	built := ""
	for _, part := range parts {
		current = filepath.Join(current, part)
		if built == "" {
			built = part
		} else {
			built = built + "/" + part
		}
		m := w.matcherFor(absRoot, current)
		if m == nil {
			continue
		}
		rel := strings.TrimPrefix(checkPath, built+"/")
		if m.MatchesPath(rel) {
			return true
		}
	}
	return false
}

func (w *Walker) matcherFor(absRoot, dir string) *gitignore.GitIgnore {
	w.cacheMu.RLock()
	m, ok := w.cache.Get(dir)
	w.cacheMu.RUnlock()
	if ok {
		return m
	}

	path := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	m, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}

	w.cacheMu.Lock()
	w.cache.Add(dir, m)
	w.cacheMu.Unlock()
	return m
}
