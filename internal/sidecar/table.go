// Package sidecar persists the chunk_id -> (path, line range, text)
// table the query engine needs to resolve hits (both lexical and
// semantic hits carry only a chunk ID).
package sidecar

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Record is one chunk's sidecar entry.
type Record struct {
	ChunkID     uint64
	Path        string
	StartLine   int
	EndLine     int
	Text        string
	LanguageTag string
}

// Table is the in-memory, disk-backed chunk table.
type Table struct {
	mu     sync.RWMutex
	byID   map[uint64]Record
	byPath map[string]map[uint64]struct{}
}

// New creates an empty table.
func New() *Table {
	return &Table{
		byID:   make(map[uint64]Record),
		byPath: make(map[string]map[uint64]struct{}),
	}
}

// Open loads a table previously written by Save, or returns an empty one
// if path does not exist.
func Open(path string) (*Table, error) {
	t := New()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open sidecar table: %w", err)
	}
	defer f.Close()

	if err := t.decodeFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("decode sidecar table: %w", err)
	}
	return t, nil
}

// Put inserts or replaces a chunk's record.
func (t *Table) Put(r Record) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.byID[r.ChunkID] = r
	if t.byPath[r.Path] == nil {
		t.byPath[r.Path] = make(map[uint64]struct{})
	}
	t.byPath[r.Path][r.ChunkID] = struct{}{}
}

// Get returns the record for a chunk ID.
func (t *Table) Get(chunkID uint64) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.byID[chunkID]
	return r, ok
}

// DeleteByPath removes every record indexed under path and returns the
// chunk IDs it deleted, for the caller to remove from the other stores.
func (t *Table) DeleteByPath(path string) []uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := t.byPath[path]
	deleted := make([]uint64, 0, len(ids))
	for id := range ids {
		delete(t.byID, id)
		deleted = append(deleted, id)
	}
	delete(t.byPath, path)
	return deleted
}

// ChunkIDsForPath returns the chunk IDs currently recorded for path.
func (t *Table) ChunkIDsForPath(path string) []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]uint64, 0, len(t.byPath[path]))
	for id := range t.byPath[path] {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of chunks in the table.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// AllIDs returns every chunk ID in the table, for cross-index
// consistency checking. The sidecar table is the reference set: it is
// written for every chunk a run commits, so a chunk_id absent from it
// was never fully committed.
func (t *Table) AllIDs() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]uint64, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	return ids
}

// Save persists the table to path atomically.
func (t *Table) Save(path string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sidecar dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err := t.encodeTo(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode sidecar table: %w", err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

var languageCodes = []string{
	"", "rust", "python", "typescript", "javascript", "go",
	"java", "c_family", "ruby", "markdown", "config",
}

func languageToByte(tag string) byte {
	for i, l := range languageCodes {
		if l == tag {
			return byte(i)
		}
	}
	return 0
}

func byteToLanguage(b byte) string {
	if int(b) < len(languageCodes) {
		return languageCodes[b]
	}
	return ""
}

func (t *Table) encodeTo(w io.Writer) error {
	for _, r := range t.byID {
		if err := binary.Write(w, binary.LittleEndian, r.ChunkID); err != nil {
			return err
		}
		pathBytes := []byte(r.Path)
		if err := binary.Write(w, binary.LittleEndian, uint16(len(pathBytes))); err != nil {
			return err
		}
		if _, err := w.Write(pathBytes); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(r.StartLine)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(r.EndLine)); err != nil {
			return err
		}
		textBytes := []byte(r.Text)
		if err := binary.Write(w, binary.LittleEndian, uint32(len(textBytes))); err != nil {
			return err
		}
		if _, err := w.Write(textBytes); err != nil {
			return err
		}
		if _, err := w.Write([]byte{languageToByte(r.LanguageTag)}); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) decodeFrom(r io.Reader) error {
	for {
		var chunkID uint64
		if err := binary.Read(r, binary.LittleEndian, &chunkID); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var pathLen uint16
		if err := binary.Read(r, binary.LittleEndian, &pathLen); err != nil {
			return err
		}
		pathBytes := make([]byte, pathLen)
		if _, err := io.ReadFull(r, pathBytes); err != nil {
			return err
		}

		var startLine, endLine, textLen uint32
		if err := binary.Read(r, binary.LittleEndian, &startLine); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &endLine); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &textLen); err != nil {
			return err
		}
		textBytes := make([]byte, textLen)
		if _, err := io.ReadFull(r, textBytes); err != nil {
			return err
		}

		var langByte [1]byte
		if _, err := io.ReadFull(r, langByte[:]); err != nil {
			return err
		}

		rec := Record{
			ChunkID:     chunkID,
			Path:        string(pathBytes),
			StartLine:   int(startLine),
			EndLine:     int(endLine),
			Text:        string(textBytes),
			LanguageTag: byteToLanguage(langByte[0]),
		}
		t.byID[rec.ChunkID] = rec
		if t.byPath[rec.Path] == nil {
			t.byPath[rec.Path] = make(map[uint64]struct{})
		}
		t.byPath[rec.Path][rec.ChunkID] = struct{}{}
	}
}
