// Package errors provides the structured error type Seekr's components
// return, carrying the semantic error kind the CLI uses to pick an exit
// code.
package errors

// Kind is a semantic error classification, independent of the Go type
// that carries it.
type Kind string

const (
	// KindWorkspaceMissing: root path does not exist or is not a directory.
	KindWorkspaceMissing Kind = "workspace_missing"
	// KindIndexMissing: one of the three index stores is absent or unreadable.
	KindIndexMissing Kind = "index_missing"
	// KindIndexCorrupt: the cross-index invariant is violated.
	KindIndexCorrupt Kind = "index_corrupt"
	// KindParseError: the chunker's parser failed on a file.
	KindParseError Kind = "parse_error"
	// KindEmbedderError: the embedder failed for a batch.
	KindEmbedderError Kind = "embedder_error"
	// KindIoError: a per-file read failure.
	KindIoError Kind = "io_error"
	// KindCancelled: cooperative cancellation.
	KindCancelled Kind = "cancelled"
)

// ExitCode maps a Kind to the process exit code named in the CLI spec.
// ParseError and IoError are local failures the indexer recovers from by
// skipping the affected file, so they only reach this mapping if they
// somehow escape to a command's top-level error return; Cancelled is
// treated the same way, as an I/O-class failure.
func (k Kind) ExitCode() int {
	switch k {
	case KindWorkspaceMissing:
		return 1
	case KindIndexMissing:
		return 2
	case KindEmbedderError:
		return 4
	default:
		return 3
	}
}
