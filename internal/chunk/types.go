package chunk

// Size thresholds for the AST-aware chunking path.
const (
	MaxChunkBytes = 4096
	MinChunkBytes = 256
)

// Sliding-window parameters for languages without a registered parser.
const (
	WindowLines  = 40
	OverlapLines = 10
)

// Chunk is a retrievable line-range excerpt of a source file.
type Chunk struct {
	ID          uint64
	Path        string // workspace-relative
	StartLine   int    // 1-based, inclusive
	EndLine     int    // 1-based, inclusive
	Text        string
	LanguageTag string
}

// Tree represents a parsed AST.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node represents a node in the AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point represents a position in the source code.
type Point struct {
	Row    uint32 // 0-indexed line number
	Column uint32
}

// LanguageConfig holds configuration for a supported language.
type LanguageConfig struct {
	Name       string
	Extensions []string

	// Node types that are cut as top-level declaration chunks.
	DeclTypes []string

	// Node type for the name identifier field, used only for diagnostics.
	NameField string
}

// GetContent returns the source content spanned by a node.
func (n *Node) GetContent(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// Walk traverses the tree depth-first, calling fn for each node. Returning
// false from fn skips that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}
