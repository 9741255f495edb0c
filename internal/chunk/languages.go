package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageRegistry manages the AST-aware languages and their tree-sitter
// bindings. Languages not registered here fall back to sliding-window
// chunking (see chunker.go).
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry creates a registry with the AST-aware languages
// named in the file-type allowlist: rust, python, typescript, javascript,
// go.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}

	r.registerGo()
	r.registerRust()
	r.registerPython()
	r.registerTypeScript()
	r.registerJavaScript()

	return r
}

// GetByExtension returns the language config for a file extension.
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	cfg, ok := r.configs[name]
	return cfg, ok
}

// GetTreeSitterLanguage returns the tree-sitter language for a language name.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lang, ok := r.tsLanguages[name]
	return lang, ok
}

func (r *LanguageRegistry) registerLanguage(config *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[config.Name] = config
	r.tsLanguages[config.Name] = tsLang
	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

func (r *LanguageRegistry) registerGo() {
	r.registerLanguage(&LanguageConfig{
		Name:       "go",
		Extensions: []string{".go"},
		DeclTypes: []string{
			"function_declaration",
			"method_declaration",
			"type_declaration",
		},
		NameField: "name",
	}, golang.GetLanguage())
}

func (r *LanguageRegistry) registerRust() {
	r.registerLanguage(&LanguageConfig{
		Name:       "rust",
		Extensions: []string{".rs"},
		DeclTypes: []string{
			"function_item",
			"impl_item",
			"struct_item",
			"enum_item",
			"trait_item",
			"mod_item",
		},
		NameField: "name",
	}, rust.GetLanguage())
}

func (r *LanguageRegistry) registerPython() {
	r.registerLanguage(&LanguageConfig{
		Name:       "python",
		Extensions: []string{".py"},
		DeclTypes: []string{
			"function_definition",
			"class_definition",
		},
		NameField: "name",
	}, python.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	r.registerLanguage(&LanguageConfig{
		Name:       "typescript",
		Extensions: []string{".ts", ".tsx"},
		DeclTypes: []string{
			"function_declaration",
			"method_definition",
			"class_declaration",
			"interface_declaration",
			"type_alias_declaration",
		},
		NameField: "name",
	}, typescript.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	r.registerLanguage(&LanguageConfig{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx"},
		DeclTypes: []string{
			"function_declaration",
			"function",
			"arrow_function",
			"method_definition",
			"class_declaration",
		},
		NameField: "name",
	}, javascript.GetLanguage())
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the global language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
