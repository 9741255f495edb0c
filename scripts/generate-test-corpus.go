//go:build ignore

// Package main generates a synthetic multi-language source tree for
// exercising the indexer and search engine at scale.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// goTemplate mirrors the shape of a small service type, so BM25 and
// the embedder both see realistic identifier and comment text rather
// than boilerplate.
var goTemplate = `package %s

import (
	"context"
	"fmt"
)

// %s handles %s requests for the workspace.
type %s struct {
	name string
}

// New%s constructs a %s.
func New%s(name string) *%s {
	return &%s{name: name}
}

// %s runs the %s operation against ctx.
func (s *%s) %s(ctx context.Context, input string) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return fmt.Sprintf("%%s handled by %%s", input, s.name), nil
}
`

var pyTemplate = `"""%s module for %s."""
from dataclasses import dataclass


@dataclass
class %sConfig:
    name: str
    enabled: bool = True


class %s:
    """%s coordinates %s work."""

    def __init__(self, config: %sConfig):
        self.config = config

    def %s(self, payload):
        """Run the %s step over payload."""
        return {"payload": payload, "handler": self.config.name}
`

var rsTemplate = `pub struct %s {
    name: String,
}

impl %s {
    pub fn new(name: &str) -> Self {
        %s { name: name.to_string() }
    }

    // %s performs the %s operation.
    pub fn %s(&self, input: &str) -> String {
        format!("{} handled by {}", input, self.name)
    }
}
`

var javaTemplate = `package com.seekr.%s;

/** %s handles %s work. */
public class %s {
    private final String name;

    public %s(String name) {
        this.name = name;
    }

    // %s runs the %s step.
    public String %s(String input) {
        return input + " handled by " + name;
    }
}
`

var rubyTemplate = `# %s handles %s work.
class %s
  def initialize(name)
    @name = name
  end

  # %s runs the %s step.
  def %s(input)
    "#{input} handled by #{@name}"
  end
end
`

var mdTemplate = `# %s

%s provides %s functionality for the workspace.

## Usage

Call ` + "`%s`" + ` to run the ` + "`%s`" + ` operation.
`

var cfgTemplate = `name: %s
domain: %s
enabled: true
handler: %s
`

var (
	nouns = []string{
		"Handler", "Manager", "Service", "Controller", "Processor",
		"Engine", "Client", "Server", "Worker", "Factory",
		"Router", "Dispatcher", "Scheduler", "Monitor", "Indexer",
	}
	domains = []string{
		"authentication", "authorization", "caching", "logging", "monitoring",
		"messaging", "scheduling", "routing", "parsing", "validation",
		"serialization", "compression", "encryption", "hashing", "indexing",
		"searching", "filtering", "sorting", "pagination", "batching",
	}
	verbs = []string{
		"Process", "Handle", "Execute", "Run", "Start",
		"Validate", "Convert", "Transform", "Fetch", "Store",
	}
)

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"go", "python", "rust", "java", "ruby", "docs", "config"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	shares := map[string]int{
		"go": 30, "python": 20, "rust": 15, "java": 15, "ruby": 10, "docs": 5, "config": 5,
	}

	generated := 0
	remaining := *numFiles
	langs := []string{"go", "python", "rust", "java", "ruby", "docs", "config"}
	for i, lang := range langs {
		count := *numFiles * shares[lang] / 100
		if i == len(langs)-1 {
			count = remaining
		}
		remaining -= count
		for j := 0; j < count; j++ {
			if err := generateFile(lang, j); err != nil {
				fmt.Fprintf(os.Stderr, "Error generating %s file %d: %v\n", lang, j, err)
				continue
			}
			generated++
		}
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func generateFile(lang string, index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)
	verb := randomWord(verbs)

	var content, ext string
	switch lang {
	case "go":
		pkgName := fmt.Sprintf("pkg%d", index)
		content = fmt.Sprintf(goTemplate,
			pkgName, noun, domain, noun, noun, noun, noun, noun, noun,
			verb, domain, noun, verb)
		ext = ".go"
	case "python":
		content = fmt.Sprintf(pyTemplate, noun, domain, noun, noun, noun, domain, noun, verb, verb)
		ext = ".py"
	case "rust":
		content = fmt.Sprintf(rsTemplate, noun, noun, noun, verb, domain, verb)
		ext = ".rs"
	case "java":
		content = fmt.Sprintf(javaTemplate, domain, noun, domain, noun, noun, verb, domain, verb)
		ext = ".java"
	case "ruby":
		content = fmt.Sprintf(rubyTemplate, noun, domain, noun, verb, domain, verb)
		ext = ".rb"
	case "docs":
		content = fmt.Sprintf(mdTemplate, noun, noun, domain, verb, verb)
		ext = ".md"
	case "config":
		content = fmt.Sprintf(cfgTemplate, noun, domain, verb)
		ext = ".yaml"
	default:
		return fmt.Errorf("unknown language %s", lang)
	}

	dir := lang
	if lang == "docs" {
		dir = "docs"
	}
	filename := filepath.Join(*outputDir, dir, fmt.Sprintf("%s_%d%s", domain, index, ext))
	return os.WriteFile(filename, []byte(content), 0644)
}
