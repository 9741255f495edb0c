//go:build ignore

// Package main drives a full index-then-search pass over a generated
// corpus (see generate-test-corpus.go) and compares the timings
// against a saved baseline, failing on regressions.
// Usage: go run scripts/bench-compare.go -corpus testdata/bench [-baseline bench.json] [-save-baseline bench.json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/brobert1/seekr/internal/chunk"
	"github.com/brobert1/seekr/internal/embed"
	"github.com/brobert1/seekr/internal/index"
	"github.com/brobert1/seekr/internal/search"
)

const (
	// RegressionThreshold is the maximum allowed slowdown (20%).
	RegressionThreshold = 0.20
	// ImprovementThreshold highlights significant speedups.
	ImprovementThreshold = 0.10
)

var (
	corpusDir     = flag.String("corpus", "testdata/bench", "Directory of a generated test corpus")
	baselinePath  = flag.String("baseline", "", "Path to a baseline JSON report to compare against")
	saveBaseline  = flag.String("save-baseline", "", "Path to write this run's report as a new baseline")
	outputJSON    = flag.Bool("json", false, "Output the report as JSON")
	threshold     = flag.Float64("threshold", RegressionThreshold, "Regression threshold (0.0-1.0)")
	failOnRegress = flag.Bool("fail", true, "Exit with code 1 on regression")
)

var sampleQueries = []string{
	"authentication handler",
	"process input payload",
	"caching service",
	"validate config",
	"scheduler dispatcher",
}

// Measurement is a single timed operation, in the same shape whether
// it came from this run or a saved baseline.
type Measurement struct {
	Name  string  `json:"name"`
	NsOp  float64 `json:"ns_op"`
	Extra string  `json:"extra,omitempty"`
}

// Report is one run's full set of measurements plus the parts of the
// pipeline that don't reduce to a single latency number.
type Report struct {
	CorpusFiles      int           `json:"corpus_files"`
	CorpusChunks     int           `json:"corpus_chunks"`
	Measurements     []Measurement `json:"measurements"`
	RegressionFailed bool          `json:"regression_failed,omitempty"`
}

func main() {
	flag.Parse()

	report, err := runBenchmark(*corpusDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "benchmark run failed: %v\n", err)
		os.Exit(1)
	}

	var baseline *Report
	if *baselinePath != "" {
		baseline, err = loadReport(*baselinePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load baseline %s: %v\n", *baselinePath, err)
			os.Exit(1)
		}
	}

	comparisons, regressed := compare(report.Measurements, baseline, *threshold)
	report.RegressionFailed = regressed

	if *outputJSON {
		_ = json.NewEncoder(os.Stdout).Encode(struct {
			Report      *Report      `json:"report"`
			Comparisons []comparison `json:"comparisons,omitempty"`
		}{report, comparisons})
	} else {
		printText(report, comparisons)
	}

	if *saveBaseline != "" {
		if err := saveReport(*saveBaseline, report); err != nil {
			fmt.Fprintf(os.Stderr, "save baseline %s: %v\n", *saveBaseline, err)
			os.Exit(1)
		}
	}

	if *failOnRegress && report.RegressionFailed {
		os.Exit(1)
	}
}

// runBenchmark chunks the corpus directly (exercising internal/chunk
// on its own), then runs a real Index pass and a batch of Search
// queries across all three retrieval modes through the same engine a
// production query would use.
func runBenchmark(corpus string) (*Report, error) {
	if _, err := os.Stat(corpus); err != nil {
		return nil, fmt.Errorf("corpus %s not found; run generate-test-corpus.go first: %w", corpus, err)
	}

	chunkCount, fileCount, err := countChunks(corpus)
	if err != nil {
		return nil, fmt.Errorf("chunk corpus: %w", err)
	}

	home, err := os.MkdirTemp("", "seekr-bench-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(home)

	layout := index.NewLayout(home)
	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	ix, err := index.New(layout, embedder)
	if err != nil {
		return nil, fmt.Errorf("create indexer: %w", err)
	}
	defer ix.Close()

	ctx := context.Background()

	measurements := make([]Measurement, 0, 2+len(sampleQueries)*3)

	start := time.Now()
	if err := ix.Index(ctx, corpus, false); err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	measurements = append(measurements, Measurement{Name: "index_full_corpus", NsOp: float64(time.Since(start))})

	engine, err := search.Open(layout, embedder)
	if err != nil {
		return nil, fmt.Errorf("open search engine: %w", err)
	}
	defer engine.Close()

	for _, mode := range []search.Mode{search.ModeLexical, search.ModeSemantic, search.ModeHybrid} {
		for _, q := range sampleQueries {
			start := time.Now()
			if _, err := engine.Search(ctx, search.Query{Text: q, Mode: mode, K: 10, Alpha: 0.5}); err != nil {
				return nil, fmt.Errorf("search %q (%s): %w", q, mode, err)
			}
			measurements = append(measurements, Measurement{
				Name: fmt.Sprintf("search_%s", mode),
				NsOp: float64(time.Since(start)),
			})
		}
	}

	return &Report{
		CorpusFiles:  fileCount,
		CorpusChunks: chunkCount,
		Measurements: mergeByName(measurements),
	}, nil
}

// countChunks walks the corpus and chunks every file directly through
// internal/chunk, independent of the indexer, so a chunker regression
// shows up even if the indexer's own timing does not move.
func countChunks(corpus string) (chunks, files int, err error) {
	chunker := chunk.New()
	defer chunker.Close()

	langByExt := map[string]string{
		".go": "go", ".py": "python", ".rs": "rust", ".java": "java",
		".rb": "ruby", ".md": "markdown", ".yaml": "config", ".yml": "config",
	}

	err = filepath.Walk(corpus, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info.IsDir() {
			return walkErr
		}
		lang, ok := langByExt[filepath.Ext(path)]
		if !ok {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		files++
		chunks += len(chunker.Chunk(context.Background(), path, content, lang))
		return nil
	})
	return chunks, files, err
}

// mergeByName averages repeated measurements with the same name (one
// search mode run against several sample queries) into a single entry.
func mergeByName(in []Measurement) []Measurement {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	var order []string
	for _, m := range in {
		if _, seen := sums[m.Name]; !seen {
			order = append(order, m.Name)
		}
		sums[m.Name] += m.NsOp
		counts[m.Name]++
	}
	out := make([]Measurement, 0, len(order))
	for _, name := range order {
		out = append(out, Measurement{Name: name, NsOp: sums[name] / float64(counts[name])})
	}
	return out
}

type comparison struct {
	Name        string  `json:"name"`
	Current     float64 `json:"current_ns"`
	Baseline    float64 `json:"baseline_ns"`
	DeltaPct    float64 `json:"delta_percent"`
	Status      string  `json:"status"`
	IsRegressed bool    `json:"is_regressed"`
}

func compare(current []Measurement, baseline *Report, threshold float64) ([]comparison, bool) {
	if baseline == nil {
		return nil, false
	}
	baseByName := make(map[string]float64, len(baseline.Measurements))
	for _, m := range baseline.Measurements {
		baseByName[m.Name] = m.NsOp
	}

	var out []comparison
	var regressed bool
	for _, m := range current {
		base, ok := baseByName[m.Name]
		if !ok || base == 0 {
			out = append(out, comparison{Name: m.Name, Current: m.NsOp, Status: "NEW"})
			continue
		}
		deltaPct := (m.NsOp - base) / base
		c := comparison{Name: m.Name, Current: m.NsOp, Baseline: base, DeltaPct: deltaPct * 100}
		switch {
		case deltaPct > threshold:
			c.Status = "REGRESSION"
			c.IsRegressed = true
			regressed = true
		case deltaPct < -ImprovementThreshold:
			c.Status = "IMPROVED"
		default:
			c.Status = "OK"
		}
		out = append(out, c)
	}
	return out, regressed
}

func printText(report *Report, comparisons []comparison) {
	fmt.Println("SEEKR BENCHMARK REPORT")
	fmt.Printf("Corpus: %d files, %d chunks\n\n", report.CorpusFiles, report.CorpusChunks)

	fmt.Printf("%-30s %14s\n", "OPERATION", "LATENCY")
	for _, m := range report.Measurements {
		fmt.Printf("%-30s %11.2f ms\n", m.Name, m.NsOp/1e6)
	}

	if len(comparisons) == 0 {
		return
	}
	fmt.Println("\nVS BASELINE")
	fmt.Printf("%-30s %10s %10s %8s\n", "OPERATION", "NOW", "BASE", "DELTA")
	for _, c := range comparisons {
		status := c.Status
		if c.IsRegressed {
			status = "REGRESSION"
		}
		fmt.Printf("%-30s %8.2fms %8.2fms %+6.1f%% %s\n",
			c.Name, c.Current/1e6, c.Baseline/1e6, c.DeltaPct, status)
	}
	if report.RegressionFailed {
		fmt.Println("\nFAILED: performance regression detected")
	} else {
		fmt.Println("\nPASSED: no significant regressions")
	}
}

func loadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func saveReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
