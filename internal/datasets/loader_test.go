package datasets_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bench-hub/bench-hub/internal/datasets"
)

const aioDataset = `{
  "instruction": "Answer the question concisely.",
  "output_length": 64,
  "metrics": [
    {"name": "exact_match"},
    {"name": "char_f1", "params": {"answer_path": "$.answer"}}
  ],
  "samples": [
    {"input": "q1", "expected": "a1"},
    {"input": "q2", "expected": "a2"},
    {"input": "q3", "expected": "a3"}
  ]
}`

const aioFewShot = `{
  "instruction": "",
  "samples": [
    {"input": "ex1", "expected": "ans1"},
    {"input": "ex2", "expected": "ans2"},
    {"input": "ex3", "expected": "ans3"}
  ]
}`

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func newLoader(t *testing.T) (*datasets.Loader, string) {
	t.Helper()
	dir := t.TempDir()
	loader, err := datasets.NewLoader(dir, slog.Default())
	if err != nil {
		t.Fatalf("failed to create loader: %v", err)
	}
	return loader, dir
}

func TestLoadDataset(t *testing.T) {
	loader, dir := newLoader(t)
	writeFile(t, dir, "aio.json", aioDataset)

	ds, err := loader.LoadDataset("aio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Name != "aio" || ds.Instruction != "Answer the question concisely." {
		t.Errorf("unexpected dataset header: %+v", ds)
	}
	if ds.OutputLength != 64 {
		t.Errorf("expected output length 64, got %d", ds.OutputLength)
	}
	if len(ds.Metrics) != 2 || ds.Metrics[0].Name != "exact_match" {
		t.Errorf("unexpected metrics: %+v", ds.Metrics)
	}
	if len(ds.Samples) != 3 || ds.Samples[0].Input != "q1" {
		t.Errorf("unexpected samples: %+v", ds.Samples)
	}
}

func TestLoadDatasetNotFound(t *testing.T) {
	loader, _ := newLoader(t)

	if _, err := loader.LoadDataset("missing"); err == nil {
		t.Fatal("expected error for missing dataset")
	}
}

func TestLoadDatasetRejectsInvalidFile(t *testing.T) {
	loader, dir := newLoader(t)
	writeFile(t, dir, "broken.json", `{"samples": "not a list"}`)

	if _, err := loader.LoadDataset("broken"); err == nil {
		t.Fatal("expected schema validation error")
	}
}

func TestLoadFewShot(t *testing.T) {
	loader, dir := newLoader(t)
	writeFile(t, dir, "aio_nshot.json", aioFewShot)

	pairs, err := loader.LoadFewShot("aio", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].User != "ex1" || pairs[0].Assistant != "ans1" {
		t.Errorf("unexpected first pair: %+v", pairs[0])
	}
	if pairs[1].User != "ex2" {
		t.Errorf("pairs must keep file order, got %+v", pairs[1])
	}
}

func TestLoadFewShotSharesFamilyFile(t *testing.T) {
	loader, dir := newLoader(t)
	writeFile(t, dir, "aio_nshot.json", aioFewShot)

	// Subset variants resolve to the family's few-shot file.
	pairs, err := loader.LoadFewShot("aio_easy", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
}

func TestLoadFewShotZeroSkipsRead(t *testing.T) {
	loader, _ := newLoader(t)

	// No few-shot file exists; a zero count must not try to read it.
	pairs, err := loader.LoadFewShot("aio", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pairs != nil {
		t.Errorf("expected nil pairs, got %+v", pairs)
	}
}

func TestListDatasetsSkipsAuxiliaryFiles(t *testing.T) {
	loader, dir := newLoader(t)
	writeFile(t, dir, "aio.json", aioDataset)
	writeFile(t, dir, "aio_nshot.json", aioFewShot)
	writeFile(t, dir, "notes.txt", "not a dataset")

	items, err := loader.ListDatasets()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(items))
	}
	if items[0].Name != "aio" || items[0].SampleCount != 3 {
		t.Errorf("unexpected listing: %+v", items[0])
	}
}
