// Package datasets loads stored dataset files into in-memory sample
// lists. Files live under one root directory as <name>.json, with the
// few-shot exemplars of a dataset family in <family>_nshot.json.
package datasets

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

const fewShotSuffix = "_nshot"

// datasetSchema validates dataset files before decoding so a malformed
// file fails with a readable message instead of a partial decode.
const datasetSchema = `{
  "type": "object",
  "required": ["instruction", "samples"],
  "properties": {
    "instruction": {"type": "string"},
    "output_length": {"type": "integer", "minimum": 0},
    "metrics": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "params": {"type": "object"}
        }
      }
    },
    "samples": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["input", "expected"],
        "properties": {
          "input": {"type": "string"},
          "expected": {"type": "string"},
          "metadata": {"type": "object"}
        }
      }
    }
  }
}`

type datasetFile struct {
	Instruction  string               `json:"instruction"`
	OutputLength int                  `json:"output_length"`
	Metrics      []api.MetricSpec     `json:"metrics"`
	Samples      []api.DatasetSample  `json:"samples"`
}

type Loader struct {
	root   string
	schema *gojsonschema.Schema
	logger *slog.Logger
}

func NewLoader(root string, logger *slog.Logger) (*Loader, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(datasetSchema))
	if err != nil {
		return nil, err
	}
	return &Loader{root: root, schema: schema, logger: logger}, nil
}

var _ abstractions.DatasetLoader = (*Loader)(nil)

func (l *Loader) LoadDataset(name string) (*api.Dataset, error) {
	file, err := l.readDatasetFile(name)
	if err != nil {
		return nil, err
	}
	return &api.Dataset{
		Name:         name,
		Instruction:  file.Instruction,
		OutputLength: file.OutputLength,
		Metrics:      file.Metrics,
		Samples:      file.Samples,
	}, nil
}

// LoadFewShot returns the first n exemplar pairs of the dataset family's
// auxiliary file, in file order. n of 0 skips the read entirely.
func (l *Loader) LoadFewShot(name string, n int) ([]api.FewShotPair, error) {
	if n <= 0 {
		return nil, nil
	}

	file, err := l.readDatasetFile(family(name) + fewShotSuffix)
	if err != nil {
		return nil, err
	}

	pairs := make([]api.FewShotPair, 0, n)
	for _, sample := range file.Samples {
		if len(pairs) == n {
			break
		}
		pairs = append(pairs, api.FewShotPair{User: sample.Input, Assistant: sample.Expected})
	}
	return pairs, nil
}

func (l *Loader) ListDatasets() ([]api.DatasetResource, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, serviceerrors.NewServiceError(messages.QueryFailed, "Type", "datasets", "Error", err.Error())
	}

	var items []api.DatasetResource
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".json")
		if entry.IsDir() || name == entry.Name() || strings.HasSuffix(name, fewShotSuffix) {
			continue
		}
		file, err := l.readDatasetFile(name)
		if err != nil {
			l.logger.Warn("Skipping unreadable dataset", "name", name, "error", err)
			continue
		}
		metricNames := make([]string, 0, len(file.Metrics))
		for _, m := range file.Metrics {
			metricNames = append(metricNames, m.Name)
		}
		items = append(items, api.DatasetResource{
			Name:         name,
			Instruction:  file.Instruction,
			OutputLength: file.OutputLength,
			Metrics:      metricNames,
			SampleCount:  len(file.Samples),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (l *Loader) readDatasetFile(name string) (*datasetFile, error) {
	path := filepath.Join(l.root, name+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", "dataset", "ResourceId", name)
		}
		return nil, serviceerrors.NewServiceError(messages.DatasetLoadFailed, "Dataset", name, "Error", err.Error())
	}

	result, err := l.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, serviceerrors.NewServiceError(messages.DatasetLoadFailed, "Dataset", name, "Error", err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, serviceerrors.NewServiceError(messages.DatasetLoadFailed,
			"Dataset", name, "Error", strings.Join(details, "; "))
	}

	var file datasetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", "dataset", "Error", err.Error())
	}
	return &file, nil
}

// family strips the subset qualifier of a dataset name so variants share
// one few-shot file: "aio_easy" and "aio_hard" both use "aio_nshot".
func family(name string) string {
	if idx := strings.Index(name, "_"); idx > 0 {
		return name[:idx]
	}
	return name
}
