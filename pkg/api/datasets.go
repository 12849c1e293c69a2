package api

// MetricSpec names a scoring function, optionally with parameters.
type MetricSpec struct {
	Name   string         `json:"name" validate:"required"`
	Params map[string]any `json:"params,omitempty"`
}

// DatasetSample is one pre-parsed evaluation sample.
type DatasetSample struct {
	Input    string         `json:"input"`
	Expected string         `json:"expected"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FewShotPair is one exemplar (user, assistant) exchange prepended
// to the prompt before the evaluated sample.
type FewShotPair struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Dataset is the in-memory form of a stored dataset.
type Dataset struct {
	Name         string          `json:"name"`
	Instruction  string          `json:"instruction"`
	OutputLength int             `json:"output_length"`
	Metrics      []MetricSpec    `json:"metrics"`
	Samples      []DatasetSample `json:"samples"`
}

// DatasetResource summarizes a dataset for listing.
type DatasetResource struct {
	Name         string   `json:"name"`
	Instruction  string   `json:"instruction"`
	OutputLength int      `json:"output_length"`
	Metrics      []string `json:"metrics"`
	SampleCount  int      `json:"sample_count"`
}

// DatasetResourceList represents response for listing datasets
type DatasetResourceList struct {
	TotalCount int               `json:"total_count"`
	Items      []DatasetResource `json:"items,omitempty"`
}
