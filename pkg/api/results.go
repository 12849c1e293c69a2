package api

// SampleRecord is the raw record kept for every evaluated sample.
// Provider and Model are the backend that actually served the sample,
// which may differ from the requested one after routing or fallback.
type SampleRecord struct {
	Input           string `json:"input"`
	Expected        string `json:"expected"`
	RawOutput       string `json:"raw_output"`
	ProcessedOutput string `json:"processed_output"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	LatencyMS       int64  `json:"latency_ms"`
}

// RunResult is the outcome of evaluating one dataset with one shot-count.
type RunResult struct {
	Dataset     string `json:"dataset"`
	Shots       int    `json:"shots"`
	SampleCount int    `json:"sample_count"`
	ErrorCount  int    `json:"error_count"`

	// Averages maps metric name to the score averaged over non-error
	// samples. A metric averages to 0 when every sample errored.
	Averages map[string]float64 `json:"averages"`

	// Details is keyed "{dataset}_{shots}shot_{metric}" per metric, plus
	// "{dataset}_{shots}shot_details" for the raw records and a
	// "..._{metric}_params" echo when a metric carried parameters.
	Details map[string]any `json:"details"`

	// ProviderTally counts which resolved provider served each sample.
	ProviderTally map[string]int `json:"provider_tally,omitempty"`

	Records []SampleRecord `json:"-"`
}

// SummaryRow flattens one (dataset, shot-count) pair for tabular reporting.
type SummaryRow struct {
	Dataset     string             `json:"dataset"`
	Model       string             `json:"model"`
	Shots       int                `json:"shots"`
	SampleCount int                `json:"sample_count"`
	Metrics     map[string]float64 `json:"metrics"`
}

// EvaluationReport merges the runs of a full request: every dataset in the
// request crossed with every shot-count, keyed by dataset.
type EvaluationReport struct {
	ProviderID string                 `json:"provider_id"`
	ModelID    string                 `json:"model_id"`
	ModelName  string                 `json:"model_name"`
	Results    map[string][]RunResult `json:"results"`
	Summary    []SummaryRow           `json:"summary"`
}

// SyncEvaluationResponse is returned by the synchronous submission path.
type SyncEvaluationResponse struct {
	ProviderID       string             `json:"provider_id"`
	ModelID          string             `json:"model_id"`
	ModelName        string             `json:"model_name"`
	Metrics          map[string]float64 `json:"metrics"`
	Summary          []SummaryRow       `json:"summary"`
}
