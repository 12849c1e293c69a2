// Package mlflow pushes completed evaluation metrics to an MLflow
// tracking server. A push failure never affects job status; callers log
// and move on.
package mlflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/messages"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/mlflowclient"
)

const defaultExperiment = "bench-hub"

type Dashboard struct {
	client     *mlflowclient.Client
	experiment string
	logger     *slog.Logger
}

func NewDashboard(client *mlflowclient.Client, experiment string, logger *slog.Logger) *Dashboard {
	if experiment == "" {
		experiment = defaultExperiment
	}
	return &Dashboard{client: client, experiment: experiment, logger: logger}
}

var _ abstractions.Dashboard = (*Dashboard)(nil)

// LogMetrics records one run holding the flattened metrics of a completed
// evaluation, creating the experiment on first use.
func (d *Dashboard) LogMetrics(ctx context.Context, modelName string, metrics map[string]float64) error {
	experimentID, err := d.resolveExperimentID()
	if err != nil {
		return err
	}

	now := time.Now().UnixMilli()
	runResponse, err := d.client.CreateRun(&mlflowclient.CreateRunRequest{
		ExperimentID: experimentID,
		RunName:      fmt.Sprintf("%s-%d", modelName, now),
		StartTime:    now,
		Tags:         []mlflowclient.ExperimentTag{{Key: "model", Value: modelName}},
	})
	if err != nil {
		return serviceerrors.NewServiceError(messages.MLFlowRequestFailed, "Error", err.Error())
	}
	runID := runResponse.Run.Info.RunID

	batch := &mlflowclient.LogBatchRequest{RunID: runID, Metrics: make([]mlflowclient.Metric, 0, len(metrics))}
	for key, value := range metrics {
		batch.Metrics = append(batch.Metrics, mlflowclient.Metric{
			Key:       key,
			Value:     value,
			Timestamp: now,
		})
	}
	if err := d.client.LogBatch(batch); err != nil {
		return serviceerrors.NewServiceError(messages.MLFlowRequestFailed, "Error", err.Error())
	}

	if err := d.client.UpdateRun(&mlflowclient.UpdateRunRequest{
		RunID:   runID,
		Status:  "FINISHED",
		EndTime: time.Now().UnixMilli(),
	}); err != nil {
		return serviceerrors.NewServiceError(messages.MLFlowRequestFailed, "Error", err.Error())
	}

	d.logger.Info("Pushed metrics to MLflow", "run_id", runID, "model", modelName, "metrics", len(metrics))
	return nil
}

// resolveExperimentID finds the active experiment or creates it. A create
// race losing to another writer is retried as a lookup.
func (d *Dashboard) resolveExperimentID() (string, error) {
	existing, err := d.client.GetExperimentByName(d.experiment)
	if err == nil && existing.Experiment.LifecycleStage == "active" && existing.Experiment.ExperimentID != "" {
		return existing.Experiment.ExperimentID, nil
	}
	if err != nil && !mlflowclient.IsResourceDoesNotExistError(err) {
		return "", serviceerrors.NewServiceError(messages.MLFlowRequestFailed, "Error", err.Error())
	}

	created, err := d.client.CreateExperiment(&mlflowclient.CreateExperimentRequest{Name: d.experiment})
	if err != nil {
		if mlflowclient.IsResourceAlreadyExistsError(err) {
			retried, retryErr := d.client.GetExperimentByName(d.experiment)
			if retryErr == nil {
				return retried.Experiment.ExperimentID, nil
			}
		}
		return "", serviceerrors.NewServiceError(messages.MLFlowRequestFailed, "Error", err.Error())
	}
	return created.ExperimentID, nil
}
