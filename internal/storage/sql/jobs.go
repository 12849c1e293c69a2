package sql

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/messages"
	se "github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/pkg/api"
)

// JobEntity is the JSON document stored in the entity column. The status,
// progress and timestamps live in their own columns so they can be
// filtered and updated without rewriting the document.
type JobEntity struct {
	Request api.EvaluationRequest `json:"request"`
	Result  *api.JobResult        `json:"result,omitempty"`
	Error   *string               `json:"error,omitempty"`
}

// #######################################################################
// Job operations
// #######################################################################

func (s *SQLStorage) CreateJob(job *api.JobResource) error {
	jobID := job.ID

	return s.withTransaction("create job", jobID, func(txn *sql.Tx) error {
		tenant, err := s.getTenant()
		if err != nil {
			return se.WithRollback(err)
		}

		entityJSON, err := s.createJobEntity(job)
		if err != nil {
			return se.WithRollback(err)
		}
		addJobStatement, err := createAddJobStatement(s.sqlConfig.Driver)
		if err != nil {
			return se.WithRollback(err)
		}
		s.logger.Info("Creating job", "id", jobID, "tenant", tenant, "status", job.Status)
		_, err = s.exec(txn, addJobStatement, jobID, tenant, string(job.Status), job.Progress,
			job.CreatedAt, job.UpdatedAt, string(entityJSON))
		if err != nil {
			return se.WithRollback(se.NewServiceError(messages.DatabaseOperationFailed,
				"Type", "job", "ResourceId", jobID, "Error", err.Error()))
		}
		return nil
	})
}

func (s *SQLStorage) createJobEntity(job *api.JobResource) ([]byte, error) {
	entity := &JobEntity{
		Request: job.Request,
		Result:  job.Result,
		Error:   job.Error,
	}
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return nil, se.NewServiceError(messages.InternalServerError, "Error", err.Error())
	}
	return entityJSON, nil
}

func (s *SQLStorage) constructJobResource(dbID string, statusStr string, progress int,
	createdAt time.Time, updatedAt time.Time, completedAt *time.Time, entity *JobEntity) (*api.JobResource, error) {
	if entity == nil {
		s.logger.Error("Failed to construct job resource", "error", "Job entity does not exist", "id", dbID)
		return nil, se.NewServiceError(messages.InternalServerError, "Error", "Job entity does not exist")
	}

	status, err := api.GetState(statusStr)
	if err != nil {
		s.logger.Error("Failed to construct job resource", "error", err, "id", dbID)
		return nil, se.NewServiceError(messages.InternalServerError, "Error", err.Error())
	}

	return &api.JobResource{
		Resource: api.Resource{
			ID:        dbID,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		Status:      status,
		Request:     entity.Request,
		Result:      entity.Result,
		Error:       entity.Error,
		Progress:    progress,
		CompletedAt: completedAt,
	}, nil
}

func (s *SQLStorage) GetJob(id string) (*api.JobResource, error) {
	return s.getJobTransactional(nil, id)
}

func (s *SQLStorage) getJobTransactional(txn *sql.Tx, id string) (*api.JobResource, error) {
	selectQuery, err := createGetJobStatement(s.sqlConfig.Driver)
	if err != nil {
		return nil, se.WithRollback(err)
	}

	var dbID string
	var statusStr string
	var progress int
	var createdAt, updatedAt time.Time
	var completedAt sql.NullTime
	var entityJSON string

	err = s.queryRow(txn, selectQuery, id).Scan(&dbID, &statusStr, &progress, &createdAt, &updatedAt, &completedAt, &entityJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, se.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
		}
		s.logger.Error("Failed to get job", "error", err, "id", id)
		return nil, se.WithRollback(se.NewServiceError(messages.DatabaseOperationFailed,
			"Type", "job", "ResourceId", id, "Error", err.Error()))
	}

	var entity JobEntity
	err = json.Unmarshal([]byte(entityJSON), &entity)
	if err != nil {
		s.logger.Error("Failed to unmarshal job entity", "error", err, "id", id)
		return nil, se.NewServiceError(messages.JSONUnmarshalFailed, "Type", "job", "Error", err.Error())
	}

	var completed *time.Time
	if completedAt.Valid {
		completed = &completedAt.Time
	}
	return s.constructJobResource(dbID, statusStr, progress, createdAt, updatedAt, completed, &entity)
}

func (s *SQLStorage) GetJobs(limit int, offset int, statusFilter string) (*abstractions.QueryResults[api.JobResource], error) {
	countQuery, countArgs, err := createCountJobsStatement(s.sqlConfig.Driver, statusFilter)
	if err != nil {
		return nil, err
	}

	var totalCount int
	err = s.queryRow(nil, countQuery, countArgs...).Scan(&totalCount)
	if err != nil {
		s.logger.Error("Failed to count jobs", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "jobs", "Error", err.Error())
	}

	listQuery, listArgs, err := createListJobsStatement(s.sqlConfig.Driver, limit, offset, statusFilter)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(nil, listQuery, listArgs...)
	if err != nil {
		s.logger.Error("Failed to list jobs", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "jobs", "Error", err.Error())
	}
	defer rows.Close()

	var items []api.JobResource
	for rows.Next() {
		var dbID string
		var statusStr string
		var progress int
		var createdAt, updatedAt time.Time
		var completedAt sql.NullTime
		var entityJSON string

		if err := rows.Scan(&dbID, &statusStr, &progress, &createdAt, &updatedAt, &completedAt, &entityJSON); err != nil {
			s.logger.Error("Failed to scan job row", "error", err)
			return nil, se.NewServiceError(messages.QueryFailed, "Type", "jobs", "Error", err.Error())
		}

		var entity JobEntity
		if err := json.Unmarshal([]byte(entityJSON), &entity); err != nil {
			s.logger.Error("Failed to unmarshal job entity", "error", err, "id", dbID)
			return nil, se.NewServiceError(messages.JSONUnmarshalFailed, "Type", "job", "Error", err.Error())
		}

		var completed *time.Time
		if completedAt.Valid {
			completed = &completedAt.Time
		}
		resource, err := s.constructJobResource(dbID, statusStr, progress, createdAt, updatedAt, completed, &entity)
		if err != nil {
			return nil, err
		}
		items = append(items, *resource)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Error iterating job rows", "error", err)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "jobs", "Error", err.Error())
	}

	return &abstractions.QueryResults[api.JobResource]{
		Items:      items,
		TotalCount: totalCount,
	}, nil
}

func (s *SQLStorage) UpdateJobStatus(id string, status api.State) error {
	updateQuery, err := createUpdateJobStatusStatement(s.sqlConfig.Driver)
	if err != nil {
		return err
	}

	result, err := s.exec(nil, updateQuery, string(status), time.Now().UTC(), id)
	if err != nil {
		s.logger.Error("Failed to update job status", "error", err, "id", id, "status", status)
		return se.NewServiceError(messages.DatabaseOperationFailed,
			"Type", "job", "ResourceId", id, "Error", err.Error())
	}
	return s.requireRowsAffected(result, id)
}

func (s *SQLStorage) UpdateJobProgress(id string, progress int) error {
	updateQuery, err := createUpdateJobProgressStatement(s.sqlConfig.Driver)
	if err != nil {
		return err
	}

	result, err := s.exec(nil, updateQuery, progress, time.Now().UTC(), id)
	if err != nil {
		s.logger.Error("Failed to update job progress", "error", err, "id", id, "progress", progress)
		return se.NewServiceError(messages.DatabaseOperationFailed,
			"Type", "job", "ResourceId", id, "Error", err.Error())
	}
	return s.requireRowsAffected(result, id)
}

func (s *SQLStorage) CompleteJob(id string, jobResult *api.JobResult) error {
	return s.finalizeJob(id, api.StateCompleted, jobResult, nil)
}

func (s *SQLStorage) FailJob(id string, errorMessage string) error {
	return s.finalizeJob(id, api.StateFailed, nil, &errorMessage)
}

// finalizeJob moves a job into a terminal state inside one transaction:
// the entity document is re-read, the result or error is attached, and
// completed_at is stamped only if still unset.
func (s *SQLStorage) finalizeJob(id string, status api.State, jobResult *api.JobResult, errorMessage *string) error {
	return s.withTransaction("finalize job", id, func(txn *sql.Tx) error {
		job, err := s.getJobTransactional(txn, id)
		if err != nil {
			return err
		}

		entity := &JobEntity{
			Request: job.Request,
			Result:  jobResult,
			Error:   errorMessage,
		}
		entityJSON, err := json.Marshal(entity)
		if err != nil {
			return se.WithRollback(se.NewServiceError(messages.InternalServerError, "Error", err.Error()))
		}

		finalizeQuery, err := createFinalizeJobStatement(s.sqlConfig.Driver)
		if err != nil {
			return se.WithRollback(err)
		}

		now := time.Now().UTC()
		result, err := s.exec(txn, finalizeQuery, string(status), string(entityJSON), now, now, id)
		if err != nil {
			s.logger.Error("Failed to finalize job", "error", err, "id", id, "status", status)
			return se.WithRollback(se.NewServiceError(messages.DatabaseOperationFailed,
				"Type", "job", "ResourceId", id, "Error", err.Error()))
		}
		if err := s.requireRowsAffected(result, id); err != nil {
			return se.WithRollback(err)
		}

		s.logger.Info("Finalized job", "id", id, "status", status)
		return nil
	})
}

func (s *SQLStorage) requireRowsAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Error("Failed to get rows affected", "error", err, "id", id)
		return se.NewServiceError(messages.DatabaseOperationFailed,
			"Type", "job", "ResourceId", id, "Error", err.Error())
	}
	if rowsAffected == 0 {
		return se.NewServiceError(messages.ResourceNotFound, "Type", "job", "ResourceId", id)
	}
	return nil
}

// #######################################################################
// Job log operations
// #######################################################################

func (s *SQLStorage) AppendJobLog(entry *api.JobLogEntry) error {
	addLogStatement, err := createAddJobLogStatement(s.sqlConfig.Driver)
	if err != nil {
		return err
	}

	_, err = s.exec(nil, addLogStatement, entry.ID, entry.JobID, string(entry.Level), entry.Message, entry.Timestamp)
	if err != nil {
		s.logger.Error("Failed to append job log", "error", err, "job_id", entry.JobID)
		return se.NewServiceError(messages.DatabaseOperationFailed,
			"Type", "job log", "ResourceId", entry.JobID, "Error", err.Error())
	}
	return nil
}

func (s *SQLStorage) GetJobLogs(jobID string) ([]api.JobLogEntry, error) {
	listQuery, err := createListJobLogsStatement(s.sqlConfig.Driver)
	if err != nil {
		return nil, err
	}

	rows, err := s.query(nil, listQuery, jobID)
	if err != nil {
		s.logger.Error("Failed to list job logs", "error", err, "job_id", jobID)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "job logs", "Error", err.Error())
	}
	defer rows.Close()

	var entries []api.JobLogEntry
	for rows.Next() {
		var entry api.JobLogEntry
		var level string
		if err := rows.Scan(&entry.ID, &entry.JobID, &level, &entry.Message, &entry.Timestamp); err != nil {
			s.logger.Error("Failed to scan job log row", "error", err, "job_id", jobID)
			return nil, se.NewServiceError(messages.QueryFailed, "Type", "job logs", "Error", err.Error())
		}
		entry.Level = api.LogLevel(level)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Error iterating job log rows", "error", err, "job_id", jobID)
		return nil, se.NewServiceError(messages.QueryFailed, "Type", "job logs", "Error", err.Error())
	}

	return entries, nil
}
