package sql

import (
	"fmt"
	"strings"
)

// Statement builders return SQL with driver-appropriate placeholders.
// Only sqlite ("?") and postgres ("$n") are supported.

func placeholders(driver string, n int) ([]string, error) {
	out := make([]string, n)
	switch driver {
	case SQLITE_DRIVER:
		for i := range out {
			out[i] = "?"
		}
	case POSTGRES_DRIVER:
		for i := range out {
			out[i] = fmt.Sprintf("$%d", i+1)
		}
	default:
		return nil, getUnsupportedDriverError(driver)
	}
	return out, nil
}

func schemasForDriver(driver string) (string, error) {
	switch driver {
	case SQLITE_DRIVER, POSTGRES_DRIVER:
	default:
		return "", getUnsupportedDriverError(driver)
	}

	timestampType := "TIMESTAMP"
	if driver == POSTGRES_DRIVER {
		timestampType = "TIMESTAMPTZ"
	}

	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
    id           TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    status       TEXT NOT NULL,
    progress     INTEGER NOT NULL DEFAULT 0,
    created_at   %[3]s NOT NULL,
    updated_at   %[3]s NOT NULL,
    completed_at %[3]s,
    entity       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS %[2]s (
    id        TEXT PRIMARY KEY,
    job_id    TEXT NOT NULL,
    level     TEXT NOT NULL,
    message   TEXT NOT NULL,
    timestamp %[3]s NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[2]s_job_id ON %[2]s (job_id, timestamp);`,
		TABLE_JOBS, TABLE_JOB_LOGS, timestampType), nil
}

// (id, tenant_id, status, progress, created_at, updated_at, entity)
func createAddJobStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 7)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`INSERT INTO %s (id, tenant_id, status, progress, created_at, updated_at, entity)
	VALUES (%s);`, TABLE_JOBS, strings.Join(ph, ", ")), nil
}

// (id)
func createGetJobStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT id, status, progress, created_at, updated_at, completed_at, entity
	FROM %s WHERE id = %s;`, TABLE_JOBS, ph[0]), nil
}

func createCountJobsStatement(driver string, statusFilter string) (string, []any, error) {
	if statusFilter == "" {
		return fmt.Sprintf(`SELECT COUNT(*) FROM %s;`, TABLE_JOBS), nil, nil
	}
	ph, err := placeholders(driver, 1)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE status = %s;`, TABLE_JOBS, ph[0]),
		[]any{statusFilter}, nil
}

// Jobs are listed newest first.
func createListJobsStatement(driver string, limit int, offset int, statusFilter string) (string, []any, error) {
	var where string
	args := []any{}
	n := 0
	if statusFilter != "" {
		n++
		args = append(args, statusFilter)
	}
	ph, err := placeholders(driver, n+2)
	if err != nil {
		return "", nil, err
	}
	if statusFilter != "" {
		where = fmt.Sprintf(" WHERE status = %s", ph[0])
	}
	args = append(args, limit, offset)
	return fmt.Sprintf(`SELECT id, status, progress, created_at, updated_at, completed_at, entity
	FROM %s%s ORDER BY created_at DESC, id DESC LIMIT %s OFFSET %s;`,
		TABLE_JOBS, where, ph[n], ph[n+1]), args, nil
}

// (status, updated_at, id)
func createUpdateJobStatusStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`UPDATE %s SET status = %s, updated_at = %s WHERE id = %s;`,
		TABLE_JOBS, ph[0], ph[1], ph[2]), nil
}

// (progress, updated_at, id)
func createUpdateJobProgressStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`UPDATE %s SET progress = %s, updated_at = %s WHERE id = %s;`,
		TABLE_JOBS, ph[0], ph[1], ph[2]), nil
}

// (status, entity, updated_at, completed_at, id)
// completed_at is only written when it is still NULL so the terminal
// timestamp survives any later write.
func createFinalizeJobStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`UPDATE %s SET status = %s, entity = %s, updated_at = %s,
	completed_at = COALESCE(completed_at, %s) WHERE id = %s;`,
		TABLE_JOBS, ph[0], ph[1], ph[2], ph[3], ph[4]), nil
}

// (id, job_id, level, message, timestamp)
func createAddJobLogStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`INSERT INTO %s (id, job_id, level, message, timestamp)
	VALUES (%s);`, TABLE_JOB_LOGS, strings.Join(ph, ", ")), nil
}

// (job_id)
func createListJobLogsStatement(driver string) (string, error) {
	ph, err := placeholders(driver, 1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT id, job_id, level, message, timestamp
	FROM %s WHERE job_id = %s ORDER BY timestamp ASC, id ASC;`, TABLE_JOB_LOGS, ph[0]), nil
}
