package sql

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	// import the postgres driver - "pgx"
	"github.com/go-viper/mapstructure/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	// import the sqlite driver - "sqlite"
	_ "modernc.org/sqlite"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
)

const (
	// These are the only drivers currently supported
	SQLITE_DRIVER   = "sqlite"
	POSTGRES_DRIVER = "pgx"

	// These are the only tables currently supported
	TABLE_JOBS     = "jobs"
	TABLE_JOB_LOGS = "job_logs"
)

type SQLStorage struct {
	sqlConfig *SQLDatabaseConfig
	pool      *sql.DB
	logger    *slog.Logger
}

func getUnsupportedDriverError(driver string) error {
	return serviceerrors.NewStorageError("unsupported database driver: %s", driver)
}

func NewStorage(config map[string]any, logger *slog.Logger) (abstractions.Storage, error) {
	var sqlConfig SQLDatabaseConfig
	err := mapstructure.Decode(config, &sqlConfig)
	if err != nil {
		return nil, err
	}

	// check that the driver is supported
	switch sqlConfig.Driver {
	case SQLITE_DRIVER:
		break
	case POSTGRES_DRIVER:
		break
	default:
		return nil, getUnsupportedDriverError(sqlConfig.Driver)
	}

	logger.Info("Creating SQL storage", "driver", sqlConfig.getDriverName(), "url", sqlConfig.getConnectionURL())

	pool, err := sql.Open(sqlConfig.Driver, sqlConfig.URL)
	if err != nil {
		return nil, err
	}

	if sqlConfig.ConnMaxLifetime != nil {
		pool.SetConnMaxLifetime(*sqlConfig.ConnMaxLifetime)
	}
	if sqlConfig.MaxIdleConns != nil {
		pool.SetMaxIdleConns(*sqlConfig.MaxIdleConns)
	}
	if sqlConfig.MaxOpenConns != nil {
		pool.SetMaxOpenConns(*sqlConfig.MaxOpenConns)
	}

	storage := &SQLStorage{
		sqlConfig: &sqlConfig,
		pool:      pool,
		logger:    logger,
	}

	// ping the database to verify the DSN provided by the user is valid and the server is accessible
	err = storage.Ping(1 * time.Second)
	if err != nil {
		return nil, err
	}

	// ensure the schemas are created
	logger.Info("Ensuring schemas are created", "driver", sqlConfig.getDriverName())
	if err := storage.ensureSchema(); err != nil {
		return nil, err
	}

	return storage, nil
}

// Ping the database to verify DSN provided by the user is valid and the
// server accessible.
func (s *SQLStorage) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return s.pool.PingContext(ctx)
}

func (s *SQLStorage) ensureSchema() error {
	schemas, err := schemasForDriver(s.sqlConfig.Driver)
	if err != nil {
		return err
	}
	if _, err := s.pool.ExecContext(context.Background(), schemas); err != nil {
		return err
	}

	return nil
}

func (s *SQLStorage) exec(txn *sql.Tx, query string, args ...any) (sql.Result, error) {
	if txn != nil {
		return txn.Exec(query, args...)
	}
	return s.pool.Exec(query, args...)
}

func (s *SQLStorage) queryRow(txn *sql.Tx, query string, args ...any) *sql.Row {
	if txn != nil {
		return txn.QueryRow(query, args...)
	}
	return s.pool.QueryRow(query, args...)
}

func (s *SQLStorage) query(txn *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	if txn != nil {
		return txn.Query(query, args...)
	}
	return s.pool.Query(query, args...)
}

// withTransaction runs fn inside a transaction, rolling back when fn
// returns an error wrapped with serviceerrors.WithRollback.
func (s *SQLStorage) withTransaction(operation string, id string, fn func(txn *sql.Tx) error) error {
	txn, err := s.pool.Begin()
	if err != nil {
		s.logger.Error("Failed to begin transaction", "operation", operation, "id", id, "error", err)
		return serviceerrors.NewStorageErrorWithError(err, "failed to begin transaction for %s", operation)
	}

	if err := fn(txn); err != nil {
		if serviceerrors.NeedsRollback(err) {
			if rollbackErr := txn.Rollback(); rollbackErr != nil {
				s.logger.Error("Failed to rollback transaction", "operation", operation, "id", id, "error", rollbackErr)
			}
		} else {
			if commitErr := txn.Commit(); commitErr != nil {
				s.logger.Error("Failed to commit transaction", "operation", operation, "id", id, "error", commitErr)
			}
		}
		return err
	}

	if err := txn.Commit(); err != nil {
		s.logger.Error("Failed to commit transaction", "operation", operation, "id", id, "error", err)
		return serviceerrors.NewStorageErrorWithError(err, "failed to commit transaction for %s", operation)
	}
	return nil
}

func (s *SQLStorage) getTenant() (string, error) {
	// Single-tenant deployment for now.
	return "default", nil
}

func (s *SQLStorage) GetDatasourceName() string {
	return s.sqlConfig.Driver
}

func (s *SQLStorage) Close() error {
	return s.pool.Close()
}
