package storage

import (
	"log/slog"

	"github.com/bench-hub/bench-hub/internal/abstractions"
	"github.com/bench-hub/bench-hub/internal/config"
	"github.com/bench-hub/bench-hub/internal/serviceerrors"
	"github.com/bench-hub/bench-hub/internal/storage/sql"
)

// NewStorage creates a new storage instance based on the configuration.
// It currently uses the SQL storage implementation.
func NewStorage(serviceConfig *config.Config, logger *slog.Logger) (abstractions.Storage, error) {
	if serviceConfig.Database == nil || serviceConfig.Database.SQL == nil {
		return nil, serviceerrors.NewStorageError("database configuration is required")
	}
	return sql.NewStorage(serviceConfig.Database.SQL, logger)
}
