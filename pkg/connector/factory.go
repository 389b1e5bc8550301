// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// Sinks holds the optional connectors enabled by configuration
type Sinks struct {
	Audit  *PostgresConnector
	Export *SQLiteConnector
}

// Close closes every open sink
func (s *Sinks) Close() error {
	var firstErr error
	if s.Audit != nil {
		if err := s.Audit.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.Export != nil {
		if err := s.Export.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.Config, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePostgresConnector creates a new PostgreSQL audit connector
func (f *ConnectorFactory) CreatePostgresConnector(ctx context.Context) (*PostgresConnector, error) {
	f.logger.Info("Creating PostgreSQL connector")

	connector, err := NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connector: %w", err)
	}

	return connector, nil
}

// CreateSQLiteConnector creates a new SQLite export connector
func (f *ConnectorFactory) CreateSQLiteConnector(ctx context.Context) (*SQLiteConnector, error) {
	f.logger.Info("Creating SQLite connector")

	connector, err := NewSQLiteConnector(ctx, f.cfg.SQLite, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connector: %w", err)
	}

	return connector, nil
}

// CreateSinks creates and validates the connectors enabled in the configuration
func (f *ConnectorFactory) CreateSinks(ctx context.Context) (*Sinks, error) {
	sinks := &Sinks{}

	if f.cfg.Postgres != nil {
		pgConn, err := f.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		sinks.Audit = pgConn
		if err := pgConn.Validate(ctx); err != nil {
			sinks.Close()
			return nil, err
		}
	}

	if f.cfg.SQLite != nil {
		sqliteConn, err := f.CreateSQLiteConnector(ctx)
		if err != nil {
			sinks.Close() // Clean up the PostgreSQL connection if SQLite fails
			return nil, err
		}
		sinks.Export = sqliteConn
		if err := sqliteConn.Validate(ctx); err != nil {
			sinks.Close()
			return nil, err
		}
	}

	return sinks, nil
}
