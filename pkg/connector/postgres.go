// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/config"
	"github.com/picmoney/data-cleaner/pkg/model"
)

// AuditTable is the table receiving cleaning operations
const AuditTable = "cleaned_on_ingress"

// Postgres allows at most 65535 bind parameters per statement
const maxBindParams = 65535

var auditColumns = []string{
	"run_id",
	"dataset",
	"column_name",
	"source_row",
	"original_value",
	"new_value",
	"cleaning_operation",
	"cleaning_reason",
	"cleaned_at",
}

// PostgresConnector implements the DatabaseConnector and AuditSink interfaces for PostgreSQL
type PostgresConnector struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("postgres configuration cannot be nil")
	}
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	// Open database connection
	db, err := sqlx.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	connector := &PostgresConnector{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return connector, nil
}

// DB returns the underlying database connection
func (c *PostgresConnector) DB() *sql.DB {
	return c.db.DB
}

// Validate verifies the PostgreSQL connection and prepares the audit table
func (c *PostgresConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	if err := c.ensureSchema(ctx, c.cfg.AuditSchema); err != nil {
		return fmt.Errorf("failed to create/verify schema %s: %w", c.cfg.AuditSchema, err)
	}

	if err := c.EnsureAuditTable(ctx); err != nil {
		return err
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))

	return nil
}

// Close closes the database connection
func (c *PostgresConnector) Close() error {
	c.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(c.logger, c.cfg.Database, c.db.DB)
	return c.db.Close()
}

// ensureSchema creates a schema if it doesn't exist
func (c *PostgresConnector) ensureSchema(ctx context.Context, schema string) error {
	_, err := c.ExecWithTimeout(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema), 30*time.Second)
	return err
}

// ExecWithTimeout executes a query with a timeout
func (c *PostgresConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// auditTableName returns the qualified audit table name
func (c *PostgresConnector) auditTableName() string {
	return pq.QuoteIdentifier(c.cfg.AuditSchema) + "." + pq.QuoteIdentifier(AuditTable)
}

// EnsureAuditTable ensures the cleaned_on_ingress tracking table exists
func (c *PostgresConnector) EnsureAuditTable(ctx context.Context) error {
	createTableSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			column_name TEXT NOT NULL,
			source_row INTEGER NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`, c.auditTableName())

	if _, err := c.ExecWithTimeout(ctx, createTableSQL, 30*time.Second); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	c.logger.Info("Ensured cleaned_on_ingress table exists", zap.String("schema", c.cfg.AuditSchema))
	return nil
}

// RecordCleaningOperations batch inserts cleaning operations into the tracking
// table. All batches share one transaction.
func (c *PostgresConnector) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	if c.cfg.StatementTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.StatementTimeout)
		defer cancel()
	}

	// Begin transaction
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				c.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	batchSize := c.cfg.BatchSize
	if limit := maxBindParams / len(auditColumns); batchSize <= 0 || batchSize > limit {
		batchSize = limit
	}

	for start := 0; start < len(operations); start += batchSize {
		end := start + batchSize
		if end > len(operations) {
			end = len(operations)
		}

		query, args := buildAuditInsert(c.auditTableName(), operations[start:end])
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert cleaning operations: %w", err)
		}
	}

	// Commit transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Recorded cleaning operations",
		zap.String("dataset", operations[0].Dataset),
		zap.Int("count", len(operations)))
	return nil
}

// OperationCount is the number of audit rows of one operation type
type OperationCount struct {
	Operation string `db:"cleaning_operation"`
	Count     int    `db:"count"`
}

// OperationCounts returns the audit row counts of a run and dataset
func (c *PostgresConnector) OperationCounts(ctx context.Context, runID, dataset string) ([]OperationCount, error) {
	query := fmt.Sprintf(`
		SELECT cleaning_operation, COUNT(*) AS count
		FROM %s
		WHERE run_id = $1 AND dataset = $2
		GROUP BY cleaning_operation
		ORDER BY cleaning_operation
	`, c.auditTableName())

	var counts []OperationCount
	if err := c.db.SelectContext(ctx, &counts, query, runID, dataset); err != nil {
		return nil, fmt.Errorf("failed to count cleaning operations: %w", err)
	}
	return counts, nil
}

// buildAuditInsert builds a multi-row INSERT for a batch of operations
func buildAuditInsert(table string, operations []model.CleaningOperation) (string, []interface{}) {
	placeholders := make([]string, len(operations))
	args := make([]interface{}, 0, len(operations)*len(auditColumns))

	for i, op := range operations {
		rowPlaceholders := make([]string, len(auditColumns))
		for k := range auditColumns {
			rowPlaceholders[k] = fmt.Sprintf("$%d", i*len(auditColumns)+k+1)
		}
		placeholders[i] = "(" + strings.Join(rowPlaceholders, ", ") + ")"

		args = append(args,
			op.RunID,
			op.Dataset,
			op.ColumnName,
			op.RowNumber,
			toNullableString(op.OriginalValue),
			op.NewValue,
			op.CleaningOperation,
			op.CleaningReason,
			op.CleanedAt,
		)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(auditColumns, ", "), strings.Join(placeholders, ", "))
	return query, args
}
