// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/picmoney/data-cleaner/pkg/config"
	"github.com/picmoney/data-cleaner/pkg/converter"
)

// SQLiteConnector implements the DatabaseConnector and ExportSink interfaces
// for a local SQLite file holding one table per cleaned dataset
type SQLiteConnector struct {
	db        *sqlx.DB
	logger    *zap.Logger
	cfg       *config.SQLiteConfig
	converter *converter.TypeConverter
}

// NewSQLiteConnector opens (creating if needed) the export database
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig, logger *zap.Logger) (*SQLiteConnector, error) {
	if cfg == nil {
		return nil, fmt.Errorf("sqlite configuration cannot be nil")
	}
	logger = logger.Named("sqlite-connector")

	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	logger.Info("Opening SQLite export database", zap.String("path", cfg.Path))

	db, err := sqlx.Open("sqlite", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY between concurrent exports
	ApplyConnectionSettings(db.DB, 1, 1, 0, 0)

	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	return &SQLiteConnector{
		db:        db,
		logger:    logger,
		cfg:       cfg,
		converter: converter.NewTypeConverter(logger),
	}, nil
}

// DB returns the underlying database connection
func (c *SQLiteConnector) DB() *sql.DB {
	return c.db.DB
}

// Validate checks that the database is writable
func (c *SQLiteConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.GetContext(ctx, &version, "SELECT sqlite_version()"); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	if _, err := c.ExecWithTimeout(ctx, "CREATE TEMP TABLE _permission_check (id INTEGER)", 5*time.Second); err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}
	if _, err := c.ExecWithTimeout(ctx, "DROP TABLE _permission_check", 5*time.Second); err != nil {
		return fmt.Errorf("permission validation failed: %w", err)
	}
	c.logger.Info("SQLite export database validated", zap.String("version", version))
	return nil
}

// Close closes the database connection
func (c *SQLiteConnector) Close() error {
	c.logger.Info("Closing SQLite export database")
	LogConnectionStats(c.logger, c.cfg.Path, c.db.DB)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *SQLiteConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// ExportTable replaces the dataset's table with the cleaned rows.
// The table is dropped and recreated so reruns leave the same content.
func (c *SQLiteConnector) ExportTable(ctx context.Context, table *Table) (err error) {
	if err := table.Validate(); err != nil {
		return err
	}
	ds := table.Dataset
	name := ds.TableName()
	quoted := pq.QuoteIdentifier(name)

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

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoted); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", name, err)
	}

	defs := c.converter.GenerateColumnDefinitions(ds, table.Columns)
	createSQL := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", quoted, strings.Join(defs, ",\n\t"))
	if _, err = tx.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	quotedCols := make([]string, len(table.Columns))
	for i, col := range table.Columns {
		quotedCols[i] = pq.QuoteIdentifier(col)
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(table.Columns)), ",")
	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoted, strings.Join(quotedCols, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	kinds := converter.ColumnKinds(ds, table.Columns)
	for i := 0; i < table.Rows(); i++ {
		if i%1000 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		if _, err = stmt.ExecContext(ctx, c.converter.ConvertRow(table.Row(i), kinds)...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i+1, name, err)
		}
	}

	if ds.PhoneColumn != "" {
		index := pq.QuoteIdentifier("idx_" + name + "_" + ds.PhoneColumn)
		indexSQL := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", index, quoted, pq.QuoteIdentifier(ds.PhoneColumn))
		if _, err = tx.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	c.logger.Info("Exported cleaned dataset",
		zap.String("table", name),
		zap.Int("rows", table.Rows()),
		zap.Int("columns", len(table.Columns)))
	return nil
}

// RowCount returns the number of rows of an exported table
func (c *SQLiteConnector) RowCount(ctx context.Context, table string) (int, error) {
	var count int
	if err := c.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+pq.QuoteIdentifier(table)); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}
