// pkg/pipeline/verifier.go
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/picmoney/data-cleaner/pkg/cleaner"
	"github.com/picmoney/data-cleaner/pkg/connector"
	"github.com/picmoney/data-cleaner/pkg/model"
)

// RowCounter counts the rows of an exported table
type RowCounter interface {
	RowCount(ctx context.Context, table string) (int, error)
}

// OperationCounter reads back audited operation counts
type OperationCounter interface {
	OperationCounts(ctx context.Context, runID, dataset string) ([]connector.OperationCount, error)
}

// IntegrityIssue represents a problem found in a cleaned output
type IntegrityIssue struct {
	IssueType   string
	Description string
	ColumnName  string
	RowNumber   int // 1-based data row of the output file, 0 for file-level issues
}

// VerificationReport contains the results of an output verification
type VerificationReport struct {
	Dataset          string
	OutputPath       string
	VerificationTime time.Time
	ExpectedRows     int
	ActualRows       int
	RowCountMatches  bool
	ColumnsMatch     bool
	MissingColumns   []string
	ExportedRows     int // -1 when no export sink is configured
	AuditedOps       int // -1 when no audit sink is configured
	IntegrityIssues  []IntegrityIssue
	Duration         time.Duration
}

// Passed reports whether the output is consistent with the cleaned frame
func (r *VerificationReport) Passed() bool {
	return r.RowCountMatches && r.ColumnsMatch && len(r.IntegrityIssues) == 0
}

// Verifier re-reads cleaned outputs and checks their invariants
type Verifier struct {
	logger    *zap.Logger
	export    RowCounter
	audit     OperationCounter
	runID     string
	timeout   time.Duration
	maxIssues int
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:    logger,
		timeout:   time.Minute,
		maxIssues: 20,
	}
}

// WithExport checks exported table row counts
func (v *Verifier) WithExport(export RowCounter) *Verifier {
	v.export = export
	return v
}

// WithAudit checks audited operation counts for the given run
func (v *Verifier) WithAudit(audit OperationCounter, runID string) *Verifier {
	v.audit = audit
	v.runID = runID
	return v
}

// WithTimeout sets a custom timeout for sink queries
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

func (v *Verifier) addIssue(report *VerificationReport, issue IntegrityIssue) {
	if len(report.IntegrityIssues) < v.maxIssues {
		report.IntegrityIssues = append(report.IntegrityIssues, issue)
	}
}

// VerifyOutput re-reads the written CSV of a dataset and compares it with
// the cleaned result
func (v *Verifier) VerifyOutput(
	ctx context.Context,
	ds *model.Dataset,
	path string,
	result *cleaner.Result,
) (*VerificationReport, error) {
	startTime := time.Now()
	report := &VerificationReport{
		Dataset:          ds.Name,
		OutputPath:       path,
		VerificationTime: startTime,
		ExpectedRows:     result.Frame.Nrow(),
		ExportedRows:     -1,
		AuditedOps:       -1,
	}

	v.logger.Info("Verifying cleaned output",
		zap.String("dataset", ds.Name),
		zap.String("file", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output: %w", err)
	}
	defer file.Close()

	written, err := cleaner.ReadFrame(file, ds.Name, cleaner.OutputReadOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	report.ActualRows = written.Nrow()
	report.RowCountMatches = report.ActualRows == report.ExpectedRows
	if !report.RowCountMatches {
		v.addIssue(report, IntegrityIssue{
			IssueType:   "row_count_mismatch",
			Description: fmt.Sprintf("expected %d rows, found %d", report.ExpectedRows, report.ActualRows),
		})
	}

	report.ColumnsMatch = true
	for _, name := range result.Frame.Names() {
		if !written.HasColumn(name) {
			report.ColumnsMatch = false
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}
	if !report.ColumnsMatch {
		v.addIssue(report, IntegrityIssue{
			IssueType:   "missing_columns",
			Description: "output lacks columns: " + strings.Join(report.MissingColumns, ", "),
		})
	}

	if err := v.checkPhones(written, ds, report); err != nil {
		return nil, err
	}
	if err := v.checkNonEmpty(written, ds.RequiredColumns(), "missing_required_value", report); err != nil {
		return nil, err
	}
	if err := v.checkNonEmpty(written, ds.ColumnsOfKind(model.KindCategory), "missing_category", report); err != nil {
		return nil, err
	}

	if err := v.checkSinks(ctx, ds, result, report); err != nil {
		return nil, err
	}

	report.Duration = time.Since(startTime)

	logFields := []zap.Field{
		zap.String("dataset", ds.Name),
		zap.Int("rows", report.ActualRows),
		zap.Int("issues", len(report.IntegrityIssues)),
		zap.Duration("duration", report.Duration),
	}
	if report.Passed() {
		v.logger.Info("Output verification passed", logFields...)
	} else {
		v.logger.Warn("Output verification found issues", logFields...)
	}

	return report, nil
}

// checkPhones verifies that phone numbers hold only ASCII digits
func (v *Verifier) checkPhones(written *cleaner.Frame, ds *model.Dataset, report *VerificationReport) error {
	if ds.PhoneColumn == "" || !written.HasColumn(ds.PhoneColumn) {
		return nil
	}
	cells, err := written.Column(ds.PhoneColumn)
	if err != nil {
		return err
	}
	for i, cell := range cells {
		if !cell.Valid {
			continue
		}
		if strings.IndexFunc(cell.String, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
			v.addIssue(report, IntegrityIssue{
				IssueType:   "non_digit_phone",
				Description: fmt.Sprintf("phone %q is not digits only", cell.String),
				ColumnName:  ds.PhoneColumn,
				RowNumber:   i + 1,
			})
		}
	}
	return nil
}

// checkNonEmpty verifies that no cell of the columns is missing
func (v *Verifier) checkNonEmpty(written *cleaner.Frame, columns []string, issueType string, report *VerificationReport) error {
	for _, col := range columns {
		if !written.HasColumn(col) {
			continue
		}
		cells, err := written.Column(col)
		if err != nil {
			return err
		}
		for i, cell := range cells {
			if !cell.Valid || cell.String == "" {
				v.addIssue(report, IntegrityIssue{
					IssueType:   issueType,
					Description: "empty value",
					ColumnName:  col,
					RowNumber:   i + 1,
				})
			}
		}
	}
	return nil
}

// checkSinks compares exported rows and audited operations with the result
func (v *Verifier) checkSinks(ctx context.Context, ds *model.Dataset, result *cleaner.Result, report *VerificationReport) error {
	if v.export == nil && v.audit == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	if v.export != nil {
		count, err := v.export.RowCount(ctx, ds.TableName())
		if err != nil {
			return fmt.Errorf("failed to verify export: %w", err)
		}
		report.ExportedRows = count
		if count != report.ExpectedRows {
			v.addIssue(report, IntegrityIssue{
				IssueType:   "export_row_mismatch",
				Description: fmt.Sprintf("expected %d exported rows, found %d", report.ExpectedRows, count),
			})
		}
	}

	if v.audit != nil {
		counts, err := v.audit.OperationCounts(ctx, v.runID, ds.Name)
		if err != nil {
			return fmt.Errorf("failed to verify audit: %w", err)
		}
		audited := 0
		for _, c := range counts {
			audited += c.Count
		}
		report.AuditedOps = audited
		if expected := result.Recorder.Total(); audited != expected {
			v.addIssue(report, IntegrityIssue{
				IssueType:   "audit_count_mismatch",
				Description: fmt.Sprintf("expected %d audited operations, found %d", expected, audited),
			})
		}
	}

	return nil
}
