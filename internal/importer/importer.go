package importer

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
)

// Kind tells the two supported exports apart
type Kind string

const (
	KindDetail      Kind = "detail"
	KindOutstanding Kind = "outstanding"
)

// DetectKind picks the export kind from a file name: outstanding reports
// carry "outstanding" in their name.
func DetectKind(filename string) Kind {
	if strings.Contains(strings.ToLower(filepath.Base(filename)), "outstanding") {
		return KindOutstanding
	}
	return KindDetail
}

// Store is the ledger worksheet as the importer needs it
type Store interface {
	ReadTable(ctx context.Context) (ledger.Table, error)
	EnsureWorksheet(ctx context.Context, header []string) error
	AppendRows(ctx context.Context, rows [][]string) error
	WriteCells(ctx context.Context, updates []ledger.CellUpdate) error
}

// DetailResult summarizes an invoice detail import
type DetailResult struct {
	TotalRecords int
	NewRecords   int
	Duplicates   int
}

// Importer writes CSV exports to the ledger
type Importer struct {
	store Store
	log   zerolog.Logger
}

// New creates an Importer writing to store
func New(store Store) *Importer {
	return &Importer{
		store: store,
		log:   logger.WithComponent("importer"),
	}
}

// ImportDetail appends the line items of an invoice detail listing that are
// not in the ledger yet. With dryRun nothing is written.
func (im *Importer) ImportDetail(ctx context.Context, r io.Reader, dryRun bool) (*DetailResult, error) {
	const op = "ImportDetail"

	rows, err := ParseDetailCSV(r)
	if err != nil {
		metrics.Imports.WithLabelValues(string(KindDetail), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !dryRun {
		if err := im.store.EnsureWorksheet(ctx, DetailHeader); err != nil {
			metrics.Imports.WithLabelValues(string(KindDetail), "error").Inc()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	existing, err := im.store.ReadTable(ctx)
	if err != nil {
		metrics.Imports.WithLabelValues(string(KindDetail), "error").Inc()
		return nil, fmt.Errorf("%s: failed to read ledger: %w", op, err)
	}

	fresh, duplicates := SplitDuplicates(existing, rows)
	result := &DetailResult{
		TotalRecords: len(rows),
		NewRecords:   len(fresh),
		Duplicates:   duplicates,
	}

	im.log.Info().
		Int("records", result.TotalRecords).
		Int("new", result.NewRecords).
		Int("duplicates", result.Duplicates).
		Bool("dry_run", dryRun).
		Msg("Invoice detail listing parsed")

	if dryRun || len(fresh) == 0 {
		return result, nil
	}

	if err := im.store.AppendRows(ctx, fresh); err != nil {
		metrics.Imports.WithLabelValues(string(KindDetail), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.Imports.WithLabelValues(string(KindDetail), "ok").Inc()
	return result, nil
}

// ImportOutstanding sets payment status from an outstanding report. With
// dryRun the plan is computed but not written.
func (im *Importer) ImportOutstanding(ctx context.Context, r io.Reader, dryRun bool) (*StatusPlan, error) {
	const op = "ImportOutstanding"

	items, err := ParseOutstandingCSV(r)
	if err != nil {
		metrics.Imports.WithLabelValues(string(KindOutstanding), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	table, err := im.store.ReadTable(ctx)
	if err != nil {
		metrics.Imports.WithLabelValues(string(KindOutstanding), "error").Inc()
		return nil, fmt.Errorf("%s: failed to read ledger: %w", op, err)
	}

	plan, err := PlanOutstanding(table, items)
	if err != nil {
		metrics.Imports.WithLabelValues(string(KindOutstanding), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	im.log.Info().
		Int("invoices", len(items)).
		Int("rows_to_update", plan.RowsUpdated).
		Int("paid_rows", plan.PaidCount).
		Int("unpaid_rows", plan.UnpaidCount).
		Bool("dry_run", dryRun).
		Msg("Outstanding report compared with ledger")

	if dryRun || len(plan.Updates) == 0 {
		return plan, nil
	}

	if err := im.store.WriteCells(ctx, plan.Updates); err != nil {
		metrics.Imports.WithLabelValues(string(KindOutstanding), "error").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.Imports.WithLabelValues(string(KindOutstanding), "ok").Inc()
	return plan, nil
}
