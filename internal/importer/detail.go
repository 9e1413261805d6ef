// Package importer loads accounting-system CSV exports into the ledger
// worksheet: invoice detail listings are appended as new line items and
// outstanding reports update payment status.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/payment"
)

// ErrNoRecords is returned when a file holds no usable rows
var ErrNoRecords = errors.New("CSV file is empty or has no valid data")

// detailPreamble is the number of report title lines before the data rows
const detailPreamble = 7

// DetailHeader is the header written to a new ledger worksheet
var DetailHeader = []string{
	"Item Code", "Description", "Qty", "Unit Price",
	"Discount", "Currency", "Sub Total", "Doc No",
	"Date", "Debtor Code", "Debtor", "Notes",
	"Payment Status", "Payment Date",
}

// detailColumns maps DetailHeader positions (up to Notes) to columns of the
// exported listing
var detailColumns = []int{1, 4, 7, 10, 13, 18, 20, 21, 23, 25, 27, 29}

// ParseDetailCSV reads an invoice detail listing export. Report title lines
// are skipped, rows without an item code or description are dropped and
// every line item starts out Unpaid.
func ParseDetailCSV(r io.Reader) ([][]string, error) {
	const op = "ParseDetailCSV"

	br := bufio.NewReader(r)
	for i := 0; i < detailPreamble; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoRecords
			}
			return nil, fmt.Errorf("%s: failed to skip report header: %w", op, err)
		}
	}

	records, err := readAll(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rows [][]string
	for _, rec := range records {
		if field(rec, 1) == "" && field(rec, 4) == "" {
			continue
		}
		row := make([]string, 0, len(DetailHeader))
		for _, col := range detailColumns {
			row = append(row, field(rec, col))
		}
		row = append(row, payment.StatusUnpaid, "")
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, ErrNoRecords
	}
	return rows, nil
}

// SplitDuplicates separates rows already in the ledger from new ones. Rows
// are in DetailHeader order. A row is a duplicate when an existing row has
// the same invoice number and the same item code or description.
func SplitDuplicates(existing ledger.Table, rows [][]string) (fresh [][]string, duplicates int) {
	header := existing.Header()
	cols := ledger.Resolve(header)
	numberCol := cols.Get(ledger.FieldInvoiceNumber)
	descCol := cols.Get(ledger.FieldProductDescription)
	itemCol := headerColumn(header, "Item Code")

	seen := make(map[string][]lineKey)
	if numberCol.IsFound() {
		for _, row := range existing.Rows() {
			number := ledger.NormalizeInvoiceNumber(ledger.Cell(row, numberCol))
			if number == "" {
				continue
			}
			seen[number] = append(seen[number], lineKey{
				item: ledger.Cell(row, itemCol),
				desc: ledger.Cell(row, descCol),
			})
		}
	}

	for _, row := range rows {
		number := ledger.NormalizeInvoiceNumber(field(row, 7))
		candidate := lineKey{item: field(row, 0), desc: field(row, 1)}
		if candidate.matchesAny(seen[number]) {
			duplicates++
			continue
		}
		fresh = append(fresh, row)
	}
	return fresh, duplicates
}

type lineKey struct {
	item string
	desc string
}

func (k lineKey) matchesAny(existing []lineKey) bool {
	for _, e := range existing {
		if (k.item != "" && strings.EqualFold(e.item, k.item)) || (k.desc != "" && strings.EqualFold(e.desc, k.desc)) {
			return true
		}
	}
	return false
}

// headerColumn finds a column by exact (case-insensitive) header name
func headerColumn(header []string, name string) ledger.Column {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return ledger.Found(i)
		}
	}
	return ledger.NotFound
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	return records, nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
