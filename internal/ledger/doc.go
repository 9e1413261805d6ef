// Package ledger models the invoice line-item table and the primitives every
// query is built from.
//
// A Table is a header row followed by data rows. Columns are discovered from
// header text by the Resolver, never by position, so sheets with extra or
// reordered columns keep working. Rows sharing an invoice number are folded
// into Invoice records by Aggregate; per-customer rollups come from Customers.
//
// Cell parsing never fails loudly: amounts default to zero and dates report
// ok=false when they cannot be read.
package ledger
