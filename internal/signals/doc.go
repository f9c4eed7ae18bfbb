// Package signals runs the fraud rule groups over a claim: arithmetic,
// timeline, benchmark outliers, dealer history, VIN structure, invoice
// patterns, and per-vehicle claim history. Each group is independent; a
// group missing its inputs skips silently or leaves a warning, so the
// detector returns an error only when the store does.
package signals
