package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"claimguard/internal/claims"
)

var titleCaser = cases.Title(language.Und)

// displayName renders a normalized lowercase token (brand, issue type) for
// humans. Empty values become a dash.
func displayName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return titleCaser.String(strings.ReplaceAll(value, "_", " "))
}

// formatStatusLabel turns a lifecycle code like "pending" into "Pending".
func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(status), "_", " "))
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

func formatMoney(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *value)
}

func formatIntPtr(value *int) string {
	if value == nil {
		return "-"
	}
	return strconv.Itoa(*value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if max <= 3 || len(value) <= max {
		return value
	}
	return value[:max-3] + "..."
}

func buildQueueStatusRows(stats map[claims.Status]int) [][]string {
	if len(stats) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(stats))
	seen := make(map[claims.Status]struct{}, len(stats))
	for _, status := range claims.AllStatuses() {
		count, ok := stats[status]
		if !ok {
			continue
		}
		rows = append(rows, []string{formatStatusLabel(string(status)), strconv.Itoa(count)})
		seen[status] = struct{}{}
	}

	// Unknown statuses should never exist, but render them rather than hide them.
	extras := make([]string, 0)
	for status := range stats {
		if _, ok := seen[status]; !ok {
			extras = append(extras, string(status))
		}
	}
	sort.Strings(extras)
	for _, status := range extras {
		rows = append(rows, []string{formatStatusLabel(status), strconv.Itoa(stats[claims.Status(status)])})
	}
	return rows
}

// buildQueueListRows renders queued claims newest-first.
func buildQueueListRows(list []*claims.Claim) [][]string {
	sorted := make([]*claims.Claim, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID > sorted[j].ID
		}
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	rows := make([][]string, 0, len(sorted))
	for _, c := range sorted {
		vin := c.VIN
		if vin == "" {
			vin = "-"
		}
		dealer := c.DealerID
		if dealer == "" {
			dealer = "-"
		}
		rows = append(rows, []string{
			c.ID,
			formatStatusLabel(string(c.Status)),
			vin,
			dealer,
			formatTime(c.CreatedAt),
		})
	}
	return rows
}

func buildClaimRows(list []*claims.Claim) [][]string {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		rows = append(rows, []string{
			c.ID,
			string(c.TriageClass),
			formatScore(c.RiskScore),
			yesNo(c.IsSuspicious),
			c.VIN,
			c.DealerID,
			formatTimePtr(c.AnalyzedAt),
		})
	}
	return rows
}

func buildBenchmarkRows(list []*claims.Benchmark) [][]string {
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		brand := "(any)"
		if !b.IsGeneric() {
			brand = displayName(*b.Brand)
		}
		rows = append(rows, []string{
			brand,
			displayName(b.IssueType),
			fmt.Sprintf("%.2f", b.AvgTotal),
			fmt.Sprintf("%.2f", b.StdTotal),
			fmt.Sprintf("%.2f", b.MinTotal),
			fmt.Sprintf("%.2f", b.MaxTotal),
			strconv.Itoa(b.SampleCount),
			formatTime(b.UpdatedAt),
		})
	}
	return rows
}

func buildDealerRows(list []*claims.DealerStatistics) [][]string {
	rows := make([][]string, 0, len(list))
	for _, d := range list {
		rows = append(rows, []string{
			d.DealerID,
			d.DealerName,
			strconv.Itoa(d.TotalClaims),
			strconv.Itoa(d.FlaggedClaims),
			strconv.Itoa(d.FraudConfirmed),
			strconv.Itoa(d.DuplicateClaims),
			fmt.Sprintf("%.2f", d.AvgClaimAmount),
			fmt.Sprintf("%.2f", d.TotalAmount),
			fmt.Sprintf("%.1f%%", d.FraudRate()*100),
		})
	}
	return rows
}

// decodeSignals unpacks the fraud signals persisted on an analyzed claim row.
func decodeSignals(c *claims.Claim) ([]claims.FraudSignal, error) {
	if strings.TrimSpace(c.SignalsJSON) == "" {
		return nil, nil
	}
	var sigs []claims.FraudSignal
	if err := json.Unmarshal([]byte(c.SignalsJSON), &sigs); err != nil {
		return nil, fmt.Errorf("decode stored signals for %s: %w", c.ID, err)
	}
	return sigs, nil
}

// decodeWarnings unpacks the analysis warnings persisted on a claim row.
func decodeWarnings(c *claims.Claim) ([]string, error) {
	if strings.TrimSpace(c.WarningsJSON) == "" {
		return nil, nil
	}
	var warnings []string
	if err := json.Unmarshal([]byte(c.WarningsJSON), &warnings); err != nil {
		return nil, fmt.Errorf("decode stored warnings for %s: %w", c.ID, err)
	}
	return warnings, nil
}
