package risk

import (
	"fmt"
	"sort"
	"strings"

	"claimguard/internal/claims"
)

// buildSummary renders a one-line description of the assessment suitable for
// logs, notifications, and the CLI results view.
func buildSummary(score float64, triage claims.TriageClass, signals []claims.FraudSignal, duplicates []claims.DuplicateMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Risk %.2f (%s).", score, triage)

	if len(duplicates) > 0 {
		fmt.Fprintf(&b, " %d duplicate %s", len(duplicates), plural(len(duplicates), "match", "matches"))
		if exact := countKind(duplicates, claims.MatchImageExact); exact > 0 {
			fmt.Fprintf(&b, " (%d exact image)", exact)
		}
		b.WriteString(".")
	}
	if len(signals) > 0 {
		fmt.Fprintf(&b, " %d fraud %s", len(signals), plural(len(signals), "signal", "signals"))
		if critical := criticalNames(signals); len(critical) > 0 {
			fmt.Fprintf(&b, " including %s", strings.Join(critical, ", "))
		}
		b.WriteString(".")
	}
	if len(duplicates) == 0 && len(signals) == 0 {
		b.WriteString(" No fraud indicators found.")
	}
	return b.String()
}

func criticalNames(signals []claims.FraudSignal) []string {
	var names []string
	seen := make(map[claims.SignalType]struct{})
	for _, sig := range signals {
		if sig.Severity != claims.SeverityHigh {
			continue
		}
		if _, critical := criticalSignals[sig.Type]; !critical {
			continue
		}
		if _, dup := seen[sig.Type]; dup {
			continue
		}
		seen[sig.Type] = struct{}{}
		names = append(names, string(sig.Type))
	}
	sort.Strings(names)
	return names
}

func countKind(duplicates []claims.DuplicateMatch, kind claims.MatchKind) int {
	n := 0
	for _, match := range duplicates {
		if match.Kind == kind {
			n++
		}
	}
	return n
}

func plural(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
