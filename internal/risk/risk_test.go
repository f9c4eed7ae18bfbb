package risk

import (
	"math"
	"strings"
	"testing"

	"claimguard/internal/claims"
)

func signal(t claims.SignalType, sev claims.Severity) claims.FraudSignal {
	return claims.FraudSignal{Type: t, Severity: sev, Description: string(t)}
}

func match(kind claims.MatchKind) claims.DuplicateMatch {
	return claims.DuplicateMatch{ClaimID: "CLM-a", MatchedClaimID: "CLM-b", Kind: kind, Similarity: 0.9}
}

func TestScoreWeights(t *testing.T) {
	tests := []struct {
		name       string
		signals    []claims.FraudSignal
		duplicates []claims.DuplicateMatch
		want       float64
	}{
		{name: "empty", want: 0},
		{
			name:    "one per severity",
			signals: []claims.FraudSignal{signal(claims.SignalNegativeTax, claims.SeverityHigh), signal(claims.SignalRoundTotal, claims.SeverityMedium), signal(claims.SignalOldVehicle, claims.SeverityLow)},
			want:    0.7,
		},
		{
			name:       "one per match kind",
			duplicates: []claims.DuplicateMatch{match(claims.MatchImageSimilar), match(claims.MatchVINIssue)},
			want:       0.5,
		},
		{
			name:       "capped at one",
			signals:    []claims.FraudSignal{signal(claims.SignalNegativeTax, claims.SeverityHigh), signal(claims.SignalFutureClaimDate, claims.SeverityHigh)},
			duplicates: []claims.DuplicateMatch{match(claims.MatchImageExact), match(claims.MatchImageLikelySame)},
			want:       1.0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Score(tc.signals, tc.duplicates)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Score() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	signals := []claims.FraudSignal{}
	prev := 0.0
	for i := 0; i < 12; i++ {
		signals = append(signals, signal(claims.SignalRoundTotal, claims.SeverityMedium))
		got := Score(signals, nil)
		if got < prev {
			t.Fatalf("score decreased after adding a signal: %v -> %v", prev, got)
		}
		if got > 1.0 {
			t.Fatalf("score exceeded cap: %v", got)
		}
		prev = got
	}
	if prev != 1.0 {
		t.Fatalf("expected saturation at 1.0, got %v", prev)
	}
}

func TestTriageRuleOrder(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name       string
		signals    []claims.FraudSignal
		duplicates []claims.DuplicateMatch
		want       claims.TriageClass
	}{
		{
			name:       "exact image wins regardless of score",
			duplicates: []claims.DuplicateMatch{match(claims.MatchImageExact)},
			want:       claims.TriageInvestigate,
		},
		{
			name:    "critical high severity signal forces investigation",
			signals: []claims.FraudSignal{signal(claims.SignalFutureClaimDate, claims.SeverityHigh)},
			want:    claims.TriageInvestigate,
		},
		{
			name:    "non-critical high severity routes by score",
			signals: []claims.FraudSignal{signal(claims.SignalVINInvalidLength, claims.SeverityHigh)},
			want:    claims.TriageReview,
		},
		{
			name: "score at investigate boundary",
			signals: []claims.FraudSignal{
				signal(claims.SignalTotalMismatch, claims.SeverityMedium),
				signal(claims.SignalRoundTotal, claims.SeverityMedium),
				signal(claims.SignalIdenticalCents, claims.SeverityMedium),
				signal(claims.SignalExcessiveTaxRate, claims.SeverityLow),
			},
			want: claims.TriageInvestigate,
		},
		{
			name:    "score at review boundary",
			signals: []claims.FraudSignal{signal(claims.SignalTotalMismatch, claims.SeverityMedium), signal(claims.SignalOldVehicle, claims.SeverityLow)},
			want:    claims.TriageReview,
		},
		{
			name:    "below review auto-approves",
			signals: []claims.FraudSignal{signal(claims.SignalOldVehicle, claims.SeverityLow)},
			want:    claims.TriageAutoApprove,
		},
		{name: "clean claim auto-approves", want: claims.TriageAutoApprove},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score := Score(tc.signals, tc.duplicates)
			got := Triage(score, tc.signals, tc.duplicates, th)
			if got != tc.want {
				t.Fatalf("Triage(score=%v) = %s, want %s", score, got, tc.want)
			}
		})
	}
}

func TestTriageCriticalSet(t *testing.T) {
	critical := []claims.SignalType{
		claims.SignalNegativeTax,
		claims.SignalFutureClaimDate,
		claims.SignalClaimBeforeMfg,
		claims.SignalDecisionBeforeClaim,
		claims.SignalHighRiskDealer,
	}
	for _, st := range critical {
		sigs := []claims.FraudSignal{signal(st, claims.SeverityHigh)}
		got := Triage(Score(sigs, nil), sigs, nil, DefaultThresholds())
		if got != claims.TriageInvestigate {
			t.Errorf("critical signal %s: triage = %s, want %s", st, got, claims.TriageInvestigate)
		}
	}

	// The same types below high severity follow the score rules instead.
	sigs := []claims.FraudSignal{signal(claims.SignalNegativeTax, claims.SeverityMedium)}
	if got := Triage(Score(sigs, nil), sigs, nil, DefaultThresholds()); got != claims.TriageAutoApprove {
		t.Fatalf("medium severity critical type: triage = %s, want %s", got, claims.TriageAutoApprove)
	}
}

func TestSuspicious(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name       string
		signals    []claims.FraudSignal
		duplicates []claims.DuplicateMatch
		want       bool
	}{
		{name: "clean", want: false},
		{name: "low severity only", signals: []claims.FraudSignal{signal(claims.SignalOldVehicle, claims.SeverityLow)}, want: false},
		{
			name:    "score reaches review",
			signals: []claims.FraudSignal{signal(claims.SignalTotalMismatch, claims.SeverityMedium), signal(claims.SignalOldVehicle, claims.SeverityLow)},
			want:    true,
		},
		{name: "any duplicate", duplicates: []claims.DuplicateMatch{match(claims.MatchImageSimilar)}, want: true},
		{name: "any high severity", signals: []claims.FraudSignal{signal(claims.SignalVINInvalidChars, claims.SeverityHigh)}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Suspicious(Score(tc.signals, tc.duplicates), tc.signals, tc.duplicates, th)
			if got != tc.want {
				t.Fatalf("Suspicious() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestThresholdsNormalized(t *testing.T) {
	th := Thresholds{Investigate: 0, Review: 2}.normalized()
	def := DefaultThresholds()
	if th.Investigate != def.Investigate {
		t.Fatalf("Investigate = %v, want default %v", th.Investigate, def.Investigate)
	}
	if th.Review > th.Investigate {
		t.Fatalf("Review %v exceeds Investigate %v after normalization", th.Review, th.Investigate)
	}

	th = Thresholds{Investigate: 0.5, Review: 0.6}.normalized()
	if th.Review != th.Investigate {
		t.Fatalf("Review = %v, want clamped to Investigate %v", th.Review, th.Investigate)
	}
}

func TestAggregateSummary(t *testing.T) {
	sigs := []claims.FraudSignal{
		signal(claims.SignalNegativeTax, claims.SeverityHigh),
		signal(claims.SignalRoundTotal, claims.SeverityMedium),
	}
	dups := []claims.DuplicateMatch{match(claims.MatchImageExact)}

	got := Aggregate(sigs, dups, DefaultThresholds())
	if got.Triage != claims.TriageInvestigate {
		t.Fatalf("Triage = %s, want %s", got.Triage, claims.TriageInvestigate)
	}
	if !got.Suspicious {
		t.Fatal("expected suspicious assessment")
	}
	if !strings.Contains(got.Summary, "1 duplicate match") {
		t.Fatalf("summary missing duplicate count: %q", got.Summary)
	}
	if !strings.Contains(got.Summary, "2 fraud signals") {
		t.Fatalf("summary missing signal count: %q", got.Summary)
	}
	if !strings.Contains(got.Summary, string(claims.SignalNegativeTax)) {
		t.Fatalf("summary missing critical signal name: %q", got.Summary)
	}

	clean := Aggregate(nil, nil, DefaultThresholds())
	if clean.Suspicious || clean.Score != 0 || clean.Triage != claims.TriageAutoApprove {
		t.Fatalf("clean aggregate = %+v", clean)
	}
	if !strings.Contains(clean.Summary, "No fraud indicators") {
		t.Fatalf("clean summary = %q", clean.Summary)
	}
}
