package risk

import (
	"claimguard/internal/claims"
)

// Weight each fraud signal contributes to the risk score by severity.
const (
	weightHigh   = 0.4
	weightMedium = 0.2
	weightLow    = 0.1
)

// Weight each duplicate match contributes by detection kind.
const (
	weightImageExact      = 0.5
	weightImageLikelySame = 0.4
	weightImageSimilar    = 0.2
	weightVINIssue        = 0.3
)

// Thresholds are the score boundaries of the triage routing rules.
type Thresholds struct {
	Investigate float64
	Review      float64
}

// DefaultThresholds returns the standard routing boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Investigate: 0.7, Review: 0.3}
}

func (t Thresholds) normalized() Thresholds {
	def := DefaultThresholds()
	if t.Investigate <= 0 || t.Investigate > 1 {
		t.Investigate = def.Investigate
	}
	if t.Review <= 0 || t.Review > 1 {
		t.Review = def.Review
	}
	if t.Review > t.Investigate {
		t.Review = t.Investigate
	}
	return t
}

// criticalSignals route a claim straight to investigation when they fire at
// high severity, regardless of the numeric score.
var criticalSignals = map[claims.SignalType]struct{}{
	claims.SignalNegativeTax:         {},
	claims.SignalFutureClaimDate:     {},
	claims.SignalClaimBeforeMfg:      {},
	claims.SignalDecisionBeforeClaim: {},
	claims.SignalHighRiskDealer:      {},
}

// Assessment is the combined outcome of risk aggregation for one claim.
type Assessment struct {
	Score      float64
	Triage     claims.TriageClass
	Suspicious bool
	Summary    string
}

// Aggregate folds fraud signals and duplicate matches into a capped risk
// score, a triage routing decision, and a human-readable summary. It depends
// on nothing but its inputs.
func Aggregate(signals []claims.FraudSignal, duplicates []claims.DuplicateMatch, th Thresholds) Assessment {
	th = th.normalized()
	score := Score(signals, duplicates)
	triage := Triage(score, signals, duplicates, th)
	return Assessment{
		Score:      score,
		Triage:     triage,
		Suspicious: Suspicious(score, signals, duplicates, th),
		Summary:    buildSummary(score, triage, signals, duplicates),
	}
}

// Score sums severity and duplicate weights, capped at 1.0. Adding a signal
// or match never lowers the score.
func Score(signals []claims.FraudSignal, duplicates []claims.DuplicateMatch) float64 {
	score := 0.0
	for _, sig := range signals {
		score += severityWeight(sig.Severity)
	}
	for _, match := range duplicates {
		score += matchWeight(match.Kind)
	}
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}

// Triage applies the routing rules in order; the first that matches wins and
// the default is auto-approval.
func Triage(score float64, signals []claims.FraudSignal, duplicates []claims.DuplicateMatch, th Thresholds) claims.TriageClass {
	th = th.normalized()
	for _, match := range duplicates {
		if match.Kind == claims.MatchImageExact {
			return claims.TriageInvestigate
		}
	}
	for _, sig := range signals {
		if sig.Severity != claims.SeverityHigh {
			continue
		}
		if _, critical := criticalSignals[sig.Type]; critical {
			return claims.TriageInvestigate
		}
	}
	if score >= th.Investigate {
		return claims.TriageInvestigate
	}
	if score >= th.Review {
		return claims.TriageReview
	}
	return claims.TriageAutoApprove
}

// Suspicious reports whether the claim deserves a human look: a reviewable
// score, any duplicate evidence, or any high-severity signal.
func Suspicious(score float64, signals []claims.FraudSignal, duplicates []claims.DuplicateMatch, th Thresholds) bool {
	if score >= th.normalized().Review {
		return true
	}
	if len(duplicates) > 0 {
		return true
	}
	for _, sig := range signals {
		if sig.Severity == claims.SeverityHigh {
			return true
		}
	}
	return false
}

func severityWeight(severity claims.Severity) float64 {
	switch severity {
	case claims.SeverityHigh:
		return weightHigh
	case claims.SeverityMedium:
		return weightMedium
	case claims.SeverityLow:
		return weightLow
	default:
		return 0
	}
}

func matchWeight(kind claims.MatchKind) float64 {
	switch kind {
	case claims.MatchImageExact:
		return weightImageExact
	case claims.MatchImageLikelySame:
		return weightImageLikelySame
	case claims.MatchImageSimilar:
		return weightImageSimilar
	case claims.MatchVINIssue:
		return weightVINIssue
	default:
		return 0
	}
}
