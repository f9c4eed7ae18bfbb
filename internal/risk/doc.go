// Package risk folds fraud signals and duplicate matches into a single
// capped risk score and routes each claim to a triage class. Scoring is
// pure: it reads nothing but the findings handed to it, so the same inputs
// always produce the same assessment.
package risk
