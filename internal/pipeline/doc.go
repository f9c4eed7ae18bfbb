// Package pipeline orchestrates the analysis of one extracted claim:
// fingerprint images, filter templates, detect duplicates, evaluate fraud
// rules, and aggregate everything into a risk score and triage class. All
// writes for a claim happen in one store transaction, so downstream readers
// only ever see claims that are fully analyzed or untouched.
package pipeline
