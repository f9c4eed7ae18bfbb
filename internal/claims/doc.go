// Package claims defines the domain model shared across Claimguard: claims,
// evidence images, duplicate matches, fraud signals, benchmarks, dealer
// statistics, and the analysis result contract.
//
// Types here are plain data with small derivation helpers (claim IDs, issue
// classification, lenient date parsing). Persistence lives in internal/store
// and business rules live in the dedupe, signals, and risk packages.
package claims
