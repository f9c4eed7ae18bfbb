// Package store persists claims, image fingerprints, duplicate matches,
// benchmarks, and dealer statistics, and exposes the lookup helpers the
// analysis pipeline is built on.
//
// The Store manages database connections, schema initialization, heartbeat
// tracking, stuck-claim recovery, and status transitions that mirror the
// claim lifecycle enum. Two backends are supported behind the same API:
// SQLite for single-host deployments and PostgreSQL for shared ones; the
// backend is selected by configuration at open time, never detected at
// runtime. Queries are written once with ? placeholders and rebound for
// PostgreSQL.
//
// Analysis writes for one claim are grouped in a transaction via Begin so a
// failure never leaves a duplicate-match row without its parent claim row.
// Schema changes bump the version in schema.go; users clear the database to
// adopt the new schema.
package store
