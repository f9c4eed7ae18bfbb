// Package workflow advances warranty claims from intake through analysis.
//
// The Manager runs three kinds of goroutines: the intake watcher that reports
// stable documents in the spool, an ingest consumer that registers them as
// pending claims, and a pool of analysis workers that atomically claim pending
// work and run it through the fraud pipeline. Heartbeats stamped by in-flight
// workers let the manager reclaim claims whose worker died, and startup or
// shutdown returns interrupted claims to the pending pool.
//
// Failures are classified through the faults taxonomy: input defects mark the
// claim failed, store and transient errors requeue it. The manager also
// aggregates queue stats and emits batch, investigation, and error
// notifications.
package workflow
