// Package main hosts the Claimguard CLI entrypoint and command graph.
//
// The Cobra-based command tree works directly against the claim store: one-shot
// analysis of extracted claim documents, intake spool draining, result and
// dealer inspection, benchmark import, queue maintenance, database health, and
// configuration scaffolding. It centralizes configuration resolution and store
// access so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
