// Package daemon coordinates the long-running Claimguard process.
//
// It wires configuration, the claim store, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances per
// data directory. Startup runs the preflight checks and refuses to begin
// processing until the environment passes; shutdown stops the workers and
// releases the lock. The lock probe is exported so the CLI can report whether
// a daemon is running without attaching to it.
//
// Keep orchestration logic here: analysis steps live in their own packages
// while the daemon focuses on startup, shutdown, and status reporting.
package daemon
