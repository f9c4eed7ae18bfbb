// Package preflight provides readiness checks for the filesystem paths and
// services the analysis daemon depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll once at startup and refuses to begin processing
//     when a check fails, so misconfiguration surfaces before claims queue up.
//   - The CLI "claimguard status" command uses the same checks to display
//     operational health.
//
// Checks never mutate state: the notification check probes the endpoint
// without publishing and the database check only reads schema metadata.
package preflight
