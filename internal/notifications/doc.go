// Package notifications delivers workflow events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set. The
// per-category flags in the notifications config section suppress individual
// notification kinds (analysis summaries, investigation alerts, errors)
// without disabling the service.
//
// Extend this package if you need alternative transports; all workflow code
// depends only on the simple Service interface.
package notifications
