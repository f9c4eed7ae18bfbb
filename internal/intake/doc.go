// Package intake feeds extraction documents into the claim queue. It decodes
// the extractor's JSON contract, archives accepted documents, parks rejected
// ones in a failed spool with a reason file, and watches the intake directory
// for new arrivals with a write-quiet debounce.
package intake
