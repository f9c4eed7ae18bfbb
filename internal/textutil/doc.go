// Package textutil provides the tokenization and set-similarity helpers used
// to compare claim issue descriptions.
package textutil
