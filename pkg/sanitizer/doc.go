// Package sanitizer normalizes free-text user input before validation and
// storage. Every function is idempotent.
package sanitizer
