// Package classifier moderates user-provided text through the LLM sidecar.
// Callers treat a failed request the same as a non-compliant verdict, so an
// unreachable model never lets unmoderated text through.
package classifier
