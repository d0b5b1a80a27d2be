// Package logtail reads the end of the wakubase log file and renders its
// zerolog JSON lines for people.
//
// Read returns the last N lines. It reads the file backwards in fixed-size
// chunks and stops once enough newlines are in hand, so a large rolled log
// costs no more than its tail. A missing file is not an error; there is
// simply nothing to show yet.
//
// Parse turns one JSON line into an Entry and String renders it compactly:
//
//	{"level":"warn","topic":"t","time":"2026-10-16T09:30:05Z","message":"node health check failed"}
//	09:30:05 WRN node health check failed topic=t
//
// Extra fields are sorted by key. Lines that are not JSON (a panic trace,
// say) are passed through unchanged.
package logtail
