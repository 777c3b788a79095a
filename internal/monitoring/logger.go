// Package monitoring holds the diagnostic logger shared by the report pipeline.
package monitoring

import "log"

// Logf receives progress and skip messages from the pipeline packages. It
// defaults to log.Printf and may be swapped with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil mutes it.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Skipf reports an optional artefact that is missing and left out of the run.
func Skipf(kind, path string) {
	Logf("skipping %s %s: not found", kind, path)
}
