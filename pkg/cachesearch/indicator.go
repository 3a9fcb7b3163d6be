package cachesearch

import "go.uber.org/atomic"

// searching is the process-wide "is any cache search in flight" counter
// (component I). It gates an external write-ahead-file cleaner that
// must never delete a file out from under a running query; this
// package's only contract with that cleaner is IsSearching.
var searching atomic.Int64

// IsSearching reports whether at least one Search call is currently in
// flight anywhere in the process.
func IsSearching() bool {
	return searching.Load() > 0
}

// acquire raises the indicator and returns a release func. Every
// Search call defers release() immediately after acquiring, so every
// exit path - success or error - decrements exactly once.
func acquire() (release func()) {
	searching.Inc()
	return func() { searching.Dec() }
}
