// Package scheduler provides scheduled job management for the screener
// backend. It runs the default screening preset nightly after market close
// and persists the results for the run-history API.
//
// The jobs are implemented in jobs.go
package scheduler
