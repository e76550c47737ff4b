// Package loadgen runs the load: a pool of simulated browser users, each
// with its own session, executing weighted scenario tasks sequentially with
// think time between iterations. One goroutine per user; the only state
// shared across users is the metrics engine.
package loadgen
