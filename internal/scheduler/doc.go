// Package scheduler runs the deadline sweeps.
//
// A sweep is a set of independent checks. Each check scans tasks or
// projects against the current calendar day and creates notifications
// through a ledger claim, so running a check again on the same day creates
// nothing new. The Runner executes checks concurrently and reports each
// check's count and error separately. The package holds no timer state of
// its own: sweeps are started by an HTTP trigger or by an optional Ticker.
package scheduler
