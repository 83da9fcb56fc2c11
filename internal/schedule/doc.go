// Package schedule owns the set of pending delivery jobs and their
// execution units.
//
// # Model
//
// Every scheduled job gets exactly one execution unit (goroutine). The unit
// waits until the corrected due time, delivers once through the facade, and
// reports the outcome on the event bus. Cancellation interrupts the wait
// and terminates the unit without side effects.
//
// A periodic cleanup sweep reaps finished units (surfacing any unit error
// into the log) and drops pending job records whose due time has passed.
// The sweep is a safety net: normally a unit removes its own job record on
// completion.
//
// # Lifecycle
//
// The service must be started before jobs can be scheduled. Stop cancels
// every outstanding unit and blocks until all of them reach a terminal
// state, bounded by the caller's context.
package schedule
