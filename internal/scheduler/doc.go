// Package scheduler runs a playback action on a fixed, re-readable cadence.
//
// # Lifecycle
//
// A Scheduler is either Idle or Running. Start moves it to Running and computes
// the first fire time; Stop moves it back to Idle and discards the pending fire.
// Both are idempotent and never block on an in-flight playback.
//
// # Cycles
//
// Each cycle reads a fresh Config from the ConfigSource, so an interval edited
// while a cycle is pending only applies to the cycle after it. The loop polls
// the clock every PollInterval instead of sleeping for the whole interval, which
// bounds how late a fire or a cancellation can be observed.
//
// Playback runs on the loop goroutine: the next cycle is scheduled only after
// the action returns. Failures and panics inside the action are logged and
// recorded; they never stop the loop.
//
// # Observers
//
// The Observer is called synchronously on every transition and every time a
// new fire time is computed. It must return quickly and must not call Start or
// Stop.
package scheduler
