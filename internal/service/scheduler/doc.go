// Package scheduler owns the set of alarms and the concurrent monitors that
// fire them.
//
// Registry is the single serialization point for alarm state: UI-facing calls
// (Add, Cancel, StartChallenge, SubmitAnswer) and monitor-driven transitions all
// take its mutex, so a cancellation can never race an alarm that is firing.
// Each alarm gets its own monitor goroutine that polls the clock once per tick,
// starts the sound and a challenge session when the target minute arrives, and
// retires the alarm once the challenge is solved.
package scheduler
