// Package sound plays alarm and timer ringtones.
//
// Player is the collaborator interface the alarm monitors and the timer engine
// depend on. ExecPlayer drives the operating system's stock command-line audio
// tool and keeps a single sound audible at a time.
package sound
