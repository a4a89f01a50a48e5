// Package supervisor owns every asynchronously-scheduled unit of work in the
// bot: recurring weekly jobs, cron-style loops, and one-shot delayed posts.
//
// Creation requests flow through a single FIFO queue drained by one loop, so
// name collisions resolve deterministically: the previous task under a name
// is cancelled and awaited before its replacement is installed. Completed
// tasks remove themselves with compare-and-delete semantics, which keeps the
// hot completion path off the creation lock without racing a
// cancel-then-replace sequence.
package supervisor
