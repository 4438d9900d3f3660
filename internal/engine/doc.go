// Package engine implements the caremini band's runtime core.
//
// The engine owns the band's local clock, the reminder store, the alert
// state machine, and the scheduler that drives them.
//
// ARCHITECTURE:
//
// Three long-lived loops plus one asynchronous submit path:
//
//  1. Clock loop (1s, phase-locked): advances the clock, evaluates reminder
//     matches, paces alert actuators, signals a presentation refresh.
//  2. Presentation loop: wakes on the refresh signal (or a 500ms fallback)
//     and hands a frame to the renderer.
//  3. Channel loop (~25ms): tracks link connect/disconnect transitions,
//     sends the post-connect reminder-list broadcast, and is the sole
//     consumer of the command queue.
//
// Inbound commands from the link callback are enqueued to a bounded queue
// and applied by the channel loop, so clock state only ever has two writers
// (clock loop, channel loop) and those serialize on the time lock.
//
// Locking:
// Two advisory locks with bounded acquisition: the time lock (clock,
// reminder store, trigger flags) and the presentation lock (renderer,
// cached frame). A failed acquisition never blocks a loop; the loop skips
// the cycle or falls back to its cached value and retries next time.
// Actuator writes always happen outside the time lock.
package engine
