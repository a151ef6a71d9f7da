// Package modules implements the primitive render modules that are stacked
// into a compositing tree.
//
//   - [Fill] paints every pixel one color.
//   - [Add] composites its layers bottom to top with the "over" operator.
//   - [Scan] sweeps a soft-edged beam across the x axis.
//   - [Chase] cycles each pixel through a sequence of modules, each pixel at
//     its own phase.
//   - [Modulate] scales a child's opacity by a settable factor.
//   - [SyncModulate] scales a child's opacity by the amplitude of whatever
//     is currently playing.
//   - [Filter] routes each pixel to the first child whose predicate matches.
//   - [Transition] crossfades between modules pushed onto a stack.
//
// Time-driven modules read elapsed time from an injected [clock.Clock], never
// from a frame counter, so a late or skipped frame does not change the
// animation's speed.
//
// All modules are safe for concurrent use, but a tree is expected to be
// rendered by one goroutine at a time: [Chase], [Scan] and [Transition]
// advance internal state on every render.
package modules
