// Package pkg provides the core libraries for lightdesk, a lighting control
// daemon that renders cues onto pixel outputs.
//
// # Overview
//
// A stage holds a set of outputs (Art-Net universes, in-process virtual
// strips) and a set of cues. Each cue is a tree of render modules: fills,
// scans, chases, filters and modulators stacked on top of each other. The
// current cue is composited into every output on each tick, and the whole
// document is persisted to a store so the daemon comes back where it left
// off.
//
// # Architecture
//
// The data flow through lightdesk:
//
//	Stage document (JSON/YAML)
//	         ↓
//	    [config] package (module trees)
//	         ↓
//	    [reconcile] package (live instances, kept in step with the tree)
//	         ↓
//	    [compositor] package (layers blended per pixel)
//	         ↓
//	    [outputs] package (Art-Net packets, virtual frames)
//
// # Quick Start
//
// Build a stage with the built-in kinds and render a cue:
//
//	reg := reconcile.NewRegistry[stage.State](reconcile.Options{})
//	_ = kinds.Register(reg, kinds.Options[stage.State]{
//	    Playback: stage.PlaybackOf,
//	    Beat:     stage.BeatOf,
//	})
//
//	stg, _ := stage.New(stage.Options{
//	    Inputs:      reg,
//	    OutputKinds: outputs.All(outputs.Options{}),
//	    Store:       store.NewMemory(nil),
//	})
//	_ = stg.Load(ctx)
//	id, _ := stg.AddCue(ctx, "Warm")
//	_ = stg.SetCurrentCue(ctx, &id)
//
// # Main Packages
//
// ## Rendering
//
// [color] - Straight-alpha RGBA colors with source-over blending and hex
// encoding.
//
// [compositor] - The render contract: pixels with properties, layers, and
// compositors that stack layers and blend them onto a base color.
//
// [modules] - Primitive modules: fill, add, scan, chase, filter, modulate,
// sync, and the transition that crossfades between two layers.
//
// [tempo] - Tap tempo: taps become a repeating beat that beat inputs flash
// on.
//
// [playback] - Event playback state (play, pause, seek) and the value of an
// event at a given time.
//
// ## Configuration
//
// [config] - Module tree nodes with kind and raw config, plus YAML
// conversion and tree walks.
//
// [reconcile] - A registry of module kinds and the reconciler that mounts,
// updates and destroys instances as the tree changes.
//
// [kinds] - Registration of every built-in module kind.
//
// [desk] - The control surface a module exposes: groups, sliders, swatches
// and buttons.
//
// ## Runtime
//
// [stage] - The stage: outputs, cues and the current cue, with persistence
// and live replacement.
//
// [outputs] - Output kinds: Art-Net over UDP and the virtual preview strip.
//
// [scheduler] - Tick sources for outputs, real and manual.
//
// [clock] - Wall-clock abstraction for time-driven modules.
//
// [store] - Persistence backends for the stage document: file, bbolt,
// Redis, MongoDB and memory, with retries and throttled saves.
//
// ## Serving
//
// [server] - HTTP API and websocket frame stream for the stage.
//
// [settings] - The daemon settings file.
//
// [graph] - DOT and SVG diagrams of a stage document.
//
// ## Shared
//
// [errors] - Coded errors and validation helpers.
//
// [observability] - Hooks for reconcile, render and store events.
//
// [buildinfo] - Version information stamped at link time.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...              # All tests
//	go test ./pkg/modules/...      # Specific package
//	go test -race ./pkg/stage/...  # Stage locking
//
// [color]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/color
// [compositor]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/compositor
// [modules]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/modules
// [playback]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/playback
// [tempo]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/tempo
// [config]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/config
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/reconcile
// [kinds]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/kinds
// [desk]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/desk
// [stage]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/stage
// [outputs]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/outputs
// [scheduler]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/scheduler
// [clock]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/clock
// [store]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/store
// [server]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/server
// [settings]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/settings
// [graph]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/graph
// [errors]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/lightdesk/pkg/buildinfo
package pkg
