// Package graph renders a stage config as a node-link diagram: the stage
// at the top, its outputs and cues below it, and each cue's module tree
// below the cue.
//
// Convert a config to DOT, then render it to SVG in process:
//
//	dot := graph.ToDOT(cfg, graph.Options{Detailed: true})
//	svg, err := graph.RenderSVG(ctx, dot)
//
// The DOT source can also be saved and processed with external Graphviz
// tools. The current cue is filled so it stands out.
//
// This package uses [github.com/goccy/go-graphviz] for SVG rendering.
package graph
