package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/lightdesk/pkg/config"
	"github.com/matzehuels/lightdesk/pkg/stage"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds each node's config to its label.
	Detailed bool
}

// maxConfigLabel truncates configs shown in detailed labels.
const maxConfigLabel = 60

// ToDOT converts a stage config to Graphviz DOT source.
func ToDOT(cfg stage.Config, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [label=%q, shape=ellipse];\n", "stage", fmt.Sprintf("stage\ndimmer %.0f%%", cfg.DimmerValue()*100))

	for _, id := range slices.Sorted(maps.Keys(cfg.Outputs)) {
		o := cfg.Outputs[id]
		label := titled(o.Name, id) + "\n" + o.Kind
		if opts.Detailed {
			label += "\n" + compact(o.Config)
		}
		node := "output:" + id
		fmt.Fprintf(&buf, "  %q [label=%q, shape=component];\n", node, label)
		fmt.Fprintf(&buf, "  %q -> %q;\n", "stage", node)
	}

	current := cfg.CurrentCue()
	cues := cfg.Cues()
	for _, id := range slices.Sorted(maps.Keys(cues)) {
		cue := cues[id]
		node := "cue:" + id
		attrs := []string{fmt.Sprintf("label=%q", "cue\n"+titled(cue.Name, id))}
		if id == current {
			attrs = append(attrs, "fillcolor=gold", "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", node, strings.Join(attrs, ", "))
		fmt.Fprintf(&buf, "  %q -> %q;\n", "stage", node)

		if cue.Module != nil {
			writeTree(&buf, node, node+"/module", cue.Module, "", opts)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeTree writes n as id, linked from parent, followed by its children.
func writeTree(buf *bytes.Buffer, parent, id string, n *config.Node, edge string, opts Options) {
	label := n.Kind
	if opts.Detailed {
		label += "\n" + compact(n.Config)
	}
	fmt.Fprintf(buf, "  %q [label=%q];\n", id, label)
	if edge != "" {
		fmt.Fprintf(buf, "  %q -> %q [label=%q];\n", parent, id, edge)
	} else {
		fmt.Fprintf(buf, "  %q -> %q;\n", parent, id)
	}
	for sub, child := range config.Children(n) {
		writeTree(buf, id, id+"/"+sub, child, sub, opts)
	}
}

func titled(name, id string) string {
	if name != "" {
		return name
	}
	return id
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if len(raw) == 0 {
		return "{}"
	}
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	s := buf.String()
	if len(s) > maxConfigLabel {
		s = s[:maxConfigLabel-3] + "..."
	}
	return s
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the SVG scales from its
// origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
