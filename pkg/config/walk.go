package config

import (
	"encoding/json"
	"iter"
	"slices"
	"strconv"
)

// Children yields the nodes embedded directly in n's config, keyed by
// their position inside it ("input", "0", "2/input"). Nodes nested inside
// those children are not yielded; walk them in turn.
//
// A child is any JSON object holding a string "kind" and nothing but an
// optional "config" besides.
func Children(n *Node) iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		if n == nil || len(n.Config) == 0 {
			return
		}
		var v any
		if json.Unmarshal(n.Config, &v) != nil {
			return
		}
		children(v, "", yield)
	}
}

func children(v any, path string, yield func(string, *Node) bool) bool {
	switch v := v.(type) {
	case map[string]any:
		if child, ok := asNode(v); ok {
			return yield(path, child)
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if !children(v[k], join(path, k), yield) {
				return false
			}
		}
	case []any:
		for i, item := range v {
			if !children(item, join(path, strconv.Itoa(i)), yield) {
				return false
			}
		}
	}
	return true
}

func asNode(m map[string]any) (*Node, bool) {
	kind, ok := m["kind"].(string)
	if !ok {
		return nil, false
	}
	for k := range m {
		if k != "kind" && k != "config" {
			return nil, false
		}
	}
	n := &Node{Kind: kind}
	if cfg, ok := m["config"]; ok {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return nil, false
		}
		n.Config = raw
	}
	return n, true
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "/" + elem
}

// Walk calls fn for n and every node nested below it, depth first. path
// is the node's position below root, "" for n itself. Returning false from
// fn skips the node's children.
func Walk(n *Node, fn func(path string, n *Node) bool) {
	walk("", n, fn)
}

func walk(path string, n *Node, fn func(string, *Node) bool) {
	if n == nil || !fn(path, n) {
		return
	}
	for sub, child := range Children(n) {
		walk(join(path, sub), child, fn)
	}
}
