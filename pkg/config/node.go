// Package config defines the serialized form of a module tree: nodes that
// pair a kind name with that kind's own configuration.
//
// A nil *Node means nothing is configured at that position. Composite kinds
// embed child nodes in their configuration, which makes the whole document
// a tree.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Node is one configured module.
type Node struct {
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
}

// New returns a node of kind with cfg marshaled as its config.
func New(kind string, cfg any) (*Node, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s config: %w", kind, err)
	}
	return &Node{Kind: kind, Config: raw}, nil
}

// MustNew is like New but panics on error. It is meant for literals in
// tests and defaults.
func MustNew(kind string, cfg any) *Node {
	n, err := New(kind, cfg)
	if err != nil {
		panic(err)
	}
	return n
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	return &Node{Kind: n.Kind, Config: bytes.Clone(n.Config)}
}

// Equal reports whether a and b describe the same configuration. Configs
// are compared by value, so key order and whitespace do not matter.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind && RawEqual(a.Config, b.Config)
}

// RawEqual reports whether two JSON documents hold the same value. Empty
// input and "null" are equal.
func RawEqual(a, b json.RawMessage) bool {
	a, b = normalize(a), normalize(b)
	if bytes.Equal(a, b) {
		return true
	}
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func normalize(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if len(bytes.TrimSpace(raw)) == 0 || json.Compact(&buf, raw) != nil {
		return json.RawMessage("null")
	}
	return buf.Bytes()
}

// Decode unmarshals raw into a copy of def. Fields raw does not mention keep
// their default; unknown fields are an error.
func Decode[T any](raw json.RawMessage, def T) (T, error) {
	out := def
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return def, err
	}
	return out, nil
}
