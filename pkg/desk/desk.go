// Package desk describes the control surface: a tree of titled groups and
// labels that live instances mount while they exist and unmount when they
// are destroyed. The tree is a description only; rendering it is up to the
// consumer (the HTTP API serves it as JSON).
package desk

import (
	"slices"
	"sync"
)

// Component is anything that can be mounted in a Group.
type Component interface {
	Describe() Node
}

// Node is the serializable snapshot of a component.
type Node struct {
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Group is a titled container of components.
type Group struct {
	mu       sync.RWMutex
	title    string
	children []Component
}

// NewGroup returns an empty group.
func NewGroup(title string) *Group {
	return &Group{title: title}
}

// SetTitle renames the group.
func (g *Group) SetTitle(title string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.title = title
}

// Title returns the group title.
func (g *Group) Title() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.title
}

// Add mounts components at the end of the group. Nil components are
// skipped.
func (g *Group) Add(cs ...Component) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, c := range cs {
		if c != nil {
			g.children = append(g.children, c)
		}
	}
}

// Remove unmounts c. It reports whether c was mounted.
func (g *Group) Remove(c Component) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := slices.Index(g.children, c)
	if i < 0 {
		return false
	}
	g.children = slices.Delete(g.children, i, i+1)
	return true
}

// Clear unmounts every child.
func (g *Group) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.children = nil
}

// Len returns the number of mounted children.
func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.children)
}

func (g *Group) Describe() Node {
	g.mu.RLock()
	title := g.title
	children := slices.Clone(g.children)
	g.mu.RUnlock()

	n := Node{Type: "group", Title: title}
	for _, c := range children {
		n.Children = append(n.Children, c.Describe())
	}
	return n
}

// Label is a line of text.
type Label struct {
	mu   sync.RWMutex
	text string
}

// NewLabel returns a label showing text.
func NewLabel(text string) *Label {
	return &Label{text: text}
}

// SetText replaces the label text.
func (l *Label) SetText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = text
}

func (l *Label) Describe() Node {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Node{Type: "label", Text: l.text}
}
