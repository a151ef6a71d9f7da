package reconcile

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/lightdesk/pkg/compositor"
	"github.com/matzehuels/lightdesk/pkg/config"
)

// List is an index-keyed run of child sockets.
type List[S any] struct {
	reg     *Registry[S]
	path    string
	save    func(i int, n *config.Node)
	sockets []*Socket[S]
}

// NewList returns an empty list at path. save, if not nil, receives child
// saves along with the child's index.
func NewList[S any](reg *Registry[S], path string, save func(i int, n *config.Node)) *List[S] {
	return &List[S]{reg: reg, path: path, save: save}
}

// NewList returns a child list below this instance.
func (e Env[S]) NewList(name string, save func(i int, n *config.Node)) *List[S] {
	return NewList(e.Registry, e.Path+"/"+name, save)
}

// Apply converges the list on nodes: trailing sockets beyond len(nodes) are
// destroyed, missing ones are created, and each node is applied to the
// socket at its index. Errors from every position are joined.
func (l *List[S]) Apply(ctx context.Context, nodes []*config.Node) error {
	var errs []error
	for len(l.sockets) > len(nodes) {
		last := l.sockets[len(l.sockets)-1]
		l.sockets = l.sockets[:len(l.sockets)-1]
		errs = append(errs, last.Destroy(ctx))
	}
	for i, n := range nodes {
		if i == len(l.sockets) {
			l.sockets = append(l.sockets, NewSocket(l.reg, fmt.Sprintf("%s/%d", l.path, i), l.saver(i)))
		}
		errs = append(errs, l.sockets[i].Apply(ctx, n))
	}
	return errors.Join(errs...)
}

func (l *List[S]) saver(i int) func(*config.Node) {
	return func(n *config.Node) {
		if l.save != nil {
			l.save(i, n)
		}
	}
}

// Len returns the number of sockets.
func (l *List[S]) Len() int { return len(l.sockets) }

// Sockets returns the sockets in order.
func (l *List[S]) Sockets() []*Socket[S] { return slices.Clone(l.sockets) }

// Modules returns each socket's module in order.
func (l *List[S]) Modules() []compositor.Module[S] {
	out := make([]compositor.Module[S], len(l.sockets))
	for i, s := range l.sockets {
		out[i] = s.Module()
	}
	return out
}

// Destroy destroys every socket. A failure does not stop the others.
func (l *List[S]) Destroy(ctx context.Context) error {
	var errs []error
	for _, s := range l.sockets {
		errs = append(errs, s.Destroy(ctx))
	}
	l.sockets = nil
	return errors.Join(errs...)
}

// Map is a key-addressed set of child sockets.
type Map[S any] struct {
	reg     *Registry[S]
	path    string
	save    func(key string, n *config.Node)
	sockets map[string]*Socket[S]
}

// NewMap returns an empty map at path.
func NewMap[S any](reg *Registry[S], path string, save func(key string, n *config.Node)) *Map[S] {
	return &Map[S]{reg: reg, path: path, save: save, sockets: make(map[string]*Socket[S])}
}

// NewMap returns a child map below this instance.
func (e Env[S]) NewMap(name string, save func(key string, n *config.Node)) *Map[S] {
	return NewMap(e.Registry, e.Path+"/"+name, save)
}

// Apply converges the map on nodes by key set: keys missing from nodes are
// destroyed, new keys get fresh sockets, and every node is applied to its
// key's socket.
func (m *Map[S]) Apply(ctx context.Context, nodes map[string]*config.Node) error {
	var errs []error
	for _, key := range m.Keys() {
		if _, ok := nodes[key]; !ok {
			errs = append(errs, m.sockets[key].Destroy(ctx))
			delete(m.sockets, key)
		}
	}
	keys := make([]string, 0, len(nodes))
	for key := range nodes {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		s, ok := m.sockets[key]
		if !ok {
			s = NewSocket(m.reg, m.path+"/"+key, m.saver(key))
			m.sockets[key] = s
		}
		errs = append(errs, s.Apply(ctx, nodes[key]))
	}
	return errors.Join(errs...)
}

func (m *Map[S]) saver(key string) func(*config.Node) {
	return func(n *config.Node) {
		if m.save != nil {
			m.save(key, n)
		}
	}
}

// Get returns the socket for key.
func (m *Map[S]) Get(key string) (*Socket[S], bool) {
	s, ok := m.sockets[key]
	return s, ok
}

// Keys returns the keys in sorted order.
func (m *Map[S]) Keys() []string {
	keys := make([]string, 0, len(m.sockets))
	for k := range m.sockets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Len returns the number of sockets.
func (m *Map[S]) Len() int { return len(m.sockets) }

// Destroy destroys every socket. A failure does not stop the others.
func (m *Map[S]) Destroy(ctx context.Context) error {
	var errs []error
	for _, key := range m.Keys() {
		errs = append(errs, m.sockets[key].Destroy(ctx))
	}
	clear(m.sockets)
	return errors.Join(errs...)
}
