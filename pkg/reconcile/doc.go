// Package reconcile keeps a live tree of module instances in step with a
// configuration tree.
//
// # Kinds and instances
//
// A [Kind] is registered under a name in a [Registry]. When a [config.Node]
// of that kind appears at a tree position, the kind's Create function builds
// an [Instance]. The instance exposes a render module, an optional control
// surface component, and a Destroy hook.
//
// # Sockets
//
// A [Socket] is one tree position. Applying a node to it:
//
//   - creates an instance the first time a kind appears, and fades its
//     module in;
//   - passes new config to the existing instance when only the config
//     changed, with no fade;
//   - fades to transparent and destroys the instance when the kind changes
//     or the node is removed, then creates the new kind if there is one;
//   - does nothing when the node equals the last one applied.
//
// The socket's own module is a [modules.Transition] that never changes, so
// parents can hold on to it across child replacements.
//
// Composite kinds hold child sockets, usually through a [List] or a [Map],
// and apply their nested nodes to them from SetConfig. The same rules then
// hold at every depth.
//
// # Concurrency
//
// Sockets are not safe for concurrent use. Callers serialize Apply, Destroy
// and rendering of the tree, typically with one mutex per tree.
package reconcile
