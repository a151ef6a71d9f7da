// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries report events through the registered hooks; the defaults do
// nothing. The CLI installs log-backed hooks in verbose mode, and embedders
// can install their own (Prometheus, OpenTelemetry, ...) at startup:
//
//	observability.SetReconcileHooks(&myHooks{})
//
// Libraries call hooks to emit events:
//
//	observability.Reconcile().OnCreate(ctx, path, kind, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from output render ticks.
type RenderHooks interface {
	// OnFrame records one rendered frame for an output.
	OnFrame(ctx context.Context, output string, pixels int, duration time.Duration)

	// OnTransportError records a failure handing a frame to a transport.
	OnTransportError(ctx context.Context, output string, err error)
}

// =============================================================================
// Reconcile Hooks
// =============================================================================

// ReconcileHooks receives instance lifecycle events from the reconciler.
// path identifies the tree position, e.g. "cues/3f1c.../layers/0".
type ReconcileHooks interface {
	OnCreate(ctx context.Context, path, kind string, err error)
	OnUpdate(ctx context.Context, path, kind string, err error)
	OnDestroy(ctx context.Context, path, kind string, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from config persistence.
type StoreHooks interface {
	OnLoad(ctx context.Context, backend string, size int, duration time.Duration, err error)
	OnSave(ctx context.Context, backend string, size int, duration time.Duration, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnFrame(context.Context, string, int, time.Duration) {}
func (NoopRenderHooks) OnTransportError(context.Context, string, error)     {}

// NoopReconcileHooks is a no-op implementation of ReconcileHooks.
type NoopReconcileHooks struct{}

func (NoopReconcileHooks) OnCreate(context.Context, string, string, error)  {}
func (NoopReconcileHooks) OnUpdate(context.Context, string, string, error)  {}
func (NoopReconcileHooks) OnDestroy(context.Context, string, string, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnLoad(context.Context, string, int, time.Duration, error) {}
func (NoopStoreHooks) OnSave(context.Context, string, int, time.Duration, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks    RenderHooks    = NoopRenderHooks{}
	reconcileHooks ReconcileHooks = NoopReconcileHooks{}
	storeHooks     StoreHooks     = NoopStoreHooks{}
	hooksMu        sync.RWMutex
)

// SetRenderHooks registers render hooks. Nil is ignored.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetReconcileHooks registers reconcile hooks. Nil is ignored.
func SetReconcileHooks(h ReconcileHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		reconcileHooks = h
	}
}

// SetStoreHooks registers store hooks. Nil is ignored.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Reconcile returns the registered reconcile hooks.
func Reconcile() ReconcileHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return reconcileHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	reconcileHooks = NoopReconcileHooks{}
	storeHooks = NoopStoreHooks{}
}
