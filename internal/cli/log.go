package cli

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/lightdesk/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Opened redis store (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Observability
// =============================================================================

// logHooks reports render, reconcile and store events at debug level.
// Frames are too frequent to log one by one, so they are counted and
// summarized per output every frameSummary.
type logHooks struct {
	logger *log.Logger

	mu     sync.Mutex
	frames map[string]*frameCount
}

type frameCount struct {
	n     int
	total time.Duration
	since time.Time
}

const frameSummary = 10 * time.Second

func registerLogHooks(l *log.Logger) {
	h := &logHooks{logger: l, frames: make(map[string]*frameCount)}
	observability.SetRenderHooks(h)
	observability.SetReconcileHooks(h)
	observability.SetStoreHooks(h)
}

func (h *logHooks) OnFrame(_ context.Context, output string, pixels int, d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fc, ok := h.frames[output]
	if !ok {
		fc = &frameCount{since: time.Now()}
		h.frames[output] = fc
	}
	fc.n++
	fc.total += d
	if elapsed := time.Since(fc.since); elapsed >= frameSummary {
		h.logger.Debug("frames", "output", output, "pixels", pixels, "count", fc.n,
			"avg", (fc.total / time.Duration(fc.n)).Round(time.Microsecond))
		*fc = frameCount{since: time.Now()}
	}
}

func (h *logHooks) OnTransportError(_ context.Context, output string, err error) {
	h.logger.Warn("transport error", "output", output, "err", err)
}

func (h *logHooks) OnCreate(_ context.Context, path, kind string, err error) {
	h.lifecycle("create", path, kind, err)
}

func (h *logHooks) OnUpdate(_ context.Context, path, kind string, err error) {
	h.lifecycle("update", path, kind, err)
}

func (h *logHooks) OnDestroy(_ context.Context, path, kind string, err error) {
	h.lifecycle("destroy", path, kind, err)
}

func (h *logHooks) lifecycle(op, path, kind string, err error) {
	if err != nil {
		h.logger.Warn(op, "path", path, "kind", kind, "err", err)
		return
	}
	h.logger.Debug(op, "path", path, "kind", kind)
}

func (h *logHooks) OnLoad(_ context.Context, backend string, size int, d time.Duration, err error) {
	h.logger.Debug("store load", "backend", backend, "bytes", size, "took", d.Round(time.Microsecond), "err", err)
}

func (h *logHooks) OnSave(_ context.Context, backend string, size int, d time.Duration, err error) {
	h.logger.Debug("store save", "backend", backend, "bytes", size, "took", d.Round(time.Microsecond), "err", err)
}
