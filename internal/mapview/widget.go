// Package mapview drives the airport map: one view centred on the airport
// with a single marker whose attributes track the summary counts.
package mapview

import (
	"context"
	"log/slog"
	"sync"
)

// Options configures a Widget.
type Options struct {
	Code   string
	Name   string
	Center Point
	Zoom   int
	APIKey string
	Logger *slog.Logger
}

// Widget owns at most one map view and its airport marker.
type Widget struct {
	backend Backend
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	gen     uint64
	loading bool
	view    *ViewID
	marker  *MarkerID
	attrs   Attributes
	pushed  Attributes
	ready   chan struct{}
	lastErr error
}

// NewWidget creates an unmounted widget.
func NewWidget(backend Backend, opts Options) *Widget {
	if opts.Zoom == 0 {
		opts.Zoom = DefaultZoom
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ready := make(chan struct{})
	close(ready)
	return &Widget{
		backend: backend,
		opts:    opts,
		logger:  opts.Logger.With("component", "map"),
		ready:   ready,
	}
}

// Mount starts creating the view in the background. It returns false when
// a view already exists or is being created.
func (w *Widget) Mount(ctx context.Context, attrs Attributes) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.view != nil || w.loading {
		return false
	}
	w.gen++
	w.loading = true
	w.attrs = attrs
	w.lastErr = nil
	w.ready = make(chan struct{})

	go w.initView(ctx, w.gen, w.ready)
	return true
}

func (w *Widget) initView(ctx context.Context, gen uint64, ready chan struct{}) {
	defer close(ready)

	opts := ViewOptions{
		Center:  w.opts.Center,
		Zoom:    w.opts.Zoom,
		Basemap: Basemap(w.opts.APIKey),
		APIKey:  w.opts.APIKey,
	}
	view, err := w.backend.CreateView(ctx, opts)

	w.mu.Lock()
	defer w.mu.Unlock()

	if gen != w.gen {
		// Unmounted while loading.
		if err == nil {
			w.destroy(view)
		}
		return
	}
	w.loading = false
	if err != nil {
		w.lastErr = err
		w.logger.Warn("map view creation failed", "error", err)
		return
	}

	marker, err := w.backend.AddMarker(view, Marker{
		Position:   w.opts.Center,
		Symbol:     AirportSymbol,
		Attributes: w.attrs,
		Popup:      AirportPopup(w.opts.Code, w.opts.Name),
	})
	if err != nil {
		w.lastErr = err
		w.logger.Warn("airport marker creation failed", "error", err)
		w.destroy(view)
		return
	}

	w.view = &view
	w.marker = &marker
	w.pushed = w.attrs
	w.logger.Info("map ready", "basemap", opts.Basemap, "zoom", opts.Zoom)
}

// Update records the latest counts and pushes them onto the existing
// marker. Before the view exists the counts are kept for its creation.
func (w *Widget) Update(attrs Attributes) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.attrs = attrs
	if w.marker == nil || attrs == w.pushed {
		return
	}
	if err := w.backend.UpdateMarkerAttributes(*w.marker, attrs); err != nil {
		w.logger.Warn("marker update failed", "error", err)
		return
	}
	w.pushed = attrs
}

// Unmount destroys the view and forgets it, so a later Mount starts over.
// A creation still in flight is discarded when it completes.
func (w *Widget) Unmount() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen++
	w.loading = false
	if w.view != nil {
		w.destroy(*w.view)
	}
	w.view = nil
	w.marker = nil
	w.pushed = Attributes{}
}

func (w *Widget) destroy(view ViewID) {
	if err := w.backend.DestroyView(view); err != nil {
		w.logger.Warn("map view teardown failed", "error", err)
	}
}

// Ready returns a channel closed once the latest Mount has finished.
func (w *Widget) Ready() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

// Mounted reports whether a view currently exists.
func (w *Widget) Mounted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view != nil
}

// Err returns the error of the last failed Mount, if any.
func (w *Widget) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}
