package mapview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ord = Point{Latitude: 41.9742, Longitude: -87.9073}

type fakeMarker struct {
	view  ViewID
	m     Marker
	attrs Attributes
}

// fakeBackend records calls. When hold is non-nil CreateView waits on it.
type fakeBackend struct {
	mu        sync.Mutex
	hold      chan struct{}
	createErr error
	nextID    int
	opts      []ViewOptions
	views     map[ViewID]bool
	markers   map[MarkerID]*fakeMarker
	updates   int
	destroyed []ViewID
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{views: map[ViewID]bool{}, markers: map[MarkerID]*fakeMarker{}}
}

func (f *fakeBackend) CreateView(ctx context.Context, opts ViewOptions) (ViewID, error) {
	f.mu.Lock()
	hold := f.hold
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	id := ViewID(f.nextID)
	f.views[id] = true
	return id, nil
}

func (f *fakeBackend) AddMarker(view ViewID, m Marker) (MarkerID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := MarkerID(f.nextID)
	f.markers[id] = &fakeMarker{view: view, m: m, attrs: m.Attributes}
	return id, nil
}

func (f *fakeBackend) UpdateMarkerAttributes(marker MarkerID, attrs Attributes) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fm, ok := f.markers[marker]
	if !ok {
		return errors.New("unknown marker")
	}
	fm.attrs = attrs
	f.updates++
	return nil
}

func (f *fakeBackend) DestroyView(view ViewID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.views, view)
	for id, m := range f.markers {
		if m.view == view {
			delete(f.markers, id)
		}
	}
	f.destroyed = append(f.destroyed, view)
	return nil
}

func (f *fakeBackend) onlyMarker(t *testing.T) (MarkerID, *fakeMarker) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.Len(t, f.markers, 1)
	for id, m := range f.markers {
		return id, m
	}
	return 0, nil
}

func waitReady(t *testing.T, w *Widget) {
	t.Helper()
	select {
	case <-w.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("map never became ready")
	}
}

func newTestWidget(b Backend, apiKey string) *Widget {
	return NewWidget(b, Options{Code: "ORD", Name: "O'Hare International Airport", Center: ord, APIKey: apiKey})
}

func TestMountCreatesViewAndMarker(t *testing.T) {
	b := newFakeBackend()
	w := newTestWidget(b, "")

	require.True(t, w.Mount(context.Background(), Attributes{Departures: 3, Arrivals: 5}))
	waitReady(t, w)
	require.True(t, w.Mounted())

	require.Len(t, b.opts, 1)
	assert.Equal(t, ord, b.opts[0].Center)
	assert.Equal(t, DefaultZoom, b.opts[0].Zoom)
	assert.Equal(t, BasemapOSM, b.opts[0].Basemap)

	_, m := b.onlyMarker(t)
	assert.Equal(t, Attributes{Departures: 3, Arrivals: 5}, m.attrs)
	assert.Equal(t, ord, m.m.Position)
	assert.Equal(t, "Departures: 3\nArrivals: 5\nClick refresh to update.",
		RenderPopup(m.m.Popup.Content, m.attrs.Fields()))
}

func TestUpdateKeepsMarkerIdentity(t *testing.T) {
	b := newFakeBackend()
	w := newTestWidget(b, "key")
	w.Mount(context.Background(), Attributes{Departures: 3, Arrivals: 5})
	waitReady(t, w)
	before, _ := b.onlyMarker(t)

	w.Update(Attributes{Departures: 3, Arrivals: 0})

	after, m := b.onlyMarker(t)
	assert.Equal(t, before, after)
	assert.Equal(t, 3, m.attrs.Departures)
	assert.Equal(t, 0, m.attrs.Arrivals)
	assert.Len(t, b.opts, 1)
	assert.Equal(t, BasemapLightGray, b.opts[0].Basemap)
	assert.Equal(t, 1, b.updates)

	w.Update(Attributes{Departures: 3, Arrivals: 0})
	assert.Equal(t, 1, b.updates, "unchanged counts are not pushed")
}

func TestDoubleMountGuard(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	w := newTestWidget(b, "")

	require.True(t, w.Mount(context.Background(), Attributes{}))
	assert.False(t, w.Mount(context.Background(), Attributes{}))
	close(b.hold)
	waitReady(t, w)
	assert.False(t, w.Mount(context.Background(), Attributes{}))

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.views, 1)
}

func TestUpdateBeforeReadyUsedAtCreation(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	w := newTestWidget(b, "")

	w.Mount(context.Background(), Attributes{Departures: 1, Arrivals: 1})
	w.Update(Attributes{Departures: 7, Arrivals: 2})
	close(b.hold)
	waitReady(t, w)

	_, m := b.onlyMarker(t)
	assert.Equal(t, Attributes{Departures: 7, Arrivals: 2}, m.attrs)
}

func TestUnmountAndRemount(t *testing.T) {
	b := newFakeBackend()
	w := newTestWidget(b, "")
	w.Mount(context.Background(), Attributes{Departures: 1})
	waitReady(t, w)

	w.Unmount()
	assert.False(t, w.Mounted())
	b.mu.Lock()
	assert.Empty(t, b.views)
	assert.Len(t, b.destroyed, 1)
	b.mu.Unlock()

	w.Update(Attributes{Departures: 2})
	assert.Equal(t, 0, b.updates)

	require.True(t, w.Mount(context.Background(), Attributes{Departures: 4}))
	waitReady(t, w)
	_, m := b.onlyMarker(t)
	assert.Equal(t, 4, m.attrs.Departures)
	assert.Len(t, b.opts, 2)
}

func TestUnmountDuringLoadDiscardsView(t *testing.T) {
	b := newFakeBackend()
	b.hold = make(chan struct{})
	w := newTestWidget(b, "")

	ready := func() <-chan struct{} {
		w.Mount(context.Background(), Attributes{})
		return w.Ready()
	}()
	w.Unmount()
	close(b.hold)
	<-ready

	assert.False(t, w.Mounted())
	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.views)
	assert.Empty(t, b.markers)
}

func TestMountFailureAllowsRetry(t *testing.T) {
	b := newFakeBackend()
	b.createErr = errors.New("tiles unavailable")
	w := newTestWidget(b, "")

	w.Mount(context.Background(), Attributes{})
	waitReady(t, w)
	assert.False(t, w.Mounted())
	assert.Error(t, w.Err())

	b.mu.Lock()
	b.createErr = nil
	b.mu.Unlock()

	require.True(t, w.Mount(context.Background(), Attributes{}))
	waitReady(t, w)
	assert.True(t, w.Mounted())
	assert.NoError(t, w.Err())
}

func TestBasemapAndPopup(t *testing.T) {
	assert.Equal(t, BasemapOSM, Basemap(""))
	assert.Equal(t, BasemapOSM, Basemap("  "))
	assert.Equal(t, BasemapLightGray, Basemap("abc"))

	p := AirportPopup("ORD", "O'Hare")
	assert.Equal(t, "ORD · O'Hare", p.Title)
	assert.Equal(t, "Departures: 2\nArrivals: 9\nClick refresh to update.",
		RenderPopup(p.Content, Attributes{Departures: 2, Arrivals: 9}.Fields()))
}
