package locations

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// memStore enforces triplet uniqueness like the unique index does.
type memStore struct {
	mu     sync.Mutex
	rows   map[string]*entity.Location
	nextID int64
	// raceOnInsert makes the next insert lose to a row with these coordinates.
	raceOnInsert *entity.Coordinates
	findErr      error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]*entity.Location{}}
}

func key(s, d, v string) string { return s + "|" + d + "|" + v }

func (m *memStore) FindByTriplet(_ context.Context, s, d, v string) (*entity.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if row, ok := m.rows[key(s, d, v)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) UpdateCoordinates(_ context.Context, id int64, lat, lon float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id && (row.Lat == nil || row.Lon == nil) {
			row.Lat, row.Lon = &lat, &lon
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) InsertIfAbsent(_ context.Context, loc *entity.Location) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key(loc.State, loc.District, loc.Village)
	if m.raceOnInsert != nil {
		m.nextID++
		lat, lon := m.raceOnInsert.Lat, m.raceOnInsert.Lon
		m.rows[k] = &entity.Location{ID: m.nextID, State: loc.State, District: loc.District, Village: loc.Village, Lat: &lat, Lon: &lon}
		m.raceOnInsert = nil
	}
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	m.nextID++
	cp := *loc
	cp.ID = m.nextID
	m.rows[k] = &cp
	loc.ID = cp.ID
	return true, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type fakeGeocoder struct {
	calls  atomic.Int32
	result *entity.Coordinates
	err    error
	last   string
}

func (f *fakeGeocoder) Search(_ context.Context, q string) (*entity.Coordinates, error) {
	f.calls.Add(1)
	f.last = q
	return f.result, f.err
}

func ptr(c entity.Coordinates) *entity.Coordinates { return &c }

func TestCanonicalize_IdempotentWithoutCoordinates(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, nil)

	first := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", nil)
	second := c.Canonicalize(context.Background(), " madhya  pradesh", "SEHORE", "budhni ", nil)

	assert.Equal(t, ActionInserted, first.Action)
	assert.Equal(t, ActionExisting, second.Action)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, first.Location.ID, second.Location.ID)
	assert.False(t, second.Location.HasCoordinates())
}

func TestCanonicalize_NeverOverwritesCoordinates(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, nil)
	require.Equal(t, ActionInserted, c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 21.0, Lon: 79.0})).Action)

	res := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 22.0, Lon: 80.0}))

	assert.Equal(t, ActionExisting, res.Action)
	row, err := store.FindByTriplet(context.Background(), "Madhya Pradesh", "Sehore", "Budhni")
	require.NoError(t, err)
	assert.Equal(t, 21.0, *row.Lat)
	assert.Equal(t, 79.0, *row.Lon)
}

func TestCanonicalize_FillsMissingCoordinates(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, nil)
	c.Canonicalize(context.Background(), "Odisha", "Mayurbhanj", "Jashipur", nil)

	res := c.Canonicalize(context.Background(), "Odisha", "Mayurbhanj", "Jashipur", ptr(entity.Coordinates{Lat: 21.97, Lon: 86.07}))

	assert.Equal(t, ActionFilled, res.Action)
	assert.Equal(t, 21.97, *res.Location.Lat)

	// implausible pairs never fill
	c.Canonicalize(context.Background(), "Odisha", "Mayurbhanj", "Karanjia", nil)
	res = c.Canonicalize(context.Background(), "Odisha", "Mayurbhanj", "Karanjia", ptr(entity.Coordinates{Lat: 51.5, Lon: -0.1}))
	assert.Equal(t, ActionExisting, res.Action)
	assert.False(t, res.Location.HasCoordinates())
}

func TestCanonicalize_ImplausibleClaimFallsBackToGeocoder(t *testing.T) {
	store := newMemStore()
	geo := &fakeGeocoder{result: ptr(entity.Coordinates{Lat: 22.95, Lon: 77.56})}
	c := New(store, geo, nil)

	res := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 51.5, Lon: -0.1}))

	require.Equal(t, ActionInserted, res.Action)
	assert.Equal(t, int32(1), geo.calls.Load())
	assert.Equal(t, "Budhni, Sehore, Madhya Pradesh, India", geo.last)
	assert.Equal(t, 22.95, *res.Location.Lat)
	assert.Equal(t, 77.56, *res.Location.Lon)
}

func TestCanonicalize_PlausibleClaimSkipsGeocoder(t *testing.T) {
	geo := &fakeGeocoder{}
	c := New(newMemStore(), geo, nil)

	res := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 23.1984, Lon: 77.0951}))

	assert.Equal(t, ActionInserted, res.Action)
	assert.Zero(t, geo.calls.Load())
	assert.Equal(t, 23.1984, *res.Location.Lat)
}

func TestCanonicalize_GeocoderFailureStillInserts(t *testing.T) {
	store := newMemStore()
	c := New(store, &fakeGeocoder{err: errors.New("503")}, nil)

	res := c.Canonicalize(context.Background(), "Tripura", "Dhalai", "Ambassa", nil)

	assert.Equal(t, ActionInserted, res.Action)
	assert.False(t, res.Location.HasCoordinates())
	assert.Equal(t, 1, store.count())
}

func TestCanonicalize_LostRaceIsNotAnError(t *testing.T) {
	store := newMemStore()
	store.raceOnInsert = ptr(entity.Coordinates{Lat: 21.0, Lon: 79.0})
	c := New(store, nil, nil)

	res := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 22.0, Lon: 80.0}))

	assert.Equal(t, ActionRaced, res.Action)
	assert.Equal(t, 1, store.count())
	assert.Equal(t, 21.0, *res.Location.Lat)
}

func TestCanonicalize_NoopAndFailure(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, nil)

	assert.Equal(t, ActionNoop, c.Canonicalize(context.Background(), "Odisha", "  ", "Jashipur", nil).Action)

	store.findErr = errors.New("db down")
	assert.Equal(t, ActionFailed, c.Canonicalize(context.Background(), "Odisha", "Mayurbhanj", "Jashipur", nil).Action)
}

func TestConcurrentCanonicalizeKeepsOneRow(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := c.Canonicalize(context.Background(), "Madhya Pradesh", "Sehore", "Budhni", ptr(entity.Coordinates{Lat: 23.1, Lon: 77.1}))
			assert.NotEqual(t, ActionFailed, res.Action)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.count())
}

func TestPlausible(t *testing.T) {
	assert.True(t, Plausible(ptr(entity.Coordinates{Lat: 6.0, Lon: 68.0})))
	assert.True(t, Plausible(ptr(entity.Coordinates{Lat: 37.5, Lon: 97.5})))
	assert.False(t, Plausible(ptr(entity.Coordinates{Lat: 51.5, Lon: -0.1})))
	assert.False(t, Plausible(ptr(entity.Coordinates{Lat: 23.0, Lon: 97.6})))
	assert.False(t, Plausible(nil))
}

// fakeClock advances instantly and records every requested sleep.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

func TestPacer_SpacesCalls(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	p := NewPacer(1100*time.Millisecond, clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}

	require.Len(t, clock.sleeps, 3, "the first call waits too")
	for _, d := range clock.sleeps {
		assert.InDelta(t, float64(1100*time.Millisecond), float64(d), float64(time.Millisecond))
	}
}

func TestPacer_FirstCallWaitsAfterIdle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	p := NewPacer(time.Second, clock)

	require.NoError(t, p.Wait(context.Background()))
	require.Equal(t, []time.Duration{time.Second}, clock.sleeps)

	// a long idle gap refills the single token, so the next call goes at once
	clock.mu.Lock()
	clock.now = clock.now.Add(time.Minute)
	clock.mu.Unlock()
	require.NoError(t, p.Wait(context.Background()))
	assert.Len(t, clock.sleeps, 1)
}

type stuckClock struct{ now time.Time }

func (s stuckClock) Now() time.Time                       { return s.now }
func (s stuckClock) After(time.Duration) <-chan time.Time { return make(chan time.Time) }

func TestPacer_HonorsCancellation(t *testing.T) {
	p := NewPacer(time.Second, stuckClock{now: time.Unix(1_700_000_000, 0)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestNominatimGeocoder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "fra-test/0.1", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Budhni, Sehore, Madhya Pradesh, India":
			_, _ = w.Write([]byte(`[{"lat":"22.7833","lon":"77.7000"},{"lat":"1","lon":"2"}]`))
		case "Nowhere, India":
			_, _ = w.Write([]byte(`[]`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	g := NewNominatimGeocoder(NominatimConfig{URL: srv.URL, UserAgent: "fra-test/0.1"}, NewPacer(time.Second, clock), nil)
	ctx := context.Background()

	c, err := g.Search(ctx, "Budhni, Sehore, Madhya Pradesh, India")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 22.7833, c.Lat)
	assert.Equal(t, 77.7, c.Lon)

	// cached: no second request
	_, err = g.Search(ctx, "budhni,  sehore, madhya pradesh, india")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	miss, err := g.Search(ctx, "Nowhere, India")
	require.NoError(t, err)
	assert.Nil(t, miss)

	_, err = g.Search(ctx, "Broken, India")
	assert.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
	assert.Len(t, clock.sleeps, 3)
}
