// Package locations maps (state, district, village) triplets onto one
// canonical, geolocated row each.
package locations

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// Store is the canonical location table. InsertIfAbsent reports
// inserted=false with a nil error when the triplet already exists.
type Store interface {
	FindByTriplet(ctx context.Context, state, district, village string) (*entity.Location, error)
	UpdateCoordinates(ctx context.Context, id int64, lat, lon float64) (bool, error)
	InsertIfAbsent(ctx context.Context, loc *entity.Location) (bool, error)
}

// Action says what Canonicalize did.
type Action string

const (
	ActionNoop     Action = "noop"     // a triplet part was empty
	ActionExisting Action = "existing" // row found, left untouched
	ActionFilled   Action = "filled"   // row found, missing coordinates filled in
	ActionInserted Action = "inserted" // new row created
	ActionRaced    Action = "raced"    // a concurrent insert won; its row is returned
	ActionFailed   Action = "failed"   // store error, logged
)

type Result struct {
	Action   Action           `json:"action"`
	Location *entity.Location `json:"location,omitempty"`
}

type Canonicalizer struct {
	store    Store
	geocoder Geocoder
	country  string
	logger   *slog.Logger
}

type Option func(*Canonicalizer)

// WithCountry sets the country appended to geocoding queries.
func WithCountry(country string) Option {
	return func(c *Canonicalizer) {
		if country != "" {
			c.country = country
		}
	}
}

// New builds a Canonicalizer; a nil geocoder disables the lookup fallback.
func New(store Store, geocoder Geocoder, logger *slog.Logger, opts ...Option) *Canonicalizer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Canonicalizer{store: store, geocoder: geocoder, country: "India", logger: logger}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Canonicalize returns the single row for the triplet, creating it when absent.
// Existing coordinates are never overwritten; a row without coordinates is
// filled only from a plausible claimed pair. New rows take the claimed pair
// when plausible, else a geocoder lookup. Failures are logged and reported
// through the Action; they are never returned to the caller.
func (c *Canonicalizer) Canonicalize(ctx context.Context, state, district, village string, claimed *entity.Coordinates) Result {
	st, di, vi := NormalizeTriplet(state, district, village)
	if st == "" || di == "" || vi == "" {
		return Result{Action: ActionNoop}
	}
	logger := common.LoggerFrom(ctx, c.logger).With("state", st, "district", di, "village", vi)

	existing, err := c.store.FindByTriplet(ctx, st, di, vi)
	if err != nil {
		logger.Error("locations.find.failed", "error", err)
		return Result{Action: ActionFailed}
	}
	if existing != nil {
		return c.fill(ctx, logger, existing, claimed)
	}

	var coords *entity.Coordinates
	switch {
	case Plausible(claimed):
		coords = claimed
	case c.geocoder != nil:
		if claimed != nil {
			logger.Info("locations.claimed.implausible", "lat", claimed.Lat, "lon", claimed.Lon)
		}
		g, err := c.geocoder.Search(ctx, QueryFor(st, di, vi, c.country))
		if err != nil {
			logger.Warn("locations.geocode.failed", "error", err)
		}
		coords = g
	}

	loc := &entity.Location{State: st, District: di, Village: vi}
	if coords != nil {
		lat, lon := coords.Lat, coords.Lon
		loc.Lat, loc.Lon = &lat, &lon
	}
	inserted, err := c.store.InsertIfAbsent(ctx, loc)
	if err != nil {
		logger.Error("locations.insert.failed", "error", err)
		return Result{Action: ActionFailed}
	}
	if inserted {
		logger.Info("locations.inserted", "id", loc.ID, "has_coordinates", loc.HasCoordinates())
		return Result{Action: ActionInserted, Location: loc}
	}

	// lost the insert race; converge on the winner's row
	winner, err := c.store.FindByTriplet(ctx, st, di, vi)
	if err != nil || winner == nil {
		logger.Error("locations.reload.failed", "error", err)
		return Result{Action: ActionFailed}
	}
	res := c.fill(ctx, logger, winner, coords)
	if res.Action != ActionFailed {
		res.Action = ActionRaced
	}
	return res
}

// fill sets coordinates on a row that has none. Rows with coordinates are returned as-is.
func (c *Canonicalizer) fill(ctx context.Context, logger *slog.Logger, loc *entity.Location, coords *entity.Coordinates) Result {
	if loc.HasCoordinates() || !Plausible(coords) {
		return Result{Action: ActionExisting, Location: loc}
	}
	updated, err := c.store.UpdateCoordinates(ctx, loc.ID, coords.Lat, coords.Lon)
	if err != nil {
		logger.Error("locations.update.failed", "id", loc.ID, "error", err)
		return Result{Action: ActionFailed, Location: loc}
	}
	if !updated {
		// someone filled it first; reread to report their values
		if fresh, err := c.store.FindByTriplet(ctx, loc.State, loc.District, loc.Village); err == nil && fresh != nil {
			loc = fresh
		}
		return Result{Action: ActionExisting, Location: loc}
	}
	lat, lon := coords.Lat, coords.Lon
	loc.Lat, loc.Lon = &lat, &lon
	logger.Info("locations.filled", "id", loc.ID)
	return Result{Action: ActionFilled, Location: loc}
}
