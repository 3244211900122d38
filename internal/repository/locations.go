package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/sqlgraph"

	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// LocationRepository is the canonical village table. It satisfies locations.Store.
type LocationRepository interface {
	FindByTriplet(ctx context.Context, state, district, village string) (*entity.Location, error)
	UpdateCoordinates(ctx context.Context, id int64, lat, lon float64) (bool, error)
	InsertIfAbsent(ctx context.Context, loc *entity.Location) (bool, error)
	List(ctx context.Context, state, district string) ([]*entity.Location, error)
}

type locationRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewLocationRepository(db *DB, logger *slog.Logger) LocationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &locationRepository{db: db, logger: logger}
}

var locationSelectColumns = []string{"id", "state", "district", "block", "village", "lat", "lon", "created_at"}

// FindByTriplet returns the row for the exact triplet, or nil when absent.
func (r *locationRepository) FindByTriplet(ctx context.Context, state, district, village string) (*entity.Location, error) {
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select(locationSelectColumns...).
		From(b.Table(tableVillages)).
		Where(entsql.And(
			entsql.EQ("state", state),
			entsql.EQ("district", district),
			entsql.EQ("village", village),
		)).
		Limit(1).
		Query()

	locs, err := r.queryLocations(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to find village", "state", state, "district", district, "village", village, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "find village")
	}
	if len(locs) == 0 {
		return nil, nil
	}
	return locs[0], nil
}

// UpdateCoordinates sets lat/lon only while either is still NULL, so a stored
// point is never overwritten. It reports whether a row changed.
func (r *locationRepository) UpdateCoordinates(ctx context.Context, id int64, lat, lon float64) (bool, error) {
	query, args := entsql.Dialect(r.db.Dialect()).
		Update(tableVillages).
		Set("lat", lat).
		Set("lon", lon).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.Or(entsql.IsNull("lat"), entsql.IsNull("lon")),
		)).
		Query()

	var res sql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to update village coordinates", "village_id", id, "error", err)
		return false, common.WrapError(common.ErrDatabase, "update village coordinates")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.WrapError(common.ErrDatabase, "update village coordinates")
	}
	return n > 0, nil
}

// InsertIfAbsent inserts loc and sets its ID. A unique violation on the
// triplet means another writer got there first: it returns false, nil.
func (r *locationRepository) InsertIfAbsent(ctx context.Context, loc *entity.Location) (bool, error) {
	if loc.CreatedAt.IsZero() {
		loc.CreatedAt = time.Now().UTC()
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(tableVillages).
		Columns(locationSelectColumns[1:]...).
		Values(loc.State, loc.District, loc.Block, loc.Village, loc.Lat, loc.Lon, loc.CreatedAt).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		if sqlgraph.IsUniqueConstraintError(err) {
			return false, nil
		}
		r.logger.Error("failed to insert village", "state", loc.State, "district", loc.District, "village", loc.Village, "error", err)
		return false, common.WrapError(common.ErrDatabase, "insert village")
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	if !rows.Next() {
		// sqlite reports the violation while stepping the RETURNING cursor
		if err := rows.Err(); err != nil {
			if sqlgraph.IsUniqueConstraintError(err) {
				return false, nil
			}
			r.logger.Error("failed to insert village", "village", loc.Village, "error", err)
			return false, common.WrapError(common.ErrDatabase, "insert village")
		}
		return false, common.WrapError(common.ErrDatabase, "insert village returned no id")
	}
	if err := rows.Scan(&loc.ID); err != nil {
		r.logger.Error("failed to scan village id", "error", err)
		return false, common.WrapError(common.ErrDatabase, "insert village")
	}
	return true, nil
}

// List returns villages ordered by name, optionally narrowed to a state and district.
func (r *locationRepository) List(ctx context.Context, state, district string) ([]*entity.Location, error) {
	b := entsql.Dialect(r.db.Dialect())
	sel := b.Select(locationSelectColumns...).From(b.Table(tableVillages))
	var ps []*entsql.Predicate
	if s := strings.TrimSpace(state); s != "" {
		ps = append(ps, entsql.EQ("state", s))
	}
	if s := strings.TrimSpace(district); s != "" {
		ps = append(ps, entsql.EQ("district", s))
	}
	if len(ps) > 0 {
		sel = sel.Where(entsql.And(ps...))
	}
	query, args := sel.OrderBy("state", "district", "village").Query()

	locs, err := r.queryLocations(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to list villages", "state", state, "district", district, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "list villages")
	}
	return locs, nil
}

func (r *locationRepository) queryLocations(ctx context.Context, query string, args []any) ([]*entity.Location, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	var out []*entity.Location
	for rows.Next() {
		var (
			l        entity.Location
			block    sql.NullString
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.State, &l.District, &block, &l.Village, &lat, &lon, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.Block = nullString(block)
		l.Lat = nullFloat(lat)
		l.Lon = nullFloat(lon)
		out = append(out, &l)
	}
	return out, rows.Err()
}
