package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/fra-claims/constants"
	"github.com/joseph-ayodele/fra-claims/internal/common"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

// ClaimFilter narrows List. Empty fields are ignored; Limit <= 0 means DefaultListLimit.
type ClaimFilter struct {
	State    string
	District string
	Village  string // substring, case-insensitive
	Status   string
	Q        string // substring of village, patta holder or address
	Limit    int
	Offset   int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

type ClaimRepository interface {
	Insert(ctx context.Context, p entity.ClaimPayload) (*entity.Claim, error)
	Get(ctx context.Context, id int64) (*entity.Claim, error)
	List(ctx context.Context, f ClaimFilter) ([]*entity.Claim, error)
	Count(ctx context.Context, f ClaimFilter) (int64, error)
	CountByVillage(ctx context.Context) ([]entity.VillageCount, error)
	Update(ctx context.Context, id int64, p entity.ClaimPayload) (*entity.Claim, error)
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

type claimRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewClaimRepository(db *DB, logger *slog.Logger) ClaimRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &claimRepository{db: db, logger: logger}
}

var claimSelectColumns = []string{
	"id", "state", "district", "block", "village", "patta_holder", "address", "land_area",
	"ifr_number", "status", "date", "lat", "lon", "source", "raw_ocr", "created_at",
}

func (r *claimRepository) Insert(ctx context.Context, p entity.ClaimPayload) (*entity.Claim, error) {
	if p.Status == "" {
		p.Status = constants.StatusPending
	}
	if p.Source == "" {
		p.Source = constants.SourceManual
	}
	now := time.Now().UTC()

	query, args := entsql.Dialect(r.db.Dialect()).
		Insert(tableClaims).
		Columns(claimSelectColumns[1:]...).
		Values(p.State, p.District, p.Block, p.Village, p.PattaHolder, p.Address, p.LandArea,
			p.IFRNumber, p.Status, p.Date, p.Lat, p.Lon, string(p.Source), p.RawOCR, now).
		Returning("id").
		Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to insert claim", "state", p.State, "district", p.District, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "insert claim")
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	var id int64
	if !rows.Next() {
		err := rows.Err()
		r.logger.Error("insert returned no id", "state", p.State, "district", p.District, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "insert claim")
	}
	if err := rows.Scan(&id); err != nil {
		r.logger.Error("failed to scan claim id", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "insert claim")
	}

	r.logger.Debug("claim inserted", "claim_id", id, "source", p.Source)
	return &entity.Claim{ID: id, ClaimPayload: p, CreatedAt: now}, nil
}

func (r *claimRepository) Get(ctx context.Context, id int64) (*entity.Claim, error) {
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select(claimSelectColumns...).
		From(b.Table(tableClaims)).
		Where(entsql.EQ("id", id)).
		Query()

	claims, err := r.queryClaims(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to get claim", "claim_id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "get claim")
	}
	if len(claims) == 0 {
		return nil, common.NotFoundErrorf("claim %d", id)
	}
	return claims[0], nil
}

func (f ClaimFilter) predicates() []*entsql.Predicate {
	var ps []*entsql.Predicate
	if s := strings.TrimSpace(f.State); s != "" {
		ps = append(ps, entsql.EQ("state", s))
	}
	if s := strings.TrimSpace(f.District); s != "" {
		ps = append(ps, entsql.EQ("district", s))
	}
	if s := strings.TrimSpace(f.Village); s != "" {
		ps = append(ps, entsql.ContainsFold("village", s))
	}
	if s := strings.TrimSpace(f.Status); s != "" {
		ps = append(ps, entsql.EQ("status", s))
	}
	if s := strings.TrimSpace(f.Q); s != "" {
		ps = append(ps, entsql.Or(
			entsql.ContainsFold("village", s),
			entsql.ContainsFold("patta_holder", s),
			entsql.ContainsFold("address", s),
		))
	}
	return ps
}

func (f ClaimFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return DefaultListLimit
	case f.Limit > MaxListLimit:
		return MaxListLimit
	}
	return f.Limit
}

// List returns matching claims, newest first.
func (r *claimRepository) List(ctx context.Context, f ClaimFilter) ([]*entity.Claim, error) {
	b := entsql.Dialect(r.db.Dialect())
	sel := b.Select(claimSelectColumns...).From(b.Table(tableClaims))
	if ps := f.predicates(); len(ps) > 0 {
		sel = sel.Where(entsql.And(ps...))
	}
	sel = sel.OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).Limit(f.limit())
	if f.Offset > 0 {
		sel = sel.Offset(f.Offset)
	}
	query, args := sel.Query()

	claims, err := r.queryClaims(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to list claims", "state", f.State, "district", f.District, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "list claims")
	}
	return claims, nil
}

// Count returns how many claims match f, ignoring Limit and Offset.
func (r *claimRepository) Count(ctx context.Context, f ClaimFilter) (int64, error) {
	b := entsql.Dialect(r.db.Dialect())
	sel := b.Select(entsql.Count("*")).From(b.Table(tableClaims))
	if ps := f.predicates(); len(ps) > 0 {
		sel = sel.Where(entsql.And(ps...))
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to count claims", "error", err)
		return 0, common.WrapError(common.ErrDatabase, "count claims")
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	var n int64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			r.logger.Error("failed to scan claim count", "error", err)
			return 0, common.WrapError(common.ErrDatabase, "count claims")
		}
	}
	return n, rows.Err()
}

// CountByVillage tallies claims per (state, district, village), largest first.
// Claims without a village are skipped.
func (r *claimRepository) CountByVillage(ctx context.Context) ([]entity.VillageCount, error) {
	b := entsql.Dialect(r.db.Dialect())
	query, args := b.Select("state", "district", "village", entsql.Count("*")).
		From(b.Table(tableClaims)).
		Where(entsql.NotNull("village")).
		GroupBy("state", "district", "village").
		OrderBy(entsql.Desc(entsql.Count("*")), "state", "district", "village").
		Query()

	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		r.logger.Error("failed to count claims by village", "error", err)
		return nil, common.WrapError(common.ErrDatabase, "count claims by village")
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	var out []entity.VillageCount
	for rows.Next() {
		var vc entity.VillageCount
		if err := rows.Scan(&vc.State, &vc.District, &vc.Village, &vc.Count); err != nil {
			r.logger.Error("failed to scan village count", "error", err)
			return nil, common.WrapError(common.ErrDatabase, "count claims by village")
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns of claim id with p. Source, the OCR
// artifact and created_at are kept.
func (r *claimRepository) Update(ctx context.Context, id int64, p entity.ClaimPayload) (*entity.Claim, error) {
	if p.Status == "" {
		p.Status = constants.StatusPending
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Update(tableClaims).
		Set("state", p.State).
		Set("district", p.District).
		Set("block", p.Block).
		Set("village", p.Village).
		Set("patta_holder", p.PattaHolder).
		Set("address", p.Address).
		Set("land_area", p.LandArea).
		Set("ifr_number", p.IFRNumber).
		Set("status", p.Status).
		Set("date", p.Date).
		Set("lat", p.Lat).
		Set("lon", p.Lon).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to update claim", "claim_id", id, "error", err)
		return nil, common.WrapError(common.ErrDatabase, "update claim")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.NotFoundErrorf("claim %d", id)
	}
	r.logger.Debug("claim updated", "claim_id", id)
	return r.Get(ctx, id)
}

func (r *claimRepository) Delete(ctx context.Context, id int64) error {
	query, args := entsql.Dialect(r.db.Dialect()).
		Delete(tableClaims).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to delete claim", "claim_id", id, "error", err)
		return common.WrapError(common.ErrDatabase, "delete claim")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NotFoundErrorf("claim %d", id)
	}
	r.logger.Info("claim deleted", "claim_id", id)
	return nil
}

// DeleteMany removes the listed claims and reports how many rows went.
func (r *claimRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	vals := make([]any, len(ids))
	for i, id := range ids {
		vals[i] = id
	}
	query, args := entsql.Dialect(r.db.Dialect()).
		Delete(tableClaims).
		Where(entsql.In("id", vals...)).
		Query()

	var res sql.Result
	if err := r.db.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to delete claims", "count", len(ids), "error", err)
		return 0, common.WrapError(common.ErrDatabase, "delete claims")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, common.WrapError(common.ErrDatabase, "delete claims")
	}
	r.logger.Info("claims deleted", "requested", len(ids), "deleted", n)
	return n, nil
}

func (r *claimRepository) queryClaims(ctx context.Context, query string, args []any) ([]*entity.Claim, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer func(rows *entsql.Rows) {
		_ = rows.Close()
	}(&rows)

	var out []*entity.Claim
	for rows.Next() {
		c, err := scanClaim(&rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanClaim(rows *entsql.Rows) (*entity.Claim, error) {
	var (
		c                                                        entity.Claim
		block, village, holder, address, area, ifr, date, rawOCR sql.NullString
		lat, lon                                                 sql.NullFloat64
		source                                                   string
	)
	if err := rows.Scan(&c.ID, &c.State, &c.District, &block, &village, &holder, &address, &area,
		&ifr, &c.Status, &date, &lat, &lon, &source, &rawOCR, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Block = nullString(block)
	c.Village = nullString(village)
	c.PattaHolder = nullString(holder)
	c.Address = nullString(address)
	c.LandArea = nullString(area)
	c.IFRNumber = nullString(ifr)
	c.Date = nullString(date)
	c.RawOCR = nullString(rawOCR)
	c.Lat = nullFloat(lat)
	c.Lon = nullFloat(lon)
	c.Source = constants.Source(source)
	return &c, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
