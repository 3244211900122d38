package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableClaims   = "claims"
	tableVillages = "villages"
)

var (
	// ClaimsColumns holds the columns for the "claims" table.
	ClaimsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "state", Type: field.TypeString},
		{Name: "district", Type: field.TypeString},
		{Name: "block", Type: field.TypeString, Nullable: true},
		{Name: "village", Type: field.TypeString, Nullable: true},
		{Name: "patta_holder", Type: field.TypeString, Nullable: true},
		{Name: "address", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "land_area", Type: field.TypeString, Nullable: true},
		{Name: "ifr_number", Type: field.TypeString, Nullable: true},
		{Name: "status", Type: field.TypeString, Default: "Pending"},
		{Name: "date", Type: field.TypeString, Nullable: true},
		{Name: "lat", Type: field.TypeFloat64, Nullable: true},
		{Name: "lon", Type: field.TypeFloat64, Nullable: true},
		{Name: "source", Type: field.TypeString, Default: "manual"},
		{Name: "raw_ocr", Type: field.TypeString, Nullable: true, Size: 2147483647},
		{Name: "created_at", Type: field.TypeTime},
	}
	// ClaimsTable holds the schema information for the "claims" table.
	ClaimsTable = &schema.Table{
		Name:       tableClaims,
		Columns:    ClaimsColumns,
		PrimaryKey: []*schema.Column{ClaimsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "claim_state_district_village",
				Unique:  false,
				Columns: []*schema.Column{ClaimsColumns[1], ClaimsColumns[2], ClaimsColumns[4]},
			},
			{
				Name:    "claim_status",
				Unique:  false,
				Columns: []*schema.Column{ClaimsColumns[9]},
			},
		},
	}
	// VillagesColumns holds the columns for the "villages" table.
	VillagesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt64, Increment: true},
		{Name: "state", Type: field.TypeString},
		{Name: "district", Type: field.TypeString},
		{Name: "block", Type: field.TypeString, Nullable: true},
		{Name: "village", Type: field.TypeString},
		{Name: "lat", Type: field.TypeFloat64, Nullable: true},
		{Name: "lon", Type: field.TypeFloat64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// VillagesTable holds the schema information for the "villages" table.
	// The unique index is what makes concurrent inserts of one triplet safe.
	VillagesTable = &schema.Table{
		Name:       tableVillages,
		Columns:    VillagesColumns,
		PrimaryKey: []*schema.Column{VillagesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "ux_villages_state_district_village",
				Unique:  true,
				Columns: []*schema.Column{VillagesColumns[1], VillagesColumns[2], VillagesColumns[4]},
			},
		},
	}
	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		ClaimsTable,
		VillagesTable,
	}
)

// Migrate creates missing tables, columns and indexes. It never drops anything.
func Migrate(ctx context.Context, db *DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := schema.NewMigrate(db.Driver())
	if err != nil {
		logger.Error("failed to prepare migration", "error", err)
		return fmt.Errorf("prepare migration: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		logger.Error("failed to migrate schema", "error", err)
		return fmt.Errorf("migrate schema: %w", err)
	}
	logger.Info("schema up to date", "tables", len(Tables))
	return nil
}
