package householddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
)

// Repository is the household membership lookup the core consumes.
type Repository interface {
	GetMemberIdentities(ctx context.Context, db bun.IDB, householdID string) ([]string, error)
	GetMembers(ctx context.Context, db bun.IDB, householdID string) ([]HouseholdMember, error)
}

// HouseholdDBImpl implements Repository on bun.
type HouseholdDBImpl struct {
	DB *bun.DB
}

func (r *HouseholdDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

// GetMemberIdentities returns the identities in a household, join order.
// An unknown household yields an empty slice, not an error.
func (r *HouseholdDBImpl) GetMemberIdentities(ctx context.Context, db bun.IDB, householdID string) ([]string, error) {
	var identities []string
	err := r.idb(db).NewSelect().
		Model((*HouseholdMember)(nil)).
		Column("identity").
		Where("household_id = ?", householdID).
		Order("joined_at ASC", "id ASC").
		Scan(ctx, &identities)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load household members: %w", err)
	}
	return identities, nil
}

// GetMembers returns full member rows for a household, join order.
func (r *HouseholdDBImpl) GetMembers(ctx context.Context, db bun.IDB, householdID string) ([]HouseholdMember, error) {
	var members []HouseholdMember
	err := r.idb(db).NewSelect().
		Model(&members).
		Where("household_id = ?", householdID).
		Order("joined_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load household members: %w", err)
	}
	return members, nil
}

var _ Repository = (*HouseholdDBImpl)(nil)
