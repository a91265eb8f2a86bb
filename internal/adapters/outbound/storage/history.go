package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abdidvp/shelfready/internal/domain"
)

const historyColumns = `id, shop_id, listing_id, rule_key, field, previous, new_value, source, created_at`

// Append writes entries in one transaction. Entries are never updated.
func (d *DB) Append(ctx context.Context, entries ...domain.VersionEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO version_history(`+historyColumns+`) VALUES(?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.ID, e.ShopID, e.ListingID, string(e.RuleKey), e.Field,
				e.Previous, e.New, string(e.Source), toUnix(e.CreatedAt)); err != nil {
				return fmt.Errorf("recording %s change: %w", e.Field, err)
			}
		}
		return nil
	})
}

func (d *DB) Entry(ctx context.Context, shopID, entryID string) (*domain.VersionEntry, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM version_history WHERE shop_id = ? AND id = ?`, shopID, entryID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrHistoryEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading history entry %s: %w", entryID, err)
	}
	return &e, nil
}

// List returns a listing's entries, newest first.
func (d *DB) List(ctx context.Context, shopID, listingID string) ([]domain.VersionEntry, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT `+historyColumns+` FROM version_history
WHERE shop_id = ? AND listing_id = ? ORDER BY created_at DESC, seq DESC`, shopID, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing history for %s: %w", listingID, err)
	}
	defer rows.Close()

	var out []domain.VersionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.VersionEntry, error) {
	var (
		e               domain.VersionEntry
		ruleKey, source string
		created         int64
	)
	if err := s.Scan(&e.ID, &e.ShopID, &e.ListingID, &ruleKey, &e.Field, &e.Previous, &e.New, &source, &created); err != nil {
		return domain.VersionEntry{}, err
	}
	e.RuleKey = domain.RuleKey(ruleKey)
	e.Source = domain.FixType(source)
	e.CreatedAt = fromUnix(created)
	return e, nil
}
