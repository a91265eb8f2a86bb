package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abdidvp/shelfready/internal/domain"
)

// SaveAudit replaces the current audit for the result's shop and listing.
func (d *DB) SaveAudit(ctx context.Context, r domain.AuditResult) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding audit: %w", err)
	}
	_, err = d.sql.ExecContext(ctx, `
INSERT INTO audits(shop_id, listing_id, score, status, result, audited_at) VALUES(?,?,?,?,?,?)
ON CONFLICT(shop_id, listing_id) DO UPDATE SET
  score = excluded.score, status = excluded.status, result = excluded.result, audited_at = excluded.audited_at`,
		r.ShopID, r.ListingID, r.Score, string(r.Status), string(data), toUnix(r.AuditedAt))
	if err != nil {
		return fmt.Errorf("saving audit for %s: %w", r.ListingID, err)
	}
	return nil
}

func (d *DB) LatestAudit(ctx context.Context, shopID, listingID string) (*domain.AuditResult, error) {
	var raw string
	err := d.sql.QueryRowContext(ctx,
		`SELECT result FROM audits WHERE shop_id = ? AND listing_id = ?`, shopID, listingID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAuditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading audit for %s: %w", listingID, err)
	}
	var r domain.AuditResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, fmt.Errorf("decoding audit for %s: %w", listingID, err)
	}
	return &r, nil
}
