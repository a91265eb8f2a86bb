package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/abdidvp/shelfready/internal/domain"
)

// Ledger implements domain.CreditLedger on the credits table. Every shop on
// the plan shares the same monthly limit; shops with their own generator key
// are not metered.
//
// Gate and Consume are separate calls, so two AI fixes for the same shop can
// both pass the gate when one credit is left and the counter ends one above
// the limit. Consumption is a plain increment and tolerates that.
type Ledger struct {
	db    *DB
	limit int
	now   func() time.Time
}

func NewLedger(db *DB, monthlyLimit int) *Ledger {
	return &Ledger{db: db, limit: monthlyLimit, now: time.Now}
}

// WithClock replaces the ledger's time source.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Gate(ctx context.Context, shopID string) (domain.GateDecision, error) {
	var state domain.CreditState
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		state, err = l.current(ctx, tx, shopID)
		return err
	})
	if err != nil {
		return domain.GateDecision{}, fmt.Errorf("checking credits for %s: %w", shopID, err)
	}
	return state.Decide(), nil
}

// Consume charges one credit. Shops with their own key are left untouched.
func (l *Ledger) Consume(ctx context.Context, shopID string) (domain.CreditState, error) {
	var state domain.CreditState
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		if state, err = l.current(ctx, tx, shopID); err != nil {
			return err
		}
		if state.HasOwnKey {
			return nil
		}
		if _, err = tx.ExecContext(ctx, `UPDATE credits SET consumed = consumed + 1 WHERE shop_id = ?`, shopID); err != nil {
			return err
		}
		state.Consumed++
		return nil
	})
	if err != nil {
		return domain.CreditState{}, fmt.Errorf("consuming credit for %s: %w", shopID, err)
	}
	return state, nil
}

// State returns the counters without consuming anything.
func (l *Ledger) State(ctx context.Context, shopID string) (domain.CreditState, error) {
	var state domain.CreditState
	err := l.db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		state, err = l.current(ctx, tx, shopID)
		return err
	})
	return state, err
}

// SetOwnKey records whether the shop supplies its own generator key.
func (l *Ledger) SetOwnKey(ctx context.Context, shopID string, own bool) error {
	return l.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := l.current(ctx, tx, shopID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE credits SET has_own_key = ? WHERE shop_id = ?`, boolToInt(own), shopID)
		return err
	})
}

// current loads the shop's counters, creating the row on first use and
// zeroing consumption once the reset instant has passed.
func (l *Ledger) current(ctx context.Context, tx *sql.Tx, shopID string) (domain.CreditState, error) {
	now := l.now()
	state := domain.CreditState{ShopID: shopID, Limit: l.limit}

	var resetAt int64
	var ownKey int
	err := tx.QueryRowContext(ctx,
		`SELECT consumed, reset_at, has_own_key FROM credits WHERE shop_id = ?`, shopID).
		Scan(&state.Consumed, &resetAt, &ownKey)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		state.ResetAt = domain.NextReset(now)
		_, err = tx.ExecContext(ctx, `INSERT INTO credits(shop_id, consumed, reset_at) VALUES(?, 0, ?)`,
			shopID, toUnix(state.ResetAt))
		return state, err
	case err != nil:
		return state, err
	}

	state.HasOwnKey = ownKey == 1
	state.ResetAt = fromUnix(resetAt)
	if !now.Before(state.ResetAt) {
		state.Consumed = 0
		state.ResetAt = domain.NextReset(now)
		if _, err := tx.ExecContext(ctx, `UPDATE credits SET consumed = 0, reset_at = ? WHERE shop_id = ?`,
			toUnix(state.ResetAt), shopID); err != nil {
			return state, err
		}
	}
	return state, nil
}
