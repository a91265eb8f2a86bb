package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/abdidvp/shelfready/internal/domain"
)

// ShopSettings loads a shop's rule definitions in position order along with
// its fix defaults. Configs come back raw; callers parse them.
func (d *DB) ShopSettings(ctx context.Context, shopID string) (domain.ShopSettings, error) {
	settings := domain.ShopSettings{ShopID: shopID}

	rows, err := d.sql.QueryContext(ctx, `
SELECT id, rule_key, label, config, enabled, weight, fix_type, target_field, position
FROM rule_definitions WHERE shop_id = ? ORDER BY position, id`, shopID)
	if err != nil {
		return settings, fmt.Errorf("loading rules for %s: %w", shopID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			def          domain.RuleDefinition
			key, fixType string
			rawConfig    string
			enabled      int
		)
		if err := rows.Scan(&def.ID, &key, &def.Label, &rawConfig, &enabled, &def.Weight, &fixType, &def.TargetField, &def.Position); err != nil {
			return settings, err
		}
		def.Key = domain.RuleKey(key)
		def.FixType = domain.FixType(fixType)
		def.Enabled = enabled == 1
		if err := json.Unmarshal([]byte(rawConfig), &def.RawConfig); err != nil {
			return settings, fmt.Errorf("decoding config for rule %s: %w", key, err)
		}
		settings.Rules = append(settings.Rules, def)
	}
	if err := rows.Err(); err != nil {
		return settings, err
	}

	defaults, err := d.fixDefaults(ctx, shopID)
	if err != nil {
		return settings, err
	}
	settings.FixDefaults = defaults
	return settings, nil
}

func (d *DB) fixDefaults(ctx context.Context, shopID string) (map[domain.RuleKey]domain.FixConfig, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT rule_key, config FROM fix_defaults WHERE shop_id = ?`, shopID)
	if err != nil {
		return nil, fmt.Errorf("loading fix defaults for %s: %w", shopID, err)
	}
	defer rows.Close()
	out := make(map[domain.RuleKey]domain.FixConfig)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var cfg domain.FixConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, fmt.Errorf("decoding fix defaults for %s: %w", key, err)
		}
		out[domain.RuleKey(key)] = cfg
	}
	return out, rows.Err()
}

func (d *DB) SetRuleEnabled(ctx context.Context, shopID string, key domain.RuleKey, enabled bool) error {
	return d.updateRule(ctx, `UPDATE rule_definitions SET enabled = ? WHERE shop_id = ? AND rule_key = ?`,
		boolToInt(enabled), shopID, string(key))
}

func (d *DB) SetRuleWeight(ctx context.Context, shopID string, key domain.RuleKey, weight int) error {
	return d.updateRule(ctx, `UPDATE rule_definitions SET weight = ? WHERE shop_id = ? AND rule_key = ?`,
		weight, shopID, string(key))
}

func (d *DB) updateRule(ctx context.Context, query string, args ...any) error {
	res, err := d.sql.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrRuleNotFound
	}
	return nil
}

// SeedRules inserts the template's definitions and fix defaults for a shop.
// Rows that already exist are left untouched; the count of newly created
// definitions is returned.
func (d *DB) SeedRules(ctx context.Context, shopID string, tmpl domain.ChecklistTemplate) (int, error) {
	created := 0
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		for _, def := range tmpl.Definitions() {
			raw := def.RawConfig
			if raw == nil {
				raw = map[string]any{}
			}
			cfg, err := json.Marshal(raw)
			if err != nil {
				return fmt.Errorf("encoding config for rule %s: %w", def.Key, err)
			}
			res, err := tx.ExecContext(ctx, `
INSERT INTO rule_definitions(shop_id, rule_key, label, config, enabled, weight, fix_type, target_field, position)
VALUES(?,?,?,?,?,?,?,?,?) ON CONFLICT(shop_id, rule_key) DO NOTHING`,
				shopID, string(def.Key), def.Label, string(cfg), boolToInt(def.Enabled), def.EffectiveWeight(),
				string(def.FixType), def.TargetField, def.Position)
			if err != nil {
				return fmt.Errorf("seeding rule %s: %w", def.Key, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			created += int(n)
		}
		for key, fc := range tmpl.FixDefaults {
			cfg, err := json.Marshal(fc)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO fix_defaults(shop_id, rule_key, config) VALUES(?,?,?) ON CONFLICT(shop_id, rule_key) DO NOTHING`,
				shopID, string(key), string(cfg)); err != nil {
				return fmt.Errorf("seeding fix defaults for %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
