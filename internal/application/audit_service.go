package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/audit"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

// AuditService orchestrates the audit pipeline:
// fetch snapshot → load shop checklist → run engine → stamp → persist.
type AuditService struct {
	catalog  domain.CatalogReader
	settings domain.SettingsStore
	store    domain.AuditStore
	engine   *audit.Engine
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAuditService(
	catalog domain.CatalogReader,
	settings domain.SettingsStore,
	store domain.AuditStore,
	registry *rules.Registry,
	log logrus.FieldLogger,
) *AuditService {
	return &AuditService{
		catalog:  catalog,
		settings: settings,
		store:    store,
		engine:   audit.NewEngine(registry, log),
		log:      log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to stamp AuditedAt.
func (s *AuditService) WithClock(now func() time.Time) *AuditService {
	s.now = now
	return s
}

// AuditListing runs the shop's checklist against the current state of a
// listing and replaces the stored audit for it.
func (s *AuditService) AuditListing(ctx context.Context, shopID, listingID string) (*domain.AuditResult, error) {
	// 1. Fetch the snapshot
	listing, err := s.catalog.FetchListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("fetching listing %s: %w", listingID, err)
	}

	// 2. Load the shop checklist
	settings, err := s.settings.ShopSettings(ctx, shopID)
	if err != nil {
		return nil, fmt.Errorf("loading shop settings: %w", err)
	}

	// 3. Evaluate and persist
	result := s.evaluate(shopID, listing, rules.Load(settings.Rules, s.log))
	if err := s.store.SaveAudit(ctx, result); err != nil {
		return nil, fmt.Errorf("saving audit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"shop_id":    shopID,
		"listing_id": listingID,
		"score":      result.Score,
		"failed":     result.Failed,
	}).Info("listing audited")
	return &result, nil
}

// LatestAudit returns the stored audit for a listing without re-running it.
func (s *AuditService) LatestAudit(ctx context.Context, shopID, listingID string) (*domain.AuditResult, error) {
	return s.store.LatestAudit(ctx, shopID, listingID)
}

func (s *AuditService) evaluate(shopID string, listing *domain.ListingSnapshot, defs []domain.RuleDefinition) domain.AuditResult {
	result := s.engine.Run(listing, defs)
	result.ShopID = shopID
	result.AuditedAt = s.now().UTC()
	return result
}
