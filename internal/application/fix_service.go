package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/fixes"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

const (
	msgNoFix    = "no auto-fix available"
	msgUpToDate = "already up to date"
)

// FixService dispatches fixes for failed rules:
// pre-check → (gate → generate) → mutate → consume → record history → re-audit.
type FixService struct {
	catalog   domain.Catalog
	settings  domain.SettingsStore
	generator domain.ContentGenerator
	ledger    domain.CreditLedger
	history   domain.VersionHistory
	audits    *AuditService
	fixes     *fixes.Registry
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewFixService(
	catalog domain.Catalog,
	settings domain.SettingsStore,
	generator domain.ContentGenerator,
	ledger domain.CreditLedger,
	history domain.VersionHistory,
	audits *AuditService,
	registry *fixes.Registry,
	log logrus.FieldLogger,
) *FixService {
	return &FixService{
		catalog:   catalog,
		settings:  settings,
		generator: generator,
		ledger:    ledger,
		history:   history,
		audits:    audits,
		fixes:     registry,
		log:       log,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to stamp history entries.
func (s *FixService) WithClock(now func() time.Time) *FixService {
	s.now = now
	return s
}

// fixJob carries one dispatch through the pipeline.
type fixJob struct {
	shopID  string
	key     domain.RuleKey
	fix     fixes.Fix
	fixType domain.FixType
	target  fixes.Target
}

// ApplyFix remediates one rule on one listing. The error return is reserved
// for failures before dispatch (listing or settings unavailable); everything
// after that is reported in the outcome.
func (s *FixService) ApplyFix(ctx context.Context, shopID, listingID string, key domain.RuleKey, cfg domain.FixConfig) (domain.FixOutcome, error) {
	// 1. Find the fix
	fix, ok := s.fixes.Lookup(key)
	if !ok {
		return domain.FixOutcome{Message: msgNoFix, RuleKey: key}, nil
	}

	// 2. Load the listing and the shop's rule definition
	listing, settings, err := s.load(ctx, shopID, listingID)
	if err != nil {
		return domain.FixOutcome{}, err
	}
	def, hasDef := findDefinition(rules.Load(settings.Rules, s.log), key)

	job := fixJob{
		shopID:  shopID,
		key:     key,
		fix:     fix,
		fixType: fix.Type(),
		target: fixes.Target{
			Listing: listing,
			Config:  settings.FixDefaults[key].Merge(cfg),
			Rule:    def.Config,
		},
	}

	// 3. Idempotence pre-check
	if fix.Satisfied(job.target) {
		return domain.FixOutcome{Success: true, NoOp: true, Message: msgUpToDate, RuleKey: key, FixType: job.fixType}, nil
	}

	// 4. Rules that resolve to manual are flagged, never mutated
	if hasDef && def.Enabled {
		res := s.audits.engine.Run(listing, []domain.RuleDefinition{def})
		if len(res.Results) == 1 && res.Results[0].Failed() && res.Results[0].FixType == domain.FixManual {
			return domain.FixOutcome{
				Message: "manual fix required: " + res.Results[0].Details,
				RuleKey: key,
				FixType: domain.FixManual,
			}, nil
		}
	}

	return s.dispatch(ctx, job), nil
}

// GenerateImage synthesizes and attaches a product image when the listing is
// below its image minimum.
func (s *FixService) GenerateImage(ctx context.Context, shopID, listingID string, cfg domain.FixConfig) (domain.FixOutcome, error) {
	listing, settings, err := s.load(ctx, shopID, listingID)
	if err != nil {
		return domain.FixOutcome{}, err
	}
	def, _ := findDefinition(rules.Load(settings.Rules, s.log), domain.RuleMinImages)
	job := fixJob{
		shopID:  shopID,
		key:     domain.RuleMinImages,
		fix:     fixes.ImageFix{},
		fixType: domain.FixAI,
		target: fixes.Target{
			Listing: listing,
			Config:  settings.FixDefaults[domain.RuleMinImages].Merge(cfg),
			Rule:    def.Config,
		},
	}
	if job.fix.Satisfied(job.target) {
		return domain.FixOutcome{Success: true, NoOp: true, Message: msgUpToDate, RuleKey: job.key, FixType: job.fixType}, nil
	}
	return s.dispatch(ctx, job), nil
}

// ApplyAutoFixes applies every auto fix whose rule currently fails, one at a
// time with a re-audit in between. It stops when no untried auto fix is left.
func (s *FixService) ApplyAutoFixes(ctx context.Context, shopID, listingID string, cfg domain.FixConfig) ([]domain.FixOutcome, *domain.AuditResult, error) {
	current, err := s.audits.AuditListing(ctx, shopID, listingID)
	if err != nil {
		return nil, nil, err
	}
	tried := make(map[domain.RuleKey]bool)
	var outcomes []domain.FixOutcome
	for {
		key, ok := s.nextAutoFix(current, tried)
		if !ok {
			return outcomes, current, nil
		}
		tried[key] = true
		outcome, err := s.ApplyFix(ctx, shopID, listingID, key, cfg)
		if err != nil {
			return outcomes, current, err
		}
		outcomes = append(outcomes, outcome)
		if outcome.Audit != nil {
			current = outcome.Audit
		}
	}
}

func (s *FixService) nextAutoFix(a *domain.AuditResult, tried map[domain.RuleKey]bool) (domain.RuleKey, bool) {
	for _, r := range a.Results {
		if !r.Failed() || !r.CanAutoFix || r.FixType != domain.FixAuto || tried[r.Key] {
			continue
		}
		if f, ok := s.fixes.Lookup(r.Key); ok && f.Type() == domain.FixAuto {
			return r.Key, true
		}
	}
	return "", false
}

// RevertChange restores the previous value recorded in a history entry.
func (s *FixService) RevertChange(ctx context.Context, shopID, entryID string) (domain.FixOutcome, error) {
	entry, err := s.history.Entry(ctx, shopID, entryID)
	if err != nil {
		return domain.FixOutcome{}, fmt.Errorf("loading history entry: %w", err)
	}
	listing, err := s.catalog.FetchListing(ctx, entry.ListingID)
	if err != nil {
		return domain.FixOutcome{}, fmt.Errorf("fetching listing %s: %w", entry.ListingID, err)
	}

	out := domain.FixOutcome{RuleKey: entry.RuleKey, FixType: domain.FixManual}
	update, err := fixes.RevertUpdate(*entry)
	if err != nil {
		out.Message = domain.UserMessage(err)
		return out, nil
	}
	changes := update.Changes(listing)
	if len(changes) == 0 {
		out.Success, out.NoOp, out.Message = true, true, msgUpToDate
		return out, nil
	}
	if msg, ok := s.mutate(ctx, listing.ID, update); !ok {
		out.Message = msg
		return out, nil
	}
	s.record(ctx, shopID, listing.ID, entry.RuleKey, domain.FixManual, changes)

	out.Success = true
	out.Changes = changes
	out.Message = fmt.Sprintf("reverted %s", entry.Field)
	out.Audit = s.reaudit(ctx, shopID, listing.ID)
	return out, nil
}

// dispatch runs the mutation pipeline for a fix that is known to be needed.
func (s *FixService) dispatch(ctx context.Context, job fixJob) domain.FixOutcome {
	listing := job.target.Listing
	out := domain.FixOutcome{RuleKey: job.key, FixType: job.fixType}
	log := s.log.WithFields(logrus.Fields{"shop_id": job.shopID, "listing_id": listing.ID, "rule": job.key})

	// 1. Gate and generate when the fix needs content
	var generated *domain.Generated
	req := job.fix.Generation(job.target)
	if req != nil {
		decision, err := s.ledger.Gate(ctx, job.shopID)
		if err != nil {
			out.Message = fmt.Sprintf("credit check failed: %v", err)
			return out
		}
		if !decision.Allowed {
			out.Denied = decision.Reason
			out.Message = decision.Reason.Message()
			return out
		}
		gen, err := s.generator.Generate(ctx, *req)
		if err != nil {
			log.WithError(err).Warn("content generation failed")
			out.Message = fmt.Sprintf("generation failed: %s", domain.UserMessage(err))
			return out
		}
		generated = &gen
	}

	// 2. Plan the update
	update, err := job.fix.Build(job.target, generated)
	if err != nil {
		out.Message = domain.UserMessage(err)
		return out
	}
	changes := update.Changes(listing)
	if len(changes) == 0 {
		out.Success, out.NoOp, out.Message = true, true, msgUpToDate
		return out
	}

	// 3. Exactly one mutation
	if msg, ok := s.mutate(ctx, listing.ID, update); !ok {
		out.Message = msg
		return out
	}

	// 4. Consume only after generation and mutation both succeeded
	if req != nil {
		if _, err := s.ledger.Consume(ctx, job.shopID); err != nil {
			log.WithError(err).Error("credit consume failed after successful fix")
		}
	}

	// 5. History, then a fresh audit
	s.record(ctx, job.shopID, listing.ID, job.key, job.fixType, changes)
	out.Success = true
	out.Changes = changes
	out.Message = fmt.Sprintf("applied %s fix for %s", job.fixType, job.key)
	out.Audit = s.reaudit(ctx, job.shopID, listing.ID)
	log.WithField("changes", len(changes)).Info("fix applied")
	return out
}

func (s *FixService) mutate(ctx context.Context, listingID string, update domain.ListingUpdate) (string, bool) {
	res, err := s.catalog.MutateListing(ctx, listingID, update)
	if err != nil {
		return fmt.Sprintf("catalog update failed: %s", domain.UserMessage(err)), false
	}
	if !res.Success {
		return res.ErrorMessage(), false
	}
	return "", true
}

func (s *FixService) record(ctx context.Context, shopID, listingID string, key domain.RuleKey, source domain.FixType, changes []domain.FieldChange) {
	now := s.now().UTC()
	entries := make([]domain.VersionEntry, 0, len(changes))
	for _, c := range changes {
		entries = append(entries, domain.VersionEntry{
			ID:        uuid.NewString(),
			ShopID:    shopID,
			ListingID: listingID,
			RuleKey:   key,
			Field:     c.Field,
			Previous:  c.Previous,
			New:       c.New,
			Source:    source,
			CreatedAt: now,
		})
	}
	if err := s.history.Append(ctx, entries...); err != nil {
		s.log.WithFields(logrus.Fields{"shop_id": shopID, "listing_id": listingID}).
			WithError(err).Error("recording version history failed")
	}
}

func (s *FixService) reaudit(ctx context.Context, shopID, listingID string) *domain.AuditResult {
	res, err := s.audits.AuditListing(ctx, shopID, listingID)
	if err != nil {
		s.log.WithFields(logrus.Fields{"shop_id": shopID, "listing_id": listingID}).
			WithError(err).Warn("re-audit after fix failed")
		return nil
	}
	return res
}

func (s *FixService) load(ctx context.Context, shopID, listingID string) (*domain.ListingSnapshot, domain.ShopSettings, error) {
	listing, err := s.catalog.FetchListing(ctx, listingID)
	if err != nil {
		return nil, domain.ShopSettings{}, fmt.Errorf("fetching listing %s: %w", listingID, err)
	}
	settings, err := s.settings.ShopSettings(ctx, shopID)
	if err != nil {
		return nil, domain.ShopSettings{}, fmt.Errorf("loading shop settings: %w", err)
	}
	return listing, settings, nil
}

func findDefinition(defs []domain.RuleDefinition, key domain.RuleKey) (domain.RuleDefinition, bool) {
	for _, d := range defs {
		if d.Key == key {
			return d, true
		}
	}
	return domain.RuleDefinition{}, false
}

// History lists the recorded field changes for a listing, newest first.
func (s *FixService) History(ctx context.Context, shopID, listingID string) ([]domain.VersionEntry, error) {
	entries, err := s.history.List(ctx, shopID, listingID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// Credits reports the shop's current AI allowance.
func (s *FixService) Credits(ctx context.Context, shopID string) (domain.GateDecision, error) {
	return s.ledger.Gate(ctx, shopID)
}
