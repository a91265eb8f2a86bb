package application_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/fixes"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

const shopID = "shop-1"

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeCatalog struct {
	mu        sync.Mutex
	listings  map[string]domain.ListingSnapshot
	mutations []string
	fetchErr  error
	mutateErr error
	rejection []domain.FieldError
	panicOn   string
}

func newFakeCatalog(listings ...domain.ListingSnapshot) *fakeCatalog {
	c := &fakeCatalog{listings: make(map[string]domain.ListingSnapshot)}
	for _, l := range listings {
		c.listings[l.ID] = l
	}
	return c
}

func (c *fakeCatalog) FetchListing(_ context.Context, id string) (*domain.ListingSnapshot, error) {
	if id == c.panicOn {
		panic("catalog exploded")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	l, ok := c.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &l, nil
}

func (c *fakeCatalog) MutateListing(_ context.Context, id string, u domain.ListingUpdate) (domain.MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations = append(c.mutations, id)
	if c.mutateErr != nil {
		return domain.MutationResult{}, c.mutateErr
	}
	if len(c.rejection) > 0 {
		return domain.MutationResult{Errors: c.rejection}, nil
	}
	c.listings[id] = u.Apply(c.listings[id])
	return domain.MutationResult{Success: true}, nil
}

func (c *fakeCatalog) listing(id string) domain.ListingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listings[id]
}

func (c *fakeCatalog) mutationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mutations)
}

type fakeSettings struct {
	settings domain.ShopSettings
	err      error
}

func (f *fakeSettings) ShopSettings(context.Context, string) (domain.ShopSettings, error) {
	return f.settings, f.err
}

func defaultSettings() *fakeSettings {
	defs := domain.DefaultChecklist().Definitions()
	for i := range defs {
		defs[i].ID = int64(i + 1)
	}
	return &fakeSettings{settings: domain.ShopSettings{ShopID: shopID, Rules: defs}}
}

type fakeAuditStore struct {
	mu     sync.Mutex
	audits map[string]domain.AuditResult
	saves  int
}

func (s *fakeAuditStore) SaveAudit(_ context.Context, r domain.AuditResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.audits == nil {
		s.audits = make(map[string]domain.AuditResult)
	}
	s.audits[r.ShopID+"/"+r.ListingID] = r
	s.saves++
	return nil
}

func (s *fakeAuditStore) LatestAudit(_ context.Context, shop, listing string) (*domain.AuditResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.audits[shop+"/"+listing]
	if !ok {
		return nil, domain.ErrAuditNotFound
	}
	return &r, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.VersionEntry
	err     error
}

func (h *fakeHistory) Append(_ context.Context, entries ...domain.VersionEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entries...)
	return nil
}

func (h *fakeHistory) Entry(_ context.Context, shop, id string) (*domain.VersionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, e := range h.entries {
		if e.ID == id && e.ShopID == shop {
			return &e, nil
		}
	}
	return nil, domain.ErrHistoryEntryNotFound
}

func (h *fakeHistory) List(_ context.Context, shop, listing string) ([]domain.VersionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.VersionEntry
	for _, e := range h.entries {
		if e.ShopID == shop && e.ListingID == listing {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	decision domain.GateDecision
	gateErr  error
	gates    int
	consumes int
}

func allowAll() *fakeLedger {
	return &fakeLedger{decision: domain.GateDecision{Allowed: true, CreditsRemaining: 10}}
}

func (l *fakeLedger) Gate(context.Context, string) (domain.GateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gates++
	return l.decision, l.gateErr
}

func (l *fakeLedger) Consume(_ context.Context, shop string) (domain.CreditState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.consumes++
	return domain.CreditState{ShopID: shop, Consumed: l.consumes}, nil
}

func (l *fakeLedger) counts() (gates, consumes int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gates, l.consumes
}

type fakeGenerator struct {
	mu    sync.Mutex
	out   domain.Generated
	err   error
	calls []domain.GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req domain.GenerationRequest) (domain.Generated, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.out, g.err
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

var errUpstream = errors.New("upstream unavailable")

// harness wires the services over fakes.
type harness struct {
	catalog   *fakeCatalog
	settings  *fakeSettings
	store     *fakeAuditStore
	history   *fakeHistory
	ledger    *fakeLedger
	generator *fakeGenerator
	log       *logrus.Logger
	hook      *test.Hook
	audits    *application.AuditService
	fixes     *application.FixService
}

func newHarness(listings ...domain.ListingSnapshot) *harness {
	h := &harness{
		catalog:   newFakeCatalog(listings...),
		settings:  defaultSettings(),
		store:     &fakeAuditStore{},
		history:   &fakeHistory{},
		ledger:    allowAll(),
		generator: &fakeGenerator{},
	}
	h.log, h.hook = test.NewNullLogger()
	h.audits = application.NewAuditService(h.catalog, h.settings, h.store, rules.Default(), h.log).
		WithClock(func() time.Time { return fixedNow })
	h.fixes = application.NewFixService(h.catalog, h.settings, h.generator, h.ledger, h.history, h.audits, fixes.Default(), h.log).
		WithClock(func() time.Time { return fixedNow })
	return h
}

func (h *harness) batch(opts application.BatchOptions) *application.BatchService {
	return application.NewBatchService(h.audits, h.fixes, opts, h.log)
}

// bareListing fails most of the default checklist but has a title, so AI
// fixes are not downgraded to manual.
func bareListing(id string) domain.ListingSnapshot {
	return domain.ListingSnapshot{ID: id, Title: "Handwoven Linen Throw Blanket"}
}
