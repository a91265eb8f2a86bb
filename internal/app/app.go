// Package app wires configuration, outbound adapters and application services
// into a running instance shared by the CLI, HTTP and MCP surfaces.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/abdidvp/shelfready/internal/adapters/outbound/catalog"
	checklist "github.com/abdidvp/shelfready/internal/adapters/outbound/config"
	"github.com/abdidvp/shelfready/internal/adapters/outbound/generator"
	"github.com/abdidvp/shelfready/internal/adapters/outbound/storage"
	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/config"
	"github.com/abdidvp/shelfready/internal/domain"
	"github.com/abdidvp/shelfready/internal/domain/fixes"
	"github.com/abdidvp/shelfready/internal/domain/rules"
)

type App struct {
	Config    config.Config
	Services  application.Services
	Catalog   domain.Catalog
	Ledger    *storage.Ledger
	Checklist domain.ChecklistTemplate
	Log       logrus.FieldLogger

	db *storage.DB
}

// New builds the application from cfg. The configured shop is seeded from
// the checklist template when it has no rules yet. Close releases the
// database.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*App, error) {
	// 1. Checklist template
	tmpl, err := checklist.New().Load(cfg.Checklist.Path)
	if err != nil {
		return nil, fmt.Errorf("loading checklist: %w", err)
	}

	// 2. Store
	db, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	ledger := storage.NewLedger(db, cfg.Credits.MonthlyLimit)

	// 3. Catalog and generator
	cat, err := newCatalog(cfg.Catalog, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	gen, err := newGenerator(cfg.Generator, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	// 4. Services
	audits := application.NewAuditService(cat, db, db, rules.Default(), log)
	fixSvc := application.NewFixService(cat, db, gen, ledger, db, audits, fixes.Default(), log)
	batches := application.NewBatchService(audits, fixSvc, application.BatchOptions{
		MaxSize:     cfg.Batch.MaxSize,
		Concurrency: cfg.Batch.Concurrency,
		Pause:       cfg.Batch.Pause,
		ItemDelay:   cfg.Batch.ItemDelay,
	}, log)
	ruleSvc := application.NewRuleService(db, db, log)

	a := &App{
		Config: cfg,
		Services: application.Services{
			Audits:  audits,
			Fixes:   fixSvc,
			Batches: batches,
			Rules:   ruleSvc,
		},
		Catalog:   cat,
		Ledger:    ledger,
		Checklist: tmpl,
		Log:       log,
		db:        db,
	}

	// 5. A shop without a checklist starts from the template
	defs, err := ruleSvc.ListRules(ctx, cfg.Shop.ID)
	if err == nil && len(defs) == 0 {
		_, err = ruleSvc.Seed(ctx, cfg.Shop.ID, tmpl)
	}
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

func newCatalog(cfg config.CatalogConfig, log logrus.FieldLogger) (domain.Catalog, error) {
	switch cfg.Kind {
	case "file":
		return catalog.NewFileCatalog(cfg.Path), nil
	case "http":
		return catalog.NewHTTPCatalog(catalog.HTTPOptions{
			BaseURL:  cfg.BaseURL,
			Token:    cfg.Token,
			RetryMax: cfg.RetryMax,
			Timeout:  cfg.Timeout,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown catalog kind %q", cfg.Kind)
	}
}

// newGenerator returns a throttled client, or a stand-in that always fails
// when no endpoint is configured.
func newGenerator(cfg config.GeneratorConfig, log logrus.FieldLogger) (domain.ContentGenerator, error) {
	if cfg.Endpoint == "" {
		log.Debug("generator.endpoint not set, AI fixes are unavailable")
		return generator.Unconfigured{}, nil
	}
	client, err := generator.New(generator.Options{
		Endpoint:        cfg.Endpoint,
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		ImageEndpoint:   cfg.ImageEndpoint,
		ImageModel:      cfg.ImageModel,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	return application.NewThrottledGenerator(client, cfg.MaxPerMinute), nil
}
