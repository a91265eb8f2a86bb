package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/domain"
)

func TestApplyFix_NoFixRegistered(t *testing.T) {
	h := newHarness(bareListing("p1"))

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleMinImages, nil)

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "no auto-fix available", out.Message)
	assert.Zero(t, h.catalog.mutationCount())
}

func TestApplyFix_AutoFixMutatesOnceAndReaudits(t *testing.T) {
	h := newHarness(bareListing("p1"))

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasVendor, domain.FixConfig{"vendor": "Loom & Co"})

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
	assert.Equal(t, domain.FixAuto, out.FixType)
	assert.Equal(t, 1, h.catalog.mutationCount())
	assert.Equal(t, "Loom & Co", h.catalog.listing("p1").Vendor)
	require.NotNil(t, out.Audit)
	r, _ := out.Audit.Result(domain.RuleHasVendor)
	assert.Equal(t, domain.StatusPassed, r.Status)
	gates, _ := h.ledger.counts()
	assert.Zero(t, gates, "auto fixes are not metered")

	require.Len(t, h.history.entries, 1)
	e := h.history.entries[0]
	assert.Equal(t, domain.FieldVendor, e.Field)
	assert.Equal(t, "", e.Previous)
	assert.Equal(t, "Loom & Co", e.New)
	assert.Equal(t, domain.FixAuto, e.Source)
	assert.Equal(t, fixedNow, e.CreatedAt)
	assert.NotEmpty(t, e.ID)
}

func TestApplyFix_ShopDefaultsMergedUnderCallerConfig(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.settings.settings.FixDefaults = map[domain.RuleKey]domain.FixConfig{
		domain.RuleHasVendor: {"vendor": "Shop Default"},
	}
	ctx := context.Background()

	out, err := h.fixes.ApplyFix(ctx, shopID, "p1", domain.RuleHasVendor, nil)
	require.NoError(t, err)
	require.True(t, out.Success)
	assert.Equal(t, "Shop Default", h.catalog.listing("p1").Vendor)

	h.catalog.listings["p2"] = bareListing("p2")
	_, err = h.fixes.ApplyFix(ctx, shopID, "p2", domain.RuleHasVendor, domain.FixConfig{"vendor": "Caller"})
	require.NoError(t, err)
	assert.Equal(t, "Caller", h.catalog.listing("p2").Vendor)
}

func TestApplyFix_AlreadySatisfiedIsNoOp(t *testing.T) {
	l := bareListing("p1")
	l.Vendor = "Loom & Co"
	h := newHarness(l)

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasVendor, domain.FixConfig{"vendor": "Other"})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.True(t, out.NoOp)
	assert.Equal(t, "already up to date", out.Message)
	assert.Zero(t, h.catalog.mutationCount())
	assert.Empty(t, h.history.entries)
}

func TestApplyFix_ManualResolutionNeverMutates(t *testing.T) {
	h := newHarness(domain.ListingSnapshot{ID: "p1"})

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleDescriptionLength, nil)

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, domain.FixManual, out.FixType)
	assert.Equal(t, "manual fix required: Description is empty; add a title first", out.Message)
	assert.Zero(t, h.catalog.mutationCount())
	assert.Zero(t, h.generator.callCount())
}

func TestApplyFix_AIDenials(t *testing.T) {
	cases := map[domain.DenialReason]string{
		domain.DenialExhausted: "AI credits exhausted for this period",
		domain.DenialLocked:    "AI features are locked on the current plan",
	}
	for reason, msg := range cases {
		t.Run(string(reason), func(t *testing.T) {
			h := newHarness(bareListing("p1"))
			h.ledger.decision = domain.GateDecision{Allowed: false, Reason: reason}

			out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleSEODescription, nil)

			require.NoError(t, err)
			assert.False(t, out.Success)
			assert.Equal(t, reason, out.Denied)
			assert.Equal(t, msg, out.Message)
			assert.Zero(t, h.generator.callCount())
			assert.Zero(t, h.catalog.mutationCount())
			_, consumes := h.ledger.counts()
			assert.Zero(t, consumes)
		})
	}
}

func TestApplyFix_AISuccessConsumesOnce(t *testing.T) {
	l := bareListing("p1")
	l.Title = "Throw"
	h := newHarness(l)
	h.generator.out = domain.Generated{Text: "Handwoven Linen Throw Blanket"}

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleTitleLength, nil)

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
	assert.Equal(t, domain.FixAI, out.FixType)
	gates, consumes := h.ledger.counts()
	assert.Equal(t, 1, gates)
	assert.Equal(t, 1, consumes)
	assert.Equal(t, 1, h.generator.callCount())
	assert.Equal(t, domain.GenerateTitle, h.generator.calls[0].Kind)
	assert.Equal(t, "Handwoven Linen Throw Blanket", h.catalog.listing("p1").Title)
	assert.Equal(t, domain.FixAI, h.history.entries[0].Source)
}

func TestApplyFix_MutationRejectedDoesNotConsume(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.generator.out = domain.Generated{Text: "A handwoven linen throw in natural oat that softens with every wash."}
	h.catalog.rejection = []domain.FieldError{{Field: "seo_description", Message: "is invalid"}, {Field: "handle", Message: "is taken"}}

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleSEODescription, nil)

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "seo_description: is invalid; handle: is taken", out.Message)
	assert.Equal(t, 1, h.generator.callCount())
	_, consumes := h.ledger.counts()
	assert.Zero(t, consumes)
	assert.Nil(t, out.Audit)
	assert.Empty(t, h.history.entries)
}

func TestApplyFix_GenerationFailure(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.generator.err = errUpstream

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasTags, nil)

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "generation failed: upstream unavailable", out.Message)
	assert.Zero(t, h.catalog.mutationCount())
	_, consumes := h.ledger.counts()
	assert.Zero(t, consumes)
}

func TestApplyFix_CatalogCallFailure(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.catalog.mutateErr = errUpstream

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasCollections, domain.FixConfig{"collection": "home"})

	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Equal(t, "catalog update failed: upstream unavailable", out.Message)
}

func TestApplyFix_ConfiguredTagsNeedNoCredits(t *testing.T) {
	l := bareListing("p1")
	l.Tags = []string{"linen"}
	h := newHarness(l)

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasTags, domain.FixConfig{"tags": "throw, blanket"})

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
	assert.Equal(t, []string{"linen", "throw", "blanket"}, h.catalog.listing("p1").Tags)
	gates, _ := h.ledger.counts()
	assert.Zero(t, gates)
	assert.Zero(t, h.generator.callCount())
}

func TestApplyFix_ListingNotFound(t *testing.T) {
	h := newHarness()
	_, err := h.fixes.ApplyFix(context.Background(), shopID, "nope", domain.RuleHasVendor, nil)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestApplyFix_HistoryFailureDoesNotFailFix(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.history.err = errUpstream

	out, err := h.fixes.ApplyFix(context.Background(), shopID, "p1", domain.RuleHasVendor, domain.FixConfig{"vendor": "Loom"})

	require.NoError(t, err)
	assert.True(t, out.Success)
	var logged bool
	for _, e := range h.hook.AllEntries() {
		if e.Message == "recording version history failed" {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestApplyAutoFixes_AppliesEachFailingAutoFix(t *testing.T) {
	h := newHarness(bareListing("p1"))
	cfg := domain.FixConfig{"vendor": "Loom & Co", "product_type": "Blankets", "collection": "home"}

	outs, final, err := h.fixes.ApplyAutoFixes(context.Background(), shopID, "p1", cfg)

	require.NoError(t, err)
	var keys []domain.RuleKey
	for _, o := range outs {
		assert.True(t, o.Success, "%s: %s", o.RuleKey, o.Message)
		keys = append(keys, o.RuleKey)
	}
	assert.Equal(t, []domain.RuleKey{domain.RuleHasVendor, domain.RuleHasProductType, domain.RuleSEOTitle, domain.RuleHasCollections}, keys)
	assert.Equal(t, 4, h.catalog.mutationCount())
	assert.Zero(t, final.AutoFixable)
	assert.Zero(t, h.generator.callCount())
}

func TestRevertChange_RestoresPreviousValue(t *testing.T) {
	h := newHarness(bareListing("p1"))
	ctx := context.Background()
	_, err := h.fixes.ApplyFix(ctx, shopID, "p1", domain.RuleHasVendor, domain.FixConfig{"vendor": "Loom"})
	require.NoError(t, err)
	entryID := h.history.entries[0].ID

	out, err := h.fixes.RevertChange(ctx, shopID, entryID)

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
	assert.Equal(t, "reverted vendor", out.Message)
	assert.Empty(t, h.catalog.listing("p1").Vendor)
	require.Len(t, h.history.entries, 2)
	assert.Equal(t, domain.FixManual, h.history.entries[1].Source)

	entries, err := h.fixes.History(ctx, shopID, "p1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRevertChange_UnknownEntry(t *testing.T) {
	h := newHarness(bareListing("p1"))
	_, err := h.fixes.RevertChange(context.Background(), shopID, "missing")
	assert.ErrorIs(t, err, domain.ErrHistoryEntryNotFound)
}

func TestGenerateImage_AttachesImage(t *testing.T) {
	h := newHarness(bareListing("p1"))
	h.generator.out = domain.Generated{ImageURL: "https://img.example/p1.png"}

	out, err := h.fixes.GenerateImage(context.Background(), shopID, "p1", nil)

	require.NoError(t, err)
	assert.True(t, out.Success, out.Message)
	require.Len(t, h.catalog.listing("p1").Images, 1)
	assert.Equal(t, domain.GenerateImage, h.generator.calls[0].Kind)
	_, consumes := h.ledger.counts()
	assert.Equal(t, 1, consumes)
}
