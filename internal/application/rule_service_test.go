package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/application"
	"github.com/abdidvp/shelfready/internal/domain"
)

type fakeRuleEditor struct {
	enabled map[domain.RuleKey]bool
	weights map[domain.RuleKey]int
	seeded  int
}

func (e *fakeRuleEditor) SetRuleEnabled(_ context.Context, _ string, key domain.RuleKey, enabled bool) error {
	if e.enabled == nil {
		e.enabled = make(map[domain.RuleKey]bool)
	}
	e.enabled[key] = enabled
	return nil
}

func (e *fakeRuleEditor) SetRuleWeight(_ context.Context, _ string, key domain.RuleKey, weight int) error {
	if e.weights == nil {
		e.weights = make(map[domain.RuleKey]int)
	}
	e.weights[key] = weight
	return nil
}

func (e *fakeRuleEditor) SeedRules(_ context.Context, _ string, tmpl domain.ChecklistTemplate) (int, error) {
	e.seeded += len(tmpl.Rules)
	return len(tmpl.Rules), nil
}

func newRuleService(settings *fakeSettings) (*application.RuleService, *fakeRuleEditor) {
	log, _ := test.NewNullLogger()
	editor := &fakeRuleEditor{}
	return application.NewRuleService(settings, editor, log), editor
}

func TestListRules_OrdersByPositionThenID(t *testing.T) {
	settings := &fakeSettings{settings: domain.ShopSettings{Rules: []domain.RuleDefinition{
		{ID: 3, Key: domain.RuleHasTags, Position: 2},
		{ID: 2, Key: domain.RuleHasVendor, Position: 1},
		{ID: 1, Key: domain.RuleTitleLength, Position: 2},
	}}}
	svc, _ := newRuleService(settings)

	defs, err := svc.ListRules(context.Background(), shopID)

	require.NoError(t, err)
	keys := []domain.RuleKey{defs[0].Key, defs[1].Key, defs[2].Key}
	assert.Equal(t, []domain.RuleKey{domain.RuleHasVendor, domain.RuleTitleLength, domain.RuleHasTags}, keys)
}

func TestSetEnabledAndWeight(t *testing.T) {
	svc, editor := newRuleService(defaultSettings())
	ctx := context.Background()

	require.NoError(t, svc.SetEnabled(ctx, shopID, domain.RuleTagFormat, true))
	require.NoError(t, svc.SetWeight(ctx, shopID, domain.RuleHasTags, 5))

	assert.True(t, editor.enabled[domain.RuleTagFormat])
	assert.Equal(t, 5, editor.weights[domain.RuleHasTags])
}

func TestSetWeight_RejectsBelowOne(t *testing.T) {
	svc, editor := newRuleService(defaultSettings())

	err := svc.SetWeight(context.Background(), shopID, domain.RuleHasTags, 0)

	assert.ErrorIs(t, err, domain.ErrInvalidRuleConfig)
	assert.Equal(t, "weight must be at least 1 (got 0)", domain.UserMessage(err))
	assert.Empty(t, editor.weights)
}

func TestSeed_ValidatesTemplate(t *testing.T) {
	svc, editor := newRuleService(defaultSettings())
	ctx := context.Background()

	n, err := svc.Seed(ctx, shopID, domain.DefaultChecklist())
	require.NoError(t, err)
	assert.Equal(t, len(domain.ValidRuleKeys), n)

	_, err = svc.Seed(ctx, shopID, domain.ChecklistTemplate{Rules: []domain.RuleTemplate{{}}})
	assert.Error(t, err)
	assert.Equal(t, len(domain.ValidRuleKeys), editor.seeded)
}

func TestThrottledGenerator_PassesThrough(t *testing.T) {
	gen := &fakeGenerator{out: domain.Generated{Text: "Linen Throw"}}
	throttled := application.NewThrottledGenerator(gen, 6000)

	for range 3 {
		out, err := throttled.Generate(context.Background(), domain.GenerationRequest{Kind: domain.GenerateTitle})
		require.NoError(t, err)
		assert.Equal(t, "Linen Throw", out.Text)
	}
	assert.Equal(t, 3, gen.callCount())
}

func TestThrottledGenerator_HonoursContext(t *testing.T) {
	gen := &fakeGenerator{}
	throttled := application.NewThrottledGenerator(gen, 1)
	ctx := context.Background()

	_, err := throttled.Generate(ctx, domain.GenerationRequest{Kind: domain.GenerateTitle})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	_, err = throttled.Generate(ctx, domain.GenerationRequest{Kind: domain.GenerateTitle})

	assert.Error(t, err)
	assert.Equal(t, 1, gen.callCount())
}
