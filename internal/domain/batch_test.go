package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/domain"
)

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Operation
	}{
		{"audit", domain.Operation{Kind: domain.OpAudit}},
		{" fix-auto ", domain.Operation{Kind: domain.OpFixAuto}},
		{"generate-image", domain.Operation{Kind: domain.OpGenerateImage}},
		{"fix:has_tags", domain.Operation{Kind: domain.OpFix, RuleKey: domain.RuleHasTags}},
	}
	for _, tt := range tests {
		got, err := domain.ParseOperation(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
	assert.Equal(t, "fix:has_tags", domain.Operation{Kind: domain.OpFix, RuleKey: domain.RuleHasTags}.String())
}

func TestParseOperation_Unknown(t *testing.T) {
	for _, in := range []string{"", "fix", "fix:", "publish"} {
		_, err := domain.ParseOperation(in)
		assert.True(t, errors.Is(err, domain.ErrUnknownOperation), in)
	}
}

func TestUserMessage(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	assert.Equal(t, "Catalog unavailable", domain.UserMessage(domain.NewUserError("Catalog unavailable", cause)))
	assert.Equal(t, "Product not found", domain.UserMessage(domain.ErrListingNotFound))
	assert.Equal(t, "boom", domain.UserMessage(errors.New("boom")))
}
