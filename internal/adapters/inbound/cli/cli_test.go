package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/abdidvp/shelfready/internal/adapters/inbound/cli"
	"github.com/abdidvp/shelfready/internal/domain"
)

// setup writes a config file pointing every path into a temp directory.
func setup(t *testing.T, listings ...domain.ListingSnapshot) string {
	t.Helper()
	dir := t.TempDir()
	data, err := json.Marshal(listings)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.json"), data, 0644))

	cfg := fmt.Sprintf(`
log:
  level: error
database:
  path: %[1]s/shelfready.db
catalog:
  kind: file
  path: %[1]s/catalog.json
checklist:
  path: %[1]s
batch:
  pause: 0s
  item_delay: 0s
`, filepath.ToSlash(dir))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func linen() domain.ListingSnapshot {
	return domain.ListingSnapshot{ID: "p1", Title: "Linen"}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, setup(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "shelfready dev")
}

func TestAuditCommand_JSON(t *testing.T) {
	out, err := run(t, setup(t, linen()), "audit", "p1", "--json")
	require.NoError(t, err)
	assert.Equal(t, "p1", gjson.Get(out, "listing_id").String())
	assert.Equal(t, "incomplete", gjson.Get(out, "status").String())
}

func TestAuditCommand_DefaultTUI(t *testing.T) {
	out, err := run(t, setup(t, linen()), "audit", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "Listing p1")
	assert.Contains(t, out, "Has vendor")
}

func TestAuditCommand_MissingListing(t *testing.T) {
	_, err := run(t, setup(t), "audit", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestFixHistoryRevert(t *testing.T) {
	cfg := setup(t, linen())

	out, err := run(t, cfg, "fix", "p1", "has_vendor", "--set", "vendor=Loom")
	require.NoError(t, err)
	assert.Contains(t, out, "applied auto fix for has_vendor")

	out, err = run(t, cfg, "history", "p1", "--json")
	require.NoError(t, err)
	entry := gjson.Get(out, "0.id").String()
	require.NotEmpty(t, entry, out)
	assert.Equal(t, "Loom", gjson.Get(out, "0.new").String())

	out, err = run(t, cfg, "revert", entry)
	require.NoError(t, err)
	assert.Contains(t, out, "reverted vendor")

	out, err = run(t, cfg, "history", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "Change History")
}

func TestFixCommand_NeedsRuleOrAuto(t *testing.T) {
	_, err := run(t, setup(t, linen()), "fix", "p1")
	assert.Error(t, err)
}

func TestFixCommand_Auto(t *testing.T) {
	out, err := run(t, setup(t, linen()), "fix", "--auto", "p1", "--set", "vendor=Loom,product_type=Throw", "--json")
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, "outcomes.#(rule_key==\"has_vendor\").success").Bool(), out)
	assert.True(t, gjson.Get(out, "audit").Exists())
}

func TestBatchCommand_PerItemIsolation(t *testing.T) {
	out, err := run(t, setup(t, linen()), "batch", "--op", "audit", "p1", "p2", "--json")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gjson.Get(out, "processed").Int())
	assert.EqualValues(t, 1, gjson.Get(out, "succeeded").Int())
	assert.Equal(t, "Product not found", gjson.Get(out, "results.1.message").String())
}

func TestBatchCommand_All(t *testing.T) {
	out, err := run(t, setup(t, linen(), domain.ListingSnapshot{ID: "p2", Title: "Wool"}), "batch", "--all", "--json")
	require.NoError(t, err)
	assert.EqualValues(t, 2, gjson.Get(out, "total").Int())
}

func TestBatchCommand_InvalidOperation(t *testing.T) {
	_, err := run(t, setup(t, linen()), "batch", "--op", "publish", "p1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidBatch)
}

func TestRulesCommands(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "title_length")

	out, err = run(t, cfg, "rules", "disable", "has_tags")
	require.NoError(t, err)
	assert.Contains(t, out, "has_tags disabled")

	out, err = run(t, cfg, "rules", "weight", "has_tags", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "weight set to 3")

	_, err = run(t, cfg, "rules", "weight", "has_tags", "0")
	assert.Error(t, err)
	_, err = run(t, cfg, "rules", "weight", "has_tags", "heavy")
	assert.Error(t, err)

	out, err = run(t, cfg, "rules", "list", "--json")
	require.NoError(t, err)
	tags := gjson.Get(out, `#(key=="has_tags")`)
	assert.False(t, tags.Get("enabled").Bool())
	assert.EqualValues(t, 3, tags.Get("weight").Int())

	out, err = run(t, cfg, "rules", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "0 rule definitions created")
}

func TestCreditsCommand(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "credits")
	require.NoError(t, err)
	assert.Contains(t, out, "AI credits left this period")

	out, err = run(t, cfg, "credits", "--own-key")
	require.NoError(t, err)
	assert.Contains(t, out, "own key")
}

func TestShopFlagSelectsShop(t *testing.T) {
	cfg := setup(t, linen())

	_, err := run(t, cfg, "--shop", "shop-2", "rules", "disable", "has_tags")
	require.NoError(t, err)

	out, err := run(t, cfg, "rules", "list", "--json")
	require.NoError(t, err)
	assert.True(t, gjson.Get(out, `#(key=="has_tags").enabled`).Bool(), "default shop is untouched")
}

func TestInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  kind: ftp\n"), 0644))
	_, err := run(t, path, "rules", "list")
	assert.ErrorContains(t, err, "unknown catalog.kind")
}
