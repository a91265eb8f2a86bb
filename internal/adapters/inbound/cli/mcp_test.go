package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/shelfready/internal/adapters/inbound/cli"
)

func TestMCPServeHelpDescribesStdio(t *testing.T) {
	cmd := cli.NewRootCmdForTest()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"mcp", "serve", "--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "stdio transport")
	assert.Contains(t, out.String(), "audit listings")
}

func TestMCPServeRejectsArguments(t *testing.T) {
	cmd := cli.NewRootCmdForTest()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"mcp", "serve", "extra"})

	assert.Error(t, cmd.Execute())
}
