package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testRoot builds a root command with sub attached, capturing output and
// logging into a temporary file.
func testRoot(t *testing.T, sub *cobra.Command, args ...string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	cmd := newRootCmd()
	cmd.AddCommand(sub)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append(args, "--"+logFileFlagName, filepath.Join(t.TempDir(), "docmig.log")))

	return cmd, stdout, stderr
}

// setConfigEnv sets the DOCMIG_ environment variable that viper resolves for
// key; t.Setenv restores it when the test ends.
func setConfigEnv(t *testing.T, key, value string) {
	t.Helper()

	name := envPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	t.Setenv(name, value)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const retitleDefinition = `id: retitle
title: Retitle drafts
documentTypes: [post]
rules:
  - on: string
    path: title
    equals: x
    op: {type: set, value: "y"}
`
