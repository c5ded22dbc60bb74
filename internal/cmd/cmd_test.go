package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	expected := []string{
		"version",
		"serve",
		"declare",
		"evaluate",
		"constraints",
	}
	registered := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "subcommand %q should be registered", name)
	}
}

func TestRootCommand_HelpOutput(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--help"})

	err := rootCmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "behavioral constraint firewall")
	assert.Contains(t, output, "declare")
	assert.Contains(t, output, "evaluate")
	assert.Contains(t, output, "serve")
}

func TestVersionVars_HaveDefaults(t *testing.T) {
	assert.Equal(t, "dev", Version)
	assert.Equal(t, "none", Commit)
	assert.Equal(t, "unknown", BuildDate)
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	tests := []struct {
		name     string
		flagName string
	}{
		{"config flag", "config"},
		{"verbose flag", "verbose"},
		{"log-level flag", "log-level"},
		{"log-format flag", "log-format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			assert.NotNil(t, flag, "flag %q should be registered", tt.flagName)
		})
	}
}

func TestParseAPIKeys(t *testing.T) {
	assert.Nil(t, parseAPIKeys(""))
	assert.Equal(t, []string{"wk-a"}, parseAPIKeys("wk-a"))
	assert.Equal(t, []string{"wk-a", "wk-b"}, parseAPIKeys(" wk-a , wk-b ,"))
}

func TestConstraintsImport_RejectsInvalidRecordBeforeWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	// Missing the required hour param for a meeting constraint.
	data := `[{"id": "c-deadbeef", "type": "NO_MEETINGS_AFTER_HOUR", "text": "no late meetings", "params": {}}]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := constraintsImport(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}

func TestConstraintsImport_RejectsNonArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": "c-1"}`), 0o600))

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := constraintsImport(cmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON array")
}

func TestPackageLevelTracer_IsNotNil(t *testing.T) {
	assert.NotNil(t, tracer, "package-level tracer should be initialized")
}
