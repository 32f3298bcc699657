package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rootOut is shared across runs because cobra's generated completion
// subcommands capture the root command's writer on the first Execute; a
// fresh buffer per call would never see their output.
var rootOut bytes.Buffer

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootOut.Reset()
	rootCmd.SetOut(&rootOut)
	rootCmd.SetErr(&rootOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return rootOut.String(), err
}

func TestCompletionRunsWithoutConfig(t *testing.T) {
	// The completion generators must not require a reachable backend or a
	// config file on disk.
	missing := filepath.Join(t.TempDir(), "missing.json")

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := runRoot(t, "--config", missing, "completion", shell)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}
}

func TestHelpRunsWithoutConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")
	out, err := runRoot(t, "--config", missing, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "soreli")
}

func TestSkipsAppSetup(t *testing.T) {
	completion := &cobra.Command{Use: "completion"}
	bash := &cobra.Command{Use: "bash"}
	completion.AddCommand(bash)

	tests := []struct {
		name   string
		cmd    *cobra.Command
		expect bool
	}{
		{name: "help", cmd: &cobra.Command{Use: "help"}, expect: true},
		{name: "completion_parent", cmd: completion, expect: true},
		{name: "completion_shell", cmd: bash, expect: true},
		{name: "hidden_complete", cmd: &cobra.Command{Use: cobra.ShellCompRequestCmd}, expect: true},
		{name: "regular_command", cmd: &cobra.Command{Use: "lessons"}, expect: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, skipsAppSetup(tt.cmd))
		})
	}
}
