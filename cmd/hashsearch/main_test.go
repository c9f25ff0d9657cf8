package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	matchLine = regexp.MustCompile(`^\d+, "[0-9a-f]{64}"$`)
	doneLine  = regexp.MustCompile(`^Done in \S+, last asked = \d+$`)
)

func execute(t *testing.T, args ...string) ([]string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return strings.Split(strings.TrimRight(out.String(), "\n"), "\n"), err
}

func TestRootCmdPrintsMatchesAndSummary(t *testing.T) {
	lines, err := execute(t, "-N", "0", "-F", "5", "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, lines, 6)
	for _, line := range lines[:5] {
		assert.Regexp(t, matchLine, line)
	}
	assert.Regexp(t, doneLine, lines[5])
}

func TestRootCmdTrailingZeros(t *testing.T) {
	lines, err := execute(t, "-N", "2", "-F", "2", "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for _, line := range lines[:2] {
		require.Regexp(t, matchLine, line)
		assert.True(t, strings.HasSuffix(line, `00"`), line)
	}
	assert.Regexp(t, doneLine, lines[2])
}

func TestRootCmdExhausted(t *testing.T) {
	lines, err := execute(t, "-N", "65", "-F", "1", "--start", "18446744073709551614", "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "no more candidates after 18446744073709551615", lines[0])
	assert.Regexp(t, doneLine, lines[1])
}

func TestRootCmdUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no flags", nil},
		{"missing matches", []string{"-N", "3"}},
		{"missing zeros", []string{"-F", "3"}},
		{"zero matches", []string{"-N", "3", "-F", "0"}},
		{"negative zeros", []string{"-N", "-1", "-F", "3"}},
		{"not a number", []string{"-N", "three", "-F", "3"}},
		{"positional args", []string{"-N", "3", "-F", "3", "extra"}},
		{"bad log level", []string{"-N", "3", "-F", "3", "--log-level", "loud"}},
		{"bad metrics addr", []string{"-N", "3", "-F", "3", "--metrics-addr", "nowhere"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := execute(t, tt.args...)
			require.Error(t, err)
			for _, line := range lines {
				assert.NotRegexp(t, doneLine, line)
			}
		})
	}
}

func TestRootCmdConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zeros_needed: 40\nmatches_needed: 3\n"), 0o644))

	// -N overrides the impossible difficulty from the file.
	lines, err := execute(t, "--config", path, "-N", "0", "--log-level", "error")
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Regexp(t, doneLine, lines[3])
}

func TestRootCmdMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}
