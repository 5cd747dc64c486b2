package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "icsfix/internal/log"
)

func TestMain(m *testing.M) {
	appLog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "icsfix", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.True(t, rootCmd.SilenceUsage)

	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"fix", "split", "lint", "watch"})

	for _, flag := range []string{"config", "verbose", "debug", "lenient"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.NotNil(t, fixCmd.Flags().Lookup("no-replace"))
	assert.NotNil(t, splitCmd.Flags().Lookup("out"))
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", rootCmd.Version)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		appLog.SetLevel(appLog.LevelInfo)
	})
	err := Execute(context.Background())
	return out.String(), err
}

func TestFixCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	ics := filepath.Join(dir, "cal", "a.ics")
	require.NoError(t, os.MkdirAll(filepath.Dir(ics), 0o755))
	require.NoError(t, os.WriteFile(ics, []byte("BEGIN:VCALENDAR\nBEGIN:VEVENT\nUID:a.ics\nEND:VEVENT\nEND:VCALENDAR\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "fix", filepath.Dir(ics))
	require.NoError(t, err)
	assert.Contains(t, out, "1 files: 1 modified, 0 unchanged, 0 skipped, 0 failed")
	assert.FileExists(t, cfgPath)

	body, err := os.ReadFile(ics)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "UID:a.ics")
}

func TestWatchNeedsPaths(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := run(t, "--config", cfgPath, "watch")
	assert.ErrorContains(t, err, "watch.paths is empty")
}

func TestHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "icsfix")
	assert.Contains(t, out, "fix")
}

func TestRaiseVerbosity(t *testing.T) {
	tests := []struct {
		level appLog.Level
		steps int
		want  appLog.Level
	}{
		{appLog.LevelInfo, 0, appLog.LevelInfo},
		{appLog.LevelInfo, 1, appLog.LevelDebug},
		{appLog.LevelWarn, 1, appLog.LevelInfo},
		{appLog.LevelError, 2, appLog.LevelInfo},
		{appLog.LevelInfo, 5, appLog.LevelDebug},
		{appLog.LevelDebug, 1, appLog.LevelDebug},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, raiseVerbosity(tt.level, tt.steps), "%s + %d", tt.level, tt.steps)
	}
}

func TestLintCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	ics := filepath.Join(dir, "cal", "a.ics")
	require.NoError(t, os.MkdirAll(filepath.Dir(ics), 0o755))
	require.NoError(t, os.WriteFile(ics, []byte("BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//t//EN\nBEGIN:VTODO\nSUMMARY:x\nEND:VTODO\nEND:VCALENDAR\n"), 0o644))

	out, err := run(t, "--config", cfgPath, "lint", filepath.Dir(ics))
	assert.ErrorContains(t, err, "1 problems found")
	assert.Contains(t, out, "1 files: 1 problems, 0 failed")
}
