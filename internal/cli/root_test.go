package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "tempo", cmd.Use)
	assert.Contains(t, cmd.Long, "timelines")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "timeline", "run", "replay", "trace", "watch", "play"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		command string
		flag    string
		def     string
	}{
		{"compile", "output", ""},
		{"timeline", "events", "false"},
		{"run", "filter", ""},
		{"run", "update", "false"},
		{"run", "db", ""},
		{"replay", "db", ""},
		{"trace", "name", ""},
		{"watch", "debounce", "200ms"},
		{"play", "fps", "60"},
		{"play", "clock", "wall"},
		{"play", "on-interrupt", "finish"},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		t.Run(tt.command+"/"+tt.flag, func(t *testing.T) {
			sub, _, err := root.Find([]string{tt.command})
			require.NoError(t, err)
			f := sub.Flags().Lookup(tt.flag)
			require.NotNil(t, f)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, NewRootCommand(), "--format", "xml", "validate", showCUE)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootRunsSubcommand(t *testing.T) {
	out, err := execute(t, NewRootCommand(), "validate", showCUE)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 timeline(s) valid")
}

func TestSetupLoggingLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	ctx := context.Background()

	var buf bytes.Buffer
	setupLogging(&RootOptions{}, &buf)
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelInfo))
	assert.False(t, slog.Default().Enabled(ctx, slog.LevelDebug))

	slog.Info("recursive reentry detected", "timeline", "show")
	assert.Contains(t, buf.String(), "recursive reentry detected")

	setupLogging(&RootOptions{Verbose: true}, &buf)
	assert.True(t, slog.Default().Enabled(ctx, slog.LevelDebug))
}
