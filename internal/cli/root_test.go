package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(Defaults{})
	require.NotNil(t, cmd)
	assert.Equal(t, "cruxtx", cmd.Use)
	assert.Contains(t, cmd.Long, "bitemporal")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(Defaults{})
	commands := []string{"validate", "encode", "submit", "show", "history", "verify", "serve", "test"}

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
	cmd := NewRootCommand(Defaults{})

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDatabaseFlagDefaults(t *testing.T) {
	for _, name := range []string{"submit", "show", "history", "verify", "serve"} {
		t.Run(name, func(t *testing.T) {
			cmd := NewRootCommand(Defaults{Database: "/var/lib/cruxtx.db"})
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)

			dbFlag := sub.Flags().Lookup("db")
			require.NotNil(t, dbFlag)
			assert.Equal(t, "/var/lib/cruxtx.db", dbFlag.DefValue)
		})
	}
}

func TestServeCommandFlags(t *testing.T) {
	t.Run("default addr", func(t *testing.T) {
		cmd := NewRootCommand(Defaults{})
		serveCmd, _, err := cmd.Find([]string{"serve"})
		require.NoError(t, err)

		addrFlag := serveCmd.Flags().Lookup("addr")
		require.NotNil(t, addrFlag)
		assert.Equal(t, DefaultAddr, addrFlag.DefValue)

		require.NotNil(t, serveCmd.Flags().Lookup("max-body"))
	})

	t.Run("addr from defaults", func(t *testing.T) {
		cmd := NewRootCommand(Defaults{Addr: ":9090"})
		serveCmd, _, err := cmd.Find([]string{"serve"})
		require.NoError(t, err)
		assert.Equal(t, ":9090", serveCmd.Flags().Lookup("addr").DefValue)
	})
}

func TestEncodeCommandFlags(t *testing.T) {
	cmd := NewRootCommand(Defaults{})
	encodeCmd, _, err := cmd.Find([]string{"encode"})
	require.NoError(t, err)

	outputFlag := encodeCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tx.yaml", sampleYAML)

	_, err := execute(t, "--format", "invalid", "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tx.yaml", sampleYAML)

	out, err := execute(t, "submit", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeBadArg)
	assert.Contains(t, out, "--db is required")
}
