package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegisterCommonFlags(t *testing.T) {
	for _, c := range []*cobra.Command{
		NewServerCmd(), NewUploadCmd(), NewSchemaCmd(), NewCheckCmd(), NewCreateCmd(), NewLoadCmd(),
	} {
		for _, name := range []string{"config", "log.file", "log.level", "log.format"} {
			require.NotNil(t, c.Flags().Lookup(name), "%s --%s", c.Use, name)
		}
	}
}

func TestCommonFlags(t *testing.T) {
	var f commonFlags
	c := &cobra.Command{Use: "test"}
	f.register(c)

	require.Equal(t, LogFormatText, f.logFormat)
	require.NoError(t, c.Flags().Parse([]string{"--log.format", "JSON", "-c", "dwloader.yaml", "--log.level", "debug"}))
	require.Equal(t, LogFormatJSON, f.logFormat)
	require.Equal(t, "dwloader.yaml", f.configFile)
	require.NoError(t, f.initLogger())

	require.Error(t, c.Flags().Parse([]string{"--log.format", "xml"}))
}
