package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	v := NewDWLoaderVersion()
	require.Equal(t, "v0.1.0", v.SemVer())
	require.True(t, strings.HasPrefix(v.String(), "DWLoader v0.1.0\nGo Version: "))
	require.Contains(t, NewDWLoaderBuildInfo().String(), "GitHash: Unknown")
}
