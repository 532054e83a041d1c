package version

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestFull(t *testing.T) {
	t.Parallel()

	line := Full("alarm-clockd")

	require.Contains(t, line, "alarm-clockd "+Short()+" (commit ")
	require.Contains(t, line, runtime.GOOS+"/"+runtime.GOARCH)
	require.NotEmpty(t, Revision())
}

func TestShorten(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0123456", shorten("0123456789abcdef"))
	require.Equal(t, "abc", shorten("abc"))
}

// TestVersionCommand prints the version line named after the root command.
func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "alarm-clock"}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Equal(t, Full("alarm-clock")+"\n", out.String())
}
