package bind

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "probe"}
	cmd.Flags().StringSliceP("tests", "t", nil, "")
	cmd.Flags().StringArrayP("header", "H", nil, "")
	cmd.Flags().String("cookie", "", "")
	cmd.Flags().StringP("user", "U", "", "")
	cmd.Flags().StringP("password", "P", "", "")
	cmd.Flags().BoolP("json", "j", false, "")
	cmd.Flags().BoolP("verbose", "v", false, "")
	return cmd
}

func TestBindProbeOptions_NormalizesTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com:9200", "http://example.com:9200/"},
		{"http://example.com:9200", "http://example.com:9200/"},
		{"https://example.com:9200/", "https://example.com:9200/"},
	}

	for _, tt := range tests {
		opts, err := BindProbeOptions(newTestCommand(), []string{tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.want, opts.Target)
	}
}

func TestBindProbeOptions_ParsesHeaders(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("header", "X-Api-Key: secret"))
	require.NoError(t, cmd.Flags().Set("header", "Accept:application/json"))

	opts, err := BindProbeOptions(cmd, []string{"http://example.com"})
	require.NoError(t, err)

	assert.Equal(t, "secret", opts.Headers["X-Api-Key"])
	assert.Equal(t, "application/json", opts.Headers["Accept"])
}

func TestBindProbeOptions_RejectsMalformedHeader(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("header", "no-colon-here"))

	_, err := BindProbeOptions(cmd, []string{"http://example.com"})
	assert.ErrorContains(t, err, "invalid header")
}

func TestBindProbeOptions_LowercasesTests(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("tests", "AUTH,Users"))

	opts, err := BindProbeOptions(cmd, []string{"http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"auth", "users"}, opts.Tests)
}

func TestBindProbeOptions_CredentialsRequireEachOther(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("user", "elastic"))

	_, err := BindProbeOptions(cmd, []string{"http://example.com"})
	assert.ErrorContains(t, err, "invalid probe options")

	cmd = newTestCommand()
	require.NoError(t, cmd.Flags().Set("user", "elastic"))
	require.NoError(t, cmd.Flags().Set("password", "changeme"))

	opts, err := BindProbeOptions(cmd, []string{"http://example.com"})
	require.NoError(t, err)
	assert.Equal(t, "elastic", opts.Username)
	assert.Equal(t, "changeme", opts.Password)
}
