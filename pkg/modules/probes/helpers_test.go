package probes

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esaudit/esaudit/pkg/engine"
	"github.com/esaudit/esaudit/pkg/output"
	"github.com/esaudit/esaudit/pkg/probe"
	"github.com/esaudit/esaudit/pkg/report"
)

// newProbeSession builds a session pointed at a test server, with a console
// capturing output for assertions.
func newProbeSession(t *testing.T, server *httptest.Server) (*engine.Session, *bytes.Buffer) {
	t.Helper()

	client, err := probe.NewClient(probe.ClientConfig{})
	require.NoError(t, err)

	var buf bytes.Buffer
	return &engine.Session{
		TargetURL: server.URL + "/",
		Client:    client,
		Report:    report.New(server.URL),
		Console:   output.NewConsole(&buf, true, false),
	}, &buf
}
