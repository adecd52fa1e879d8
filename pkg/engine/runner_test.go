package engine

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esaudit/esaudit/pkg/output"
	"github.com/esaudit/esaudit/pkg/probe"
	"github.com/esaudit/esaudit/pkg/report"
)

// fakeModule records execution and optionally fails.
type fakeModule struct {
	meta ModuleMetadata
	fail bool
	ran  chan string
}

func (m *fakeModule) Metadata() ModuleMetadata         { return m.meta }
func (m *fakeModule) Init(config map[string]any) error { return nil }

func (m *fakeModule) Run(ctx context.Context, session *Session) error {
	session.Console.Info(4, "running %s", m.meta.Name)
	session.Report.SetProperty(m.meta.Name, "ran")
	m.ran <- m.meta.Name
	if m.fail {
		return errors.New("probe blew up")
	}
	return nil
}

func newTestSession(t *testing.T, serverURL string) (*Session, *bytes.Buffer) {
	t.Helper()

	client, err := probe.NewClient(probe.ClientConfig{})
	require.NoError(t, err)

	var buf bytes.Buffer
	return &Session{
		TargetURL: serverURL + "/",
		Client:    client,
		Report:    report.New(serverURL),
		Console:   output.NewConsole(&buf, true, false),
	}, &buf
}

func TestFetchBase_AcceptsOKAndUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		session, _ := newTestSession(t, server.URL)
		runner := NewRunner(session)

		err := runner.FetchBase(context.Background())
		assert.NoError(t, err, "status %d", status)
		require.NotNil(t, session.BaseResponse)
		assert.Equal(t, status, session.BaseResponse.StatusCode)

		server.Close()
	}
}

func TestFetchBase_RejectsOtherStatuses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	session, _ := newTestSession(t, server.URL)
	err := NewRunner(session).FetchBase(context.Background())
	assert.ErrorContains(t, err, "503")
}

func TestFetchBase_AllowsHTTPSUpgradeRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "https://example.com:9200/", http.StatusMovedPermanently)
	}))
	defer server.Close()

	session, _ := newTestSession(t, server.URL)
	err := NewRunner(session).FetchBase(context.Background())
	assert.NoError(t, err)
}

func TestFetchBase_RejectsForeignRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://somewhere-else.example/", http.StatusFound)
	}))
	defer server.Close()

	session, _ := newTestSession(t, server.URL)
	err := NewRunner(session).FetchBase(context.Background())
	assert.ErrorContains(t, err, "redirects to URL")
}

func TestFetchBase_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Closed server: connection refused.

	session, _ := newTestSession(t, server.URL)
	err := NewRunner(session).FetchBase(context.Background())
	assert.ErrorContains(t, err, "fetch initial response")
}

func TestRun_ExecutesAllModulesDespiteFailures(t *testing.T) {
	ran := make(chan string, 3)
	for _, spec := range []struct {
		name string
		fail bool
	}{
		{"runner-test-a", false},
		{"runner-test-b", true},
		{"runner-test-c", false},
	} {
		spec := spec
		RegisterModuleFactory(spec.name, func() Module {
			return &fakeModule{
				meta: ModuleMetadata{Name: spec.name, Label: spec.name},
				fail: spec.fail,
				ran:  ran,
			}
		})
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	session, buf := newTestSession(t, server.URL)
	runner := NewRunner(session)

	runner.Run(context.Background(), []string{"runner-test-a", "runner-test-b", "runner-test-c"}, nil)
	close(ran)

	executed := map[string]bool{}
	for name := range ran {
		executed[name] = true
	}
	assert.Len(t, executed, 3)

	result := session.Report.Result()
	assert.Equal(t, "ran", result.Properties["runner-test-a"])
	assert.Equal(t, "ran", result.Properties["runner-test-c"])

	out := buf.String()
	assert.Contains(t, out, "running runner-test-a")
	assert.Contains(t, out, "probe blew up")
}

func TestRun_UnknownModuleIsReportedNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	session, buf := newTestSession(t, server.URL)
	NewRunner(session).Run(context.Background(), []string{"no-such-module"}, nil)

	assert.Contains(t, buf.String(), "not available")
}
