package engine

import (
	"github.com/esaudit/esaudit/pkg/output"
	"github.com/esaudit/esaudit/pkg/probe"
	"github.com/esaudit/esaudit/pkg/report"
)

// Session carries the collaborators shared by every probe module in one run:
// the target, the HTTP client, the report sink, and the console. Modules
// receive a per-module Session whose console buffers output so concurrent
// probes do not interleave their lines.
type Session struct {
	// TargetURL is the normalized target (scheme present, trailing slash).
	TargetURL string

	// Client issues all probe requests.
	Client *probe.Client

	// Report accumulates findings; safe for concurrent use.
	Report *report.Report

	// Console prints human-readable probe output.
	Console *output.Console

	// BaseResponse is the initial response fetched before probes run.
	BaseResponse *probe.Response

	// Verbose enables request/response detail lines.
	Verbose bool
}

// Endpoint joins a relative API path onto the target URL.
func (s *Session) Endpoint(path string) string {
	return s.TargetURL + path
}

// WithConsole returns a shallow copy of the session using a different
// console. Used by the runner to give each module a buffered console.
func (s *Session) WithConsole(c *output.Console) *Session {
	clone := *s
	clone.Console = c
	return &clone
}
