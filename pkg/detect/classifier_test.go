package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_NonJSONGate(t *testing.T) {
	// Without a JSON content-type nothing else matters, even strong signals.
	tests := []struct {
		name string
		sig  ResponseSignals
	}{
		{
			name: "plain 200",
			sig:  ResponseSignals{StatusCode: 200},
		},
		{
			name: "body mentions product",
			sig:  ResponseSignals{StatusCode: 200, BodyMentionsProduct: true},
		},
		{
			name: "identity header present",
			sig:  ResponseSignals{StatusCode: 200, ProductHeader: ProductHeaderValue},
		},
		{
			name: "security exception on 401",
			sig:  ResponseSignals{StatusCode: 401, StructuredErrorKind: SecurityExceptionKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason := Classify(tt.sig)
			assert.Equal(t, NotDetected, verdict)
			assert.Equal(t, "non-JSON response", reason)
		})
	}
}

func TestClassify_Unauthorized(t *testing.T) {
	tests := []struct {
		name    string
		sig     ResponseSignals
		verdict Verdict
	}{
		{
			name: "body mentions product confirms regardless of error kind",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          401,
				BodyMentionsProduct: true,
			},
			verdict: Confirmed,
		},
		{
			name: "body mentions product confirms even with security exception",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          401,
				BodyMentionsProduct: true,
				StructuredErrorKind: SecurityExceptionKind,
			},
			verdict: Confirmed,
		},
		{
			name: "security exception alone is only likely",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          401,
				StructuredErrorKind: SecurityExceptionKind,
			},
			verdict: Likely,
		},
		{
			name: "absent error kind yields not detected",
			sig: ResponseSignals{
				HasJSONContentType: true,
				StatusCode:         401,
			},
			verdict: NotDetected,
		},
		{
			name: "other error kind yields not detected",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          401,
				StructuredErrorKind: "index_not_found_exception",
			},
			verdict: NotDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason := Classify(tt.sig)
			assert.Equal(t, tt.verdict, verdict)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestClassify_OK(t *testing.T) {
	tests := []struct {
		name    string
		sig     ResponseSignals
		verdict Verdict
	}{
		{
			name: "identity header is authoritative without body match",
			sig: ResponseSignals{
				HasJSONContentType: true,
				StatusCode:         200,
				ProductHeader:      ProductHeaderValue,
			},
			verdict: Confirmed,
		},
		{
			name: "body text fallback for older releases",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          200,
				BodyMentionsProduct: true,
			},
			verdict: Confirmed,
		},
		{
			name: "wrong header value falls back to body text",
			sig: ResponseSignals{
				HasJSONContentType:  true,
				StatusCode:          200,
				ProductHeader:       "OpenSearch",
				BodyMentionsProduct: true,
			},
			verdict: Confirmed,
		},
		{
			name: "no markers yields not detected",
			sig: ResponseSignals{
				HasJSONContentType: true,
				StatusCode:         200,
			},
			verdict: NotDetected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, reason := Classify(tt.sig)
			assert.Equal(t, tt.verdict, verdict)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestClassify_UnexpectedStatus(t *testing.T) {
	for _, status := range []int{204, 301, 403, 404, 418, 500, 503} {
		sig := ResponseSignals{
			HasJSONContentType:  true,
			StatusCode:          status,
			ProductHeader:       ProductHeaderValue,
			BodyMentionsProduct: true,
			StructuredErrorKind: SecurityExceptionKind,
		}
		verdict, reason := Classify(sig)
		assert.Equal(t, NotDetected, verdict, "status %d", status)
		assert.Equal(t, "unexpected status code", reason)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	sig := ResponseSignals{
		HasJSONContentType:  true,
		StatusCode:          401,
		StructuredErrorKind: SecurityExceptionKind,
	}

	firstVerdict, firstReason := Classify(sig)
	for i := 0; i < 10; i++ {
		verdict, reason := Classify(sig)
		assert.Equal(t, firstVerdict, verdict)
		assert.Equal(t, firstReason, reason)
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "likely", Likely.String())
	assert.Equal(t, "not-detected", NotDetected.String())
}
