// Package detect implements Elasticsearch identification: it reduces an HTTP
// response to a small set of signals and classifies them into a verdict.
package detect

import (
	"encoding/json"
	"strings"

	"github.com/esaudit/esaudit/pkg/probe"
)

const (
	// productToken is the case-insensitive name token looked for in bodies.
	productToken = "elasticsearch"

	// ProductHeaderName is the product-identity header sent by modern
	// Elasticsearch releases.
	ProductHeaderName = "X-Elastic-Product"

	// ProductHeaderValue is the expected value of the identity header.
	ProductHeaderValue = "Elasticsearch"

	// SecurityExceptionKind is the structured error type Elasticsearch uses
	// for authorization failures.
	SecurityExceptionKind = "security_exception"
)

// ResponseSignals captures everything the classifier needs from one HTTP
// response. All fields are derived once from a single response snapshot and
// never mutated. Optional string fields use "" for absent; neither the
// identity header nor the error type is ever legitimately empty.
type ResponseSignals struct {
	HasJSONContentType  bool
	StatusCode          int
	ProductHeader       string
	BodyMentionsProduct bool
	StructuredErrorKind string
}

// structuredError mirrors the error envelope Elasticsearch wraps failures in:
//
//	{"error":{"root_cause":[{"type":"security_exception", ...}], ...}, ...}
type structuredError struct {
	Error struct {
		RootCause []struct {
			Type string `json:"type"`
		} `json:"root_cause"`
	} `json:"error"`
}

// ExtractSignals derives identification signals from a response. It is total:
// malformed or unexpected bodies never produce an error, the corresponding
// signal is simply left absent.
func ExtractSignals(resp *probe.Response) ResponseSignals {
	sig := ResponseSignals{
		StatusCode:    resp.StatusCode,
		ProductHeader: resp.Header.Get(ProductHeaderName),
	}

	sig.HasJSONContentType = strings.Contains(resp.Header.Get("Content-Type"), "application/json")
	sig.BodyMentionsProduct = strings.Contains(strings.ToLower(resp.BodyText()), productToken)
	sig.StructuredErrorKind = extractErrorKind(resp.Body)

	return sig
}

// extractErrorKind navigates error.root_cause[0].type in a JSON error body.
// Any parse failure or missing key yields "".
func extractErrorKind(body []byte) string {
	var envelope structuredError
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Error.RootCause) == 0 {
		return ""
	}
	return envelope.Error.RootCause[0].Type
}
