package detect

import "net/http"

// Verdict is the outcome of classifying a response.
type Verdict int

const (
	// NotDetected means the response carries no product-specific markers.
	NotDetected Verdict = iota
	// Likely means the response shape matches the product's auth-failure
	// format but lacks an explicit product marker.
	Likely
	// Confirmed means an explicit product marker was found.
	Confirmed
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Confirmed:
		return "confirmed"
	case Likely:
		return "likely"
	default:
		return "not-detected"
	}
}

// Classify decides whether the probed host is running Elasticsearch based on
// the extracted signals. It is a pure function; the returned reason is meant
// for log lines and reports only, callers must never parse it.
//
// The JSON content-type gate comes first: every positive signal below it
// assumes a JSON body, matching the protocol where a reachable instance
// always answers with JSON. On 401 the body-text heuristic outranks the
// structured-error shape; on 200 the identity header is authoritative and
// outranks the body-text fallback used for older releases that do not send
// the header. The branch asymmetry is deliberate.
func Classify(sig ResponseSignals) (Verdict, string) {
	if !sig.HasJSONContentType {
		return NotDetected, "non-JSON response"
	}

	switch sig.StatusCode {
	case http.StatusUnauthorized:
		if sig.BodyMentionsProduct {
			return Confirmed, "product name present in unauthorized response body"
		}
		if sig.StructuredErrorKind == SecurityExceptionKind {
			return Likely, "security exception shape matches product's auth-failure format"
		}
		return NotDetected, "unauthorized response lacks product-specific markers"

	case http.StatusOK:
		if sig.ProductHeader == ProductHeaderValue {
			return Confirmed, "product-identity header present"
		}
		if sig.BodyMentionsProduct {
			return Confirmed, "product name present in response body"
		}
		return NotDetected, "200 response lacks product-specific markers"

	default:
		return NotDetected, "unexpected status code"
	}
}
