package httpapi

import (
	"encoding/json"
	"net/http"
)

// Kind is the closed set of HTTP-facing error categories.
type Kind string

const (
	KindNotFound            Kind = "not-found"
	KindForbidden           Kind = "forbidden"
	KindBadRequest          Kind = "bad-request"
	KindUpstreamUnreachable Kind = "upstream-unreachable"
	KindUpstreamBadResponse Kind = "upstream-bad-response"
	KindInternal            Kind = "internal"
)

// apiError carries a Kind alongside a human message; Error satisfies the
// error interface so handlers can return it through normal Go control flow.
type apiError struct {
	Kind    Kind
	Message string
}

func (e *apiError) Error() string { return e.Message }

func newError(kind Kind, message string) *apiError {
	return &apiError{Kind: kind, Message: message}
}

func (k Kind) status() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUpstreamUnreachable:
		return http.StatusGatewayTimeout
	case KindUpstreamBadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders an apiError as a JSON body with the status mapped
// from its Kind. Any non-apiError is treated as internal.
func writeError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apiError)
	if !ok {
		apiErr = newError(KindInternal, err.Error())
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Kind.status())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": apiErr.Message,
		"kind":  string(apiErr.Kind),
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Body already started; the encoding error is dropped.
		return
	}
}
