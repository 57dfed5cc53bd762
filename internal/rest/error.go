package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/koustreak/StoRi/internal/errs"
)

// ErrorParser converts a non-2xx response into a *errs.Error. Selected per
// descriptor at construction time, like the Decoder.
type ErrorParser func(status int, body []byte, method, url string) *errs.Error

// serviceErrorBody is the error shape the storage service emits.
type serviceErrorBody struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ServiceError extracts the service-provided message when the body decodes
// and carries one, deriving the error kind from the HTTP status. When the
// body does not decode or lacks a message it falls back to GenericError.
//
// The order matters: message extraction first, generic fallback second —
// the generic path loses the service's human-readable detail.
func ServiceError() ErrorParser {
	return func(status int, body []byte, method, url string) *errs.Error {
		var svc serviceErrorBody
		if err := json.Unmarshal(body, &svc); err == nil && svc.Message != "" {
			return errs.FromStatus(status, svc.Message, method, url)
		}
		return GenericError()(status, body, method, url)
	}
}

// GenericError derives both kind and message from the status code and raw
// body text alone.
func GenericError() ErrorParser {
	return func(status int, body []byte, method, url string) *errs.Error {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return errs.FromStatus(status, msg, method, url)
	}
}
