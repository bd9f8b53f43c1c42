package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/kanban-server/internal/errors"
	"github.com/listenupapp/kanban-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version sent as "v".
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful operation output.
type APIEnvelope = response.Envelope

// APIErrorEnvelope wraps failed operation output.
type APIErrorEnvelope = response.ErrorEnvelope

// EnvelopeTransformer wraps every huma response body in the standard envelope.
// status is the HTTP status as a string, as huma passes it.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case APIEnvelope, APIErrorEnvelope:
		return v, nil
	case *APIError:
		return response.Fail(body.Code, body.Message, body.Details), nil
	case *domainerrors.Error:
		apiErr := fromDomainError(body)
		return response.Fail(apiErr.Code, apiErr.Message, apiErr.Details), nil
	case error:
		code, _ := strconv.Atoi(status)
		var se huma.StatusError
		if errors.As(body, &se) {
			code = se.GetStatus()
		}
		message := body.Error()
		if code >= 500 {
			message = "operation failed"
		}
		return response.Fail(statusToCode(code), message, nil), nil
	}

	if strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5") {
		code, _ := strconv.Atoi(status)
		return response.Fail(statusToCode(code), "request failed", v), nil
	}
	return response.OK(v), nil
}
