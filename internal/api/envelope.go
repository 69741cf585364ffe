package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/classdeskapp/classdesk-server/internal/http/response"
)

// EnvelopeVersion is the "v" field of every response body.
const EnvelopeVersion = 1

// EnvelopeTransformer wraps every huma response body in the versioned
// envelope clients parse: {"v":1,"success":true,"data":...} on success and
// {"v":1,"success":false,"error":...,"code":...} on failure.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return response.Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Code:    body.Code,
			Error:   body.Message,
			Message: body.Message,
			Details: body.Details,
		}, nil
	case error:
		return response.Envelope{
			Version: EnvelopeVersion,
			Success: false,
			Error:   body.Error(),
		}, nil
	case response.Envelope, *response.Envelope:
		return body, nil
	}
	return response.Envelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
}
