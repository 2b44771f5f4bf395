package providers

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/i474232898/weather-forecast-aggregation/internal/weather"
)

// errorEnvelope is the upstream error body, e.g. {"cod":401,"message":"Invalid API key"}.
type errorEnvelope struct {
	Cod     *int    `json:"cod" validate:"required"`
	Message *string `json:"message" validate:"required"`
}

func decodeEnvelope(body []byte) (string, bool) {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", false
	}
	if err := validate.Struct(&env); err != nil {
		return "", false
	}
	return *env.Message, true
}

// classifyResponse turns an error status into a typed failure. A nil result
// means the body should be decoded.
func classifyResponse(statusCode int, body []byte) error {
	switch {
	case statusCode == http.StatusUnauthorized:
		if msg, ok := decodeEnvelope(body); ok {
			return &weather.APIError{StatusCode: statusCode, Message: msg}
		}
		return fmt.Errorf("%w: status %d", weather.ErrInvalidCredentials, statusCode)
	case statusCode >= 400 && statusCode <= 499:
		if msg, ok := decodeEnvelope(body); ok {
			return &weather.APIError{StatusCode: statusCode, Message: msg}
		}
		return &weather.APIError{StatusCode: statusCode, Message: fmt.Sprintf("client error %d", statusCode)}
	case statusCode >= 500 && statusCode <= 599:
		// 5xx bodies are not guaranteed to match the envelope.
		return &weather.APIError{StatusCode: statusCode, Message: fmt.Sprintf("server error %d", statusCode)}
	default:
		return nil
	}
}
