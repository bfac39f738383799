package explorer

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted is returned when every attempt was answered with a rate-limit signal
var ErrRetriesExhausted = errors.New("exceeded retries for ledger-history API")

// RateLimitError signals that the remote service asked us to slow down
type RateLimitError struct {
	Action  string
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("explorer %s: rate limited: %s", e.Action, e.Message)
}

// APIError is a hard error reported by the remote service
type APIError struct {
	Action     string
	HTTPStatus int
	Status     string
	Message    string
	Result     string
}

func (e *APIError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("explorer %s: http status %d: %s", e.Action, e.HTTPStatus, e.Result)
	}
	if e.Result != "" {
		return fmt.Sprintf("explorer %s: %s: %s", e.Action, e.Message, e.Result)
	}
	return fmt.Sprintf("explorer %s: %s", e.Action, e.Message)
}
