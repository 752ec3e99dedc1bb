package publicdata

import (
	"errors"
	"fmt"
)

var ErrNoAPIKey = errors.New("public data API key is not configured")

// UpstreamError is a non-2xx answer from the portal (or the relay proxy).
type UpstreamError struct {
	Status   int
	Endpoint string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.Endpoint, e.Status)
}

func (e *UpstreamError) StatusCode() int { return e.Status }

// ResultCodeError is a 200 answer whose header carries a result code other than "00".
type ResultCodeError struct {
	Code    string
	Message string
}

func (e *ResultCodeError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "API 호출 실패"
	}
	return fmt.Sprintf("upstream result code %q: %s", e.Code, msg)
}
