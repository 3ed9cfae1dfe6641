package trpc

import (
	"fmt"
	"time"
)

// envelope is one element of the tRPC batch response array.
type envelope struct {
	Error  *RefreshError  `json:"error,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// RefreshError is the backend's structured refusal.
type RefreshError struct {
	Message string    `json:"message"`
	Code    int       `json:"code"`
	Data    ErrorData `json:"data"`
}

type ErrorData struct {
	HTTPStatus int    `json:"httpStatus"`
	Path       string `json:"path"`
	Code       string `json:"code"`
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh refused: %s (code %d, http %d, path %s)",
		e.Message, e.Code, e.Data.HTTPStatus, e.Data.Path)
}

// Result summarizes one whole-batch refresh request.
type Result struct {
	StatusCode int
	Duration   time.Duration
	Err        *RefreshError
	RawBody    string
}

// OK reports whether the backend accepted and completed the batch refresh.
func (r *Result) OK() bool {
	return r.Err == nil && r.StatusCode < 400
}
