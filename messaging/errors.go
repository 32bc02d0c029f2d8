package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for every failed call to a remote service. Status
// is the HTTP status of the response, 408 for a client-side timeout and
// 500 for transport or decoding failures.
type APIError struct {
	Status  int
	Message string
	Detail  interface{}
}

func (e *APIError) Error() string {
	return e.Message
}

// Timeout reports whether the request was aborted by the client timeout
func (e *APIError) Timeout() bool {
	return e.Status == http.StatusRequestTimeout
}

// IsTimeout reports whether err is an APIError caused by a timeout
func IsTimeout(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Timeout()
}

// StatusOf returns the status carried by an APIError, or 0
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func timeoutError() *APIError {
	return &APIError{Status: http.StatusRequestTimeout, Message: "Request timed out"}
}

func transportError(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: err.Error()}
}

// responseError builds the error for a non-2xx response. A JSON body with a
// "detail" member puts that detail in the message.
func responseError(status int, body []byte) *APIError {
	apiErr := &APIError{
		Status:  status,
		Message: fmt.Sprintf("Request failed with status %d", status),
	}
	if len(body) == 0 {
		return apiErr
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		apiErr.Detail = string(body)
		return apiErr
	}
	apiErr.Detail = parsed

	if obj, ok := parsed.(map[string]interface{}); ok {
		if detail, ok := obj["detail"]; ok && detail != nil {
			if encoded, err := json.Marshal(detail); err == nil {
				apiErr.Message = "Request failed: " + string(encoded)
			}
		}
	}
	return apiErr
}
