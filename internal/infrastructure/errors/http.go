// Package errors provides HTTP error decoding shared by outbound clients.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MinErrorStatusCode is the lowest status treated as an error.
const MinErrorStatusCode = 400

// maxErrorBody caps how much of an error body is read.
const maxErrorBody = 64 << 10

// HTTPError is a non-2xx response from an upstream API.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
	// Type, Code and TraceID are filled from Graph-style error envelopes.
	Type    string
	Code    int
	TraceID string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// graphError is the {"error": {...}} envelope returned by the Graph API.
type graphError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

// ParseHTTPError converts an error response into an *HTTPError. It returns
// nil for statuses below MinErrorStatusCode. The body is consumed.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    fmt.Sprintf("failed to read error response body: %v", err),
		}
	}

	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(bodyBytes),
	}
	decodeErrorBody(httpErr, bodyBytes)
	return httpErr
}

func decodeErrorBody(httpErr *HTTPError, body []byte) {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Errors  []struct {
			Title  string `json:"title"`
			Detail string `json:"detail"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		httpErr.Message = strings.TrimSpace(httpErr.Body)
		return
	}

	var graph graphError
	var plain string
	switch {
	case len(envelope.Error) > 0 && json.Unmarshal(envelope.Error, &graph) == nil && graph.Message != "":
		httpErr.Message = graph.Message
		httpErr.Type = graph.Type
		httpErr.Code = graph.Code
		httpErr.TraceID = graph.FBTraceID
	case len(envelope.Error) > 0 && json.Unmarshal(envelope.Error, &plain) == nil && plain != "":
		httpErr.Message = plain
	case envelope.Message != "":
		httpErr.Message = envelope.Message
	case len(envelope.Errors) > 0:
		details := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			details[i] = e.Title
			if e.Detail != "" {
				details[i] = e.Title + ": " + e.Detail
			}
		}
		httpErr.Message = strings.Join(details, "; ")
	default:
		httpErr.Message = strings.TrimSpace(httpErr.Body)
	}
}

// AsHTTPError unwraps err to an *HTTPError.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
