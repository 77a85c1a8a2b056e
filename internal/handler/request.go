// internal/handler/request.go
package handler

import (
	"io"
	"net/http"
	"strings"
)

// Request is what a host runtime hands to the router for one inbound call.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   io.ReadCloser
}

// NewRequest builds a Request around any byte stream. A nil body is treated as empty.
func NewRequest(method, path string, body io.Reader) *Request {
	rc, ok := body.(io.ReadCloser)
	if !ok {
		if body == nil {
			body = http.NoBody
		}
		rc = io.NopCloser(body)
	}
	return &Request{
		Method: strings.ToUpper(method),
		Path:   path,
		Header: make(http.Header),
		Body:   rc,
	}
}

// Response is the complete answer to one call; the router never streams.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func newResponse(status int, contentType string, body string) *Response {
	h := make(http.Header)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{
		StatusCode: status,
		Header:     h,
		Body:       []byte(body),
	}
}
