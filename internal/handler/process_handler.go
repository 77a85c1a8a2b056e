// internal/handler/process_handler.go
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/c2h5oh/datasize"

	appErrors "github.com/unclebandit/customer-publisher/internal/errors"
	"github.com/unclebandit/customer-publisher/internal/model"
)

const (
	RoutePublish        = "publish"
	RouteIsAlive        = "isalive"
	RouteNotImplemented = "not_implemented"

	DefaultMaxBodySize = int64(datasize.MB)

	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
)

// Forwarder receives every customer record accepted by /publish.
type Forwarder interface {
	Forward(ctx context.Context, c *model.CustomerDetails) error
}

// Router maps one request onto one response. The zero value answers every route
// without forwarding and with DefaultMaxBodySize.
type Router struct {
	Forwarder   Forwarder
	MaxBodySize int64
}

// ProcessHandler is the entry point a host runtime calls once per request.
func ProcessHandler(ctx context.Context, log *slog.Logger, req *Request) *Response {
	var rt Router
	return rt.Process(ctx, log, req)
}

// RouteName classifies a request. The first matching rule wins.
func RouteName(method, path string) string {
	switch {
	case method == http.MethodPost && path == "/publish":
		return RoutePublish
	case method == http.MethodGet && path == "/isalive":
		return RouteIsAlive
	default:
		return RouteNotImplemented
	}
}

// Process answers req. It always returns a response and always closes req.Body.
func (rt *Router) Process(ctx context.Context, log *slog.Logger, req *Request) *Response {
	log = orDiscard(log)
	if req.Body == nil {
		req.Body = http.NoBody
	}
	defer req.Body.Close()

	log.InfoContext(ctx, "processing request", "method", req.Method, "path", req.Path)

	switch RouteName(req.Method, req.Path) {
	case RoutePublish:
		return rt.publish(ctx, log, req)
	case RouteIsAlive:
		return newResponse(http.StatusOK, contentTypeJSON, "ok")
	default:
		return newResponse(http.StatusNotImplemented, "", "error not implemented")
	}
}

func (rt *Router) publish(ctx context.Context, log *slog.Logger, req *Request) *Response {
	details, err := rt.readCustomerDetails(ctx, req.Body)
	if err == nil && rt.Forwarder != nil {
		err = rt.Forwarder.Forward(ctx, details)
	}
	if err != nil {
		return errorResponse(ctx, log, err)
	}

	return newResponse(http.StatusOK, contentTypeJSON, "well hello "+details.Name)
}

// readCustomerDetails drains body completely before decoding. Cancelling ctx closes
// body so a blocked read returns.
func (rt *Router) readCustomerDetails(ctx context.Context, body io.ReadCloser) (*model.CustomerDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, appErrors.NewCanceled(err)
	}
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	limit := rt.maxBodySize()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, appErrors.NewCanceled(ctxErr)
	}
	if err != nil {
		return nil, appErrors.NewBadRequest("failed to read body", err)
	}
	if int64(len(data)) > limit {
		return nil, appErrors.NewBadRequest(
			fmt.Sprintf("request body exceeds %s", datasize.ByteSize(limit).HR()), nil)
	}

	details, err := model.UnmarshalCustomerDetails(data)
	if err != nil {
		return nil, appErrors.NewBadRequest("invalid customer details", err)
	}
	return details, nil
}

func (rt *Router) maxBodySize() int64 {
	if rt.MaxBodySize > 0 {
		return rt.MaxBodySize
	}
	return DefaultMaxBodySize
}

func orDiscard(log *slog.Logger) *slog.Logger {
	if log == nil {
		return slog.New(slog.DiscardHandler)
	}
	return log
}

func errorResponse(ctx context.Context, log *slog.Logger, err error) *Response {
	status := appErrors.StatusCode(err)

	var badRequest *appErrors.ErrBadRequest
	switch {
	case errors.As(err, &badRequest):
		log.WarnContext(ctx, "rejected request", "error", err)
		return newResponse(status, contentTypeText, "error "+badRequest.Error())
	case status == http.StatusRequestTimeout:
		log.DebugContext(ctx, "request canceled while reading body", "error", err)
		return newResponse(status, contentTypeText, "error request canceled")
	case status == http.StatusBadGateway:
		log.ErrorContext(ctx, "failed to forward customer details", "error", err)
		return newResponse(status, contentTypeText, "error forwarding customer details")
	default:
		log.ErrorContext(ctx, "unexpected error", "error", err)
		return newResponse(http.StatusInternalServerError, contentTypeText, "error internal")
	}
}
