// internal/handler/lambda.go
package handler

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// FunctionURLFunc is the signature lambda.Start expects for Function URL events.
type FunctionURLFunc func(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error)

// FunctionURLHandler adapts the router to AWS Lambda Function URL invocations. It
// never returns an error: every outcome is an HTTP response.
func (rt *Router) FunctionURLHandler(log *slog.Logger) FunctionURLFunc {
	return func(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		reqLog := orDiscard(log)
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			reqLog = reqLog.With("request_id", lc.AwsRequestID)
		}

		// base64 is decoded as the router drains the body, so routes that never read
		// it are unaffected by a malformed encoding.
		var body io.Reader = strings.NewReader(event.Body)
		if event.IsBase64Encoded {
			body = base64.NewDecoder(base64.StdEncoding, body)
		}

		header := make(http.Header, len(event.Headers))
		for k, v := range event.Headers {
			header.Set(k, v)
		}

		res := rt.Process(ctx, reqLog, &Request{
			Method: strings.ToUpper(event.RequestContext.HTTP.Method),
			Path:   event.RawPath,
			Header: header,
			Body:   io.NopCloser(body),
		})
		return toFunctionURLResponse(res), nil
	}
}

func toFunctionURLResponse(res *Response) events.LambdaFunctionURLResponse {
	headers := make(map[string]string, len(res.Header))
	for k := range res.Header {
		headers[k] = res.Header.Get(k)
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: res.StatusCode,
		Headers:    headers,
		Body:       string(res.Body),
	}
}
