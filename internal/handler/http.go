// internal/handler/http.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// HTTPHandler adapts the router to net/http so it can be mounted on a chi router.
func (rt *Router) HTTPHandler(log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLog := orDiscard(log)
		if id := middleware.GetReqID(r.Context()); id != "" {
			reqLog = reqLog.With("request_id", id)
		}

		res := rt.Process(r.Context(), reqLog, &Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header,
			Body:   r.Body,
		})
		writeResponse(w, r, reqLog, res)
	})
}

func writeResponse(w http.ResponseWriter, r *http.Request, log *slog.Logger, res *Response) {
	for k, v := range res.Header {
		w.Header()[k] = v
	}
	if res.Header.Get("Content-Type") == "" {
		// a nil entry stops net/http from sniffing one
		w.Header()["Content-Type"] = nil
	}

	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(res.Body); err != nil {
		log.WarnContext(r.Context(), "write failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
}
