package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/bytekstore/bytek/pkg/logger"
	"github.com/bytekstore/bytek/pkg/response"
)

// Recovery turns a handler panic into a logged 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				logger.WithCtx(r.Context()).Error("panic recovered",
					"error", fmt.Sprint(err),
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.ServerError(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
