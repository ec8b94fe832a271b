// FilePath: api/middleware/api.middleware.http.go
package middleware

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
)

// Chain wraps h with the standard middleware stack, outermost first:
// access log, panic recovery, CORS.
func Chain(h http.Handler, corsOrigins []string) http.Handler {
	return AccessLog(Recovery(CORS(corsOrigins)(h)))
}

// CORS allows browser dashboards on the given origins ("*" for any)
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", "X-Requested-With"}),
		handlers.ExposedHeaders([]string{"Content-Disposition"}),
	)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[API] Recovered from panic: %s", fmt.Sprint(v...))
}

// Recovery turns handler panics into 500 responses
func Recovery(h http.Handler) http.Handler {
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(h)
}

// AccessLog writes one log line per request
func AccessLog(h http.Handler) http.Handler {
	return handlers.CustomLoggingHandler(io.Discard, h, func(_ io.Writer, p handlers.LogFormatterParams) {
		nuts.L.Infof("[HTTP] %s %s %d %dB %s",
			p.Request.Method, p.URL.RequestURI(), p.StatusCode, p.Size, time.Since(p.TimeStamp).Round(time.Microsecond))
	})
}
