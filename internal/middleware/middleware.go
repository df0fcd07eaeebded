package middleware

import (
	"net/http"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// WithCORS allows the SPA origins to call the API with credentials
func WithCORS(next http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(next)
}

// WithTracing wraps next in an otelhttp server span
func WithTracing(next http.Handler, operation string) http.Handler {
	return otelhttp.NewHandler(next, operation)
}
