// Package middleware holds the HTTP middleware for the resegmentation
// API. Concerns that must see every byte of the request or response
// (CORS, body-size caps, request logging) use the standard
// http.Handler wrapping signature and are applied at the server's root
// handler; Gin-native concerns (panic recovery, request IDs, rate
// limiting) run inside the engine.
package middleware

import "net/http"

// Middleware wraps an http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware outermost-first: the first argument sees
// the request first and the response last.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
