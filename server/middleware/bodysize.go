package middleware

import (
	"net/http"

	"github.com/skillsenselab/vbdiar/util"
)

// Inline feature matrices dominate request size; the default cap keeps
// a runaway upload from exhausting memory.
const defaultMaxBodySize = 10 * 1024 * 1024

// BodySizeLimit caps the request body at a human-readable size such as
// "10MB" or "512KB". Unparsable sizes fall back to the default cap.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
