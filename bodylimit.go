package httprpc

import "net/http"

// BodyLimit returns middleware that limits the maximum request body size.
// An operation whose payload exceeds maxBytes fails with a Body error,
// rendered as 413 Payload Too Large. Requests declaring a larger
// Content-Length are rejected before dispatch.
func BodyLimit(maxBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeProblem(w, r, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
