package middleware

import "net/http"

// MaxBodySize caps the request body at n bytes. The login and GPS
// routes sit behind a small cap since their payloads are a few hundred
// bytes of JSON; audio uploads install their own, much larger reader in
// the handler.
func MaxBodySize(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
