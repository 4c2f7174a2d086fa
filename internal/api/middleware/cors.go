package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSHandler builds the API's cross-origin policy. The dashboard sends
// its bearer token from the browser, so credentials stay enabled for an
// explicit origin list; a wildcard origin disables them, browsers
// reject that combination anyway.
func CORSHandler(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	creds := true
	for _, o := range origins {
		if o == "*" {
			creds = false
		}
	}

	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: creds,
		MaxAge:           300,
	}
}
