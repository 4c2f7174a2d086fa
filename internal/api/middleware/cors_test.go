package middleware

import (
	"reflect"
	"testing"
)

func TestCORSHandlerExplicitOrigins(t *testing.T) {
	opts := CORSHandler([]string{"https://dash.example"})
	if !opts.AllowCredentials {
		t.Error("explicit origins must allow credentials")
	}
	if !reflect.DeepEqual(opts.AllowedOrigins, []string{"https://dash.example"}) {
		t.Errorf("AllowedOrigins = %v", opts.AllowedOrigins)
	}
}

func TestCORSHandlerWildcardDisablesCredentials(t *testing.T) {
	for _, origins := range [][]string{nil, {"*"}, {"https://dash.example", "*"}} {
		if opts := CORSHandler(origins); opts.AllowCredentials {
			t.Errorf("CORSHandler(%v) allows credentials with a wildcard origin", origins)
		}
	}
}
