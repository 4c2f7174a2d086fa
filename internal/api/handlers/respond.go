package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON sends v as the response body. Once the header has gone out
// an encoding failure cannot be reported to the client, so it is
// dropped.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends the error envelope shared by every handler.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
