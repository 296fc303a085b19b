package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError emits the same JSON error envelope the handlers use, so
// rejections from middleware look identical to handler rejections on
// the wire.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
