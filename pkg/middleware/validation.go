// pkg/middleware/validation.go

package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse стандартный формат для ошибок
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// BodyLimit caps the request body. Reads past the limit fail, which the
// webhook handler reports as a bad request.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorResponse{OK: false, Error: msg})
}
