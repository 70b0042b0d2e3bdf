package middleware

import (
	"mime"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/api/models"
)

// ContentTypeJSON defaults the response Content-Type to application/json.
// Handlers that set their own type (CSV export, problems) keep it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		next.ServeHTTP(w, r)
	})
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// RequireJSON answers 415 when a write request declares a media type other
// than application/json. Requests without a Content-Type pass.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if !hasBody(r.Method) || ct == "" {
			next.ServeHTTP(w, r)
			return
		}
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil && mediaType == "application/json" {
			next.ServeHTTP(w, r)
			return
		}
		problem := models.NewUnsupportedMediaType(GetRequestID(r.Context()), "Content-Type must be application/json")
		problem.Instance = r.URL.Path
		problem.Write(w)
	})
}
