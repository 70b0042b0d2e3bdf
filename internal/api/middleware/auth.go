package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/auth"
)

type subjectKey struct{}

// TokenValidator resolves a bearer token to its subject. *auth.JWTService
// satisfies it.
type TokenValidator interface {
	ValidateAccessToken(token string) (string, error)
}

var errMalformedAuthorization = errors.New("malformed authorization header")

// bearerToken extracts the token of an "Authorization: Bearer" header. The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errMalformedAuthorization
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func rejectionDetail(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccessTokenExpired):
		return "access token has expired"
	case errors.Is(err, auth.ErrInvalidAccessToken):
		return "invalid access token"
	default:
		return "authentication failed"
	}
}

// Auth rejects requests without a valid bearer token with a 401 Problem and
// stores the token subject for GetSubject.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeUnauthorized(w, r, err.Error())
				return
			}
			subject, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeUnauthorized(w, r, rejectionDetail(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, subject)))
		})
	}
}

// Optional returns mw when enabled and a pass-through otherwise.
func Optional(enabled bool, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if enabled {
		return mw
	}
	return func(next http.Handler) http.Handler { return next }
}

// The response package imports middleware, so the 401 is written here.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="pulseboard"`)
	problem.Write(w)
}

// GetSubject returns the authenticated subject, or "" for anonymous requests.
func GetSubject(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey{}).(string)
	return sub
}
