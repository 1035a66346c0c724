package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gosuda/laneboard/internal/auth"
)

// AccessTokenParam carries the access token on requests that cannot set
// headers, such as browser WebSocket upgrades. Only StreamAuth accepts it.
const AccessTokenParam = "access_token"

const queryTokenKey contextKey = "query_access_token"

const unauthorizedBody = `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`

// StripAccessToken removes the access_token query parameter from the request
// URL before anything logs it. The value stays available to StreamAuth.
func StripAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if !q.Has(AccessTokenParam) {
			next.ServeHTTP(w, r)
			return
		}

		tok := q.Get(AccessTokenParam)
		q.Del(AccessTokenParam)

		r2 := r.WithContext(context.WithValue(r.Context(), queryTokenKey, tok))
		u := *r.URL
		u.RawQuery = q.Encode()
		r2.URL = &u
		r2.RequestURI = u.RequestURI()
		next.ServeHTTP(w, r2)
	})
}

// Auth requires a valid access token in the Authorization header.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, false)
}

// StreamAuth is Auth for WebSocket upgrades: it also accepts the token from
// the access_token query parameter.
func StreamAuth(jwtSecret string) func(http.Handler) http.Handler {
	return authenticate(jwtSecret, true)
}

func authenticate(jwtSecret string, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && allowQuery {
				tok = queryToken(r)
			}

			if tok != "" {
				ctx, ok := authenticateJWT(r.Context(), tok, jwtSecret)
				if ok {
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			http.Error(w, unauthorizedBody, http.StatusUnauthorized)
		})
	}
}

// queryToken prefers the value saved by StripAccessToken and falls back to
// the raw query when that middleware is not installed.
func queryToken(r *http.Request) string {
	if tok, ok := r.Context().Value(queryTokenKey).(string); ok {
		return tok
	}
	return r.URL.Query().Get(AccessTokenParam)
}

func extractBearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func authenticateJWT(ctx context.Context, tokenStr, secret string) (context.Context, bool) {
	// Refresh and stream tokens share the secret but are not credentials.
	userID, err := auth.ParseUserToken(secret, tokenStr, auth.KindAccess)
	if err != nil {
		return ctx, false
	}
	return WithUserID(ctx, userID), true
}
