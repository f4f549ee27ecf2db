package auth

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CookieName is the HttpOnly cookie holding the signed token.
const CookieName = "token"

// contextKey is unexported so no other package can read or shadow the
// principal stored in a request context.
type contextKey string

const principalKey contextKey = "principal"

// Authenticate reads the token cookie and, when it is valid, stores the
// Principal in the request context. Requests without a valid token continue
// anonymously.
func Authenticate(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
				if p, err := tokens.Parse(cookie.Value); err == nil {
					r = r.WithContext(WithPrincipal(r.Context(), p))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin redirects anonymous requests to loginURL with the current
// path in the "next" parameter. It must run after Authenticate.
func RequireLogin(loginURL string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); !ok {
				http.Redirect(w, r, LoginRedirect(loginURL, r.URL.RequestURI()), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoginRedirect builds "<loginURL>?next=<path>". Slashes in path stay
// unescaped, e.g. /auth/login/?next=/create/.
func LoginRedirect(loginURL, path string) string {
	return loginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// SafeNext returns next when it is a local absolute path and fallback
// otherwise, so a crafted link cannot bounce a fresh login to another site.
func SafeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the authenticated user, or false for an
// anonymous request.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok && p.ID != ""
}

// SetTokenCookie stores token for ttl. SameSite=Lax keeps the cookie off
// cross-site POSTs.
func SetTokenCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
