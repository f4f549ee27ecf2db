package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler serves signup, password login, logout and the optional
// GitHub sign-in.
//
// A successful login stores the signed token in an HttpOnly cookie;
// auth.Authenticate reads it back on the following requests.
type AuthHandler struct {
	accounts *service.AuthService
	github   *auth.GitHubProvider // nil when GitHub sign-in is not configured
	tokenTTL time.Duration
	secure   bool
	render   *Renderer
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *service.AuthService,
	github *auth.GitHubProvider,
	tokenTTL time.Duration,
	secure bool,
	render *Renderer,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		github:   github,
		tokenTTL: tokenTTL,
		secure:   secure,
		render:   render,
		logger:   logger,
	}
}

type loginView struct {
	Next   string
	GitHub bool
}

// HandleSignupForm serves GET /auth/signup/.
func (h *AuthHandler) HandleSignupForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "signup.html", View{Title: "Sign up"})
}

// HandleSignup serves POST /auth/signup/. The new account is logged in
// straight away.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	in, form, err := decodeSignupForm(r)
	var result *service.AuthResult
	if err == nil {
		result, err = h.accounts.Register(r.Context(), in)
	}
	if errors.Is(err, apperror.ErrValidation) {
		h.render.HTML(w, r, http.StatusOK, "signup.html", View{Title: "Sign up", Form: withErrors(form, err)})
		return
	}
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokenTTL, h.secure)
	redirect(w, r, "/")
}

// HandleLoginForm serves GET /auth/login/?next=/path/.
func (h *AuthHandler) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "login.html", View{
		Title: "Log in",
		Data:  loginView{Next: r.URL.Query().Get("next"), GitHub: h.github != nil},
	})
}

// HandleLogin serves POST /auth/login/ and redirects to "next" when it is
// a local path.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	in, next, form, err := decodeLoginForm(r)
	var result *service.AuthResult
	if err == nil {
		result, err = h.accounts.Login(r.Context(), in)
	}
	if errors.Is(err, apperror.ErrValidation) {
		h.render.HTML(w, r, http.StatusOK, "login.html", View{
			Title: "Log in",
			Form:  withErrors(form, err),
			Data:  loginView{Next: next, GitHub: h.github != nil},
		})
		return
	}
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokenTTL, h.secure)
	redirect(w, r, auth.SafeNext(next, "/"))
}

// HandleLogout clears the token cookie. The token itself stays valid until
// it expires; without the cookie the browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w)
	redirect(w, r, "/")
}

// HandleGitHubLogin redirects to GitHub's consent page. The random state
// is kept in a short-lived cookie and checked on the callback.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.render.NotFound(w, r)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow:
//  1. check the state against the cookie
//  2. exchange the code for the GitHub profile
//  3. find or create the local account
//  4. issue the token cookie
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		h.render.NotFound(w, r)
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		redirect(w, r, LoginURL)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	result, err := h.accounts.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.render.Fail(w, r, err, "/")
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokenTTL, h.secure)
	redirect(w, r, "/")
}
