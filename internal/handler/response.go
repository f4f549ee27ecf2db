// Package handler turns HTTP requests into service and feed calls and
// renders the results as HTML pages.
//
// Handlers never decide business rules. They decode the form, call one
// service or feed operation and map the returned error:
//
//	apperror.ErrNotFound      → 404 page
//	apperror.ErrValidation    → form re-rendered with the field error
//	apperror.ErrForbidden     → flash notice + redirect
//	apperror.ErrUnauthorized  → login page with ?next=
//	anything else             → 500 page
package handler

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
	"github.com/yatube/yatube/internal/storage"
)

// LoginURL is where RequireLogin and Unauthorized errors send visitors.
const LoginURL = "/auth/login/"

// View is the data every page template receives. Data holds the
// page-specific view-model.
type View struct {
	Title    string
	User     auth.Principal
	LoggedIn bool
	Flashes  []string
	Form     Form
	Data     any
}

// Form carries submitted values and field errors back into a template.
// The zero value is an empty, error-free form.
type Form struct {
	Values map[string]string
	Errors map[string]string
}

func (f Form) Value(name string) string {
	return f.Values[name]
}

func (f Form) Error(name string) string {
	return f.Errors[name]
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	pages   map[string]*template.Template
	flashes *FlashStore
	logger  *slog.Logger
}

// NewRenderer parses every templates/*.html page of fsys together with
// templates/partials/*.html. Image keys are turned into URLs by blobs.
func NewRenderer(fsys fs.FS, blobs storage.Storage, flashes *FlashStore, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"mediaURL":   blobs.URL,
		"date":       formatDate,
		"linebreaks": linebreaks,
	}

	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("handler: listing templates: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("handler: no page templates found")
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		name := path.Base(file)
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "templates/partials/*.html", file)
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages, flashes: flashes, logger: logger}, nil
}

// HTML renders page with view. The principal and pending flash messages
// are filled in here. Output is buffered so a template error still yields
// a clean 500.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page string, view View) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view.User, view.LoggedIn = auth.PrincipalFromContext(r.Context())
	view.Flashes = rd.flashes.Pop(w, r)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", view); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// NotFound renders the 404 page.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.HTML(w, r, http.StatusNotFound, "404.html", View{Title: "Page not found"})
}

// Fail maps err to a response. A Forbidden error is flashed and the
// visitor is sent to forbiddenTo.
func (rd *Renderer) Fail(w http.ResponseWriter, r *http.Request, err error, forbiddenTo string) {
	var appErr *apperror.AppError
	message := ""
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		rd.NotFound(w, r)
	case errors.Is(err, apperror.ErrForbidden):
		rd.flashes.Add(w, r, message)
		redirect(w, r, forbiddenTo)
	case errors.Is(err, apperror.ErrUnauthorized):
		redirect(w, r, auth.LoginRedirect(LoginURL, r.URL.RequestURI()))
	case errors.Is(err, apperror.ErrValidation):
		rd.HTML(w, r, http.StatusBadRequest, "error.html", View{Title: "Invalid request", Data: message})
	case errors.Is(err, apperror.ErrConflict):
		rd.HTML(w, r, http.StatusConflict, "error.html", View{Title: "Already exists", Data: message})
	default:
		rd.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		rd.HTML(w, r, http.StatusInternalServerError, "500.html", View{Title: "Server error"})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

func formatDate(t time.Time) string {
	return t.Format("2 January 2006")
}

// linebreaks escapes text and turns newlines into <br>.
func linebreaks(text string) template.HTML {
	escaped := template.HTMLEscapeString(strings.ReplaceAll(text, "\r\n", "\n"))
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>\n"))
}
