package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leebenson/conform"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/pagination"
	"github.com/yatube/yatube/internal/service"
)

// DefaultMaxImageBytes bounds an uploaded post image.
const DefaultMaxImageBytes = 5 << 20

type postForm struct {
	Text  string `conform:"trim"`
	Group string `conform:"trim"`
}

func (f postForm) values() map[string]string {
	return map[string]string{"text": f.Text, "group": f.Group}
}

type commentForm struct {
	Text string `conform:"trim"`
}

type signupForm struct {
	Username  string `conform:"trim"`
	Email     string `conform:"trim"`
	Password1 string
	Password2 string
}

type loginForm struct {
	Username string `conform:"trim"`
	Password string
	Next     string `conform:"trim"`
}

// decodePostForm reads the create/edit form. The body may be multipart
// (with an "image" file) or urlencoded. The returned Form always echoes
// the submitted values, also when err is a validation error.
func decodePostForm(w http.ResponseWriter, r *http.Request, maxImageBytes int64) (service.PostInput, Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)

	var in service.PostInput
	if err := r.ParseMultipartForm(maxImageBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, Form{}, apperror.ValidationFailed("image", "The uploaded file is too large.")
		}
		return in, Form{}, apperror.ValidationFailed("", "The form could not be read.")
	}

	f := postForm{Text: r.PostFormValue("text"), Group: r.PostFormValue("group")}
	if err := conform.Strings(&f); err != nil {
		return in, Form{}, fmt.Errorf("handler: normalising post form: %w", err)
	}
	form := Form{Values: f.values()}

	in.Text = f.Text
	if f.Group != "" {
		id, err := strconv.ParseInt(f.Group, 10, 64)
		if err != nil {
			return in, form, apperror.ValidationFailed("group", "Select a valid choice. That choice is not one of the available choices.")
		}
		in.GroupID = &id
	}

	image, err := readImage(r, maxImageBytes)
	if err != nil {
		return in, form, err
	}
	in.Image = image

	return in, form, nil
}

// readImage returns nil when the form carries no file.
func readImage(r *http.Request, maxImageBytes int64) (*service.ImageUpload, error) {
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	case err != nil:
		return nil, apperror.ValidationFailed("image", "The submitted file could not be read.")
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return nil, apperror.ValidationFailed("image", "The uploaded file is too large.")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("handler: reading upload: %w", err)
	}
	if int64(len(data)) > maxImageBytes {
		return nil, apperror.ValidationFailed("image", "The uploaded file is too large.")
	}
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("image", "The submitted file is empty.")
	}

	return &service.ImageUpload{Filename: header.Filename, Data: data}, nil
}

func decodeCommentForm(r *http.Request) (service.CommentInput, Form, error) {
	if err := r.ParseForm(); err != nil {
		return service.CommentInput{}, Form{}, apperror.ValidationFailed("", "The form could not be read.")
	}
	f := commentForm{Text: r.PostFormValue("text")}
	if err := conform.Strings(&f); err != nil {
		return service.CommentInput{}, Form{}, fmt.Errorf("handler: normalising comment form: %w", err)
	}
	return service.CommentInput{Text: f.Text}, Form{Values: map[string]string{"text": f.Text}}, nil
}

func decodeSignupForm(r *http.Request) (service.SignupInput, Form, error) {
	if err := r.ParseForm(); err != nil {
		return service.SignupInput{}, Form{}, apperror.ValidationFailed("", "The form could not be read.")
	}
	f := signupForm{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password1: r.PostFormValue("password1"),
		Password2: r.PostFormValue("password2"),
	}
	if err := conform.Strings(&f); err != nil {
		return service.SignupInput{}, Form{}, fmt.Errorf("handler: normalising signup form: %w", err)
	}
	in := service.SignupInput{
		Username:        f.Username,
		Email:           f.Email,
		Password:        f.Password1,
		PasswordConfirm: f.Password2,
	}
	return in, Form{Values: map[string]string{"username": f.Username, "email": f.Email}}, nil
}

func decodeLoginForm(r *http.Request) (service.LoginInput, string, Form, error) {
	if err := r.ParseForm(); err != nil {
		return service.LoginInput{}, "", Form{}, apperror.ValidationFailed("", "The form could not be read.")
	}
	f := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
		Next:     r.PostFormValue("next"),
	}
	if err := conform.Strings(&f); err != nil {
		return service.LoginInput{}, "", Form{}, fmt.Errorf("handler: normalising login form: %w", err)
	}
	in := service.LoginInput{Username: f.Username, Password: f.Password}
	return in, f.Next, Form{Values: map[string]string{"username": f.Username}}, nil
}

// withErrors attaches the field errors of a validation error to form.
func withErrors(form Form, err error) Form {
	form.Errors = apperror.FieldErrors(err)
	return form
}

func pageNumber(r *http.Request) int {
	return pagination.ParseNumber(r.URL.Query().Get("page"))
}

// pathID parses a numeric URL parameter. Anything that is not a positive
// integer is reported as a missing resource.
func pathID(r *http.Request, name, resource string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}
