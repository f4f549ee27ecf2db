package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yatube/yatube/internal/apperror"
	"github.com/yatube/yatube/internal/auth"
)

func newTestAuthService(t *testing.T, db *fakeDB) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	ps := auth.NewPasswordServiceWithCost(bcrypt.MinCost)
	return NewAuthService(db, ts, ps, quietLogger()), ts
}

func validSignup(username string) SignupInput {
	return SignupInput{
		Username:        username,
		Email:           username + "@example.com",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
	}
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_IssuesTokenForNewUser(t *testing.T) {
	db := newFakeDB()
	svc, ts := newTestAuthService(t, db)

	result, err := svc.Register(context.Background(), validSignup("leo"))
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := ts.Parse(result.Token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.ID != result.User.ID || p.Username != "leo" {
		t.Errorf("token principal = %+v, want user %s", p, result.User.ID)
	}
	if result.User.PasswordHash == "" || result.User.PasswordHash == "s3cret-pass" {
		t.Error("Register() must store a bcrypt hash, not the password")
	}
}

func TestRegister_Invalid(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)
	if _, err := svc.Register(context.Background(), validSignup("taken")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	mismatch := validSignup("ann")
	mismatch.PasswordConfirm = "something-else"
	short := validSignup("ann")
	short.Password, short.PasswordConfirm = "short", "short"
	badName := validSignup("ann smith")
	badEmail := validSignup("ann")
	badEmail.Email = "not-an-email"

	tests := []struct {
		name  string
		in    SignupInput
		field string
	}{
		{"password mismatch", mismatch, "password2"},
		{"short password", short, "password1"},
		{"username with space", badName, "username"},
		{"bad email", badEmail, "email"},
		{"taken username", validSignup("taken"), "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.in)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			if apperror.FieldErrors(err)[tt.field] == "" {
				t.Errorf("FieldErrors() = %v, want %s entry", apperror.FieldErrors(err), tt.field)
			}
		})
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)
	if _, err := svc.Register(context.Background(), validSignup("leo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(context.Background(), LoginInput{Username: "leo", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() returned an empty token")
	}
}

func TestLogin_WrongCredentialsLookTheSame(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)
	if _, err := svc.Register(context.Background(), validSignup("leo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(context.Background(), LoginInput{Username: "leo", Password: "nope-nope"})
	_, unknownUser := svc.Login(context.Background(), LoginInput{Username: "ghost", Password: "nope-nope"})

	if !errors.Is(wrongPassword, apperror.ErrValidation) || !errors.Is(unknownUser, apperror.ErrValidation) {
		t.Fatalf("errors = %v / %v, want ErrValidation", wrongPassword, unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("messages differ: %q vs %q", wrongPassword, unknownUser)
	}
}

func TestLogin_GitHubAccountHasNoPassword(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)
	if _, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 7, Login: "octo"}); err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}

	_, err := svc.Login(context.Background(), LoginInput{Username: "octo", Password: ""})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Login() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// GITHUB
// =========================================================================

func TestLoginOrRegisterGitHub_ReturningUserKeepsID(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)

	first, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 99, Login: "octo", Email: "old@example.com"})
	if err != nil {
		t.Fatalf("first login error: %v", err)
	}
	second, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 99, Login: "octo", Email: "new@example.com"})
	if err != nil {
		t.Fatalf("second login error: %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("user IDs differ: %s vs %s", first.User.ID, second.User.ID)
	}
	if second.User.Email != "new@example.com" {
		t.Errorf("Email = %q, want refreshed email", second.User.Email)
	}
}

func TestLoginOrRegisterGitHub_UsernameTaken(t *testing.T) {
	db := newFakeDB()
	svc, _ := newTestAuthService(t, db)
	if _, err := svc.Register(context.Background(), validSignup("octo")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.LoginOrRegisterGitHub(context.Background(), &auth.GitHubUser{ID: 5, Login: "octo"})
	if err != nil {
		t.Fatalf("LoginOrRegisterGitHub() error = %v", err)
	}
	if result.User.Username != "octo-5" {
		t.Errorf("Username = %q, want %q", result.User.Username, "octo-5")
	}
}

func TestLoginOrRegisterGitHub_NilUser(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeDB())

	if _, err := svc.LoginOrRegisterGitHub(context.Background(), nil); err == nil {
		t.Fatal("LoginOrRegisterGitHub(nil) should return an error")
	}
}
