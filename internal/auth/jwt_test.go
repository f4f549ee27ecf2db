package auth

import (
	"strings"
	"testing"
	"time"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

var leo = Principal{ID: "user-123", Username: "leo"}

// =========================================================================
// CONSTRUCTION
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	if _, err := NewTokenService("short", time.Hour); err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_DefaultTTL(t *testing.T) {
	ts, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	if ts.TTL() != DefaultTTL {
		t.Errorf("TTL() = %v, want %v", ts.TTL(), DefaultTTL)
	}
}

// =========================================================================
// ISSUE / PARSE
// =========================================================================

func TestIssue_LooksLikeJWT(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(leo)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Issue() token %q is not header.payload.signature", token)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(leo)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := ts.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got != leo {
		t.Errorf("Parse() = %+v, want %+v", got, leo)
	}
}

func TestParse_Rejects(t *testing.T) {
	ts := newTestTokenService(t)
	valid, _ := ts.Issue(leo)
	expired, _ := ts.IssueWithTTL(leo, -time.Second)
	other, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", time.Hour)
	foreign, _ := other.Issue(leo)
	noSubject, _ := ts.Issue(Principal{Username: "ghost"})

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"tampered signature", valid[:len(valid)-3] + "xxx"},
		{"signed with another secret", foreign},
		{"empty", ""},
		{"garbage", "not.a.jwt.token"},
		{"missing subject", noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ts.Parse(tt.token); err == nil {
				t.Errorf("Parse(%s) should fail", tt.name)
			}
		})
	}
}
