package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"passgate/auth"
)

func TestLoginHandlerStartsFlow(t *testing.T) {
	client := &stubClient{authURL: "https://idp.example.com/consent?state=xyz"}

	req := httptest.NewRequest(http.MethodGet, auth.CallbackPath, nil)
	rec := httptest.NewRecorder()
	LoginHandler(client, discardLogger())(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect to consent screen, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != client.authURL {
		t.Fatalf("unexpected redirect target %q", loc)
	}
	if client.exchangeCalls != 0 {
		t.Fatalf("no exchange expected without a code")
	}
}

func TestLoginHandlerCompletesFlow(t *testing.T) {
	client := &stubClient{exchangeResp: &auth.Response{
		AccessToken:  "fresh-access",
		RefreshToken: "fresh-refresh",
		Fields:       map[string]any{"sub": "user-1"},
	}}

	req := httptest.NewRequest(http.MethodGet, auth.CallbackPath+"?code=onetime", nil)
	rec := httptest.NewRecorder()
	LoginHandler(client, discardLogger())(rec, req)

	if client.lastCode != "onetime" {
		t.Fatalf("code not passed through, got %q", client.lastCode)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect to application root, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Fatalf("unexpected redirect target %q", loc)
	}

	access := findCookie(t, rec, auth.AccessTokenCookie)
	if access == nil || access.Value != "fresh-access" {
		t.Fatalf("access cookie not set: %v", access)
	}
	refresh := findCookie(t, rec, auth.RefreshTokenCookie)
	if refresh == nil || refresh.Value != "fresh-refresh" {
		t.Fatalf("refresh cookie not set: %v", refresh)
	}
}

func TestLoginHandlerWithoutRefreshToken(t *testing.T) {
	client := &stubClient{exchangeResp: &auth.Response{
		AccessToken: "fresh-access",
		Fields:      map[string]any{"sub": "user-1"},
	}}

	req := httptest.NewRequest(http.MethodGet, auth.CallbackPath+"?code=onetime", nil)
	rec := httptest.NewRecorder()
	LoginHandler(client, discardLogger())(rec, req)

	if c := findCookie(t, rec, auth.RefreshTokenCookie); c != nil {
		t.Fatalf("no refresh cookie expected when the provider issued none, got %v", c)
	}
	if c := findCookie(t, rec, auth.AccessTokenCookie); c == nil {
		t.Fatalf("access cookie missing")
	}
}

func TestLoginHandlerExchangeFailure(t *testing.T) {
	client := &stubClient{exchangeErr: errors.New("invalid_grant")}

	req := httptest.NewRequest(http.MethodGet, auth.CallbackPath+"?code=spent", nil)
	rec := httptest.NewRecorder()
	LoginHandler(client, discardLogger())(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected server error, got %d", rec.Code)
	}
	// Operator-facing path: the raw failure detail is allowed here.
	if body := rec.Body.String(); !strings.Contains(body, "Authentication failed") || !strings.Contains(body, "invalid_grant") {
		t.Fatalf("error detail missing from response: %q", body)
	}
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c := findCookie(t, rec, name)
		if c == nil || c.MaxAge >= 0 {
			t.Fatalf("cookie %s not cleared on failure", name)
		}
	}
}
