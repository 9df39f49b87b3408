package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/loan-ledger/internal/config"
	"github.com/iliyamo/loan-ledger/internal/repository"
)

func testOAuthConfig() config.Config {
	return config.Config{
		JWTSecret:           "test-secret",
		DiscordClientID:     "client-id",
		DiscordClientSecret: "client-secret",
		DiscordRedirectURI:  "http://localhost:8080/v1/auth/discord/callback",
	}
}

func TestDiscordLoginRedirect(t *testing.T) {
	cfg := testOAuthConfig()
	states := repository.NewOAuthStateRepo(nil, cfg.JWTSecret)
	h := NewOAuthHandler(cfg, nil, states, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/discord", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DiscordLogin(c); err != nil {
		t.Fatalf("DiscordLogin: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get(echo.HeaderLocation))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	q := loc.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("scope") != "identify email" {
		t.Fatalf("scope = %q", q.Get("scope"))
	}
	state := q.Get("state")
	if state == "" {
		t.Fatal("redirect carries no state")
	}
	// Without Redis the state is self-contained and verifiable.
	if !states.Verify(context.Background(), state) {
		t.Fatal("issued state does not verify")
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "authorization_code" || r.Form.Get("code") != "the-code" {
			t.Errorf("unexpected form: %v", r.Form)
		}
		if r.Form.Get("client_id") != "client-id" || r.Form.Get("client_secret") != "client-secret" {
			t.Errorf("credentials missing from form: %v", r.Form)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	h := NewOAuthHandler(testOAuthConfig(), nil, repository.NewOAuthStateRepo(nil, "s"), nil)
	h.Client = srv.Client()
	h.TokenURL = srv.URL

	tok, err := h.exchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("exchangeCode: %v", err)
	}
	if tok.AccessToken != "provider-token" {
		t.Fatalf("access_token = %q", tok.AccessToken)
	}
}

func TestExchangeCodeProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	h := NewOAuthHandler(testOAuthConfig(), nil, repository.NewOAuthStateRepo(nil, "s"), nil)
	h.Client = srv.Client()
	h.TokenURL = srv.URL

	if _, err := h.exchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("want error for provider rejection")
	}
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer provider-token" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"123456","username":"taro","global_name":"Taro","email":"taro@example.com","avatar":"abcdef"}`))
	}))
	defer srv.Close()

	h := NewOAuthHandler(testOAuthConfig(), nil, repository.NewOAuthStateRepo(nil, "s"), nil)
	h.Client = srv.Client()
	h.MeURL = srv.URL

	du, err := h.fetchUser(context.Background(), "provider-token")
	if err != nil {
		t.Fatalf("fetchUser: %v", err)
	}
	if du.ID != "123456" || du.Username != "taro" || du.GlobalName != "Taro" {
		t.Fatalf("profile = %+v", du)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	cfg := testOAuthConfig()
	states := repository.NewOAuthStateRepo(nil, cfg.JWTSecret)
	h := NewOAuthHandler(cfg, nil, states, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/discord/callback?code=x&state=forged", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.DiscordCallback(c); err != nil {
		t.Fatalf("DiscordCallback: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
