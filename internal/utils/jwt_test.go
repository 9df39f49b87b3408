package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", TokenProfile{
		UserID:      "U1",
		DiscordID:   "123",
		Username:    "taro",
		DisplayName: "Taro",
	}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	if at.Exp.Before(time.Now().UTC()) {
		t.Fatalf("expiry in the past: %v", at.Exp)
	}

	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse issued token: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	if claims["sub"] != "U1" || claims["did"] != "123" {
		t.Fatalf("claims = %v", claims)
	}
	if claims["username"] != "taro" || claims["display_name"] != "Taro" {
		t.Fatalf("claims = %v", claims)
	}
}

func TestNewAccessTokenOmitsEmptyDiscordClaims(t *testing.T) {
	at, err := NewAccessToken("secret", TokenProfile{UserID: "U1"}, 15)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	tok, err := jwt.Parse(at.Token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	for _, k := range []string{"did", "username", "display_name"} {
		if _, ok := claims[k]; ok {
			t.Fatalf("claim %q present for local account", k)
		}
	}
}

func TestHashRefreshRaw(t *testing.T) {
	a := HashRefreshRaw("token-a")
	if len(a) != 64 {
		t.Fatalf("hash length = %d, want 64", len(a))
	}
	if a != HashRefreshRaw("token-a") {
		t.Fatal("hash is not deterministic")
	}
	if a == HashRefreshRaw("token-b") {
		t.Fatal("distinct tokens collide")
	}
}

func TestNewRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(30)
	if err != nil {
		t.Fatalf("NewRefreshToken: %v", err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96", len(rt.Raw))
	}
	if rt.Exp.Before(time.Now().UTC().Add(29 * 24 * time.Hour)) {
		t.Fatalf("expiry too early: %v", rt.Exp)
	}
}

func TestNewID(t *testing.T) {
	a, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	b, err := NewID()
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("lengths = %d, %d, want 32", len(a), len(b))
	}
	if a == b {
		t.Fatal("consecutive IDs collide")
	}
}
