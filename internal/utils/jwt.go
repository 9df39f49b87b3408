package utils // package utils provides helper functions for token creation, hashing and IDs

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for refresh tokens
    "encoding/hex"  // hex encoding functions
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string. Exp stores the expiration
// timestamp. Access tokens are short-lived and sent in the Authorization
// header when calling protected endpoints.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens. The Raw field contains the raw token string returned to the
// client. In the database only a SHA-256 hash of the raw string is stored.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// TokenProfile carries the identity claims embedded in an access token.
// The Discord fields are empty for accounts that registered locally and
// never linked Discord.
type TokenProfile struct {
    UserID      string // subject claim
    DiscordID   string // "did" claim
    Username    string // "username" claim
    DisplayName string // "display_name" claim
}

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the identity claims and a TTL in minutes. The JWT
// carries the subject (sub), the Discord profile claims, expiration
// (exp) and issued at (iat).
func NewAccessToken(secret string, p TokenProfile, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub": p.UserID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    // Discord claims are optional; omit them entirely when empty so
    // tokens for local accounts stay small.
    if p.DiscordID != "" {
        claims["did"] = p.DiscordID
    }
    if p.Username != "" {
        claims["username"] = p.Username
    }
    if p.DisplayName != "" {
        claims["display_name"] = p.DisplayName
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time. The ttlDays parameter controls how many days
// the refresh token stays valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string. Storing only the hash prevents attackers from using stolen
// database entries to refresh sessions.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// NewID returns a 32-character random hex identifier. Users and loans
// use these as primary keys so that IDs carry no ordering information.
func NewID() (string, error) {
    return randomHex(16)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
