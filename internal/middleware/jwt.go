package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
    "github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers
)

// principalKey is the context key under which JWTAuth stores the
// authenticated principal.
const principalKey = "principal"

// Principal is the authenticated identity attached to a request. It is
// built once by JWTAuth from validated token claims so handlers never
// re-derive identity from loose claim maps. The Discord fields are
// empty for local accounts that never linked Discord.
type Principal struct {
    UserID      string
    DiscordID   string
    Username    string
    DisplayName string
}

// PrincipalFrom recovers the principal stored by JWTAuth. The second
// return value is false when the request carries no authenticated
// principal.
func PrincipalFrom(c echo.Context) (Principal, bool) {
    p, ok := c.Get(principalKey).(Principal)
    return p, ok && p.UserID != ""
}

// JWTAuth returns an Echo middleware that validates a Bearer access
// token and stores a typed Principal in the request context. The
// provided secret must match the one used when issuing tokens. This
// middleware should wrap protected routes so that handlers can recover
// the caller via PrincipalFrom.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A valid header starts with "Bearer " followed by the JWT.
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            // Parse with HS256 and our secret; reject any other signing
            // method so an attacker cannot downgrade the algorithm.
            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            })
            if err != nil || !tok.Valid {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }

            p := Principal{
                UserID:      stringClaim(claims, "sub"),
                DiscordID:   stringClaim(claims, "did"),
                Username:    stringClaim(claims, "username"),
                DisplayName: stringClaim(claims, "display_name"),
            }
            if p.UserID == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
            }
            c.Set(principalKey, p)
            return next(c)
        }
    }
}

// stringClaim reads a claim as a string, returning "" when absent or
// of another type.
func stringClaim(claims jwt.MapClaims, key string) string {
    v, _ := claims[key].(string)
    return v
}
