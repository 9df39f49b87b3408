package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/loan-ledger/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/loan-ledger/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check
// for load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes.
// Unauthenticated operations live under /v1/auth, while the protected
// profile endpoint lives under /v1. The Discord routes are only mapped
// when the OAuth flow is configured; oauth may be nil otherwise.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, oauth *handler.OAuthHandler, jwtSecret string) {
	// Operations that do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token and returns a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a JSON body with a `refresh_token` and invalidates
	// that token; it intentionally requires no JWT so a client with an
	// expired access token can still end its session.
	g.POST("/logout", a.Logout)

	if oauth != nil {
		// Browser-driven Discord sign-in: redirect out, then return
		// through the callback with code and state.
		g.GET("/discord", oauth.DiscordLogin)
		g.GET("/discord/callback", oauth.DiscordCallback)
	}

	// Routes that require a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterLoans registers the loan ledger endpoints. Both routes
// require a valid access token; record-level authorization (only a
// loan's lender or borrower may see or create it) lives in the
// handler. The /api/loans aliases preserve the path used by existing
// web clients.
func RegisterLoans(e *echo.Echo, l *handler.LoanHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/loans", l.List)
	auth.POST("/loans", l.Create)

	api := e.Group("/api")
	api.Use(middleware.JWTAuth(jwtSecret))
	api.GET("/loans", l.List)
	api.POST("/loans", l.Create)
}
