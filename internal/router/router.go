package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"matchday/internal/handler"
	"matchday/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this endpoint to verify
	// that the service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and the two refresh variants.  Each handler is responsible for
	// generating or exchanging tokens.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the refresh token; refresh-access issues a new access
	// token without rotating.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a JSON body containing a `refresh_token` and
	// invalidates it.  No JWT is required, so a client with an expired
	// access token can still end its session.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  Any authenticated role may
	// read its own identity.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("ORGANIZER", "PLAYER"))
	auth.GET("/me", a.Me)

	// Top-level alias outside the protected group so clients can call either
	// /v1/auth/logout or /v1/logout with a refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints.  The cache
// middleware is applied here because these reads are the hottest part of the
// API and their responses are safe to share between users.  Mutating
// endpoints never go through the cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	// Open matches, soonest first.
	g.GET("/matches", p.ListMatches)
	// A single match with its derived remaining capacity.
	g.GET("/matches/:id", p.GetMatch)
	// The enrolled roster, ordered by join time.
	g.GET("/matches/:id/participants", p.GetRoster)
}
