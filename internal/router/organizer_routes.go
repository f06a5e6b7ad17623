package router

import (
	"github.com/labstack/echo/v4"

	"matchday/internal/handler"
	"matchday/internal/middleware"
)

// RegisterOrganizer registers organizer-scoped endpoints under /v1.  All
// routes require a valid JWT and the ORGANIZER role.  Organizers create
// matches and move them into terminal states; capacity is enforced by the
// enrollment engine and cannot be edited here.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ORGANIZER"),
	)

	g.POST("/matches", o.CreateMatch)
	g.PATCH("/matches/:id/status", o.SetMatchStatus)
	g.GET("/my-matches", o.ListMyMatches)
}
