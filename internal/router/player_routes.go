package router

import (
	"github.com/labstack/echo/v4"

	"matchday/internal/handler"
	"matchday/internal/middleware"
)

// RegisterPlayer registers player-scoped endpoints under /v1.  All routes
// require a valid JWT and the PLAYER role.  Players can enroll in matches,
// withdraw their own enrollments and manage their selection (a cart of
// matches they intend to commit to later).
func RegisterPlayer(e *echo.Echo, enroll *handler.EnrollmentHandler, sel *handler.SelectionHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("PLAYER"),
	)

	// Note: GET /v1/matches, GET /v1/matches/:id and the roster endpoint are
	// registered on the public router so guests can browse before signing
	// up.  Player-specific endpoints begin here.
	g.POST("/matches/:id/participants", enroll.Enroll)
	g.DELETE("/matches/:id/participants/:pid", enroll.Unenroll)

	// Selection endpoints.  The selection is addressed implicitly by the
	// authenticated user; there is no way to reach another user's cart.
	g.GET("/selection", sel.View)
	g.DELETE("/selection", sel.Clear)
	g.POST("/selection/lines", sel.AddLine)
	g.PATCH("/selection/lines/:id", sel.SetQuantity)
	g.DELETE("/selection/lines/:id", sel.RemoveLine)
}
