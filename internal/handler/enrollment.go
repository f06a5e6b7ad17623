package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"matchday/internal/model"
	"matchday/internal/service"
)

// EnrollmentHandler exposes the player-facing enrollment endpoints.
// All methods assume that JWT authentication and role validation has
// already been performed by middleware.  An optimistic conflict
// reported by the service is retried a bounded number of times here
// before being surfaced to the client.
type EnrollmentHandler struct {
	Enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs an EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	if enrollments == nil {
		panic("nil service passed to NewEnrollmentHandler")
	}
	return &EnrollmentHandler{Enrollments: enrollments}
}

// Enroll handles POST /v1/matches/:id/participants.  The request body
// must contain a JSON object with a non-empty "display_name".  On
// success it returns 201 Created with the created participant and the
// refreshed match view.
func (h *EnrollmentHandler) Enroll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid match id"})
	}
	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.DisplayName)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "display_name is required"})
	}

	ctx := c.Request().Context()
	var (
		m *model.Match
		p *model.Participant
	)
	err = withConflictRetry(func() error {
		var err error
		m, p, err = h.Enrollments.Enroll(ctx, matchID, userID, name)
		return err
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"participant": echo.Map{
			"id":           p.ID,
			"match_id":     p.MatchID,
			"display_name": p.DisplayName,
			"joined_at":    p.JoinedAt.UTC().Format(timeLayout),
		},
		"match": toMatchResp(m),
	})
}

// Unenroll handles DELETE /v1/matches/:id/participants/:pid.  Only the
// user who created the enrollment may remove it.  Returns 204 on
// success.
func (h *EnrollmentHandler) Unenroll(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid match id"})
	}
	participantID, ok := pathID(c, "pid")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid participant id"})
	}

	ctx := c.Request().Context()
	err = withConflictRetry(func() error {
		return h.Enrollments.Unenroll(ctx, matchID, participantID, userID)
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
