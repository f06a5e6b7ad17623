package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"matchday/internal/service"
)

// PublicHandler exposes unauthenticated browse endpoints.  These
// routes return sanitized match data for guests; remaining capacity is
// derived from the participant count on every read so stale stored
// state can never leak out.
type PublicHandler struct {
	Matches     *service.MatchService
	Enrollments *service.EnrollmentService
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(matches *service.MatchService, enrollments *service.EnrollmentService) *PublicHandler {
	if matches == nil || enrollments == nil {
		panic("nil service passed to NewPublicHandler")
	}
	return &PublicHandler{Matches: matches, Enrollments: enrollments}
}

// ListMatches handles GET /v1/matches.  It returns all matches that
// are still open (AVAILABLE or FULL), soonest first.
func (h *PublicHandler) ListMatches(c echo.Context) error {
	matches, err := h.Matches.ListOpen(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load matches"})
	}
	items := make([]matchResp, 0, len(matches))
	for i := range matches {
		items = append(items, toMatchResp(&matches[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMatch handles GET /v1/matches/:id.
func (h *PublicHandler) GetMatch(c echo.Context) error {
	matchID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid match id"})
	}
	m, err := h.Matches.Get(c.Request().Context(), matchID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toMatchResp(m)})
}

// GetRoster handles GET /v1/matches/:id/participants.  It returns the
// enrolled participants ordered by join time.
func (h *PublicHandler) GetRoster(c echo.Context) error {
	matchID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid match id"})
	}
	m, participants, err := h.Enrollments.Roster(c.Request().Context(), matchID)
	if err != nil {
		return writeServiceError(c, err)
	}
	roster := make([]echo.Map, 0, len(participants))
	for _, p := range participants {
		roster = append(roster, echo.Map{
			"id":           p.ID,
			"display_name": p.DisplayName,
			"joined_at":    p.JoinedAt.UTC().Format(timeLayout),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"match":        toMatchResp(m),
		"participants": roster,
	})
}
