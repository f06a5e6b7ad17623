package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"matchday/internal/model"
	"matchday/internal/service"
)

// OrganizerHandler exposes the match lifecycle to organizers: creating
// matches and moving them into the terminal CANCELLED/CLOSED states.
// Capacity and AVAILABLE/FULL are owned by the enrollment engine and
// cannot be set here.
type OrganizerHandler struct {
	Matches *service.MatchService
}

// NewOrganizerHandler constructs an OrganizerHandler.
func NewOrganizerHandler(matches *service.MatchService) *OrganizerHandler {
	if matches == nil {
		panic("nil service passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Matches: matches}
}

// CreateMatch handles POST /v1/matches.  The body must contain a
// title, an RFC3339 scheduled_at in the future and a positive
// max_capacity.  The capacity ceiling is immutable once created.
func (h *OrganizerHandler) CreateMatch(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ScheduledAt string `json:"scheduled_at"`
		MaxCapacity uint32 `json:"max_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	scheduledAt, err := time.Parse(time.RFC3339, body.ScheduledAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be RFC3339"})
	}
	if !scheduledAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "scheduled_at must be in the future"})
	}

	m, err := h.Matches.Create(c.Request().Context(), userID, title, strings.TrimSpace(body.Description), scheduledAt, body.MaxCapacity)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toMatchResp(m)})
}

// SetMatchStatus handles PATCH /v1/matches/:id/status.  Only the
// creating organizer may cancel or close a match; both transitions are
// terminal.
func (h *OrganizerHandler) SetMatchStatus(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matchID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid match id"})
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := strings.ToUpper(strings.TrimSpace(body.Status))

	ctx := c.Request().Context()
	var m *model.Match
	err = withConflictRetry(func() error {
		var err error
		m, err = h.Matches.SetStatus(ctx, userID, matchID, status)
		return err
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toMatchResp(m)})
}

// ListMyMatches handles GET /v1/my-matches.  It returns all matches
// created by the calling organizer, newest first.
func (h *OrganizerHandler) ListMyMatches(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	matches, err := h.Matches.ListByCreator(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load matches"})
	}
	items := make([]matchResp, 0, len(matches))
	for i := range matches {
		items = append(items, toMatchResp(&matches[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
