package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"matchday/internal/model"
	"matchday/internal/repository"
	"matchday/internal/service"
)

// SelectionHandler exposes the player's cart.  Every endpoint operates
// on the calling user's own selection; there is no way to address
// another user's cart.  Mutations retry bounded on optimistic
// conflicts, which for selections only occur when the same user issues
// overlapping concurrent requests.
type SelectionHandler struct {
	Selections *service.SelectionService
}

// NewSelectionHandler constructs a SelectionHandler.
func NewSelectionHandler(selections *service.SelectionService) *SelectionHandler {
	if selections == nil {
		panic("nil service passed to NewSelectionHandler")
	}
	return &SelectionHandler{Selections: selections}
}

// lineResp renders a selection line.
type lineResp struct {
	ID       uint64 `json:"id"`
	MatchID  uint64 `json:"match_id"`
	Quantity uint32 `json:"quantity"`
}

func toLineResp(l *model.SelectionLine) lineResp {
	return lineResp{ID: l.ID, MatchID: l.MatchID, Quantity: l.Quantity}
}

// View handles GET /v1/selection.  Users who never touched their cart
// receive an empty selection rather than a 404; this read never
// creates state.
func (h *SelectionHandler) View(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	view, err := h.Selections.View(c.Request().Context(), userID)
	if err != nil {
		return writeServiceError(c, err)
	}
	lines := make([]lineResp, 0, len(view.Lines))
	for i := range view.Lines {
		lines = append(lines, toLineResp(&view.Lines[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"lines":       lines,
		"total_lines": view.TotalLines,
	})
}

// AddLine handles POST /v1/selection/lines.  The body must contain
// "match_id" and a positive "quantity"; adding a match already in the
// cart merges into the existing line.
func (h *SelectionHandler) AddLine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		MatchID  uint64 `json:"match_id"`
		Quantity int    `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MatchID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "match_id is required"})
	}

	ctx := c.Request().Context()
	var line *model.SelectionLine
	err = withConflictRetry(func() error {
		var err error
		line, err = h.Selections.AddOrIncrease(ctx, userID, body.MatchID, body.Quantity)
		return err
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"line": toLineResp(line)})
}

// SetQuantity handles PATCH /v1/selection/lines/:id.  A quantity of
// zero or below removes the line; removing an already-absent line is
// not an error as long as the selection exists.
func (h *SelectionHandler) SetQuantity(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lineID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	err = withConflictRetry(func() error {
		return h.Selections.SetQuantity(ctx, userID, lineID, body.Quantity)
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RemoveLine handles DELETE /v1/selection/lines/:id.
func (h *SelectionHandler) RemoveLine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lineID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid line id"})
	}

	ctx := c.Request().Context()
	err = withConflictRetry(func() error {
		return h.Selections.RemoveLine(ctx, userID, lineID)
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /v1/selection.  A user who never created a
// selection is treated as already having an empty one.
func (h *SelectionHandler) Clear(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	err = withConflictRetry(func() error {
		return h.Selections.Clear(ctx, userID)
	})
	if errors.Is(err, repository.ErrSelectionNotFound) {
		// No selection yet reads as an empty selection here.
		return c.NoContent(http.StatusNoContent)
	}
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
