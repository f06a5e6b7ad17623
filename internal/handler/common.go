package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"matchday/internal/model"
	"matchday/internal/repository"
	"matchday/internal/service"
)

// conflictRetryAttempts bounds how many times a handler reapplies an
// operation that lost an optimistic-conflict race before surfacing the
// conflict to the client.  The services themselves never retry.
const conflictRetryAttempts = 3

// timeLayout is the wire format for timestamps in responses.
const timeLayout = time.RFC3339

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// withConflictRetry runs op, re-invoking it while the write keeps
// losing the version-stamp race.  Each attempt re-reads current state
// inside op, so a retry applies against the new version.  After the
// final attempt the conflict is returned unchanged; all other errors
// pass through on the first occurrence.
func withConflictRetry(op func() error) error {
	var err error
	for i := 0; i < conflictRetryAttempts; i++ {
		err = op()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return err
}

// writeServiceError translates the service and repository error
// taxonomy into HTTP responses.  Business and not-found errors are
// terminal for the request; a version conflict that survived the
// handler's bounded retry is reported as "modified concurrently" so
// the end user can retry.
func writeServiceError(c echo.Context, err error) error {
	var insufficient *service.InsufficientCapacityError
	switch {
	case errors.Is(err, repository.ErrMatchNotFound),
		errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, repository.ErrSelectionNotFound),
		errors.Is(err, repository.ErrLineNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrDuplicateParticipant):
		return c.JSON(http.StatusConflict, echo.Map{"error": "participant already enrolled"})
	case errors.Is(err, service.ErrMatchNotAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "match is not open for enrollment"})
	case errors.Is(err, service.ErrMatchFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "match is full"})
	case errors.Is(err, service.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, echo.Map{"error": "match capacity exceeded"})
	case errors.As(err, &insufficient):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "insufficient remaining capacity",
			"remaining": insufficient.Remaining,
			"requested": insufficient.Requested,
		})
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidCapacity),
		errors.Is(err, service.ErrInvalidStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrVersionConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "modified concurrently, please retry"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// matchResp is the JSON shape matches are rendered with.  Remaining
// capacity and fullness are derived on the way out, never read from a
// stored field.
type matchResp struct {
	ID                uint64 `json:"id"`
	Title             string `json:"title"`
	Description       string `json:"description,omitempty"`
	ScheduledAt       string `json:"scheduled_at"`
	MaxCapacity       uint32 `json:"max_capacity"`
	ParticipantCount  uint32 `json:"participant_count"`
	RemainingCapacity uint32 `json:"remaining_capacity"`
	Status            string `json:"status"`
	IsFull            bool   `json:"is_full"`
	Version           uint64 `json:"version"`
}

func toMatchResp(m *model.Match) matchResp {
	return matchResp{
		ID:                m.ID,
		Title:             m.Title,
		Description:       m.Description,
		ScheduledAt:       m.ScheduledAt.UTC().Format(timeLayout),
		MaxCapacity:       m.MaxCapacity,
		ParticipantCount:  m.CurrentParticipantCount,
		RemainingCapacity: m.RemainingCapacity(),
		Status:            m.Status,
		IsFull:            m.IsFull(),
		Version:           m.Version,
	}
}
