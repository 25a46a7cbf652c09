package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/tobiasceruttigothe/MyFinances/internal/errors"
	"github.com/tobiasceruttigothe/MyFinances/internal/middleware"
	"github.com/tobiasceruttigothe/MyFinances/internal/uuid"
)

// dateLayout is the calendar date format accepted in query strings.
const dateLayout = "2006-01-02"

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID parses a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseQueryInt parses an optional integer query parameter.
func parseQueryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+name)
	}
	return n, nil
}

// parseYearMonth reads the year and month query parameters, defaulting to
// the current month.
func parseYearMonth(c *gin.Context) (int, int, error) {
	now := time.Now().UTC()
	year, err := parseQueryInt(c, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err := parseQueryInt(c, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// parseDateRange reads the required start_date and end_date query
// parameters. A date-only end covers the whole day.
func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	start, _, err := parseDate(c.Query("start_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid start_date")
	}
	end, dateOnly, err := parseDate(c.Query("end_date"))
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid end_date")
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp and reports
// whether the value was date-only.
func parseDate(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	return t, false, err
}

// bindError converts a binding failure into an InvalidInput AppError.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// respondWithError records err on the context and stops the handler chain.
// middleware.ErrorHandler renders it.
func respondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Health reports that the service is up.
// @Summary     Health check
// @Tags        health
// @Produce     json
// @Success     200 {object} map[string]string
// @Router      /health [get]
func Health(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": service})
	}
}
