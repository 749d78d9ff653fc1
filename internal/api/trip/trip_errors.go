package trip

import (
	"errors"
	"net/http"
)

var (
	ErrMissingField              = errors.New("missing required field")
	ErrInvalidDateFormat         = errors.New("invalid date format")
	ErrInvalidDateRange          = errors.New("end date before start date")
	ErrItineraryGenerationFailed = errors.New("itinerary generation failed")
	ErrSessionExpired            = errors.New("session expired")
)

// userMessage maps planner errors to the status and text shown to end users.
func userMessage(err error) (int, string) {
	switch {
	case errors.Is(err, ErrMissingField):
		return http.StatusBadRequest, "All fields are required!"
	case errors.Is(err, ErrInvalidDateFormat):
		return http.StatusBadRequest, "Invalid date format."
	case errors.Is(err, ErrInvalidDateRange):
		return http.StatusBadRequest, "Return date must be after travel date."
	case errors.Is(err, ErrItineraryGenerationFailed):
		return http.StatusBadGateway, "Failed to generate itinerary."
	case errors.Is(err, ErrSessionExpired):
		return http.StatusNotFound, "Session expired. Please plan again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}
