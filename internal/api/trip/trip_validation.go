package trip

import (
	"fmt"
	"strings"
	"time"

	"github.com/FACorreiaa/travelx-planner/internal/types"
)

// Validate checks a raw request in order: presence, date format, date range.
// It returns the normalised trip with its inclusive day count.
func Validate(req types.TripRequest) (types.ItineraryRequest, error) {
	fields := []struct{ name, value string }{
		{"source", req.Source},
		{"destination", req.Destination},
		{"start_date", req.StartDate},
		{"end_date", req.EndDate},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return types.ItineraryRequest{}, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}

	start, err := time.Parse(types.DateLayout, strings.TrimSpace(req.StartDate))
	if err != nil {
		return types.ItineraryRequest{}, fmt.Errorf("%w: start_date %q", ErrInvalidDateFormat, req.StartDate)
	}
	end, err := time.Parse(types.DateLayout, strings.TrimSpace(req.EndDate))
	if err != nil {
		return types.ItineraryRequest{}, fmt.Errorf("%w: end_date %q", ErrInvalidDateFormat, req.EndDate)
	}

	days := int(end.Sub(start)/(24*time.Hour)) + 1
	if days < 1 {
		return types.ItineraryRequest{}, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, req.EndDate, req.StartDate)
	}

	return types.ItineraryRequest{
		Source:      strings.TrimSpace(req.Source),
		Destination: strings.TrimSpace(req.Destination),
		StartDate:   start.Format(types.DateLayout),
		EndDate:     end.Format(types.DateLayout),
		Days:        days,
	}, nil
}
