package types

import "time"

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

// TripRequest is the raw planning input as submitted by the user.
type TripRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// ItineraryRequest is a validated trip handed to the itinerary generator.
type ItineraryRequest struct {
	Source      string
	Destination string
	StartDate   string
	EndDate     string
	Days        int
}

// GenerationOptions are the sampling parameters sent to a language model.
type GenerationOptions struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// TripPlan is the aggregate result of one planning request.
type TripPlan struct {
	Itinerary     string         `json:"itinerary"`
	Source        string         `json:"source"`
	Destination   string         `json:"destination"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	Days          int            `json:"days"`
	Weather       *WeatherResult `json:"weather"`
	WeatherStatus string         `json:"weather_status"`
	Route         *RouteResult   `json:"route"`
	RouteStatus   string         `json:"route_status"`
	CreatedAt     time.Time      `json:"created_at"`
}
