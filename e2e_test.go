package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/FACorreiaa/travelx-planner/config"
	"github.com/FACorreiaa/travelx-planner/internal/container"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

type firstChoice struct{}

func (firstChoice) IntN(int) int { return 0 }

// upstreams stubs Nominatim, OSRM, Visual Crossing and Ollama on one server.
type upstreams struct {
	server      *httptest.Server
	ollamaDown  atomic.Bool
	ollamaCalls atomic.Int32

	mu         sync.Mutex
	lastPrompt string
}

func newUpstreams() *upstreams {
	u := &upstreams{}
	mux := http.NewServeMux()

	places := map[string][2]string{
		"Mumbai": {"19.0760", "72.8777"},
		"Pune":   {"18.5204", "73.8567"},
	}
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		ll, ok := places[r.URL.Query().Get("q")]
		if !ok {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = fmt.Fprintf(w, `[{"lat":%q,"lon":%q,"display_name":"x"}]`, ll[0], ll[1])
	})
	mux.HandleFunc("/route/v1/driving/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"code":"Ok","routes":[{"distance":148230,"duration":11160,
			"geometry":{"type":"LineString","coordinates":[[72.8777,19.076],[73.8567,18.5204]]}}]}`)
	})
	mux.HandleFunc("/weather/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"resolvedAddress":"Pune, India","days":[
			{"datetime":"2025-03-01","tempmax":33.1,"tempmin":18.2,"temp":25.4,"conditions":"Clear","icon":"clear-day","precipprob":0}]}`)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		u.ollamaCalls.Add(1)
		if u.ollamaDown.Load() {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
			return
		}
		var body struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		u.mu.Lock()
		u.lastPrompt = body.Prompt
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"response":"  **Day 1**\nMorning: Shaniwar Wada  ","done":true}`)
	})

	u.server = httptest.NewServer(mux)
	return u
}

func (u *upstreams) prompt() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastPrompt
}

// E2ETestSuite drives the full middleware stack and API router against
// stubbed upstream providers.
type E2ETestSuite struct {
	suite.Suite
	upstreams *upstreams
	container *container.Container
	server    *httptest.Server
	client    *http.Client
}

func testConfig(upstreamURL string) config.Config {
	var cfg config.Config
	cfg.Mode = "test"
	cfg.Server.Timeout = 30 * time.Second
	cfg.Session = config.SessionConfig{
		SecretKey:       "e2e-secret",
		Store:           "memory",
		TTL:             time.Hour,
		CleanupInterval: time.Minute,
		CookieName:      "travelx_session",
	}
	cfg.Geocoder = config.GeocoderConfig{BaseURL: upstreamURL + "/search", UserAgent: "TravelX-AI/1.0", Timeout: 5 * time.Second}
	cfg.Router = config.RouterConfig{BaseURL: upstreamURL, Timeout: 5 * time.Second}
	cfg.Weather = config.WeatherConfig{APIKey: "vc-key", BaseURL: upstreamURL + "/weather", Timeout: 5 * time.Second}
	cfg.Itinerary = config.ItineraryConfig{
		Provider:  "ollama",
		OllamaURL: upstreamURL + "/api/generate",
		Timeout:   5 * time.Second,
	}
	return cfg
}

func (s *E2ETestSuite) SetupSuite() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s.upstreams = newUpstreams()

	cfg := testConfig(s.upstreams.server.URL)
	c, err := container.NewContainer(context.Background(), &cfg, logger, container.Overrides{Randomizer: firstChoice{}})
	s.Require().NoError(err)
	s.container = c

	s.server = httptest.NewServer(newRootRouter(c, cfg.Server.Timeout, logger))
}

func (s *E2ETestSuite) TearDownSuite() {
	s.server.Close()
	s.upstreams.server.Close()
	s.container.Close()
}

func (s *E2ETestSuite) SetupTest() {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	s.client = &http.Client{Jar: jar, Timeout: 10 * time.Second}
	s.upstreams.ollamaDown.Store(false)
}

func (s *E2ETestSuite) planJSON(body string) *http.Response {
	resp, err := s.client.Post(s.server.URL+"/api/v1/trips/plan", "application/json", strings.NewReader(body))
	s.Require().NoError(err)
	return resp
}

func (s *E2ETestSuite) getPlan() *http.Response {
	resp, err := s.client.Get(s.server.URL + "/api/v1/trips/plan")
	s.Require().NoError(err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *E2ETestSuite) TestPing() {
	resp, err := s.client.Get(s.server.URL + "/ping")
	s.Require().NoError(err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("pong", string(b))
}

func (s *E2ETestSuite) TestPlanThenDashboard() {
	resp := s.planJSON(`{"source":"Mumbai","destination":"Pune","start_date":"2025-03-01","end_date":"2025-03-03"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	plan := decodeBody[types.TripPlan](s.T(), resp)

	s.Equal("<strong>Day 1</strong><br>Morning: Shaniwar Wada", plan.Itinerary)
	s.Equal("Pune", plan.Destination)
	s.Equal(3, plan.Days)

	s.Equal(types.StatusOK, plan.WeatherStatus)
	s.Require().NotNil(plan.Weather)
	s.Equal("Pune, India", plan.Weather.ResolvedAddress)
	s.Require().Len(plan.Weather.Days, 1)

	s.Equal(types.StatusOK, plan.RouteStatus)
	s.Require().NotNil(plan.Route)
	s.InDelta(148.2, plan.Route.DistanceKm, 1e-9)
	s.InDelta(3.1, plan.Route.DurationHr, 1e-9)
	s.Greater(plan.Route.StraightLineKm, 0.0)
	s.JSONEq(`{"type":"LineString","coordinates":[[72.8777,19.076],[73.8567,18.5204]]}`, string(plan.Route.Geometry))

	prompt := s.upstreams.prompt()
	s.Contains(prompt, "Generate a UNIQUE and DIFFERENT 3-day itinerary.")
	s.Contains(prompt, "Trip Style: luxury travel style")
	s.Contains(prompt, "Seed: 1000")
	s.Contains(prompt, "Dates: 2025-03-01 to 2025-03-03")

	dash := s.getPlan()
	s.Require().Equal(http.StatusOK, dash.StatusCode)
	stored := decodeBody[types.TripPlan](s.T(), dash)
	s.Equal(plan.Itinerary, stored.Itinerary)
	s.Equal(plan.Route.DistanceKm, stored.Route.DistanceKm)
}

func (s *E2ETestSuite) TestFormSubmission() {
	form := url.Values{
		"source":      {"Mumbai"},
		"destination": {"Pune"},
		"date":        {"2025-03-01"},
		"return":      {"2025-03-01"},
	}
	resp, err := s.client.PostForm(s.server.URL+"/api/v1/trips/plan", form)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	plan := decodeBody[types.TripPlan](s.T(), resp)
	s.Equal(1, plan.Days)
	s.Equal("Mumbai", plan.Source)
}

func (s *E2ETestSuite) TestDashboardWithoutPlan() {
	resp := s.getPlan()
	s.Equal(http.StatusNotFound, resp.StatusCode)
	body := decodeBody[errorBody](s.T(), resp)
	s.False(body.Success)
	s.Equal("Session expired. Please plan again.", body.Error)
}

func (s *E2ETestSuite) TestValidationErrors() {
	cases := []struct {
		name string
		body string
		msg  string
	}{
		{"missing field", `{"source":"Mumbai","destination":"","start_date":"2025-03-01","end_date":"2025-03-02"}`, "All fields are required!"},
		{"bad date", `{"source":"Mumbai","destination":"Pune","start_date":"01/03/2025","end_date":"2025-03-02"}`, "Invalid date format."},
		{"reversed range", `{"source":"Mumbai","destination":"Pune","start_date":"2025-03-05","end_date":"2025-03-02"}`, "Return date must be after travel date."},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			before := s.upstreams.ollamaCalls.Load()
			resp := s.planJSON(tc.body)
			s.Equal(http.StatusBadRequest, resp.StatusCode)
			s.Equal(tc.msg, decodeBody[errorBody](s.T(), resp).Error)
			s.Equal(before, s.upstreams.ollamaCalls.Load(), "no LLM call on invalid input")
		})
	}

	dash := s.getPlan()
	s.Equal(http.StatusNotFound, dash.StatusCode)
	_ = dash.Body.Close()
}

func (s *E2ETestSuite) TestItineraryFailureKeepsPreviousPlan() {
	first := s.planJSON(`{"source":"Mumbai","destination":"Pune","start_date":"2025-03-01","end_date":"2025-03-02"}`)
	s.Require().Equal(http.StatusCreated, first.StatusCode)
	_ = first.Body.Close()

	s.upstreams.ollamaDown.Store(true)
	resp := s.planJSON(`{"source":"Pune","destination":"Mumbai","start_date":"2025-04-01","end_date":"2025-04-02"}`)
	s.Equal(http.StatusBadGateway, resp.StatusCode)
	s.Equal("Failed to generate itinerary.", decodeBody[errorBody](s.T(), resp).Error)

	dash := s.getPlan()
	s.Require().Equal(http.StatusOK, dash.StatusCode)
	stored := decodeBody[types.TripPlan](s.T(), dash)
	s.Equal("Pune", stored.Destination)
	s.Equal("2025-03-01", stored.StartDate)
}

func (s *E2ETestSuite) TestUnknownPlaceOmitsRoute() {
	resp := s.planJSON(`{"source":"Atlantis","destination":"Pune","start_date":"2025-03-01","end_date":"2025-03-02"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	plan := decodeBody[types.TripPlan](s.T(), resp)
	s.Nil(plan.Route)
	s.Equal(string(types.AbsenceNoData), plan.RouteStatus)
	s.NotNil(plan.Weather)
}

func (s *E2ETestSuite) TestClearPlan() {
	resp := s.planJSON(`{"source":"Mumbai","destination":"Pune","start_date":"2025-03-01","end_date":"2025-03-02"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, s.server.URL+"/api/v1/trips/plan", nil)
	s.Require().NoError(err)
	del, err := s.client.Do(req)
	s.Require().NoError(err)
	_ = del.Body.Close()
	s.Equal(http.StatusNoContent, del.StatusCode)

	dash := s.getPlan()
	s.Equal(http.StatusNotFound, dash.StatusCode)
	_ = dash.Body.Close()
}

func (s *E2ETestSuite) TestSessionsAreIsolated() {
	resp := s.planJSON(`{"source":"Mumbai","destination":"Pune","start_date":"2025-03-01","end_date":"2025-03-02"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	other := &http.Client{Timeout: 10 * time.Second}
	got, err := other.Get(s.server.URL + "/api/v1/trips/plan")
	s.Require().NoError(err)
	defer got.Body.Close()
	assert.Equal(s.T(), http.StatusNotFound, got.StatusCode)
}

func TestE2ESuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end suite in short mode")
	}
	suite.Run(t, new(E2ETestSuite))
}
