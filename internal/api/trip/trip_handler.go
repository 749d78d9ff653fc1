package trip

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/travelx-planner/app/middleware"
	"github.com/FACorreiaa/travelx-planner/internal/api"
	"github.com/FACorreiaa/travelx-planner/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// PlanTrip plans a trip and stores it in the caller's session.
// It accepts JSON {source, destination, start_date, end_date} or the web form
// fields source, destination, date and return.
func (h *HandlerImpl) PlanTrip(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "PlanTrip", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/plan"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "PlanTrip"))

	sessionID, ok := appMiddleware.GetSessionIDFromContext(ctx)
	if !ok {
		l.ErrorContext(ctx, "Session ID not found in context")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Session unavailable")
		return
	}

	req, err := decodeTripRequest(w, r)
	if err != nil {
		l.WarnContext(ctx, "Failed to decode trip request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.service.PlanForSession(ctx, sessionID, req)
	if err != nil {
		status, msg := userMessage(err)
		if status >= http.StatusInternalServerError {
			l.ErrorContext(ctx, "Trip planning failed", slog.Any("error", err))
		}
		span.RecordError(err)
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusCreated, plan)
}

// GetPlan returns the plan stored for the caller's session.
func (h *HandlerImpl) GetPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), "GetPlan", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/trips/plan"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "GetPlan"))

	sessionID, ok := appMiddleware.GetSessionIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusNotFound, "Session expired. Please plan again.")
		return
	}

	plan, err := h.service.SessionPlan(ctx, sessionID)
	if err != nil {
		status, msg := userMessage(err)
		if !errors.Is(err, ErrSessionExpired) {
			l.ErrorContext(ctx, "Failed to load session plan", slog.Any("error", err))
			span.RecordError(err)
		}
		api.ErrorResponse(w, r, status, msg)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// ClearPlan drops the caller's stored plan.
func (h *HandlerImpl) ClearPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := appMiddleware.GetSessionIDFromContext(ctx)
	if ok {
		if err := h.service.ClearSession(ctx, sessionID); err != nil {
			h.logger.ErrorContext(ctx, "Failed to clear session plan", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to clear plan")
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeTripRequest(w http.ResponseWriter, r *http.Request) (types.TripRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return types.TripRequest{}, errors.New("body contains an invalid form")
		}
		return types.TripRequest{
			Source:      r.PostFormValue("source"),
			Destination: r.PostFormValue("destination"),
			StartDate:   r.PostFormValue("date"),
			EndDate:     r.PostFormValue("return"),
		}, nil
	default:
		var req types.TripRequest
		if err := api.DecodeJSONBody(w, r, &req); err != nil {
			return types.TripRequest{}, err
		}
		return req, nil
	}
}
