// Package http serves the presentation-facing JSON API over echo.
package http

import (
	"context"
	"log/slog"
	stdhttp "net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
	"barberpro/backend/internal/service/booking"
	"barberpro/backend/internal/service/timeoff"
)

type slotResolver interface {
	Resolve(ctx context.Context, providerID uuid.UUID, date time.Time, durationMinutes int) ([]domain.Interval, error)
	ResolveForService(ctx context.Context, providerID uuid.UUID, date time.Time, serviceID uuid.UUID) ([]domain.Interval, domain.Service, error)
	DayGrid(ctx context.Context, providerID uuid.UUID, date time.Time, durationMinutes int) ([]availability.GridSlot, error)
}

type bookingManager interface {
	Commit(ctx context.Context, in booking.CommitInput) (domain.Booking, error)
	Transition(ctx context.Context, bookingID uuid.UUID, to domain.BookingStatus) (domain.Booking, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, includeCancelled bool) ([]domain.Booking, error)
}

type timeOffWorkflow interface {
	Submit(ctx context.Context, in timeoff.SubmitInput) (domain.TimeOffRequest, error)
	Approve(ctx context.Context, requestID, adminID uuid.UUID) (domain.TimeOffRequest, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (domain.TimeOffRequest, error)
	ListPending(ctx context.Context) ([]domain.TimeOffRequest, error)
	Reactivate(ctx context.Context, providerID uuid.UUID) (domain.Provider, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Slots    slotResolver
	Bookings bookingManager
	TimeOff  timeOffWorkflow
	Store    Pinger
}

type Options struct {
	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables limiting.
	RateLimit float64
	Tracing   bool
}

type Server struct {
	svc  Services
	log  *slog.Logger
	echo *echo.Echo
	opts Options
}

func NewServer(svc Services, log *slog.Logger, opts Options) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		svc:  svc,
		log:  log.With(slog.String("component", "http")),
		echo: echo.New(),
		opts: opts,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", s.healthz)
	e.GET("/readyz", s.readyz)

	api := e.Group("/api/v1")
	if s.opts.RateLimit > 0 {
		burst := int(s.opts.RateLimit * 2)
		if burst < 1 {
			burst = 1
		}
		api.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.opts.RateLimit),
				Burst:     burst,
				ExpiresIn: 3 * time.Minute,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return echo.NewHTTPError(stdhttp.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	api.GET("/providers/:providerID/slots", s.listSlots)
	api.GET("/providers/:providerID/day", s.dayGrid)
	api.POST("/providers/:providerID/reactivate", s.reactivateProvider)

	api.POST("/bookings", s.commitBooking)
	api.PATCH("/bookings/:bookingID/status", s.transitionBooking)
	api.GET("/clients/:clienteID/bookings", s.listClientBookings)

	api.POST("/time-off", s.submitTimeOff)
	api.GET("/time-off/pending", s.listPendingTimeOff)
	api.POST("/time-off/:requestID/approve", s.approveTimeOff)
	api.POST("/time-off/:requestID/reject", s.rejectTimeOff)
}

// Handler returns the root handler, traced when tracing is enabled.
func (s *Server) Handler() stdhttp.Handler {
	if s.opts.Tracing {
		return otelhttp.NewHandler(s.echo, "booking-http")
	}
	return s.echo
}

func (s *Server) healthz(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(c echo.Context) error {
	if s.svc.Store == nil {
		return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := s.svc.Store.Ping(ctx); err != nil {
		s.log.Warn("readiness check failed", slog.Any("err", err))
		return c.JSON(stdhttp.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
}
