package http

import (
	"context"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/booking"
	"barberpro/backend/internal/service/timeoff"
)

func (s *Server) listSlots(c echo.Context) error {
	log := s.routeLog(c, "listSlots")

	providerID, err := pathID(c, "providerID")
	if err != nil {
		return err
	}
	date, err := queryDate(c, "fecha")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		slots    []domain.Interval
		duration int
	)
	if raw := strings.TrimSpace(c.QueryParam("servicioID")); raw != "" {
		serviceID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(stdhttp.StatusBadRequest, "servicioID must be a UUID")
		}
		var svc domain.Service
		slots, svc, err = s.svc.Slots.ResolveForService(ctx, providerID, date, serviceID)
		if err != nil {
			return s.fail(log, err)
		}
		duration = svc.DurationMinutes
	} else {
		duration, err = queryDuration(c)
		if err != nil {
			return err
		}
		slots, err = s.svc.Slots.Resolve(ctx, providerID, date, duration)
		if err != nil {
			return s.fail(log, err)
		}
	}

	return c.JSON(stdhttp.StatusOK, slotsResponse{
		ProviderID: providerID.String(),
		Date:       domain.FormatDate(date),
		Duration:   duration,
		Slots:      toSlotDTOs(slots),
	})
}

func (s *Server) dayGrid(c echo.Context) error {
	log := s.routeLog(c, "dayGrid")

	providerID, err := pathID(c, "providerID")
	if err != nil {
		return err
	}
	date, err := queryDate(c, "fecha")
	if err != nil {
		return err
	}
	duration, err := queryDuration(c)
	if err != nil {
		return err
	}

	grid, err := s.svc.Slots.DayGrid(c.Request().Context(), providerID, date, duration)
	if err != nil {
		return s.fail(log, err)
	}
	return c.JSON(stdhttp.StatusOK, dayGridResponse{
		ProviderID: providerID.String(),
		Date:       domain.FormatDate(date),
		Slots:      toGridSlotDTOs(grid),
	})
}

func (s *Server) commitBooking(c echo.Context) error {
	log := s.routeLog(c, "commitBooking")

	var req commitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "invalid JSON body")
	}
	in := booking.CommitInput{IdempotencyKey: strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))}
	var err error
	if in.ProviderID, err = bodyID("barberoID", req.ProviderID); err != nil {
		return err
	}
	if in.ServiceID, err = bodyID("servicioID", req.ServiceID); err != nil {
		return err
	}
	if in.ClientID, err = bodyID("clienteID", req.ClientID); err != nil {
		return err
	}
	if in.Date, err = domain.ParseDate(req.Date); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "fecha must be a YYYY-MM-DD date")
	}
	if in.Start, err = domain.ParseClockTime(req.Start); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "horaInicio must be an HH:MM time")
	}

	b, err := s.svc.Bookings.Commit(c.Request().Context(), in)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("booking committed", slog.String("booking_id", b.ID.String()), slog.String("provider_id", b.ProviderID.String()))
	return c.JSON(stdhttp.StatusCreated, toBookingDTO(b))
}

func (s *Server) transitionBooking(c echo.Context) error {
	log := s.routeLog(c, "transitionBooking")

	id, err := pathID(c, "bookingID")
	if err != nil {
		return err
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "invalid JSON body")
	}
	to := domain.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status)))

	b, err := s.svc.Bookings.Transition(c.Request().Context(), id, to)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("booking transitioned", slog.String("booking_id", b.ID.String()), slog.String("status", string(b.Status)))
	return c.JSON(stdhttp.StatusOK, toBookingDTO(b))
}

// listClientBookings returns the client's history; cancelled bookings only
// with incluirCanceladas=true.
func (s *Server) listClientBookings(c echo.Context) error {
	log := s.routeLog(c, "listClientBookings")

	clientID, err := pathID(c, "clienteID")
	if err != nil {
		return err
	}
	from, err := queryDate(c, "fechaInicio")
	if err != nil {
		return err
	}
	to, err := queryDate(c, "fechaFin")
	if err != nil {
		return err
	}
	includeCancelled := false
	if raw := c.QueryParam("incluirCanceladas"); raw != "" {
		if includeCancelled, err = strconv.ParseBool(raw); err != nil {
			return echo.NewHTTPError(stdhttp.StatusBadRequest, "incluirCanceladas must be true or false")
		}
	}

	bookings, err := s.svc.Bookings.ListForClient(c.Request().Context(), clientID, from, to, includeCancelled)
	if err != nil {
		return s.fail(log, err)
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return c.JSON(stdhttp.StatusOK, out)
}

func (s *Server) submitTimeOff(c echo.Context) error {
	log := s.routeLog(c, "submitTimeOff")

	var req submitTimeOffRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "invalid JSON body")
	}
	providerID, err := bodyID("barberoID", req.ProviderID)
	if err != nil {
		return err
	}
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "fechaInicio must be a YYYY-MM-DD date")
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "fechaFin must be a YYYY-MM-DD date")
	}

	r, err := s.svc.TimeOff.Submit(c.Request().Context(), timeoff.SubmitInput{
		ProviderID: providerID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
	})
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("time-off submitted", slog.String("request_id", r.ID.String()))
	return c.JSON(stdhttp.StatusCreated, toTimeOffDTO(r))
}

func (s *Server) listPendingTimeOff(c echo.Context) error {
	log := s.routeLog(c, "listPendingTimeOff")

	reqs, err := s.svc.TimeOff.ListPending(c.Request().Context())
	if err != nil {
		return s.fail(log, err)
	}
	out := make([]timeOffDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toTimeOffDTO(r))
	}
	return c.JSON(stdhttp.StatusOK, out)
}

func (s *Server) approveTimeOff(c echo.Context) error {
	log := s.routeLog(c, "approveTimeOff")

	requestID, req, err := s.respondArgs(c)
	if err != nil {
		return err
	}
	adminID, err := bodyID("adminID", req.AdminID)
	if err != nil {
		return err
	}
	r, err := s.svc.TimeOff.Approve(c.Request().Context(), requestID, adminID)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("time-off approved", slog.String("request_id", r.ID.String()))
	return c.JSON(stdhttp.StatusOK, toTimeOffDTO(r))
}

func (s *Server) rejectTimeOff(c echo.Context) error {
	log := s.routeLog(c, "rejectTimeOff")

	requestID, req, err := s.respondArgs(c)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, "motivo is required")
	}
	adminID, err := bodyID("adminID", req.AdminID)
	if err != nil {
		return err
	}
	r, err := s.svc.TimeOff.Reject(c.Request().Context(), requestID, adminID, req.Reason)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("time-off rejected", slog.String("request_id", r.ID.String()))
	return c.JSON(stdhttp.StatusOK, toTimeOffDTO(r))
}

func (s *Server) respondArgs(c echo.Context) (uuid.UUID, respondTimeOffRequest, error) {
	var req respondTimeOffRequest
	requestID, err := pathID(c, "requestID")
	if err != nil {
		return uuid.Nil, req, err
	}
	if err := c.Bind(&req); err != nil {
		return uuid.Nil, req, echo.NewHTTPError(stdhttp.StatusBadRequest, "invalid JSON body")
	}
	return requestID, req, nil
}

func (s *Server) reactivateProvider(c echo.Context) error {
	log := s.routeLog(c, "reactivateProvider")

	providerID, err := pathID(c, "providerID")
	if err != nil {
		return err
	}
	p, err := s.svc.TimeOff.Reactivate(c.Request().Context(), providerID)
	if err != nil {
		return s.fail(log, err)
	}
	log.Info("provider reactivated", slog.String("provider_id", p.ID.String()))
	return c.JSON(stdhttp.StatusOK, toProviderDTO(p))
}

func (s *Server) routeLog(c echo.Context, route string) *slog.Logger {
	return s.log.With(
		slog.String("route", route),
		slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
	)
}

// fail logs err and converts it into an echo HTTP error.
func (s *Server) fail(log *slog.Logger, err error) error {
	code := StatusOf(err)
	switch {
	case code >= 500:
		log.Error("request failed", slog.Any("err", err), slog.Int("status", code))
	case code == stdhttp.StatusBadRequest:
		log.Warn("invalid request", slog.Any("err", err))
	default:
		log.Info("request refused", slog.Any("err", err), slog.Int("status", code))
	}

	switch code {
	case stdhttp.StatusInternalServerError:
		return echo.NewHTTPError(code, "internal error")
	case stdhttp.StatusServiceUnavailable:
		return echo.NewHTTPError(code, "storage temporarily unavailable, retry later")
	}
	return echo.NewHTTPError(code, err.Error())
}

// StatusOf maps an engine error to an HTTP status code.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrInvalidArgument:
		return stdhttp.StatusBadRequest
	case domain.ErrNotFound:
		return stdhttp.StatusNotFound
	case domain.ErrConflict, domain.ErrSlotTaken:
		return stdhttp.StatusConflict
	case domain.ErrUnavailable, domain.ErrNoSchedule, domain.ErrOutOfSchedule, domain.ErrInvalidState:
		return stdhttp.StatusUnprocessableEntity
	case domain.ErrStoreUnavailable:
		return stdhttp.StatusServiceUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return stdhttp.StatusGatewayTimeout
	}
	return stdhttp.StatusInternalServerError
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(stdhttp.StatusBadRequest, name+" must be a UUID")
	}
	return id, nil
}

func bodyID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(stdhttp.StatusBadRequest, field+" must be a UUID")
	}
	return id, nil
}

func queryDate(c echo.Context, name string) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(stdhttp.StatusBadRequest, name+" is required")
	}
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(stdhttp.StatusBadRequest, name+" must be a YYYY-MM-DD date")
	}
	return d, nil
}

func queryDuration(c echo.Context) (int, error) {
	raw := c.QueryParam("duracion")
	if raw == "" {
		return 0, echo.NewHTTPError(stdhttp.StatusBadRequest, "servicioID or duracion is required")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(stdhttp.StatusBadRequest, "duracion must be a number of minutes")
	}
	return n, nil
}
