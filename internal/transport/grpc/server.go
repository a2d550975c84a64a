package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
	"barberpro/backend/internal/service/booking"
	"barberpro/backend/internal/service/schedule"
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
	ListForProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time, includeCancelled bool) ([]domain.Booking, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, from, to time.Time, includeCancelled bool) ([]domain.Booking, error)
}

type timeOffWorkflow interface {
	Submit(ctx context.Context, in timeoff.SubmitInput) (domain.TimeOffRequest, error)
	Approve(ctx context.Context, requestID, adminID uuid.UUID) (domain.TimeOffRequest, error)
	Reject(ctx context.Context, requestID, adminID uuid.UUID, reason string) (domain.TimeOffRequest, error)
	ListPending(ctx context.Context) ([]domain.TimeOffRequest, error)
	ListForProvider(ctx context.Context, providerID uuid.UUID) ([]domain.TimeOffRequest, error)
	Reactivate(ctx context.Context, providerID uuid.UUID) (domain.Provider, error)
	SetAvailability(ctx context.Context, providerID uuid.UUID, status domain.AvailabilityStatus) (domain.Provider, error)
}

type schedulePlanner interface {
	CreateBlock(ctx context.Context, in schedule.BlockInput) (domain.ScheduleBlock, error)
	DeleteBlock(ctx context.Context, blockID uuid.UUID) error
	ReassignBlock(ctx context.Context, blockID, newProviderID uuid.UUID) (domain.ScheduleBlock, error)
	Generate(ctx context.Context, in schedule.GenerateInput) (schedule.GenerateResult, error)
	ListBlocks(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]domain.ScheduleBlock, error)
	ListFreeDays(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]time.Time, error)
}

// Services groups the engine components the server fronts.
type Services struct {
	Slots    slotResolver
	Bookings bookingManager
	TimeOff  timeOffWorkflow
	Schedule schedulePlanner
}

type BookingServer struct {
	svc Services
	log *slog.Logger
}

var _ BookingEngineServer = (*BookingServer)(nil)

func NewBookingServer(svc Services, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) ResolveSlots(ctx context.Context, req *ResolveSlotsRequest) (*ResolveSlotsResponse, error) {
	log := s.log.With(slog.String("rpc", "ResolveSlots"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	var (
		slots    []domain.Interval
		duration = req.DurationMinutes
	)
	if strings.TrimSpace(req.ServiceID) != "" {
		serviceID, err := parseID("service_id", req.ServiceID)
		if err != nil {
			return nil, err
		}
		var svc domain.Service
		slots, svc, err = s.svc.Slots.ResolveForService(ctx, providerID, date, serviceID)
		if err != nil {
			return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID), slog.String("date", req.Date))
		}
		duration = svc.DurationMinutes
	} else {
		slots, err = s.svc.Slots.Resolve(ctx, providerID, date, req.DurationMinutes)
		if err != nil {
			return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID), slog.String("date", req.Date))
		}
	}

	log.Debug("slots resolved",
		slog.String("provider_id", req.ProviderID),
		slog.String("date", req.Date),
		slog.Int("duration_minutes", duration),
		slog.Int("count", len(slots)),
	)
	return &ResolveSlotsResponse{DurationMinutes: duration, Slots: toSlots(slots)}, nil
}

func (s *BookingServer) DayGrid(ctx context.Context, req *DayGridRequest) (*DayGridResponse, error) {
	log := s.log.With(slog.String("rpc", "DayGrid"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	grid, err := s.svc.Slots.DayGrid(ctx, providerID, date, req.DurationMinutes)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID), slog.String("date", req.Date))
	}
	return &DayGridResponse{Slots: toGridSlots(grid)}, nil
}

func (s *BookingServer) CommitBooking(ctx context.Context, req *CommitBookingRequest) (*BookingResponse, error) {
	log := s.log.With(slog.String("rpc", "CommitBooking"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	serviceID, err := parseID("service_id", req.ServiceID)
	if err != nil {
		return nil, err
	}
	clientID, err := parseID("client_id", req.ClientID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock("start", req.Start)
	if err != nil {
		return nil, err
	}

	b, err := s.svc.Bookings.Commit(ctx, booking.CommitInput{
		ProviderID:     providerID,
		ServiceID:      serviceID,
		ClientID:       clientID,
		Date:           date,
		Start:          start,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		return nil, s.fail(ctx, log, err,
			slog.String("provider_id", req.ProviderID),
			slog.String("client_id", req.ClientID),
			slog.String("date", req.Date),
			slog.String("start", req.Start),
		)
	}

	log.Info("booking committed",
		slog.String("booking_id", b.ID.String()),
		slog.String("provider_id", b.ProviderID.String()),
		slog.String("date", domain.FormatDate(b.Date)),
		slog.String("start", b.Start.String()),
	)
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *BookingServer) TransitionBooking(ctx context.Context, req *TransitionBookingRequest) (*BookingResponse, error) {
	log := s.log.With(slog.String("rpc", "TransitionBooking"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("booking_id", req.BookingID)
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Bookings.Transition(ctx, id, domain.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status))))
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("booking_id", req.BookingID), slog.String("status", req.Status))
	}
	log.Info("booking transitioned", slog.String("booking_id", b.ID.String()), slog.String("status", string(b.Status)))
	return &BookingResponse{Booking: toBooking(b)}, nil
}

func (s *BookingServer) ListBookings(ctx context.Context, req *ListBookingsRequest) (*ListBookingsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListBookings"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	hasProvider, hasClient := strings.TrimSpace(req.ProviderID) != "", strings.TrimSpace(req.ClientID) != ""
	if hasProvider == hasClient {
		return nil, status.Error(codes.InvalidArgument, "exactly one of provider_id or client_id is required")
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}

	var bookings []domain.Booking
	if hasProvider {
		providerID, err := parseID("provider_id", req.ProviderID)
		if err != nil {
			return nil, err
		}
		bookings, err = s.svc.Bookings.ListForProvider(ctx, providerID, from, to, req.IncludeCancelled)
		if err != nil {
			return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
		}
	} else {
		clientID, err := parseID("client_id", req.ClientID)
		if err != nil {
			return nil, err
		}
		bookings, err = s.svc.Bookings.ListForClient(ctx, clientID, from, to, req.IncludeCancelled)
		if err != nil {
			return nil, s.fail(ctx, log, err, slog.String("client_id", req.ClientID))
		}
	}
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBooking(b))
	}
	log.Debug("bookings listed", slog.String("provider_id", req.ProviderID), slog.String("client_id", req.ClientID), slog.Int("count", len(out)))
	return &ListBookingsResponse{Bookings: out}, nil
}

func (s *BookingServer) SubmitTimeOff(ctx context.Context, req *SubmitTimeOffRequest) (*TimeOffResponse, error) {
	log := s.log.With(slog.String("rpc", "SubmitTimeOff"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	r, err := s.svc.TimeOff.Submit(ctx, timeoff.SubmitInput{
		ProviderID: providerID,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
	})
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	log.Info("time-off submitted", slog.String("request_id", r.ID.String()), slog.String("provider_id", req.ProviderID))
	return &TimeOffResponse{Request: toTimeOff(r)}, nil
}

func (s *BookingServer) ApproveTimeOff(ctx context.Context, req *ApproveTimeOffRequest) (*TimeOffResponse, error) {
	log := s.log.With(slog.String("rpc", "ApproveTimeOff"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	requestID, err := parseID("request_id", req.RequestID)
	if err != nil {
		return nil, err
	}
	adminID, err := parseID("admin_id", req.AdminID)
	if err != nil {
		return nil, err
	}

	r, err := s.svc.TimeOff.Approve(ctx, requestID, adminID)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("request_id", req.RequestID))
	}
	log.Info("time-off approved", slog.String("request_id", r.ID.String()), slog.String("admin_id", req.AdminID))
	return &TimeOffResponse{Request: toTimeOff(r)}, nil
}

func (s *BookingServer) RejectTimeOff(ctx context.Context, req *RejectTimeOffRequest) (*TimeOffResponse, error) {
	log := s.log.With(slog.String("rpc", "RejectTimeOff"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	// The reason is checked before the ids.
	if strings.TrimSpace(req.Reason) == "" {
		return nil, status.Error(codes.InvalidArgument, "rejection reason is required")
	}
	requestID, err := parseID("request_id", req.RequestID)
	if err != nil {
		return nil, err
	}
	adminID, err := parseID("admin_id", req.AdminID)
	if err != nil {
		return nil, err
	}

	r, err := s.svc.TimeOff.Reject(ctx, requestID, adminID, req.Reason)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("request_id", req.RequestID))
	}
	log.Info("time-off rejected", slog.String("request_id", r.ID.String()), slog.String("admin_id", req.AdminID))
	return &TimeOffResponse{Request: toTimeOff(r)}, nil
}

func (s *BookingServer) ListPendingTimeOff(ctx context.Context, req *ListPendingTimeOffRequest) (*TimeOffListResponse, error) {
	log := s.log.With(slog.String("rpc", "ListPendingTimeOff"))

	reqs, err := s.svc.TimeOff.ListPending(ctx)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	return &TimeOffListResponse{Requests: toTimeOffList(reqs)}, nil
}

func (s *BookingServer) ListProviderTimeOff(ctx context.Context, req *ListProviderTimeOffRequest) (*TimeOffListResponse, error) {
	log := s.log.With(slog.String("rpc", "ListProviderTimeOff"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	reqs, err := s.svc.TimeOff.ListForProvider(ctx, providerID)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	return &TimeOffListResponse{Requests: toTimeOffList(reqs)}, nil
}

func (s *BookingServer) ReactivateProvider(ctx context.Context, req *ReactivateProviderRequest) (*ProviderResponse, error) {
	log := s.log.With(slog.String("rpc", "ReactivateProvider"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	p, err := s.svc.TimeOff.Reactivate(ctx, providerID)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	log.Info("provider reactivated", slog.String("provider_id", req.ProviderID))
	return &ProviderResponse{Provider: toProvider(p)}, nil
}

func (s *BookingServer) SetProviderAvailability(ctx context.Context, req *SetProviderAvailabilityRequest) (*ProviderResponse, error) {
	log := s.log.With(slog.String("rpc", "SetProviderAvailability"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	st := domain.AvailabilityStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	p, err := s.svc.TimeOff.SetAvailability(ctx, providerID, st)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID), slog.String("status", req.Status))
	}
	log.Info("provider availability set", slog.String("provider_id", req.ProviderID), slog.String("status", string(p.Status)))
	return &ProviderResponse{Provider: toProvider(p)}, nil
}

func (s *BookingServer) CreateScheduleBlock(ctx context.Context, req *CreateScheduleBlockRequest) (*ScheduleBlockResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateScheduleBlock"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := blockInput(req)
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Schedule.CreateBlock(ctx, in)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	log.Info("schedule block created", slog.String("block_id", b.ID.String()), slog.String("provider_id", req.ProviderID))
	return &ScheduleBlockResponse{Block: toScheduleBlock(b)}, nil
}

func blockInput(req *CreateScheduleBlockRequest) (schedule.BlockInput, error) {
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	from, err := parseClock("work_start", req.WorkStart)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	to, err := parseClock("work_end", req.WorkEnd)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	free, err := parseWeekdays("free_days", req.FreeDays)
	if err != nil {
		return schedule.BlockInput{}, err
	}
	return schedule.BlockInput{
		ProviderID: providerID,
		StartDate:  start,
		EndDate:    end,
		WorkStart:  from,
		WorkEnd:    to,
		FreeDays:   free,
	}, nil
}

func (s *BookingServer) DeleteScheduleBlock(ctx context.Context, req *DeleteScheduleBlockRequest) (*DeleteScheduleBlockResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteScheduleBlock"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := parseID("block_id", req.BlockID)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Schedule.DeleteBlock(ctx, id); err != nil {
		return nil, s.fail(ctx, log, err, slog.String("block_id", req.BlockID))
	}
	log.Info("schedule block deleted", slog.String("block_id", req.BlockID))
	return &DeleteScheduleBlockResponse{}, nil
}

func (s *BookingServer) ReassignScheduleBlock(ctx context.Context, req *ReassignScheduleBlockRequest) (*ScheduleBlockResponse, error) {
	log := s.log.With(slog.String("rpc", "ReassignScheduleBlock"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	blockID, err := parseID("block_id", req.BlockID)
	if err != nil {
		return nil, err
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	b, err := s.svc.Schedule.ReassignBlock(ctx, blockID, providerID)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("block_id", req.BlockID), slog.String("provider_id", req.ProviderID))
	}
	log.Info("schedule block reassigned", slog.String("block_id", req.BlockID), slog.String("provider_id", req.ProviderID))
	return &ScheduleBlockResponse{Block: toScheduleBlock(b)}, nil
}

func (s *BookingServer) GenerateSchedule(ctx context.Context, req *GenerateScheduleRequest) (*GenerateScheduleResponse, error) {
	log := s.log.With(slog.String("rpc", "GenerateSchedule"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	in, err := blockInput(&CreateScheduleBlockRequest{
		ProviderID: req.ProviderID,
		StartDate:  req.From,
		EndDate:    req.To,
		WorkStart:  req.WorkStart,
		WorkEnd:    req.WorkEnd,
		FreeDays:   req.FreeDays,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Schedule.Generate(ctx, schedule.GenerateInput{
		ProviderID:      in.ProviderID,
		From:            in.StartDate,
		To:              in.EndDate,
		WorkStart:       in.WorkStart,
		WorkEnd:         in.WorkEnd,
		FreeDays:        in.FreeDays,
		ReplaceExisting: req.ReplaceExisting,
	})
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID), slog.String("from", req.From), slog.String("to", req.To))
	}

	skipped := make([]string, 0, len(res.Skipped))
	for _, d := range res.Skipped {
		skipped = append(skipped, domain.FormatDate(d))
	}
	log.Info("schedule generated",
		slog.String("provider_id", req.ProviderID),
		slog.Int("created", len(res.Created)),
		slog.Int("skipped", len(skipped)),
	)
	return &GenerateScheduleResponse{
		Created:  toScheduleBlocks(res.Created),
		Skipped:  skipped,
		Warnings: res.Warnings,
	}, nil
}

func (s *BookingServer) ListScheduleBlocks(ctx context.Context, req *ListScheduleBlocksRequest) (*ListScheduleBlocksResponse, error) {
	log := s.log.With(slog.String("rpc", "ListScheduleBlocks"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	blocks, err := s.svc.Schedule.ListBlocks(ctx, providerID, from, to)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	return &ListScheduleBlocksResponse{Blocks: toScheduleBlocks(blocks)}, nil
}

func (s *BookingServer) ListFreeDays(ctx context.Context, req *ListFreeDaysRequest) (*ListFreeDaysResponse, error) {
	log := s.log.With(slog.String("rpc", "ListFreeDays"))

	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	providerID, err := parseID("provider_id", req.ProviderID)
	if err != nil {
		return nil, err
	}
	from, err := parseDate("from", req.From)
	if err != nil {
		return nil, err
	}
	to, err := parseDate("to", req.To)
	if err != nil {
		return nil, err
	}
	days, err := s.svc.Schedule.ListFreeDays(ctx, providerID, from, to)
	if err != nil {
		return nil, s.fail(ctx, log, err, slog.String("provider_id", req.ProviderID))
	}
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, domain.FormatDate(d))
	}
	return &ListFreeDaysResponse{Days: out}, nil
}

// fail logs err at a level matching its kind and converts it to a status.
func (s *BookingServer) fail(ctx context.Context, log *slog.Logger, err error, attrs ...any) error {
	code := CodeOf(err)
	args := append([]any{slog.Any("err", err), slog.String("code", code.String())}, attrs...)
	switch code {
	case codes.InvalidArgument:
		log.WarnContext(ctx, "invalid request", args...)
	case codes.Internal, codes.Unavailable:
		log.ErrorContext(ctx, "request failed", args...)
	default:
		log.InfoContext(ctx, "request refused", args...)
	}

	switch code {
	case codes.Internal:
		return status.Error(code, "internal error")
	case codes.Unavailable:
		return status.Error(code, "storage temporarily unavailable, retry later")
	}
	return status.Error(code, err.Error())
}

// CodeOf maps an engine error to its gRPC code.
func CodeOf(err error) codes.Code {
	switch domain.KindOf(err) {
	case domain.ErrInvalidArgument:
		return codes.InvalidArgument
	case domain.ErrNotFound:
		return codes.NotFound
	case domain.ErrConflict:
		return codes.Aborted
	case domain.ErrSlotTaken:
		return codes.AlreadyExists
	case domain.ErrUnavailable, domain.ErrNoSchedule, domain.ErrOutOfSchedule, domain.ErrInvalidState:
		return codes.FailedPrecondition
	case domain.ErrStoreUnavailable:
		return codes.Unavailable
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}
	return codes.Internal
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
