package grpc

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
)

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, status.Error(codes.InvalidArgument, field+" must be a UUID")
	}
	return id, nil
}

func parseDate(field, raw string) (time.Time, error) {
	d, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, status.Error(codes.InvalidArgument, field+" must be a YYYY-MM-DD date")
	}
	return d, nil
}

func parseClock(field, raw string) (domain.ClockTime, error) {
	c, err := domain.ParseClockTime(raw)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, field+" must be an HH:MM time")
	}
	return c, nil
}

func parseWeekdays(field string, names []string) (domain.WeekdaySet, error) {
	s, err := domain.ParseWeekdaySet(names)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, field+": "+err.Error())
	}
	return s, nil
}

func toSlots(in []domain.Interval) []Slot {
	out := make([]Slot, 0, len(in))
	for _, s := range in {
		out = append(out, Slot{Start: s.Start.String(), End: s.End.String()})
	}
	return out
}

func toGridSlots(in []availability.GridSlot) []GridSlot {
	out := make([]GridSlot, 0, len(in))
	for _, s := range in {
		out = append(out, GridSlot{Start: s.Start.String(), End: s.End.String(), Available: s.Available})
	}
	return out
}

func toBooking(b domain.Booking) *Booking {
	return &Booking{
		ID:         b.ID.String(),
		ProviderID: b.ProviderID.String(),
		ServiceID:  b.ServiceID.String(),
		ClientID:   b.ClientID.String(),
		Date:       domain.FormatDate(b.Date),
		Start:      b.Start.String(),
		End:        b.End.String(),
		Status:     string(b.Status),
		CreatedAt:  timestamppb.New(b.CreatedAt),
		UpdatedAt:  timestamppb.New(b.UpdatedAt),
	}
}

func toTimeOff(r domain.TimeOffRequest) *TimeOff {
	out := &TimeOff{
		ID:          r.ID.String(),
		ProviderID:  r.ProviderID.String(),
		StartDate:   domain.FormatDate(r.StartDate),
		EndDate:     domain.FormatDate(r.EndDate),
		Reason:      r.Reason,
		Status:      string(r.Status),
		RequestedAt: timestamppb.New(r.RequestedAt),
	}
	if r.RespondedAt != nil {
		out.RespondedAt = timestamppb.New(*r.RespondedAt)
	}
	if r.RespondingAdminID != nil {
		out.RespondingAdminID = r.RespondingAdminID.String()
	}
	if r.RejectionReason != nil {
		out.RejectionReason = *r.RejectionReason
	}
	return out
}

func toTimeOffList(in []domain.TimeOffRequest) []*TimeOff {
	out := make([]*TimeOff, 0, len(in))
	for _, r := range in {
		out = append(out, toTimeOff(r))
	}
	return out
}

func toProvider(p domain.Provider) *Provider {
	return &Provider{ID: p.ID.String(), DisplayName: p.DisplayName, Status: string(p.Status)}
}

func toScheduleBlock(b domain.ScheduleBlock) *ScheduleBlock {
	return &ScheduleBlock{
		ID:         b.ID.String(),
		ProviderID: b.ProviderID.String(),
		StartDate:  domain.FormatDate(b.StartDate),
		EndDate:    domain.FormatDate(b.EndDate),
		WorkStart:  b.WorkStart.String(),
		WorkEnd:    b.WorkEnd.String(),
		FreeDays:   b.FreeDays.Names(),
	}
}

func toScheduleBlocks(in []domain.ScheduleBlock) []*ScheduleBlock {
	out := make([]*ScheduleBlock, 0, len(in))
	for _, b := range in {
		out = append(out, toScheduleBlock(b))
	}
	return out
}
