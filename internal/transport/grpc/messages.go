package grpc

import "google.golang.org/protobuf/types/known/timestamppb"

// Dates travel as YYYY-MM-DD and clock times as HH:MM.

type Slot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type GridSlot struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

type ResolveSlotsRequest struct {
	ProviderID      string `json:"provider_id"`
	Date            string `json:"date"`
	ServiceID       string `json:"service_id,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
}

type ResolveSlotsResponse struct {
	DurationMinutes int    `json:"duration_minutes"`
	Slots           []Slot `json:"slots"`
}

type DayGridRequest struct {
	ProviderID      string `json:"provider_id"`
	Date            string `json:"date"`
	DurationMinutes int    `json:"duration_minutes"`
}

type DayGridResponse struct {
	Slots []GridSlot `json:"slots"`
}

type Booking struct {
	ID         string                 `json:"id"`
	ProviderID string                 `json:"provider_id"`
	ServiceID  string                 `json:"service_id"`
	ClientID   string                 `json:"client_id"`
	Date       string                 `json:"date"`
	Start      string                 `json:"start"`
	End        string                 `json:"end"`
	Status     string                 `json:"status"`
	CreatedAt  *timestamppb.Timestamp `json:"created_at,omitempty"`
	UpdatedAt  *timestamppb.Timestamp `json:"updated_at,omitempty"`
}

type CommitBookingRequest struct {
	ProviderID string `json:"provider_id"`
	ServiceID  string `json:"service_id"`
	ClientID   string `json:"client_id"`
	Date       string `json:"date"`
	Start      string `json:"start"`
}

type BookingResponse struct {
	Booking *Booking `json:"booking"`
}

type TransitionBookingRequest struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// ListBookingsRequest selects by provider or by client; exactly one is set.
type ListBookingsRequest struct {
	ProviderID       string `json:"provider_id,omitempty"`
	ClientID         string `json:"client_id,omitempty"`
	From             string `json:"from"`
	To               string `json:"to"`
	IncludeCancelled bool   `json:"include_cancelled,omitempty"`
}

type ListBookingsResponse struct {
	Bookings []*Booking `json:"bookings"`
}

type TimeOff struct {
	ID                string                 `json:"id"`
	ProviderID        string                 `json:"provider_id"`
	StartDate         string                 `json:"start_date"`
	EndDate           string                 `json:"end_date"`
	Reason            string                 `json:"reason"`
	Status            string                 `json:"status"`
	RequestedAt       *timestamppb.Timestamp `json:"requested_at,omitempty"`
	RespondedAt       *timestamppb.Timestamp `json:"responded_at,omitempty"`
	RespondingAdminID string                 `json:"responding_admin_id,omitempty"`
	RejectionReason   string                 `json:"rejection_reason,omitempty"`
}

type SubmitTimeOffRequest struct {
	ProviderID string `json:"provider_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

type ApproveTimeOffRequest struct {
	RequestID string `json:"request_id"`
	AdminID   string `json:"admin_id"`
}

type RejectTimeOffRequest struct {
	RequestID string `json:"request_id"`
	AdminID   string `json:"admin_id"`
	Reason    string `json:"reason"`
}

type TimeOffResponse struct {
	Request *TimeOff `json:"request"`
}

type ListPendingTimeOffRequest struct{}

type ListProviderTimeOffRequest struct {
	ProviderID string `json:"provider_id"`
}

type TimeOffListResponse struct {
	Requests []*TimeOff `json:"requests"`
}

type Provider struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
}

type ReactivateProviderRequest struct {
	ProviderID string `json:"provider_id"`
}

type SetProviderAvailabilityRequest struct {
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

type ProviderResponse struct {
	Provider *Provider `json:"provider"`
}

type ScheduleBlock struct {
	ID         string   `json:"id"`
	ProviderID string   `json:"provider_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	WorkStart  string   `json:"work_start"`
	WorkEnd    string   `json:"work_end"`
	FreeDays   []string `json:"free_days,omitempty"`
}

type CreateScheduleBlockRequest struct {
	ProviderID string   `json:"provider_id"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	WorkStart  string   `json:"work_start"`
	WorkEnd    string   `json:"work_end"`
	FreeDays   []string `json:"free_days,omitempty"`
}

type ScheduleBlockResponse struct {
	Block *ScheduleBlock `json:"block"`
}

type DeleteScheduleBlockRequest struct {
	BlockID string `json:"block_id"`
}

type DeleteScheduleBlockResponse struct{}

type ReassignScheduleBlockRequest struct {
	BlockID    string `json:"block_id"`
	ProviderID string `json:"provider_id"`
}

type GenerateScheduleRequest struct {
	ProviderID      string   `json:"provider_id"`
	From            string   `json:"from"`
	To              string   `json:"to"`
	WorkStart       string   `json:"work_start"`
	WorkEnd         string   `json:"work_end"`
	FreeDays        []string `json:"free_days,omitempty"`
	ReplaceExisting bool     `json:"replace_existing,omitempty"`
}

type GenerateScheduleResponse struct {
	Created  []*ScheduleBlock `json:"created"`
	Skipped  []string         `json:"skipped"`
	Warnings []string         `json:"warnings,omitempty"`
}

type ListScheduleBlocksRequest struct {
	ProviderID string `json:"provider_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type ListScheduleBlocksResponse struct {
	Blocks []*ScheduleBlock `json:"blocks"`
}

type ListFreeDaysRequest struct {
	ProviderID string `json:"provider_id"`
	From       string `json:"from"`
	To         string `json:"to"`
}

type ListFreeDaysResponse struct {
	// Days are YYYY-MM-DD, ascending.
	Days []string `json:"days"`
}
