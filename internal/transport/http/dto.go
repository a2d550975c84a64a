package http

import (
	"time"

	"barberpro/backend/internal/domain"
	"barberpro/backend/internal/service/availability"
)

// JSON field names follow the front-end's existing contract.

type slotDTO struct {
	Start string `json:"horaInicio"`
	End   string `json:"horaFin"`
}

type gridSlotDTO struct {
	Start     string `json:"horaInicio"`
	End       string `json:"horaFin"`
	Available bool   `json:"disponible"`
}

type slotsResponse struct {
	ProviderID string    `json:"barberoID"`
	Date       string    `json:"fecha"`
	Duration   int       `json:"duracion"`
	Slots      []slotDTO `json:"slots"`
}

type dayGridResponse struct {
	ProviderID string        `json:"barberoID"`
	Date       string        `json:"fecha"`
	Slots      []gridSlotDTO `json:"slots"`
}

type bookingDTO struct {
	ID         string    `json:"id"`
	ProviderID string    `json:"barberoID"`
	ServiceID  string    `json:"servicioID"`
	ClientID   string    `json:"clienteID"`
	Date       string    `json:"fecha"`
	Start      string    `json:"horaInicio"`
	End        string    `json:"horaFin"`
	Status     string    `json:"estado"`
	CreatedAt  time.Time `json:"creadoEn"`
}

type commitRequest struct {
	ProviderID string `json:"barberoID"`
	ServiceID  string `json:"servicioID"`
	ClientID   string `json:"clienteID"`
	Date       string `json:"fecha"`
	Start      string `json:"horaInicio"`
}

type transitionRequest struct {
	Status string `json:"estado"`
}

type timeOffDTO struct {
	ID              string     `json:"id"`
	ProviderID      string     `json:"barberoID"`
	StartDate       string     `json:"fechaInicio"`
	EndDate         string     `json:"fechaFin"`
	Reason          string     `json:"motivo"`
	Status          string     `json:"estado"`
	RequestedAt     time.Time  `json:"fechaSolicitud"`
	RespondedAt     *time.Time `json:"fechaRespuesta,omitempty"`
	AdminID         string     `json:"adminID,omitempty"`
	RejectionReason string     `json:"motivoRechazo,omitempty"`
}

type submitTimeOffRequest struct {
	ProviderID string `json:"barberoID"`
	StartDate  string `json:"fechaInicio"`
	EndDate    string `json:"fechaFin"`
	Reason     string `json:"motivo"`
}

type respondTimeOffRequest struct {
	AdminID string `json:"adminID"`
	Reason  string `json:"motivo,omitempty"`
}

type providerDTO struct {
	ID        string `json:"id"`
	Name      string `json:"nombre"`
	Status    string `json:"estado"`
	Available bool   `json:"disponible"`
}

func toSlotDTOs(in []domain.Interval) []slotDTO {
	out := make([]slotDTO, 0, len(in))
	for _, s := range in {
		out = append(out, slotDTO{Start: s.Start.String(), End: s.End.String()})
	}
	return out
}

func toGridSlotDTOs(in []availability.GridSlot) []gridSlotDTO {
	out := make([]gridSlotDTO, 0, len(in))
	for _, s := range in {
		out = append(out, gridSlotDTO{Start: s.Start.String(), End: s.End.String(), Available: s.Available})
	}
	return out
}

func toBookingDTO(b domain.Booking) bookingDTO {
	return bookingDTO{
		ID:         b.ID.String(),
		ProviderID: b.ProviderID.String(),
		ServiceID:  b.ServiceID.String(),
		ClientID:   b.ClientID.String(),
		Date:       domain.FormatDate(b.Date),
		Start:      b.Start.String(),
		End:        b.End.String(),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	}
}

func toTimeOffDTO(r domain.TimeOffRequest) timeOffDTO {
	out := timeOffDTO{
		ID:          r.ID.String(),
		ProviderID:  r.ProviderID.String(),
		StartDate:   domain.FormatDate(r.StartDate),
		EndDate:     domain.FormatDate(r.EndDate),
		Reason:      r.Reason,
		Status:      string(r.Status),
		RequestedAt: r.RequestedAt,
		RespondedAt: r.RespondedAt,
	}
	if r.RespondingAdminID != nil {
		out.AdminID = r.RespondingAdminID.String()
	}
	if r.RejectionReason != nil {
		out.RejectionReason = *r.RejectionReason
	}
	return out
}

func toProviderDTO(p domain.Provider) providerDTO {
	return providerDTO{
		ID:        p.ID.String(),
		Name:      p.DisplayName,
		Status:    string(p.Status),
		Available: p.Status == domain.ProviderAvailable,
	}
}
