package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/intranet-portal/internal/application"
)

type bookingService interface {
	ListAppointments(ctx context.Context, principal application.Principal, roomID, date string) ([]application.Appointment, error)
	BookSlots(ctx context.Context, params application.BookSlotsParams) (application.BookSlotsResult, error)
	UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, error)
	DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID string) error
	DayView(ctx context.Context, principal application.Principal, roomID, date string) (application.DayView, error)
	WeekView(ctx context.Context, principal application.Principal, roomID string, offset int) (application.WeekView, error)
}

// AppointmentHandler serves room agendas and slot bookings.
type AppointmentHandler struct {
	service   bookingService
	responder responder
	logger    *slog.Logger
}

func NewAppointmentHandler(service bookingService, logger *slog.Logger) *AppointmentHandler {
	base := defaultLogger(logger)
	return &AppointmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AppointmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AppointmentHandler", operation, attrs...)
}

func (h *AppointmentHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	roomID := r.PathValue("id")
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "room_id", roomID, "date", date)

	appointments, err := h.service.ListAppointments(r.Context(), principal, roomID, date)
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]appointmentDTO, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, toAppointmentDTO(a))
	}
	logger.With("result_count", len(out)).InfoContext(r.Context(), "appointments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAppointmentsResponse{Appointments: out})
}

// Book writes every requested slot independently. The response is 201 when
// at least one slot was booked and always lists the failed slots.
func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	roomID := r.PathValue("id")

	var req bookSlotsRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.log(r.Context(), "Book", "principal_id", principal.UserID, "room_id", roomID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "Book", "principal_id", principal.UserID, "room_id", roomID, "date", req.Date)

	result, err := h.service.BookSlots(r.Context(), application.BookSlotsParams{
		Principal:    principal,
		RoomID:       roomID,
		Date:         strings.TrimSpace(req.Date),
		Times:        req.Times,
		Subject:      strings.TrimSpace(req.Subject),
		Participants: req.Participants,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := bookSlotsResponse{
		Booked:      make([]appointmentDTO, 0, len(result.Booked)),
		Failed:      make([]slotFailureDTO, 0, len(result.Failed)),
		Overwritten: make([]slotOverwriteDTO, 0, len(result.Overwritten)),
	}
	for _, o := range result.Overwritten {
		resp.Overwritten = append(resp.Overwritten, slotOverwriteDTO{Time: o.Time, AppointmentID: o.AppointmentID, PreviousOwnerID: o.PreviousOwnerID})
	}
	for _, a := range result.Booked {
		resp.Booked = append(resp.Booked, toAppointmentDTO(a))
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, slotFailureDTO{
			Time:      f.Time,
			ErrorKind: application.ErrorKind(f.Err),
			Message:   slotFailureMessage(f.Err),
		})
	}

	status := http.StatusCreated
	if len(resp.Booked) == 0 {
		status = http.StatusUnprocessableEntity
		for _, f := range resp.Failed {
			if f.ErrorKind == "slot_taken" {
				status = http.StatusConflict
				break
			}
		}
	}
	logger.With("booked", len(resp.Booked), "failed", len(resp.Failed)).InfoContext(r.Context(), "slots booked")
	h.responder.writeJSON(r.Context(), w, status, resp)
}

func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req updateAppointmentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "appointment_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode appointment update", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "appointment_id", id)

	appointment, err := h.service.UpdateAppointment(r.Context(), application.UpdateAppointmentParams{
		Principal:     principal,
		AppointmentID: id,
		Subject:       req.Subject,
		Participants:  req.Participants,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "appointment update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "appointment updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, appointmentResponse{Appointment: toAppointmentDTO(appointment)})
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "appointment_id", id)

	if err := h.service.DeleteAppointment(r.Context(), principal, id); err != nil {
		logger.ErrorContext(r.Context(), "appointment delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "appointment deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *AppointmentHandler) Day(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	roomID, date := r.PathValue("id"), r.PathValue("date")

	view, err := h.service.DayView(r.Context(), principal, roomID, date)
	if err != nil {
		h.log(r.Context(), "Day", "room_id", roomID, "date", date).ErrorContext(r.Context(), "day view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := dayViewResponse{
		Room:   toRoomDTO(view.Room),
		Date:   view.Date,
		Closed: view.Closed,
		Slots:  make([]slotDTO, 0, len(view.Slots)),
	}
	for _, slot := range view.Slots {
		dto := slotDTO{Time: slot.Time, Past: slot.Past, Closed: slot.Closed, Bookable: slot.Bookable}
		if slot.Booking != nil {
			dto.Appointment = ptr(toAppointmentDTO(*slot.Booking))
		}
		resp.Slots = append(resp.Slots, dto)
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *AppointmentHandler) Week(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	roomID := r.PathValue("id")

	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{"offset": "has an invalid value"}})
			return
		}
		offset = parsed
	}

	view, err := h.service.WeekView(r.Context(), principal, roomID, offset)
	if err != nil {
		h.log(r.Context(), "Week", "room_id", roomID, "offset", offset).ErrorContext(r.Context(), "week view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := weekViewResponse{Room: toRoomDTO(view.Room), Offset: view.Offset, Days: make([]weekDayDTO, 0, len(view.Days))}
	for _, d := range view.Days {
		resp.Days = append(resp.Days, weekDayDTO{
			Date:        d.Date,
			Weekday:     int(d.Weekday),
			Closed:      d.Closed,
			IsToday:     d.IsToday,
			BookedSlots: d.BookedSlots,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func slotFailureMessage(err error) string {
	switch application.ErrorKind(err) {
	case "slot_taken":
		return "Este horário já foi reservado."
	case "validation":
		return localizedStatusMessage(http.StatusUnprocessableEntity)
	case "unauthorized":
		return localizedStatusMessage(http.StatusForbidden)
	default:
		return genericErrorMessage
	}
}

type bookSlotsRequest struct {
	Date         string   `json:"date" validate:"required"`
	Times        []string `json:"times" validate:"required,min=1"`
	Subject      string   `json:"subject" validate:"required"`
	Participants []string `json:"participants"`
}

type updateAppointmentRequest struct {
	Subject      *string   `json:"subject"`
	Participants *[]string `json:"participants"`
}

type appointmentDTO struct {
	ID           string   `json:"id"`
	RoomID       string   `json:"roomId"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Subject      string   `json:"subject"`
	UserID       string   `json:"userId"`
	UserName     string   `json:"userName"`
	Participants []string `json:"participants"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt,omitempty"`
}

func toAppointmentDTO(a application.Appointment) appointmentDTO {
	participants := a.Participants
	if participants == nil {
		participants = []string{}
	}
	return appointmentDTO{
		ID:           a.ID,
		RoomID:       a.RoomID,
		Date:         a.Date,
		Time:         a.Time,
		Subject:      a.Subject,
		UserID:       a.UserID,
		UserName:     a.UserName,
		Participants: participants,
		CreatedAt:    formatTime(a.CreatedAt),
		UpdatedAt:    formatTime(a.UpdatedAt),
	}
}

type appointmentResponse struct {
	Appointment appointmentDTO `json:"appointment"`
}

type listAppointmentsResponse struct {
	Appointments []appointmentDTO `json:"appointments"`
}

type slotFailureDTO struct {
	Time      string `json:"time"`
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

type slotOverwriteDTO struct {
	Time            string `json:"time"`
	AppointmentID   string `json:"appointmentId"`
	PreviousOwnerID string `json:"previousOwnerId"`
}

type bookSlotsResponse struct {
	Booked      []appointmentDTO   `json:"booked"`
	Failed      []slotFailureDTO   `json:"failed"`
	Overwritten []slotOverwriteDTO `json:"overwritten"`
}

type slotDTO struct {
	Time        string          `json:"time"`
	Appointment *appointmentDTO `json:"appointment,omitempty"`
	Past        bool            `json:"past"`
	Closed      bool            `json:"closed"`
	Bookable    bool            `json:"bookable"`
}

type dayViewResponse struct {
	Room   roomDTO   `json:"room"`
	Date   string    `json:"date"`
	Closed bool      `json:"closed"`
	Slots  []slotDTO `json:"slots"`
}

type weekDayDTO struct {
	Date        string `json:"date"`
	Weekday     int    `json:"weekday"`
	Closed      bool   `json:"closed"`
	IsToday     bool   `json:"isToday"`
	BookedSlots int    `json:"bookedSlots"`
}

type weekViewResponse struct {
	Room   roomDTO      `json:"room"`
	Offset int          `json:"offset"`
	Days   []weekDayDTO `json:"days"`
}
