package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
	"github.com/example/intranet-portal/internal/scheduler"
)

// AppointmentRepository stores slot reservations keyed by slot key.
type AppointmentRepository interface {
	UpsertAppointment(ctx context.Context, appointment Appointment) error
	InsertAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointmentDetails(ctx context.Context, id, subject string, participants []string, updatedAt time.Time) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointmentsByRoom(ctx context.Context, roomID string) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// RoomReader resolves rooms for booking.
type RoomReader interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// BookingWriteMode selects the slot write primitive.
type BookingWriteMode string

const (
	// BookingOverwrite replaces whatever booking holds the slot key. Two
	// concurrent writers both succeed and the last one wins.
	BookingOverwrite BookingWriteMode = "overwrite"
	// BookingInsertIfAbsent rejects the second writer with ErrSlotTaken.
	BookingInsertIfAbsent BookingWriteMode = "insert_if_absent"
)

// BookingOptions tunes a BookingService.
type BookingOptions struct {
	Mode     BookingWriteMode
	Location *time.Location
	Metrics  Metrics
	Logger   *slog.Logger
}

// BookingService books meeting room slots.
type BookingService struct {
	rooms        RoomReader
	appointments AppointmentRepository
	notifier     Notifier
	now          func() time.Time
	mode         BookingWriteMode
	location     *time.Location
	metrics      Metrics
	logger       *slog.Logger
}

// NewBookingService constructs a booking service in overwrite mode.
func NewBookingService(rooms RoomReader, appointments AppointmentRepository, notifier Notifier, now func() time.Time) *BookingService {
	return NewBookingServiceWithOptions(rooms, appointments, notifier, now, BookingOptions{})
}

// NewBookingServiceWithOptions constructs a booking service with explicit options.
func NewBookingServiceWithOptions(rooms RoomReader, appointments AppointmentRepository, notifier Notifier, now func() time.Time, opts BookingOptions) *BookingService {
	if now == nil {
		now = time.Now
	}
	if opts.Mode == "" {
		opts.Mode = BookingOverwrite
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &BookingService{
		rooms:        rooms,
		appointments: appointments,
		notifier:     defaultNotifier(notifier),
		now:          now,
		mode:         opts.Mode,
		location:     opts.Location,
		metrics:      defaultMetrics(opts.Metrics),
		logger:       defaultLogger(opts.Logger),
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation, attrs...)
}

func (s *BookingService) ready() error {
	if s == nil {
		return fmt.Errorf("BookingService is nil")
	}
	if s.rooms == nil || s.appointments == nil {
		return fmt.Errorf("booking repositories not configured")
	}
	return nil
}

// ListAppointments returns the appointments of a room ordered by date and
// time. An empty date returns every date.
func (s *BookingService) ListAppointments(ctx context.Context, principal Principal, roomID, date string) (appointments []Appointment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListAppointments", "principal_id", principal.UserID, "room_id", roomID, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list appointments", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(appointments)).InfoContext(ctx, "appointments listed")
	}()

	var all []Appointment
	all, err = s.appointments.ListAppointmentsByRoom(ctx, strings.TrimSpace(roomID))
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	date = strings.TrimSpace(date)
	appointments = make([]Appointment, 0, len(all))
	for _, a := range all {
		if date == "" || a.Date == date {
			appointments = append(appointments, a)
		}
	}
	sortAppointments(appointments)
	return
}

// CreateAppointment books a single slot.
func (s *BookingService) CreateAppointment(ctx context.Context, params CreateAppointmentParams) (appointment Appointment, err error) {
	var result BookSlotsResult
	result, err = s.BookSlots(ctx, BookSlotsParams{
		Principal:    params.Principal,
		RoomID:       params.RoomID,
		Date:         params.Date,
		Times:        []string{params.Time},
		Subject:      params.Subject,
		Participants: params.Participants,
	})
	if err != nil {
		return
	}
	appointment = result.Booked[0]
	return
}

// BookSlots writes one appointment per requested slot. Slots are written
// independently: a failed slot is reported in the result and earlier writes
// stay. When no slot could be written the first failure is returned.
func (s *BookingService) BookSlots(ctx context.Context, params BookSlotsParams) (result BookSlotsResult, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "BookSlots",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
		"date", params.Date,
		"requested_slots", len(params.Times),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book slots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booked", len(result.Booked), "failed", len(result.Failed), "overwritten", len(result.Overwritten)).InfoContext(ctx, "slots booked")
	}()

	if !params.Principal.Can(CapAppointmentsBook) {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		vErr.add("subject", "subject is required")
	}
	times := scheduler.NormalizeSlots(params.Times)
	if len(times) == 0 {
		vErr.add("times", "at least one slot is required")
	}
	date, dateErr := scheduler.ParseDate(params.Date, s.location)
	if dateErr != nil {
		vErr.add("date", "date must be YYYY-MM-DD")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, strings.TrimSpace(params.RoomID))
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	now := s.now().In(s.location)
	open := make(map[string]bool)
	for _, slot := range scheduler.AvailableSlots(room.Hours(), date) {
		open[slot] = true
	}
	participants := normalizeList(params.Participants)
	dateKey := date.Format(scheduler.DateLayout)
	held := s.heldSlots(ctx, logger, room.ID, dateKey, times)

	for _, slot := range times {
		if !open[slot] {
			result.Failed = append(result.Failed, SlotFailure{Time: slot, Err: newValidationError("time", "slot is outside the room operating hours")})
			continue
		}
		if scheduler.IsPast(date, slot, now) {
			result.Failed = append(result.Failed, SlotFailure{Time: slot, Err: newValidationError("time", "slot has already ended")})
			continue
		}

		appointment := Appointment{
			ID:           scheduler.SlotKey(room.ID, dateKey, slot),
			RoomID:       room.ID,
			Date:         dateKey,
			Time:         slot,
			Subject:      subject,
			UserID:       params.Principal.UserID,
			UserName:     params.Principal.Name,
			Participants: participants,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if writeErr := s.write(ctx, appointment); writeErr != nil {
			result.Failed = append(result.Failed, SlotFailure{Time: slot, Err: writeErr})
			continue
		}
		result.Booked = append(result.Booked, appointment)
		if previous, ok := held[slot]; ok {
			result.Overwritten = append(result.Overwritten, SlotOverwrite{Time: slot, AppointmentID: previous.WithKey, PreviousOwnerID: previous.OwnerID})
		}
	}
	if len(result.Overwritten) > 0 {
		logger.WarnContext(ctx, "booking replaced existing appointments", "overwritten", len(result.Overwritten))
	}

	if len(result.Booked) == 0 {
		err = result.Failed[0].Err
		return
	}

	s.notifier.Notify(ctx, NotifyParams{
		Recipients: []string{params.Principal.UserID},
		Kind:       notification.KindBookingCreated,
		Params: notification.Params{
			Room:  room.Name,
			Date:  date.Format("02/01/2006"),
			Time:  result.Booked[0].Time,
			Slots: len(result.Booked),
		},
		Link: "/rooms/" + room.ID + "?date=" + dateKey,
	})
	return
}

// heldSlots returns the requested slots another appointment already holds.
// Insert mode rejects those writes itself, so only overwrite mode looks.
// A failed lookup only loses the report, never the booking.
func (s *BookingService) heldSlots(ctx context.Context, logger *slog.Logger, roomID, date string, times []string) map[string]scheduler.Conflict {
	if s.mode == BookingInsertIfAbsent {
		return nil
	}
	existing, err := s.appointments.ListAppointmentsByRoom(ctx, roomID)
	if err != nil {
		logger.WarnContext(ctx, "failed to load existing appointments", "error", err)
		return nil
	}
	reservations := make([]scheduler.Reservation, 0, len(existing))
	for _, a := range existing {
		if a.Date == date {
			reservations = append(reservations, scheduler.Reservation{Key: a.ID, Time: a.Time, OwnerID: a.UserID})
		}
	}
	conflicts := scheduler.DetectConflicts(reservations, times)
	held := make(map[string]scheduler.Conflict, len(conflicts))
	for _, c := range conflicts {
		held[c.Time] = c
	}
	return held
}

func (s *BookingService) write(ctx context.Context, appointment Appointment) error {
	var err error
	switch s.mode {
	case BookingInsertIfAbsent:
		err = s.appointments.InsertAppointment(ctx, appointment)
	default:
		err = s.appointments.UpsertAppointment(ctx, appointment)
	}
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) || errors.Is(err, ErrAlreadyExists) {
			s.metrics.BookingWritten("conflict")
			return ErrSlotTaken
		}
		s.metrics.BookingWritten("failed")
		return mapAppointmentRepoError(err)
	}
	s.metrics.BookingWritten("written")
	return nil
}

// UpdateAppointment changes subject and participants of an appointment.
func (s *BookingService) UpdateAppointment(ctx context.Context, params UpdateAppointmentParams) (appointment Appointment, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateAppointment",
		"principal_id", params.Principal.UserID,
		"appointment_id", params.AppointmentID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment updated")
	}()

	appointment, err = s.appointments.GetAppointment(ctx, strings.TrimSpace(params.AppointmentID))
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}
	if !canManageAppointment(params.Principal, appointment) {
		err = ErrUnauthorized
		return
	}

	if params.Subject != nil {
		subject := strings.TrimSpace(*params.Subject)
		if subject == "" {
			err = newValidationError("subject", "subject is required")
			return
		}
		appointment.Subject = subject
	}
	if params.Participants != nil {
		appointment.Participants = normalizeList(*params.Participants)
	}
	appointment.UpdatedAt = s.now()

	if err = s.appointments.UpdateAppointmentDetails(ctx, appointment.ID, appointment.Subject, appointment.Participants, appointment.UpdatedAt); err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	s.notifyOwner(ctx, params.Principal, appointment, notification.KindBookingChanged)
	return
}

// DeleteAppointment frees a slot.
func (s *BookingService) DeleteAppointment(ctx context.Context, principal Principal, appointmentID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "DeleteAppointment", "principal_id", principal.UserID, "appointment_id", appointmentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete appointment", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "appointment deleted")
	}()

	var appointment Appointment
	appointment, err = s.appointments.GetAppointment(ctx, strings.TrimSpace(appointmentID))
	if err != nil {
		err = mapAppointmentRepoError(err)
		return
	}
	if !canManageAppointment(principal, appointment) {
		err = ErrUnauthorized
		return
	}
	if err = s.appointments.DeleteAppointment(ctx, appointment.ID); err != nil {
		err = mapAppointmentRepoError(err)
		return
	}

	s.notifyOwner(ctx, principal, appointment, notification.KindBookingCancelled)
	return
}

// DayView lays a room's bookings over its slots for one date.
func (s *BookingService) DayView(ctx context.Context, principal Principal, roomID, date string) (view DayView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "DayView", "principal_id", principal.UserID, "room_id", roomID, "date", date)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build day view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	day, parseErr := scheduler.ParseDate(date, s.location)
	if parseErr != nil {
		err = newValidationError("date", "date must be YYYY-MM-DD")
		return
	}

	view.Room, err = s.rooms.GetRoom(ctx, strings.TrimSpace(roomID))
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	var appointments []Appointment
	appointments, err = s.ListAppointments(ctx, principal, view.Room.ID, day.Format(scheduler.DateLayout))
	if err != nil {
		return
	}
	booked := make(map[string]Appointment, len(appointments))
	for _, a := range appointments {
		booked[a.Time] = a
	}

	view.Date = day.Format(scheduler.DateLayout)
	view.Closed = !view.Room.Hours().OpensOn(day)
	view.Slots = scheduler.MapDay(view.Room.Hours(), day, booked, s.now().In(s.location))
	return
}

// WeekView returns the Monday to Sunday strip at a signed week offset from today.
func (s *BookingService) WeekView(ctx context.Context, principal Principal, roomID string, offset int) (view WeekView, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "WeekView", "principal_id", principal.UserID, "room_id", roomID, "offset", offset)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build week view", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	view.Room, err = s.rooms.GetRoom(ctx, strings.TrimSpace(roomID))
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}
	view.Offset = offset

	var appointments []Appointment
	appointments, err = s.ListAppointments(ctx, principal, view.Room.ID, "")
	if err != nil {
		return
	}
	counts := make(map[string]int)
	for _, a := range appointments {
		counts[a.Date]++
	}

	today := s.now().In(s.location)
	todayKey := today.Format(scheduler.DateLayout)
	for _, day := range scheduler.WeekDays(today, offset) {
		key := day.Format(scheduler.DateLayout)
		view.Days = append(view.Days, WeekDay{
			Date:        key,
			Weekday:     day.Weekday(),
			Closed:      !view.Room.Hours().OpensOn(day),
			IsToday:     key == todayKey,
			BookedSlots: counts[key],
		})
	}
	return
}

func (s *BookingService) notifyOwner(ctx context.Context, actor Principal, appointment Appointment, kind string) {
	if appointment.UserID == "" || appointment.UserID == actor.UserID {
		return
	}
	roomName := appointment.RoomID
	if room, err := s.rooms.GetRoom(ctx, appointment.RoomID); err == nil {
		roomName = room.Name
	}
	date := appointment.Date
	if parsed, err := scheduler.ParseDate(appointment.Date, s.location); err == nil {
		date = parsed.Format("02/01/2006")
	}
	s.notifier.Notify(ctx, NotifyParams{
		Recipients: []string{appointment.UserID},
		Kind:       kind,
		Params: notification.Params{
			Actor: actor.Name,
			Room:  roomName,
			Date:  date,
			Time:  appointment.Time,
		},
		Link: "/rooms/" + appointment.RoomID + "?date=" + appointment.Date,
	})
}

func canManageAppointment(principal Principal, appointment Appointment) bool {
	if principal.UserID != "" && principal.UserID == appointment.UserID {
		return true
	}
	return principal.Can(CapAppointmentsManageAny)
}

func sortAppointments(appointments []Appointment) {
	sort.Slice(appointments, func(i, j int) bool {
		if appointments[i].Date == appointments[j].Date {
			return appointments[i].Time < appointments[j].Time
		}
		return appointments[i].Date < appointments[j].Date
	})
}

func mapAppointmentRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrSlotTaken
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return newValidationError("roomId", "room does not exist")
	}
	return err
}
