package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
)

type appointmentRepoStub struct {
	mu       sync.Mutex
	items    map[string]Appointment
	writeErr error
	upserts  int
	inserts  int
	deleted  []string
}

func newAppointmentRepoStub(items ...Appointment) *appointmentRepoStub {
	repo := &appointmentRepoStub{items: make(map[string]Appointment)}
	for _, a := range items {
		repo.items[a.ID] = a
	}
	return repo
}

func (r *appointmentRepoStub) UpsertAppointment(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.writeErr != nil {
		return r.writeErr
	}
	r.items[a.ID] = a
	return nil
}

func (r *appointmentRepoStub) InsertAppointment(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.items[a.ID]; ok {
		return persistence.ErrDuplicate
	}
	r.items[a.ID] = a
	return nil
}

func (r *appointmentRepoStub) UpdateAppointmentDetails(ctx context.Context, id, subject string, participants []string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return persistence.ErrNotFound
	}
	a.Subject, a.Participants, a.UpdatedAt = subject, participants, updatedAt
	r.items[id] = a
	return nil
}

func (r *appointmentRepoStub) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return Appointment{}, persistence.ErrNotFound
	}
	return a, nil
}

func (r *appointmentRepoStub) ListAppointmentsByRoom(ctx context.Context, roomID string) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Appointment, 0, len(r.items))
	for _, a := range r.items {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *appointmentRepoStub) DeleteAppointment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.items, id)
	r.deleted = append(r.deleted, id)
	return nil
}

// Thursday 2026-10-15 10:10 UTC.
var bookingNow = time.Date(2026, time.October, 15, 10, 10, 0, 0, time.UTC)

func bookingRooms() *roomRepoStub {
	return &roomRepoStub{rooms: map[string]Room{
		"r1": {ID: "r1", Name: "Sala Ipê", StartTime: "08:00", EndTime: "18:00"},
	}}
}

func TestBookingService_BookSlots(t *testing.T) {
	t.Parallel()

	t.Run("requires the booking capability", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(), nil, fixedClock(bookingNow))

		_, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: principalWith("u1", RoleUser),
			RoomID:    "r1", Date: "2026-10-16", Times: []string{"10:00"}, Subject: "Daily",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates subject, slots and date", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(), nil, fixedClock(bookingNow))

		_, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "16/10/2026", Subject: " ",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"subject", "times", "date"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("returns not found for unknown rooms", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(), nil, fixedClock(bookingNow))

		_, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"), RoomID: "nope", Date: "2026-10-16", Times: []string{"10:00"}, Subject: "x",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reports per-slot failures without rolling back", func(t *testing.T) {
		t.Parallel()
		repo := newAppointmentRepoStub()
		notifier := &notifierSpy{}
		metrics := &metricsSpy{}
		svc := NewBookingServiceWithOptions(bookingRooms(), repo, notifier, fixedClock(bookingNow), BookingOptions{Metrics: metrics})

		result, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"),
			RoomID:    "r1",
			Date:      "2026-10-15",
			Times:     []string{"19:00", "10:00", "09:00", "10:30", "10:00"},
			Subject:   "  Planejamento  ",
		})
		if err != nil {
			t.Fatalf("expected partial success, got %v", err)
		}

		if len(result.Booked) != 2 || result.Booked[0].Time != "10:00" || result.Booked[1].Time != "10:30" {
			t.Fatalf("expected 10:00 and 10:30 booked, got %+v", result.Booked)
		}
		if len(result.Failed) != 2 || result.Failed[0].Time != "09:00" || result.Failed[1].Time != "19:00" {
			t.Fatalf("expected 09:00 and 19:00 to fail, got %+v", result.Failed)
		}
		if result.Booked[0].ID != "r1_2026-10-15_10-00" {
			t.Fatalf("expected slot key id, got %q", result.Booked[0].ID)
		}
		if result.Booked[0].Subject != "Planejamento" || result.Booked[0].UserName != "User u1" {
			t.Fatalf("expected trimmed subject and owner name, got %+v", result.Booked[0])
		}
		if len(repo.items) != 2 {
			t.Fatalf("expected two stored appointments, got %d", len(repo.items))
		}

		if len(notifier.calls) != 1 {
			t.Fatalf("expected one notification for the interaction, got %d", len(notifier.calls))
		}
		call := notifier.calls[0]
		if call.Kind != notification.KindBookingCreated || call.Params.Slots != 2 || call.Recipients[0] != "u1" {
			t.Fatalf("unexpected notification %+v", call)
		}
		if len(metrics.bookings) != 2 || metrics.bookings[0] != "written" {
			t.Fatalf("expected two written outcomes, got %v", metrics.bookings)
		}
	})

	t.Run("returns the first failure when nothing was booked", func(t *testing.T) {
		t.Parallel()
		notifier := &notifierSpy{}
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(), notifier, fixedClock(bookingNow))

		_, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "2026-10-15", Times: []string{"08:00"}, Subject: "x",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["time"] == "" {
			t.Fatalf("expected past slot validation error, got %v", err)
		}
		if len(notifier.calls) != 0 {
			t.Fatalf("expected no notification, got %d", len(notifier.calls))
		}
	})

	t.Run("rejects weekend dates of rooms closed on weekends", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(), nil, fixedClock(bookingNow))

		_, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "2026-10-17", Times: []string{"10:00"}, Subject: "x",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError for saturday, got %v", err)
		}
	})

	t.Run("overwrite mode lets the last writer win", func(t *testing.T) {
		t.Parallel()
		existing := Appointment{ID: "r1_2026-10-16_10-00", RoomID: "r1", Date: "2026-10-16", Time: "10:00", UserID: "u2", Subject: "old"}
		repo := newAppointmentRepoStub(existing)
		svc := NewBookingService(bookingRooms(), repo, nil, fixedClock(bookingNow))

		appointment, err := svc.CreateAppointment(context.Background(), CreateAppointmentParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "2026-10-16", Time: "10:00", Subject: "new",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if stored := repo.items[appointment.ID]; stored.UserID != "u1" || stored.Subject != "new" {
			t.Fatalf("expected slot to be replaced, got %+v", stored)
		}
		if repo.upserts != 1 || repo.inserts != 0 {
			t.Fatalf("expected one upsert, got upserts=%d inserts=%d", repo.upserts, repo.inserts)
		}
	})

	t.Run("overwrite mode reports replaced slots", func(t *testing.T) {
		t.Parallel()
		taken := Appointment{ID: "r1_2026-10-16_10-00", RoomID: "r1", Date: "2026-10-16", Time: "10:00", UserID: "u2", Subject: "old"}
		otherDay := Appointment{ID: "r1_2026-10-19_10-30", RoomID: "r1", Date: "2026-10-19", Time: "10:30", UserID: "u3"}
		repo := newAppointmentRepoStub(taken, otherDay)
		svc := NewBookingService(bookingRooms(), repo, nil, fixedClock(bookingNow))

		result, err := svc.BookSlots(context.Background(), BookSlotsParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "2026-10-16", Times: []string{"10:30", "10:00"}, Subject: "new",
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.Booked) != 2 {
			t.Fatalf("expected both slots booked, got %+v", result.Booked)
		}
		if len(result.Overwritten) != 1 {
			t.Fatalf("expected one overwritten slot, got %+v", result.Overwritten)
		}
		if got := result.Overwritten[0]; got.Time != "10:00" || got.PreviousOwnerID != "u2" || got.AppointmentID != taken.ID {
			t.Fatalf("unexpected overwrite %+v", got)
		}
	})

	t.Run("insert mode rejects taken slots", func(t *testing.T) {
		t.Parallel()
		existing := Appointment{ID: "r1_2026-10-16_10-00", RoomID: "r1", Date: "2026-10-16", Time: "10:00", UserID: "u2"}
		repo := newAppointmentRepoStub(existing)
		metrics := &metricsSpy{}
		svc := NewBookingServiceWithOptions(bookingRooms(), repo, nil, fixedClock(bookingNow), BookingOptions{Mode: BookingInsertIfAbsent, Metrics: metrics})

		_, err := svc.CreateAppointment(context.Background(), CreateAppointmentParams{
			Principal: userPrincipal("u1"), RoomID: "r1", Date: "2026-10-16", Time: "10:00", Subject: "new",
		})
		if !errors.Is(err, ErrSlotTaken) {
			t.Fatalf("expected ErrSlotTaken, got %v", err)
		}
		if repo.items[existing.ID].UserID != "u2" {
			t.Fatalf("expected original booking to stay")
		}
		if len(metrics.bookings) != 1 || metrics.bookings[0] != "conflict" {
			t.Fatalf("expected conflict outcome, got %v", metrics.bookings)
		}
	})
}

func TestBookingService_UpdateAndDeleteAppointment(t *testing.T) {
	t.Parallel()

	owned := Appointment{ID: "r1_2026-10-16_10-00", RoomID: "r1", Date: "2026-10-16", Time: "10:00", UserID: "owner", Subject: "Daily"}

	t.Run("rejects other regular users", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(owned), nil, fixedClock(bookingNow))
		subject := "Mine now"

		_, err := svc.UpdateAppointment(context.Background(), UpdateAppointmentParams{
			Principal: userPrincipal("intruder"), AppointmentID: owned.ID, Subject: &subject,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized on update, got %v", err)
		}
		if err := svc.DeleteAppointment(context.Background(), userPrincipal("intruder"), owned.ID); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized on delete, got %v", err)
		}
	})

	t.Run("owner edits silently", func(t *testing.T) {
		t.Parallel()
		repo := newAppointmentRepoStub(owned)
		notifier := &notifierSpy{}
		svc := NewBookingService(bookingRooms(), repo, notifier, fixedClock(bookingNow))
		participants := []string{" ana ", "bia", "ana"}

		updated, err := svc.UpdateAppointment(context.Background(), UpdateAppointmentParams{
			Principal: userPrincipal("owner"), AppointmentID: owned.ID, Participants: &participants,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if updated.Subject != "Daily" || len(updated.Participants) != 2 {
			t.Fatalf("expected subject kept and participants normalized, got %+v", updated)
		}
		if len(notifier.calls) != 0 {
			t.Fatalf("expected no notification for own edit, got %v", notifier.kinds())
		}
	})

	t.Run("admin changes notify the owner", func(t *testing.T) {
		t.Parallel()
		repo := newAppointmentRepoStub(owned)
		notifier := &notifierSpy{}
		svc := NewBookingService(bookingRooms(), repo, notifier, fixedClock(bookingNow))
		subject := "Reunião de diretoria"

		if _, err := svc.UpdateAppointment(context.Background(), UpdateAppointmentParams{
			Principal: adminPrincipal("boss"), AppointmentID: owned.ID, Subject: &subject,
		}); err != nil {
			t.Fatalf("expected update success, got %v", err)
		}
		if err := svc.DeleteAppointment(context.Background(), adminPrincipal("boss"), owned.ID); err != nil {
			t.Fatalf("expected delete success, got %v", err)
		}

		kinds := notifier.kinds()
		if len(kinds) != 2 || kinds[0] != notification.KindBookingChanged || kinds[1] != notification.KindBookingCancelled {
			t.Fatalf("expected changed and cancelled notifications, got %v", kinds)
		}
		if notifier.calls[0].Recipients[0] != "owner" || notifier.calls[0].Params.Room != "Sala Ipê" || notifier.calls[0].Params.Date != "16/10/2026" {
			t.Fatalf("unexpected notification params %+v", notifier.calls[0])
		}
		if len(repo.deleted) != 1 {
			t.Fatalf("expected one deletion, got %v", repo.deleted)
		}
	})

	t.Run("rejects blank subjects", func(t *testing.T) {
		t.Parallel()
		svc := NewBookingService(bookingRooms(), newAppointmentRepoStub(owned), nil, fixedClock(bookingNow))
		blank := "  "

		_, err := svc.UpdateAppointment(context.Background(), UpdateAppointmentParams{
			Principal: userPrincipal("owner"), AppointmentID: owned.ID, Subject: &blank,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestBookingService_Views(t *testing.T) {
	t.Parallel()

	repo := newAppointmentRepoStub(
		Appointment{ID: "r1_2026-10-15_09-00", RoomID: "r1", Date: "2026-10-15", Time: "09:00", UserID: "u1"},
		Appointment{ID: "r1_2026-10-15_11-00", RoomID: "r1", Date: "2026-10-15", Time: "11:00", UserID: "u1"},
		Appointment{ID: "r1_2026-10-16_08-00", RoomID: "r1", Date: "2026-10-16", Time: "08:00", UserID: "u1"},
	)
	svc := NewBookingService(bookingRooms(), repo, nil, fixedClock(bookingNow))

	t.Run("lists appointments of a date in order", func(t *testing.T) {
		t.Parallel()
		list, err := svc.ListAppointments(context.Background(), userPrincipal("u1"), "r1", "2026-10-15")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(list) != 2 || list[0].Time != "09:00" || list[1].Time != "11:00" {
			t.Fatalf("unexpected list %+v", list)
		}
	})

	t.Run("day view marks past and booked slots", func(t *testing.T) {
		t.Parallel()
		view, err := svc.DayView(context.Background(), userPrincipal("u1"), "r1", "2026-10-15")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(view.Slots) != 20 {
			t.Fatalf("expected 20 slots between 08:00 and 18:00, got %d", len(view.Slots))
		}
		byTime := make(map[string]int)
		for i, slot := range view.Slots {
			byTime[slot.Time] = i
		}
		nine := view.Slots[byTime["09:00"]]
		if nine.Booking == nil || !nine.Past || nine.Bookable {
			t.Fatalf("expected 09:00 booked and past, got %+v", nine)
		}
		eleven := view.Slots[byTime["11:00"]]
		if eleven.Booking == nil || eleven.Past || eleven.Bookable {
			t.Fatalf("expected 11:00 booked and upcoming, got %+v", eleven)
		}
		free := view.Slots[byTime["11:30"]]
		if free.Booking != nil || !free.Bookable {
			t.Fatalf("expected 11:30 bookable, got %+v", free)
		}
	})

	t.Run("week view starts on monday and counts bookings", func(t *testing.T) {
		t.Parallel()
		view, err := svc.WeekView(context.Background(), userPrincipal("u1"), "r1", 0)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(view.Days) != 7 || view.Days[0].Date != "2026-10-12" || view.Days[0].Weekday != time.Monday {
			t.Fatalf("expected week starting 2026-10-12, got %+v", view.Days)
		}
		thursday := view.Days[3]
		if !thursday.IsToday || thursday.BookedSlots != 2 {
			t.Fatalf("expected today with two bookings, got %+v", thursday)
		}
		if !view.Days[5].Closed || !view.Days[6].Closed {
			t.Fatalf("expected weekend closed, got %+v", view.Days[5:])
		}

		next, err := svc.WeekView(context.Background(), userPrincipal("u1"), "r1", 1)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if next.Days[0].Date != "2026-10-19" {
			t.Fatalf("expected next week to start 2026-10-19, got %s", next.Days[0].Date)
		}
	})
}
