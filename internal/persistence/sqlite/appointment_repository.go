package sqlite

import (
	"context"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

// AppointmentRepository implements persistence.AppointmentRepository using SQLite.
// The primary key is the composite slot key, so a slot holds at most one row.
type AppointmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAppointmentRepository creates a new SQLite appointment repository
func NewAppointmentRepository(pool *ConnectionPool) *AppointmentRepository {
	return &AppointmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const appointmentColumns = `id, room_id, date, time, subject, user_id, user_name, participants, created_at, updated_at`

// UpsertAppointment writes the appointment, replacing any row with the same slot key.
func (r *AppointmentRepository) UpsertAppointment(ctx context.Context, appointment persistence.Appointment) error {
	return r.write(ctx, `INSERT OR REPLACE INTO appointments`, appointment)
}

// InsertAppointment writes the appointment only when its slot key is free.
func (r *AppointmentRepository) InsertAppointment(ctx context.Context, appointment persistence.Appointment) error {
	return r.write(ctx, `INSERT INTO appointments`, appointment)
}

func (r *AppointmentRepository) write(ctx context.Context, verb string, appointment persistence.Appointment) error {
	if appointment.ID == "" || appointment.RoomID == "" {
		return persistence.ErrConstraintViolation
	}
	participants, err := encodeJSON(appointment.Participants, "[]")
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, verb+` (`+appointmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appointment.ID,
		appointment.RoomID,
		appointment.Date,
		appointment.Time,
		appointment.Subject,
		appointment.UserID,
		appointment.UserName,
		participants,
		formatTime(appointment.CreatedAt),
		formatTime(appointment.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateAppointmentDetails changes the subject and participant list only.
func (r *AppointmentRepository) UpdateAppointmentDetails(ctx context.Context, id, subject string, participants []string, updatedAt time.Time) error {
	encoded, err := encodeJSON(participants, "[]")
	if err != nil {
		return err
	}
	result, err := r.helper.Exec(ctx,
		`UPDATE appointments SET subject = ?, participants = ?, updated_at = ? WHERE id = ?`,
		subject, encoded, formatTime(updatedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// GetAppointment retrieves an appointment by slot key.
func (r *AppointmentRepository) GetAppointment(ctx context.Context, id string) (persistence.Appointment, error) {
	if id == "" {
		return persistence.Appointment{}, persistence.ErrNotFound
	}
	appointment, err := scanAppointment(r.helper.QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if err != nil {
		return persistence.Appointment{}, r.mapper.MapError(err)
	}
	return appointment, nil
}

// ListAppointmentsByRoom returns every appointment of a room, across all dates.
func (r *AppointmentRepository) ListAppointmentsByRoom(ctx context.Context, roomID string) ([]persistence.Appointment, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE room_id = ? ORDER BY date ASC, time ASC`, roomID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var appointments []persistence.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return appointments, nil
}

// DeleteAppointment frees the slot.
func (r *AppointmentRepository) DeleteAppointment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

func scanAppointment(row rowScanner) (persistence.Appointment, error) {
	var (
		appointment          persistence.Appointment
		participants         string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&appointment.ID,
		&appointment.RoomID,
		&appointment.Date,
		&appointment.Time,
		&appointment.Subject,
		&appointment.UserID,
		&appointment.UserName,
		&participants,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Appointment{}, err
	}
	if err = decodeJSON("participants", participants, &appointment.Participants); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Appointment{}, err
	}
	if appointment.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Appointment{}, err
	}
	return appointment, nil
}
