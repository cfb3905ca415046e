package sqlite

import (
	"context"

	"github.com/example/intranet-portal/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, name, capacity, features, unit_id, start_time, end_time,
	works_saturday, works_sunday, created_at, updated_at`

// CreateRoom inserts a new room into the database
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	features, err := encodeJSON(room.Features, "[]")
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO rooms (`+roomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Capacity,
		features,
		room.UnitID,
		room.StartTime,
		room.EndTime,
		boolToInt(room.WorksSaturday),
		boolToInt(room.WorksSunday),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom updates an existing room in the database
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}
	features, err := encodeJSON(room.Features, "[]")
	if err != nil {
		return err
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE rooms
		SET name = ?, capacity = ?, features = ?, unit_id = ?, start_time = ?, end_time = ?,
			works_saturday = ?, works_sunday = ?, updated_at = ?
		WHERE id = ?`,
		room.Name,
		room.Capacity,
		features,
		room.UnitID,
		room.StartTime,
		room.EndTime,
		boolToInt(room.WorksSaturday),
		boolToInt(room.WorksSunday),
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// GetRoom retrieves a room by ID from the database
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	room, err := scanRoom(r.helper.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns all rooms ordered by name then ID
func (r *RoomRepository) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Appointments referencing it are left in place.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room                 persistence.Room
		features             string
		saturday, sunday     int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&features,
		&room.UnitID,
		&room.StartTime,
		&room.EndTime,
		&saturday,
		&sunday,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Room{}, err
	}
	room.WorksSaturday = saturday != 0
	room.WorksSunday = sunday != 0
	if err = decodeJSON("features", features, &room.Features); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
