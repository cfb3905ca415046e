package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dir := t.TempDir()
	dsn := filepath.Join(dir, "portal.db")
	storage, err := Open(dsn)
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}

	t.Cleanup(func() {
		_ = storage.Close()
	})

	if err := storage.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return storage
}

func TestStorage_MigrateIsIdempotent(t *testing.T) {
	storage := newTestStorage(t)
	if err := storage.Migrate(context.Background(), nil); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
	if err := storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	now := time.Now().UTC().Truncate(time.Second)
	room := persistence.Room{
		ID:            "room-1",
		Name:          "Sala Ipê",
		Capacity:      10,
		Features:      []string{"projetor", "tv"},
		StartTime:     "08:00",
		EndTime:       "18:00",
		WorksSaturday: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := storage.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	fetched, err := storage.GetRoom(ctx, "room-1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if fetched.Name != "Sala Ipê" || len(fetched.Features) != 2 || !fetched.WorksSaturday || fetched.WorksSunday {
		t.Fatalf("unexpected room retrieved: %#v", fetched)
	}
	if !fetched.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at %v, got %v", now, fetched.CreatedAt)
	}

	invalid := room
	invalid.ID = "room-2"
	invalid.Capacity = 0
	if err := storage.CreateRoom(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation for zero capacity, got %v", err)
	}

	room.Name = "Sala Jatobá"
	room.UpdatedAt = now.Add(time.Minute)
	if err := storage.UpdateRoom(ctx, room); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	rooms, err := storage.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Name != "Sala Jatobá" {
		t.Fatalf("unexpected rooms %#v", rooms)
	}

	if err := storage.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := storage.GetRoom(ctx, "room-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)

	if _, err := storage.GetSettings(ctx); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	if err := storage.SaveSettings(ctx, persistence.Settings{Payload: []byte(`{"a":1}`), UpdatedBy: "emp-1", UpdatedAt: now}); err != nil {
		t.Fatalf("SaveSettings failed: %v", err)
	}
	if err := storage.SaveSettings(ctx, persistence.Settings{Payload: []byte(`{"a":2}`), UpdatedBy: "emp-2", UpdatedAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("SaveSettings overwrite failed: %v", err)
	}

	stored, err := storage.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if string(stored.Payload) != `{"a":2}` || stored.UpdatedBy != "emp-2" || !stored.UpdatedAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected settings %#v", stored)
	}
}

func TestDirectoryRepository_UnitsAndDepartments(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t)
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

	unit := persistence.Unit{
		ID:             "unit-sede",
		Name:           "Sede",
		Domain:         "example.com",
		Logo:           []byte{0x89, 0x50, 0x4e, 0x47},
		LogoMIME:       "image/png",
		Certifications: []string{"ISO 9001"},
		PostalCode:     "01310100",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := storage.UpsertUnit(ctx, unit); err != nil {
		t.Fatalf("UpsertUnit failed: %v", err)
	}
	unit.Name = "Sede Paulista"
	if err := storage.UpsertUnit(ctx, unit); err != nil {
		t.Fatalf("UpsertUnit update failed: %v", err)
	}

	fetched, err := storage.GetUnit(ctx, "unit-sede")
	if err != nil {
		t.Fatalf("GetUnit failed: %v", err)
	}
	if fetched.Name != "Sede Paulista" || len(fetched.Logo) != 4 || len(fetched.Certifications) != 1 {
		t.Fatalf("unexpected unit %#v", fetched)
	}

	if err := storage.UpsertDepartment(ctx, persistence.Department{ID: "dep-ti", Name: "TI", UnitID: "unit-sede", CreatedAt: now, UpdatedAt: now}); err != nil {
		t.Fatalf("UpsertDepartment failed: %v", err)
	}
	departments, err := storage.ListDepartments(ctx)
	if err != nil {
		t.Fatalf("ListDepartments failed: %v", err)
	}
	if len(departments) != 1 || departments[0].UnitID != "unit-sede" {
		t.Fatalf("unexpected departments %#v", departments)
	}
}
