package persistence

import (
	"context"
	"time"
)

// DirectoryRepository stores employees, units, departments and systems.
type DirectoryRepository interface {
	CreateEmployee(ctx context.Context, employee Employee) error
	UpdateEmployee(ctx context.Context, employee Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateSignatureImage(ctx context.Context, employeeID, image string, updatedAt time.Time) error

	UpsertUnit(ctx context.Context, unit Unit) error
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnits(ctx context.Context) ([]Unit, error)

	UpsertDepartment(ctx context.Context, department Department) error
	GetDepartment(ctx context.Context, id string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)

	UpsertSystem(ctx context.Context, system System) error
	ListSystems(ctx context.Context) ([]System, error)
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// AppointmentRepository stores slot reservations keyed by their composite slot key.
type AppointmentRepository interface {
	// UpsertAppointment inserts or replaces the appointment with the same ID.
	UpsertAppointment(ctx context.Context, appointment Appointment) error
	// InsertAppointment fails with ErrDuplicate when the slot key is taken.
	InsertAppointment(ctx context.Context, appointment Appointment) error
	UpdateAppointmentDetails(ctx context.Context, id, subject string, participants []string, updatedAt time.Time) error
	GetAppointment(ctx context.Context, id string) (Appointment, error)
	ListAppointmentsByRoom(ctx context.Context, roomID string) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

// TermRepository stores term templates and issued terms.
type TermRepository interface {
	CreateTemplate(ctx context.Context, template TermTemplate) error
	UpdateTemplate(ctx context.Context, template TermTemplate) error
	GetTemplate(ctx context.Context, id string) (TermTemplate, error)
	ListTemplates(ctx context.Context) ([]TermTemplate, error)

	CreateTerm(ctx context.Context, term Term) error
	GetTerm(ctx context.Context, id string) (Term, error)
	GetTermByToken(ctx context.Context, token string) (Term, error)
	ListTerms(ctx context.Context) ([]Term, error)
	DeleteTerm(ctx context.Context, id string) error
	// MarkTermSigned performs the PENDENTE to ASSINADO transition; it returns
	// ErrConflict when the term is no longer pending.
	MarkTermSigned(ctx context.Context, id string, signature TermSignature) error
}

// SignatureRepository stores signature requests and the generation log.
type SignatureRepository interface {
	CreateSignatureRequest(ctx context.Context, request SignatureRequest) error
	GetSignatureRequest(ctx context.Context, id string) (SignatureRequest, error)
	ListSignatureRequests(ctx context.Context) ([]SignatureRequest, error)
	// CompleteSignatureRequest returns ErrConflict when the request is already completed.
	CompleteSignatureRequest(ctx context.Context, request SignatureRequest) error
	AppendSignatureLog(ctx context.Context, entry SignatureLog) error
	ListSignatureLogs(ctx context.Context) ([]SignatureLog, error)
}

// NotificationRepository stores inbox records.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, notification Notification) error
	ListNotifications(ctx context.Context, recipientID string) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id string) error
}

// SettingsRepository stores the portal settings singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
