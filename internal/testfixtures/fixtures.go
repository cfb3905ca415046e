package testfixtures

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"
	"time"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/persistence"
	"github.com/example/intranet-portal/internal/scheduler"
)

var (
	employeeCounter     uint64
	roomCounter         uint64
	termCounter         uint64
	notificationCounter uint64
	sessionCounter      uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Employee fixtures ---------------------------

// EmployeeFixture represents a deterministic directory record that can be
// materialised for application or persistence tests.
type EmployeeFixture struct {
	ID             string
	Name           string
	Email          string
	Role           string
	DepartmentID   string
	UnitID         string
	Position       string
	SignatureImage string
	PasswordHash   string
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmployeeOption configures the generated employee fixture.
type EmployeeOption func(*EmployeeFixture)

// NewEmployeeFixture returns a deterministic employee fixture with optional overrides.
func NewEmployeeFixture(opts ...EmployeeOption) EmployeeFixture {
	idx := atomic.AddUint64(&employeeCounter, 1)
	id := fmt.Sprintf("emp-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EmployeeFixture{
		ID:           id,
		Name:         fmt.Sprintf("Colaborador %03d", idx),
		Email:        fmt.Sprintf("%s@example.com", id),
		Role:         application.RoleUser,
		DepartmentID: "dep-ti",
		UnitID:       "unit-sede",
		Position:     "Analista",
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEmployeeID overrides the generated employee ID.
func WithEmployeeID(id string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.ID = id
	}
}

// WithEmployeeEmail overrides the generated email address.
func WithEmployeeEmail(email string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Email = email
	}
}

// WithEmployeeName overrides the generated name.
func WithEmployeeName(name string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Name = name
	}
}

// WithEmployeeRole sets the directory role.
func WithEmployeeRole(role string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Role = role
	}
}

// WithEmployeeDepartment sets the department the employee belongs to.
func WithEmployeeDepartment(departmentID string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.DepartmentID = departmentID
	}
}

// WithEmployeePasswordHash overrides the generated password hash.
func WithEmployeePasswordHash(hash string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.PasswordHash = hash
	}
}

// WithEmployeeSignatureImage stores a signature image data URL on the fixture.
func WithEmployeeSignatureImage(image string) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.SignatureImage = image
	}
}

// WithEmployeeDisabled marks the employee as disabled.
func WithEmployeeDisabled(disabled bool) EmployeeOption {
	return func(f *EmployeeFixture) {
		f.Disabled = disabled
	}
}

// Application returns the fixture as an application.Employee value.
func (f EmployeeFixture) Application() application.Employee {
	return application.Employee{
		ID:             f.ID,
		Name:           f.Name,
		Email:          f.Email,
		Role:           f.Role,
		DepartmentID:   f.DepartmentID,
		UnitID:         f.UnitID,
		Position:       f.Position,
		SignatureImage: f.SignatureImage,
		Disabled:       f.Disabled,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.EmployeeCredentials.
func (f EmployeeFixture) Credentials() application.EmployeeCredentials {
	return application.EmployeeCredentials{Employee: f.Application(), PasswordHash: f.PasswordHash}
}

// Persistence returns the fixture as a persistence.Employee value.
func (f EmployeeFixture) Persistence() persistence.Employee {
	return persistence.Employee{
		ID:             f.ID,
		Name:           f.Name,
		Email:          f.Email,
		Role:           f.Role,
		DepartmentID:   f.DepartmentID,
		UnitID:         f.UnitID,
		Position:       f.Position,
		SignatureImage: f.SignatureImage,
		PasswordHash:   f.PasswordHash,
		Disabled:       f.Disabled,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Principal returns an authenticated principal for the fixture with
// capabilities resolved against settings.
func (f EmployeeFixture) Principal(settings application.Settings) application.Principal {
	return application.PrincipalFor(f.Application(), settings)
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic meeting room.
type RoomFixture struct {
	ID            string
	Name          string
	Capacity      int
	Features      []string
	UnitID        string
	StartTime     string
	EndTime       string
	WorksSaturday bool
	WorksSunday   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room open on weekdays from 08:00 to 18:00.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Sala %03d", idx),
		Capacity:  8,
		Features:  []string{"projetor"},
		UnitID:    "unit-sede",
		StartTime: "08:00",
		EndTime:   "18:00",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomHours overrides the operating window.
func WithRoomHours(start, end string) RoomOption {
	return func(f *RoomFixture) {
		f.StartTime = start
		f.EndTime = end
	}
}

// WithRoomWeekends toggles weekend operation.
func WithRoomWeekends(saturday, sunday bool) RoomOption {
	return func(f *RoomFixture) {
		f.WorksSaturday = saturday
		f.WorksSunday = sunday
	}
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:            f.ID,
		Name:          f.Name,
		Capacity:      f.Capacity,
		Features:      slices.Clone(f.Features),
		UnitID:        f.UnitID,
		StartTime:     f.StartTime,
		EndTime:       f.EndTime,
		WorksSaturday: f.WorksSaturday,
		WorksSunday:   f.WorksSunday,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room(f.Application())
}

// -------------------------- Appointment fixtures -------------------------

// AppointmentFixture represents one booked half-hour slot.
type AppointmentFixture struct {
	RoomID       string
	Date         string
	Time         string
	Subject      string
	UserID       string
	UserName     string
	Participants []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AppointmentOption configures the generated appointment fixture.
type AppointmentOption func(*AppointmentFixture)

// NewAppointmentFixture returns an appointment for the supplied room and
// slot. The ID is always the composite slot key.
func NewAppointmentFixture(roomID, date, slot string, opts ...AppointmentOption) AppointmentFixture {
	fixture := AppointmentFixture{
		RoomID:    roomID,
		Date:      date,
		Time:      slot,
		Subject:   "Reunião",
		UserID:    "emp-owner",
		UserName:  "Dona da Reserva",
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithAppointmentOwner sets the booking employee.
func WithAppointmentOwner(userID, userName string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.UserID = userID
		f.UserName = userName
	}
}

// WithAppointmentSubject overrides the subject.
func WithAppointmentSubject(subject string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Subject = subject
	}
}

// WithAppointmentParticipants sets the participant employee IDs.
func WithAppointmentParticipants(ids ...string) AppointmentOption {
	return func(f *AppointmentFixture) {
		f.Participants = slices.Clone(ids)
	}
}

// ID returns the slot key of the appointment.
func (f AppointmentFixture) ID() string {
	return scheduler.SlotKey(f.RoomID, f.Date, f.Time)
}

// Application returns the fixture as an application.Appointment value.
func (f AppointmentFixture) Application() application.Appointment {
	return application.Appointment{
		ID:           f.ID(),
		RoomID:       f.RoomID,
		Date:         f.Date,
		Time:         f.Time,
		Subject:      f.Subject,
		UserID:       f.UserID,
		UserName:     f.UserName,
		Participants: slices.Clone(f.Participants),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Appointment value.
func (f AppointmentFixture) Persistence() persistence.Appointment {
	return persistence.Appointment(f.Application())
}

// ----------------------------- Term fixtures -----------------------------

// TemplateFixture returns a persisted delivery template owned by departmentID.
func TemplateFixture(id, departmentID string) persistence.TermTemplate {
	return persistence.TermTemplate{
		ID:           id,
		Name:         "Entrega de notebook",
		Title:        "Termo de Entrega",
		MovementType: string(application.MovementDelivery),
		DepartmentID: departmentID,
		Body:         "Eu, {{NOME}}, recebi o equipamento {{EQUIPAMENTO}}.",
		Fields:       []persistence.TemplateField{{Label: "Equipamento", Key: "EQUIPAMENTO"}},
		Variables:    []persistence.TemplateVariable{{Key: "PATRIMONIO", Label: "Patrimônio", Type: "text"}},
		CreatedBy:    "emp-issuer",
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
}

// TermFixture represents a deterministic issued term.
type TermFixture struct {
	ID                string
	TemplateID        string
	Type              application.MovementType
	EmployeeID        string
	EmployeeName      string
	DepartmentID      string
	EmployeeCPF       string
	Status            application.TermStatus
	Data              map[string]string
	VerificationToken string
	OriginalTermID    string
	SignatureImage    string
	SignedAt          *time.Time
	CreatedAt         time.Time
}

// TermOption configures the generated term fixture.
type TermOption func(*TermFixture)

// NewTermFixture returns a pending delivery term.
func NewTermFixture(opts ...TermOption) TermFixture {
	idx := atomic.AddUint64(&termCounter, 1)
	fixture := TermFixture{
		ID:                fmt.Sprintf("term-%03d", idx),
		TemplateID:        "tpl-001",
		Type:              application.MovementDelivery,
		EmployeeID:        "emp-holder",
		EmployeeName:      "Titular do Termo",
		DepartmentID:      "dep-ti",
		Status:            application.TermPending,
		Data:              map[string]string{"EQUIPAMENTO": "Notebook"},
		VerificationToken: fmt.Sprintf("verify-%03d", idx),
		CreatedAt:         referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTermID overrides the generated term ID.
func WithTermID(id string) TermOption {
	return func(f *TermFixture) {
		f.ID = id
	}
}

// WithTermEmployee sets the employee the term was issued to.
func WithTermEmployee(id, name string) TermOption {
	return func(f *TermFixture) {
		f.EmployeeID = id
		f.EmployeeName = name
	}
}

// WithTermType overrides the movement type.
func WithTermType(movement application.MovementType) TermOption {
	return func(f *TermFixture) {
		f.Type = movement
	}
}

// WithTermReturnOf marks the term as the return of originalID.
func WithTermReturnOf(originalID string) TermOption {
	return func(f *TermFixture) {
		f.Type = application.MovementReturn
		f.OriginalTermID = originalID
	}
}

// WithTermSigned marks the term as signed at the supplied instant.
func WithTermSigned(cpf, image string, at time.Time) TermOption {
	return func(f *TermFixture) {
		f.Status = application.TermSigned
		f.EmployeeCPF = cpf
		f.SignatureImage = image
		f.SignedAt = &at
	}
}

// Application returns the fixture as an application.Term value.
func (f TermFixture) Application() application.Term {
	return application.Term{
		ID:                f.ID,
		TemplateID:        f.TemplateID,
		Type:              f.Type,
		EmployeeID:        f.EmployeeID,
		EmployeeName:      f.EmployeeName,
		DepartmentID:      f.DepartmentID,
		EmployeeCPF:       f.EmployeeCPF,
		Status:            f.Status,
		Data:              maps.Clone(f.Data),
		VerificationToken: f.VerificationToken,
		OriginalTermID:    f.OriginalTermID,
		IssuerID:          "emp-issuer",
		IssuerName:        "Emissor",
		SignatureImage:    f.SignatureImage,
		SignedAt:          cloneTime(f.SignedAt),
		CreatedAt:         f.CreatedAt,
	}
}

// Persistence returns the fixture as a persistence.Term value.
func (f TermFixture) Persistence() persistence.Term {
	term := f.Application()
	return persistence.Term{
		ID:                term.ID,
		TemplateID:        term.TemplateID,
		Type:              string(term.Type),
		EmployeeID:        term.EmployeeID,
		EmployeeName:      term.EmployeeName,
		DepartmentID:      term.DepartmentID,
		EmployeeCPF:       term.EmployeeCPF,
		Status:            string(term.Status),
		Data:              term.Data,
		VerificationToken: term.VerificationToken,
		OriginalTermID:    term.OriginalTermID,
		IssuerID:          term.IssuerID,
		IssuerName:        term.IssuerName,
		SignatureImage:    term.SignatureImage,
		SignedAt:          term.SignedAt,
		CreatedAt:         term.CreatedAt,
	}
}

// ------------------------- Notification fixtures -------------------------

// NewNotification returns an unread inbox record for recipientID created
// offset after the reference time.
func NewNotification(recipientID string, offset time.Duration) persistence.Notification {
	idx := atomic.AddUint64(&notificationCounter, 1)
	return persistence.Notification{
		ID:          fmt.Sprintf("ntf-%03d", idx),
		RecipientID: recipientID,
		Kind:        "term_issued",
		Title:       "Novo termo para assinatura",
		Body:        "Você tem um termo pendente.",
		Link:        "/terms",
		CreatedAt:   referenceTime.Add(offset),
	}
}

// ---------------------------- Session fixtures ---------------------------

// SessionFixture represents a deterministic authentication session.
type SessionFixture struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a session valid for one hour after the reference time.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		UserID:    "emp-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: referenceTime.Add(time.Hour),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionUser sets the owning employee ID.
func WithSessionUser(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiry overrides the expiry instant.
func WithSessionExpiry(expiresAt time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = expiresAt
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:          f.ID,
		UserID:      f.UserID,
		Token:       f.Token,
		Fingerprint: f.Fingerprint,
		ExpiresAt:   f.ExpiresAt,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		RevokedAt:   cloneTime(f.RevokedAt),
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session(f.Application())
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}
