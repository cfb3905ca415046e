package application

import (
	"time"

	"github.com/example/intranet-portal/internal/scheduler"
)

// Employee is a directory entry.
type Employee struct {
	ID             string
	Name           string
	Email          string
	Role           string
	DepartmentID   string
	UnitID         string
	Position       string
	Extension      string
	Phone          string
	SignatureImage string
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmployeeCredentials pairs an employee with its stored password hash.
type EmployeeCredentials struct {
	Employee     Employee
	PasswordHash string
}

// EmployeeInput captures caller provided employee fields. An empty Password
// keeps the current one on update.
type EmployeeInput struct {
	Name         string
	Email        string
	Role         string
	DepartmentID string
	UnitID       string
	Position     string
	Extension    string
	Phone        string
	Password     string
	Disabled     bool
}

// CreateEmployeeParams wraps the data required to create an employee.
type CreateEmployeeParams struct {
	Principal Principal
	Input     EmployeeInput
}

// UpdateEmployeeParams wraps the data required to update an employee.
type UpdateEmployeeParams struct {
	Principal  Principal
	EmployeeID string
	Input      EmployeeInput
}

// Unit is an organisational unit with its branding and address.
type Unit struct {
	ID             string
	Name           string
	Domain         string
	Logo           []byte
	LogoMIME       string
	Certifications []string
	PostalCode     string
	AddressLine1   string
	AddressLine2   string
	Phone          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UnitInput captures caller provided unit fields.
type UnitInput struct {
	Name           string
	Domain         string
	Logo           []byte
	LogoMIME       string
	Certifications []string
	PostalCode     string
	AddressLine1   string
	AddressLine2   string
	Phone          string
}

// UpsertUnitParams creates a unit when UnitID is empty, otherwise replaces it.
type UpsertUnitParams struct {
	Principal Principal
	UnitID    string
	Input     UnitInput
}

// Department is a sector of a unit.
type Department struct {
	ID        string
	Name      string
	UnitID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertDepartmentParams creates or replaces a department.
type UpsertDepartmentParams struct {
	Principal    Principal
	DepartmentID string
	Name         string
	UnitID       string
}

// System is a link in the internal systems catalog.
type System struct {
	ID          string
	Name        string
	URL         string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpsertSystemParams creates or replaces a system entry.
type UpsertSystemParams struct {
	Principal   Principal
	SystemID    string
	Name        string
	URL         string
	Description string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name          string
	Capacity      int
	Features      []string
	UnitID        string
	StartTime     string
	EndTime       string
	WorksSaturday bool
	WorksSunday   bool
}

// Room represents a bookable meeting room.
type Room struct {
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

// Hours returns the room's operating configuration.
func (r Room) Hours() scheduler.Hours {
	return scheduler.Hours{
		Start:         r.StartTime,
		End:           r.EndTime,
		WorksSaturday: r.WorksSaturday,
		WorksSunday:   r.WorksSunday,
	}
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Appointment is one booked half-hour slot. Its ID is the slot key.
type Appointment struct {
	ID           string
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

// CreateAppointmentParams books a single slot.
type CreateAppointmentParams struct {
	Principal    Principal
	RoomID       string
	Date         string
	Time         string
	Subject      string
	Participants []string
}

// BookSlotsParams books several slots sharing one subject.
type BookSlotsParams struct {
	Principal    Principal
	RoomID       string
	Date         string
	Times        []string
	Subject      string
	Participants []string
}

// SlotFailure reports one slot that could not be written.
type SlotFailure struct {
	Time string
	Err  error
}

// BookSlotsResult reports per-slot outcomes. Written slots are not rolled
// back when others fail.
type BookSlotsResult struct {
	Booked []Appointment
	Failed []SlotFailure
	// Overwritten lists booked slots that replaced an appointment already
	// held by the same key. Only overwrite mode produces entries.
	Overwritten []SlotOverwrite
}

// SlotOverwrite names the appointment a written slot replaced.
type SlotOverwrite struct {
	Time            string
	AppointmentID   string
	PreviousOwnerID string
}

// UpdateAppointmentParams changes subject and/or participants. Nil fields are kept.
type UpdateAppointmentParams struct {
	Principal     Principal
	AppointmentID string
	Subject       *string
	Participants  *[]string
}

// DayView is one room's rendered day.
type DayView struct {
	Room   Room
	Date   string
	Closed bool
	Slots  []scheduler.SlotView[Appointment]
}

// WeekDay summarises one date of a week strip.
type WeekDay struct {
	Date        string
	Weekday     time.Weekday
	Closed      bool
	IsToday     bool
	BookedSlots int
}

// WeekView is the seven day strip of a room.
type WeekView struct {
	Room   Room
	Offset int
	Days   []WeekDay
}

// MovementType classifies a term template.
type MovementType string

// Movement types.
const (
	MovementDelivery MovementType = "entrega"
	MovementLoan     MovementType = "emprestimo"
	MovementReturn   MovementType = "devolucao"
)

// Valid reports whether m is a known movement type.
func (m MovementType) Valid() bool {
	switch m {
	case MovementDelivery, MovementLoan, MovementReturn:
		return true
	}
	return false
}

// TermStatus is the state of an issued term.
type TermStatus string

// Term states. PENDENTE moves to ASSINADO exactly once.
const (
	TermPending TermStatus = "PENDENTE"
	TermSigned  TermStatus = "ASSINADO"
)

// TemplateField is a table row of a template.
type TemplateField struct {
	Label string
	Key   string
}

// TemplateVariable is a custom variable of a template.
type TemplateVariable struct {
	Key         string
	Label       string
	AutoMapping string
	Type        string
}

// TermTemplate is a reusable document definition.
type TermTemplate struct {
	ID           string
	Name         string
	Title        string
	MovementType MovementType
	DepartmentID string
	Body         string
	Fields       []TemplateField
	Variables    []TemplateVariable
	Seals        []string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TemplateInput captures caller provided template fields.
type TemplateInput struct {
	Name         string
	Title        string
	MovementType MovementType
	DepartmentID string
	Body         string
	Fields       []TemplateField
	Variables    []TemplateVariable
	Seals        []string
}

// CreateTemplateParams wraps the data required to create a template.
type CreateTemplateParams struct {
	Principal Principal
	Input     TemplateInput
}

// UpdateTemplateParams wraps the data required to update a template.
type UpdateTemplateParams struct {
	Principal  Principal
	TemplateID string
	Input      TemplateInput
}

// Term is an issued document instance.
type Term struct {
	ID                string
	TemplateID        string
	Type              MovementType
	EmployeeID        string
	EmployeeName      string
	DepartmentID      string
	EmployeeCPF       string
	Status            TermStatus
	Data              map[string]string
	VerificationToken string
	OriginalTermID    string
	IssuerID          string
	IssuerName        string
	SignatureImage    string
	SignedAt          *time.Time
	CreatedAt         time.Time
}

// IssueTermParams issues a term from a template to an employee.
type IssueTermParams struct {
	Principal     Principal
	TemplateID    string
	EmployeeID    string
	Data          map[string]string
	ReferenceDate time.Time
}

// IssueReturnParams issues a devolução for an entrega or empréstimo term.
type IssueReturnParams struct {
	Principal      Principal
	OriginalTermID string
	TemplateID     string
	Data           map[string]string
	ReferenceDate  time.Time
}

// ReturnStatus tells whether a term has a devolução.
type ReturnStatus struct {
	Exists bool
	TermID string
	Status TermStatus
}

// RenderedRow is a rendered table row.
type RenderedRow struct {
	Label string
	Value string
}

// RenderedTerm is a term bound to its template text.
type RenderedTerm struct {
	Term  Term
	Title string
	Body  string
	HTML  string
	Rows  []RenderedRow
	Seals []string
}

// SignTermParams carries the re-authentication data for signing.
type SignTermParams struct {
	Principal Principal
	TermID    string
	Password  string
	CPF       string
}

// TermVerification is the public summary of a term looked up by token.
type TermVerification struct {
	TermID       string
	Title        string
	Type         MovementType
	EmployeeName string
	IssuerName   string
	Status       TermStatus
	CreatedAt    time.Time
	SignedAt     *time.Time
}

// Signature request states.
const (
	SignatureRequestPending   = "PENDING"
	SignatureRequestCompleted = "COMPLETED"
)

// SignaturePhone is one phone of a signature.
type SignaturePhone struct {
	Number string
	Type   string
}

// SignatureData is the compositor input.
type SignatureData struct {
	Name   string
	Email  string
	UnitID string
	Sector string
	Phones []SignaturePhone
}

// SignatureRequest is a user's request for an e-mail signature image.
type SignatureRequest struct {
	ID            string
	RequesterID   string
	RequesterName string
	Status        string
	Requested     SignatureData
	Final         *SignatureData
	ImageDataURL  string
	GeneratedBy   string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// CompleteSignatureRequestParams renders and stores a request. A nil Final
// renders the requested data as is.
type CompleteSignatureRequestParams struct {
	Principal Principal
	RequestID string
	Final     *SignatureData
}

// SignatureLog records one generated signature.
type SignatureLog struct {
	ID          string
	RequestID   string
	Name        string
	Email       string
	UnitID      string
	GeneratedBy string
	CreatedAt   time.Time
}

// Notification is an inbox record.
type Notification struct {
	ID          string
	RecipientID string
	Kind        string
	Title       string
	Body        string
	Link        string
	Read        bool
	CreatedAt   time.Time
}

// Session represents an authenticated session issued to an employee.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

// AuthenticateParams captures the data required to authenticate an employee.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	Employee Employee
	Session  Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}
