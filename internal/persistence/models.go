package persistence

import "time"

// Employee is a directory record. PasswordHash doubles as the identity provider credential.
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
	PasswordHash   string
	Disabled       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Unit is an organisational unit with the contact data used on email signatures.
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

// Department groups employees and owns term templates.
type Department struct {
	ID        string
	Name      string
	UnitID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// System is a link to an internal application listed on the portal.
type System struct {
	ID          string
	Name        string
	URL         string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Room represents a meeting room catalog entry.
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

// Appointment occupies one half-hour slot. ID is the composite slot key.
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

// TemplateField is a table row of a term template.
type TemplateField struct {
	Label string `json:"label"`
	Key   string `json:"key"`
}

// TemplateVariable is a custom merge variable of a term template.
type TemplateVariable struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	AutoMapping string `json:"auto_mapping,omitempty"`
	Type        string `json:"type"`
}

// TermTemplate is a reusable document definition.
type TermTemplate struct {
	ID           string
	Name         string
	Title        string
	MovementType string
	DepartmentID string
	Body         string
	Fields       []TemplateField
	Variables    []TemplateVariable
	Seals        []string
	CreatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Term is an issued document instance.
type Term struct {
	ID                string
	TemplateID        string
	Type              string
	EmployeeID        string
	EmployeeName      string
	DepartmentID      string
	EmployeeCPF       string
	Status            string
	Data              map[string]string
	VerificationToken string
	OriginalTermID    string
	IssuerID          string
	IssuerName        string
	SignatureImage    string
	SignedAt          *time.Time
	CreatedAt         time.Time
}

// TermSignature carries the fields written by the one-shot signing transition.
type TermSignature struct {
	CPF            string
	SignatureImage string
	SignedAt       time.Time
}

// SignaturePhone is one phone entry of a signature request.
type SignaturePhone struct {
	Number string `json:"number"`
	Type   string `json:"type"`
}

// SignatureData is the rendering input of an email signature.
type SignatureData struct {
	Name   string           `json:"name"`
	Email  string           `json:"email"`
	UnitID string           `json:"unit_id"`
	Sector string           `json:"sector"`
	Phones []SignaturePhone `json:"phones"`
}

// SignatureRequest is a request for TI to generate an email signature image.
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

// SignatureLog records each generated signature image.
type SignatureLog struct {
	ID          string
	RequestID   string
	Name        string
	Email       string
	UnitID      string
	GeneratedBy string
	CreatedAt   time.Time
}

// Notification is a per-user inbox record.
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

// Settings is the persisted portal-wide settings document.
type Settings struct {
	Payload   []byte
	UpdatedBy string
	UpdatedAt time.Time
}

// Session represents an authentication session persisted for a user.
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
