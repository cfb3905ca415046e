package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/example/intranet-portal/internal/persistence"
	"github.com/example/intranet-portal/internal/postalcode"
)

// DirectoryRepository captures the directory persistence operations.
type DirectoryRepository interface {
	CreateEmployee(ctx context.Context, credentials EmployeeCredentials) error
	// UpdateEmployee keeps the stored hash when PasswordHash is empty.
	UpdateEmployee(ctx context.Context, credentials EmployeeCredentials) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
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

// PostalCodeLookup resolves postal codes.
type PostalCodeLookup interface {
	Lookup(ctx context.Context, code string) (postalcode.Address, error)
}

// SignatureImagePrefix is the only accepted encoding of stored signature images.
const SignatureImagePrefix = "data:image/png;base64,"

var logoMIMETypes = map[string]bool{"image/png": true, "image/jpeg": true, "image/webp": true}

// DirectoryService manages employees, units, departments and systems.
type DirectoryService struct {
	repo        DirectoryRepository
	postal      PostalCodeLookup
	hash        PasswordHasher
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewDirectoryService constructs a directory service.
func NewDirectoryService(repo DirectoryRepository, postal PostalCodeLookup, hash PasswordHasher, idGenerator func() string, now func() time.Time) *DirectoryService {
	return NewDirectoryServiceWithLogger(repo, postal, hash, idGenerator, now, nil)
}

// NewDirectoryServiceWithLogger constructs a directory service with a specified logger.
func NewDirectoryServiceWithLogger(repo DirectoryRepository, postal PostalCodeLookup, hash PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *DirectoryService {
	if hash == nil {
		hash = HashPassword
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &DirectoryService{
		repo:        repo,
		postal:      postal,
		hash:        hash,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *DirectoryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "DirectoryService", operation, attrs...)
}

func (s *DirectoryService) ready() error {
	if s == nil {
		return fmt.Errorf("DirectoryService is nil")
	}
	if s.repo == nil {
		return fmt.Errorf("directory repository not configured")
	}
	return nil
}

// CreateEmployee validates input and stores a new employee with a hashed password.
func (s *DirectoryService) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (employee Employee, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "CreateEmployee", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("employee_id", employee.ID).InfoContext(ctx, "employee created")
	}()

	if !params.Principal.Can(CapDirectoryManage) {
		err = ErrUnauthorized
		return
	}

	vErr := validateEmployeeInput(params.Input, true)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	if hash, err = s.hash(params.Input.Password); err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	now := s.now()
	employee = applyEmployeeInput(Employee{ID: s.idGenerator(), CreatedAt: now}, params.Input)
	employee.UpdatedAt = now

	if err = s.repo.CreateEmployee(ctx, EmployeeCredentials{Employee: employee, PasswordHash: hash}); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// UpdateEmployee replaces the directory fields of an employee. A blank
// password keeps the current one.
func (s *DirectoryService) UpdateEmployee(ctx context.Context, params UpdateEmployeeParams) (employee Employee, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateEmployee", "principal_id", params.Principal.UserID, "employee_id", params.EmployeeID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update employee", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "employee updated")
	}()

	if !params.Principal.Can(CapDirectoryManage) {
		err = ErrUnauthorized
		return
	}

	var existing Employee
	existing, err = s.repo.GetEmployee(ctx, strings.TrimSpace(params.EmployeeID))
	if err != nil {
		err = mapDirectoryRepoError(err)
		return
	}

	vErr := validateEmployeeInput(params.Input, false)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hash string
	if params.Input.Password != "" {
		if hash, err = s.hash(params.Input.Password); err != nil {
			err = fmt.Errorf("hash password: %w", err)
			return
		}
	}

	employee = applyEmployeeInput(existing, params.Input)
	employee.UpdatedAt = s.now()
	if err = s.repo.UpdateEmployee(ctx, EmployeeCredentials{Employee: employee, PasswordHash: hash}); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// GetEmployee returns one employee.
func (s *DirectoryService) GetEmployee(ctx context.Context, principal Principal, employeeID string) (employee Employee, err error) {
	if err = s.ready(); err != nil {
		return
	}
	employee, err = s.repo.GetEmployee(ctx, strings.TrimSpace(employeeID))
	if err != nil {
		err = mapDirectoryRepoError(err)
		s.loggerWith(ctx, "GetEmployee", "principal_id", principal.UserID, "employee_id", employeeID).
			ErrorContext(ctx, "failed to get employee", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// ListEmployees returns the directory ordered by name.
func (s *DirectoryService) ListEmployees(ctx context.Context, principal Principal) (employees []Employee, err error) {
	return s.SearchEmployees(ctx, principal, "")
}

// SearchEmployees filters the directory by a case and accent insensitive
// substring of name, e-mail, extension or position.
func (s *DirectoryService) SearchEmployees(ctx context.Context, principal Principal, query string) (employees []Employee, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "SearchEmployees", "principal_id", principal.UserID, "query", query)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to search employees", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(employees)).InfoContext(ctx, "employees searched")
	}()

	var all []Employee
	all, err = s.repo.ListEmployees(ctx)
	if err != nil {
		return
	}

	needle := foldText(query)
	employees = make([]Employee, 0, len(all))
	for _, e := range all {
		if needle == "" || matchesEmployee(e, needle) {
			employees = append(employees, e)
		}
	}
	sort.Slice(employees, func(i, j int) bool {
		a, b := foldText(employees[i].Name), foldText(employees[j].Name)
		if a == b {
			return employees[i].ID < employees[j].ID
		}
		return a < b
	})
	return
}

// UpdateSignatureImage stores the principal's own signature image.
func (s *DirectoryService) UpdateSignatureImage(ctx context.Context, principal Principal, image string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateSignatureImage", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update signature image", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "signature image updated")
	}()

	if principal.UserID == "" {
		return ErrUnauthorized
	}
	image = strings.TrimSpace(image)
	if !strings.HasPrefix(image, SignatureImagePrefix) || len(image) == len(SignatureImagePrefix) {
		return newValidationError("signatureImage", "signature image must be a PNG data URL")
	}
	if err = s.repo.UpdateSignatureImage(ctx, principal.UserID, image, s.now()); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// UpsertUnit creates or replaces a unit.
func (s *DirectoryService) UpsertUnit(ctx context.Context, params UpsertUnitParams) (unit Unit, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpsertUnit", "principal_id", params.Principal.UserID, "unit_id", params.UnitID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save unit", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("unit_id", unit.ID).InfoContext(ctx, "unit saved")
	}()

	if !params.Principal.Can(CapDirectoryManage) {
		err = ErrUnauthorized
		return
	}

	in := params.Input
	vErr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		vErr.add("name", "name is required")
	}
	if len(in.Logo) > 0 && !logoMIMETypes[in.LogoMIME] {
		vErr.add("logoMime", "logo must be PNG, JPEG or WebP")
	}
	if code := strings.TrimSpace(in.PostalCode); code != "" {
		if _, codeErr := postalcode.Normalize(code); codeErr != nil {
			vErr.add("postalCode", "postal code must have 8 digits")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	unit = Unit{ID: strings.TrimSpace(params.UnitID), CreatedAt: now}
	if unit.ID == "" {
		unit.ID = s.idGenerator()
	} else if existing, getErr := s.repo.GetUnit(ctx, unit.ID); getErr == nil {
		unit.CreatedAt = existing.CreatedAt
	}
	unit.Name = strings.TrimSpace(in.Name)
	unit.Domain = strings.TrimSpace(in.Domain)
	unit.Logo = in.Logo
	unit.LogoMIME = in.LogoMIME
	unit.Certifications = normalizeList(in.Certifications)
	unit.PostalCode = strings.TrimSpace(in.PostalCode)
	unit.AddressLine1 = strings.TrimSpace(in.AddressLine1)
	unit.AddressLine2 = strings.TrimSpace(in.AddressLine2)
	unit.Phone = strings.TrimSpace(in.Phone)
	unit.UpdatedAt = now

	if err = s.repo.UpsertUnit(ctx, unit); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// GetUnit returns one unit.
func (s *DirectoryService) GetUnit(ctx context.Context, principal Principal, unitID string) (unit Unit, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if unit, err = s.repo.GetUnit(ctx, strings.TrimSpace(unitID)); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// ListUnits returns every unit ordered by name.
func (s *DirectoryService) ListUnits(ctx context.Context, principal Principal) (units []Unit, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if units, err = s.repo.ListUnits(ctx); err != nil {
		return
	}
	sort.Slice(units, func(i, j int) bool { return foldText(units[i].Name) < foldText(units[j].Name) })
	return
}

// UpsertDepartment creates or replaces a department.
func (s *DirectoryService) UpsertDepartment(ctx context.Context, params UpsertDepartmentParams) (department Department, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpsertDepartment", "principal_id", params.Principal.UserID, "department_id", params.DepartmentID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save department", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("department_id", department.ID).InfoContext(ctx, "department saved")
	}()

	if !params.Principal.Can(CapDirectoryManage) {
		err = ErrUnauthorized
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		err = newValidationError("name", "name is required")
		return
	}

	now := s.now()
	department = Department{ID: strings.TrimSpace(params.DepartmentID), CreatedAt: now}
	if department.ID == "" {
		department.ID = s.idGenerator()
	} else if existing, getErr := s.repo.GetDepartment(ctx, department.ID); getErr == nil {
		department.CreatedAt = existing.CreatedAt
	}
	department.Name = strings.TrimSpace(params.Name)
	department.UnitID = strings.TrimSpace(params.UnitID)
	department.UpdatedAt = now

	if err = s.repo.UpsertDepartment(ctx, department); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// ListDepartments returns every department ordered by name.
func (s *DirectoryService) ListDepartments(ctx context.Context, principal Principal) (departments []Department, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if departments, err = s.repo.ListDepartments(ctx); err != nil {
		return
	}
	sort.Slice(departments, func(i, j int) bool {
		return foldText(departments[i].Name) < foldText(departments[j].Name)
	})
	return
}

// UpsertSystem creates or replaces a systems catalog entry.
func (s *DirectoryService) UpsertSystem(ctx context.Context, params UpsertSystemParams) (system System, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpsertSystem", "principal_id", params.Principal.UserID, "system_id", params.SystemID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save system", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("system_id", system.ID).InfoContext(ctx, "system saved")
	}()

	if !params.Principal.Can(CapDirectoryManage) {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.Name) == "" {
		vErr.add("name", "name is required")
	}
	if u, parseErr := url.Parse(strings.TrimSpace(params.URL)); parseErr != nil || u.Scheme == "" || u.Host == "" {
		vErr.add("url", "url must be absolute")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	now := s.now()
	system = System{
		ID:          strings.TrimSpace(params.SystemID),
		Name:        strings.TrimSpace(params.Name),
		URL:         strings.TrimSpace(params.URL),
		Description: strings.TrimSpace(params.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if system.ID == "" {
		system.ID = s.idGenerator()
	}
	if err = s.repo.UpsertSystem(ctx, system); err != nil {
		err = mapDirectoryRepoError(err)
	}
	return
}

// ListSystems returns the systems catalog ordered by name.
func (s *DirectoryService) ListSystems(ctx context.Context, principal Principal) (systems []System, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if systems, err = s.repo.ListSystems(ctx); err != nil {
		return
	}
	sort.Slice(systems, func(i, j int) bool { return foldText(systems[i].Name) < foldText(systems[j].Name) })
	return
}

// LookupPostalCode fills an address form. Any failure yields a blank
// address and no error; there is no retry.
func (s *DirectoryService) LookupPostalCode(ctx context.Context, principal Principal, code string) postalcode.Address {
	if s == nil || s.postal == nil {
		return postalcode.Address{}
	}
	address, err := s.postal.Lookup(ctx, code)
	if err != nil {
		s.loggerWith(ctx, "LookupPostalCode", "principal_id", principal.UserID, "postal_code", code).
			WarnContext(ctx, "postal code lookup failed", "error", err)
		return postalcode.Address{}
	}
	return address
}

func applyEmployeeInput(employee Employee, input EmployeeInput) Employee {
	employee.Name = strings.TrimSpace(input.Name)
	employee.Email = strings.ToLower(strings.TrimSpace(input.Email))
	employee.Role = strings.TrimSpace(input.Role)
	if employee.Role == "" {
		employee.Role = RoleUser
	}
	employee.DepartmentID = strings.TrimSpace(input.DepartmentID)
	employee.UnitID = strings.TrimSpace(input.UnitID)
	employee.Position = strings.TrimSpace(input.Position)
	employee.Extension = strings.TrimSpace(input.Extension)
	employee.Phone = strings.TrimSpace(input.Phone)
	employee.Disabled = input.Disabled
	return employee
}

func validateEmployeeInput(input EmployeeInput, requirePassword bool) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		vErr.add("email", "email is required")
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		vErr.add("email", "email is invalid")
	}
	if role := strings.TrimSpace(input.Role); role != "" && !IsValidRole(role) {
		vErr.add("role", "role must be master, admin, ti or user")
	}
	switch {
	case requirePassword && input.Password == "":
		vErr.add("password", "password is required")
	case input.Password != "" && len([]rune(input.Password)) < MinPasswordLength:
		vErr.add("password", fmt.Sprintf("password must have at least %d characters", MinPasswordLength))
	}
	return vErr
}

func matchesEmployee(e Employee, needle string) bool {
	for _, field := range []string{e.Name, e.Email, e.Extension, e.Position} {
		if strings.Contains(foldText(field), needle) {
			return true
		}
	}
	return false
}

// foldText lowercases and strips diacritics, so "João" matches "joao".
func foldText(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func mapDirectoryRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate), errors.Is(err, ErrAlreadyExists):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		return newValidationError("role", "role must be master, admin, ti or user")
	}
	return err
}
