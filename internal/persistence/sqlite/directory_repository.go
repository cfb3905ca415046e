package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

// DirectoryRepository implements persistence.DirectoryRepository using SQLite
type DirectoryRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewDirectoryRepository creates a new SQLite directory repository
func NewDirectoryRepository(pool *ConnectionPool) *DirectoryRepository {
	return &DirectoryRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const employeeColumns = `id, name, email, role, department_id, unit_id, position, extension, phone,
	signature_image, password_hash, disabled, created_at, updated_at`

// CreateEmployee inserts a new employee record.
func (r *DirectoryRepository) CreateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" || strings.TrimSpace(employee.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO employees (`+employeeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		employee.ID,
		employee.Name,
		strings.ToLower(strings.TrimSpace(employee.Email)),
		employee.Role,
		employee.DepartmentID,
		employee.UnitID,
		employee.Position,
		employee.Extension,
		employee.Phone,
		employee.SignatureImage,
		employee.PasswordHash,
		boolToInt(employee.Disabled),
		formatTime(employee.CreatedAt),
		formatTime(employee.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateEmployee replaces the mutable directory fields. The password hash and
// signature image are left untouched when empty.
func (r *DirectoryRepository) UpdateEmployee(ctx context.Context, employee persistence.Employee) error {
	if employee.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE employees
		SET name = ?, email = ?, role = ?, department_id = ?, unit_id = ?, position = ?,
			extension = ?, phone = ?, disabled = ?,
			password_hash = CASE WHEN ? = '' THEN password_hash ELSE ? END,
			signature_image = CASE WHEN ? = '' THEN signature_image ELSE ? END,
			updated_at = ?
		WHERE id = ?`,
		employee.Name,
		strings.ToLower(strings.TrimSpace(employee.Email)),
		employee.Role,
		employee.DepartmentID,
		employee.UnitID,
		employee.Position,
		employee.Extension,
		employee.Phone,
		boolToInt(employee.Disabled),
		employee.PasswordHash, employee.PasswordHash,
		employee.SignatureImage, employee.SignatureImage,
		formatTime(employee.UpdatedAt),
		employee.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// GetEmployee retrieves an employee by ID.
func (r *DirectoryRepository) GetEmployee(ctx context.Context, id string) (persistence.Employee, error) {
	if id == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	employee, err := scanEmployee(row)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

// GetEmployeeByEmail retrieves an employee by case-insensitive email.
func (r *DirectoryRepository) GetEmployeeByEmail(ctx context.Context, email string) (persistence.Employee, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return persistence.Employee{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = ?`, normalized)
	employee, err := scanEmployee(row)
	if err != nil {
		return persistence.Employee{}, r.mapper.MapError(err)
	}
	return employee, nil
}

// ListEmployees returns all employees ordered by name.
func (r *DirectoryRepository) ListEmployees(ctx context.Context) ([]persistence.Employee, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var employees []persistence.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return employees, nil
}

// UpdateSignatureImage stores the PNG data URL captured in profile settings.
func (r *DirectoryRepository) UpdateSignatureImage(ctx context.Context, employeeID, image string, updatedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE employees SET signature_image = ?, updated_at = ? WHERE id = ?`,
		image, formatTime(updatedAt), employeeID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

func scanEmployee(row rowScanner) (persistence.Employee, error) {
	var (
		employee             persistence.Employee
		disabled             int
		createdAt, updatedAt string
	)
	err := row.Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Role,
		&employee.DepartmentID,
		&employee.UnitID,
		&employee.Position,
		&employee.Extension,
		&employee.Phone,
		&employee.SignatureImage,
		&employee.PasswordHash,
		&disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Employee{}, err
	}
	employee.Disabled = disabled != 0
	if employee.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Employee{}, err
	}
	if employee.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Employee{}, err
	}
	return employee, nil
}

// --- units ---

const unitColumns = `id, name, domain, logo, logo_mime, certifications, postal_code,
	address_line1, address_line2, phone, created_at, updated_at`

// UpsertUnit inserts or replaces a unit, keeping the original creation time.
func (r *DirectoryRepository) UpsertUnit(ctx context.Context, unit persistence.Unit) error {
	if unit.ID == "" {
		return persistence.ErrConstraintViolation
	}
	certifications, err := encodeJSON(unit.Certifications, "[]")
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO units (`+unitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			domain = excluded.domain,
			logo = excluded.logo,
			logo_mime = excluded.logo_mime,
			certifications = excluded.certifications,
			postal_code = excluded.postal_code,
			address_line1 = excluded.address_line1,
			address_line2 = excluded.address_line2,
			phone = excluded.phone,
			updated_at = excluded.updated_at`,
		unit.ID,
		unit.Name,
		unit.Domain,
		unit.Logo,
		unit.LogoMIME,
		certifications,
		unit.PostalCode,
		unit.AddressLine1,
		unit.AddressLine2,
		unit.Phone,
		formatTime(unit.CreatedAt),
		formatTime(unit.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetUnit retrieves a unit by ID.
func (r *DirectoryRepository) GetUnit(ctx context.Context, id string) (persistence.Unit, error) {
	if id == "" {
		return persistence.Unit{}, persistence.ErrNotFound
	}
	unit, err := scanUnit(r.helper.QueryRow(ctx, `SELECT `+unitColumns+` FROM units WHERE id = ?`, id))
	if err != nil {
		return persistence.Unit{}, r.mapper.MapError(err)
	}
	return unit, nil
}

// ListUnits returns all units ordered by name.
func (r *DirectoryRepository) ListUnits(ctx context.Context) ([]persistence.Unit, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+unitColumns+` FROM units ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var units []persistence.Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return units, nil
}

func scanUnit(row rowScanner) (persistence.Unit, error) {
	var (
		unit                 persistence.Unit
		certifications       string
		createdAt, updatedAt string
	)
	err := row.Scan(
		&unit.ID,
		&unit.Name,
		&unit.Domain,
		&unit.Logo,
		&unit.LogoMIME,
		&certifications,
		&unit.PostalCode,
		&unit.AddressLine1,
		&unit.AddressLine2,
		&unit.Phone,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Unit{}, err
	}
	if err = decodeJSON("certifications", certifications, &unit.Certifications); err != nil {
		return persistence.Unit{}, err
	}
	if unit.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Unit{}, err
	}
	if unit.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Unit{}, err
	}
	return unit, nil
}

// --- departments ---

// UpsertDepartment inserts or replaces a department.
func (r *DirectoryRepository) UpsertDepartment(ctx context.Context, department persistence.Department) error {
	if department.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO departments (id, name, unit_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			unit_id = excluded.unit_id,
			updated_at = excluded.updated_at`,
		department.ID,
		department.Name,
		department.UnitID,
		formatTime(department.CreatedAt),
		formatTime(department.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetDepartment retrieves a department by ID.
func (r *DirectoryRepository) GetDepartment(ctx context.Context, id string) (persistence.Department, error) {
	if id == "" {
		return persistence.Department{}, persistence.ErrNotFound
	}
	department, err := scanDepartment(r.helper.QueryRow(ctx,
		`SELECT id, name, unit_id, created_at, updated_at FROM departments WHERE id = ?`, id))
	if err != nil {
		return persistence.Department{}, r.mapper.MapError(err)
	}
	return department, nil
}

// ListDepartments returns all departments ordered by name.
func (r *DirectoryRepository) ListDepartments(ctx context.Context) ([]persistence.Department, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, name, unit_id, created_at, updated_at FROM departments ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var departments []persistence.Department
	for rows.Next() {
		department, err := scanDepartment(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		departments = append(departments, department)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return departments, nil
}

func scanDepartment(row rowScanner) (persistence.Department, error) {
	var (
		department           persistence.Department
		createdAt, updatedAt string
	)
	if err := row.Scan(&department.ID, &department.Name, &department.UnitID, &createdAt, &updatedAt); err != nil {
		return persistence.Department{}, err
	}
	var err error
	if department.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Department{}, err
	}
	if department.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Department{}, err
	}
	return department, nil
}

// --- systems ---

// UpsertSystem inserts or replaces a system link.
func (r *DirectoryRepository) UpsertSystem(ctx context.Context, system persistence.System) error {
	if system.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO systems (id, name, url, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			url = excluded.url,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		system.ID,
		system.Name,
		system.URL,
		system.Description,
		formatTime(system.CreatedAt),
		formatTime(system.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// ListSystems returns all systems ordered by name.
func (r *DirectoryRepository) ListSystems(ctx context.Context) ([]persistence.System, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT id, name, url, description, created_at, updated_at FROM systems ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var systems []persistence.System
	for rows.Next() {
		var (
			system               persistence.System
			createdAt, updatedAt string
		)
		if err := rows.Scan(&system.ID, &system.Name, &system.URL, &system.Description, &createdAt, &updatedAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if system.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if system.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		systems = append(systems, system)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return systems, nil
}
