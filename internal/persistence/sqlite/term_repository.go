package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/intranet-portal/internal/persistence"
)

// TermRepository implements persistence.TermRepository using SQLite
type TermRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTermRepository creates a new SQLite term repository
func NewTermRepository(pool *ConnectionPool) *TermRepository {
	return &TermRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const templateColumns = `id, name, title, movement_type, department_id, body, fields, variables, seals,
	created_by, created_at, updated_at`

// CreateTemplate inserts a new term template.
func (r *TermRepository) CreateTemplate(ctx context.Context, template persistence.TermTemplate) error {
	if template.ID == "" {
		return persistence.ErrConstraintViolation
	}
	args, err := templateArgs(template)
	if err != nil {
		return err
	}
	_, err = r.helper.Exec(ctx, `
		INSERT INTO term_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	return r.mapper.MapError(err)
}

// UpdateTemplate replaces the editable fields of a template.
func (r *TermRepository) UpdateTemplate(ctx context.Context, template persistence.TermTemplate) error {
	if template.ID == "" {
		return persistence.ErrConstraintViolation
	}
	args, err := templateArgs(template)
	if err != nil {
		return err
	}
	// drop id, created_by and created_at; append id for the WHERE clause
	update := append([]any{}, args[1:9]...)
	update = append(update, args[11], template.ID)

	result, err := r.helper.Exec(ctx, `
		UPDATE term_templates
		SET name = ?, title = ?, movement_type = ?, department_id = ?, body = ?,
			fields = ?, variables = ?, seals = ?, updated_at = ?
		WHERE id = ?`, update...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

func templateArgs(template persistence.TermTemplate) ([]any, error) {
	fields, err := encodeJSON(template.Fields, "[]")
	if err != nil {
		return nil, err
	}
	variables, err := encodeJSON(template.Variables, "[]")
	if err != nil {
		return nil, err
	}
	seals, err := encodeJSON(template.Seals, "[]")
	if err != nil {
		return nil, err
	}
	return []any{
		template.ID,
		template.Name,
		template.Title,
		template.MovementType,
		template.DepartmentID,
		template.Body,
		fields,
		variables,
		seals,
		template.CreatedBy,
		formatTime(template.CreatedAt),
		formatTime(template.UpdatedAt),
	}, nil
}

// GetTemplate retrieves a template by ID.
func (r *TermRepository) GetTemplate(ctx context.Context, id string) (persistence.TermTemplate, error) {
	if id == "" {
		return persistence.TermTemplate{}, persistence.ErrNotFound
	}
	template, err := scanTemplate(r.helper.QueryRow(ctx,
		`SELECT `+templateColumns+` FROM term_templates WHERE id = ?`, id))
	if err != nil {
		return persistence.TermTemplate{}, r.mapper.MapError(err)
	}
	return template, nil
}

// ListTemplates returns all templates ordered by name.
func (r *TermRepository) ListTemplates(ctx context.Context) ([]persistence.TermTemplate, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+templateColumns+` FROM term_templates ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var templates []persistence.TermTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return templates, nil
}

func scanTemplate(row rowScanner) (persistence.TermTemplate, error) {
	var (
		template                 persistence.TermTemplate
		fields, variables, seals string
		createdAt, updatedAt     string
	)
	err := row.Scan(
		&template.ID,
		&template.Name,
		&template.Title,
		&template.MovementType,
		&template.DepartmentID,
		&template.Body,
		&fields,
		&variables,
		&seals,
		&template.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.TermTemplate{}, err
	}
	if err = decodeJSON("fields", fields, &template.Fields); err != nil {
		return persistence.TermTemplate{}, err
	}
	if err = decodeJSON("variables", variables, &template.Variables); err != nil {
		return persistence.TermTemplate{}, err
	}
	if err = decodeJSON("seals", seals, &template.Seals); err != nil {
		return persistence.TermTemplate{}, err
	}
	if template.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.TermTemplate{}, err
	}
	if template.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.TermTemplate{}, err
	}
	return template, nil
}

// --- terms ---

const termColumns = `id, template_id, type, employee_id, employee_name, department_id, employee_cpf, status,
	data, verification_token, original_term_id, issuer_id, issuer_name, signature_image, signed_at, created_at`

// CreateTerm inserts an issued term.
func (r *TermRepository) CreateTerm(ctx context.Context, term persistence.Term) error {
	if term.ID == "" || strings.TrimSpace(term.VerificationToken) == "" {
		return persistence.ErrConstraintViolation
	}
	data, err := encodeJSON(term.Data, "{}")
	if err != nil {
		return err
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO terms (`+termColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		term.ID,
		term.TemplateID,
		term.Type,
		term.EmployeeID,
		term.EmployeeName,
		term.DepartmentID,
		term.EmployeeCPF,
		term.Status,
		data,
		term.VerificationToken,
		nullString(term.OriginalTermID),
		term.IssuerID,
		term.IssuerName,
		term.SignatureImage,
		nullTime(term.SignedAt),
		formatTime(term.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetTerm retrieves a term by ID.
func (r *TermRepository) GetTerm(ctx context.Context, id string) (persistence.Term, error) {
	if id == "" {
		return persistence.Term{}, persistence.ErrNotFound
	}
	term, err := scanTerm(r.helper.QueryRow(ctx, `SELECT `+termColumns+` FROM terms WHERE id = ?`, id))
	if err != nil {
		return persistence.Term{}, r.mapper.MapError(err)
	}
	return term, nil
}

// GetTermByToken retrieves a term by its verification token.
func (r *TermRepository) GetTermByToken(ctx context.Context, token string) (persistence.Term, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Term{}, persistence.ErrNotFound
	}
	term, err := scanTerm(r.helper.QueryRow(ctx, `SELECT `+termColumns+` FROM terms WHERE verification_token = ?`, token))
	if err != nil {
		return persistence.Term{}, r.mapper.MapError(err)
	}
	return term, nil
}

// ListTerms returns all terms, newest first.
func (r *TermRepository) ListTerms(ctx context.Context) ([]persistence.Term, error) {
	rows, err := r.helper.Query(ctx, `SELECT `+termColumns+` FROM terms ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var terms []persistence.Term
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return terms, nil
}

// DeleteTerm removes a term.
func (r *TermRepository) DeleteTerm(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM terms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return expectAffected(result)
}

// MarkTermSigned writes the signature fields only while the term is still
// PENDENTE, so an existing signature is never overwritten.
func (r *TermRepository) MarkTermSigned(ctx context.Context, id string, signature persistence.TermSignature) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE terms
			SET status = 'ASSINADO', employee_cpf = ?, signature_image = ?, signed_at = ?
			WHERE id = ? AND status = 'PENDENTE'`,
			signature.CPF,
			signature.SignatureImage,
			formatTime(signature.SignedAt),
			id,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 1 {
			return nil
		}

		var status string
		err = r.helper.QueryRowTx(ctx, tx, `SELECT status FROM terms WHERE id = ?`, id).Scan(&status)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return persistence.ErrConflict
	})
}

func scanTerm(row rowScanner) (persistence.Term, error) {
	var (
		term           persistence.Term
		data           string
		originalTermID sql.NullString
		signedAt       sql.NullString
		createdAt      string
	)
	err := row.Scan(
		&term.ID,
		&term.TemplateID,
		&term.Type,
		&term.EmployeeID,
		&term.EmployeeName,
		&term.DepartmentID,
		&term.EmployeeCPF,
		&term.Status,
		&data,
		&term.VerificationToken,
		&originalTermID,
		&term.IssuerID,
		&term.IssuerName,
		&term.SignatureImage,
		&signedAt,
		&createdAt,
	)
	if err != nil {
		return persistence.Term{}, err
	}
	term.OriginalTermID = originalTermID.String
	if err = decodeJSON("data", data, &term.Data); err != nil {
		return persistence.Term{}, err
	}
	if term.SignedAt, err = parseNullTime("signed_at", signedAt); err != nil {
		return persistence.Term{}, err
	}
	if term.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Term{}, err
	}
	return term, nil
}
