package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/intranet-portal/internal/persistence"
)

// SignatureRepository implements persistence.SignatureRepository using SQLite
type SignatureRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSignatureRepository creates a new SQLite signature repository
func NewSignatureRepository(pool *ConnectionPool) *SignatureRepository {
	return &SignatureRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const signatureRequestColumns = `id, requester_id, requester_name, status, requested, final,
	image_data_url, generated_by, created_at, completed_at`

// CreateSignatureRequest inserts a pending request.
func (r *SignatureRepository) CreateSignatureRequest(ctx context.Context, request persistence.SignatureRequest) error {
	if request.ID == "" || request.RequesterID == "" {
		return persistence.ErrConstraintViolation
	}
	requested, err := json.Marshal(request.Requested)
	if err != nil {
		return fmt.Errorf("failed to encode requested data: %w", err)
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO signature_requests (`+signatureRequestColumns+`)
		VALUES (?, ?, ?, ?, ?, NULL, '', '', ?, NULL)`,
		request.ID,
		request.RequesterID,
		request.RequesterName,
		request.Status,
		string(requested),
		formatTime(request.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// GetSignatureRequest retrieves a request by ID.
func (r *SignatureRepository) GetSignatureRequest(ctx context.Context, id string) (persistence.SignatureRequest, error) {
	if id == "" {
		return persistence.SignatureRequest{}, persistence.ErrNotFound
	}
	request, err := scanSignatureRequest(r.helper.QueryRow(ctx,
		`SELECT `+signatureRequestColumns+` FROM signature_requests WHERE id = ?`, id))
	if err != nil {
		return persistence.SignatureRequest{}, r.mapper.MapError(err)
	}
	return request, nil
}

// ListSignatureRequests returns every request, newest first.
func (r *SignatureRepository) ListSignatureRequests(ctx context.Context) ([]persistence.SignatureRequest, error) {
	rows, err := r.helper.Query(ctx,
		`SELECT `+signatureRequestColumns+` FROM signature_requests ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var requests []persistence.SignatureRequest
	for rows.Next() {
		request, err := scanSignatureRequest(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return requests, nil
}

// CompleteSignatureRequest stores the rendered signature on a pending request.
func (r *SignatureRepository) CompleteSignatureRequest(ctx context.Context, request persistence.SignatureRequest) error {
	var final sql.NullString
	if request.Final != nil {
		raw, err := json.Marshal(request.Final)
		if err != nil {
			return fmt.Errorf("failed to encode final data: %w", err)
		}
		final = sql.NullString{String: string(raw), Valid: true}
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE signature_requests
			SET status = 'COMPLETED', final = ?, image_data_url = ?, generated_by = ?, completed_at = ?
			WHERE id = ? AND status = 'PENDING'`,
			final,
			request.ImageDataURL,
			request.GeneratedBy,
			nullTime(request.CompletedAt),
			request.ID,
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
		if err := r.helper.QueryRowTx(ctx, tx, `SELECT status FROM signature_requests WHERE id = ?`, request.ID).Scan(&status); err != nil {
			return r.mapper.MapError(err)
		}
		return persistence.ErrConflict
	})
}

func scanSignatureRequest(row rowScanner) (persistence.SignatureRequest, error) {
	var (
		request     persistence.SignatureRequest
		requested   string
		final       sql.NullString
		createdAt   string
		completedAt sql.NullString
	)
	err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.RequesterName,
		&request.Status,
		&requested,
		&final,
		&request.ImageDataURL,
		&request.GeneratedBy,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		return persistence.SignatureRequest{}, err
	}
	if err = decodeJSON("requested", requested, &request.Requested); err != nil {
		return persistence.SignatureRequest{}, err
	}
	if final.Valid {
		var data persistence.SignatureData
		if err = decodeJSON("final", final.String, &data); err != nil {
			return persistence.SignatureRequest{}, err
		}
		request.Final = &data
	}
	if request.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.SignatureRequest{}, err
	}
	if request.CompletedAt, err = parseNullTime("completed_at", completedAt); err != nil {
		return persistence.SignatureRequest{}, err
	}
	return request, nil
}

// AppendSignatureLog records a generated signature.
func (r *SignatureRepository) AppendSignatureLog(ctx context.Context, entry persistence.SignatureLog) error {
	if entry.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO signature_logs (id, request_id, name, email, unit_id, generated_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.RequestID,
		entry.Name,
		entry.Email,
		entry.UnitID,
		entry.GeneratedBy,
		formatTime(entry.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// ListSignatureLogs returns the generation log, newest first.
func (r *SignatureRepository) ListSignatureLogs(ctx context.Context) ([]persistence.SignatureLog, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT id, request_id, name, email, unit_id, generated_by, created_at
		FROM signature_logs
		ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.SignatureLog
	for rows.Next() {
		var (
			entry     persistence.SignatureLog
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.RequestID, &entry.Name, &entry.Email, &entry.UnitID, &entry.GeneratedBy, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if entry.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return entries, nil
}
