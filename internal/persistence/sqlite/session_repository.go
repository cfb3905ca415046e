package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

// SessionRepository implements persistence.SessionRepository using SQLite
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionColumns = `id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at`

// CreateSession stores a new session token for a user
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}
	if normalized.UserID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}

	_, err = r.helper.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		normalized.ID,
		normalized.UserID,
		normalized.Token,
		normalized.Fingerprint,
		formatTime(normalized.ExpiresAt),
		nullTime(normalized.RevokedAt),
		formatTime(normalized.CreatedAt),
		formatTime(normalized.UpdatedAt),
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return normalized, nil
}

// GetSession retrieves a session by its token value
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	session, err := scanSession(r.helper.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = ?`, token))
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	return session, nil
}

// UpdateSession updates mutable fields of an existing session
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	normalized, err := normalizeSession(session)
	if err != nil {
		return persistence.Session{}, err
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE sessions
		SET token = ?, fingerprint = ?, expires_at = ?, revoked_at = ?, updated_at = ?
		WHERE id = ?`,
		normalized.Token,
		normalized.Fingerprint,
		formatTime(normalized.ExpiresAt),
		nullTime(normalized.RevokedAt),
		formatTime(normalized.UpdatedAt),
		normalized.ID,
	)
	if err != nil {
		return persistence.Session{}, r.mapper.MapError(err)
	}
	if err := expectAffected(result); err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, normalized.Token)
}

// RevokeSession marks a session as revoked based on its token value
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx,
			`UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?`,
			formatTime(revokedAt), formatTime(revokedAt), token,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return expectAffected(result)
	})
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired on or before the provided timestamp
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, formatTime(reference))
	return r.mapper.MapError(err)
}

func normalizeSession(session persistence.Session) (persistence.Session, error) {
	if session.ID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.Token = strings.TrimSpace(session.Token)
	if session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.Fingerprint = strings.TrimSpace(session.Fingerprint)
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	if session.RevokedAt != nil {
		revoked := session.RevokedAt.UTC()
		session.RevokedAt = &revoked
	}
	return session, nil
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var (
		session                         persistence.Session
		expiresAt, createdAt, updatedAt string
		revokedAt                       sql.NullString
	)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.Fingerprint,
		&expiresAt,
		&revokedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Session{}, err
	}
	if session.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if session.RevokedAt, err = parseNullTime("revoked_at", revokedAt); err != nil {
		return persistence.Session{}, err
	}
	if session.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	if session.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}
