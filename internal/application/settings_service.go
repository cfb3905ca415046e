package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

// DashboardSettings toggles the dashboard widgets.
type DashboardSettings struct {
	ShowNews       bool `json:"showNews"`
	ShowBirthdays  bool `json:"showBirthdays"`
	ShowRooms      bool `json:"showRooms"`
	ShowTerms      bool `json:"showTerms"`
	ShowSignatures bool `json:"showSignatures"`
}

// DepartmentPermissions is one row of the term permission matrix.
type DepartmentPermissions struct {
	Enabled            bool `json:"enabled"`
	CanCreateTemplates bool `json:"canCreateTemplates"`
	CanIssueTerms      bool `json:"canIssueTerms"`
	CanDelete          bool `json:"canDelete"`
	CanReturn          bool `json:"canReturn"`
	CanSeeAllSectors   bool `json:"canSeeAllSectors"`
}

// Settings is the portal-wide configuration singleton.
type Settings struct {
	Dashboard   DashboardSettings                `json:"dashboard"`
	Departments map[string]DepartmentPermissions `json:"departments"`
	UpdatedBy   string                           `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time                        `json:"updatedAt"`
}

// DefaultSettings is used until an administrator saves the singleton.
func DefaultSettings() Settings {
	return Settings{
		Dashboard: DashboardSettings{
			ShowNews:       true,
			ShowBirthdays:  true,
			ShowRooms:      true,
			ShowTerms:      true,
			ShowSignatures: true,
		},
		Departments: map[string]DepartmentPermissions{},
	}
}

func (s Settings) clone() Settings {
	out := s
	out.Departments = make(map[string]DepartmentPermissions, len(s.Departments))
	for id, perms := range s.Departments {
		out.Departments[id] = perms
	}
	return out
}

// SettingsRepository loads and stores the singleton.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// UpdateSettingsParams wraps a full replacement of the singleton.
type UpdateSettingsParams struct {
	Principal Principal
	Settings  Settings
}

// SettingsService holds the current settings snapshot. Readers get an
// immutable copy; writers replace the whole snapshot and then notify
// subscribers.
type SettingsService struct {
	repo    SettingsRepository
	now     func() time.Time
	logger  *slog.Logger
	current atomic.Pointer[Settings]

	mu          sync.Mutex
	nextID      int
	subscribers map[int]func(Settings)
}

// NewSettingsService constructs a settings service seeded with defaults.
func NewSettingsService(repo SettingsRepository, now func() time.Time) *SettingsService {
	return NewSettingsServiceWithLogger(repo, now, nil)
}

// NewSettingsServiceWithLogger constructs a settings service with a specified logger.
func NewSettingsServiceWithLogger(repo SettingsRepository, now func() time.Time, logger *slog.Logger) *SettingsService {
	if now == nil {
		now = time.Now
	}
	s := &SettingsService{
		repo:        repo,
		now:         now,
		logger:      defaultLogger(logger),
		subscribers: make(map[int]func(Settings)),
	}
	defaults := DefaultSettings()
	s.current.Store(&defaults)
	return s
}

func (s *SettingsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SettingsService", operation, attrs...)
}

// Current returns a copy of the active snapshot.
func (s *SettingsService) Current() Settings {
	if s == nil {
		return DefaultSettings()
	}
	return s.current.Load().clone()
}

// Subscribe registers fn to receive every new snapshot. The returned func
// removes the subscription.
func (s *SettingsService) Subscribe(fn func(Settings)) (unsubscribe func()) {
	if s == nil || fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, id)
			s.mu.Unlock()
		})
	}
}

// Reload re-reads the singleton from the store and publishes it. A missing
// record keeps the defaults.
func (s *SettingsService) Reload(ctx context.Context) (settings Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Reload")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to reload settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("department_count", len(settings.Departments)).InfoContext(ctx, "settings reloaded")
	}()

	if s.repo == nil {
		settings = s.Current()
		return
	}

	settings, err = s.repo.GetSettings(ctx)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			err = nil
			settings = DefaultSettings()
		} else {
			return
		}
	}
	if settings.Departments == nil {
		settings.Departments = map[string]DepartmentPermissions{}
	}
	s.publish(settings)
	return
}

// Update persists a full replacement of the singleton.
func (s *SettingsService) Update(ctx context.Context, params UpdateSettingsParams) (settings Settings, err error) {
	if s == nil {
		err = fmt.Errorf("SettingsService is nil")
		return
	}
	logger := s.loggerWith(ctx, "Update", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update settings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "settings updated")
	}()

	if !params.Principal.Can(CapSettingsManage) {
		err = ErrUnauthorized
		return
	}

	settings = params.Settings.clone()
	vErr := &ValidationError{}
	for id := range settings.Departments {
		if strings.TrimSpace(id) == "" {
			vErr.add("departments", "department id is required")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	settings.UpdatedBy = params.Principal.UserID
	settings.UpdatedAt = s.now()

	if s.repo != nil {
		if err = s.repo.SaveSettings(ctx, settings); err != nil {
			return
		}
	}
	s.publish(settings)
	return
}

func (s *SettingsService) publish(settings Settings) {
	snapshot := settings.clone()
	s.current.Store(&snapshot)

	s.mu.Lock()
	subscribers := make([]func(Settings), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot.clone())
	}
}
