package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/persistence"
)

type settingsRepoStub struct {
	mu       sync.Mutex
	stored   *Settings
	getErr   error
	saveErr  error
	saveHits int
}

func (r *settingsRepoStub) GetSettings(ctx context.Context) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return Settings{}, r.getErr
	}
	if r.stored == nil {
		return Settings{}, persistence.ErrNotFound
	}
	return r.stored.clone(), nil
}

func (r *settingsRepoStub) SaveSettings(ctx context.Context, settings Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saveHits++
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := settings.clone()
	r.stored = &clone
	return nil
}

var settingsNow = time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)

func TestSettingsService_ReloadFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	svc := NewSettingsService(&settingsRepoStub{}, fixedClock(settingsNow))
	settings, err := svc.Reload(context.Background())
	if err != nil {
		t.Fatalf("expected defaults on missing record, got %v", err)
	}
	if !settings.Dashboard.ShowRooms || settings.Departments == nil {
		t.Fatalf("expected default settings, got %+v", settings)
	}
}

func TestSettingsService_ReloadPublishesStoredSnapshot(t *testing.T) {
	t.Parallel()

	stored := DefaultSettings()
	stored.Departments["dep-ti"] = DepartmentPermissions{Enabled: true, CanIssueTerms: true}
	repo := &settingsRepoStub{stored: &stored}
	svc := NewSettingsService(repo, fixedClock(settingsNow))

	var got []Settings
	unsubscribe := svc.Subscribe(func(s Settings) { got = append(got, s) })
	defer unsubscribe()

	if _, err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !svc.Current().Departments["dep-ti"].CanIssueTerms {
		t.Fatalf("expected stored permissions to be current")
	}
	if len(got) != 1 {
		t.Fatalf("expected one published snapshot, got %d", len(got))
	}
}

func TestSettingsService_ReloadPropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk gone")
	svc := NewSettingsService(&settingsRepoStub{getErr: boom}, fixedClock(settingsNow))
	if _, err := svc.Reload(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if !svc.Current().Dashboard.ShowNews {
		t.Fatalf("expected defaults to remain current")
	}
}

func TestSettingsService_Update(t *testing.T) {
	t.Parallel()

	t.Run("requires settings.manage", func(t *testing.T) {
		t.Parallel()
		repo := &settingsRepoStub{}
		svc := NewSettingsService(repo, fixedClock(settingsNow))
		_, err := svc.Update(context.Background(), UpdateSettingsParams{Principal: userPrincipal("u1"), Settings: DefaultSettings()})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if repo.saveHits != 0 {
			t.Fatalf("expected no save, got %d", repo.saveHits)
		}
	})

	t.Run("rejects blank department ids", func(t *testing.T) {
		t.Parallel()
		svc := NewSettingsService(&settingsRepoStub{}, fixedClock(settingsNow))
		next := DefaultSettings()
		next.Departments[" "] = DepartmentPermissions{Enabled: true}

		_, err := svc.Update(context.Background(), UpdateSettingsParams{Principal: adminPrincipal("a1"), Settings: next})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("stamps, saves and publishes", func(t *testing.T) {
		t.Parallel()
		repo := &settingsRepoStub{}
		svc := NewSettingsService(repo, fixedClock(settingsNow))
		published := make(chan Settings, 1)
		svc.Subscribe(func(s Settings) { published <- s })

		next := DefaultSettings()
		next.Dashboard.ShowNews = false
		next.Departments["dep-rh"] = DepartmentPermissions{Enabled: true, CanDelete: true}

		saved, err := svc.Update(context.Background(), UpdateSettingsParams{Principal: adminPrincipal("a1"), Settings: next})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if saved.UpdatedBy != "a1" || !saved.UpdatedAt.Equal(settingsNow) {
			t.Fatalf("expected audit fields, got %+v", saved)
		}
		if repo.stored == nil || repo.stored.Dashboard.ShowNews {
			t.Fatalf("expected settings to be saved, got %+v", repo.stored)
		}
		select {
		case snapshot := <-published:
			if !snapshot.Departments["dep-rh"].CanDelete {
				t.Fatalf("unexpected published snapshot %+v", snapshot)
			}
		default:
			t.Fatalf("expected subscribers to be notified")
		}
	})

	t.Run("keeps the old snapshot when saving fails", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("locked")
		svc := NewSettingsService(&settingsRepoStub{saveErr: boom}, fixedClock(settingsNow))
		next := DefaultSettings()
		next.Dashboard.ShowTerms = false

		if _, err := svc.Update(context.Background(), UpdateSettingsParams{Principal: adminPrincipal("a1"), Settings: next}); !errors.Is(err, boom) {
			t.Fatalf("expected save error, got %v", err)
		}
		if !svc.Current().Dashboard.ShowTerms {
			t.Fatalf("expected previous snapshot to stay current")
		}
	})
}

func TestSettingsService_CurrentIsACopy(t *testing.T) {
	t.Parallel()

	svc := NewSettingsService(nil, fixedClock(settingsNow))
	snapshot := svc.Current()
	snapshot.Departments["dep-x"] = DepartmentPermissions{Enabled: true}

	if _, ok := svc.Current().Departments["dep-x"]; ok {
		t.Fatalf("expected Current to return an independent copy")
	}
}

func TestSettingsService_Unsubscribe(t *testing.T) {
	t.Parallel()

	svc := NewSettingsService(nil, fixedClock(settingsNow))
	calls := 0
	unsubscribe := svc.Subscribe(func(Settings) { calls++ })
	unsubscribe()
	unsubscribe()

	if _, err := svc.Update(context.Background(), UpdateSettingsParams{Principal: adminPrincipal("a1"), Settings: DefaultSettings()}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}
