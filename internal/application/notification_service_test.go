package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
)

type notificationRepoStub struct {
	mu        sync.Mutex
	records   []Notification
	failFor   map[string]bool
	markedIDs []string
}

func (r *notificationRepoStub) CreateNotification(ctx context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[n.RecipientID] {
		return errors.New("insert failed")
	}
	r.records = append(r.records, n)
	return nil
}

func (r *notificationRepoStub) ListNotifications(ctx context.Context, recipientID string) ([]Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.records {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *notificationRepoStub) MarkNotificationRead(ctx context.Context, recipientID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.records {
		if n.ID == id && n.RecipientID == recipientID {
			r.records[i].Read = true
			r.markedIDs = append(r.markedIDs, id)
			return nil
		}
	}
	return persistence.ErrNotFound
}

type rendererStub struct {
	err error
}

func (r rendererStub) Render(kind string, params notification.Params) (notification.Message, error) {
	if r.err != nil {
		return notification.Message{}, r.err
	}
	return notification.Message{Title: kind, Body: params.Actor + " " + params.Document}, nil
}

var notifyNow = time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

func TestNotificationService_NotifyDeduplicatesRecipients(t *testing.T) {
	t.Parallel()

	repo := &notificationRepoStub{}
	metrics := &metricsSpy{}
	svc := NewNotificationServiceWithLogger(repo, rendererStub{}, sequenceIDs("n1", "n2", "n3"), fixedClock(notifyNow), metrics, nil)

	written := svc.Notify(context.Background(), NotifyParams{
		Recipients: []string{"u1", " u1 ", "", "u2", "   "},
		Kind:       notification.KindTermIssued,
		Params:     notification.Params{Actor: "Ana", Document: "Entrega de notebook"},
		Link:       "/terms/t1",
	})
	if written != 2 {
		t.Fatalf("expected 2 records, got %d", written)
	}
	if len(repo.records) != 2 || repo.records[0].RecipientID != "u1" || repo.records[1].RecipientID != "u2" {
		t.Fatalf("unexpected records %+v", repo.records)
	}
	first := repo.records[0]
	if first.Title != notification.KindTermIssued || first.Body != "Ana Entrega de notebook" || first.Link != "/terms/t1" {
		t.Fatalf("unexpected rendered record %+v", first)
	}
	if first.Read || !first.CreatedAt.Equal(notifyNow) {
		t.Fatalf("expected unread record stamped with now, got %+v", first)
	}
	if len(metrics.notifications) != 2 {
		t.Fatalf("expected 2 metric samples, got %v", metrics.notifications)
	}
}

func TestNotificationService_NotifySwallowsFailures(t *testing.T) {
	t.Parallel()

	t.Run("write failures skip the recipient", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{failFor: map[string]bool{"u1": true}}
		metrics := &metricsSpy{}
		svc := NewNotificationServiceWithLogger(repo, rendererStub{}, sequenceIDs("n1", "n2"), fixedClock(notifyNow), metrics, nil)

		written := svc.Notify(context.Background(), NotifyParams{Recipients: []string{"u1", "u2"}, Kind: notification.KindTermSigned})
		if written != 1 || len(repo.records) != 1 || repo.records[0].RecipientID != "u2" {
			t.Fatalf("expected only u2 to be written, got %d %+v", written, repo.records)
		}
		if metrics.notifications[0] != notification.KindTermSigned+":error" {
			t.Fatalf("expected failure to be counted, got %v", metrics.notifications)
		}
	})

	t.Run("render failures write nothing", func(t *testing.T) {
		t.Parallel()
		repo := &notificationRepoStub{}
		svc := NewNotificationService(repo, rendererStub{err: notification.ErrUnknownKind}, sequenceIDs("n1"), fixedClock(notifyNow))

		if written := svc.Notify(context.Background(), NotifyParams{Recipients: []string{"u1"}, Kind: "bogus"}); written != 0 {
			t.Fatalf("expected nothing written, got %d", written)
		}
		if len(repo.records) != 0 {
			t.Fatalf("expected no records, got %+v", repo.records)
		}
	})

	t.Run("nil service is a no-op", func(t *testing.T) {
		t.Parallel()
		var svc *NotificationService
		if written := svc.Notify(context.Background(), NotifyParams{Recipients: []string{"u1"}}); written != 0 {
			t.Fatalf("expected 0, got %d", written)
		}
	})
}

func TestNotificationService_NotifyWithCatalogRenderer(t *testing.T) {
	t.Parallel()

	renderer, err := notification.NewRenderer()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	repo := &notificationRepoStub{}
	svc := NewNotificationService(repo, renderer, sequenceIDs("n1"), fixedClock(notifyNow))

	svc.Notify(context.Background(), NotifyParams{
		Recipients: []string{"u1"},
		Kind:       notification.KindBookingCreated,
		Params:     notification.Params{Room: "Sala Ipê", Date: "15/10/2026", Time: "10:15", Slots: 3},
	})
	if len(repo.records) != 1 || repo.records[0].Title != "Reserva confirmada" {
		t.Fatalf("unexpected records %+v", repo.records)
	}
}

func TestNotificationService_ListNotifications(t *testing.T) {
	t.Parallel()

	repo := &notificationRepoStub{records: []Notification{
		{ID: "old", RecipientID: "u1", CreatedAt: notifyNow.Add(-time.Hour)},
		{ID: "new", RecipientID: "u1", CreatedAt: notifyNow},
		{ID: "other", RecipientID: "u2", CreatedAt: notifyNow},
	}}
	svc := NewNotificationService(repo, nil, nil, fixedClock(notifyNow))

	list, err := svc.ListNotifications(context.Background(), userPrincipal("u1"))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("expected newest first for u1 only, got %+v", list)
	}

	if _, err := svc.ListNotifications(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous principal, got %v", err)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	t.Parallel()

	repo := &notificationRepoStub{records: []Notification{
		{ID: "n1", RecipientID: "u1"},
		{ID: "n2", RecipientID: "u2"},
	}}
	svc := NewNotificationService(repo, nil, nil, fixedClock(notifyNow))

	if err := svc.MarkRead(context.Background(), userPrincipal("u1"), " n1 "); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
	if !repo.records[0].Read {
		t.Fatalf("expected n1 to be read")
	}
	if err := svc.MarkRead(context.Background(), userPrincipal("u1"), "n2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for someone else's notification, got %v", err)
	}
}
