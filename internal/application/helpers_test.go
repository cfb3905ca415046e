package application

import (
	"context"
	"sync"
	"time"
)

func principalWith(id, role string, caps ...Capability) Principal {
	return Principal{UserID: id, Name: "User " + id, Role: role, Capabilities: NewCapabilitySet(caps...)}
}

func adminPrincipal(id string) Principal {
	p := principalWith(id, RoleAdmin, AllCapabilities()...)
	p.Name = "Admin " + id
	return p
}

func userPrincipal(id string) Principal {
	return principalWith(id, RoleUser, CapAppointmentsBook, CapTermsSignOwn, CapSignaturesRequest)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(ids ...string) func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(ids) {
			return ""
		}
		id := ids[next]
		next++
		return id
	}
}

type notifierSpy struct {
	mu    sync.Mutex
	calls []NotifyParams
}

func (n *notifierSpy) Notify(ctx context.Context, params NotifyParams) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, params)
	return len(params.Recipients)
}

func (n *notifierSpy) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.Kind)
	}
	return out
}

type metricsSpy struct {
	mu            sync.Mutex
	bookings      []string
	transitions   []string
	notifications []string
	renders       []bool
}

func (m *metricsSpy) BookingWritten(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, outcome)
}

func (m *metricsSpy) TermTransition(transition string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, transition)
}

func (m *metricsSpy) NotificationWritten(kind string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "ok"
	if !ok {
		status = "error"
	}
	m.notifications = append(m.notifications, kind+":"+status)
}

func (m *metricsSpy) SignatureRendered(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.renders = append(m.renders, ok)
}

type directoryStub struct {
	employees   map[string]Employee
	departments map[string]Department
	units       []Unit
	listErr     error
}

func (d *directoryStub) GetEmployee(ctx context.Context, id string) (Employee, error) {
	e, ok := d.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (d *directoryStub) ListEmployees(ctx context.Context) ([]Employee, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	out := make([]Employee, 0, len(d.employees))
	for _, e := range d.employees {
		out = append(out, e)
	}
	return out, nil
}

func (d *directoryStub) GetDepartment(ctx context.Context, id string) (Department, error) {
	dept, ok := d.departments[id]
	if !ok {
		return Department{}, ErrNotFound
	}
	return dept, nil
}

func (d *directoryStub) GetUnit(ctx context.Context, id string) (Unit, error) {
	for _, u := range d.units {
		if u.ID == id {
			return u, nil
		}
	}
	return Unit{}, ErrNotFound
}

func (d *directoryStub) ListUnits(ctx context.Context) ([]Unit, error) {
	return append([]Unit(nil), d.units...), nil
}
