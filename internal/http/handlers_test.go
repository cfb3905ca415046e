package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/postalcode"
)

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(recorder.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
	}
	return out
}

func serve(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer tok")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	return recorder
}

var testPrincipal = application.Principal{
	UserID:       "emp-1",
	Name:         "João",
	Role:         application.RoleUser,
	Capabilities: application.NewCapabilitySet(application.CapAppointmentsBook, application.CapTermsSignOwn),
}

type authServiceStub struct {
	result application.AuthenticateResult
	err    error
	params application.AuthenticateParams
}

func (a *authServiceStub) Authenticate(ctx context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	a.params = params
	return a.result, a.err
}

func (a *authServiceStub) RefreshSession(ctx context.Context, params application.RefreshSessionParams) (application.RefreshSessionResult, error) {
	return application.RefreshSessionResult{Session: a.result.Session}, a.err
}

func (a *authServiceStub) RevokeSession(ctx context.Context, token string) error {
	return a.err
}

func TestAuthHandler_CreateSession(t *testing.T) {
	t.Parallel()

	t.Run("issues the token via cookie and header", func(t *testing.T) {
		t.Parallel()
		expires := time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)
		stub := &authServiceStub{result: application.AuthenticateResult{
			Employee: application.Employee{ID: "emp-1", Name: "João", Email: "joao@example.com"},
			Session:  application.Session{ID: "s1", Token: "secret", ExpiresAt: expires},
		}}
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(stub, nil)})

		recorder := serve(router, http.MethodPost, "/sessions", `{"email":" Joao@Example.com ","password":"segredo123"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		if recorder.Header().Get("X-Session-Token") != "secret" {
			t.Fatalf("expected session header, got %q", recorder.Header().Get("X-Session-Token"))
		}
		cookies := recorder.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != "session_token" || cookies[0].Value != "secret" || !cookies[0].HttpOnly {
			t.Fatalf("unexpected cookies %+v", cookies)
		}
		if stub.params.Email != "joao@example.com" {
			t.Fatalf("expected normalized email, got %q", stub.params.Email)
		}
		resp := decodeBody[sessionResponse](t, recorder)
		if resp.Employee == nil || resp.Employee.ID != "emp-1" {
			t.Fatalf("expected employee in response, got %+v", resp)
		}
	})

	t.Run("rejects wrong credentials with 401", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{err: application.ErrInvalidCredentials}, nil)})
		recorder := serve(router, http.MethodPost, "/sessions", `{"email":"joao@example.com","password":"x"}`)
		if recorder.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", recorder.Code)
		}
	})

	t.Run("validates the payload", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Auth: NewAuthHandler(&authServiceStub{}, nil)})

		recorder := serve(router, http.MethodPost, "/sessions", `{"email":"not-an-email"}`)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		resp := decodeBody[errorResponse](t, recorder)
		if resp.Errors["email"] == "" || resp.Errors["password"] == "" {
			t.Fatalf("expected email and password field errors, got %+v", resp.Errors)
		}

		recorder = serve(router, http.MethodPost, "/sessions", `{"email":"a@b.c","password":"x","extra":true}`)
		if recorder.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown fields, got %d", recorder.Code)
		}
	})
}

func TestAuthHandler_Me(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{
		Auth:     NewAuthHandler(&authServiceStub{}, nil),
		Sessions: &fakeSessionValidator{principal: testPrincipal},
	})
	recorder := serve(router, http.MethodGet, "/me", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	resp := decodeBody[principalDTO](t, recorder)
	if resp.UserID != "emp-1" || len(resp.Capabilities) != 2 {
		t.Fatalf("unexpected principal %+v", resp)
	}
}

func TestResponder_HandleServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{application.ErrUnauthorized, http.StatusForbidden},
		{application.ErrNotFound, http.StatusNotFound},
		{application.ErrInvalidCredentials, http.StatusUnauthorized},
		{application.ErrSlotTaken, http.StatusConflict},
		{application.ErrAlreadySigned, http.StatusConflict},
		{application.ErrReturnExists, http.StatusConflict},
		{application.ErrAlreadyExists, http.StatusConflict},
		{&application.ValidationError{FieldErrors: map[string]string{"cpf": "cpf must have 11 digits"}}, http.StatusUnprocessableEntity},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		recorder := httptest.NewRecorder()
		newResponder(nil).handleServiceError(context.Background(), recorder, tc.err)
		if recorder.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, recorder.Code)
		}
	}

	recorder := httptest.NewRecorder()
	newResponder(nil).handleServiceError(context.Background(), recorder, application.ErrInvalidCredentials)
	if resp := decodeBody[errorResponse](t, recorder); resp.Message != "Senha incorreta" {
		t.Fatalf("expected pt-BR password message, got %q", resp.Message)
	}

	recorder = httptest.NewRecorder()
	newResponder(nil).handleServiceError(context.Background(), recorder, &application.ValidationError{FieldErrors: map[string]string{"cpf": "cpf must have 11 digits"}})
	if resp := decodeBody[errorResponse](t, recorder); resp.Errors["cpf"] != "O CPF deve ter 11 dígitos." {
		t.Fatalf("expected translated field error, got %+v", resp.Errors)
	}
}

func TestRouter_GuardsPrivateRoutes(t *testing.T) {
	t.Parallel()

	router := NewRouter(RouterConfig{
		Rooms:    NewRoomHandler(&roomServiceStub{}, nil),
		Terms:    NewTermHandler(&termServiceStub{}, nil),
		Sessions: &fakeSessionValidator{err: application.ErrUnauthorized},
	})

	if recorder := serve(router, http.MethodGet, "/rooms", ""); recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for guarded route, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodGet, "/verify/abc", ""); recorder.Code != http.StatusOK {
		t.Fatalf("expected public verification route, got %d", recorder.Code)
	}
	if recorder := serve(router, http.MethodPatch, "/rooms", ""); recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

type roomServiceStub struct {
	rooms []application.Room
	err   error
	input application.RoomInput
}

func (s *roomServiceStub) CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error) {
	s.input = params.Input
	if s.err != nil {
		return application.Room{}, s.err
	}
	return application.Room{ID: "r1", Name: params.Input.Name, StartTime: params.Input.StartTime, EndTime: params.Input.EndTime}, nil
}

func (s *roomServiceStub) UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error) {
	return application.Room{ID: params.RoomID}, s.err
}

func (s *roomServiceStub) DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error {
	return s.err
}

func (s *roomServiceStub) GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error) {
	return application.Room{ID: roomID}, s.err
}

func (s *roomServiceStub) ListRooms(ctx context.Context, principal application.Principal) ([]application.Room, error) {
	return s.rooms, s.err
}

func TestRoomHandlers(t *testing.T) {
	t.Parallel()

	t.Run("lists rooms for any principal", func(t *testing.T) {
		t.Parallel()
		stub := &roomServiceStub{rooms: []application.Room{{ID: "r1", Name: "Sala Ipê"}}}
		router := NewRouter(RouterConfig{Rooms: NewRoomHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodGet, "/rooms", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		resp := decodeBody[listRoomsResponse](t, recorder)
		if len(resp.Rooms) != 1 || resp.Rooms[0].Name != "Sala Ipê" || resp.Rooms[0].Features == nil {
			t.Fatalf("unexpected rooms %+v", resp.Rooms)
		}
	})

	t.Run("maps unauthorized mutations to 403", func(t *testing.T) {
		t.Parallel()
		stub := &roomServiceStub{err: application.ErrUnauthorized}
		router := NewRouter(RouterConfig{Rooms: NewRoomHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodPost, "/rooms", `{"name":" Sala ","startTime":"08:00","endTime":"18:00","features":[" tv ",""]}`)
		if recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
		if stub.input.Name != "Sala" || len(stub.input.Features) != 1 || stub.input.Features[0] != "tv" {
			t.Fatalf("expected trimmed input, got %+v", stub.input)
		}
	})
}

type bookingServiceStub struct {
	result application.BookSlotsResult
	params application.BookSlotsParams
	offset int
}

func (s *bookingServiceStub) ListAppointments(ctx context.Context, principal application.Principal, roomID, date string) ([]application.Appointment, error) {
	return nil, nil
}

func (s *bookingServiceStub) BookSlots(ctx context.Context, params application.BookSlotsParams) (application.BookSlotsResult, error) {
	s.params = params
	return s.result, nil
}

func (s *bookingServiceStub) UpdateAppointment(ctx context.Context, params application.UpdateAppointmentParams) (application.Appointment, error) {
	return application.Appointment{}, application.ErrUnauthorized
}

func (s *bookingServiceStub) DeleteAppointment(ctx context.Context, principal application.Principal, appointmentID string) error {
	return application.ErrUnauthorized
}

func (s *bookingServiceStub) DayView(ctx context.Context, principal application.Principal, roomID, date string) (application.DayView, error) {
	return application.DayView{}, application.ErrNotFound
}

func (s *bookingServiceStub) WeekView(ctx context.Context, principal application.Principal, roomID string, offset int) (application.WeekView, error) {
	s.offset = offset
	return application.WeekView{Room: application.Room{ID: roomID}, Offset: offset}, nil
}

func TestAppointmentHandlers(t *testing.T) {
	t.Parallel()

	t.Run("reports partial booking failures per slot", func(t *testing.T) {
		t.Parallel()
		stub := &bookingServiceStub{result: application.BookSlotsResult{
			Booked: []application.Appointment{{ID: "r1_2026-10-15_10-30", Time: "10:30"}},
			Failed: []application.SlotFailure{{Time: "11:00", Err: application.ErrSlotTaken}},
		}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodPost, "/rooms/r1/bookings", `{"date":"2026-10-15","times":["10:30","11:00"],"subject":"Daily"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeBody[bookSlotsResponse](t, recorder)
		if len(resp.Booked) != 1 || len(resp.Failed) != 1 || resp.Failed[0].ErrorKind != "slot_taken" {
			t.Fatalf("unexpected booking response %+v", resp)
		}
		if stub.params.RoomID != "r1" || stub.params.Principal.UserID != "emp-1" {
			t.Fatalf("expected room and principal to reach the service, got %+v", stub.params)
		}
	})

	t.Run("lists slots that replaced existing appointments", func(t *testing.T) {
		t.Parallel()
		stub := &bookingServiceStub{result: application.BookSlotsResult{
			Booked:      []application.Appointment{{ID: "r1_2026-10-15_10-30", Time: "10:30"}},
			Overwritten: []application.SlotOverwrite{{Time: "10:30", AppointmentID: "r1_2026-10-15_10-30", PreviousOwnerID: "emp-9"}},
		}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodPost, "/rooms/r1/bookings", `{"date":"2026-10-15","times":["10:30"],"subject":"Daily"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
		resp := decodeBody[bookSlotsResponse](t, recorder)
		if len(resp.Overwritten) != 1 || resp.Overwritten[0].PreviousOwnerID != "emp-9" {
			t.Fatalf("unexpected overwritten slots %+v", resp.Overwritten)
		}
	})

	t.Run("answers 409 when every slot was taken", func(t *testing.T) {
		t.Parallel()
		stub := &bookingServiceStub{result: application.BookSlotsResult{
			Failed: []application.SlotFailure{{Time: "11:00", Err: application.ErrSlotTaken}},
		}}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodPost, "/rooms/r1/bookings", `{"date":"2026-10-15","times":["11:00"],"subject":"Daily"}`)
		if recorder.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", recorder.Code)
		}
	})

	t.Run("parses the week offset", func(t *testing.T) {
		t.Parallel()
		stub := &bookingServiceStub{}
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		if recorder := serve(router, http.MethodGet, "/rooms/r1/week?offset=-2", ""); recorder.Code != http.StatusOK || stub.offset != -2 {
			t.Fatalf("expected offset -2, got %d (status %d)", stub.offset, recorder.Code)
		}
		if recorder := serve(router, http.MethodGet, "/rooms/r1/week?offset=abc", ""); recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for bad offset, got %d", recorder.Code)
		}
	})

	t.Run("forbids editing other people's appointments", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Appointments: NewAppointmentHandler(&bookingServiceStub{}, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})
		if recorder := serve(router, http.MethodPatch, "/appointments/a1", `{"subject":"x"}`); recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
		if recorder := serve(router, http.MethodDelete, "/appointments/a1", ""); recorder.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", recorder.Code)
		}
	})
}

// termServiceStub overrides the methods a test needs; the rest panic
// through the nil embedded interface.
type termServiceStub struct {
	termService
	signErr    error
	signParams application.SignTermParams
}

func (s *termServiceStub) SignTerm(ctx context.Context, params application.SignTermParams) (application.Term, error) {
	s.signParams = params
	if s.signErr != nil {
		return application.Term{}, s.signErr
	}
	signedAt := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)
	return application.Term{ID: params.TermID, Status: application.TermSigned, SignedAt: &signedAt, SignatureImage: "data:image/png;base64,AAAA"}, nil
}

func (s *termServiceStub) VerifyTerm(ctx context.Context, token string) (application.TermVerification, error) {
	if token != "abc" {
		return application.TermVerification{}, application.ErrNotFound
	}
	return application.TermVerification{TermID: "t1", Title: "Entrega de notebook", Status: application.TermPending}, nil
}

func (s *termServiceStub) CreateTemplate(ctx context.Context, params application.CreateTemplateParams) (application.TermTemplate, error) {
	return application.TermTemplate{ID: "tpl-1", Name: params.Input.Name, MovementType: params.Input.MovementType}, nil
}

func TestTermHandlers(t *testing.T) {
	t.Parallel()

	t.Run("signing maps service errors", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			err    error
			status int
		}{
			{nil, http.StatusOK},
			{application.ErrInvalidCredentials, http.StatusUnauthorized},
			{application.ErrAlreadySigned, http.StatusConflict},
			{application.ErrUnauthorized, http.StatusForbidden},
		}
		for _, tc := range tests {
			stub := &termServiceStub{signErr: tc.err}
			router := NewRouter(RouterConfig{Terms: NewTermHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})
			recorder := serve(router, http.MethodPost, "/terms/t1/sign", `{"password":"segredo123","cpf":"123.456.789-09"}`)
			if recorder.Code != tc.status {
				t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, recorder.Code)
			}
			if stub.signParams.TermID != "t1" || stub.signParams.CPF != "123.456.789-09" {
				t.Fatalf("unexpected sign params %+v", stub.signParams)
			}
			if tc.err == nil {
				resp := decodeBody[termResponse](t, recorder)
				if !resp.Term.Signed || resp.Term.SignedAt == "" {
					t.Fatalf("expected signed term, got %+v", resp.Term)
				}
				if strings.Contains(recorder.Body.String(), "base64") {
					t.Fatalf("signature image must not be serialized")
				}
			}
		}
	})

	t.Run("verification is public and hides unknown tokens", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Terms: NewTermHandler(&termServiceStub{}, nil), Sessions: &fakeSessionValidator{err: application.ErrUnauthorized}})

		recorder := serve(router, http.MethodGet, "/verify/abc", "")
		if recorder.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", recorder.Code)
		}
		if resp := decodeBody[verificationResponse](t, recorder); resp.TermID != "t1" || resp.Status != "PENDENTE" {
			t.Fatalf("unexpected verification %+v", resp)
		}
		if recorder := serve(router, http.MethodGet, "/verify/zzz", ""); recorder.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", recorder.Code)
		}
	})

	t.Run("template payload is validated before the service", func(t *testing.T) {
		t.Parallel()
		router := NewRouter(RouterConfig{Terms: NewTermHandler(&termServiceStub{}, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

		recorder := serve(router, http.MethodPost, "/term-templates", `{"name":"Notebook","title":"Entrega","movementType":"venda","fields":[{"label":"Modelo"}]}`)
		if recorder.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", recorder.Code)
		}
		resp := decodeBody[errorResponse](t, recorder)
		if resp.Errors["movementType"] == "" || resp.Errors["fields[0].key"] == "" {
			t.Fatalf("expected movementType and nested field errors, got %+v", resp.Errors)
		}

		recorder = serve(router, http.MethodPost, "/term-templates", `{"name":"Notebook","title":"Entrega","movementType":"entrega"}`)
		if recorder.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", recorder.Code, recorder.Body.String())
		}
	})
}

type directoryServiceStub struct {
	directoryService
	query string
}

func (s *directoryServiceStub) SearchEmployees(ctx context.Context, principal application.Principal, query string) ([]application.Employee, error) {
	s.query = query
	return []application.Employee{{ID: "emp-1", Name: "João", SignatureImage: "data:image/png;base64,AAAA"}}, nil
}

func (s *directoryServiceStub) LookupPostalCode(ctx context.Context, principal application.Principal, code string) postalcode.Address {
	return postalcode.Address{}
}

func TestDirectoryHandlers(t *testing.T) {
	t.Parallel()

	stub := &directoryServiceStub{}
	router := NewRouter(RouterConfig{Directory: NewDirectoryHandler(stub, nil), Sessions: &fakeSessionValidator{principal: testPrincipal}})

	recorder := serve(router, http.MethodGet, "/employees?q=joao", "")
	if recorder.Code != http.StatusOK || stub.query != "joao" {
		t.Fatalf("expected search for joao, got %q (status %d)", stub.query, recorder.Code)
	}
	resp := decodeBody[listEmployeesResponse](t, recorder)
	if len(resp.Employees) != 1 || !resp.Employees[0].HasSignatureImage {
		t.Fatalf("unexpected employees %+v", resp.Employees)
	}
	if strings.Contains(recorder.Body.String(), "base64") {
		t.Fatalf("signature image must not be listed")
	}

	recorder = serve(router, http.MethodGet, "/postal-codes/00000000", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected blank address with 200, got %d", recorder.Code)
	}
}
