package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/persistence"
)

// directoryAdapter serves the directory service, the auth credential lookups
// and the read-only employee directory used by terms and signatures.
type directoryAdapter struct {
	repo persistence.DirectoryRepository
}

func newDirectoryAdapter(repo persistence.DirectoryRepository) *directoryAdapter {
	return &directoryAdapter{repo: repo}
}

func (a *directoryAdapter) CreateEmployee(ctx context.Context, credentials application.EmployeeCredentials) error {
	return a.repo.CreateEmployee(ctx, toPersistenceEmployee(credentials))
}

func (a *directoryAdapter) UpdateEmployee(ctx context.Context, credentials application.EmployeeCredentials) error {
	return a.repo.UpdateEmployee(ctx, toPersistenceEmployee(credentials))
}

func (a *directoryAdapter) GetEmployee(ctx context.Context, id string) (application.Employee, error) {
	stored, err := a.repo.GetEmployee(ctx, id)
	if err != nil {
		return application.Employee{}, err
	}
	return toApplicationEmployee(stored), nil
}

func (a *directoryAdapter) ListEmployees(ctx context.Context) ([]application.Employee, error) {
	stored, err := a.repo.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	employees := make([]application.Employee, 0, len(stored))
	for _, e := range stored {
		employees = append(employees, toApplicationEmployee(e))
	}
	return employees, nil
}

func (a *directoryAdapter) UpdateSignatureImage(ctx context.Context, employeeID, image string, updatedAt time.Time) error {
	return a.repo.UpdateSignatureImage(ctx, employeeID, image, updatedAt)
}

func (a *directoryAdapter) GetEmployeeCredentialsByEmail(ctx context.Context, email string) (application.EmployeeCredentials, error) {
	stored, err := a.repo.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return application.EmployeeCredentials{}, err
	}
	return application.EmployeeCredentials{Employee: toApplicationEmployee(stored), PasswordHash: stored.PasswordHash}, nil
}

func (a *directoryAdapter) GetEmployeeCredentials(ctx context.Context, id string) (application.EmployeeCredentials, error) {
	stored, err := a.repo.GetEmployee(ctx, id)
	if err != nil {
		return application.EmployeeCredentials{}, err
	}
	return application.EmployeeCredentials{Employee: toApplicationEmployee(stored), PasswordHash: stored.PasswordHash}, nil
}

func (a *directoryAdapter) UpsertUnit(ctx context.Context, unit application.Unit) error {
	return a.repo.UpsertUnit(ctx, persistence.Unit{
		ID:             unit.ID,
		Name:           unit.Name,
		Domain:         unit.Domain,
		Logo:           unit.Logo,
		LogoMIME:       unit.LogoMIME,
		Certifications: unit.Certifications,
		PostalCode:     unit.PostalCode,
		AddressLine1:   unit.AddressLine1,
		AddressLine2:   unit.AddressLine2,
		Phone:          unit.Phone,
		CreatedAt:      unit.CreatedAt,
		UpdatedAt:      unit.UpdatedAt,
	})
}

func (a *directoryAdapter) GetUnit(ctx context.Context, id string) (application.Unit, error) {
	stored, err := a.repo.GetUnit(ctx, id)
	if err != nil {
		return application.Unit{}, err
	}
	return toApplicationUnit(stored), nil
}

func (a *directoryAdapter) ListUnits(ctx context.Context) ([]application.Unit, error) {
	stored, err := a.repo.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	units := make([]application.Unit, 0, len(stored))
	for _, u := range stored {
		units = append(units, toApplicationUnit(u))
	}
	return units, nil
}

func (a *directoryAdapter) UpsertDepartment(ctx context.Context, department application.Department) error {
	return a.repo.UpsertDepartment(ctx, persistence.Department{
		ID:        department.ID,
		Name:      department.Name,
		UnitID:    department.UnitID,
		CreatedAt: department.CreatedAt,
		UpdatedAt: department.UpdatedAt,
	})
}

func (a *directoryAdapter) GetDepartment(ctx context.Context, id string) (application.Department, error) {
	stored, err := a.repo.GetDepartment(ctx, id)
	if err != nil {
		return application.Department{}, err
	}
	return application.Department(stored), nil
}

func (a *directoryAdapter) ListDepartments(ctx context.Context) ([]application.Department, error) {
	stored, err := a.repo.ListDepartments(ctx)
	if err != nil {
		return nil, err
	}
	departments := make([]application.Department, 0, len(stored))
	for _, d := range stored {
		departments = append(departments, application.Department(d))
	}
	return departments, nil
}

func (a *directoryAdapter) UpsertSystem(ctx context.Context, system application.System) error {
	return a.repo.UpsertSystem(ctx, persistence.System(system))
}

func (a *directoryAdapter) ListSystems(ctx context.Context) ([]application.System, error) {
	stored, err := a.repo.ListSystems(ctx)
	if err != nil {
		return nil, err
	}
	systems := make([]application.System, 0, len(stored))
	for _, s := range stored {
		systems = append(systems, application.System(s))
	}
	return systems, nil
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, persistence.Room(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return application.Room(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, persistence.Room(room)); err != nil {
		return application.Room{}, err
	}
	return a.GetRoom(ctx, room.ID)
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	stored, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(stored))
	for _, r := range stored {
		rooms = append(rooms, application.Room(r))
	}
	return rooms, nil
}

type appointmentRepositoryAdapter struct {
	repo persistence.AppointmentRepository
}

func newAppointmentRepositoryAdapter(repo persistence.AppointmentRepository) *appointmentRepositoryAdapter {
	return &appointmentRepositoryAdapter{repo: repo}
}

func (a *appointmentRepositoryAdapter) UpsertAppointment(ctx context.Context, appointment application.Appointment) error {
	return a.repo.UpsertAppointment(ctx, persistence.Appointment(appointment))
}

func (a *appointmentRepositoryAdapter) InsertAppointment(ctx context.Context, appointment application.Appointment) error {
	return a.repo.InsertAppointment(ctx, persistence.Appointment(appointment))
}

func (a *appointmentRepositoryAdapter) UpdateAppointmentDetails(ctx context.Context, id, subject string, participants []string, updatedAt time.Time) error {
	return a.repo.UpdateAppointmentDetails(ctx, id, subject, participants, updatedAt)
}

func (a *appointmentRepositoryAdapter) GetAppointment(ctx context.Context, id string) (application.Appointment, error) {
	stored, err := a.repo.GetAppointment(ctx, id)
	if err != nil {
		return application.Appointment{}, err
	}
	return application.Appointment(stored), nil
}

func (a *appointmentRepositoryAdapter) ListAppointmentsByRoom(ctx context.Context, roomID string) ([]application.Appointment, error) {
	stored, err := a.repo.ListAppointmentsByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	appointments := make([]application.Appointment, 0, len(stored))
	for _, ap := range stored {
		appointments = append(appointments, application.Appointment(ap))
	}
	return appointments, nil
}

func (a *appointmentRepositoryAdapter) DeleteAppointment(ctx context.Context, id string) error {
	return a.repo.DeleteAppointment(ctx, id)
}

type termRepositoryAdapter struct {
	repo persistence.TermRepository
}

func newTermRepositoryAdapter(repo persistence.TermRepository) *termRepositoryAdapter {
	return &termRepositoryAdapter{repo: repo}
}

func (a *termRepositoryAdapter) CreateTemplate(ctx context.Context, template application.TermTemplate) error {
	return a.repo.CreateTemplate(ctx, toPersistenceTemplate(template))
}

func (a *termRepositoryAdapter) UpdateTemplate(ctx context.Context, template application.TermTemplate) error {
	return a.repo.UpdateTemplate(ctx, toPersistenceTemplate(template))
}

func (a *termRepositoryAdapter) GetTemplate(ctx context.Context, id string) (application.TermTemplate, error) {
	stored, err := a.repo.GetTemplate(ctx, id)
	if err != nil {
		return application.TermTemplate{}, err
	}
	return toApplicationTemplate(stored), nil
}

func (a *termRepositoryAdapter) ListTemplates(ctx context.Context) ([]application.TermTemplate, error) {
	stored, err := a.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	templates := make([]application.TermTemplate, 0, len(stored))
	for _, t := range stored {
		templates = append(templates, toApplicationTemplate(t))
	}
	return templates, nil
}

func (a *termRepositoryAdapter) CreateTerm(ctx context.Context, term application.Term) error {
	return a.repo.CreateTerm(ctx, persistence.Term{
		ID:                term.ID,
		TemplateID:        term.TemplateID,
		Type:              string(term.Type),
		EmployeeID:        term.EmployeeID,
		EmployeeName:      term.EmployeeName,
		DepartmentID:      term.DepartmentID,
		EmployeeCPF:       term.EmployeeCPF,
		Status:            string(term.Status),
		Data:              term.Data,
		VerificationToken: term.VerificationToken,
		OriginalTermID:    term.OriginalTermID,
		IssuerID:          term.IssuerID,
		IssuerName:        term.IssuerName,
		SignatureImage:    term.SignatureImage,
		SignedAt:          cloneTime(term.SignedAt),
		CreatedAt:         term.CreatedAt,
	})
}

func (a *termRepositoryAdapter) GetTerm(ctx context.Context, id string) (application.Term, error) {
	stored, err := a.repo.GetTerm(ctx, id)
	if err != nil {
		return application.Term{}, err
	}
	return toApplicationTerm(stored), nil
}

func (a *termRepositoryAdapter) GetTermByToken(ctx context.Context, token string) (application.Term, error) {
	stored, err := a.repo.GetTermByToken(ctx, token)
	if err != nil {
		return application.Term{}, err
	}
	return toApplicationTerm(stored), nil
}

func (a *termRepositoryAdapter) ListTerms(ctx context.Context) ([]application.Term, error) {
	stored, err := a.repo.ListTerms(ctx)
	if err != nil {
		return nil, err
	}
	terms := make([]application.Term, 0, len(stored))
	for _, t := range stored {
		terms = append(terms, toApplicationTerm(t))
	}
	return terms, nil
}

func (a *termRepositoryAdapter) DeleteTerm(ctx context.Context, id string) error {
	return a.repo.DeleteTerm(ctx, id)
}

func (a *termRepositoryAdapter) MarkTermSigned(ctx context.Context, id, cpf, signatureImage string, signedAt time.Time) error {
	return a.repo.MarkTermSigned(ctx, id, persistence.TermSignature{
		CPF:            cpf,
		SignatureImage: signatureImage,
		SignedAt:       signedAt,
	})
}

type signatureRepositoryAdapter struct {
	repo persistence.SignatureRepository
}

func newSignatureRepositoryAdapter(repo persistence.SignatureRepository) *signatureRepositoryAdapter {
	return &signatureRepositoryAdapter{repo: repo}
}

func (a *signatureRepositoryAdapter) CreateSignatureRequest(ctx context.Context, request application.SignatureRequest) error {
	return a.repo.CreateSignatureRequest(ctx, toPersistenceSignatureRequest(request))
}

func (a *signatureRepositoryAdapter) GetSignatureRequest(ctx context.Context, id string) (application.SignatureRequest, error) {
	stored, err := a.repo.GetSignatureRequest(ctx, id)
	if err != nil {
		return application.SignatureRequest{}, err
	}
	return toApplicationSignatureRequest(stored), nil
}

func (a *signatureRepositoryAdapter) ListSignatureRequests(ctx context.Context) ([]application.SignatureRequest, error) {
	stored, err := a.repo.ListSignatureRequests(ctx)
	if err != nil {
		return nil, err
	}
	requests := make([]application.SignatureRequest, 0, len(stored))
	for _, r := range stored {
		requests = append(requests, toApplicationSignatureRequest(r))
	}
	return requests, nil
}

func (a *signatureRepositoryAdapter) CompleteSignatureRequest(ctx context.Context, request application.SignatureRequest) error {
	return a.repo.CompleteSignatureRequest(ctx, toPersistenceSignatureRequest(request))
}

func (a *signatureRepositoryAdapter) AppendSignatureLog(ctx context.Context, entry application.SignatureLog) error {
	return a.repo.AppendSignatureLog(ctx, persistence.SignatureLog(entry))
}

func (a *signatureRepositoryAdapter) ListSignatureLogs(ctx context.Context) ([]application.SignatureLog, error) {
	stored, err := a.repo.ListSignatureLogs(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]application.SignatureLog, 0, len(stored))
	for _, e := range stored {
		entries = append(entries, application.SignatureLog(e))
	}
	return entries, nil
}

type notificationRepositoryAdapter struct {
	repo persistence.NotificationRepository
}

func newNotificationRepositoryAdapter(repo persistence.NotificationRepository) *notificationRepositoryAdapter {
	return &notificationRepositoryAdapter{repo: repo}
}

func (a *notificationRepositoryAdapter) CreateNotification(ctx context.Context, notification application.Notification) error {
	return a.repo.CreateNotification(ctx, persistence.Notification(notification))
}

func (a *notificationRepositoryAdapter) ListNotifications(ctx context.Context, recipientID string) ([]application.Notification, error) {
	stored, err := a.repo.ListNotifications(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	notifications := make([]application.Notification, 0, len(stored))
	for _, n := range stored {
		notifications = append(notifications, application.Notification(n))
	}
	return notifications, nil
}

func (a *notificationRepositoryAdapter) MarkNotificationRead(ctx context.Context, recipientID, id string) error {
	return a.repo.MarkNotificationRead(ctx, recipientID, id)
}

// settingsRepositoryAdapter stores the settings singleton as one JSON document.
type settingsRepositoryAdapter struct {
	repo persistence.SettingsRepository
}

func newSettingsRepositoryAdapter(repo persistence.SettingsRepository) *settingsRepositoryAdapter {
	return &settingsRepositoryAdapter{repo: repo}
}

func (a *settingsRepositoryAdapter) GetSettings(ctx context.Context) (application.Settings, error) {
	stored, err := a.repo.GetSettings(ctx)
	if err != nil {
		return application.Settings{}, err
	}
	settings := application.DefaultSettings()
	if err := json.Unmarshal(stored.Payload, &settings); err != nil {
		return application.Settings{}, fmt.Errorf("decode settings payload: %w", err)
	}
	if settings.Departments == nil {
		settings.Departments = map[string]application.DepartmentPermissions{}
	}
	settings.UpdatedBy = stored.UpdatedBy
	settings.UpdatedAt = stored.UpdatedAt
	return settings, nil
}

func (a *settingsRepositoryAdapter) SaveSettings(ctx context.Context, settings application.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings payload: %w", err)
	}
	return a.repo.SaveSettings(ctx, persistence.Settings{
		Payload:   payload,
		UpdatedBy: settings.UpdatedBy,
		UpdatedAt: settings.UpdatedAt,
	})
}

// sessionRepositoryAdapter persists an HMAC digest of each session token, so
// the database never holds a usable bearer token. Results carry the plain
// token the caller passed in.
type sessionRepositoryAdapter struct {
	repo   persistence.SessionRepository
	secret []byte
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository, secret string) *sessionRepositoryAdapter {
	return &sessionRepositoryAdapter{repo: repo, secret: []byte(secret)}
}

func (a *sessionRepositoryAdapter) digest(token string) string {
	if token == "" {
		return ""
	}
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.CreateSession(ctx, a.toPersistence(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored, session.Token), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, a.digest(token))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored, token), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	stored, err := a.repo.UpdateSession(ctx, a.toPersistence(session))
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored, session.Token), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	stored, err := a.repo.RevokeSession(ctx, a.digest(token), revokedAt)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored, token), nil
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredSessions(ctx, reference)
}

func (a *sessionRepositoryAdapter) toPersistence(session application.Session) persistence.Session {
	return persistence.Session{
		ID:          session.ID,
		UserID:      session.UserID,
		Token:       a.digest(session.Token),
		Fingerprint: session.Fingerprint,
		ExpiresAt:   session.ExpiresAt,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
		RevokedAt:   cloneTime(session.RevokedAt),
	}
}

func toApplicationSession(model persistence.Session, token string) application.Session {
	return application.Session{
		ID:          model.ID,
		UserID:      model.UserID,
		Token:       token,
		Fingerprint: model.Fingerprint,
		ExpiresAt:   model.ExpiresAt,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
		RevokedAt:   cloneTime(model.RevokedAt),
	}
}

func toApplicationEmployee(model persistence.Employee) application.Employee {
	return application.Employee{
		ID:             model.ID,
		Name:           model.Name,
		Email:          model.Email,
		Role:           model.Role,
		DepartmentID:   model.DepartmentID,
		UnitID:         model.UnitID,
		Position:       model.Position,
		Extension:      model.Extension,
		Phone:          model.Phone,
		SignatureImage: model.SignatureImage,
		Disabled:       model.Disabled,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceEmployee(credentials application.EmployeeCredentials) persistence.Employee {
	e := credentials.Employee
	return persistence.Employee{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		Role:           e.Role,
		DepartmentID:   e.DepartmentID,
		UnitID:         e.UnitID,
		Position:       e.Position,
		Extension:      e.Extension,
		Phone:          e.Phone,
		SignatureImage: e.SignatureImage,
		PasswordHash:   credentials.PasswordHash,
		Disabled:       e.Disabled,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toApplicationUnit(model persistence.Unit) application.Unit {
	return application.Unit{
		ID:             model.ID,
		Name:           model.Name,
		Domain:         model.Domain,
		Logo:           model.Logo,
		LogoMIME:       model.LogoMIME,
		Certifications: model.Certifications,
		PostalCode:     model.PostalCode,
		AddressLine1:   model.AddressLine1,
		AddressLine2:   model.AddressLine2,
		Phone:          model.Phone,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func toPersistenceTemplate(template application.TermTemplate) persistence.TermTemplate {
	fields := make([]persistence.TemplateField, 0, len(template.Fields))
	for _, f := range template.Fields {
		fields = append(fields, persistence.TemplateField(f))
	}
	variables := make([]persistence.TemplateVariable, 0, len(template.Variables))
	for _, v := range template.Variables {
		variables = append(variables, persistence.TemplateVariable(v))
	}
	return persistence.TermTemplate{
		ID:           template.ID,
		Name:         template.Name,
		Title:        template.Title,
		MovementType: string(template.MovementType),
		DepartmentID: template.DepartmentID,
		Body:         template.Body,
		Fields:       fields,
		Variables:    variables,
		Seals:        template.Seals,
		CreatedBy:    template.CreatedBy,
		CreatedAt:    template.CreatedAt,
		UpdatedAt:    template.UpdatedAt,
	}
}

func toApplicationTemplate(model persistence.TermTemplate) application.TermTemplate {
	fields := make([]application.TemplateField, 0, len(model.Fields))
	for _, f := range model.Fields {
		fields = append(fields, application.TemplateField(f))
	}
	variables := make([]application.TemplateVariable, 0, len(model.Variables))
	for _, v := range model.Variables {
		variables = append(variables, application.TemplateVariable(v))
	}
	return application.TermTemplate{
		ID:           model.ID,
		Name:         model.Name,
		Title:        model.Title,
		MovementType: application.MovementType(model.MovementType),
		DepartmentID: model.DepartmentID,
		Body:         model.Body,
		Fields:       fields,
		Variables:    variables,
		Seals:        model.Seals,
		CreatedBy:    model.CreatedBy,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func toApplicationTerm(model persistence.Term) application.Term {
	return application.Term{
		ID:                model.ID,
		TemplateID:        model.TemplateID,
		Type:              application.MovementType(model.Type),
		EmployeeID:        model.EmployeeID,
		EmployeeName:      model.EmployeeName,
		DepartmentID:      model.DepartmentID,
		EmployeeCPF:       model.EmployeeCPF,
		Status:            application.TermStatus(model.Status),
		Data:              model.Data,
		VerificationToken: model.VerificationToken,
		OriginalTermID:    model.OriginalTermID,
		IssuerID:          model.IssuerID,
		IssuerName:        model.IssuerName,
		SignatureImage:    model.SignatureImage,
		SignedAt:          cloneTime(model.SignedAt),
		CreatedAt:         model.CreatedAt,
	}
}

func toPersistenceSignatureData(data application.SignatureData) persistence.SignatureData {
	phones := make([]persistence.SignaturePhone, 0, len(data.Phones))
	for _, p := range data.Phones {
		phones = append(phones, persistence.SignaturePhone(p))
	}
	return persistence.SignatureData{
		Name:   data.Name,
		Email:  data.Email,
		UnitID: data.UnitID,
		Sector: data.Sector,
		Phones: phones,
	}
}

func toApplicationSignatureData(data persistence.SignatureData) application.SignatureData {
	phones := make([]application.SignaturePhone, 0, len(data.Phones))
	for _, p := range data.Phones {
		phones = append(phones, application.SignaturePhone(p))
	}
	return application.SignatureData{
		Name:   data.Name,
		Email:  data.Email,
		UnitID: data.UnitID,
		Sector: data.Sector,
		Phones: phones,
	}
}

func toPersistenceSignatureRequest(request application.SignatureRequest) persistence.SignatureRequest {
	out := persistence.SignatureRequest{
		ID:            request.ID,
		RequesterID:   request.RequesterID,
		RequesterName: request.RequesterName,
		Status:        request.Status,
		Requested:     toPersistenceSignatureData(request.Requested),
		ImageDataURL:  request.ImageDataURL,
		GeneratedBy:   request.GeneratedBy,
		CreatedAt:     request.CreatedAt,
		CompletedAt:   cloneTime(request.CompletedAt),
	}
	if request.Final != nil {
		final := toPersistenceSignatureData(*request.Final)
		out.Final = &final
	}
	return out
}

func toApplicationSignatureRequest(model persistence.SignatureRequest) application.SignatureRequest {
	out := application.SignatureRequest{
		ID:            model.ID,
		RequesterID:   model.RequesterID,
		RequesterName: model.RequesterName,
		Status:        model.Status,
		Requested:     toApplicationSignatureData(model.Requested),
		ImageDataURL:  model.ImageDataURL,
		GeneratedBy:   model.GeneratedBy,
		CreatedAt:     model.CreatedAt,
		CompletedAt:   cloneTime(model.CompletedAt),
	}
	if model.Final != nil {
		final := toApplicationSignatureData(*model.Final)
		out.Final = &final
	}
	return out
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
