package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/document"
	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
)

// TermRepository stores templates and issued terms.
type TermRepository interface {
	CreateTemplate(ctx context.Context, template TermTemplate) error
	UpdateTemplate(ctx context.Context, template TermTemplate) error
	GetTemplate(ctx context.Context, id string) (TermTemplate, error)
	ListTemplates(ctx context.Context) ([]TermTemplate, error)

	CreateTerm(ctx context.Context, term Term) error
	GetTerm(ctx context.Context, id string) (Term, error)
	GetTermByToken(ctx context.Context, token string) (Term, error)
	ListTerms(ctx context.Context) ([]Term, error)
	DeleteTerm(ctx context.Context, id string) error
	// MarkTermSigned moves a PENDENTE term to ASSINADO. A term that is no
	// longer pending yields persistence.ErrConflict.
	MarkTermSigned(ctx context.Context, id, cpf, signatureImage string, signedAt time.Time) error
}

// EmployeeDirectory is the read side of the directory used by other services.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	GetDepartment(ctx context.Context, id string) (Department, error)
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnits(ctx context.Context) ([]Unit, error)
}

// Reauthenticator confirms the password of a signed-in employee.
type Reauthenticator interface {
	Reauthenticate(ctx context.Context, employeeID, password string) error
}

// NewVerificationToken returns 32 random bytes, hex encoded.
func NewVerificationToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("read random token: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Term transitions reported to Metrics.
const (
	TransitionIssued       = "issued"
	TransitionReturnIssued = "return_issued"
	TransitionSigned       = "signed"
	TransitionSignConflict = "sign_conflict"
	TransitionDeleted      = "deleted"
)

// TermOptions tunes a TermService.
type TermOptions struct {
	Location *time.Location
	Metrics  Metrics
	Logger   *slog.Logger
}

// TermService issues, renders, signs and verifies terms.
type TermService struct {
	repo           TermRepository
	directory      EmployeeDirectory
	auth           Reauthenticator
	notifier       Notifier
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	location       *time.Location
	metrics        Metrics
	logger         *slog.Logger
}

// NewTermService constructs a term service.
func NewTermService(repo TermRepository, directory EmployeeDirectory, auth Reauthenticator, notifier Notifier, idGenerator, tokenGenerator func() string, now func() time.Time) *TermService {
	return NewTermServiceWithOptions(repo, directory, auth, notifier, idGenerator, tokenGenerator, now, TermOptions{})
}

// NewTermServiceWithOptions constructs a term service with explicit options.
func NewTermServiceWithOptions(repo TermRepository, directory EmployeeDirectory, auth Reauthenticator, notifier Notifier, idGenerator, tokenGenerator func() string, now func() time.Time, opts TermOptions) *TermService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = NewVerificationToken
	}
	if now == nil {
		now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &TermService{
		repo:           repo,
		directory:      directory,
		auth:           auth,
		notifier:       defaultNotifier(notifier),
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		location:       opts.Location,
		metrics:        defaultMetrics(opts.Metrics),
		logger:         defaultLogger(opts.Logger),
	}
}

func (s *TermService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TermService", operation, attrs...)
}

func (s *TermService) ready() error {
	if s == nil {
		return fmt.Errorf("TermService is nil")
	}
	if s.repo == nil || s.directory == nil {
		return fmt.Errorf("term repositories not configured")
	}
	return nil
}

// CreateTemplate stores a new template in the principal's reach.
func (s *TermService) CreateTemplate(ctx context.Context, params CreateTemplateParams) (template TermTemplate, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "CreateTemplate", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create template", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("template_id", template.ID).InfoContext(ctx, "template created")
	}()

	if !params.Principal.Can(CapTermsCreateTemplates) {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	if strings.TrimSpace(input.DepartmentID) == "" {
		input.DepartmentID = params.Principal.DepartmentID
	}
	if vErr := validateTemplateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if !params.Principal.canReachDepartment(strings.TrimSpace(input.DepartmentID)) {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	template = applyTemplateInput(TermTemplate{
		ID:        s.idGenerator(),
		CreatedBy: params.Principal.UserID,
		CreatedAt: now,
	}, input)
	template.UpdatedAt = now
	warnUndeclared(ctx, logger, template)

	if err = s.repo.CreateTemplate(ctx, template); err != nil {
		err = mapTermRepoError(err)
	}
	return
}

// UpdateTemplate replaces a template. Issued terms keep their data map but
// render with the new text.
func (s *TermService) UpdateTemplate(ctx context.Context, params UpdateTemplateParams) (template TermTemplate, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "UpdateTemplate", "principal_id", params.Principal.UserID, "template_id", params.TemplateID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update template", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "template updated")
	}()

	if !params.Principal.Can(CapTermsCreateTemplates) {
		err = ErrUnauthorized
		return
	}

	var existing TermTemplate
	if existing, err = s.repo.GetTemplate(ctx, strings.TrimSpace(params.TemplateID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !params.Principal.canReachDepartment(existing.DepartmentID) {
		err = ErrUnauthorized
		return
	}

	input := params.Input
	if strings.TrimSpace(input.DepartmentID) == "" {
		input.DepartmentID = existing.DepartmentID
	}
	if vErr := validateTemplateInput(input); vErr.HasErrors() {
		err = vErr
		return
	}
	if !params.Principal.canReachDepartment(strings.TrimSpace(input.DepartmentID)) {
		err = ErrUnauthorized
		return
	}

	template = applyTemplateInput(existing, input)
	template.UpdatedAt = s.now()
	warnUndeclared(ctx, logger, template)
	if err = s.repo.UpdateTemplate(ctx, template); err != nil {
		err = mapTermRepoError(err)
	}
	return
}

// GetTemplate returns a template visible to the principal.
func (s *TermService) GetTemplate(ctx context.Context, principal Principal, templateID string) (template TermTemplate, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if template, err = s.repo.GetTemplate(ctx, strings.TrimSpace(templateID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !isTermIssuer(principal) || !principal.canReachDepartment(template.DepartmentID) {
		template = TermTemplate{}
		err = ErrUnauthorized
	}
	return
}

// ListTemplates returns the templates of the principal's department, or
// every template with terms.see_all_sectors.
func (s *TermService) ListTemplates(ctx context.Context, principal Principal) (templates []TermTemplate, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListTemplates", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list templates", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	if !isTermIssuer(principal) {
		return []TermTemplate{}, nil
	}

	var all []TermTemplate
	if all, err = s.repo.ListTemplates(ctx); err != nil {
		return
	}
	templates = make([]TermTemplate, 0, len(all))
	for _, t := range all {
		if principal.canReachDepartment(t.DepartmentID) {
			templates = append(templates, t)
		}
	}
	sort.Slice(templates, func(i, j int) bool {
		return foldText(templates[i].Name) < foldText(templates[j].Name)
	})
	return
}

// IssueTerm creates a PENDENTE term for an employee from an entrega or
// empréstimo template.
func (s *TermService) IssueTerm(ctx context.Context, params IssueTermParams) (term Term, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "IssueTerm",
		"principal_id", params.Principal.UserID,
		"template_id", params.TemplateID,
		"employee_id", params.EmployeeID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue term", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("term_id", term.ID).InfoContext(ctx, "term issued")
	}()

	if !params.Principal.Can(CapTermsIssue) {
		err = ErrUnauthorized
		return
	}

	var template TermTemplate
	if template, err = s.repo.GetTemplate(ctx, strings.TrimSpace(params.TemplateID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !params.Principal.canReachDepartment(template.DepartmentID) {
		err = ErrUnauthorized
		return
	}
	if template.MovementType == MovementReturn {
		err = newValidationError("templateId", "return templates are issued from the original term")
		return
	}

	var employee Employee
	if employee, err = s.directory.GetEmployee(ctx, strings.TrimSpace(params.EmployeeID)); err != nil {
		if isNotFound(err) {
			err = newValidationError("employeeId", "employee not found")
		}
		return
	}

	term = s.newTerm(ctx, params.Principal, template, employee, params.Data, params.ReferenceDate)
	if err = s.repo.CreateTerm(ctx, term); err != nil {
		err = mapTermRepoError(err)
		return
	}
	s.metrics.TermTransition(TransitionIssued)
	s.notifyTerm(ctx, employee.ID, notification.KindTermIssued, params.Principal.Name, template.Title, term.ID)
	return
}

// IssueReturn creates the devolução of an entrega or empréstimo term. Each
// term has at most one return.
func (s *TermService) IssueReturn(ctx context.Context, params IssueReturnParams) (term Term, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "IssueReturn",
		"principal_id", params.Principal.UserID,
		"original_term_id", params.OriginalTermID,
		"template_id", params.TemplateID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to issue return", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("term_id", term.ID).InfoContext(ctx, "return issued")
	}()

	if !params.Principal.Can(CapTermsReturn) {
		err = ErrUnauthorized
		return
	}

	var original Term
	if original, err = s.repo.GetTerm(ctx, strings.TrimSpace(params.OriginalTermID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !params.Principal.canReachDepartment(original.DepartmentID) {
		err = ErrUnauthorized
		return
	}
	if original.Type != MovementDelivery && original.Type != MovementLoan {
		err = newValidationError("originalTermId", "only entrega and emprestimo terms have a return")
		return
	}

	var status ReturnStatus
	if status, err = s.findReturn(ctx, original.ID); err != nil {
		return
	}
	if status.Exists {
		err = ErrReturnExists
		return
	}

	var template TermTemplate
	if template, err = s.repo.GetTemplate(ctx, strings.TrimSpace(params.TemplateID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if template.MovementType != MovementReturn {
		err = newValidationError("templateId", "template must be a devolucao template")
		return
	}
	if !params.Principal.canReachDepartment(template.DepartmentID) {
		err = ErrUnauthorized
		return
	}

	employee, getErr := s.directory.GetEmployee(ctx, original.EmployeeID)
	if getErr != nil {
		employee = Employee{ID: original.EmployeeID, Name: original.EmployeeName, DepartmentID: original.DepartmentID}
	}

	term = s.newTerm(ctx, params.Principal, template, employee, params.Data, params.ReferenceDate)
	term.OriginalTermID = original.ID
	term.DepartmentID = original.DepartmentID
	if err = s.repo.CreateTerm(ctx, term); err != nil {
		err = mapTermRepoError(err)
		return
	}
	s.metrics.TermTransition(TransitionReturnIssued)
	s.notifyTerm(ctx, employee.ID, notification.KindTermIssued, params.Principal.Name, template.Title, term.ID)
	return
}

// FindReturn reports whether termID already has a devolução.
func (s *TermService) FindReturn(ctx context.Context, principal Principal, termID string) (status ReturnStatus, err error) {
	if err = s.ready(); err != nil {
		return
	}
	var original Term
	if original, err = s.repo.GetTerm(ctx, strings.TrimSpace(termID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !canViewTerm(principal, original) {
		err = ErrUnauthorized
		return
	}
	return s.findReturn(ctx, original.ID)
}

func (s *TermService) findReturn(ctx context.Context, termID string) (ReturnStatus, error) {
	terms, err := s.repo.ListTerms(ctx)
	if err != nil {
		return ReturnStatus{}, err
	}
	for _, t := range terms {
		if t.OriginalTermID == termID {
			return ReturnStatus{Exists: true, TermID: t.ID, Status: t.Status}, nil
		}
	}
	return ReturnStatus{}, nil
}

// RenderTerm binds a term's data map to its template.
func (s *TermService) RenderTerm(ctx context.Context, principal Principal, termID string) (rendered RenderedTerm, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "RenderTerm", "principal_id", principal.UserID, "term_id", termID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to render term", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var term Term
	if term, err = s.repo.GetTerm(ctx, strings.TrimSpace(termID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if !canViewTerm(principal, term) {
		err = ErrUnauthorized
		return
	}

	var template TermTemplate
	if template, err = s.repo.GetTemplate(ctx, term.TemplateID); err != nil {
		err = mapTermRepoError(err)
		return
	}

	out := document.Render(toDocumentTemplate(template), term.Data)
	rendered = RenderedTerm{
		Term:  term,
		Title: out.Title,
		Body:  out.Body,
		HTML:  out.HTML,
		Seals: out.Seals,
		Rows:  make([]RenderedRow, 0, len(out.Rows)),
	}
	for _, row := range out.Rows {
		rendered.Rows = append(rendered.Rows, RenderedRow{Label: row.Label, Value: row.Value})
	}
	return
}

// SignTerm re-authenticates the term's employee and moves the term from
// PENDENTE to ASSINADO. The transition happens at most once.
func (s *TermService) SignTerm(ctx context.Context, params SignTermParams) (term Term, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if s.auth == nil {
		err = fmt.Errorf("reauthenticator not configured")
		return
	}
	logger := s.loggerWith(ctx, "SignTerm", "principal_id", params.Principal.UserID, "term_id", params.TermID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to sign term", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "term signed")
	}()

	if term, err = s.repo.GetTerm(ctx, strings.TrimSpace(params.TermID)); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if term.EmployeeID != params.Principal.UserID || !params.Principal.Can(CapTermsSignOwn) {
		term = Term{}
		err = ErrUnauthorized
		return
	}
	if term.Status != TermPending {
		err = ErrAlreadySigned
		return
	}

	if err = s.auth.Reauthenticate(ctx, params.Principal.UserID, params.Password); err != nil {
		return
	}

	cpf, cpfErr := document.NormalizeCPF(params.CPF)
	if cpfErr != nil {
		err = newValidationError("cpf", "cpf must have 11 digits")
		return
	}

	var employee Employee
	if employee, err = s.directory.GetEmployee(ctx, params.Principal.UserID); err != nil {
		err = mapTermRepoError(err)
		return
	}
	if employee.SignatureImage == "" {
		err = newValidationError("signatureImage", "register a signature image before signing")
		return
	}

	signedAt := s.now()
	if err = s.repo.MarkTermSigned(ctx, term.ID, cpf, employee.SignatureImage, signedAt); err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			s.metrics.TermTransition(TransitionSignConflict)
			err = ErrAlreadySigned
			return
		}
		err = mapTermRepoError(err)
		return
	}
	s.metrics.TermTransition(TransitionSigned)

	term.Status = TermSigned
	term.EmployeeCPF = cpf
	term.SignatureImage = employee.SignatureImage
	term.SignedAt = &signedAt

	title := ""
	if template, getErr := s.repo.GetTemplate(ctx, term.TemplateID); getErr == nil {
		title = document.Substitute(template.Title, term.Data)
	}
	s.notifyTerm(ctx, term.IssuerID, notification.KindTermSigned, employee.Name, title, term.ID)
	return
}

// VerifyTerm looks a term up by its verification token. It needs no
// session and never exposes the data map.
func (s *TermService) VerifyTerm(ctx context.Context, token string) (verification TermVerification, err error) {
	if err = s.ready(); err != nil {
		return
	}
	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrNotFound
		return
	}

	var term Term
	if term, err = s.repo.GetTermByToken(ctx, token); err != nil {
		err = mapTermRepoError(err)
		if !errors.Is(err, ErrNotFound) {
			s.loggerWith(ctx, "VerifyTerm").ErrorContext(ctx, "failed to verify term", "error", err, "error_kind", ErrorKind(err))
		}
		return
	}

	verification = TermVerification{
		TermID:       term.ID,
		Type:         term.Type,
		EmployeeName: term.EmployeeName,
		IssuerName:   term.IssuerName,
		Status:       term.Status,
		CreatedAt:    term.CreatedAt,
		SignedAt:     term.SignedAt,
	}
	if template, getErr := s.repo.GetTemplate(ctx, term.TemplateID); getErr == nil {
		verification.Title = document.Substitute(template.Title, term.Data)
	}
	return
}

// ListTerms returns the terms visible to the principal, newest first.
func (s *TermService) ListTerms(ctx context.Context, principal Principal) (terms []Term, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "ListTerms", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list terms", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var all []Term
	if all, err = s.repo.ListTerms(ctx); err != nil {
		return
	}
	terms = make([]Term, 0, len(all))
	for _, t := range all {
		if canViewTerm(principal, t) {
			terms = append(terms, t)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].CreatedAt.Equal(terms[j].CreatedAt) {
			return terms[i].ID > terms[j].ID
		}
		return terms[i].CreatedAt.After(terms[j].CreatedAt)
	})
	return
}

// DeleteTerm removes a term.
func (s *TermService) DeleteTerm(ctx context.Context, principal Principal, termID string) (err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "DeleteTerm", "principal_id", principal.UserID, "term_id", termID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete term", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "term deleted")
	}()

	if !principal.Can(CapTermsDelete) {
		return ErrUnauthorized
	}
	term, err := s.repo.GetTerm(ctx, strings.TrimSpace(termID))
	if err != nil {
		return mapTermRepoError(err)
	}
	if !principal.canReachDepartment(term.DepartmentID) {
		return ErrUnauthorized
	}
	if err = s.repo.DeleteTerm(ctx, term.ID); err != nil {
		return mapTermRepoError(err)
	}
	s.metrics.TermTransition(TransitionDeleted)
	return nil
}

func (s *TermService) newTerm(ctx context.Context, issuer Principal, template TermTemplate, employee Employee, input map[string]string, reference time.Time) Term {
	if reference.IsZero() {
		reference = s.now()
	}
	subject := document.Subject{
		DocTitle:     template.Title,
		EmployeeName: employee.Name,
		Role:         employee.Position,
		Reference:    reference.In(s.location),
	}
	if dept, err := s.directory.GetDepartment(ctx, employee.DepartmentID); err == nil {
		subject.Department = dept.Name
	}
	if unit, err := s.directory.GetUnit(ctx, employee.UnitID); err == nil {
		subject.Unit = unit.Name
	}

	variables := make([]document.Variable, 0, len(template.Variables))
	for _, v := range template.Variables {
		variables = append(variables, document.Variable{Key: v.Key, Label: v.Label, AutoMapping: v.AutoMapping, Type: v.Type})
	}

	return Term{
		ID:                s.idGenerator(),
		TemplateID:        template.ID,
		Type:              template.MovementType,
		EmployeeID:        employee.ID,
		EmployeeName:      employee.Name,
		DepartmentID:      template.DepartmentID,
		Status:            TermPending,
		Data:              document.ResolveVariables(variables, input, subject),
		VerificationToken: s.tokenGenerator(),
		IssuerID:          issuer.UserID,
		IssuerName:        issuer.Name,
		CreatedAt:         s.now(),
	}
}

func (s *TermService) notifyTerm(ctx context.Context, recipient, kind, actor, title, termID string) {
	s.notifier.Notify(ctx, NotifyParams{
		Recipients: []string{recipient},
		Kind:       kind,
		Params:     notification.Params{Actor: actor, Document: title},
		Link:       "/terms/" + termID,
	})
}

func isTermIssuer(p Principal) bool {
	return p.Can(CapTermsCreateTemplates) || p.Can(CapTermsIssue) || p.Can(CapTermsReturn) || p.Can(CapTermsDelete)
}

func canViewTerm(p Principal, t Term) bool {
	if t.EmployeeID == p.UserID {
		return true
	}
	return isTermIssuer(p) && p.canReachDepartment(t.DepartmentID)
}

func toDocumentTemplate(t TermTemplate) document.Template {
	fields := make([]document.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, document.Field{Label: f.Label, Key: f.Key})
	}
	return document.Template{Title: t.Title, Body: t.Body, Fields: fields, Seals: t.Seals}
}

func applyTemplateInput(t TermTemplate, input TemplateInput) TermTemplate {
	t.Name = strings.TrimSpace(input.Name)
	t.Title = strings.TrimSpace(input.Title)
	t.MovementType = input.MovementType
	t.DepartmentID = strings.TrimSpace(input.DepartmentID)
	t.Body = input.Body
	t.Fields = make([]TemplateField, 0, len(input.Fields))
	for _, f := range input.Fields {
		t.Fields = append(t.Fields, TemplateField{Label: strings.TrimSpace(f.Label), Key: strings.TrimSpace(f.Key)})
	}
	t.Variables = make([]TemplateVariable, 0, len(input.Variables))
	for _, v := range input.Variables {
		kind := strings.TrimSpace(v.Type)
		if kind == "" {
			kind = document.VariableText
		}
		t.Variables = append(t.Variables, TemplateVariable{
			Key:         strings.TrimSpace(v.Key),
			Label:       strings.TrimSpace(v.Label),
			AutoMapping: strings.TrimSpace(v.AutoMapping),
			Type:        kind,
		})
	}
	t.Seals = normalizeList(input.Seals)
	return t
}

func validateTemplateInput(input TemplateInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if !input.MovementType.Valid() {
		vErr.add("movementType", "movement type must be entrega, emprestimo or devolucao")
	}
	if strings.TrimSpace(input.DepartmentID) == "" {
		vErr.add("departmentId", "department is required")
	}
	for _, f := range input.Fields {
		if !document.ValidKey(f.Key) || strings.TrimSpace(f.Label) == "" {
			vErr.add("fields", "every field needs a label and a key without braces")
			break
		}
	}
	seen := make(map[string]bool, len(input.Variables))
	for _, v := range input.Variables {
		key := strings.TrimSpace(v.Key)
		switch {
		case key == "":
			vErr.add("variables", "every variable needs a key")
		case !document.ValidKey(key):
			vErr.add("variables", fmt.Sprintf("variable %q must not contain braces", key))
		case seen[key]:
			vErr.add("variables", fmt.Sprintf("variable %q is duplicated", key))
		case v.AutoMapping != "" && !document.IsAutoMapping(strings.TrimSpace(v.AutoMapping)):
			vErr.add("variables", fmt.Sprintf("variable %q has an unknown auto mapping", key))
		case v.Type != "" && v.Type != document.VariableText && v.Type != document.VariableMultiline:
			vErr.add("variables", fmt.Sprintf("variable %q has an unknown type", key))
		}
		seen[key] = true
	}
	return vErr
}

// warnUndeclared logs placeholders that no variable or field binds. They
// still render, as whatever the operator types at issue time or empty.
func warnUndeclared(ctx context.Context, logger *slog.Logger, t TermTemplate) {
	declared := make([]string, 0, len(t.Variables))
	for _, v := range t.Variables {
		declared = append(declared, v.Key)
	}
	if missing := document.Undeclared(toDocumentTemplate(t), declared); len(missing) > 0 {
		logger.WarnContext(ctx, "template references undeclared placeholders", "keys", missing)
	}
}

func mapTermRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConflict):
		return ErrAlreadySigned
	}
	return err
}
