package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/intranet-portal/internal/application"
)

type termService interface {
	CreateTemplate(ctx context.Context, params application.CreateTemplateParams) (application.TermTemplate, error)
	UpdateTemplate(ctx context.Context, params application.UpdateTemplateParams) (application.TermTemplate, error)
	GetTemplate(ctx context.Context, principal application.Principal, templateID string) (application.TermTemplate, error)
	ListTemplates(ctx context.Context, principal application.Principal) ([]application.TermTemplate, error)
	IssueTerm(ctx context.Context, params application.IssueTermParams) (application.Term, error)
	IssueReturn(ctx context.Context, params application.IssueReturnParams) (application.Term, error)
	FindReturn(ctx context.Context, principal application.Principal, termID string) (application.ReturnStatus, error)
	RenderTerm(ctx context.Context, principal application.Principal, termID string) (application.RenderedTerm, error)
	SignTerm(ctx context.Context, params application.SignTermParams) (application.Term, error)
	VerifyTerm(ctx context.Context, token string) (application.TermVerification, error)
	ListTerms(ctx context.Context, principal application.Principal) ([]application.Term, error)
	DeleteTerm(ctx context.Context, principal application.Principal, termID string) error
}

// TermHandler serves templates, issued terms, signing and public verification.
type TermHandler struct {
	service   termService
	responder responder
	logger    *slog.Logger
}

func NewTermHandler(service termService, logger *slog.Logger) *TermHandler {
	base := defaultLogger(logger)
	return &TermHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TermHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TermHandler", operation, attrs...)
}

func (h *TermHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *TermHandler) fail(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.ErrorContext(ctx, msg, "error", err, "error_kind", application.ErrorKind(err))
	h.responder.handleServiceError(ctx, w, err)
}

func (h *TermHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListTemplates", "principal_id", principal.UserID)

	templates, err := h.service.ListTemplates(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "template list failed", err)
		return
	}
	out := make([]templateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateDTO(t))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTemplatesResponse{Templates: out})
}

func (h *TermHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	template, err := h.service.GetTemplate(r.Context(), principal, id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "GetTemplate", "template_id", id), "template lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TermHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req templateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "CreateTemplate", "principal_id", principal.UserID)

	template, err := h.service.CreateTemplate(r.Context(), application.CreateTemplateParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "template creation failed", err)
		return
	}
	logger.With("template_id", template.ID).InfoContext(r.Context(), "template created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TermHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req templateRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpdateTemplate", "principal_id", principal.UserID, "template_id", id)

	template, err := h.service.UpdateTemplate(r.Context(), application.UpdateTemplateParams{
		Principal:  principal,
		TemplateID: id,
		Input:      req.toInput(),
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "template update failed", err)
		return
	}
	logger.InfoContext(r.Context(), "template updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TermHandler) ListTerms(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListTerms", "principal_id", principal.UserID)

	terms, err := h.service.ListTerms(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "term list failed", err)
		return
	}
	out := make([]termDTO, 0, len(terms))
	for _, t := range terms {
		out = append(out, toTermDTO(t))
	}
	logger.With("result_count", len(out)).InfoContext(r.Context(), "terms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTermsResponse{Terms: out})
}

func (h *TermHandler) IssueTerm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req issueTermRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "IssueTerm", "principal_id", principal.UserID, "template_id", req.TemplateID, "employee_id", req.EmployeeID)

	term, err := h.service.IssueTerm(r.Context(), application.IssueTermParams{
		Principal:  principal,
		TemplateID: strings.TrimSpace(req.TemplateID),
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		Data:       req.Data,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "term issue failed", err)
		return
	}
	logger.With("term_id", term.ID).InfoContext(r.Context(), "term issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, termResponse{Term: toTermDTO(term)})
}

func (h *TermHandler) DeleteTerm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")
	logger := h.log(r.Context(), "DeleteTerm", "principal_id", principal.UserID, "term_id", id)

	if err := h.service.DeleteTerm(r.Context(), principal, id); err != nil {
		h.fail(r.Context(), w, logger, "term delete failed", err)
		return
	}
	logger.InfoContext(r.Context(), "term deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TermHandler) RenderTerm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	rendered, err := h.service.RenderTerm(r.Context(), principal, id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "RenderTerm", "term_id", id), "term render failed", err)
		return
	}
	rows := make([]renderedRowDTO, 0, len(rendered.Rows))
	for _, row := range rendered.Rows {
		rows = append(rows, renderedRowDTO{Label: row.Label, Value: row.Value})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, renderedTermResponse{
		Term:  toTermDTO(rendered.Term),
		Title: rendered.Title,
		Body:  rendered.Body,
		HTML:  rendered.HTML,
		Rows:  rows,
		Seals: nonNil(rendered.Seals),
	})
}

func (h *TermHandler) SignTerm(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req signTermRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "SignTerm", "principal_id", principal.UserID, "term_id", id)

	term, err := h.service.SignTerm(r.Context(), application.SignTermParams{
		Principal: principal,
		TermID:    id,
		Password:  req.Password,
		CPF:       req.CPF,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "term signing failed", err)
		return
	}
	logger.InfoContext(r.Context(), "term signed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, termResponse{Term: toTermDTO(term)})
}

func (h *TermHandler) FindReturn(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	status, err := h.service.FindReturn(r.Context(), principal, id)
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "FindReturn", "term_id", id), "return lookup failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, returnStatusResponse{
		Exists: status.Exists,
		TermID: status.TermID,
		Status: string(status.Status),
	})
}

func (h *TermHandler) IssueReturn(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req issueReturnRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "IssueReturn", "principal_id", principal.UserID, "original_term_id", id)

	term, err := h.service.IssueReturn(r.Context(), application.IssueReturnParams{
		Principal:      principal,
		OriginalTermID: id,
		TemplateID:     strings.TrimSpace(req.TemplateID),
		Data:           req.Data,
	})
	if err != nil {
		h.fail(r.Context(), w, logger, "return issue failed", err)
		return
	}
	logger.With("term_id", term.ID).InfoContext(r.Context(), "return issued")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, termResponse{Term: toTermDTO(term)})
}

// Verify is public. It exposes the term summary only, never its data map.
func (h *TermHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	verification, err := h.service.VerifyTerm(r.Context(), r.PathValue("token"))
	if err != nil {
		h.fail(r.Context(), w, h.log(r.Context(), "Verify"), "term verification failed", err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, verificationResponse{
		TermID:       verification.TermID,
		Title:        verification.Title,
		Type:         string(verification.Type),
		EmployeeName: verification.EmployeeName,
		IssuerName:   verification.IssuerName,
		Status:       string(verification.Status),
		CreatedAt:    formatTime(verification.CreatedAt),
		SignedAt:     formatTimePtr(verification.SignedAt),
	})
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

type templateFieldDTO struct {
	Label string `json:"label" validate:"required"`
	Key   string `json:"key" validate:"required"`
}

type templateVariableDTO struct {
	Key         string `json:"key" validate:"required"`
	Label       string `json:"label"`
	AutoMapping string `json:"autoMapping,omitempty"`
	Type        string `json:"type,omitempty"`
}

type templateRequest struct {
	Name         string                `json:"name" validate:"required"`
	Title        string                `json:"title" validate:"required"`
	MovementType string                `json:"movementType" validate:"required,oneof=entrega emprestimo devolucao"`
	DepartmentID string                `json:"departmentId"`
	Body         string                `json:"body"`
	Fields       []templateFieldDTO    `json:"fields" validate:"dive"`
	Variables    []templateVariableDTO `json:"variables" validate:"dive"`
	Seals        []string              `json:"seals"`
}

func (r templateRequest) toInput() application.TemplateInput {
	fields := make([]application.TemplateField, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, application.TemplateField{Label: strings.TrimSpace(f.Label), Key: strings.TrimSpace(f.Key)})
	}
	variables := make([]application.TemplateVariable, 0, len(r.Variables))
	for _, v := range r.Variables {
		variables = append(variables, application.TemplateVariable{
			Key:         strings.TrimSpace(v.Key),
			Label:       strings.TrimSpace(v.Label),
			AutoMapping: strings.TrimSpace(v.AutoMapping),
			Type:        strings.TrimSpace(v.Type),
		})
	}
	return application.TemplateInput{
		Name:         strings.TrimSpace(r.Name),
		Title:        strings.TrimSpace(r.Title),
		MovementType: application.MovementType(strings.TrimSpace(r.MovementType)),
		DepartmentID: strings.TrimSpace(r.DepartmentID),
		Body:         r.Body,
		Fields:       fields,
		Variables:    variables,
		Seals:        r.Seals,
	}
}

type templateDTO struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Title        string                `json:"title"`
	MovementType string                `json:"movementType"`
	DepartmentID string                `json:"departmentId"`
	Body         string                `json:"body"`
	Fields       []templateFieldDTO    `json:"fields"`
	Variables    []templateVariableDTO `json:"variables"`
	Seals        []string              `json:"seals"`
	CreatedBy    string                `json:"createdBy,omitempty"`
	CreatedAt    string                `json:"createdAt"`
	UpdatedAt    string                `json:"updatedAt"`
}

func toTemplateDTO(t application.TermTemplate) templateDTO {
	fields := make([]templateFieldDTO, 0, len(t.Fields))
	for _, f := range t.Fields {
		fields = append(fields, templateFieldDTO{Label: f.Label, Key: f.Key})
	}
	variables := make([]templateVariableDTO, 0, len(t.Variables))
	for _, v := range t.Variables {
		variables = append(variables, templateVariableDTO{Key: v.Key, Label: v.Label, AutoMapping: v.AutoMapping, Type: v.Type})
	}
	return templateDTO{
		ID:           t.ID,
		Name:         t.Name,
		Title:        t.Title,
		MovementType: string(t.MovementType),
		DepartmentID: t.DepartmentID,
		Body:         t.Body,
		Fields:       fields,
		Variables:    variables,
		Seals:        nonNil(t.Seals),
		CreatedBy:    t.CreatedBy,
		CreatedAt:    formatTime(t.CreatedAt),
		UpdatedAt:    formatTime(t.UpdatedAt),
	}
}

type templateResponse struct {
	Template templateDTO `json:"template"`
}

type listTemplatesResponse struct {
	Templates []templateDTO `json:"templates"`
}

type issueTermRequest struct {
	TemplateID string            `json:"templateId" validate:"required"`
	EmployeeID string            `json:"employeeId" validate:"required"`
	Data       map[string]string `json:"data"`
}

type issueReturnRequest struct {
	TemplateID string            `json:"templateId" validate:"required"`
	Data       map[string]string `json:"data"`
}

type signTermRequest struct {
	Password string `json:"password" validate:"required"`
	CPF      string `json:"cpf" validate:"required"`
}

// termDTO never carries the signature image; it is only drawn into the
// rendered document.
type termDTO struct {
	ID                string            `json:"id"`
	TemplateID        string            `json:"templateId"`
	Type              string            `json:"type"`
	EmployeeID        string            `json:"employeeId"`
	EmployeeName      string            `json:"employeeName"`
	DepartmentID      string            `json:"departmentId"`
	Status            string            `json:"status"`
	Data              map[string]string `json:"data"`
	VerificationToken string            `json:"verificationToken"`
	OriginalTermID    string            `json:"originalTermId,omitempty"`
	IssuerID          string            `json:"issuerId"`
	IssuerName        string            `json:"issuerName"`
	Signed            bool              `json:"signed"`
	SignedAt          string            `json:"signedAt,omitempty"`
	CreatedAt         string            `json:"createdAt"`
}

func toTermDTO(t application.Term) termDTO {
	data := t.Data
	if data == nil {
		data = map[string]string{}
	}
	return termDTO{
		ID:                t.ID,
		TemplateID:        t.TemplateID,
		Type:              string(t.Type),
		EmployeeID:        t.EmployeeID,
		EmployeeName:      t.EmployeeName,
		DepartmentID:      t.DepartmentID,
		Status:            string(t.Status),
		Data:              data,
		VerificationToken: t.VerificationToken,
		OriginalTermID:    t.OriginalTermID,
		IssuerID:          t.IssuerID,
		IssuerName:        t.IssuerName,
		Signed:            t.Status == application.TermSigned,
		SignedAt:          formatTimePtr(t.SignedAt),
		CreatedAt:         formatTime(t.CreatedAt),
	}
}

type termResponse struct {
	Term termDTO `json:"term"`
}

type listTermsResponse struct {
	Terms []termDTO `json:"terms"`
}

type renderedRowDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type renderedTermResponse struct {
	Term  termDTO          `json:"term"`
	Title string           `json:"title"`
	Body  string           `json:"body"`
	HTML  string           `json:"html"`
	Rows  []renderedRowDTO `json:"rows"`
	Seals []string         `json:"seals"`
}

type returnStatusResponse struct {
	Exists bool   `json:"exists"`
	TermID string `json:"termId,omitempty"`
	Status string `json:"status,omitempty"`
}

type verificationResponse struct {
	TermID       string `json:"termId"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	EmployeeName string `json:"employeeName"`
	IssuerName   string `json:"issuerName"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	SignedAt     string `json:"signedAt,omitempty"`
}
