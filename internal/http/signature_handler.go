package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/intranet-portal/internal/application"
)

type signatureService interface {
	RequestSignature(ctx context.Context, principal application.Principal, data application.SignatureData) (application.SignatureRequest, error)
	ListSignatureRequests(ctx context.Context, principal application.Principal) ([]application.SignatureRequest, error)
	RenderSignaturePreview(ctx context.Context, principal application.Principal, data application.SignatureData) (string, error)
	CompleteSignatureRequest(ctx context.Context, params application.CompleteSignatureRequestParams) (application.SignatureRequest, error)
	ListSignatureLogs(ctx context.Context, principal application.Principal) ([]application.SignatureLog, error)
}

// SignatureHandler serves e-mail signature requests and previews.
type SignatureHandler struct {
	service   signatureService
	responder responder
	logger    *slog.Logger
}

func NewSignatureHandler(service signatureService, logger *slog.Logger) *SignatureHandler {
	base := defaultLogger(logger)
	return &SignatureHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SignatureHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SignatureHandler", operation, attrs...)
}

func (h *SignatureHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *SignatureHandler) Request(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req signatureDataDTO
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "Request", "principal_id", principal.UserID)

	request, err := h.service.RequestSignature(r.Context(), principal, req.toData())
	if err != nil {
		logger.ErrorContext(r.Context(), "signature request failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("request_id", request.ID).InfoContext(r.Context(), "signature requested")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, signatureRequestResponse{Request: toSignatureRequestDTO(request)})
}

func (h *SignatureHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	requests, err := h.service.ListSignatureRequests(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "List", "principal_id", principal.UserID).ErrorContext(r.Context(), "signature request list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]signatureRequestDTO, 0, len(requests))
	for _, req := range requests {
		out = append(out, toSignatureRequestDTO(req))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSignatureRequestsResponse{Requests: out})
}

func (h *SignatureHandler) Preview(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req signatureDataDTO
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	dataURL, err := h.service.RenderSignaturePreview(r.Context(), principal, req.toData())
	if err != nil {
		h.log(r.Context(), "Preview", "principal_id", principal.UserID).ErrorContext(r.Context(), "signature preview failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, signaturePreviewResponse{Image: dataURL})
}

func (h *SignatureHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req completeSignatureRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "Complete", "principal_id", principal.UserID, "request_id", id)

	params := application.CompleteSignatureRequestParams{Principal: principal, RequestID: id}
	if req.Final != nil {
		params.Final = ptr(req.Final.toData())
	}
	request, err := h.service.CompleteSignatureRequest(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "signature completion failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "signature request completed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, signatureRequestResponse{Request: toSignatureRequestDTO(request)})
}

func (h *SignatureHandler) Logs(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	logs, err := h.service.ListSignatureLogs(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "Logs", "principal_id", principal.UserID).ErrorContext(r.Context(), "signature log list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]signatureLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, signatureLogDTO{
			ID:          l.ID,
			RequestID:   l.RequestID,
			Name:        l.Name,
			Email:       l.Email,
			UnitID:      l.UnitID,
			GeneratedBy: l.GeneratedBy,
			CreatedAt:   formatTime(l.CreatedAt),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSignatureLogsResponse{Logs: out})
}

type signaturePhoneDTO struct {
	Number string `json:"number"`
	Type   string `json:"type" validate:"omitempty,oneof=fixo celular"`
}

type signatureDataDTO struct {
	Name   string              `json:"name" validate:"required"`
	Email  string              `json:"email" validate:"required,email"`
	UnitID string              `json:"unitId" validate:"required"`
	Sector string              `json:"sector"`
	Phones []signaturePhoneDTO `json:"phones" validate:"dive"`
}

func (d signatureDataDTO) toData() application.SignatureData {
	phones := make([]application.SignaturePhone, 0, len(d.Phones))
	for _, p := range d.Phones {
		phones = append(phones, application.SignaturePhone{Number: strings.TrimSpace(p.Number), Type: strings.TrimSpace(p.Type)})
	}
	return application.SignatureData{
		Name:   strings.TrimSpace(d.Name),
		Email:  strings.TrimSpace(d.Email),
		UnitID: strings.TrimSpace(d.UnitID),
		Sector: strings.TrimSpace(d.Sector),
		Phones: phones,
	}
}

func fromSignatureData(data application.SignatureData) signatureDataDTO {
	phones := make([]signaturePhoneDTO, 0, len(data.Phones))
	for _, p := range data.Phones {
		phones = append(phones, signaturePhoneDTO{Number: p.Number, Type: p.Type})
	}
	return signatureDataDTO{Name: data.Name, Email: data.Email, UnitID: data.UnitID, Sector: data.Sector, Phones: phones}
}

type completeSignatureRequest struct {
	Final *signatureDataDTO `json:"final"`
}

type signatureRequestDTO struct {
	ID            string            `json:"id"`
	RequesterID   string            `json:"requesterId"`
	RequesterName string            `json:"requesterName"`
	Status        string            `json:"status"`
	Requested     signatureDataDTO  `json:"requested"`
	Final         *signatureDataDTO `json:"final,omitempty"`
	Image         string            `json:"image,omitempty"`
	GeneratedBy   string            `json:"generatedBy,omitempty"`
	CreatedAt     string            `json:"createdAt"`
	CompletedAt   string            `json:"completedAt,omitempty"`
}

func toSignatureRequestDTO(req application.SignatureRequest) signatureRequestDTO {
	dto := signatureRequestDTO{
		ID:            req.ID,
		RequesterID:   req.RequesterID,
		RequesterName: req.RequesterName,
		Status:        req.Status,
		Requested:     fromSignatureData(req.Requested),
		Image:         req.ImageDataURL,
		GeneratedBy:   req.GeneratedBy,
		CreatedAt:     formatTime(req.CreatedAt),
		CompletedAt:   formatTimePtr(req.CompletedAt),
	}
	if req.Final != nil {
		dto.Final = ptr(fromSignatureData(*req.Final))
	}
	return dto
}

type signatureRequestResponse struct {
	Request signatureRequestDTO `json:"request"`
}

type listSignatureRequestsResponse struct {
	Requests []signatureRequestDTO `json:"requests"`
}

type signaturePreviewResponse struct {
	Image string `json:"image"`
}

type signatureLogDTO struct {
	ID          string `json:"id"`
	RequestID   string `json:"requestId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	UnitID      string `json:"unitId"`
	GeneratedBy string `json:"generatedBy"`
	CreatedAt   string `json:"createdAt"`
}

type listSignatureLogsResponse struct {
	Logs []signatureLogDTO `json:"logs"`
}
