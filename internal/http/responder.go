package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/intranet-portal/internal/application"
)

var (
	errBadRequestBody      = errors.New("Formato de requisição inválido.")
	errMissingSessionToken = errors.New("Informe o token de sessão.")
)

const genericErrorMessage = "Ocorreu um erro. Tente novamente."

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(http.StatusForbidden),
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: localizedStatusMessage(http.StatusNotFound)})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Senha incorreta",
		})
	case errors.Is(err, application.ErrAccountDisabled):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_ACCOUNT_DISABLED",
			Message:   "Conta desativada. Procure o administrador.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Sessão expirada. Entre novamente.",
		})
	case errors.Is(err, application.ErrSlotTaken):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "SLOT_TAKEN", Message: "Este horário já foi reservado."})
	case errors.Is(err, application.ErrAlreadySigned):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "TERM_ALREADY_SIGNED", Message: "Este termo já foi assinado."})
	case errors.Is(err, application.ErrReturnExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "RETURN_EXISTS", Message: "Já existe um termo de devolução para este termo."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: localizedStatusMessage(http.StatusConflict)})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: localizedStatusMessage(http.StatusUnprocessableEntity),
				Errors:  localizeValidationErrors(vErr),
			})
			return
		}

		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: genericErrorMessage})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para esta ação."
	case http.StatusNotFound:
		return "Registro não encontrado."
	case http.StatusConflict:
		return "O registro já existe."
	case http.StatusUnprocessableEntity:
		return "Verifique os campos informados."
	default:
		return genericErrorMessage
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

var validationMessages = map[string]string{
	"is required":                                            "Campo obrigatório.",
	"name is required":                                       "O nome é obrigatório.",
	"email is required":                                      "O e-mail é obrigatório.",
	"email is invalid":                                       "E-mail inválido.",
	"password is required":                                   "A senha é obrigatória.",
	"role must be master, admin, ti or user":                 "Perfil inválido.",
	"department is required":                                 "Informe o setor.",
	"department id is required":                              "Informe o setor.",
	"unit is required":                                       "Informe a unidade.",
	"unit not found":                                         "Unidade não encontrada.",
	"logo must be PNG, JPEG or WebP":                         "O logotipo deve ser PNG, JPEG ou WebP.",
	"postal code must have 8 digits":                         "O CEP deve ter 8 dígitos.",
	"url must be absolute":                                   "Informe uma URL completa.",
	"capacity must be positive":                              "A capacidade deve ser positiva.",
	"start time must be HH:MM":                               "Horário inicial inválido.",
	"end time must be HH:MM":                                 "Horário final inválido.",
	"end time must be after start time":                      "O horário final deve ser depois do inicial.",
	"room does not exist":                                    "Sala não encontrada.",
	"date must be YYYY-MM-DD":                                "Data inválida.",
	"subject is required":                                    "Informe o assunto.",
	"at least one slot is required":                          "Selecione ao menos um horário.",
	"slot has already ended":                                 "Este horário já passou.",
	"slot is outside the room operating hours":               "Horário fora do funcionamento da sala.",
	"title is required":                                      "O título é obrigatório.",
	"movement type must be entrega, emprestimo or devolucao": "Tipo de movimentação inválido.",
	"every field needs a label and a key":                    "Todo campo precisa de rótulo e chave.",
	"every variable needs a key":                             "Toda variável precisa de chave.",
	"employee not found":                                     "Colaborador não encontrado.",
	"return templates are issued from the original term":     "Termos de devolução são emitidos a partir do termo original.",
	"template must be a devolucao template":                  "Selecione um modelo de devolução.",
	"only entrega and emprestimo terms have a return":        "Apenas termos de entrega ou empréstimo têm devolução.",
	"cpf must have 11 digits":                                "O CPF deve ter 11 dígitos.",
	"register a signature image before signing":              "Cadastre sua assinatura antes de assinar.",
	"signature image must be a PNG data URL":                 "A assinatura deve ser uma imagem PNG.",
	"phone type must be fixo or celular":                     "Tipo de telefone inválido.",
	"must be a valid email":                                  "E-mail inválido.",
	"must be a valid URL":                                    "URL inválida.",
	"is too short":                                           "Valor muito curto.",
	"has an invalid value":                                   "Valor inválido.",
}

func translateValidationMessage(message string) string {
	if translated, ok := validationMessages[message]; ok {
		return translated
	}
	switch {
	case strings.HasPrefix(message, "password must have at least"):
		return "A senha deve ter pelo menos " + strings.TrimSuffix(strings.TrimPrefix(message, "password must have at least "), " characters") + " caracteres."
	case strings.HasPrefix(message, "variable "):
		return "Variável inválida: " + strings.TrimPrefix(message, "variable ")
	}
	return message
}

type errorResponse struct {
	ErrorCode string            `json:"errorCode,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

func (r responder) writeDecodeError(ctx context.Context, w http.ResponseWriter, err error) {
	if isBadRequest(err) {
		r.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	r.handleServiceError(ctx, w, err)
}
