package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/example/intranet-portal/internal/notification"
	"github.com/example/intranet-portal/internal/persistence"
	"github.com/example/intranet-portal/internal/signature"
)

// SignatureRepository stores signature requests and the generation log.
type SignatureRepository interface {
	CreateSignatureRequest(ctx context.Context, request SignatureRequest) error
	GetSignatureRequest(ctx context.Context, id string) (SignatureRequest, error)
	ListSignatureRequests(ctx context.Context) ([]SignatureRequest, error)
	CompleteSignatureRequest(ctx context.Context, request SignatureRequest) error
	AppendSignatureLog(ctx context.Context, entry SignatureLog) error
	ListSignatureLogs(ctx context.Context) ([]SignatureLog, error)
}

// SignatureService handles e-mail signature requests and their rendering.
type SignatureService struct {
	repo        SignatureRepository
	directory   EmployeeDirectory
	notifier    Notifier
	idGenerator func() string
	now         func() time.Time
	metrics     Metrics
	logger      *slog.Logger
}

// NewSignatureService constructs a signature service.
func NewSignatureService(repo SignatureRepository, directory EmployeeDirectory, notifier Notifier, idGenerator func() string, now func() time.Time) *SignatureService {
	return NewSignatureServiceWithLogger(repo, directory, notifier, idGenerator, now, nil, nil)
}

// NewSignatureServiceWithLogger constructs a signature service with metrics and a logger.
func NewSignatureServiceWithLogger(repo SignatureRepository, directory EmployeeDirectory, notifier Notifier, idGenerator func() string, now func() time.Time, metrics Metrics, logger *slog.Logger) *SignatureService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SignatureService{
		repo:        repo,
		directory:   directory,
		notifier:    defaultNotifier(notifier),
		idGenerator: idGenerator,
		now:         now,
		metrics:     defaultMetrics(metrics),
		logger:      defaultLogger(logger),
	}
}

func (s *SignatureService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SignatureService", operation, attrs...)
}

func (s *SignatureService) ready() error {
	if s == nil {
		return fmt.Errorf("SignatureService is nil")
	}
	if s.repo == nil || s.directory == nil {
		return fmt.Errorf("signature repositories not configured")
	}
	return nil
}

// RequestSignature files a PENDING request and notifies every TI employee.
func (s *SignatureService) RequestSignature(ctx context.Context, principal Principal, data SignatureData) (request SignatureRequest, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "RequestSignature", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to request signature", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("request_id", request.ID).InfoContext(ctx, "signature requested")
	}()

	if !principal.Can(CapSignaturesRequest) {
		err = ErrUnauthorized
		return
	}
	data = normalizeSignatureData(data)
	if vErr := validateSignatureData(data); vErr.HasErrors() {
		err = vErr
		return
	}

	request = SignatureRequest{
		ID:            s.idGenerator(),
		RequesterID:   principal.UserID,
		RequesterName: principal.Name,
		Status:        SignatureRequestPending,
		Requested:     data,
		CreatedAt:     s.now(),
	}
	if err = s.repo.CreateSignatureRequest(ctx, request); err != nil {
		err = mapSignatureRepoError(err)
		return
	}

	employees, listErr := s.directory.ListEmployees(ctx)
	if listErr != nil {
		logger.WarnContext(ctx, "failed to list TI recipients", "error", listErr)
		return
	}
	recipients := make([]string, 0)
	for _, e := range employees {
		if e.Role == RoleTI && !e.Disabled {
			recipients = append(recipients, e.ID)
		}
	}
	s.notifier.Notify(ctx, NotifyParams{
		Recipients: recipients,
		Kind:       notification.KindSignatureRequested,
		Params:     notification.Params{Actor: principal.Name},
		Link:       "/signatures/requests/" + request.ID,
	})
	return
}

// ListSignatureRequests returns every request for signature managers and
// the principal's own requests otherwise, newest first.
func (s *SignatureService) ListSignatureRequests(ctx context.Context, principal Principal) (requests []SignatureRequest, err error) {
	if err = s.ready(); err != nil {
		return
	}
	var all []SignatureRequest
	if all, err = s.repo.ListSignatureRequests(ctx); err != nil {
		s.loggerWith(ctx, "ListSignatureRequests", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to list signature requests", "error", err, "error_kind", ErrorKind(err))
		return
	}
	manager := principal.Can(CapSignaturesManage)
	requests = make([]SignatureRequest, 0, len(all))
	for _, r := range all {
		if manager || r.RequesterID == principal.UserID {
			requests = append(requests, r)
		}
	}
	sort.Slice(requests, func(i, j int) bool { return requests[i].CreatedAt.After(requests[j].CreatedAt) })
	return
}

// RenderSignaturePreview draws data without storing anything.
func (s *SignatureService) RenderSignaturePreview(ctx context.Context, principal Principal, data SignatureData) (dataURL string, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if !principal.Can(CapSignaturesRequest) {
		return "", ErrUnauthorized
	}
	dataURL, err = s.render(ctx, normalizeSignatureData(data))
	if err != nil {
		s.loggerWith(ctx, "RenderSignaturePreview", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to render signature preview", "error", err, "error_kind", ErrorKind(err))
	}
	return
}

// CompleteSignatureRequest renders the final data, stores the image and
// notifies the requester. A request completes once.
func (s *SignatureService) CompleteSignatureRequest(ctx context.Context, params CompleteSignatureRequestParams) (request SignatureRequest, err error) {
	if err = s.ready(); err != nil {
		return
	}
	logger := s.loggerWith(ctx, "CompleteSignatureRequest", "principal_id", params.Principal.UserID, "request_id", params.RequestID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to complete signature request", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "signature request completed")
	}()

	if !params.Principal.Can(CapSignaturesManage) {
		err = ErrUnauthorized
		return
	}
	if request, err = s.repo.GetSignatureRequest(ctx, strings.TrimSpace(params.RequestID)); err != nil {
		err = mapSignatureRepoError(err)
		return
	}
	if request.Status == SignatureRequestCompleted {
		err = ErrAlreadyExists
		return
	}

	final := request.Requested
	if params.Final != nil {
		final = normalizeSignatureData(*params.Final)
	}
	if vErr := validateSignatureData(final); vErr.HasErrors() {
		err = vErr
		return
	}

	var dataURL string
	if dataURL, err = s.render(ctx, final); err != nil {
		return
	}

	completedAt := s.now()
	request.Status = SignatureRequestCompleted
	request.Final = &final
	request.ImageDataURL = dataURL
	request.GeneratedBy = params.Principal.Name
	request.CompletedAt = &completedAt
	if err = s.repo.CompleteSignatureRequest(ctx, request); err != nil {
		err = mapSignatureRepoError(err)
		return
	}

	entry := SignatureLog{
		ID:          s.idGenerator(),
		RequestID:   request.ID,
		Name:        final.Name,
		Email:       final.Email,
		UnitID:      final.UnitID,
		GeneratedBy: params.Principal.Name,
		CreatedAt:   completedAt,
	}
	if logErr := s.repo.AppendSignatureLog(ctx, entry); logErr != nil {
		logger.WarnContext(ctx, "failed to append signature log", "error", logErr)
	}

	s.notifier.Notify(ctx, NotifyParams{
		Recipients: []string{request.RequesterID},
		Kind:       notification.KindSignatureCompleted,
		Params:     notification.Params{Actor: params.Principal.Name},
		Link:       "/signatures/requests/" + request.ID,
	})
	return
}

// ListSignatureLogs returns the generation log, newest first.
func (s *SignatureService) ListSignatureLogs(ctx context.Context, principal Principal) (logs []SignatureLog, err error) {
	if err = s.ready(); err != nil {
		return
	}
	if !principal.Can(CapSignaturesManage) {
		return nil, ErrUnauthorized
	}
	if logs, err = s.repo.ListSignatureLogs(ctx); err != nil {
		return
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return
}

func (s *SignatureService) render(ctx context.Context, data SignatureData) (string, error) {
	units, err := s.directory.ListUnits(ctx)
	if err != nil {
		return "", err
	}

	canvas, err := signature.NewCanvas()
	if err != nil {
		s.metrics.SignatureRendered(false)
		return "", fmt.Errorf("create canvas: %w", err)
	}
	defer canvas.Close()

	if !signature.Render(canvas, toSignatureData(data), toSignatureUnits(units)) {
		s.metrics.SignatureRendered(false)
		return "", newValidationError("unitId", "unit not found")
	}
	dataURL, err := signature.EncodeDataURL(canvas.Image())
	if err != nil {
		s.metrics.SignatureRendered(false)
		return "", fmt.Errorf("encode signature: %w", err)
	}
	s.metrics.SignatureRendered(true)
	return dataURL, nil
}

func toSignatureData(data SignatureData) signature.Data {
	phones := make([]signature.Phone, 0, len(data.Phones))
	for _, p := range data.Phones {
		phones = append(phones, signature.Phone{Number: p.Number, Type: p.Type})
	}
	return signature.Data{
		Name:   data.Name,
		Email:  data.Email,
		UnitID: data.UnitID,
		Sector: data.Sector,
		Phones: phones,
	}
}

func toSignatureUnits(units []Unit) []signature.Unit {
	out := make([]signature.Unit, 0, len(units))
	for _, u := range units {
		out = append(out, signature.Unit{
			ID:             u.ID,
			Domain:         u.Domain,
			Logo:           u.Logo,
			Certifications: u.Certifications,
			AddressLine1:   u.AddressLine1,
			AddressLine2:   u.AddressLine2,
		})
	}
	return out
}

func normalizeSignatureData(data SignatureData) SignatureData {
	out := SignatureData{
		Name:   strings.TrimSpace(data.Name),
		Email:  strings.ToLower(strings.TrimSpace(data.Email)),
		UnitID: strings.TrimSpace(data.UnitID),
		Sector: strings.TrimSpace(data.Sector),
		Phones: make([]SignaturePhone, 0, len(data.Phones)),
	}
	for _, p := range data.Phones {
		number := strings.TrimSpace(p.Number)
		if number == "" {
			continue
		}
		out.Phones = append(out.Phones, SignaturePhone{Number: number, Type: strings.TrimSpace(p.Type)})
	}
	return out
}

func validateSignatureData(data SignatureData) *ValidationError {
	vErr := &ValidationError{}
	if data.Name == "" {
		vErr.add("name", "name is required")
	}
	if data.Email == "" {
		vErr.add("email", "email is required")
	} else if _, err := mail.ParseAddress(data.Email); err != nil {
		vErr.add("email", "email is invalid")
	}
	if data.UnitID == "" {
		vErr.add("unitId", "unit is required")
	}
	for _, p := range data.Phones {
		if p.Type != signature.PhoneLandline && p.Type != signature.PhoneMobile {
			vErr.add("phones", "phone type must be fixo or celular")
			break
		}
	}
	return vErr
}

func mapSignatureRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}
