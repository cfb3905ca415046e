package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/intranet-portal/internal/application"
	"github.com/example/intranet-portal/internal/postalcode"
)

type directoryService interface {
	CreateEmployee(ctx context.Context, params application.CreateEmployeeParams) (application.Employee, error)
	UpdateEmployee(ctx context.Context, params application.UpdateEmployeeParams) (application.Employee, error)
	GetEmployee(ctx context.Context, principal application.Principal, employeeID string) (application.Employee, error)
	SearchEmployees(ctx context.Context, principal application.Principal, query string) ([]application.Employee, error)
	UpdateSignatureImage(ctx context.Context, principal application.Principal, image string) error
	UpsertUnit(ctx context.Context, params application.UpsertUnitParams) (application.Unit, error)
	GetUnit(ctx context.Context, principal application.Principal, unitID string) (application.Unit, error)
	ListUnits(ctx context.Context, principal application.Principal) ([]application.Unit, error)
	UpsertDepartment(ctx context.Context, params application.UpsertDepartmentParams) (application.Department, error)
	ListDepartments(ctx context.Context, principal application.Principal) ([]application.Department, error)
	UpsertSystem(ctx context.Context, params application.UpsertSystemParams) (application.System, error)
	ListSystems(ctx context.Context, principal application.Principal) ([]application.System, error)
	LookupPostalCode(ctx context.Context, principal application.Principal, code string) postalcode.Address
}

// DirectoryHandler serves employees, units, departments, systems and postal code lookups.
type DirectoryHandler struct {
	service   directoryService
	responder responder
	logger    *slog.Logger
}

func NewDirectoryHandler(service directoryService, logger *slog.Logger) *DirectoryHandler {
	base := defaultLogger(logger)
	return &DirectoryHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DirectoryHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DirectoryHandler", operation, attrs...)
}

func (h *DirectoryHandler) ready(w http.ResponseWriter) bool {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *DirectoryHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	logger := h.log(r.Context(), "ListEmployees", "principal_id", principal.UserID, "query", query)

	employees, err := h.service.SearchEmployees(r.Context(), principal, query)
	if err != nil {
		logger.ErrorContext(r.Context(), "employee search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]employeeDTO, 0, len(employees))
	for _, e := range employees {
		out = append(out, toEmployeeDTO(e))
	}
	logger.With("result_count", len(out)).InfoContext(r.Context(), "employees listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listEmployeesResponse{Employees: out})
}

func (h *DirectoryHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	employee, err := h.service.GetEmployee(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "GetEmployee", "employee_id", id).ErrorContext(r.Context(), "employee lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeResponse{Employee: toEmployeeDTO(employee)})
}

func (h *DirectoryHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req employeeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.log(r.Context(), "CreateEmployee", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee request", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "CreateEmployee", "principal_id", principal.UserID)

	employee, err := h.service.CreateEmployee(r.Context(), application.CreateEmployeeParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "employee creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("employee_id", employee.ID).InfoContext(r.Context(), "employee created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, employeeResponse{Employee: toEmployeeDTO(employee)})
}

func (h *DirectoryHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req employeeRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.log(r.Context(), "UpdateEmployee", "principal_id", principal.UserID, "employee_id", id, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee update", "error", err)
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpdateEmployee", "principal_id", principal.UserID, "employee_id", id)

	employee, err := h.service.UpdateEmployee(r.Context(), application.UpdateEmployeeParams{
		Principal:  principal,
		EmployeeID: id,
		Input:      req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "employee update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "employee updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeResponse{Employee: toEmployeeDTO(employee)})
}

func (h *DirectoryHandler) UpdateSignatureImage(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req signatureImageRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpdateSignatureImage", "principal_id", principal.UserID)
	if err := h.service.UpdateSignatureImage(r.Context(), principal, req.Image); err != nil {
		logger.ErrorContext(r.Context(), "signature image update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.InfoContext(r.Context(), "signature image stored")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *DirectoryHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	units, err := h.service.ListUnits(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListUnits").ErrorContext(r.Context(), "unit list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]unitDTO, 0, len(units))
	for _, u := range units {
		out = append(out, toUnitDTO(u))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUnitsResponse{Units: out})
}

func (h *DirectoryHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	unit, err := h.service.GetUnit(r.Context(), principal, r.PathValue("id"))
	if err != nil {
		h.log(r.Context(), "GetUnit", "unit_id", r.PathValue("id")).ErrorContext(r.Context(), "unit lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unitResponse{Unit: toUnitDTO(unit)})
}

// UpsertUnit serves both POST /units and PUT /units/{id}.
func (h *DirectoryHandler) UpsertUnit(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req unitRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpsertUnit", "principal_id", principal.UserID, "unit_id", id)

	unit, err := h.service.UpsertUnit(r.Context(), application.UpsertUnitParams{
		Principal: principal,
		UnitID:    id,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "unit upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("unit_id", unit.ID).InfoContext(r.Context(), "unit saved")
	h.responder.writeJSON(r.Context(), w, upsertStatus(id), unitResponse{Unit: toUnitDTO(unit)})
}

func (h *DirectoryHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	departments, err := h.service.ListDepartments(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListDepartments").ErrorContext(r.Context(), "department list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]departmentDTO, 0, len(departments))
	for _, d := range departments {
		out = append(out, toDepartmentDTO(d))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDepartmentsResponse{Departments: out})
}

func (h *DirectoryHandler) UpsertDepartment(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req departmentRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpsertDepartment", "principal_id", principal.UserID, "department_id", id)

	department, err := h.service.UpsertDepartment(r.Context(), application.UpsertDepartmentParams{
		Principal:    principal,
		DepartmentID: id,
		Name:         req.Name,
		UnitID:       req.UnitID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "department upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("department_id", department.ID).InfoContext(r.Context(), "department saved")
	h.responder.writeJSON(r.Context(), w, upsertStatus(id), departmentResponse{Department: toDepartmentDTO(department)})
}

func (h *DirectoryHandler) ListSystems(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	systems, err := h.service.ListSystems(r.Context(), principal)
	if err != nil {
		h.log(r.Context(), "ListSystems").ErrorContext(r.Context(), "system list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	out := make([]systemDTO, 0, len(systems))
	for _, s := range systems {
		out = append(out, toSystemDTO(s))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listSystemsResponse{Systems: out})
}

func (h *DirectoryHandler) UpsertSystem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	var req systemRequest
	if err := decodeRequest(w, r, &req); err != nil {
		h.responder.writeDecodeError(r.Context(), w, err)
		return
	}
	logger := h.log(r.Context(), "UpsertSystem", "principal_id", principal.UserID, "system_id", id)

	system, err := h.service.UpsertSystem(r.Context(), application.UpsertSystemParams{
		Principal:   principal,
		SystemID:    id,
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "system upsert failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.With("system_id", system.ID).InfoContext(r.Context(), "system saved")
	h.responder.writeJSON(r.Context(), w, upsertStatus(id), systemResponse{System: toSystemDTO(system)})
}

// LookupPostalCode always answers 200; unknown codes come back blank.
func (h *DirectoryHandler) LookupPostalCode(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	address := h.service.LookupPostalCode(r.Context(), principal, r.PathValue("code"))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, addressResponse{Address: address})
}

func upsertStatus(id string) int {
	if strings.TrimSpace(id) == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}

func (req *employeeRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

type employeeRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Role         string `json:"role" validate:"omitempty,oneof=master admin ti user"`
	DepartmentID string `json:"departmentId"`
	UnitID       string `json:"unitId"`
	Position     string `json:"position"`
	Extension    string `json:"extension"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	Disabled     bool   `json:"disabled"`
}

func (r employeeRequest) toInput() application.EmployeeInput {
	return application.EmployeeInput{
		Name:         strings.TrimSpace(r.Name),
		Email:        strings.TrimSpace(r.Email),
		Role:         strings.TrimSpace(r.Role),
		DepartmentID: strings.TrimSpace(r.DepartmentID),
		UnitID:       strings.TrimSpace(r.UnitID),
		Position:     strings.TrimSpace(r.Position),
		Extension:    strings.TrimSpace(r.Extension),
		Phone:        strings.TrimSpace(r.Phone),
		Password:     r.Password,
		Disabled:     r.Disabled,
	}
}

type signatureImageRequest struct {
	Image string `json:"image" validate:"required"`
}

type employeeDTO struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	Role              string `json:"role"`
	DepartmentID      string `json:"departmentId,omitempty"`
	UnitID            string `json:"unitId,omitempty"`
	Position          string `json:"position,omitempty"`
	Extension         string `json:"extension,omitempty"`
	Phone             string `json:"phone,omitempty"`
	HasSignatureImage bool   `json:"hasSignatureImage"`
	Disabled          bool   `json:"disabled"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func toEmployeeDTO(e application.Employee) employeeDTO {
	return employeeDTO{
		ID:                e.ID,
		Name:              e.Name,
		Email:             e.Email,
		Role:              e.Role,
		DepartmentID:      e.DepartmentID,
		UnitID:            e.UnitID,
		Position:          e.Position,
		Extension:         e.Extension,
		Phone:             e.Phone,
		HasSignatureImage: e.SignatureImage != "",
		Disabled:          e.Disabled,
		CreatedAt:         formatTime(e.CreatedAt),
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
}

type employeeResponse struct {
	Employee employeeDTO `json:"employee"`
}

type listEmployeesResponse struct {
	Employees []employeeDTO `json:"employees"`
}

type unitRequest struct {
	Name           string   `json:"name" validate:"required"`
	Domain         string   `json:"domain"`
	Logo           []byte   `json:"logo"`
	LogoMIME       string   `json:"logoMime"`
	Certifications []string `json:"certifications"`
	PostalCode     string   `json:"postalCode"`
	AddressLine1   string   `json:"addressLine1"`
	AddressLine2   string   `json:"addressLine2"`
	Phone          string   `json:"phone"`
}

func (r unitRequest) toInput() application.UnitInput {
	return application.UnitInput{
		Name:           strings.TrimSpace(r.Name),
		Domain:         strings.TrimSpace(r.Domain),
		Logo:           r.Logo,
		LogoMIME:       strings.TrimSpace(r.LogoMIME),
		Certifications: r.Certifications,
		PostalCode:     strings.TrimSpace(r.PostalCode),
		AddressLine1:   strings.TrimSpace(r.AddressLine1),
		AddressLine2:   strings.TrimSpace(r.AddressLine2),
		Phone:          strings.TrimSpace(r.Phone),
	}
}

type unitDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Domain         string   `json:"domain,omitempty"`
	Logo           []byte   `json:"logo,omitempty"`
	LogoMIME       string   `json:"logoMime,omitempty"`
	Certifications []string `json:"certifications"`
	PostalCode     string   `json:"postalCode,omitempty"`
	AddressLine1   string   `json:"addressLine1,omitempty"`
	AddressLine2   string   `json:"addressLine2,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	UpdatedAt      string   `json:"updatedAt"`
}

func toUnitDTO(u application.Unit) unitDTO {
	certs := u.Certifications
	if certs == nil {
		certs = []string{}
	}
	return unitDTO{
		ID:             u.ID,
		Name:           u.Name,
		Domain:         u.Domain,
		Logo:           u.Logo,
		LogoMIME:       u.LogoMIME,
		Certifications: certs,
		PostalCode:     u.PostalCode,
		AddressLine1:   u.AddressLine1,
		AddressLine2:   u.AddressLine2,
		Phone:          u.Phone,
		UpdatedAt:      formatTime(u.UpdatedAt),
	}
}

type unitResponse struct {
	Unit unitDTO `json:"unit"`
}

type listUnitsResponse struct {
	Units []unitDTO `json:"units"`
}

type departmentRequest struct {
	Name   string `json:"name" validate:"required"`
	UnitID string `json:"unitId"`
}

type departmentDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	UnitID string `json:"unitId,omitempty"`
}

func toDepartmentDTO(d application.Department) departmentDTO {
	return departmentDTO{ID: d.ID, Name: d.Name, UnitID: d.UnitID}
}

type departmentResponse struct {
	Department departmentDTO `json:"department"`
}

type listDepartmentsResponse struct {
	Departments []departmentDTO `json:"departments"`
}

type systemRequest struct {
	Name        string `json:"name" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	Description string `json:"description"`
}

type systemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

func toSystemDTO(s application.System) systemDTO {
	return systemDTO{ID: s.ID, Name: s.Name, URL: s.URL, Description: s.Description}
}

type systemResponse struct {
	System systemDTO `json:"system"`
}

type listSystemsResponse struct {
	Systems []systemDTO `json:"systems"`
}

type addressResponse struct {
	Address postalcode.Address `json:"address"`
}
