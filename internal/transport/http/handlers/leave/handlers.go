package leavehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"leavedesk/internal/domain/auth"
	"leavedesk/internal/domain/leave"
	"leavedesk/internal/transport/http/api"
	"leavedesk/internal/transport/http/middleware"
	"leavedesk/internal/transport/http/shared"
)

// UserDirectory resolves which user IDs fall under a department head.
type UserDirectory interface {
	TeamMemberIDs(ctx context.Context, department string) ([]string, error)
}

type Handler struct {
	Engine *leave.Engine
	Users  UserDirectory
}

func NewHandler(engine *leave.Engine, users UserDirectory) *Handler {
	return &Handler{Engine: engine, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Get("/policies", h.handleListPolicies)
		r.Post("/requests", h.handleSubmit)
		r.Get("/requests", h.handleList)
		r.Get("/requests/{requestID}", h.handleGet)
		r.Post("/requests/{requestID}/approve", h.handleApprove)
		r.Post("/requests/{requestID}/reject", h.handleReject)
		r.Delete("/requests/{requestID}", h.handleDelete)
		r.With(middleware.RequireRole(auth.RoleAdmin, auth.RoleDepartmentHead)).
			Get("/calendar/export", h.handleCalendarExport)
	})
}

type submitPayload struct {
	LeaveType   string `json:"leaveType"`
	Domain      string `json:"domain,omitempty"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Reason      string `json:"reason"`
	DocumentRef string `json:"documentRef,omitempty"`
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUser(r.Context()); !ok {
		unauthorized(w, r)
		return
	}

	table := h.Engine.Policies()
	out := make([]map[string]any, 0)
	for _, category := range table.Categories() {
		policy, err := table.Resolve(category)
		if err != nil {
			continue
		}
		out = append(out, map[string]any{
			"domain":           category.Domain,
			"code":             category.Code,
			"minAdvanceHours":  policy.MinAdvanceHours,
			"documentRequired": policy.DocumentRequired,
		})
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}
	if user.Role == auth.RoleAdmin {
		api.Fail(w, http.StatusForbidden, "forbidden", "admins do not file leave requests", middleware.GetRequestID(r.Context()))
		return
	}

	var payload submitPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	startDate, err := shared.ParseDate(payload.StartDate)
	if err != nil || startDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "validation_error", "startDate must be a valid date in YYYY-MM-DD format", middleware.GetRequestID(r.Context()))
		return
	}
	endDate, err := shared.ParseDate(payload.EndDate)
	if err != nil || endDate.IsZero() {
		api.Fail(w, http.StatusBadRequest, "validation_error", "endDate must be a valid date in YYYY-MM-DD format", middleware.GetRequestID(r.Context()))
		return
	}

	req, err := h.Engine.Submit(r.Context(), leave.Submission{
		RequesterID:   user.UserID,
		RequesterRole: user.Role,
		Category:      resolveCategory(user.Role, payload.Domain, payload.LeaveType),
		StartDate:     startDate,
		EndDate:       endDate,
		Reason:        payload.Reason,
		DocumentRef:   payload.DocumentRef,
	})
	if err != nil {
		failFromError(w, r, err)
		return
	}
	api.Created(w, req, middleware.GetRequestID(r.Context()))
}

// resolveCategory maps the caller's context onto the right leave-type
// catalogue: employees use the self-service types, department heads record
// against the administrative set. An explicit domain wins when supplied.
func resolveCategory(role, domain, code string) leave.Category {
	resolved := leave.DomainSelfService
	if role == auth.RoleDepartmentHead {
		resolved = leave.DomainAdministrative
	}
	if domain != "" {
		resolved = leave.Domain(domain)
	}
	return leave.Category{Domain: resolved, Code: strings.ToLower(strings.TrimSpace(code))}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "own"
	}

	filter := leave.ListFilter{Status: leave.Status(r.URL.Query().Get("status"))}
	switch scope {
	case "own":
		filter.RequesterIDs = []string{user.UserID}
	case "team":
		if user.Role != auth.RoleDepartmentHead && user.Role != auth.RoleAdmin {
			api.Fail(w, http.StatusForbidden, "forbidden", "team scope requires department head role", middleware.GetRequestID(r.Context()))
			return
		}
		members, err := h.Users.TeamMemberIDs(r.Context(), user.Department)
		if err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "collaborator_unavailable", "failed to resolve team members", middleware.GetRequestID(r.Context()))
			return
		}
		if len(members) == 0 {
			api.Success(w, []leave.Request{}, middleware.GetRequestID(r.Context()))
			return
		}
		filter.RequesterIDs = members
	case "all":
		if user.Role != auth.RoleAdmin {
			api.Fail(w, http.StatusForbidden, "forbidden", "all scope requires admin role", middleware.GetRequestID(r.Context()))
			return
		}
	default:
		api.Fail(w, http.StatusBadRequest, "validation_error", "scope must be own, team or all", middleware.GetRequestID(r.Context()))
		return
	}

	requests, err := h.Engine.List(r.Context(), filter)
	if err != nil {
		failFromError(w, r, err)
		return
	}
	if requests == nil {
		requests = []leave.Request{}
	}
	api.Success(w, requests, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	req, err := h.Engine.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		failFromError(w, r, err)
		return
	}
	if user.Role == auth.RoleEmployee && req.RequesterID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusApproved)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, leave.StatusRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, outcome leave.Status) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	req, err := h.Engine.Decide(r.Context(), chi.URLParam(r, "requestID"), user.Role, user.UserID, outcome)
	if err != nil {
		failFromError(w, r, err)
		return
	}
	api.Success(w, req, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		unauthorized(w, r)
		return
	}

	requestID := chi.URLParam(r, "requestID")
	req, err := h.Engine.Get(r.Context(), requestID)
	if err != nil {
		failFromError(w, r, err)
		return
	}
	if user.Role != auth.RoleAdmin && req.RequesterID != user.UserID {
		api.Fail(w, http.StatusForbidden, "forbidden", "only the owner or an admin may delete a request", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Engine.Remove(r.Context(), requestID); err != nil {
		failFromError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "deleted"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCalendarExport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	filter := leave.ListFilter{}
	if user.Role == auth.RoleDepartmentHead {
		members, err := h.Users.TeamMemberIDs(r.Context(), user.Department)
		if err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "collaborator_unavailable", "failed to resolve team members", middleware.GetRequestID(r.Context()))
			return
		}
		filter.RequesterIDs = append(members, user.UserID)
	}

	requests, err := h.Engine.List(r.Context(), filter)
	if err != nil {
		failFromError(w, r, err)
		return
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, "Leave Calendar")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 10)
	headers := []string{"Requester", "Type", "Start", "End", "Days", "Status"}
	widths := []float64{60, 40, 30, 30, 20, 30}
	for i, header := range headers {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, req := range requests {
		if req.Status == leave.StatusRejected {
			continue
		}
		cells := []string{
			req.RequesterID,
			req.Category.Code,
			req.StartDate.Format("2006-01-02"),
			req.EndDate.Format("2006-01-02"),
			fmt.Sprintf("%d", req.TotalDays),
			string(req.Status),
		}
		for i, cell := range cells {
			pdf.CellFormat(widths[i], 8, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	// Render fully before writing headers so a failure can still produce
	// a clean error response instead of a truncated PDF.
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		slog.Error("calendar export render failed", "err", err, "requestId", middleware.GetRequestID(r.Context()))
		api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render calendar export", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="leave-calendar.pdf"`)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("calendar export write failed", "err", err)
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
}

// failFromError maps engine errors onto the envelope. Policy violations are
// rendered verbatim so the caller can show the specific reason.
func failFromError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, leave.ErrUnknownLeaveType):
		api.Fail(w, http.StatusBadRequest, "unknown_leave_type", err.Error(), requestID)
	case errors.Is(err, leave.ErrAdvanceNotice):
		api.Fail(w, http.StatusBadRequest, "advance_notice_too_short", err.Error(), requestID)
	case errors.Is(err, leave.ErrDocumentRequired):
		api.Fail(w, http.StatusBadRequest, "document_required", err.Error(), requestID)
	case errors.Is(err, leave.ErrAlreadyOnLeave):
		api.Fail(w, http.StatusConflict, "already_on_leave", err.Error(), requestID)
	case errors.Is(err, leave.ErrDateConflict):
		api.Fail(w, http.StatusConflict, "date_conflict", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may not act on this request", requestID)
	case errors.Is(err, leave.ErrAlreadyFinalized):
		api.Fail(w, http.StatusConflict, "already_finalized", err.Error(), requestID)
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", requestID)
	case errors.Is(err, leave.ErrStoreUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "collaborator_unavailable", "record store unavailable, please retry", requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
