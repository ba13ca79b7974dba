package http

import (
	"net/http"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/service"
)

// AdminHandler serves report submission and the administrator routes.
type AdminHandler struct {
	moderationSvc service.ModerationService
	adminSvc      service.AdminService
}

func NewAdminHandler(moderationSvc service.ModerationService, adminSvc service.AdminService) *AdminHandler {
	return &AdminHandler{moderationSvc: moderationSvc, adminSvc: adminSvc}
}

type reportBody struct {
	RequestID   int32  `json:"requestId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

type resolveBody struct {
	Status     domain.ReportStatus `json:"status"`
	AdminNotes string              `json:"adminNotes"`
}

type banBody struct {
	Banned bool `json:"banned"`
}

func (h *AdminHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body reportBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.moderationSvc.SubmitReport(r.Context(), actor, body.RequestID, body.Reason, body.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *AdminHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	status := domain.ReportStatus(r.URL.Query().Get("status"))
	reports, total, err := h.moderationSvc.ListReports(r.Context(), status, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, reports, total, page)
}

func (h *AdminHandler) ResolveReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body resolveBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.moderationSvc.ResolveReport(r.Context(), actor, id, body.Status, body.AdminNotes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	users, total, err := h.adminSvc.ListUsers(r.Context(), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, users, total, page)
}

func (h *AdminHandler) SetBanned(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body banBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := h.adminSvc.SetBanned(r.Context(), actor, id, body.Banned)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	page, size := pageParams(r)
	q := r.URL.Query()
	filter := domain.RequestFilter{Statuses: statusesParam(q["status"]), Page: page, PageSize: size}
	reqs, total, err := h.adminSvc.ListRequests(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, reqs, total, page)
}

func (h *AdminHandler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.adminSvc.DeleteRequest(r.Context(), actor, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
