package http

import (
	"fmt"
	"net/http"
	"strings"

	"sharenet-backend/internal/domain"
	"sharenet-backend/internal/service"
)

type RequestHandler struct {
	requestSvc     service.RequestService
	reviewSvc      service.ReviewService
	transactionSvc service.TransactionService
}

func NewRequestHandler(requestSvc service.RequestService, reviewSvc service.ReviewService, transactionSvc service.TransactionService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc, reviewSvc: reviewSvc, transactionSvc: transactionSvc}
}

type submitRequestBody struct {
	ResourceID     int32  `json:"resourceId"`
	PickupDate     string `json:"pickupDate"`
	ReturnDate     string `json:"returnDate"`
	PickupMethod   string `json:"pickupMethod"`
	MessageToOwner string `json:"messageToOwner"`
	BorrowLocation string `json:"borrowLocation"`
}

type statusBody struct {
	Status domain.RequestStatus `json:"status"`
}

type reviewBody struct {
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var body submitRequestBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.ResourceID <= 0 {
		writeError(w, r, fmt.Errorf("%w: resourceId is required", domain.ErrInvalidInput))
		return
	}

	req, err := h.requestSvc.Submit(r.Context(), actor, domain.SubmitInput{
		ResourceID:     body.ResourceID,
		PickupDate:     body.PickupDate,
		ReturnDate:     body.ReturnDate,
		PickupMethod:   domain.PickupMethod(body.PickupMethod),
		MessageToOwner: body.MessageToOwner,
		BorrowLocation: body.BorrowLocation,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body statusBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}

	req, err := h.requestSvc.UpdateStatus(r.Context(), actor, id, body.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := h.requestSvc.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, size := pageParams(r)
	q := r.URL.Query()
	reqs, total, err := h.requestSvc.List(r.Context(), actor, q.Get("role"), statusesParam(q["status"]), page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, reqs, total, page)
}

func (h *RequestHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := h.reviewSvc.Create(r.Context(), actor, id, body.Rating, body.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *RequestHandler) UserReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := h.reviewSvc.ListForUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *RequestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	page, size := pageParams(r)
	txns, total, err := h.transactionSvc.ListMine(r.Context(), actor, page, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeList(w, txns, total, page)
}

// statusesParam accepts both repeated and comma separated status values.
func statusesParam(values []string) []domain.RequestStatus {
	var out []domain.RequestStatus
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, domain.RequestStatus(s))
			}
		}
	}
	return out
}

func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.ErrUnauthenticated)
	}
	return actor, ok
}
