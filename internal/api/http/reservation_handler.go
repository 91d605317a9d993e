package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

type createBatchRequest struct {
	Candidates []domain.ReservationCandidate `json:"candidates"`
}

func (h *ReservationHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	claims := claimsFrom(r.Context())

	reservations, err := h.reservations.CreateBatch(r.Context(), claims.HolderID, req.Candidates)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCapacity) {
			capacityRejections.Inc()
		}
		writeError(w, err)
		return
	}
	reservationsCreated.Add(float64(len(reservations)))
	writeJSON(w, http.StatusCreated, reservations)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid reservation id")
		return
	}
	claims := claimsFrom(r.Context())
	if err := h.reservations.Cancel(r.Context(), claims.HolderID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid reservation id")
		return
	}
	res, err := h.reservations.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	claims := claimsFrom(r.Context())
	if res.HolderID != claims.HolderID && !claims.Staff {
		writeError(w, domain.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	openOnly := r.URL.Query().Get("open") == "true"
	reservations, err := h.reservations.ListByHolder(r.Context(), claims.HolderID, openOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandler) ListByOperation(w http.ResponseWriter, r *http.Request) {
	opNumber, ok := pathID(r, "number")
	if !ok {
		badRequest(w, "invalid operation number")
		return
	}
	reservations, err := h.reservations.ListByOperationNumber(r.Context(), opNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservations)
}
