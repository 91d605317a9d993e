package http

import (
	"encoding/json"
	"net/http"

	"lendhub-backend/internal/service"
)

type RentalHandler struct {
	rentals service.RentalService
}

func NewRentalHandler(rentals service.RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

type assignUnitsRequest struct {
	UnitIDs []int64 `json:"unit_ids"`
}

func (h *RentalHandler) AssignUnits(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid reservation id")
		return
	}
	var req assignUnitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rentals, err := h.rentals.AssignUnits(r.Context(), reservationID, req.UnitIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rentals)
}

func (h *RentalHandler) HandOut(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid reservation id")
		return
	}
	claims := claimsFrom(r.Context())
	if err := h.rentals.HandOut(r.Context(), claims.HolderID, reservationID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type returnRequest struct {
	RentalIDs []int64 `json:"rental_ids"`
}

func (h *RentalHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	claims := claimsFrom(r.Context())
	if err := h.rentals.Return(r.Context(), claims.HolderID, req.RentalIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *RentalHandler) Extend(w http.ResponseWriter, r *http.Request) {
	rentalID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid rental id")
		return
	}
	claims := claimsFrom(r.Context())
	ext, err := h.rentals.Extend(r.Context(), claims.HolderID, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ext)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid rental id")
		return
	}
	rental, err := h.rentals.GetRental(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) ListByReservation(w http.ResponseWriter, r *http.Request) {
	reservationID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid reservation id")
		return
	}
	rentals, err := h.rentals.ListByReservation(r.Context(), reservationID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rentals)
}
