package http

import (
	"net/http"
	"time"

	"lendhub-backend/internal/service"
)

type AvailabilityHandler struct {
	availability service.AvailabilityService
	auth         service.AuthService
}

func NewAvailabilityHandler(availability service.AvailabilityService, auth service.AuthService) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability, auth: auth}
}

func parseDate(value string) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, value)
	return d, err == nil
}

func (h *AvailabilityHandler) Available(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	from, ok := parseDate(r.URL.Query().Get("from"))
	if !ok {
		badRequest(w, "from must be a date (YYYY-MM-DD)")
		return
	}
	until, ok := parseDate(r.URL.Query().Get("until"))
	if !ok {
		badRequest(w, "until must be a date (YYYY-MM-DD)")
		return
	}

	report, err := h.availability.Available(r.Context(), typeID, from, until)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type durationResponse struct {
	MaxDurationDays int `json:"max_duration_days"`
}

func (h *AvailabilityHandler) MaxRentDuration(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	claims := claimsFrom(r.Context())
	holder, err := h.auth.GetHolder(r.Context(), claims.HolderID)
	if err != nil {
		writeError(w, err)
		return
	}
	days, err := h.availability.MaxRentDuration(r.Context(), typeID, holder.TierPrio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, durationResponse{MaxDurationDays: days})
}

func (h *AvailabilityHandler) FreeUnits(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	on := time.Now()
	if value := r.URL.Query().Get("on"); value != "" {
		var ok bool
		on, ok = parseDate(value)
		if !ok {
			badRequest(w, "on must be a date (YYYY-MM-DD)")
			return
		}
	}
	units, err := h.availability.FreeUnits(r.Context(), typeID, on)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}
