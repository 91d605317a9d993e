package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/service"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c domain.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.catalog.CreateCategory(r.Context(), &c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (h *CatalogHandler) CreateResourceType(w http.ResponseWriter, r *http.Request) {
	var rt domain.ResourceType
	if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.catalog.CreateResourceType(r.Context(), &rt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *CatalogHandler) GetResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	rt, err := h.catalog.GetResourceType(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *CatalogHandler) ListResourceTypes(w http.ResponseWriter, r *http.Request) {
	// Ordinary holders see the rental page view; staff may request hidden
	// types with ?all=true.
	visibleOnly := true
	if r.URL.Query().Get("all") == "true" {
		claims := claimsFrom(r.Context())
		visibleOnly = claims == nil || !claims.Staff
	}
	types, err := h.catalog.ListResourceTypes(r.Context(), visibleOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *CatalogHandler) UpdateResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	var rt domain.ResourceType
	if err := json.NewDecoder(r.Body).Decode(&rt); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	rt.ID = id
	if err := h.catalog.UpdateResourceType(r.Context(), &rt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *CatalogHandler) DeleteResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	if err := h.catalog.DeleteResourceType(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var u domain.Unit
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.catalog.CreateUnit(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *CatalogHandler) ListUnits(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	units, err := h.catalog.ListUnitsByType(r.Context(), typeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *CatalogHandler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	var u domain.Unit
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	u.ID = id
	if err := h.catalog.UpdateUnit(r.Context(), &u); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *CatalogHandler) DeleteUnit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid unit id")
		return
	}
	if err := h.catalog.DeleteUnit(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) CreateStatusWindow(w http.ResponseWriter, r *http.Request) {
	var win domain.StatusWindow
	if err := json.NewDecoder(r.Body).Decode(&win); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := h.catalog.CreateStatusWindow(r.Context(), &win); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, win)
}

func (h *CatalogHandler) ListStatusWindows(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	windows, err := h.catalog.ListStatusWindowsByType(r.Context(), typeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, windows)
}

func (h *CatalogHandler) DeleteStatusWindow(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid status window id")
		return
	}
	if err := h.catalog.DeleteStatusWindow(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *CatalogHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.catalog.ListTiers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (h *CatalogHandler) ListDurationPolicies(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	policies, err := h.catalog.ListDurationPolicies(r.Context(), typeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policies)
}

func (h *CatalogHandler) UpsertDurationPolicy(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid resource type id")
		return
	}
	var p domain.DurationPolicy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	p.ResourceTypeID = typeID
	if err := h.catalog.UpsertDurationPolicy(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteDurationPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		badRequest(w, "invalid duration policy id")
		return
	}
	if err := h.catalog.DeleteDurationPolicy(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
