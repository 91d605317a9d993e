package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

// Handlers bundles the route handlers for the router.
type Handlers struct {
	Auth         *AuthHandler
	Catalog      *CatalogHandler
	Availability *AvailabilityHandler
	Reservation  *ReservationHandler
	Rental       *RentalHandler
}

func NewHandlers(
	auth service.AuthService,
	catalog service.CatalogService,
	availability service.AvailabilityService,
	reservations service.ReservationService,
	rentals service.RentalService,
) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(auth),
		Catalog:      NewCatalogHandler(catalog),
		Availability: NewAvailabilityHandler(availability, auth),
		Reservation:  NewReservationHandler(reservations),
		Rental:       NewRentalHandler(rentals),
	}
}

// NewRouter builds the API routing table. Three tiers: public endpoints,
// endpoints for any authenticated holder, and staff endpoints for the
// lending desk.
func NewRouter(h *Handlers, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestID, Instrument)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Public
	api.HandleFunc("/auth/signup", h.Auth.Signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", h.Auth.Refresh).Methods(http.MethodPost)

	auth := NewAuthMiddleware(tokens)

	// Any authenticated holder
	holder := api.NewRoute().Subrouter()
	holder.Use(auth.Require)
	holder.HandleFunc("/auth/me", h.Auth.Me).Methods(http.MethodGet)
	holder.HandleFunc("/categories", h.Catalog.ListCategories).Methods(http.MethodGet)
	holder.HandleFunc("/resource-types", h.Catalog.ListResourceTypes).Methods(http.MethodGet)
	holder.HandleFunc("/resource-types/{id:[0-9]+}", h.Catalog.GetResourceType).Methods(http.MethodGet)
	holder.HandleFunc("/resource-types/{id:[0-9]+}/availability", h.Availability.Available).Methods(http.MethodGet)
	holder.HandleFunc("/resource-types/{id:[0-9]+}/max-duration", h.Availability.MaxRentDuration).Methods(http.MethodGet)
	holder.HandleFunc("/tiers", h.Catalog.ListTiers).Methods(http.MethodGet)
	holder.HandleFunc("/reservations", h.Reservation.CreateBatch).Methods(http.MethodPost)
	holder.HandleFunc("/reservations", h.Reservation.ListMine).Methods(http.MethodGet)
	holder.HandleFunc("/reservations/{id:[0-9]+}", h.Reservation.Get).Methods(http.MethodGet)
	holder.HandleFunc("/reservations/{id:[0-9]+}", h.Reservation.Cancel).Methods(http.MethodDelete)
	holder.HandleFunc("/rentals/{id:[0-9]+}/extend", h.Rental.Extend).Methods(http.MethodPost)

	// Lending desk
	staff := api.NewRoute().Subrouter()
	staff.Use(auth.Require, auth.RequireStaff)
	staff.HandleFunc("/categories", h.Catalog.CreateCategory).Methods(http.MethodPost)
	staff.HandleFunc("/resource-types", h.Catalog.CreateResourceType).Methods(http.MethodPost)
	staff.HandleFunc("/resource-types/{id:[0-9]+}", h.Catalog.UpdateResourceType).Methods(http.MethodPut)
	staff.HandleFunc("/resource-types/{id:[0-9]+}", h.Catalog.DeleteResourceType).Methods(http.MethodDelete)
	staff.HandleFunc("/resource-types/{id:[0-9]+}/units", h.Catalog.ListUnits).Methods(http.MethodGet)
	staff.HandleFunc("/resource-types/{id:[0-9]+}/status-windows", h.Catalog.ListStatusWindows).Methods(http.MethodGet)
	staff.HandleFunc("/resource-types/{id:[0-9]+}/duration-policies", h.Catalog.ListDurationPolicies).Methods(http.MethodGet)
	staff.HandleFunc("/resource-types/{id:[0-9]+}/duration-policies", h.Catalog.UpsertDurationPolicy).Methods(http.MethodPut)
	staff.HandleFunc("/resource-types/{id:[0-9]+}/free-units", h.Availability.FreeUnits).Methods(http.MethodGet)
	staff.HandleFunc("/units", h.Catalog.CreateUnit).Methods(http.MethodPost)
	staff.HandleFunc("/units/{id:[0-9]+}", h.Catalog.UpdateUnit).Methods(http.MethodPut)
	staff.HandleFunc("/units/{id:[0-9]+}", h.Catalog.DeleteUnit).Methods(http.MethodDelete)
	staff.HandleFunc("/status-windows", h.Catalog.CreateStatusWindow).Methods(http.MethodPost)
	staff.HandleFunc("/status-windows/{id:[0-9]+}", h.Catalog.DeleteStatusWindow).Methods(http.MethodDelete)
	staff.HandleFunc("/duration-policies/{id:[0-9]+}", h.Catalog.DeleteDurationPolicy).Methods(http.MethodDelete)
	staff.HandleFunc("/holders/{id:[0-9]+}/verify", h.Auth.Verify).Methods(http.MethodPost)
	staff.HandleFunc("/operations/{number:[0-9]+}", h.Reservation.ListByOperation).Methods(http.MethodGet)
	staff.HandleFunc("/reservations/{id:[0-9]+}/units", h.Rental.AssignUnits).Methods(http.MethodPost)
	staff.HandleFunc("/reservations/{id:[0-9]+}/handout", h.Rental.HandOut).Methods(http.MethodPost)
	staff.HandleFunc("/reservations/{id:[0-9]+}/rentals", h.Rental.ListByReservation).Methods(http.MethodGet)
	staff.HandleFunc("/rentals/{id:[0-9]+}", h.Rental.Get).Methods(http.MethodGet)
	staff.HandleFunc("/rentals/return", h.Rental.Return).Methods(http.MethodPost)

	return r
}
