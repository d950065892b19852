package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"parkslot/internal/middleware"
)

// NewRouter wires the parking endpoints. POST endpoints go through the rate limiter.
func NewRouter(h *ParkingHandler, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()

	// Pages
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/parking", h.StatusPage).Methods("GET")
	r.HandleFunc("/select-seats", h.SelectSeats).Methods("GET")
	r.HandleFunc("/test-fees", h.TestFees).Methods("GET")

	// Public API
	r.HandleFunc("/api/parking-status", h.ParkingStatus).Methods("GET")
	r.HandleFunc("/api/time-info", h.TimeInfo).Methods("GET")
	r.HandleFunc("/api/occupancy", h.Occupancy).Methods("GET")

	writes := r.PathPrefix("/api").Methods("POST").Subrouter()
	if limiter != nil {
		writes.Use(limiter.Limit)
	}
	writes.HandleFunc("/book-slots", h.BookSlots)
	writes.HandleFunc("/calculate-fees", h.CalculateFees)

	// Operations
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
