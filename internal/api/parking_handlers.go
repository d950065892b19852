package api

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log"
	"net/http"

	"parkslot/internal/entities"
	apperrors "parkslot/internal/errors"
	"parkslot/internal/service"
)

const maxBodyBytes = int64(65536)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type ParkingHandler struct {
	Service *service.ParkingService
}

func NewParkingHandler(svc *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{Service: svc}
}

type slotView struct {
	ID     string
	Booked bool
}

type categoryView struct {
	Key       entities.Category
	Label     string
	Price     int
	Total     int
	Available int
	Slots     []slotView
}

type pageData struct {
	Time       entities.TimeInfo
	Categories []categoryView
}

func categoryViews(ledger entities.Ledger) []categoryView {
	var views []categoryView
	for _, cat := range entities.Categories {
		state := ledger[cat]
		view := categoryView{
			Key:       cat,
			Label:     cat.Label(),
			Price:     state.Price,
			Total:     len(state.Slots),
			Available: len(state.Available()),
		}
		for _, slot := range state.Slots {
			view.Slots = append(view.Slots, slotView{ID: slot, Booked: state.IsBooked(slot)})
		}
		views = append(views, view)
	}
	return views
}

func (h *ParkingHandler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Rendering %s: %v", name, err)
	}
}

// renderLedgerPage loads the ledger and renders it with the named template.
func (h *ParkingHandler) renderLedgerPage(w http.ResponseWriter, r *http.Request, name string) {
	ledger, err := h.Service.Status(r.Context())
	if err != nil {
		log.Printf("Page %s: %v", name, err)
		http.Error(w, "Could not load parking status", http.StatusInternalServerError)
		return
	}
	h.render(w, name, pageData{Time: h.Service.TimeInfo(), Categories: categoryViews(ledger)})
}

func (h *ParkingHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", pageData{Time: h.Service.TimeInfo()})
}

// StatusPage renders the ledger as HTML.
func (h *ParkingHandler) StatusPage(w http.ResponseWriter, r *http.Request) {
	h.renderLedgerPage(w, r, "parking.html")
}

// SelectSeats renders the booking page. Free slots are selectable and post to /api/book-slots.
func (h *ParkingHandler) SelectSeats(w http.ResponseWriter, r *http.Request) {
	h.renderLedgerPage(w, r, "select_seats.html")
}

func (h *ParkingHandler) TestFees(w http.ResponseWriter, r *http.Request) {
	h.render(w, "test_fees.html", pageData{Time: h.Service.TimeInfo()})
}

func (h *ParkingHandler) ParkingStatus(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.Service.Status(r.Context())
	if err != nil {
		log.Printf("Parking status: %v", err)
		http.Error(w, "Could not load parking status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ledger)
}

func (h *ParkingHandler) BookSlots(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.bookingFailed(w, apperrors.ErrBadRequest("Invalid booking data"))
		return
	}

	result, err := h.Service.Book(r.Context(), req)
	if err != nil {
		h.bookingFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ParkingHandler) bookingFailed(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("Booking failed: %v", err)
	}
	writeJSON(w, status, ErrorResponse{Success: false, Message: apperrors.PublicMessage(err)})
}

func (h *ParkingHandler) CalculateFees(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req CalculateFeesRequest
	// An empty body previews a zero base amount.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Success: false, Message: "Invalid base amount"})
		return
	}
	writeJSON(w, http.StatusOK, h.Service.CalculateFees(req.BaseAmount))
}

func (h *ParkingHandler) TimeInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.TimeInfo())
}

func (h *ParkingHandler) Occupancy(w http.ResponseWriter, r *http.Request) {
	occupancy, err := h.Service.Occupancy(r.Context())
	if err != nil {
		log.Printf("Occupancy: %v", err)
		http.Error(w, "Could not load occupancy", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, occupancy)
}

func (h *ParkingHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}
