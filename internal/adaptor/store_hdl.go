package adaptor

import (
	"net/http"

	"bondoutfit/internal/dto/request"
	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type StoreHandler struct {
	service usecase.StoreService
	visits  usecase.VisitService
	log     *zap.Logger
}

func NewStoreHandler(service usecase.StoreService, visits usecase.VisitService, log *zap.Logger) *StoreHandler {
	return &StoreHandler{
		service: service,
		visits:  visits,
		log:     log.With(zap.String("handler", "store")),
	}
}

// AddStaff handles POST /api/stores/{id}/staff
func (h *StoreHandler) AddStaff(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.AddStaffRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.AddStaff(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "add staff")
		return
	}

	utils.ResponseCreated(w, "Staff member added", resp)
}

// CreateDiscount handles POST /api/stores/{id}/discounts
func (h *StoreHandler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.CreateDiscountRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.CreateDiscount(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "create discount")
		return
	}

	utils.ResponseCreated(w, "Discount created", resp)
}

// Visits handles GET /api/stores/{id}/visits
func (h *StoreHandler) Visits(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.visits.ListStore(r.Context(), id, chi.URLParam(r, "id"), listRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list store visits")
		return
	}

	utils.ResponseSuccess(w, "Store visits retrieved", resp)
}

// ScanQR handles POST /api/store/scan
func (h *StoreHandler) ScanQR(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.ScanQRRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.visits.ScanQR(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "scan QR")
		return
	}

	utils.ResponseSuccess(w, scanMessage(resp), resp)
}
