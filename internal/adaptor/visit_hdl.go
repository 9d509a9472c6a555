package adaptor

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"bondoutfit/internal/dto/request"
	"bondoutfit/internal/dto/response"
	"bondoutfit/internal/lifecycle"
	"bondoutfit/internal/usecase"
	"bondoutfit/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type VisitHandler struct {
	service usecase.VisitService
	log     *zap.Logger
}

func NewVisitHandler(service usecase.VisitService, log *zap.Logger) *VisitHandler {
	return &VisitHandler{
		service: service,
		log:     log.With(zap.String("handler", "visit")),
	}
}

func listRequest(r *http.Request) *request.VisitListRequest {
	q := r.URL.Query()
	return &request.VisitListRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(q.Get("page"), 1),
			PerPage: utils.ParseInt(q.Get("per_page"), 10),
		},
		Status: q.Get("status"),
		Date:   q.Get("date"),
	}
}

func scanMessage(resp *response.ScanResponse) string {
	switch resp.Action {
	case string(lifecycle.ScanCheckIn):
		return "Visit checked in"
	case string(lifecycle.ScanComplete):
		if resp.DiscountUnlocked {
			return "Visit completed, discount unlocked"
		}
		return "Visit completed"
	}
	return "Scan recorded"
}

// Book handles POST /api/visits
func (h *VisitHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.CreateVisitRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Book(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "book visit")
		return
	}

	utils.ResponseCreated(w, "Visit booked", resp)
}

// List handles GET /api/visits
func (h *VisitHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.ListMine(r.Context(), id, listRequest(r))
	if err != nil {
		handleServiceError(h.log, w, err, "list visits")
		return
	}

	utils.ResponseSuccess(w, "Visits retrieved", resp)
}

// Get handles GET /api/visits/{id}
func (h *VisitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Get(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get visit")
		return
	}

	utils.ResponseSuccess(w, "Visit retrieved", resp)
}

// QR handles GET /api/visits/{id}/qr
func (h *VisitHandler) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.QR(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "get visit QR")
		return
	}

	utils.ResponseSuccess(w, "QR payload generated", resp)
}

// Scan handles POST /api/visits/{id}/scan
func (h *VisitHandler) Scan(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.ScanRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Scan(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "scan visit")
		return
	}

	utils.ResponseSuccess(w, scanMessage(resp), resp)
}

// CheckIn handles POST /api/visits/{id}/check-in
func (h *VisitHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	resp, err := h.service.CheckIn(r.Context(), id, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(h.log, w, err, "check in visit")
		return
	}

	utils.ResponseSuccess(w, scanMessage(resp), resp)
}

// Cancel handles POST /api/visits/{id}/cancel
func (h *VisitHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.CancelVisitRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Cancel(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "cancel visit")
		return
	}

	utils.ResponseSuccess(w, "Visit cancelled", resp)
}

// CancelAll handles POST /api/visits/cancel-all
func (h *VisitHandler) CancelAll(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.CancelAllVisitsRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.CancelAll(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "cancel all visits")
		return
	}

	utils.ResponseSuccess(w, "Visits cancelled", resp)
}

// Edit handles PATCH /api/visits/{id}
func (h *VisitHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	var req request.EditVisitRequest
	for key := range raw {
		req.Keys = append(req.Keys, key)
	}
	sort.Strings(req.Keys)
	if err := json.Unmarshal(body, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Edit(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "edit visit")
		return
	}

	utils.ResponseSuccess(w, "Visit updated", resp)
}

// Reschedule handles POST /api/visits/{id}/reschedule
func (h *VisitHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.RescheduleVisitRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.Reschedule(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "reschedule visit")
		return
	}

	utils.ResponseSuccess(w, "Visit rescheduled", resp)
}

// UpdateStatus handles POST /api/visits/{id}/status
func (h *VisitHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.UpdateVisitStatusRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.UpdateStatus(r.Context(), id, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(h.log, w, err, "update visit status")
		return
	}

	utils.ResponseSuccess(w, "Visit status updated", resp)
}

// UseDiscount handles POST /api/visits/use-discount
func (h *VisitHandler) UseDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req request.UseDiscountRequest
	if err := decode(r, &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	resp, err := h.service.UseDiscount(r.Context(), id, &req)
	if err != nil {
		handleServiceError(h.log, w, err, "use discount")
		return
	}

	utils.ResponseSuccess(w, "Discount applied", resp)
}
