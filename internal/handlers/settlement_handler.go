package handlers

import (
	"encoding/json"
	"net/http"

	"tripnest/internal/service"
)

// SettlementHandler serves the settlement projection and settle endpoints
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new settlement handler
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementService: settlementService}
}

// Get returns the outing's settlement projection. An optional discount code
// is passed as a query parameter; re-applying a different code replaces the
// previous one, it never stacks.
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	code := r.URL.Query().Get("discount_code")

	summary, err := h.settlementService.ComputeSettlement(user.ID, outingID, code)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newSettlementView(summary))
}

// Settle marks the listed confirmed activities as paid. The zero-amount
// path goes through here too: confirmed items that net to zero still need
// the explicit settle call.
func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		ActivityIDs  []int64 `json:"activityIds"`
		DiscountCode string  `json:"discountCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	if err := h.settlementService.MarkSettled(user.ID, outingID, req.ActivityIDs, req.DiscountCode); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
