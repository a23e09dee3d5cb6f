package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"tripnest/internal/service"
)

// ShareHandler serves the outing share-link endpoints
type ShareHandler struct {
	shareService *service.ShareService
	emailService *service.EmailService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shareService *service.ShareService, emailService *service.EmailService) *ShareHandler {
	return &ShareHandler{
		shareService: shareService,
		emailService: emailService,
	}
}

// Enable turns on sharing for the outing and returns the signed link token.
// When an invite email is supplied the invitation is sent best-effort.
func (h *ShareHandler) Enable(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		InviteEmail string `json:"inviteEmail"`
		OutingTitle string `json:"outingTitle"`
	}
	if r.Body != nil {
		// Body is optional; sharing without an invitation is fine
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	token, err := h.shareService.EnableSharing(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if req.InviteEmail != "" && h.emailService.IsEnabled() {
		if err := h.emailService.SendShareInvitation(r.Context(), req.InviteEmail, user.Name, req.OutingTitle, token); err != nil {
			log.Printf("Error sending share invitation to %s: %v", req.InviteEmail, err)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"shareToken": token,
	})
}

// Disable turns off sharing, invalidating previously issued links
func (h *ShareHandler) Disable(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	if err := h.shareService.DisableSharing(user.ID, outingID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// Resolve returns the read-only view of a shared outing. Public, no session
// required; the signed token is the capability.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "Missing share token", "", nil)
		return
	}

	outing, err := h.shareService.ResolveShareLink(token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newOutingView(outing))
}
