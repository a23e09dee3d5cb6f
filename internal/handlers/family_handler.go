package handlers

import (
	"encoding/json"
	"net/http"

	"tripnest/internal/service"
)

// FamilyHandler serves the family directory endpoints
type FamilyHandler struct {
	familyService *service.FamilyService
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService) *FamilyHandler {
	return &FamilyHandler{familyService: familyService}
}

// ListMembers returns every member of the requester's family
func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	members, err := h.familyService.ListFamilyMembers(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]UserView, 0, len(members))
	for i := range members {
		views = append(views, newUserView(&members[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

// AddDependent creates a dependent account linked to the requesting guardian
func (h *FamilyHandler) AddDependent(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req struct {
		Name        string `json:"name"`
		AvatarColor string `json:"avatarColor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	dependent, err := h.familyService.AddDependent(user.ID, req.Name, req.AvatarColor)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newUserView(dependent))
}
