package handlers

import (
	"encoding/json"
	"net/http"

	"tripnest/internal/models"
	"tripnest/internal/repository"
	"tripnest/internal/service"
)

// ActivityHandler serves the activity catalog plus the proposal, voting and
// confirmation endpoints.
type ActivityHandler struct {
	votingService *service.VotingService
	catalogRepo   *repository.ActivityRepository
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(votingService *service.VotingService, catalogRepo *repository.ActivityRepository) *ActivityHandler {
	return &ActivityHandler{
		votingService: votingService,
		catalogRepo:   catalogRepo,
	}
}

// ListCatalog returns the full activity catalog
func (h *ActivityHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	activities, err := h.catalogRepo.ListActivities()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error listing activities", err)
		return
	}

	views := make([]ActivityView, 0, len(activities))
	for i := range activities {
		views = append(views, newActivityView(&activities[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

func outingActivityIDs(w http.ResponseWriter, r *http.Request) (outingID, activityID int64, ok bool) {
	outingID, ok = parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return 0, 0, false
	}
	activityID, ok = parsePathID(r, "activityID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid activity id", "", nil)
		return 0, 0, false
	}
	return outingID, activityID, true
}

// Propose creates an activity request with the proposer's implicit like
func (h *ActivityHandler) Propose(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		ActivityID int64 `json:"activityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	request, err := h.votingService.Propose(outingID, req.ActivityID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newRequestView(request))
}

// ListRequests returns every activity request on the outing
func (h *ActivityHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	requests, err := h.votingService.ListRequests(outingID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newRequestViews(requests))
}

// GetRequest returns a single activity request
func (h *ActivityHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, activityID, ok := outingActivityIDs(w, r)
	if !ok {
		return
	}

	request, err := h.votingService.GetRequest(outingID, activityID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newRequestView(request))
}

// Vote records the requester's vote and returns the recomputed request
func (h *ActivityHandler) Vote(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, activityID, ok := outingActivityIDs(w, r)
	if !ok {
		return
	}

	var req struct {
		Vote string `json:"vote"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	request, err := h.votingService.RecordVote(outingID, activityID, user.ID, models.VoteValue(req.Vote))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newRequestView(request))
}

// Confirm applies a guardian override to a pending request
func (h *ActivityHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, activityID, ok := outingActivityIDs(w, r)
	if !ok {
		return
	}

	request, err := h.votingService.ConfirmByGuardian(outingID, activityID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newRequestView(request))
}

// ReturnToVoting withdraws a guardian override, preserving the vote record
func (h *ActivityHandler) ReturnToVoting(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, activityID, ok := outingActivityIDs(w, r)
	if !ok {
		return
	}

	request, changed, err := h.votingService.ReturnToVoting(outingID, activityID, user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"request": newRequestView(request),
		"changed": changed,
	})
}
