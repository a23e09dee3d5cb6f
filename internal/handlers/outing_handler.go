package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tripnest/internal/models"
	"tripnest/internal/service"
)

// OutingHandler serves the outing lifecycle endpoints: creation, journey
// step, participants, status transitions, itinerary, evaluation, memories
// and cancellation.
type OutingHandler struct {
	outingService *service.OutingService
}

// NewOutingHandler creates a new outing handler
func NewOutingHandler(outingService *service.OutingService) *OutingHandler {
	return &OutingHandler{outingService: outingService}
}

type createOutingRequest struct {
	Title          string     `json:"title"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	ParticipantIDs []int64    `json:"participantIds"`
}

// Create creates a new planned outing
func (h *OutingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req createOutingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	outing, err := h.outingService.CreateOuting(user.ID, req.Title, req.StartDate, req.EndDate, req.ParticipantIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newOutingView(outing))
}

// List returns the requester's family outings
func (h *OutingHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	outings, err := h.outingService.ListOutings(user.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newOutingViews(outings))
}

// Get returns one outing
func (h *OutingHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	outing, err := h.outingService.GetOuting(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newOutingView(outing))
}

// Step returns the derived journey step for the outing
func (h *OutingHandler) Step(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	step, err := h.outingService.CurrentStep(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"step": int(step),
		"name": step.String(),
	})
}

// UpdateParticipants replaces the outing participant list
func (h *OutingHandler) UpdateParticipants(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		ParticipantIDs []int64 `json:"participantIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	outing, err := h.outingService.UpdateParticipants(user.ID, outingID, req.ParticipantIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newOutingView(outing))
}

// Cancel deletes the outing and everything under it
func (h *OutingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	if err := h.outingService.CancelOuting(user.ID, outingID, req.Reason); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}

// Start moves a planned outing to in_progress
func (h *OutingHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.outingService.MarkInProgress)
}

// Complete moves an in-progress outing to completed
func (h *OutingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.outingService.MarkCompleted)
}

func (h *OutingHandler) transition(w http.ResponseWriter, r *http.Request, fn func(requesterID, outingID int64) (*models.Outing, error)) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	outing, err := fn(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newOutingView(outing))
}

type itineraryItemRequest struct {
	ActivityID *int64 `json:"activityId"`
	Title      string `json:"title"`
	Day        int    `json:"day"`
	Position   int    `json:"position"`
	StartTime  string `json:"startTime"`
	Note       string `json:"note"`
}

// SaveItinerary replaces the outing's itinerary
func (h *OutingHandler) SaveItinerary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		Items []itineraryItemRequest `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	items := make([]models.ItineraryItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.ItineraryItem{
			ActivityID: item.ActivityID,
			Title:      item.Title,
			Day:        item.Day,
			Position:   item.Position,
			StartTime:  item.StartTime,
			Note:       item.Note,
		})
	}

	itinerary, err := h.outingService.SaveItinerary(user.ID, outingID, items)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newItineraryView(itinerary))
}

// GetItinerary returns the outing's saved itinerary
func (h *OutingHandler) GetItinerary(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	itinerary, err := h.outingService.GetItinerary(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if itinerary == nil {
		respondWithError(w, http.StatusNotFound, "No itinerary saved for this outing", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, newItineraryView(itinerary))
}

// SubmitEvaluation records the single post-outing review
func (h *OutingHandler) SubmitEvaluation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	evaluation, err := h.outingService.SubmitEvaluation(user.ID, outingID, req.Rating, req.Comment)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":          evaluation.ID,
		"rating":      evaluation.Rating,
		"comment":     evaluation.Comment,
		"submittedAt": evaluation.SubmittedAt,
	})
}

// AddMemory attaches a photo or note record to the outing
func (h *OutingHandler) AddMemory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	var req struct {
		Kind     string `json:"kind"`
		MediaURL string `json:"mediaUrl"`
		Caption  string `json:"caption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}

	memory, err := h.outingService.AddMemory(user.ID, outingID, req.Kind, req.MediaURL, req.Caption)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newMemoryView(memory))
}

// ListMemories returns the outing's memories
func (h *OutingHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	outingID, ok := parsePathID(r, "outingID")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid outing id", "", nil)
		return
	}

	memories, err := h.outingService.ListMemories(user.ID, outingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	views := make([]MemoryView, 0, len(memories))
	for i := range memories {
		views = append(views, newMemoryView(&memories[i]))
	}
	respondJSON(w, http.StatusOK, views)
}
