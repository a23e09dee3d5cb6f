package service

import (
	"fmt"
	"log"
	"time"

	"tripnest/internal/models"
	"tripnest/internal/repository"
	"tripnest/internal/validation"
)

// OutingService owns the outing lifecycle and the journey gate. The journey
// step is derived on every call, never stored.
type OutingService struct {
	outingRepo     *repository.OutingRepository
	requestRepo    *repository.ActivityRequestRepository
	itineraryRepo  *repository.ItineraryRepository
	evaluationRepo *repository.EvaluationRepository
	family         *FamilyService
}

// NewOutingService creates a new outing service
func NewOutingService(outingRepo *repository.OutingRepository, requestRepo *repository.ActivityRequestRepository, itineraryRepo *repository.ItineraryRepository, evaluationRepo *repository.EvaluationRepository, family *FamilyService) *OutingService {
	return &OutingService{
		outingRepo:     outingRepo,
		requestRepo:    requestRepo,
		itineraryRepo:  itineraryRepo,
		evaluationRepo: evaluationRepo,
		family:         family,
	}
}

// CreateOuting creates a new planned outing for the requester's family.
// The family head is always part of the participant list, explicitly added
// or not.
func (s *OutingService) CreateOuting(requesterID int64, title string, startDate time.Time, endDate *time.Time, participantIDs []int64) (*models.Outing, error) {
	headID, _, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, err
	}

	if title == "" {
		return nil, validation.ValidationError{Field: "title", Message: "title is required"}
	}
	if startDate.IsZero() {
		return nil, validation.ValidationError{Field: "start_date", Message: "start date is required"}
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, validation.ValidationError{Field: "end_date", Message: "end date must not precede start date"}
	}

	if err := s.validateParticipants(headID, participantIDs); err != nil {
		return nil, err
	}

	outing, err := s.outingRepo.CreateOuting(headID, title, startDate, endDate, participantIDs)
	if err != nil {
		return nil, err
	}
	return outing, nil
}

// validateParticipants checks that every listed participant resolves to the
// same family head. Multi-family outings are not supported.
func (s *OutingService) validateParticipants(familyHeadID int64, participantIDs []int64) error {
	users, err := s.family.userRepo.GetUsersByIDs(participantIDs)
	if err != nil {
		return err
	}
	for _, id := range participantIDs {
		user, ok := users[id]
		if !ok {
			return fmt.Errorf("participant %d: %w", id, ErrUserNotFound)
		}
		if user.FamilyHeadID() != familyHeadID {
			return fmt.Errorf("participant %d: %w", id, ErrNotFamilyMember)
		}
	}
	return nil
}

// GetOuting retrieves an outing within the requester's family scope
func (s *OutingService) GetOuting(requesterID, outingID int64) (*models.Outing, error) {
	headID, _, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, err
	}
	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return nil, err
	}
	if outing == nil {
		return nil, ErrOutingNotFound
	}
	return outing, nil
}

// ListOutings retrieves the requester's family outings
func (s *OutingService) ListOutings(requesterID int64) ([]models.Outing, error) {
	headID, _, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, err
	}
	return s.outingRepo.ListOutings(headID)
}

// CurrentStep derives the journey step the outing's family may currently be
// shown, from the outing plus the existence of requests and a saved
// itinerary
func (s *OutingService) CurrentStep(requesterID, outingID int64) (models.JourneyStep, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return 0, err
	}

	hasAnyRequest, err := s.requestRepo.HasAnyRequest(outing.ID)
	if err != nil {
		return 0, err
	}

	hasItinerary, err := s.itineraryRepo.HasItinerary(outing.ID)
	if err != nil {
		return 0, err
	}

	return models.CurrentStep(outing, hasAnyRequest, hasItinerary), nil
}

// UpdateParticipants replaces the participant list. Guardian-only.
// Existing vote maps are never rewritten: a removed participant's
// historical vote stays recorded and is simply ignored by the next status
// recomputation.
func (s *OutingService) UpdateParticipants(requesterID, outingID int64, participantIDs []int64) (*models.Outing, error) {
	headID, role, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleDependent {
		return nil, ErrNotGuardian
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return nil, err
	}
	if outing == nil {
		return nil, ErrOutingNotFound
	}

	if err := s.validateParticipants(headID, participantIDs); err != nil {
		return nil, err
	}

	if err := s.outingRepo.UpdateParticipants(headID, outing.ID, participantIDs); err != nil {
		return nil, err
	}
	return s.outingRepo.GetOuting(headID, outing.ID)
}

// CancelOuting deletes the outing and everything under it, atomically.
// Any family member may cancel; the reason is recorded for audit only.
func (s *OutingService) CancelOuting(requesterID, outingID int64, reason string) error {
	headID, _, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return err
	}

	if reason == "" {
		return validation.ValidationError{Field: "reason", Message: "cancellation reason is required"}
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return err
	}
	if outing == nil {
		return ErrOutingNotFound
	}

	if err := s.outingRepo.CancelOuting(headID, outing.ID, requesterID, reason); err != nil {
		return err
	}

	log.Printf("Outing %d cancelled by user %d: %s", outingID, requesterID, reason)
	return nil
}

// MarkInProgress moves a planned outing to in_progress (the family is on
// the outing; logging starts). Guardian-only.
func (s *OutingService) MarkInProgress(requesterID, outingID int64) (*models.Outing, error) {
	return s.transitionStatus(requesterID, outingID, models.OutingPlanned, models.OutingInProgress)
}

// MarkCompleted moves an in-progress outing to completed (memories step
// unlocks). Guardian-only.
func (s *OutingService) MarkCompleted(requesterID, outingID int64) (*models.Outing, error) {
	return s.transitionStatus(requesterID, outingID, models.OutingInProgress, models.OutingCompleted)
}

func (s *OutingService) transitionStatus(requesterID, outingID int64, from, to models.OutingStatus) (*models.Outing, error) {
	headID, role, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleDependent {
		return nil, ErrNotGuardian
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return nil, err
	}
	if outing == nil {
		return nil, ErrOutingNotFound
	}

	if outing.Status == to {
		// already there; not an error
		return outing, nil
	}
	if outing.Status != from {
		return nil, ErrInvalidTransition
	}

	if err := s.outingRepo.UpdateStatus(headID, outing.ID, to); err != nil {
		return nil, err
	}
	outing.Status = to
	return outing, nil
}

// SaveItinerary replaces the outing's itinerary in one transaction. The
// explicit save is what unlocks the itinerary journey step.
func (s *OutingService) SaveItinerary(requesterID, outingID int64, items []models.ItineraryItem) (*models.Itinerary, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	return s.itineraryRepo.SaveItinerary(outing.ID, requesterID, items)
}

// GetItinerary retrieves the outing's saved itinerary, nil when none exists
func (s *OutingService) GetItinerary(requesterID, outingID int64) (*models.Itinerary, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	return s.itineraryRepo.GetItinerary(outing.ID)
}

// SubmitEvaluation records the single post-outing review and moves the
// outing to the terminal journey step, atomically
func (s *OutingService) SubmitEvaluation(requesterID, outingID int64, rating int, comment string) (*models.Evaluation, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return nil, err
	}

	if outing.EvaluationSubmitted {
		return nil, validation.ValidationError{Field: "evaluation", Message: "evaluation already submitted"}
	}
	if rating < 1 || rating > 5 {
		return nil, validation.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}

	return s.evaluationRepo.SubmitEvaluation(s.outingRepo, outing.ID, requesterID, rating, comment)
}

// AddMemory attaches a photo or note record to the outing
func (s *OutingService) AddMemory(requesterID, outingID int64, kind, mediaURL, caption string) (*models.Memory, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return nil, err
	}

	if kind != "photo" && kind != "note" {
		return nil, validation.ValidationError{Field: "kind", Message: "kind must be photo or note"}
	}

	return s.evaluationRepo.AddMemory(outing.ID, requesterID, kind, mediaURL, caption)
}

// ListMemories retrieves the outing's memories
func (s *OutingService) ListMemories(requesterID, outingID int64) ([]models.Memory, error) {
	outing, err := s.GetOuting(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	return s.evaluationRepo.ListMemories(outing.ID)
}
