package service

import (
	"errors"
	"fmt"

	"tripnest/internal/models"
	"tripnest/internal/repository"
)

var (
	ErrOutingNotFound    = errors.New("outing not found")
	ErrActivityNotFound  = errors.New("activity not found")
	ErrRequestNotFound   = errors.New("activity request not found")
	ErrDuplicateProposal = errors.New("activity already proposed for this outing")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidVote       = errors.New("vote must be liked or disliked")
)

// VotingService is the proposal/voting/confirmation engine. It owns every
// write to an activity request's status: the status is a pure function of
// the vote map and the family's role composition, except for the two
// explicit guardian overrides.
type VotingService struct {
	outingRepo  *repository.OutingRepository
	requestRepo *repository.ActivityRequestRepository
	catalogRepo *repository.ActivityRepository
	family      *FamilyService
}

// NewVotingService creates a new voting service
func NewVotingService(outingRepo *repository.OutingRepository, requestRepo *repository.ActivityRequestRepository, catalogRepo *repository.ActivityRepository, family *FamilyService) *VotingService {
	return &VotingService{
		outingRepo:  outingRepo,
		requestRepo: requestRepo,
		catalogRepo: catalogRepo,
		family:      family,
	}
}

// computeStatus derives a request's status from its full vote map and the
// outing's current role composition. Full recomputation every time, never
// an incremental patch, so replaying the same votes in any order always
// lands on the same status.
//
// Rules, in precedence order:
//  1. any current guardian voted disliked -> rejected (absolute veto)
//  2. a current guardian and a current dependent both voted liked -> matched
//  3. otherwise -> pending
//
// Votes from ids outside both tiers (participants since removed from the
// outing) influence nothing.
func computeStatus(votes models.VoteMap, comp models.RoleComposition) models.RequestStatus {
	guardianLiked := false
	dependentLiked := false

	for voterID, vote := range votes {
		switch {
		case comp.Guardians[voterID]:
			if vote == models.VoteDisliked {
				return models.RequestRejected
			}
			if vote == models.VoteLiked {
				guardianLiked = true
			}
		case comp.Dependents[voterID]:
			if vote == models.VoteLiked {
				dependentLiked = true
			}
		}
	}

	if guardianLiked && dependentLiked {
		return models.RequestMatched
	}
	return models.RequestPending
}

// outingForUser resolves the requester's family head and loads the outing
// scoped to it
func (s *VotingService) outingForUser(userID, outingID int64) (*models.Outing, models.Role, error) {
	headID, role, err := s.family.ResolveFamilyHead(userID)
	if err != nil {
		return nil, "", err
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return nil, "", err
	}
	if outing == nil {
		return nil, "", ErrOutingNotFound
	}
	return outing, role, nil
}

// Propose creates a pending request for an activity within an outing. The
// proposer's identity and role are captured immutably, and proposing counts
// as an implicit first "liked" vote.
func (s *VotingService) Propose(outingID, activityID, requesterID int64) (*models.ActivityRequest, error) {
	outing, role, err := s.outingForUser(requesterID, outingID)
	if err != nil {
		return nil, err
	}

	activity, err := s.catalogRepo.GetActivityByID(activityID)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrActivityNotFound
	}

	existing, err := s.requestRepo.GetRequest(outing.ID, activityID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateProposal
	}

	votes := models.VoteMap{requesterID: models.VoteLiked}
	request, err := s.requestRepo.CreateRequest(outing.ID, activityID, requesterID, role, votes)
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}
	return request, nil
}

// RecordVote overwrites the voter's vote on a proposal and recomputes its
// status from the full vote map. A repeat vote by the same voter is a pure
// overwrite, never an error; whether to keep offering the vote control is a
// presentation decision.
func (s *VotingService) RecordVote(outingID, activityID, voterID int64, vote models.VoteValue) (*models.ActivityRequest, error) {
	if vote != models.VoteLiked && vote != models.VoteDisliked {
		return nil, ErrInvalidVote
	}

	outing, _, err := s.outingForUser(voterID, outingID)
	if err != nil {
		return nil, err
	}

	request, err := s.requestRepo.GetRequest(outing.ID, activityID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}

	// A guardian-confirmed selection is terminal for voting; it only leaves
	// that state through an explicit return-to-voting.
	if request.Status == models.RequestSelectedByParent {
		return nil, ErrInvalidTransition
	}

	comp, err := s.family.RoleComposition(outing.FamilyHeadID, outing.NormalizeParticipants())
	if err != nil {
		return nil, err
	}

	request.Votes[voterID] = vote
	request.Status = computeStatus(request.Votes, comp)

	if err := s.requestRepo.UpdateVotesAndStatus(request.ID, request.Votes, request.Status); err != nil {
		return nil, err
	}
	return request, nil
}

// ConfirmByGuardian sets a pending request to selected_by_parent,
// bypassing vote requirements. Valid only from pending; guardian-only.
func (s *VotingService) ConfirmByGuardian(outingID, activityID, requesterID int64) (*models.ActivityRequest, error) {
	request, err := s.requestForGuardian(outingID, activityID, requesterID)
	if err != nil {
		return nil, err
	}

	if request.Status != models.RequestPending {
		return nil, ErrInvalidTransition
	}

	if err := s.requestRepo.SetStatus(request.ID, models.RequestSelectedByParent); err != nil {
		return nil, err
	}
	request.Status = models.RequestSelectedByParent
	return request, nil
}

// ReturnToVoting resets a request to pending without clearing its votes, so
// a previously matched or confirmed item re-enters the voting pool.
// Guardian-only. Returns changed=false when the request was already
// pending, which is a no-op rather than an error. Because votes are
// preserved, the next recorded vote may immediately re-match the item;
// that is intentional.
func (s *VotingService) ReturnToVoting(outingID, activityID, requesterID int64) (request *models.ActivityRequest, changed bool, err error) {
	request, err = s.requestForGuardian(outingID, activityID, requesterID)
	if err != nil {
		return nil, false, err
	}

	if request.Status == models.RequestPending {
		return request, false, nil
	}

	if err := s.requestRepo.SetStatus(request.ID, models.RequestPending); err != nil {
		return nil, false, err
	}
	request.Status = models.RequestPending
	return request, true, nil
}

func (s *VotingService) requestForGuardian(outingID, activityID, requesterID int64) (*models.ActivityRequest, error) {
	outing, role, err := s.outingForUser(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleDependent {
		return nil, ErrNotGuardian
	}

	request, err := s.requestRepo.GetRequest(outing.ID, activityID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// GetRequest retrieves one proposal within the requester's family scope
func (s *VotingService) GetRequest(outingID, activityID, requesterID int64) (*models.ActivityRequest, error) {
	outing, _, err := s.outingForUser(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	request, err := s.requestRepo.GetRequest(outing.ID, activityID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

// ListRequests retrieves all proposals for an outing within the requester's
// family scope
func (s *VotingService) ListRequests(outingID, requesterID int64) ([]models.ActivityRequest, error) {
	outing, _, err := s.outingForUser(requesterID, outingID)
	if err != nil {
		return nil, err
	}
	return s.requestRepo.ListRequests(outing.ID)
}
