package service

import (
	"errors"
	"fmt"

	"tripnest/internal/models"
	"tripnest/internal/repository"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrNotFamilyMember = errors.New("user is not part of this family")
	ErrNotGuardian     = errors.New("operation requires a guardian")
)

// FamilyService resolves users to their family head and partitions outing
// participants into voting tiers. Pure lookups, no mutation of outing state.
type FamilyService struct {
	userRepo *repository.UserRepository
}

// NewFamilyService creates a new family service
func NewFamilyService(userRepo *repository.UserRepository) *FamilyService {
	return &FamilyService{userRepo: userRepo}
}

// ResolveFamilyHead returns the id of the account owning the user's shared
// outing records, along with the user's role
func (s *FamilyService) ResolveFamilyHead(userID int64) (int64, models.Role, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		return 0, "", fmt.Errorf("failed to resolve family head: %w", err)
	}
	if user == nil {
		return 0, "", ErrUserNotFound
	}
	return user.FamilyHeadID(), user.Role, nil
}

// RoleComposition partitions the given participant ids into guardian and
// dependent sets with one batch lookup. Ids without a profile record are
// left out of both sets; the family head is always a guardian.
func (s *FamilyService) RoleComposition(familyHeadID int64, participantIDs []int64) (models.RoleComposition, error) {
	comp := models.RoleComposition{
		Guardians:  make(map[int64]bool),
		Dependents: make(map[int64]bool),
	}

	users, err := s.userRepo.GetUsersByIDs(participantIDs)
	if err != nil {
		return comp, fmt.Errorf("failed to resolve role composition: %w", err)
	}

	for id, user := range users {
		if user.IsGuardian() {
			comp.Guardians[id] = true
		} else {
			comp.Dependents[id] = true
		}
	}
	comp.Guardians[familyHeadID] = true

	return comp, nil
}

// ListFamilyMembers returns the head and every account linked to it
func (s *FamilyService) ListFamilyMembers(userID int64) ([]models.User, error) {
	headID, _, err := s.ResolveFamilyHead(userID)
	if err != nil {
		return nil, err
	}
	members, err := s.userRepo.ListFamilyMembers(headID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	return members, nil
}

// AddDependent creates a dependent account linked to the requester's family
// head. Guardian-only.
func (s *FamilyService) AddDependent(requesterID int64, name, avatarColor string) (*models.User, error) {
	requester, err := s.userRepo.GetUserByID(requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requester: %w", err)
	}
	if requester == nil {
		return nil, ErrUserNotFound
	}
	if !requester.IsGuardian() {
		return nil, ErrNotGuardian
	}

	if name == "" {
		return nil, errors.New("dependent name is required")
	}
	if avatarColor == "" {
		avatarColor = "#4A90E2"
	}

	dependent, err := s.userRepo.CreateDependent(requester.FamilyHeadID(), name, avatarColor)
	if err != nil {
		return nil, fmt.Errorf("failed to create dependent: %w", err)
	}
	return dependent, nil
}
