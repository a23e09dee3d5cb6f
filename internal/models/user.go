package models

import "time"

// Role distinguishes the two participant tiers within a family
type Role string

const (
	// RoleGuardian is a family head or peer adult; holds veto and override authority
	RoleGuardian Role = "guardian"
	// RoleDependent can propose and vote but cannot veto or override
	RoleDependent Role = "dependent"
)

// User represents an account in the family directory
type User struct {
	ID            int64
	Email         string
	PasswordHash  string
	Name          string
	Role          Role
	ParentID      *int64 // set for dependents linked to a guardian account
	AvatarColor   string
	OAuthProvider string
	OAuthSubject  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsGuardian reports whether the user belongs to the guardian tier.
// Any role other than dependent counts as guardian.
func (u *User) IsGuardian() bool {
	return u.Role != RoleDependent
}

// FamilyHeadID returns the id of the account that owns the family's shared
// outing records: the parent for linked dependents, the user itself otherwise
func (u *User) FamilyHeadID() int64 {
	if u.Role == RoleDependent && u.ParentID != nil && *u.ParentID != 0 {
		return *u.ParentID
	}
	return u.ID
}

// RoleComposition partitions an outing's participants into the two voting
// tiers, resolved once per engine operation
type RoleComposition struct {
	Guardians  map[int64]bool
	Dependents map[int64]bool
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
