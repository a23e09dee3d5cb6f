package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tripnest/internal/models"
	"tripnest/internal/repository"
)

var ErrInvalidShareToken = errors.New("invalid or expired share link")

// ShareService issues and resolves read-only share links for outings. The
// link carries a signed token naming the outing; the outing additionally
// stores an opaque share token so sharing can be revoked by rotating it.
type ShareService struct {
	outingRepo *repository.OutingRepository
	family     *FamilyService
	secret     []byte
	tokenTTL   time.Duration
}

// NewShareService creates a new share service
func NewShareService(outingRepo *repository.OutingRepository, family *FamilyService, secret string, tokenTTL time.Duration) *ShareService {
	return &ShareService{
		outingRepo: outingRepo,
		family:     family,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
	}
}

type shareClaims struct {
	ShareToken string `json:"share_token"`
	jwt.RegisteredClaims
}

// EnableSharing turns sharing on for an outing and returns a signed link
// token. Guardian-only. Calling it again rotates the stored token, which
// invalidates previously issued links.
func (s *ShareService) EnableSharing(requesterID, outingID int64) (string, error) {
	outing, err := s.guardianOuting(requesterID, outingID)
	if err != nil {
		return "", err
	}

	shareToken := uuid.New().String()
	if err := s.outingRepo.SetShared(outing.FamilyHeadID, outing.ID, true, shareToken); err != nil {
		return "", err
	}

	claims := shareClaims{
		ShareToken: shareToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("outing:%d", outing.ID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign share token: %w", err)
	}
	return signed, nil
}

// DisableSharing turns sharing off and clears the stored token.
// Guardian-only.
func (s *ShareService) DisableSharing(requesterID, outingID int64) error {
	outing, err := s.guardianOuting(requesterID, outingID)
	if err != nil {
		return err
	}
	return s.outingRepo.SetShared(outing.FamilyHeadID, outing.ID, false, "")
}

// ResolveShareLink validates a signed link token and returns the shared
// outing. No session required; this is the read-only guest view.
func (s *ShareService) ResolveShareLink(signedToken string) (*models.Outing, error) {
	claims := &shareClaims{}
	token, err := jwt.ParseWithClaims(signedToken, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidShareToken
	}

	outing, err := s.outingRepo.GetOutingByShareToken(claims.ShareToken)
	if err != nil {
		return nil, err
	}
	if outing == nil {
		// sharing disabled or token rotated since the link was issued
		return nil, ErrInvalidShareToken
	}
	return outing, nil
}

func (s *ShareService) guardianOuting(requesterID, outingID int64) (*models.Outing, error) {
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
	return outing, nil
}
