package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tripnest/internal/models"
	"tripnest/internal/repository"
)

var (
	ErrNothingToSettle = errors.New("no confirmed unpaid activities to settle")
	ErrNotConfirmed    = errors.New("activity is not confirmed for this outing")
)

// SettlementService projects confirmed proposals into a payable total and
// marks them paid once payment is confirmed externally. It never writes a
// request's status, only its paid flag.
type SettlementService struct {
	outingRepo   *repository.OutingRepository
	requestRepo  *repository.ActivityRequestRepository
	catalogRepo  *repository.ActivityRepository
	discountRepo *repository.DiscountRepository
	family       *FamilyService
}

// NewSettlementService creates a new settlement service
func NewSettlementService(outingRepo *repository.OutingRepository, requestRepo *repository.ActivityRequestRepository, catalogRepo *repository.ActivityRepository, discountRepo *repository.DiscountRepository, family *FamilyService) *SettlementService {
	return &SettlementService{
		outingRepo:   outingRepo,
		requestRepo:  requestRepo,
		catalogRepo:  catalogRepo,
		discountRepo: discountRepo,
		family:       family,
	}
}

// ComputeSettlement derives the payable summary for an outing: every
// confirmed (matched or guardian-selected), unpaid activity priced from the
// catalog, minus at most one discount code. Recomputed on every call;
// re-applying a different code overwrites, it never stacks.
func (s *SettlementService) ComputeSettlement(requesterID, outingID int64, discountCode string) (*models.SettlementSummary, error) {
	outing, requests, err := s.outingScope(requesterID, outingID)
	if err != nil {
		return nil, err
	}

	summary := &models.SettlementSummary{OutingID: outing.ID}

	var activityIDs []int64
	for _, request := range requests {
		if request.IsConfirmed() && !request.Paid {
			activityIDs = append(activityIDs, request.ActivityID)
		}
	}

	activities, err := s.catalogRepo.GetActivitiesByIDs(activityIDs)
	if err != nil {
		return nil, err
	}

	for _, request := range requests {
		if !request.IsConfirmed() || request.Paid {
			continue
		}
		activity, ok := activities[request.ActivityID]
		if !ok {
			return nil, fmt.Errorf("activity %d: %w", request.ActivityID, ErrActivityNotFound)
		}
		summary.Lines = append(summary.Lines, models.SettlementLine{
			ActivityID:   activity.ID,
			ActivityName: activity.Name,
			PriceCents:   activity.PriceCents,
			Status:       request.Status,
		})
		summary.SubtotalCents += activity.PriceCents
	}

	summary.TotalCents = summary.SubtotalCents

	if discountCode != "" {
		s.applyDiscount(summary, discountCode)
	}

	return summary, nil
}

// applyDiscount fills in the discount fields of the summary, or records the
// rejection reason. An invalid code leaves the subtotal untouched.
func (s *SettlementService) applyDiscount(summary *models.SettlementSummary, code string) {
	discount, err := s.discountRepo.GetCode(code)
	if err != nil {
		log.Printf("Discount lookup failed for %q: %v", code, err)
		summary.DiscountMessage = "discount code could not be checked"
		return
	}
	if discount == nil {
		summary.DiscountMessage = "unknown discount code"
		return
	}
	if reason := discount.RejectionReason(time.Now()); reason != "" {
		summary.DiscountMessage = reason
		return
	}

	summary.DiscountCode = discount.Code
	summary.DiscountCents = discount.AmountCents
	summary.TotalCents = summary.SubtotalCents - discount.AmountCents
	if summary.TotalCents < 0 {
		summary.TotalCents = 0
	}
}

// MarkSettled sets paid on the listed activities' requests after the caller
// has confirmed payment, or via the zero-amount path when every confirmed
// activity is free. Guardian-only. All-or-nothing: a precondition failure
// on any listed activity marks none of them.
func (s *SettlementService) MarkSettled(requesterID, outingID int64, activityIDs []int64, discountCode string) error {
	headID, role, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return err
	}
	if role == models.RoleDependent {
		return ErrNotGuardian
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return err
	}
	if outing == nil {
		return ErrOutingNotFound
	}

	if len(activityIDs) == 0 {
		return ErrNothingToSettle
	}

	// every listed activity must be a confirmed, unpaid request
	for _, activityID := range activityIDs {
		request, err := s.requestRepo.GetRequest(outing.ID, activityID)
		if err != nil {
			return err
		}
		if request == nil {
			return fmt.Errorf("activity %d: %w", activityID, ErrRequestNotFound)
		}
		if !request.IsConfirmed() {
			return fmt.Errorf("activity %d: %w", activityID, ErrNotConfirmed)
		}
		if request.Paid {
			return fmt.Errorf("activity %d already settled", activityID)
		}
	}

	if err := s.requestRepo.MarkPaid(outing.ID, activityIDs); err != nil {
		return err
	}

	if discountCode != "" {
		if err := s.discountRepo.RedeemCode(discountCode); err != nil {
			// paid marks have landed; the redemption counter is best-effort
			log.Printf("Failed to redeem discount code %q: %v", discountCode, err)
		}
	}

	return nil
}

func (s *SettlementService) outingScope(requesterID, outingID int64) (*models.Outing, []models.ActivityRequest, error) {
	headID, _, err := s.family.ResolveFamilyHead(requesterID)
	if err != nil {
		return nil, nil, err
	}

	outing, err := s.outingRepo.GetOuting(headID, outingID)
	if err != nil {
		return nil, nil, err
	}
	if outing == nil {
		return nil, nil, ErrOutingNotFound
	}

	requests, err := s.requestRepo.ListRequests(outing.ID)
	if err != nil {
		return nil, nil, err
	}
	return outing, requests, nil
}
