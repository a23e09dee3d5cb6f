package service

import (
	"path/filepath"
	"testing"
	"time"

	"tripnest/internal/database"
	"tripnest/internal/models"
	"tripnest/internal/repository"
)

// testEnv wires the full service stack against a throwaway sqlite database
// with the real migrations applied.
type testEnv struct {
	db *database.DB

	users      *repository.UserRepository
	outings    *repository.OutingRepository
	requests   *repository.ActivityRequestRepository
	activities *repository.ActivityRepository

	family     *FamilyService
	auth       *AuthService
	outingSvc  *OutingService
	voting     *VotingService
	settlement *SettlementService
	share      *ShareService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(filepath.Join("..", "..", "migrations")); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	users := repository.NewUserRepository(db)
	outings := repository.NewOutingRepository(db)
	requests := repository.NewActivityRequestRepository(db)
	activities := repository.NewActivityRepository(db)
	itineraries := repository.NewItineraryRepository(db)
	evaluations := repository.NewEvaluationRepository(db)
	discounts := repository.NewDiscountRepository(db)

	family := NewFamilyService(users)
	return &testEnv{
		db:         db,
		users:      users,
		outings:    outings,
		requests:   requests,
		activities: activities,
		family:     family,
		auth:       NewAuthService(users, time.Hour),
		outingSvc:  NewOutingService(outings, requests, itineraries, evaluations, family),
		voting:     NewVotingService(outings, requests, activities, family),
		settlement: NewSettlementService(outings, requests, activities, discounts, family),
		share:      NewShareService(outings, family, "test-secret", time.Hour),
	}
}

func (e *testEnv) guardian(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(name+"@example.com", "hash", name)
	if err != nil {
		t.Fatalf("Failed to create guardian %s: %v", name, err)
	}
	return user
}

func (e *testEnv) dependent(t *testing.T, parentID int64, name string) *models.User {
	t.Helper()
	user, err := e.users.CreateDependent(parentID, name, "blue")
	if err != nil {
		t.Fatalf("Failed to create dependent %s: %v", name, err)
	}
	return user
}

func (e *testEnv) activity(t *testing.T, name string, priceCents int64) *models.Activity {
	t.Helper()
	activity, err := e.activities.CreateActivity(name, priceCents, "", "")
	if err != nil {
		t.Fatalf("Failed to create activity %s: %v", name, err)
	}
	return activity
}

func (e *testEnv) outing(t *testing.T, requesterID int64, participantIDs ...int64) *models.Outing {
	t.Helper()
	outing, err := e.outingSvc.CreateOuting(requesterID, "Weekend trip", time.Now().Add(48*time.Hour), nil, participantIDs)
	if err != nil {
		t.Fatalf("Failed to create outing: %v", err)
	}
	return outing
}

func (e *testEnv) discountCode(t *testing.T, code string, amountCents int64, validFrom, validUntil time.Time, maxRedemptions int) {
	t.Helper()
	query := `INSERT INTO discount_codes (code, amount_cents, active, valid_from, valid_until, max_redemptions)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := e.db.Exec(query, code, amountCents, true, validFrom, validUntil, maxRedemptions); err != nil {
		t.Fatalf("Failed to insert discount code %s: %v", code, err)
	}
}
