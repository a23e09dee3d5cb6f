package repository

import (
	"path/filepath"
	"testing"
	"time"

	"tripnest/internal/database"
	"tripnest/internal/models"
)

func setupTestDB(t *testing.T) *database.DB {
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
	return db
}

func TestCancelOutingRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	outings := NewOutingRepository(db)
	requests := NewActivityRequestRepository(db)
	activities := NewActivityRepository(db)

	user, err := users.CreateUser("alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	outing, err := outings.CreateOuting(user.ID, "Trip", time.Now(), nil, nil)
	if err != nil {
		t.Fatalf("CreateOuting() error = %v", err)
	}
	activity, err := activities.CreateActivity("Zoo", 3500, "", "")
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}
	if _, err := requests.CreateRequest(outing.ID, activity.ID, user.ID, models.RoleGuardian, models.VoteMap{user.ID: models.VoteLiked}); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	// a failure mid-batch must leave everything in place
	tables := append(append([]string{}, OutingChildTables...), "no_such_table")
	if err := outings.cancelOuting(tables, user.ID, outing.ID, user.ID, "oops"); err == nil {
		t.Fatal("cancelOuting() with a broken table should fail")
	}

	remaining, err := outings.GetOuting(user.ID, outing.ID)
	if err != nil {
		t.Fatalf("GetOuting() error = %v", err)
	}
	if remaining == nil {
		t.Error("outing deleted despite rollback")
	}

	request, err := requests.GetRequest(outing.ID, activity.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if request == nil {
		t.Error("activity request deleted despite rollback")
	}

	cancellation, err := outings.GetCancellation(outing.ID)
	if err != nil {
		t.Fatalf("GetCancellation() error = %v", err)
	}
	if cancellation != nil {
		t.Error("audit record written despite rollback")
	}
}

func TestUniqueProposalPerActivity(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	outings := NewOutingRepository(db)
	requests := NewActivityRequestRepository(db)
	activities := NewActivityRepository(db)

	user, err := users.CreateUser("alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	outing, err := outings.CreateOuting(user.ID, "Trip", time.Now(), nil, nil)
	if err != nil {
		t.Fatalf("CreateOuting() error = %v", err)
	}
	activity, err := activities.CreateActivity("Zoo", 3500, "", "")
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	votes := models.VoteMap{user.ID: models.VoteLiked}
	if _, err := requests.CreateRequest(outing.ID, activity.ID, user.ID, models.RoleGuardian, votes); err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	// the schema backstops the service-level duplicate check
	if _, err := requests.CreateRequest(outing.ID, activity.ID, user.ID, models.RoleGuardian, votes); err == nil {
		t.Error("duplicate request for the same outing/activity should violate the unique constraint")
	}
}

func TestVotesRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	outings := NewOutingRepository(db)
	requests := NewActivityRequestRepository(db)
	activities := NewActivityRepository(db)

	user, err := users.CreateUser("alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	outing, err := outings.CreateOuting(user.ID, "Trip", time.Now(), nil, nil)
	if err != nil {
		t.Fatalf("CreateOuting() error = %v", err)
	}
	activity, err := activities.CreateActivity("Zoo", 3500, "", "")
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	created, err := requests.CreateRequest(outing.ID, activity.ID, user.ID, models.RoleGuardian, models.VoteMap{user.ID: models.VoteLiked})
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	created.Votes[42] = models.VoteDisliked
	if err := requests.UpdateVotesAndStatus(created.ID, created.Votes, models.RequestRejected); err != nil {
		t.Fatalf("UpdateVotesAndStatus() error = %v", err)
	}

	stored, err := requests.GetRequestByID(created.ID)
	if err != nil {
		t.Fatalf("GetRequestByID() error = %v", err)
	}
	if stored.Status != models.RequestRejected {
		t.Errorf("status = %v, want rejected", stored.Status)
	}
	if stored.Votes[user.ID] != models.VoteLiked || stored.Votes[42] != models.VoteDisliked {
		t.Errorf("votes did not round-trip: %v", stored.Votes)
	}
}

func TestParticipantsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	outings := NewOutingRepository(db)

	user, err := users.CreateUser("alice@example.com", "hash", "Alice")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	outing, err := outings.CreateOuting(user.ID, "Trip", time.Now(), nil, []int64{7, 8, 7})
	if err != nil {
		t.Fatalf("CreateOuting() error = %v", err)
	}

	stored, err := outings.GetOuting(user.ID, outing.ID)
	if err != nil {
		t.Fatalf("GetOuting() error = %v", err)
	}

	participants := stored.NormalizeParticipants()
	if participants[0] != user.ID {
		t.Errorf("participants[0] = %d, want family head %d", participants[0], user.ID)
	}
	if len(participants) != 3 {
		t.Errorf("participants = %v, want head plus 7 and 8 deduplicated", participants)
	}
}
