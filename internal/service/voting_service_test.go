package service

import (
	"errors"
	"testing"

	"tripnest/internal/models"
)

func testComposition() models.RoleComposition {
	return models.RoleComposition{
		Guardians:  map[int64]bool{1: true, 2: true},
		Dependents: map[int64]bool{10: true, 11: true},
	}
}

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name     string
		votes    models.VoteMap
		expected models.RequestStatus
	}{
		{
			name:     "no votes",
			votes:    models.VoteMap{},
			expected: models.RequestPending,
		},
		{
			name:     "guardian like alone stays pending",
			votes:    models.VoteMap{1: models.VoteLiked},
			expected: models.RequestPending,
		},
		{
			name:     "dependent like alone stays pending",
			votes:    models.VoteMap{10: models.VoteLiked},
			expected: models.RequestPending,
		},
		{
			name:     "two dependents cannot match without a guardian",
			votes:    models.VoteMap{10: models.VoteLiked, 11: models.VoteLiked},
			expected: models.RequestPending,
		},
		{
			name:     "guardian and dependent like matches",
			votes:    models.VoteMap{1: models.VoteLiked, 10: models.VoteLiked},
			expected: models.RequestMatched,
		},
		{
			name:     "guardian dislike vetoes a match",
			votes:    models.VoteMap{1: models.VoteLiked, 2: models.VoteDisliked, 10: models.VoteLiked},
			expected: models.RequestRejected,
		},
		{
			name:     "guardian dislike alone rejects",
			votes:    models.VoteMap{2: models.VoteDisliked},
			expected: models.RequestRejected,
		},
		{
			name:     "dependent dislike has no veto power",
			votes:    models.VoteMap{1: models.VoteLiked, 10: models.VoteLiked, 11: models.VoteDisliked},
			expected: models.RequestMatched,
		},
		{
			name:     "votes from removed participants are ignored",
			votes:    models.VoteMap{99: models.VoteLiked, 98: models.VoteDisliked, 1: models.VoteLiked},
			expected: models.RequestPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := testComposition()
			result := computeStatus(tt.votes, comp)
			if result != tt.expected {
				t.Errorf("computeStatus() = %v, want %v", result, tt.expected)
			}

			// recomputation from the same facts must be stable
			if again := computeStatus(tt.votes, comp); again != result {
				t.Errorf("computeStatus() recomputed = %v, want %v", again, result)
			}
		})
	}
}

func TestProposeAndVoteFlow(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d1 := env.dependent(t, g.ID, "Ben")
	d2 := env.dependent(t, g.ID, "Cara")
	outing := env.outing(t, g.ID, d1.ID, d2.ID)
	activity := env.activity(t, "Zoo", 3500)

	// dependent proposes; the proposal carries an implicit like
	request, err := env.voting.Propose(outing.ID, activity.ID, d1.ID)
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if request.Status != models.RequestPending {
		t.Errorf("new proposal status = %v, want pending", request.Status)
	}
	if request.Votes[d1.ID] != models.VoteLiked {
		t.Errorf("proposer vote = %v, want liked", request.Votes[d1.ID])
	}
	if request.CreatedByRole != models.RoleDependent {
		t.Errorf("CreatedByRole = %v, want dependent", request.CreatedByRole)
	}

	// second dependent liking changes nothing
	request, err = env.voting.RecordVote(outing.ID, activity.ID, d2.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestPending {
		t.Errorf("status after two dependent likes = %v, want pending", request.Status)
	}

	// guardian like completes the cross-tier match
	request, err = env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Errorf("status after guardian like = %v, want matched", request.Status)
	}

	// persisted state agrees
	stored, err := env.voting.GetRequest(outing.ID, activity.ID, g.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if stored.Status != models.RequestMatched {
		t.Errorf("stored status = %v, want matched", stored.Status)
	}
	if len(stored.Votes) != 3 {
		t.Errorf("stored votes = %d, want 3", len(stored.Votes))
	}
}

func TestGuardianVetoDemotesMatch(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	activity := env.activity(t, "Trampoline park", 4200)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	request, err := env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Fatalf("status = %v, want matched", request.Status)
	}

	// guardian changes their mind; the veto overrides the earlier match
	request, err = env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteDisliked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestRejected {
		t.Errorf("status after guardian dislike = %v, want rejected", request.Status)
	}
	if len(request.Votes) != 2 {
		t.Errorf("votes = %d, want 2 (re-vote overwrites, never appends)", len(request.Votes))
	}
}

func TestReVoteIsOverwrite(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	activity := env.activity(t, "Mini golf", 1800)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	// the proposer re-voting is accepted, not an error
	request, err := env.voting.RecordVote(outing.ID, activity.ID, d.ID, models.VoteDisliked)
	if err != nil {
		t.Fatalf("RecordVote() re-vote error = %v", err)
	}
	if len(request.Votes) != 1 {
		t.Errorf("votes = %d, want 1", len(request.Votes))
	}
	if request.Votes[d.ID] != models.VoteDisliked {
		t.Errorf("vote = %v, want disliked", request.Votes[d.ID])
	}
	if request.Status != models.RequestPending {
		t.Errorf("status = %v, want pending (dependent dislike is not a veto)", request.Status)
	}
}

func TestDuplicateProposalRejected(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	activity := env.activity(t, "Cinema", 2400)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.Propose(outing.ID, activity.ID, g.ID); !errors.Is(err, ErrDuplicateProposal) {
		t.Errorf("second Propose() error = %v, want ErrDuplicateProposal", err)
	}
}

func TestProposeUnknownActivity(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	outing := env.outing(t, g.ID)

	if _, err := env.voting.Propose(outing.ID, 99999, g.ID); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("Propose() error = %v, want ErrActivityNotFound", err)
	}
}

func TestConfirmByGuardian(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	activity := env.activity(t, "Aquarium", 3000)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	// dependents cannot override
	if _, err := env.voting.ConfirmByGuardian(outing.ID, activity.ID, d.ID); !errors.Is(err, ErrNotGuardian) {
		t.Errorf("dependent ConfirmByGuardian() error = %v, want ErrNotGuardian", err)
	}

	request, err := env.voting.ConfirmByGuardian(outing.ID, activity.ID, g.ID)
	if err != nil {
		t.Fatalf("ConfirmByGuardian() error = %v", err)
	}
	if request.Status != models.RequestSelectedByParent {
		t.Errorf("status = %v, want selected_by_parent", request.Status)
	}

	// the confirmed state is terminal for voting
	if _, err := env.voting.RecordVote(outing.ID, activity.ID, d.ID, models.VoteLiked); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("vote on confirmed request error = %v, want ErrInvalidTransition", err)
	}

	// and cannot be confirmed twice
	if _, err := env.voting.ConfirmByGuardian(outing.ID, activity.ID, g.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second ConfirmByGuardian() error = %v, want ErrInvalidTransition", err)
	}
}

func TestConfirmOnlyFromPending(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	activity := env.activity(t, "Beach", 0)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteDisliked); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}

	if _, err := env.voting.ConfirmByGuardian(outing.ID, activity.ID, g.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ConfirmByGuardian() on rejected error = %v, want ErrInvalidTransition", err)
	}

	// a matched request needs no confirmation either
	matched := env.activity(t, "Mini golf", 1800)
	if _, err := env.voting.Propose(outing.ID, matched.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, matched.ID, g.ID, models.VoteLiked); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if _, err := env.voting.ConfirmByGuardian(outing.ID, matched.ID, g.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("ConfirmByGuardian() on matched error = %v, want ErrInvalidTransition", err)
	}
}

func TestReturnToVoting(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	d2 := env.dependent(t, g.ID, "Cara")
	outing := env.outing(t, g.ID, d.ID, d2.ID)
	activity := env.activity(t, "Museum", 2800)

	if _, err := env.voting.Propose(outing.ID, activity.ID, g.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.ConfirmByGuardian(outing.ID, activity.ID, g.ID); err != nil {
		t.Fatalf("ConfirmByGuardian() error = %v", err)
	}

	request, changed, err := env.voting.ReturnToVoting(outing.ID, activity.ID, g.ID)
	if err != nil {
		t.Fatalf("ReturnToVoting() error = %v", err)
	}
	if !changed {
		t.Error("ReturnToVoting() changed = false, want true")
	}
	if request.Status != models.RequestPending {
		t.Errorf("status = %v, want pending", request.Status)
	}
	if request.Votes[g.ID] != models.VoteLiked {
		t.Error("votes were cleared; return to voting must preserve them")
	}

	// already pending: a distinguishable no-op, not an error
	_, changed, err = env.voting.ReturnToVoting(outing.ID, activity.ID, g.ID)
	if err != nil {
		t.Fatalf("second ReturnToVoting() error = %v", err)
	}
	if changed {
		t.Error("ReturnToVoting() on pending changed = true, want false")
	}

	// preserved guardian like means one dependent like re-matches immediately
	request, err = env.voting.RecordVote(outing.ID, activity.ID, d.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Errorf("status after re-vote = %v, want matched", request.Status)
	}
}

func TestStaleVotesAfterParticipantRemoval(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	d2 := env.dependent(t, g.ID, "Cara")
	outing := env.outing(t, g.ID, d.ID, d2.ID)
	activity := env.activity(t, "Picnic", 0)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	request, err := env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Fatalf("status = %v, want matched", request.Status)
	}

	// removing the proposer keeps their vote on record
	if _, err := env.outingSvc.UpdateParticipants(g.ID, outing.ID, []int64{d2.ID}); err != nil {
		t.Fatalf("UpdateParticipants() error = %v", err)
	}
	stored, err := env.voting.GetRequest(outing.ID, activity.ID, g.ID)
	if err != nil {
		t.Fatalf("GetRequest() error = %v", err)
	}
	if _, ok := stored.Votes[d.ID]; !ok {
		t.Error("removed participant's vote was rewritten; history must be preserved")
	}

	// but the next recomputation no longer counts it
	request, err = env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestPending {
		t.Errorf("status after removal = %v, want pending (stale like ignored)", request.Status)
	}
}

func TestMatchSurvivesRemovalWhenTierStillSatisfied(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	d2 := env.dependent(t, g.ID, "Cara")
	outing := env.outing(t, g.ID, d.ID, d2.ID)
	activity := env.activity(t, "Aquarium", 3000)

	if _, err := env.voting.Propose(outing.ID, activity.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, activity.ID, d2.ID, models.VoteLiked); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	request, err := env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Fatalf("status = %v, want matched", request.Status)
	}

	if _, err := env.outingSvc.UpdateParticipants(g.ID, outing.ID, []int64{d2.ID}); err != nil {
		t.Fatalf("UpdateParticipants() error = %v", err)
	}

	// d2's like still satisfies the dependent tier, so the match holds
	request, err = env.voting.RecordVote(outing.ID, activity.ID, g.ID, models.VoteLiked)
	if err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if request.Status != models.RequestMatched {
		t.Errorf("status after removing one liker = %v, want matched", request.Status)
	}
}

func TestVoteValidation(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	outing := env.outing(t, g.ID)
	activity := env.activity(t, "Zoo", 3500)

	if _, err := env.voting.Propose(outing.ID, activity.ID, g.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	if _, err := env.voting.RecordVote(outing.ID, activity.ID, g.ID, "maybe"); !errors.Is(err, ErrInvalidVote) {
		t.Errorf("RecordVote(maybe) error = %v, want ErrInvalidVote", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, 99999, g.ID, models.VoteLiked); !errors.Is(err, ErrRequestNotFound) {
		t.Errorf("RecordVote on missing request error = %v, want ErrRequestNotFound", err)
	}
}

func TestOutingScopedToFamily(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	stranger := env.guardian(t, "mallory")
	outing := env.outing(t, g.ID)
	activity := env.activity(t, "Zoo", 3500)

	if _, err := env.voting.Propose(outing.ID, activity.ID, stranger.ID); !errors.Is(err, ErrOutingNotFound) {
		t.Errorf("Propose() from another family error = %v, want ErrOutingNotFound", err)
	}
}
