package service

import (
	"errors"
	"testing"
	"time"

	"tripnest/internal/models"
)

// confirmActivity proposes and guardian-confirms an activity so it counts
// toward the settlement.
func confirmActivity(t *testing.T, env *testEnv, outingID, activityID, guardianID int64) {
	t.Helper()
	if _, err := env.voting.Propose(outingID, activityID, guardianID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.ConfirmByGuardian(outingID, activityID, guardianID); err != nil {
		t.Fatalf("ConfirmByGuardian() error = %v", err)
	}
}

func TestComputeSettlement(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)

	zoo := env.activity(t, "Zoo", 5000)
	picnic := env.activity(t, "Picnic", 0)
	museum := env.activity(t, "Museum", 3000)
	cinema := env.activity(t, "Cinema", 2400)
	golf := env.activity(t, "Mini golf", 1800)

	// three confirmed: a match plus two guardian selections
	if _, err := env.voting.Propose(outing.ID, zoo.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, zoo.ID, g.ID, models.VoteLiked); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	confirmActivity(t, env, outing.ID, picnic.ID, g.ID)
	confirmActivity(t, env, outing.ID, museum.ID, g.ID)

	// one rejected, one pending; neither may appear
	if _, err := env.voting.Propose(outing.ID, cinema.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if _, err := env.voting.RecordVote(outing.ID, cinema.ID, g.ID, models.VoteDisliked); err != nil {
		t.Fatalf("RecordVote() error = %v", err)
	}
	if _, err := env.voting.Propose(outing.ID, golf.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	summary, err := env.settlement.ComputeSettlement(g.ID, outing.ID, "")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if len(summary.Lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(summary.Lines))
	}
	if summary.SubtotalCents != 8000 {
		t.Errorf("SubtotalCents = %d, want 8000", summary.SubtotalCents)
	}
	if summary.TotalCents != 8000 {
		t.Errorf("TotalCents = %d, want 8000", summary.TotalCents)
	}
	if !summary.RequiresPayment() {
		t.Error("RequiresPayment() = false, want true")
	}
}

func TestSettlementWithDiscount(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	outing := env.outing(t, g.ID)
	zoo := env.activity(t, "Zoo", 5000)
	museum := env.activity(t, "Museum", 3000)
	confirmActivity(t, env, outing.ID, zoo.ID, g.ID)
	confirmActivity(t, env, outing.ID, museum.ID, g.ID)

	now := time.Now()
	env.discountCode(t, "FAMILY10", 1000, now.Add(-time.Hour), now.Add(time.Hour), 0)
	env.discountCode(t, "EXPIRED", 1000, now.Add(-48*time.Hour), now.Add(-24*time.Hour), 0)
	env.discountCode(t, "BIG", 20000, now.Add(-time.Hour), now.Add(time.Hour), 0)

	summary, err := env.settlement.ComputeSettlement(g.ID, outing.ID, "FAMILY10")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if summary.DiscountCents != 1000 || summary.TotalCents != 7000 {
		t.Errorf("discount = %d, total = %d; want 1000 and 7000", summary.DiscountCents, summary.TotalCents)
	}
	if summary.DiscountMessage != "" {
		t.Errorf("DiscountMessage = %q, want empty", summary.DiscountMessage)
	}

	// re-applying a different code replaces, never stacks
	summary, err = env.settlement.ComputeSettlement(g.ID, outing.ID, "BIG")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if summary.DiscountCents != 20000 {
		t.Errorf("DiscountCents = %d, want 20000", summary.DiscountCents)
	}
	if summary.TotalCents != 0 {
		t.Errorf("TotalCents = %d, want 0 (clamped, never negative)", summary.TotalCents)
	}

	// rejected codes leave the subtotal untouched and explain why
	for _, code := range []string{"EXPIRED", "NOSUCHCODE"} {
		summary, err = env.settlement.ComputeSettlement(g.ID, outing.ID, code)
		if err != nil {
			t.Fatalf("ComputeSettlement(%s) error = %v", code, err)
		}
		if summary.DiscountMessage == "" {
			t.Errorf("code %s: DiscountMessage empty, want rejection reason", code)
		}
		if summary.TotalCents != 8000 {
			t.Errorf("code %s: TotalCents = %d, want 8000", code, summary.TotalCents)
		}
		if summary.DiscountCode != "" {
			t.Errorf("code %s: DiscountCode = %q, want empty", code, summary.DiscountCode)
		}
	}
}

func TestMarkSettled(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	d := env.dependent(t, g.ID, "Ben")
	outing := env.outing(t, g.ID, d.ID)
	zoo := env.activity(t, "Zoo", 5000)
	museum := env.activity(t, "Museum", 3000)
	golf := env.activity(t, "Mini golf", 1800)
	confirmActivity(t, env, outing.ID, zoo.ID, g.ID)
	confirmActivity(t, env, outing.ID, museum.ID, g.ID)
	if _, err := env.voting.Propose(outing.ID, golf.ID, d.ID); err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	// guardian-only
	if err := env.settlement.MarkSettled(d.ID, outing.ID, []int64{zoo.ID}, ""); !errors.Is(err, ErrNotGuardian) {
		t.Errorf("MarkSettled() by dependent error = %v, want ErrNotGuardian", err)
	}

	// nothing listed
	if err := env.settlement.MarkSettled(g.ID, outing.ID, nil, ""); !errors.Is(err, ErrNothingToSettle) {
		t.Errorf("MarkSettled() empty error = %v, want ErrNothingToSettle", err)
	}

	// a pending activity poisons the whole batch
	if err := env.settlement.MarkSettled(g.ID, outing.ID, []int64{zoo.ID, golf.ID}, ""); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("MarkSettled() with pending item error = %v, want ErrNotConfirmed", err)
	}
	summary, err := env.settlement.ComputeSettlement(g.ID, outing.ID, "")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if len(summary.Lines) != 2 {
		t.Errorf("lines after failed settle = %d, want 2 (nothing marked)", len(summary.Lines))
	}

	// settling a valid subset removes it from the projection
	if err := env.settlement.MarkSettled(g.ID, outing.ID, []int64{zoo.ID}, ""); err != nil {
		t.Fatalf("MarkSettled() error = %v", err)
	}
	summary, err = env.settlement.ComputeSettlement(g.ID, outing.ID, "")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if len(summary.Lines) != 1 || summary.SubtotalCents != 3000 {
		t.Errorf("after settle: lines = %d subtotal = %d, want 1 and 3000", len(summary.Lines), summary.SubtotalCents)
	}

	// double settle is refused
	if err := env.settlement.MarkSettled(g.ID, outing.ID, []int64{zoo.ID}, ""); err == nil {
		t.Error("MarkSettled() on already-paid activity should fail")
	}
}

func TestZeroAmountSettlement(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	outing := env.outing(t, g.ID)
	picnic := env.activity(t, "Picnic", 0)
	beach := env.activity(t, "Beach", 0)
	confirmActivity(t, env, outing.ID, picnic.ID, g.ID)
	confirmActivity(t, env, outing.ID, beach.ID, g.ID)

	summary, err := env.settlement.ComputeSettlement(g.ID, outing.ID, "")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if len(summary.Lines) != 2 {
		t.Fatalf("lines = %d, want 2 (zero-amount is not nothing-to-settle)", len(summary.Lines))
	}
	if summary.RequiresPayment() {
		t.Error("RequiresPayment() = true, want false for a zero total")
	}

	// the zero-amount path still settles explicitly
	if err := env.settlement.MarkSettled(g.ID, outing.ID, []int64{picnic.ID, beach.ID}, ""); err != nil {
		t.Fatalf("MarkSettled() zero-amount error = %v", err)
	}
	summary, err = env.settlement.ComputeSettlement(g.ID, outing.ID, "")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if len(summary.Lines) != 0 {
		t.Errorf("lines after settle = %d, want 0", len(summary.Lines))
	}
}

func TestDiscountRedemptionCap(t *testing.T) {
	env := newTestEnv(t)

	g := env.guardian(t, "alice")
	outing := env.outing(t, g.ID)
	zoo := env.activity(t, "Zoo", 5000)
	confirmActivity(t, env, outing.ID, zoo.ID, g.ID)

	now := time.Now()
	env.discountCode(t, "ONCE", 500, now.Add(-time.Hour), now.Add(time.Hour), 1)

	if err := env.settlement.MarkSettled(g.ID, outing.ID, []int64{zoo.ID}, "ONCE"); err != nil {
		t.Fatalf("MarkSettled() error = %v", err)
	}

	// the code is now exhausted for future settlements
	museum := env.activity(t, "Museum", 3000)
	confirmActivity(t, env, outing.ID, museum.ID, g.ID)
	summary, err := env.settlement.ComputeSettlement(g.ID, outing.ID, "ONCE")
	if err != nil {
		t.Fatalf("ComputeSettlement() error = %v", err)
	}
	if summary.DiscountMessage == "" {
		t.Error("exhausted code accepted; want rejection reason")
	}
	if summary.TotalCents != 3000 {
		t.Errorf("TotalCents = %d, want 3000", summary.TotalCents)
	}
}
