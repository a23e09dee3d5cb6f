package handlers

import (
	"strconv"
	"time"

	"tripnest/internal/models"
)

// JSON views over the domain models. Votes are keyed by voter id as a
// string because JSON object keys are strings.

type UserView struct {
	ID          int64  `json:"id"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	AvatarColor string `json:"avatarColor,omitempty"`
}

type OutingView struct {
	ID                  int64      `json:"id"`
	Title               string     `json:"title"`
	StartDate           time.Time  `json:"startDate"`
	EndDate             *time.Time `json:"endDate,omitempty"`
	ParticipantIDs      []int64    `json:"participantIds"`
	Status              string     `json:"status"`
	EvaluationSubmitted bool       `json:"evaluationSubmitted"`
	Shared              bool       `json:"shared"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type RequestView struct {
	ID          int64             `json:"id"`
	OutingID    int64             `json:"outingId"`
	ActivityID  int64             `json:"activityId"`
	Status      string            `json:"status"`
	Votes       map[string]string `json:"votes"`
	CreatedBy   int64             `json:"createdBy"`
	Paid        bool              `json:"paid"`
	RequestedAt time.Time         `json:"requestedAt"`
}

type ActivityView struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Location   string `json:"location,omitempty"`
	Category   string `json:"category,omitempty"`
}

type ItineraryItemView struct {
	ID         int64  `json:"id"`
	ActivityID *int64 `json:"activityId,omitempty"`
	Title      string `json:"title"`
	Day        int    `json:"day"`
	Position   int    `json:"position"`
	StartTime  string `json:"startTime,omitempty"`
	Note       string `json:"note,omitempty"`
}

type ItineraryView struct {
	ID        int64               `json:"id"`
	OutingID  int64               `json:"outingId"`
	SavedBy   int64               `json:"savedBy"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Items     []ItineraryItemView `json:"items"`
}

type MemoryView struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type SettlementLineView struct {
	ActivityID   int64  `json:"activityId"`
	ActivityName string `json:"activityName"`
	PriceCents   int64  `json:"priceCents"`
	Status       string `json:"status"`
}

type SettlementView struct {
	OutingID        int64                `json:"outingId"`
	Lines           []SettlementLineView `json:"lines"`
	SubtotalCents   int64                `json:"subtotalCents"`
	DiscountCode    string               `json:"discountCode,omitempty"`
	DiscountCents   int64                `json:"discountCents"`
	TotalCents      int64                `json:"totalCents"`
	DiscountMessage string               `json:"discountMessage,omitempty"`
	RequiresPayment bool                 `json:"requiresPayment"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		AvatarColor: u.AvatarColor,
	}
}

func newOutingView(o *models.Outing) OutingView {
	return OutingView{
		ID:                  o.ID,
		Title:               o.Title,
		StartDate:           o.StartDate,
		EndDate:             o.EndDate,
		ParticipantIDs:      o.NormalizeParticipants(),
		Status:              string(o.Status),
		EvaluationSubmitted: o.EvaluationSubmitted,
		Shared:              o.Shared,
		CreatedAt:           o.CreatedAt,
	}
}

func newRequestView(r *models.ActivityRequest) RequestView {
	votes := make(map[string]string, len(r.Votes))
	for voterID, vote := range r.Votes {
		votes[strconv.FormatInt(voterID, 10)] = string(vote)
	}
	return RequestView{
		ID:          r.ID,
		OutingID:    r.OutingID,
		ActivityID:  r.ActivityID,
		Status:      string(r.Status),
		Votes:       votes,
		CreatedBy:   r.CreatedByUID,
		Paid:        r.Paid,
		RequestedAt: r.RequestedAt,
	}
}

func newActivityView(a *models.Activity) ActivityView {
	return ActivityView{
		ID:         a.ID,
		Name:       a.Name,
		PriceCents: a.PriceCents,
		Location:   a.Location,
		Category:   a.Category,
	}
}

func newItineraryView(it *models.Itinerary) ItineraryView {
	items := make([]ItineraryItemView, 0, len(it.Items))
	for _, item := range it.Items {
		items = append(items, ItineraryItemView{
			ID:         item.ID,
			ActivityID: item.ActivityID,
			Title:      item.Title,
			Day:        item.Day,
			Position:   item.Position,
			StartTime:  item.StartTime,
			Note:       item.Note,
		})
	}
	return ItineraryView{
		ID:        it.ID,
		OutingID:  it.OutingID,
		SavedBy:   it.SavedBy,
		UpdatedAt: it.UpdatedAt,
		Items:     items,
	}
}

func newMemoryView(m *models.Memory) MemoryView {
	return MemoryView{
		ID:        m.ID,
		Kind:      m.Kind,
		MediaURL:  m.MediaURL,
		Caption:   m.Caption,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}

func newSettlementView(s *models.SettlementSummary) SettlementView {
	lines := make([]SettlementLineView, 0, len(s.Lines))
	for _, line := range s.Lines {
		lines = append(lines, SettlementLineView{
			ActivityID:   line.ActivityID,
			ActivityName: line.ActivityName,
			PriceCents:   line.PriceCents,
			Status:       string(line.Status),
		})
	}
	return SettlementView{
		OutingID:        s.OutingID,
		Lines:           lines,
		SubtotalCents:   s.SubtotalCents,
		DiscountCode:    s.DiscountCode,
		DiscountCents:   s.DiscountCents,
		TotalCents:      s.TotalCents,
		DiscountMessage: s.DiscountMessage,
		RequiresPayment: s.RequiresPayment(),
	}
}

func newOutingViews(outings []models.Outing) []OutingView {
	views := make([]OutingView, 0, len(outings))
	for i := range outings {
		views = append(views, newOutingView(&outings[i]))
	}
	return views
}

func newRequestViews(requests []models.ActivityRequest) []RequestView {
	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, newRequestView(&requests[i]))
	}
	return views
}
