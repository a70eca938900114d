package billing

import "time"

// Plan represents a purchasable subscription tier.
type Plan struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int       `json:"priceCents"`
	MaxUsers   int       `json:"maxUsers"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PlanInput carries the writable fields of a plan.
type PlanInput struct {
	Name       string
	PriceCents int
	MaxUsers   int
	Active     bool
}

// SubscriptionStatus values mirrored from the payment processor.
const (
	SubStatusActive    = "ACTIVE"
	SubStatusPastDue   = "PAST_DUE"
	SubStatusCancelled = "CANCELLED"
)

// Subscription is the local mirror of a council's processor subscription.
type Subscription struct {
	CouncilID        string    `json:"councilId"`
	PlanID           string    `json:"planId"`
	ProcessorRef     string    `json:"processorRef"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// pastDueGrace is how long a PAST_DUE subscription keeps working before the
// unpaid flow kicks in.
const pastDueGrace = 72 * time.Hour

// InGoodStanding reports whether the subscription should unlock the app.
func (s Subscription) InGoodStanding(now time.Time) bool {
	switch s.Status {
	case SubStatusActive:
		return true
	case SubStatusPastDue:
		return now.Before(s.CurrentPeriodEnd.Add(pastDueGrace))
	default:
		return false
	}
}
