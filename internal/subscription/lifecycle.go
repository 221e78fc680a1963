// Package subscription implements the plan lifecycle: end-date
// arithmetic, verification review decisions and subscription creation.
package subscription

import (
	"errors"
	"time"
)

// Plan type values as stored in subscriptions.plan_type.
const (
	PlanFree         = "free"
	PlanMonthly      = "monthly"
	PlanYearly       = "yearly"
	PlanLifetimeFree = "lifetime_free"
)

// PlanPartner is accepted as a requested plan in verification reviews
// and resolves to PlanLifetimeFree; it is never stored.
const PlanPartner = "partner"

// Review actions.
const (
	ActionApproved = "approved"
	ActionRejected = "rejected"
)

// ErrInvalidAction is returned for review actions other than
// approved/rejected.
var ErrInvalidAction = errors.New("invalid review action")

// ErrNotFound is returned when a verification does not exist or was
// already reviewed. The two cases are deliberately indistinguishable:
// the pending-status guard is what prevents double approval.
var ErrNotFound = errors.New("verification not found or already reviewed")

// ComputeEndDate returns when a plan starting at start lapses, or nil
// for non-expiring plans. Monthly and yearly use Go's AddDate calendar
// arithmetic, which normalizes overflow: Jan 31 + 1 month is Mar 2
// (Mar 3 in non-leap years) and Feb 29 + 1 year is Mar 1. That rule is
// applied consistently and covered by tests. lifetime_free, free and
// any unknown plan type are treated as non-expiring.
func ComputeEndDate(planType string, start time.Time) *time.Time {
	var end time.Time
	switch planType {
	case PlanMonthly:
		end = start.AddDate(0, 1, 0)
	case PlanYearly:
		end = start.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &end
}

// PlanGrant describes the subscription a review decision grants.
type PlanGrant struct {
	PlanType string
	Start    time.Time
	End      *time.Time
}

// Decision is the resolved outcome of a verification review: the status
// to store and, for approvals, the plan to grant. Grant is nil for
// rejections.
type Decision struct {
	Status string
	Grant  *PlanGrant
}

// DecideReview resolves a review action into a Decision. A rejection is
// terminal and grants nothing. An approval derives the final plan:
// partner-sourced verifications grant lifetime_free regardless of the
// requested plan, everything else grants the requested plan with its
// computed end date.
func DecideReview(action, requestedPlan string, partnerSourced bool, now time.Time) (Decision, error) {
	switch action {
	case ActionRejected:
		return Decision{Status: ActionRejected}, nil
	case ActionApproved:
		final := requestedPlan
		if partnerSourced || requestedPlan == PlanPartner {
			final = PlanLifetimeFree
		}
		return Decision{
			Status: ActionApproved,
			Grant: &PlanGrant{
				PlanType: final,
				Start:    now,
				End:      ComputeEndDate(final, now),
			},
		}, nil
	default:
		return Decision{}, ErrInvalidAction
	}
}
