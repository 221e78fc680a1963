package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeEndDateCalendarRule(t *testing.T) {
	// AddDate normalizes month-end overflow: Jan 31 + 1 month lands in
	// March, not on Feb 28/29.
	end := ComputeEndDate(PlanMonthly, date(2024, time.January, 31))
	require.NotNil(t, end)
	require.Equal(t, date(2024, time.March, 2), *end) // 2024 is a leap year

	end = ComputeEndDate(PlanMonthly, date(2023, time.January, 31))
	require.NotNil(t, end)
	require.Equal(t, date(2023, time.March, 3), *end)

	// Feb 29 + 1 year normalizes to Mar 1 of the non-leap year.
	end = ComputeEndDate(PlanYearly, date(2024, time.February, 29))
	require.NotNil(t, end)
	require.Equal(t, date(2025, time.March, 1), *end)

	// The common case has no normalization.
	end = ComputeEndDate(PlanMonthly, date(2024, time.June, 15))
	require.NotNil(t, end)
	require.Equal(t, date(2024, time.July, 15), *end)

	end = ComputeEndDate(PlanYearly, date(2024, time.June, 15))
	require.NotNil(t, end)
	require.Equal(t, date(2025, time.June, 15), *end)
}

func TestComputeEndDateNonExpiring(t *testing.T) {
	start := date(2024, time.June, 15)
	require.Nil(t, ComputeEndDate(PlanLifetimeFree, start))
	require.Nil(t, ComputeEndDate(PlanFree, start))
	// Unknown plan types are treated as non-expiring free tier.
	require.Nil(t, ComputeEndDate("sponsored", start))
}

func TestDecideReviewRejection(t *testing.T) {
	d, err := DecideReview(ActionRejected, PlanMonthly, false, date(2024, time.June, 15))
	require.NoError(t, err)
	require.Equal(t, ActionRejected, d.Status)
	require.Nil(t, d.Grant)
}

func TestDecideReviewPartnerSourcedGrantsLifetime(t *testing.T) {
	now := date(2024, time.June, 15)

	// Partner-sourced user: requested plan is irrelevant.
	d, err := DecideReview(ActionApproved, PlanYearly, true, now)
	require.NoError(t, err)
	require.Equal(t, ActionApproved, d.Status)
	require.NotNil(t, d.Grant)
	require.Equal(t, PlanLifetimeFree, d.Grant.PlanType)
	require.Nil(t, d.Grant.End)

	// The explicit "partner" requested plan resolves the same way.
	d, err = DecideReview(ActionApproved, PlanPartner, false, now)
	require.NoError(t, err)
	require.Equal(t, PlanLifetimeFree, d.Grant.PlanType)
	require.Nil(t, d.Grant.End)
}

func TestDecideReviewPaidPlans(t *testing.T) {
	now := date(2024, time.June, 15)

	d, err := DecideReview(ActionApproved, PlanMonthly, false, now)
	require.NoError(t, err)
	require.Equal(t, PlanMonthly, d.Grant.PlanType)
	require.NotNil(t, d.Grant.End)
	require.Equal(t, date(2024, time.July, 15), *d.Grant.End)

	d, err = DecideReview(ActionApproved, PlanYearly, false, now)
	require.NoError(t, err)
	require.Equal(t, date(2025, time.June, 15), *d.Grant.End)
}

func TestDecideReviewInvalidAction(t *testing.T) {
	_, err := DecideReview("escalated", PlanMonthly, false, date(2024, time.June, 15))
	require.ErrorIs(t, err, ErrInvalidAction)
}
