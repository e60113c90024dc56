package obligation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paywarden/obligation-engine/obligation"
	"github.com/paywarden/obligation-engine/schedule"
)

func TestRecountInstallments_CountsElapsedAnchors(t *testing.T) {
	// GIVEN: a 12-installment loan created on its first anchor date
	ob := installment(15, 12, 12, date(2025, time.January, 15))

	// WHEN: five anchor dates have passed (Jan..May 15)
	changed := ob.RecountInstallments(date(2025, time.May, 20))

	// THEN: five installments are paid
	assert.True(t, changed)
	assert.Equal(t, 7, ob.Installment.Remaining)
}

func TestRecountInstallments_AnchorNotYetReachedThisMonth(t *testing.T) {
	ob := installment(15, 12, 12, date(2025, time.January, 15))

	// May 10 precedes the May anchor: only Jan..Apr count.
	changed := ob.RecountInstallments(date(2025, time.May, 10))

	assert.True(t, changed)
	assert.Equal(t, 8, ob.Installment.Remaining)
}

func TestRecountInstallments_CreationMidMonthSkipsEarlierAnchor(t *testing.T) {
	// GIVEN: loan created on Jan 20 with anchor day 15 - the January
	// anchor predates the loan and must not count
	ob := installment(15, 12, 12, date(2025, time.January, 20))

	changed := ob.RecountInstallments(date(2025, time.March, 20))

	assert.True(t, changed)
	assert.Equal(t, 10, ob.Installment.Remaining, "only Feb and Mar anchors count")
}

func TestRecountInstallments_FloorsAtZero(t *testing.T) {
	ob := installment(15, 3, 3, date(2024, time.January, 15))

	changed := ob.RecountInstallments(date(2025, time.May, 20))

	assert.True(t, changed)
	assert.Equal(t, 0, ob.Installment.Remaining)
}

func TestRecountInstallments_NoChangeReportsFalse(t *testing.T) {
	ob := installment(15, 12, 7, date(2025, time.January, 15))
	assert.False(t, ob.RecountInstallments(date(2025, time.May, 20)))
}

func TestRecountInstallments_IgnoresOtherKinds(t *testing.T) {
	ob := recurring(15, 10)
	assert.False(t, ob.RecountInstallments(date(2025, time.May, 20)))
}

func TestRecountAll(t *testing.T) {
	obs := []obligation.Obligation{
		installment(15, 12, 12, date(2025, time.January, 15)),
		installment(15, 12, 7, date(2025, time.January, 15)),
		recurring(15, 10),
	}

	changed := obligation.RecountAll(obs, date(2025, time.May, 20))

	require.True(t, changed)
	assert.Equal(t, 7, obs[0].Installment.Remaining)
	assert.Equal(t, 7, obs[1].Installment.Remaining)
}

func TestRecountInstallments_ClampedAnchorStillCounts(t *testing.T) {
	// GIVEN: anchor day 31 across February
	ob := installment(31, 12, 12, date(2025, time.January, 31))

	// WHEN: recounted on 2025-03-01, after the clamped Feb 28 anchor
	changed := ob.RecountInstallments(schedule.NewDate(2025, time.March, 1))

	assert.True(t, changed)
	assert.Equal(t, 10, ob.Installment.Remaining, "Jan 31 and clamped Feb 28 both count")
}
