package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatchEligible(t *testing.T) {
	now := time.Now()
	threshold := 2 * time.Hour

	t.Run("unpaid deposit blocks dispatch", func(t *testing.T) {
		job := &Job{DepositPaid: false, AssignmentStatus: AssignmentStatusUnassigned}
		assert.False(t, job.DispatchEligible(threshold, now))
	})

	t.Run("unassigned paid job is eligible", func(t *testing.T) {
		job := &Job{DepositPaid: true, AssignmentStatus: AssignmentStatusUnassigned}
		assert.True(t, job.DispatchEligible(threshold, now))
	})

	t.Run("freshly alerted job waits out the threshold", func(t *testing.T) {
		recent := now.Add(-30 * time.Minute)
		job := &Job{DepositPaid: true, AssignmentStatus: AssignmentStatusAlerted, LastAlertAt: &recent}
		assert.False(t, job.DispatchEligible(threshold, now))
	})

	t.Run("stale alerted job is eligible again", func(t *testing.T) {
		stale := now.Add(-3 * time.Hour)
		job := &Job{DepositPaid: true, AssignmentStatus: AssignmentStatusAlerted, LastAlertAt: &stale}
		assert.True(t, job.DispatchEligible(threshold, now))
	})

	t.Run("assigned job never re-dispatches", func(t *testing.T) {
		job := &Job{DepositPaid: true, AssignmentStatus: AssignmentStatusAssigned}
		assert.False(t, job.DispatchEligible(threshold, now))
	})
}

func TestAmountDue(t *testing.T) {
	subtotal := 950.0
	job := &Job{QuoteSubtotal: &subtotal, DepositAmount: 100}

	due, ok := job.AmountDue()
	assert.True(t, ok)
	assert.Equal(t, 850.0, due)

	job.QuoteSubtotal = nil
	_, ok = job.AmountDue()
	assert.False(t, ok, "no quote means no balance to report")
}

func TestAlertStatusTerminal(t *testing.T) {
	assert.False(t, AlertStatusSent.Terminal())
	assert.False(t, AlertStatusViewed.Terminal())
	assert.False(t, AlertStatusInterested.Terminal())
	assert.True(t, AlertStatusNotInterested.Terminal())
	assert.True(t, AlertStatusClaimed.Terminal())
	assert.True(t, AlertStatusCompleted.Terminal())
	assert.True(t, AlertStatusExpired.Terminal())
}
