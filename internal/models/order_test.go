package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionOrder(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusPaid},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusShipping},
		{OrderStatusPaid, OrderStatusCancelled},
		{OrderStatusPaid, OrderStatusRefunded},
		{OrderStatusShipping, OrderStatusCompleted},
		{OrderStatusShipping, OrderStatusRefunded},
		{OrderStatusCompleted, OrderStatusRefunded},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransitionOrder(tr.from, tr.to), "%s → %s doit être autorisé", tr.from, tr.to)
	}

	forbidden := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusShipping},
		{OrderStatusPending, OrderStatusCompleted},
		{OrderStatusPaid, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusPaid},
		{OrderStatusRefunded, OrderStatusPending},
		{OrderStatusRefunded, OrderStatusPaid},
		{OrderStatusCompleted, OrderStatusShipping},
	}
	for _, tr := range forbidden {
		assert.False(t, CanTransitionOrder(tr.from, tr.to), "%s → %s doit être refusé", tr.from, tr.to)
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	for _, status := range []string{OrderStatusCancelled, OrderStatusRefunded} {
		for _, to := range []string{OrderStatusPending, OrderStatusPaid, OrderStatusShipping, OrderStatusCompleted} {
			assert.False(t, CanTransitionOrder(status, to))
		}
	}
}

func TestIsValidOrderStatus(t *testing.T) {
	for _, s := range []string{OrderStatusPending, OrderStatusPaid, OrderStatusShipping,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded} {
		assert.True(t, IsValidOrderStatus(s))
	}
	assert.False(t, IsValidOrderStatus("archived"))
	assert.False(t, IsValidOrderStatus(""))
}
