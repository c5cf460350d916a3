package order_test

import (
	"testing"

	"pizzeria/internal/core/domain/model/identity"
	"pizzeria/internal/core/domain/model/order"
	"pizzeria/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringAndCode(t *testing.T) {
	cases := []struct {
		status order.Status
		name   string
		code   string
	}{
		{order.Pending, "PENDING", "PE"},
		{order.Accepted, "ACCEPTED", "AP"},
		{order.Ready, "READY", "RE"},
		{order.OnTheWay, "ON_THE_WAY", "OW"},
		{order.DeliveredUnpaid, "DELIVERED_UNPAID", "DN"},
		{order.DeliveredPaid, "DELIVERED_PAID", "DY"},
		{order.Cancelled, "CANCELLED", "CA"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.name, tc.status.String())
			assert.Equal(t, tc.code, tc.status.Code())

			byName, err := order.ParseStatus(tc.name)
			require.NoError(t, err)
			assert.Equal(t, tc.status, byName)

			byCode, err := order.ParseStatus(" " + tc.code + " ")
			require.NoError(t, err)
			assert.Equal(t, tc.status, byCode)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, "UNKNOWN", order.Unknown.String())
		assert.Empty(t, order.Unknown.Code())

		_, err := order.ParseStatus("SHIPPED")
		require.Error(t, err)
		assert.True(t, errs.IsInvalidArgument(err))
	})
}

func TestStatus_Transitions(t *testing.T) {
	expected := map[order.Status][]order.Status{
		order.Pending:         {order.Accepted, order.Cancelled},
		order.Accepted:        {order.Ready, order.Cancelled},
		order.Ready:           {order.OnTheWay, order.DeliveredUnpaid},
		order.OnTheWay:        {order.DeliveredPaid, order.Cancelled},
		order.DeliveredUnpaid: {order.DeliveredPaid, order.Cancelled},
		order.DeliveredPaid:   {},
		order.Cancelled:       {},
	}

	for from, next := range expected {
		assert.ElementsMatch(t, next, from.AllowedTransitions(), from.String())
		assert.Equal(t, len(next) == 0, from.IsTerminal(), from.String())
		for _, to := range order.Statuses() {
			assert.Equal(t, contains(next, to), from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	t.Run("allowed transitions are a copy", func(t *testing.T) {
		next := order.Pending.AllowedTransitions()
		next[0] = order.DeliveredPaid
		assert.False(t, order.Pending.CanTransitionTo(order.DeliveredPaid))
	})

	t.Run("unknown has no transitions", func(t *testing.T) {
		assert.Nil(t, order.Unknown.AllowedTransitions())
		assert.False(t, order.Unknown.CanTransitionTo(order.Pending))
		assert.Error(t, order.Unknown.Validate())
		assert.Error(t, order.Status(42).Validate())
	})
}

func TestActionableStatuses(t *testing.T) {
	assert.Equal(t, []order.Status{order.Pending, order.Accepted}, order.ActionableStatuses(identity.Kitchen))
	assert.Equal(t, []order.Status{order.Ready, order.OnTheWay}, order.ActionableStatuses(identity.Delivery))
	assert.Equal(t, []order.Status{order.Pending, order.Ready, order.DeliveredUnpaid}, order.ActionableStatuses(identity.Waiter))
	assert.Equal(t, []order.Status{order.Pending}, order.ActionableStatuses(identity.Client))
	assert.Len(t, order.ActionableStatuses(identity.Admin), 5)
	assert.Nil(t, order.ActionableStatuses(identity.UnknownRole))

	for _, s := range order.ActionableStatuses(identity.Admin) {
		assert.False(t, s.IsTerminal())
	}
	assert.False(t, order.RoleMayActOn(identity.Delivery, order.Pending))
	assert.True(t, order.RoleMayActOn(identity.Waiter, order.DeliveredUnpaid))
}

func contains(list []order.Status, s order.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
