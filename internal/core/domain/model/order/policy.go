package order

import "pizzeria/internal/core/domain/model/identity"

// rolePermissions lists, per role, the current statuses an actor of that role may act on.
// Admin may act on every non-terminal status and additionally bypasses the transition table.
var rolePermissions = [...][]Status{
	identity.UnknownRole: nil,
	identity.Admin:       {Pending, Accepted, Ready, OnTheWay, DeliveredUnpaid},
	identity.Kitchen:     {Pending, Accepted},
	identity.Delivery:    {Ready, OnTheWay},
	identity.Waiter:      {Pending, Ready, DeliveredUnpaid},
	identity.Client:      {Pending},
}

// clientTargets restricts what a client may request: cancelling their own order.
var clientTargets = []Status{Cancelled}

// ActionableStatuses returns the statuses a role may act on. It doubles as the
// role's work queue filter.
func ActionableStatuses(role identity.Role) []Status {
	if role.Validate() != nil {
		return nil
	}
	statuses := make([]Status, len(rolePermissions[role]))
	copy(statuses, rolePermissions[role])
	return statuses
}

// RoleMayActOn reports whether role may request a transition out of current.
func RoleMayActOn(role identity.Role, current Status) bool {
	for _, s := range ActionableStatuses(role) {
		if s == current {
			return true
		}
	}
	return false
}

func clientMayRequest(target Status) bool {
	for _, s := range clientTargets {
		if s == target {
			return true
		}
	}
	return false
}
