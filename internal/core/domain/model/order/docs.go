// Package order holds the Order aggregate and its lifecycle rules.
//
// The package includes:
//   - Order: the aggregate root with pricing, scheduling and status changes
//   - Item: an order line, either a catalog product or a build-your-own item
//   - Status: the fulfillment state machine and its legal-transition table
//   - the role-permission table deciding which roles may act on which statuses
//   - HistoryEntry: the append-only status audit trail
//   - StatusChanged and ScheduledOrderDue: events for the notification channel
//
// Key business rules:
//   - the total is the sum of line subtotals minus the loyalty discount, floored at zero
//   - a scheduled time must be at least one hour ahead when the order is placed
//   - DELIVERED_PAID and CANCELLED are terminal, for every role
//   - non-admin roles act only on the statuses their role lists and only along legal edges
//   - admins may force any change out of a non-terminal status
//   - clients may only cancel their own pending orders
package order
