// Package loyalty models the per-user points balance: 1 point per 10.00 spent,
// redeemable in blocks of 10 points for 5.00 off an order.
package loyalty
