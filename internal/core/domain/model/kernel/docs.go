// Package kernel provides the shared value objects of the order domain:
//   - UUID: identifiers for orders, users and history entries
//   - Money: exact, non-negative monetary amounts backed by shopspring/decimal
//
// Both are immutable and safe for concurrent use. Their zero values are either
// invalid (UUID) or an explicit zero amount (Money).
package kernel
