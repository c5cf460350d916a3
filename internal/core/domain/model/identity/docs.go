// Package identity models who acts on orders: the closed Role set and the Actor
// principal resolved by the user directory.
package identity
