// Package errs provides standardized error types for the order backend.
// It implements a consistent pattern for error creation, formatting, and unwrapping
// that is used throughout the application.
//
// The package includes several error types for common error scenarios:
//   - ValueIsRequiredError, ValueIsInvalidError, ValueIsOutOfRangeError: malformed input
//   - ObjectNotFoundError: an entity is absent
//   - ForbiddenError: the actor's role lacks authority over the order
//   - IllegalTransitionError: the requested status is not reachable
//   - InvalidStateError: the order is already finalized
//   - InsufficientBalanceError: loyalty redemption exceeds the balance
//   - ConflictError: a concurrent modification won the race
//   - UnavailableError: a collaborator timed out or is unreachable
//
// Each error type follows a consistent pattern:
//   - A sentinel error variable (e.g., ErrValueIsRequired)
//   - A struct type with fields for error details
//   - Constructor functions with and without cause
//   - Error() method for formatting the error message
//   - Unwrap() method returning the sentinel, so errors.Is works on the kind
package errs
