package fund

import "fmt"

// ValidationError is malformed or out-of-range input, caught before any
// write. No partial state exists when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientFundsError is returned before any write when a payment run
// asks for more than the group balance.
type InsufficientFundsError struct {
	GroupID      uint
	RequestedKes float64
	AvailableKes float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: group %d balance is %.2f KES, requested %.2f KES",
		e.GroupID, e.AvailableKes, e.RequestedKes)
}

// PersistenceError is a failed row insert before any balance was touched.
// The whole operation is safe to retry.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to record %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// BalanceAdjustment identifies one group credit or debit of a recorder run.
type BalanceAdjustment struct {
	GroupID   uint
	AmountKes float64
}

// PartialFailureError means transaction rows were inserted but one or more
// balance adjustments failed afterwards: the store is now inconsistent and
// needs manual reconciliation. Retrying the whole operation would
// double-count the rows; only the adjustments in Failed may be re-attempted.
type PartialFailureError struct {
	Op      string
	Applied []BalanceAdjustment
	Failed  []BalanceAdjustment
	Err     error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s recorded, but %d of %d balance adjustments failed: %v",
		e.Op, len(e.Failed), len(e.Applied)+len(e.Failed), e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// ReferentialIntegrityError surfaces a store-level reference violation
// verbatim, e.g. deleting a group that still has beneficiaries.
type ReferentialIntegrityError struct {
	Entity string
	ID     uint
	Reason string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("cannot delete %s %d: %s", e.Entity, e.ID, e.Reason)
}
