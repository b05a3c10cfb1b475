// Package capacity is the single serialization point for scholarship slot
// allocation. Every approval and every reversal passes through the ledger,
// which can never drive slots_available negative or past slots_total.
package capacity

import (
	"database/sql"
	"fmt"

	"scholartrack/internal/apperrors"
)

// Ledger serializes slot reservation across concurrent approval attempts.
// Each operation is one guarded UPDATE, so the database row itself is the
// per-scholarship mutual exclusion scope; no lock is held outside the
// statement.
type Ledger struct {
	db *sql.DB
}

// NewLedger creates a ledger over the scholarships table
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Reserve atomically claims one slot of the scholarship. It fails with a
// capacity-exhausted error, and changes nothing, when no slot is free.
func (l *Ledger) Reserve(scholarshipID uint) error {
	query := `
		UPDATE scholarships
		SET slots_available = slots_available - 1,
		    beneficiaries_count = beneficiaries_count + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND slots_available > 0
	`
	res, err := l.db.Exec(query, scholarshipID)
	if err != nil {
		return fmt.Errorf("failed to reserve slot for scholarship %d: %w", scholarshipID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.CapacityExhausted(scholarshipID)
	}
	return nil
}

// Release atomically returns one slot, used on approval reversal or an
// approved applicant's withdrawal. Releasing beyond slots_total is refused.
func (l *Ledger) Release(scholarshipID uint) error {
	query := `
		UPDATE scholarships
		SET slots_available = slots_available + 1,
		    beneficiaries_count = beneficiaries_count - 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND slots_available < slots_total
	`
	res, err := l.db.Exec(query, scholarshipID)
	if err != nil {
		return fmt.Errorf("failed to release slot for scholarship %d: %w", scholarshipID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.Conflictf("scholarship %d has no reserved slots to release", scholarshipID)
	}
	return nil
}
