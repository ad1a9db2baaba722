package models

import "time"

// Group holds the authoritative running balance for a beneficiary group.
// CurrentBalanceKes is only ever changed by the two balance adjustments
// (credit on disbursement, debit on payment) in the fund store.
type Group struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;unique"`
	Description string `gorm:"size:255"`

	// Weight used for proportional disbursement.
	KronaRatio float64 `gorm:"not null;default:0"`

	// Legacy percentage field, superseded by KronaRatio. Kept for schema
	// compatibility, always written as 0.
	DisbursementPercentage float64 `gorm:"not null;default:0"`

	CurrentBalanceKes float64 `gorm:"not null;default:0"`

	// Denormalized count of beneficiaries assigned to the group, maintained
	// by the beneficiary lifecycle handlers.
	BeneficiaryCount int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
