package models

import "time"

// BeneficiaryPayment is an immutable transaction row recording a transfer
// from a group balance to one beneficiary. All payments produced by one
// equal-split run share a PaymentRunID; the group is debited once per run
// with the summed amount, not once per row.
type BeneficiaryPayment struct {
	ID            uint `gorm:"primaryKey"`
	UserID        uint `gorm:"index;not null"`
	GroupID       uint `gorm:"index;not null"`
	Group         Group
	BeneficiaryID uint `gorm:"index;not null"`
	Beneficiary   Beneficiary

	AmountKes    float64   `gorm:"not null"`
	PaymentRunID string    `gorm:"size:36;index;not null"`
	Notes        string    `gorm:"size:255"`
	DatePaid     time.Time `gorm:"index;not null"`

	CreatedAt time.Time
}
