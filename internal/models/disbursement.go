package models

import "time"

// Disbursement is an immutable transaction row recording a transfer from
// main cash to one group. Each row corresponds to exactly one credit of the
// same amount on the group balance.
type Disbursement struct {
	ID      uint `gorm:"primaryKey"`
	UserID  uint `gorm:"index;not null"`
	GroupID uint `gorm:"index;not null"`
	Group   Group

	AmountKes     float64   `gorm:"not null"`
	Notes         string    `gorm:"size:255"`
	DateDisbursed time.Time `gorm:"index;not null"`
	RecordedBy    string    `gorm:"size:100"` // actor display name/email

	CreatedAt time.Time
}
