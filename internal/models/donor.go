package models

import "time"

// Donor is the contact registry only. Donations denormalize the donor name
// so the transaction history is unaffected by later edits here.
type Donor struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:100;not null;unique"`
	ContactEmail string `gorm:"size:100"`
	ContactPhone string `gorm:"size:50"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
