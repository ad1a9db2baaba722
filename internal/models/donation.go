package models

import "time"

// Donation is immutable once created. KesAmount is computed from
// SekAmount * ExchangeRate at creation time and persisted; it is never
// recomputed, so later rate changes do not touch historical donations.
type Donation struct {
	ID           uint    `gorm:"primaryKey"`
	UserID       uint    `gorm:"index;not null"` // recording user
	DonorName    string  `gorm:"size:100;not null"`
	SekAmount    float64 `gorm:"not null"`
	ExchangeRate float64 `gorm:"not null"` // 1 SEK = X KES
	KesAmount    float64 `gorm:"not null"`
	DateReceived time.Time `gorm:"index;not null"`
	CreatedAt    time.Time // recorded_at
}
