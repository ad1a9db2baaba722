package models

import "time"

type BeneficiaryStatus string

const (
	BeneficiaryActive    BeneficiaryStatus = "active"
	BeneficiaryInactive  BeneficiaryStatus = "inactive"
	BeneficiaryGraduated BeneficiaryStatus = "graduated"
)

// Beneficiary belongs to exactly one group. Only active beneficiaries
// participate in equal-split payment runs.
type Beneficiary struct {
	ID      uint `gorm:"primaryKey"`
	GroupID uint `gorm:"index;not null"`
	Group   Group

	SponsorNumber string `gorm:"size:50;uniqueIndex;not null"`
	FullName      string `gorm:"size:100;not null"`
	IDNumber      string `gorm:"size:50"`
	DateOfBirth   time.Time
	PhoneNumber   string `gorm:"size:50"`
	Gender        string `gorm:"size:10"` // male / female / other
	GuardianName  string `gorm:"size:100"`
	GuardianPhone string `gorm:"size:50"`
	GuardianID    string `gorm:"size:50"`

	Status BeneficiaryStatus `gorm:"size:20;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
